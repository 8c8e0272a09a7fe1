package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the portability analysis of a query.
//
// A portable query returns the same rows from the collection engine and the
// SQL engine. Non-portable queries are allowed; the warnings tell the caller
// which engine will ignore or reject which feature.
type ValidationResult struct {
	// IsPortable indicates the query behaves identically on both engines.
	IsPortable bool

	// Warnings lists the non-portable features used in the query.
	// Empty when IsPortable is true.
	Warnings []string
}

// Validate checks whether a select spec behaves identically on the
// collection and SQL engines.
//
// Portability rules:
//  1. Custom comparator order terms cannot be rendered as SQL
//  2. Relations, dotted field references and sub-select values need joins
//     the collection engine does not perform
//  3. Projection and grouping are ignored by the collection engine
//  4. LIKE is case-sensitive in memory while most SQL collations are not
//  5. Unknown operators fail on both engines
//
// Validate is a pure function with no side effects.
func Validate(spec *SelectSpec) ValidationResult {
	v := &validator{
		warnings: []string{},
	}
	if spec == nil {
		v.addWarning("nil query")
	} else {
		v.validateSelect(spec)
	}
	return ValidationResult{
		IsPortable: len(v.warnings) == 0,
		Warnings:   v.warnings,
	}
}

// validator accumulates warnings during traversal.
type validator struct {
	warnings []string
}

func (v *validator) addWarning(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *validator) validateSelect(spec *SelectSpec) {
	for i, t := range spec.OrderBy {
		if t.Func != nil {
			v.addWarning("order term %d uses a custom comparator: not supported by the SQL engine", i)
		} else if strings.Contains(t.Field, ".") {
			v.addWarning("order field %q references a relation: not supported by the collection engine", t.Field)
		}
	}
	if len(spec.Relations) > 0 {
		v.addWarning("relations %v are ignored by the collection engine", spec.Relations)
	}
	if !spec.AllFields() {
		v.addWarning("field projection is ignored by the collection engine")
	}
	if len(spec.GroupBy) > 0 {
		v.addWarning("group by is ignored by the collection engine")
	}
	v.validateConditions(spec.Where)
}

func (v *validator) validateConditions(conds []Condition) {
	for _, c := range conds {
		if c.IsGroup() {
			v.validateConditions(c.Group)
			continue
		}
		v.validateLeaf(c)
	}
}

func (v *validator) validateLeaf(c Condition) {
	name := c.Field
	if c.IsKey {
		name = "<key>"
	}
	if !c.Op.Known() {
		v.addWarning("field %q uses unsupported operator %q", name, c.Op)
	}
	if op := NormalizeOp(string(c.Op)); op == OpLike || op == OpNotLike {
		v.addWarning("field %q uses %s: case sensitivity depends on the engine", name, op)
		if p, ok := c.Value.(string); ok && strings.ContainsAny(p, "?_") {
			v.addWarning("field %q pattern %q: ? matches one character in memory and _ in SQL", name, p)
		}
	}
	if strings.Contains(c.Field, ".") {
		v.addWarning("field %q references a relation: not supported by the collection engine", c.Field)
	}
	if _, ok := c.Value.(SubSelect); ok {
		v.addWarning("field %q compared to a sub-select: not supported by the collection engine", name)
	}
}
