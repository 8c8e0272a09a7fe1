package filter

import (
	"regexp"
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// matcher is a compiled leaf condition.
type matcher struct {
	op     queryir.Op
	value  any
	values []any
	re     *regexp.Regexp
}

func compileLeaf(field string, op queryir.Op, value any) (matcher, error) {
	op = queryir.NormalizeOp(string(op))
	if !op.Known() {
		return matcher{}, queryir.Errorf(queryir.ErrCodeUnsupportedOperator, "filter.Compile",
			"field %s: operator %q is not supported", field, string(op))
	}
	if _, ok := value.(queryir.SubSelect); ok {
		return matcher{}, queryir.Errorf(queryir.ErrCodeUnsupportedValue, "filter.Compile",
			"field %s: sub-select values cannot be evaluated in memory", field)
	}

	if ir.IsList(value) {
		switch op {
		case queryir.OpEq:
			op = queryir.OpIn
		case queryir.OpNe, queryir.OpNeBang:
			op = queryir.OpNotIn
		}
	}

	m := matcher{op: op, value: value}
	switch op {
	case queryir.OpIn, queryir.OpNotIn:
		list, ok := ir.AsList(value)
		if !ok {
			list = []any{value}
		}
		m.values = make([]any, len(list))
		for i, v := range list {
			m.values[i] = ir.Scalar(v)
		}
	case queryir.OpLike, queryir.OpNotLike:
		if value == nil || ir.IsList(value) {
			return matcher{}, queryir.Errorf(queryir.ErrCodeUnsupportedValue, "filter.Compile",
				"field %s: LIKE needs a text pattern", field)
		}
		re, err := CompileLike(ir.ToString(value))
		if err != nil {
			return matcher{}, queryir.Errorf(queryir.ErrCodeUnsupportedValue, "filter.Compile",
				"field %s: %v", field, err)
		}
		m.re = re
	case queryir.OpGt, queryir.OpLt, queryir.OpGe, queryir.OpLe:
		if ir.IsList(value) {
			return matcher{}, queryir.Errorf(queryir.ErrCodeUnsupportedValue, "filter.Compile",
				"field %s: operator %s does not accept a list", field, string(op))
		}
	}
	return m, nil
}

// test evaluates the condition against a row value. A missing field reads
// as nil. Ordering and pattern operators never accept nil, as in SQL.
func (m matcher) test(v any) bool {
	switch m.op {
	case queryir.OpEq:
		return ir.LooseEqual(v, m.value)
	case queryir.OpNe, queryir.OpNeBang:
		return !ir.LooseEqual(v, m.value)
	case queryir.OpGt:
		return v != nil && m.value != nil && ir.Compare(v, m.value) > 0
	case queryir.OpLt:
		return v != nil && m.value != nil && ir.Compare(v, m.value) < 0
	case queryir.OpGe:
		return v != nil && m.value != nil && ir.Compare(v, m.value) >= 0
	case queryir.OpLe:
		return v != nil && m.value != nil && ir.Compare(v, m.value) <= 0
	case queryir.OpIn:
		return m.contains(v)
	case queryir.OpNotIn:
		return !m.contains(v)
	case queryir.OpLike:
		return v != nil && m.re.MatchString(ir.ToString(v))
	case queryir.OpNotLike:
		return v != nil && !m.re.MatchString(ir.ToString(v))
	}
	return false
}

func (m matcher) contains(v any) bool {
	for _, candidate := range m.values {
		if ir.LooseEqual(v, candidate) {
			return true
		}
	}
	return false
}

// likePlaceholder stands in for '?' while the rest of the pattern is quoted.
const likePlaceholder = "\x12"

// CompileLike translates a LIKE pattern into an anchored regular expression:
// % matches any sequence, ? matches one character, everything else matches
// itself.
func CompileLike(pattern string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(strings.ReplaceAll(pattern, "?", likePlaceholder))
	quoted = strings.ReplaceAll(quoted, likePlaceholder, ".")
	quoted = strings.ReplaceAll(quoted, "%", ".*")
	return regexp.Compile("(?s)^" + quoted + "$")
}
