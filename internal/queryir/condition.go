package queryir

import (
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
)

// Op is a comparison operator.
type Op string

const (
	OpEq      Op = "="
	OpNe      Op = "<>"
	OpNeBang  Op = "!="
	OpGt      Op = ">"
	OpLt      Op = "<"
	OpGe      Op = ">="
	OpLe      Op = "<="
	OpIn      Op = "IN"
	OpNotIn   Op = "NOT IN"
	OpLike    Op = "LIKE"
	OpNotLike Op = "NOT LIKE"
)

// Known reports whether op is one of the supported operators.
func (op Op) Known() bool {
	switch op {
	case OpEq, OpNe, OpNeBang, OpGt, OpLt, OpGe, OpLe, OpIn, OpNotIn, OpLike, OpNotLike:
		return true
	}
	return false
}

// NormalizeOp upper-cases an operator and collapses inner whitespace, so
// "not  in" becomes NOT IN. Unknown operators are kept; engines reject them
// when the query is compiled.
func NormalizeOp(s string) Op {
	return Op(strings.Join(strings.Fields(strings.ToUpper(s)), " "))
}

// Join is the boolean connective placed before a condition.
type Join string

const (
	And Join = "AND"
	Or  Join = "OR"
)

// keyRef is the type of Key.
type keyRef struct{}

// Key stands for the entity's key field in a condition:
//
//	q.Where(queryir.Key, 5)
//
// The collection engine resolves it to its configured key field, the SQL
// engine to the model's key field name.
var Key = keyRef{}

// Condition is one entry of a where list: either a leaf comparison or a
// nested group of conditions.
//
// The Join of the first condition in a list is ignored.
type Condition struct {
	Join Join

	// Field is the dotted field reference of a leaf ("status",
	// "customer.name"). Empty for key conditions and groups.
	Field string

	// IsKey marks a leaf that targets the entity key field.
	IsKey bool

	Op    Op
	Value any

	// Group holds the conditions of a nested group. Non-nil for groups only.
	Group []Condition
}

// IsGroup reports whether c is a nested group.
func (c Condition) IsGroup() bool { return c.Group != nil }

// ConditionSource is implemented by everything that carries a where list.
// Passing one as the field argument of Where creates a nested group.
type ConditionSource interface {
	WhereConditions() []Condition
}

// whereList holds the shared where-building state of all query builders.
type whereList struct {
	where []Condition
	err   error
}

func (w *whereList) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// add records one where/orWhere call.
//
// Accepted forms:
//
//	(field)               value 1, operator =
//	(field, value)        operator =
//	(field, op, value)
//	(group)               nested group
//
// An = with a collection value becomes IN. Any other arity is recorded as an
// INVALID_QUERY error; the first error wins.
func (w *whereList) add(join Join, args []any) {
	op := "where"
	if join == Or {
		op = "orWhere"
	}
	if len(args) == 0 || len(args) > 3 {
		w.fail(Errorf(ErrCodeInvalidQuery, op, "invalid number of arguments: %d", len(args)))
		return
	}

	if group, ok := args[0].(ConditionSource); ok {
		if len(args) != 1 {
			w.fail(Errorf(ErrCodeInvalidQuery, op, "a condition group takes no value"))
			return
		}
		if e, ok := args[0].(interface{ Err() error }); ok && e.Err() != nil {
			w.fail(e.Err())
			return
		}
		sub := group.WhereConditions()
		if sub == nil {
			sub = []Condition{}
		}
		w.where = append(w.where, Condition{Join: join, Group: sub})
		return
	}

	cond := Condition{Join: join, Op: OpEq, Value: 1}
	switch f := args[0].(type) {
	case string:
		if f == "" {
			w.fail(Errorf(ErrCodeInvalidQuery, op, "empty field name"))
			return
		}
		cond.Field = f
	case keyRef:
		cond.IsKey = true
	default:
		w.fail(Errorf(ErrCodeInvalidQuery, op, "field must be a string, queryir.Key or a condition group, got %T", args[0]))
		return
	}

	switch len(args) {
	case 2:
		cond.Value = args[1]
	case 3:
		switch o := args[1].(type) {
		case string:
			cond.Op = NormalizeOp(o)
		case Op:
			cond.Op = NormalizeOp(string(o))
		default:
			w.fail(Errorf(ErrCodeInvalidQuery, op, "operator must be a string, got %T", args[1]))
			return
		}
		cond.Value = args[2]
	}

	if cond.Op == OpEq && ir.IsList(cond.Value) {
		cond.Op = OpIn
	}
	w.where = append(w.where, cond)
}

// Conditions is a standalone where list used to build nested groups.
type Conditions struct {
	whereList
}

// Where creates a condition group:
//
//	q.Where("date", ">", "2015-05-05").
//		Where(queryir.Where("date", "<", "2018").OrWhere("status", "planned"))
//
// renders as date > '2015-05-05' AND (date < '2018' OR status = 'planned').
func Where(args ...any) *Conditions {
	c := &Conditions{}
	c.add(And, args)
	return c
}

// Where appends an AND condition.
func (c *Conditions) Where(args ...any) *Conditions {
	c.add(And, args)
	return c
}

// OrWhere appends an OR condition.
func (c *Conditions) OrWhere(args ...any) *Conditions {
	c.add(Or, args)
	return c
}

// WhereConditions implements ConditionSource.
func (c *Conditions) WhereConditions() []Condition { return c.where }

// Err returns the first construction error.
func (c *Conditions) Err() error { return c.err }
