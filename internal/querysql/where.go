package querysql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// whereCompiler renders a where list. Field references are emitted as
// %(field:...) tags and values as %(whereParam:pN) tags whose rendered
// literals are kept in params, so neither is re-scanned as template text.
type whereCompiler struct {
	c      *Compiler
	params map[string]string
	nextID int
}

func newWhereCompiler(c *Compiler) *whereCompiler {
	return &whereCompiler{c: c, params: make(map[string]string)}
}

// compile joins the fragments of conds with their join keywords. Groups are
// parenthesized; AND/OR precedence is otherwise left to the database.
// Empty groups are skipped.
func (w *whereCompiler) compile(conds []queryir.Condition) (string, error) {
	var b strings.Builder
	for _, cond := range conds {
		var frag string
		var err error
		if cond.IsGroup() {
			frag, err = w.compile(cond.Group)
			if err != nil {
				return "", err
			}
			if frag == "" {
				continue
			}
			frag = "(" + frag + ")"
		} else {
			frag, err = w.compileLeaf(cond)
			if err != nil {
				return "", err
			}
		}
		if b.Len() > 0 {
			join := cond.Join
			if join != queryir.Or {
				join = queryir.And
			}
			b.WriteString(" " + string(join) + " ")
		}
		b.WriteString(frag)
	}
	return b.String(), nil
}

func (w *whereCompiler) compileLeaf(cond queryir.Condition) (string, error) {
	field := cond.Field
	if cond.IsKey {
		field = w.c.model.KeyFieldName(w.c.entity)
	}
	op := queryir.NormalizeOp(string(cond.Op))
	if !op.Known() {
		return "", queryir.Errorf(queryir.ErrCodeUnsupportedOperator, "where",
			"field %s: operator %q is not supported", field, string(cond.Op))
	}

	var value string
	switch v := cond.Value.(type) {
	case queryir.SubSelect:
		sub, err := v.SelectSQL()
		if err != nil {
			return "", fmt.Errorf("field %s: render sub-select: %w", field, err)
		}
		op = listOp(op)
		if op != queryir.OpIn && op != queryir.OpNotIn {
			return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "where",
				"field %s: operator %s cannot compare with a sub-select", field, op)
		}
		value = "(" + sub + ")"
	default:
		if ir.IsList(v) {
			list, _ := ir.AsList(v)
			op = listOp(op)
			if op != queryir.OpIn && op != queryir.OpNotIn {
				return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "where",
					"field %s: operator %s does not accept a list", field, op)
			}
			if len(list) == 0 {
				if op == queryir.OpIn {
					return "1 > 2", nil
				}
				return "1 = 1", nil
			}
			rendered, err := w.renderList(field, list)
			if err != nil {
				return "", err
			}
			value = rendered
			break
		}
		if v == nil && op == queryir.OpEq {
			op, value = "IS", "NULL"
			break
		}
		if v == nil && (op == queryir.OpNe || op == queryir.OpNeBang) {
			op, value = "IS", "NOT NULL"
			break
		}
		if op == queryir.OpIn || op == queryir.OpNotIn {
			rendered, err := w.renderList(field, []any{v})
			if err != nil {
				return "", err
			}
			value = rendered
			break
		}
		t, err := w.valueType(field, op)
		if err != nil {
			return "", err
		}
		value, err = w.c.dialect.Value(v, t)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field, err)
		}
	}

	key := w.register(value)
	return w.c.fieldExpr(field, true) + " " + string(op) + " %(whereParam:" + key + ")", nil
}

// listOp turns the equality operators into their set forms.
func listOp(op queryir.Op) queryir.Op {
	switch op {
	case queryir.OpEq:
		return queryir.OpIn
	case queryir.OpNe, queryir.OpNeBang:
		return queryir.OpNotIn
	}
	return op
}

func (w *whereCompiler) renderList(field string, list []any) (string, error) {
	t, err := w.valueType(field, queryir.OpIn)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(list))
	for i, elem := range list {
		parts[i], err = w.c.dialect.Value(ir.Scalar(elem), t)
		if err != nil {
			return "", fmt.Errorf("field %s: element %d: %w", field, i, err)
		}
	}
	return "(" + strings.Join(parts, ",") + ")", nil
}

// valueType is the field type used to encode a compared value. Patterns
// are always text.
func (w *whereCompiler) valueType(field string, op queryir.Op) (model.FieldType, error) {
	if op == queryir.OpLike || op == queryir.OpNotLike {
		return model.String, nil
	}
	if _, ok := w.c.complex[field]; ok {
		return model.Implicit, nil
	}
	return fieldType(w.c.model, w.c.entity, field)
}

func (w *whereCompiler) register(value string) string {
	w.nextID++
	key := "p" + strconv.Itoa(w.nextID)
	w.params[key] = value
	return key
}
