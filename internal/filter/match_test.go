package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

func TestOperators(t *testing.T) {
	r := ir.Record{"n": 10, "s": "abc", "f": 2.5, "nil": nil}
	tests := []struct {
		name  string
		field string
		op    queryir.Op
		value any
		want  bool
	}{
		{"eq int", "n", queryir.OpEq, 10, true},
		{"eq numeric string", "n", queryir.OpEq, "10", true},
		{"eq text", "s", queryir.OpEq, "abc", true},
		{"eq text mismatch", "s", queryir.OpEq, "abd", false},
		{"ne", "n", queryir.OpNe, 11, true},
		{"ne bang", "n", queryir.OpNeBang, 10, false},
		{"gt", "n", queryir.OpGt, 9, true},
		{"gt equal", "n", queryir.OpGt, 10, false},
		{"ge", "n", queryir.OpGe, 10, true},
		{"lt float", "f", queryir.OpLt, 3, true},
		{"le", "f", queryir.OpLe, 2.5, true},
		{"lt text", "s", queryir.OpLt, "abd", true},
		{"in", "n", queryir.OpIn, []int{1, 10}, true},
		{"in miss", "n", queryir.OpIn, []int{1, 2}, false},
		{"in empty", "n", queryir.OpIn, []int{}, false},
		{"not in", "n", queryir.OpNotIn, []int{1, 2}, true},
		{"not in empty", "n", queryir.OpNotIn, []any{}, true},
		{"eq list becomes in", "n", queryir.OpEq, []any{10, 11}, true},
		{"ne list becomes not in", "n", queryir.OpNe, []any{10, 11}, false},
		{"in rows uses first field", "n", queryir.OpIn, []ir.Row{ir.Record{"id": 10}}, true},
		{"in scalar", "n", queryir.OpIn, 10, true},
		{"like prefix", "s", queryir.OpLike, "ab%", true},
		{"like single", "s", queryir.OpLike, "a?c", true},
		{"like anchored", "s", queryir.OpLike, "b%", false},
		{"not like", "s", queryir.OpNotLike, "x%", true},
		{"lowercase op", "s", queryir.Op("like"), "%c", true},
		{"missing eq nil", "missing", queryir.OpEq, nil, true},
		{"nil ne nil", "nil", queryir.OpNe, nil, false},
		{"nil ne value", "nil", queryir.OpNe, 1, true},
		{"nil gt", "nil", queryir.OpGt, -1, false},
		{"nil lt", "nil", queryir.OpLt, 1, false},
		{"nil like", "nil", queryir.OpLike, "%", false},
		{"nil not like", "nil", queryir.OpNotLike, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := mustCompile(t, []queryir.Condition{{Field: tt.field, Op: tt.op, Value: tt.value}})
			assert.Equal(t, tt.want, tree.Match(r))
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name  string
		cond  queryir.Condition
		check func(error) bool
	}{
		{"unknown operator", queryir.Condition{Field: "a", Op: "~", Value: 1}, queryir.IsUnsupportedOperator},
		{"sub-select", queryir.Condition{Field: "a", Op: queryir.OpIn, Value: queryir.NewQuery(nil)}, queryir.IsUnsupportedValue},
		{"like nil", queryir.Condition{Field: "a", Op: queryir.OpLike}, queryir.IsUnsupportedValue},
		{"gt list", queryir.Condition{Field: "a", Op: queryir.OpGt, Value: []int{1}}, queryir.IsUnsupportedValue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]queryir.Condition{tt.cond})
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
}

func TestCompile_UnknownOperatorInGroup(t *testing.T) {
	_, err := Compile([]queryir.Condition{
		leaf(queryir.And, "a"),
		group(queryir.Or, queryir.Condition{Field: "b", Op: "BETWEEN", Value: 1}),
	})
	assert.True(t, queryir.IsUnsupportedOperator(err))
}

func TestCompileLike(t *testing.T) {
	tests := []struct {
		pattern string
		input   string
		want    bool
	}{
		{"%", "", true},
		{"a%", "abc", true},
		{"%c", "abc", true},
		{"a?c", "abc", true},
		{"a?c", "ac", false},
		{"a.c", "abc", false},
		{"a.c", "a.c", true},
		{"(a)+", "(a)+", true},
		{"(a)+", "aa", false},
		{"[ab]%", "[ab]x", true},
		{"[ab]%", "a", false},
		{"50$%", "50$ off", true},
		{"a%", "a\nb", true},
		{"ABC", "abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.pattern+"/"+tt.input, func(t *testing.T) {
			re, err := CompileLike(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, re.MatchString(tt.input))
		})
	}
}
