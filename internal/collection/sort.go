package collection

import (
	"strings"

	"golang.org/x/text/collate"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// comparator builds a three-way row comparison from order terms. Terms are
// evaluated left to right and the first non-zero result wins; descending
// terms flip the sign, custom functions included.
func (e *Engine) comparator(terms []queryir.OrderTerm) func(a, b ir.Row) int {
	compareText := strings.Compare
	if e.collation != nil {
		// Collators keep internal buffers, so each comparator owns one.
		c := collate.New(*e.collation, e.collOpts...)
		compareText = c.CompareString
	}
	return func(a, b ir.Row) int {
		for _, t := range terms {
			var r int
			if t.Func != nil {
				r = sign(t.Func(a, b))
			} else {
				r = compareValues(ir.Value(a, t.Field), ir.Value(b, t.Field), compareText)
			}
			if t.Desc {
				r = -r
			}
			if r != 0 {
				return r
			}
		}
		return 0
	}
}

// compareValues compares as text when either side is text, otherwise by
// value (numbers numerically, nil first).
func compareValues(a, b any, compareText func(a, b string) int) int {
	if (ir.IsText(a) || ir.IsText(b)) && a != nil && b != nil {
		return sign(compareText(ir.ToString(a), ir.ToString(b)))
	}
	return ir.Compare(a, b)
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
