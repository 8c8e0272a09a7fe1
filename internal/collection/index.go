package collection

import (
	"slices"

	"github.com/enquinity/pdquery/internal/ir"
)

// index maps normalized field values to row positions in table order.
// Rows without the field are indexed under ir.NilKey, matching how the
// filter reads a missing field.
type index struct {
	field     string
	positions map[any][]int
}

func buildIndex(field string, rows []ir.Row) *index {
	idx := &index{field: field, positions: make(map[any][]int)}
	for i, r := range rows {
		v, _ := r.Get(field)
		k := ir.IndexKey(v)
		idx.positions[k] = append(idx.positions[k], i)
	}
	return idx
}

// lookup returns the positions of rows whose field equals any of values,
// in table order and without duplicates.
func (idx *index) lookup(values []any) []int {
	var out []int
	for _, v := range values {
		out = append(out, idx.positions[ir.IndexKey(ir.Scalar(v))]...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
