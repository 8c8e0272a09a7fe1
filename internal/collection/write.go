package collection

import (
	"context"
	"maps"

	"github.com/enquinity/pdquery/internal/filter"
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// UpdateData applies the assignments of q to every matching row and returns
// the number of rows changed. Updated rows are stored as records.
func (e *Engine) UpdateData(ctx context.Context, q *queryir.UpdateSpec) (int64, error) {
	if len(q.Set) == 0 {
		return 0, queryir.Errorf(queryir.ErrCodeInvalidQuery, "update", "no assignments")
	}
	return e.rewrite(ctx, "update", q.Where, func(r ir.Row) (ir.Row, bool) {
		rec := maps.Clone(ir.ToRecord(r))
		if rec == nil {
			rec = ir.Record{}
		}
		for _, a := range q.Set {
			rec[a.Field] = a.Value
		}
		return rec, true
	})
}

// DeleteData removes every matching row and returns how many were removed.
func (e *Engine) DeleteData(ctx context.Context, q *queryir.DeleteSpec) (int64, error) {
	return e.rewrite(ctx, "delete", q.Where, func(ir.Row) (ir.Row, bool) {
		return nil, false
	})
}

// InsertData appends rows to the table.
func (e *Engine) InsertData(ctx context.Context, rows ...ir.Row) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.loadLocked("insert"); err != nil {
		return 0, err
	}
	next := make([]ir.Row, 0, len(e.rows)+len(rows))
	next = append(next, e.rows...)
	next = append(next, rows...)
	return e.commitLocked(next, int64(len(rows)))
}

// rewrite replaces each row matching where by fn's result, dropping it when
// fn reports false. The table is copied, not modified in place.
func (e *Engine) rewrite(ctx context.Context, op string, where []queryir.Condition, fn func(ir.Row) (ir.Row, bool)) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	tree, err := filter.Compile(where, filter.WithKeyField(e.keyField))
	if err != nil {
		return 0, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.loadLocked(op); err != nil {
		return 0, err
	}
	next := make([]ir.Row, 0, len(e.rows))
	var affected int64
	for _, r := range e.rows {
		if !tree.Match(r) {
			next = append(next, r)
			continue
		}
		affected++
		if out, keep := fn(r); keep {
			next = append(next, out)
		}
	}
	return e.commitLocked(next, affected)
}

// commitLocked installs a new table, keeping the previous one when the
// unique index would be violated.
func (e *Engine) commitLocked(next []ir.Row, affected int64) (int64, error) {
	prev := e.rows
	e.rows = next
	if err := e.declareIndexes(); err != nil {
		e.rows = prev
		return 0, err
	}
	e.rebuildIndexesLocked()
	return affected, nil
}
