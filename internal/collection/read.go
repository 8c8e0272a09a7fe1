package collection

import (
	"context"
	"errors"
	"slices"

	"github.com/enquinity/pdquery/internal/filter"
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// GetData returns the rows selected by q.
//
// Without a filter and without ordering the table (or stream) is returned
// as is. A filter alone yields a lazy cursor that applies offset and limit
// while scanning. Ordering filters into a slice, sorts it and slices the
// requested page.
func (e *Engine) GetData(ctx context.Context, q *queryir.SelectSpec, opts ...queryir.SelectOption) (ir.Rows, error) {
	o := queryir.ApplySelectOptions(opts...)
	offset := q.OffsetValue()
	limit, hasLimit := q.LimitValue()

	if len(q.OrderBy) == 0 {
		src, tree, err := e.scan(ctx, "getData", q.Where)
		if err != nil {
			return nil, err
		}
		if tree.Len() == 0 && offset == 0 && !hasLimit && !o.Materialized {
			return src, nil
		}
		rows := page(accepted(ctx, src, tree), offset, limit, hasLimit)
		if o.Materialized {
			out, err := ir.Collect(rows)
			if err != nil {
				return nil, err
			}
			return ir.SliceRows(out), nil
		}
		return rows, nil
	}

	sorted, err := e.sorted(ctx, "getData", q)
	if err != nil {
		return nil, err
	}
	if offset > len(sorted) {
		offset = len(sorted)
	}
	end := len(sorted)
	if hasLimit && offset+limit < end {
		end = offset + limit
	}
	return ir.SliceRows(sorted[offset:end]), nil
}

// GetFirst returns the first row q selects, nil when there is none. Any
// limit on q is ignored; the offset is honored.
//
// With ordering and no offset the row is found by a single minimum scan
// instead of a full sort.
func (e *Engine) GetFirst(ctx context.Context, q *queryir.SelectSpec) (ir.Row, error) {
	offset := q.OffsetValue()
	if len(q.OrderBy) == 0 {
		src, tree, err := e.scan(ctx, "getFirst", q.Where)
		if err != nil {
			return nil, err
		}
		return ir.First(page(accepted(ctx, src, tree), offset, 1, true))
	}
	if offset > 0 {
		sorted, err := e.sorted(ctx, "getFirst", q)
		if err != nil || offset >= len(sorted) {
			return nil, err
		}
		return sorted[offset], nil
	}

	cmp := e.comparator(q.OrderBy)
	src, tree, err := e.scan(ctx, "getFirst", q.Where)
	if err != nil {
		return nil, err
	}
	rows := accepted(ctx, src, tree)
	defer rows.Close()
	var best ir.Row
	for rows.Next() {
		r := rows.Row()
		if best == nil || cmp(r, best) < 0 {
			best = r
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return best, nil
}

// HasRows reports whether any row matches the where list of q. Ordering
// and pagination are ignored.
func (e *Engine) HasRows(ctx context.Context, q *queryir.SelectSpec) (bool, error) {
	src, tree, err := e.scan(ctx, "hasRows", q.Where)
	if err != nil {
		return false, err
	}
	row, err := ir.First(accepted(ctx, src, tree))
	return row != nil, err
}

// Count returns the number of rows matching the where list.
func (e *Engine) Count(ctx context.Context, q *queryir.CountSpec) (int, error) {
	src, tree, err := e.scan(ctx, "count", q.Where)
	if err != nil {
		return 0, err
	}
	return countRows(accepted(ctx, src, tree))
}

// CountRows returns the number of rows GetData would return for q,
// honoring offset and limit.
func (e *Engine) CountRows(ctx context.Context, q *queryir.SelectSpec) (int, error) {
	src, tree, err := e.scan(ctx, "countRows", q.Where)
	if err != nil {
		return 0, err
	}
	limit, hasLimit := q.LimitValue()
	return countRows(page(accepted(ctx, src, tree), q.OffsetValue(), limit, hasLimit))
}

func countRows(rows ir.Rows) (int, error) {
	n := 0
	for rows.Next() {
		n++
	}
	return n, errors.Join(rows.Err(), rows.Close())
}

// scan compiles where and returns the candidate rows it must be checked
// against. When the index shortcut applies, candidates are the indexed
// hits and the returned tree is empty if no further check is needed.
func (e *Engine) scan(ctx context.Context, op string, where []queryir.Condition) (ir.Rows, *filter.Tree, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	tree, err := filter.Compile(where, filter.WithKeyField(e.keyField))
	if err != nil {
		return nil, nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stream != nil && len(e.indexes) == 0 && e.indexedBy == "" {
		stream := e.stream
		e.stream = nil
		e.consumed = true
		return stream, tree, nil
	}
	if err := e.loadLocked(op); err != nil {
		return nil, nil, err
	}
	rows := e.rows

	field, values, ok := tree.IndexLookup()
	if !ok {
		if tree.Len() > 0 && len(e.indexes) > 0 {
			e.logger.Debug("index shortcut declined", "op", op, "reason", "filter root is not a required equality")
		}
		return ir.SliceRows(rows), tree, nil
	}
	idx, ok := e.indexes[field]
	if !ok {
		if len(e.indexes) > 0 {
			e.logger.Debug("index shortcut declined", "op", op, "field", field, "reason", "field not indexed")
		}
		return ir.SliceRows(rows), tree, nil
	}

	positions := idx.lookup(values)
	e.logger.Debug("index shortcut", "op", op, "field", field, "values", len(values), "candidates", len(positions))
	candidates := make([]ir.Row, len(positions))
	for i, p := range positions {
		candidates[i] = rows[p]
	}
	if tree.Len() == 1 {
		tree, _ = filter.Compile(nil)
	}
	return ir.SliceRows(candidates), tree, nil
}

// sorted returns the filtered rows of q ordered by its order terms.
func (e *Engine) sorted(ctx context.Context, op string, q *queryir.SelectSpec) ([]ir.Row, error) {
	src, tree, err := e.scan(ctx, op, q.Where)
	if err != nil {
		return nil, err
	}
	rows, err := ir.Collect(accepted(ctx, src, tree))
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rows, e.comparator(q.OrderBy))
	return rows, nil
}

// accepted filters src lazily through tree.
func accepted(ctx context.Context, src ir.Rows, tree *filter.Tree) ir.Rows {
	return ir.NewFuncRows(func() (ir.Row, bool, error) {
		for src.Next() {
			if err := ctx.Err(); err != nil {
				return nil, false, err
			}
			if r := src.Row(); tree.Match(r) {
				return r, true, nil
			}
		}
		return nil, false, src.Err()
	}, src.Close)
}

// page skips offset rows and stops after limit rows.
func page(src ir.Rows, offset, limit int, hasLimit bool) ir.Rows {
	if offset == 0 && !hasLimit {
		return src
	}
	skipped, taken := 0, 0
	return ir.NewFuncRows(func() (ir.Row, bool, error) {
		if hasLimit && taken >= limit {
			return nil, false, nil
		}
		for src.Next() {
			if skipped < offset {
				skipped++
				continue
			}
			taken++
			return src.Row(), true, nil
		}
		return nil, false, src.Err()
	}, src.Close)
}
