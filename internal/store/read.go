package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// SelectSQL renders q without executing it.
func (s *Source) SelectSQL(q *queryir.SelectSpec) (string, error) {
	return s.c.SelectSQL(q)
}

// CountSQL renders q without executing it.
func (s *Source) CountSQL(q *queryir.CountSpec) (string, error) {
	return s.c.CountSQL(q)
}

// GetData executes q. Rows come back as ir.Columns in select-list order.
// Without the Materialized option the cursor holds a database connection
// until it is exhausted or closed.
func (s *Source) GetData(ctx context.Context, q *queryir.SelectSpec, opts ...queryir.SelectOption) (ir.Rows, error) {
	query, err := s.c.SelectSQL(q)
	if err != nil {
		return nil, err
	}
	rows, err := s.query(ctx, query)
	if err != nil {
		return nil, err
	}
	cursor, err := newCursor(rows)
	if err != nil {
		return nil, err
	}
	if !queryir.ApplySelectOptions(opts...).Materialized {
		return cursor, nil
	}
	all, err := ir.Collect(cursor)
	if err != nil {
		return nil, err
	}
	return ir.SliceRows(all), nil
}

// GetFirst executes q with a limit of one row.
func (s *Source) GetFirst(ctx context.Context, q *queryir.SelectSpec) (ir.Row, error) {
	spec := q.Clone()
	spec.Limit = queryir.IntPtr(1)
	rows, err := s.GetData(ctx, spec)
	if err != nil {
		return nil, err
	}
	return ir.First(rows)
}

// HasRows reports whether q selects at least one row.
func (s *Source) HasRows(ctx context.Context, q *queryir.SelectSpec) (bool, error) {
	row, err := s.GetFirst(ctx, q)
	return row != nil, err
}

// Count executes the count statement of q.
func (s *Source) Count(ctx context.Context, q *queryir.CountSpec) (int, error) {
	query, err := s.c.CountSQL(q)
	if err != nil {
		return 0, err
	}
	s.logger.Debug("sql", "entity", s.c.Entity(), "statement", query)
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.c.Entity(), err)
	}
	return n, nil
}

func (s *Source) query(ctx context.Context, query string) (*sql.Rows, error) {
	s.logger.Debug("sql", "entity", s.c.Entity(), "statement", query)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", s.c.Entity(), err)
	}
	return rows, nil
}

// newCursor adapts sql.Rows to ir.Rows. Text returned as []byte is
// converted to string.
func newCursor(rows *sql.Rows) (*ir.FuncRows, error) {
	names, err := rows.Columns()
	if err != nil {
		rows.Close()
		return nil, fmt.Errorf("read columns: %w", err)
	}
	next := func() (ir.Row, bool, error) {
		if !rows.Next() {
			if err := rows.Err(); err != nil {
				return nil, false, fmt.Errorf("iterate rows: %w", err)
			}
			return nil, false, nil
		}
		values := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, false, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		return ir.NewColumns(names, values), true, nil
	}
	return ir.NewFuncRows(next, rows.Close), nil
}
