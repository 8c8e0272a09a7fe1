package store

import (
	"context"
	"fmt"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// UpdateData executes the update statement of q and returns the number of
// affected rows.
func (s *Source) UpdateData(ctx context.Context, q *queryir.UpdateSpec) (int64, error) {
	query, err := s.c.UpdateSQL(q)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "update", query)
}

// DeleteData executes the delete statement of q.
func (s *Source) DeleteData(ctx context.Context, q *queryir.DeleteSpec) (int64, error) {
	query, err := s.c.DeleteSQL(q)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "delete", query)
}

// InsertData inserts rows with a single statement. Inserting nothing is a
// no-op.
func (s *Source) InsertData(ctx context.Context, rows ...ir.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	query, err := s.c.InsertSQL(rows...)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, "insert", query)
}

func (s *Source) exec(ctx context.Context, op, query string) (int64, error) {
	s.logger.Debug("sql", "entity", s.c.Entity(), "statement", query)
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", op, s.c.Entity(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s %s: rows affected: %w", op, s.c.Entity(), err)
	}
	return n, nil
}

// Query starts a select query against the source.
func (s *Source) Query() *queryir.Query { return queryir.NewQuery(s) }

// CountQuery starts a count query against the source.
func (s *Source) CountQuery() *queryir.CountQuery { return queryir.NewCountQuery(s) }

// UpdateQuery starts an update query against the source.
func (s *Source) UpdateQuery() *queryir.UpdateQuery { return queryir.NewUpdateQuery(s) }

// DeleteQuery starts a delete query against the source.
func (s *Source) DeleteQuery() *queryir.DeleteQuery { return queryir.NewDeleteQuery(s) }

var (
	_ queryir.DataSource = (*Source)(nil)
	_ queryir.Updater    = (*Source)(nil)
	_ queryir.SQLSource  = (*Source)(nil)
)
