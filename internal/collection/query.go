package collection

import "github.com/enquinity/pdquery/internal/queryir"

// Query starts a select query against the engine.
func (e *Engine) Query() *queryir.Query { return queryir.NewQuery(e) }

// CountQuery starts a count query against the engine.
func (e *Engine) CountQuery() *queryir.CountQuery { return queryir.NewCountQuery(e) }

// UpdateQuery starts an update query against the engine.
func (e *Engine) UpdateQuery() *queryir.UpdateQuery { return queryir.NewUpdateQuery(e) }

// DeleteQuery starts a delete query against the engine.
func (e *Engine) DeleteQuery() *queryir.DeleteQuery { return queryir.NewDeleteQuery(e) }

var (
	_ queryir.DataSource = (*Engine)(nil)
	_ queryir.Updater    = (*Engine)(nil)
)
