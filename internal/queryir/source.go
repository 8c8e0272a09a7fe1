package queryir

import (
	"context"

	"github.com/enquinity/pdquery/internal/ir"
)

// DataSource executes read queries. Implementations consume specs
// read-only; a spec may be executed any number of times.
type DataSource interface {
	// GetData returns the rows selected by q.
	GetData(ctx context.Context, q *SelectSpec, opts ...SelectOption) (ir.Rows, error)

	// GetFirst returns the first selected row, or nil when there is none.
	GetFirst(ctx context.Context, q *SelectSpec) (ir.Row, error)

	// HasRows reports whether q selects at least one row.
	HasRows(ctx context.Context, q *SelectSpec) (bool, error)

	// Count returns the number of rows matching q.
	Count(ctx context.Context, q *CountSpec) (int, error)
}

// Updater executes write queries. Counts are affected rows.
type Updater interface {
	UpdateData(ctx context.Context, q *UpdateSpec) (int64, error)
	DeleteData(ctx context.Context, q *DeleteSpec) (int64, error)
	InsertData(ctx context.Context, rows ...ir.Row) (int64, error)
}

// SQLSource renders read specs as SQL text.
type SQLSource interface {
	SelectSQL(q *SelectSpec) (string, error)
	CountSQL(q *CountSpec) (string, error)
}

// SubSelect is a condition value that renders as a nested SELECT.
// *Query implements it when its data source is a SQLSource.
type SubSelect interface {
	SelectSQL() (string, error)
}

// SelectOptions controls how GetData delivers rows.
type SelectOptions struct {
	// Materialized asks for a fully evaluated result instead of a lazy
	// cursor. The returned Rows is then backed by a slice.
	Materialized bool
}

// SelectOption configures SelectOptions.
type SelectOption func(*SelectOptions)

// Materialized requests an eagerly evaluated result.
func Materialized() SelectOption {
	return func(o *SelectOptions) { o.Materialized = true }
}

// ApplySelectOptions folds opts into a SelectOptions value.
func ApplySelectOptions(opts ...SelectOption) SelectOptions {
	var o SelectOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
