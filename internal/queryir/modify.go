package queryir

import (
	"context"
	"slices"

	"github.com/enquinity/pdquery/internal/ir"
)

// CountQuery is the fluent builder of count queries.
type CountQuery struct {
	whereList
	source    DataSource
	relations []string
}

// NewCountQuery creates a count query bound to src.
func NewCountQuery(src DataSource) *CountQuery {
	return &CountQuery{source: src}
}

// CountQueryFrom derives a count query from a select query, keeping its
// where list and relations.
func CountQueryFrom(q *Query) *CountQuery {
	c := &CountQuery{source: q.source, relations: slices.Clone(q.relations)}
	c.where = slices.Clone(q.where)
	c.err = q.err
	return c
}

func (q *CountQuery) Where(args ...any) *CountQuery {
	q.add(And, args)
	return q
}

func (q *CountQuery) OrWhere(args ...any) *CountQuery {
	q.add(Or, args)
	return q
}

func (q *CountQuery) WithRelation(paths ...string) *CountQuery {
	q.relations = append(q.relations, paths...)
	return q
}

func (q *CountQuery) Err() error { return q.err }
func (q *CountQuery) WhereConditions() []Condition { return q.where }

// Spec returns a snapshot of the query for engines.
func (q *CountQuery) Spec() *CountSpec {
	return &CountSpec{Where: slices.Clone(q.where), Relations: slices.Clone(q.relations)}
}

// Count executes the query.
func (q *CountQuery) Count(ctx context.Context) (int, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.source == nil {
		return 0, Errorf(ErrCodeInvalidQuery, "count", "query has no data source")
	}
	return q.source.Count(ctx, q.Spec())
}

// CountSQL renders the query as SQL when its data source can.
func (q *CountQuery) CountSQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	s, ok := q.source.(SQLSource)
	if !ok {
		return "", Errorf(ErrCodeUnsupportedValue, "count", "data source %T cannot render SQL", q.source)
	}
	return s.CountSQL(q.Spec())
}

// UpdateQuery is the fluent builder of update queries.
type UpdateQuery struct {
	whereList
	source    Updater
	relations []string
	set       []Assignment
}

// NewUpdateQuery creates an update query bound to src.
func NewUpdateQuery(src Updater) *UpdateQuery {
	return &UpdateQuery{source: src}
}

func (q *UpdateQuery) Where(args ...any) *UpdateQuery {
	q.add(And, args)
	return q
}

func (q *UpdateQuery) OrWhere(args ...any) *UpdateQuery {
	q.add(Or, args)
	return q
}

func (q *UpdateQuery) WithRelation(paths ...string) *UpdateQuery {
	q.relations = append(q.relations, paths...)
	return q
}

// Set assigns value to field. Setting a field again replaces the earlier
// value in place.
func (q *UpdateQuery) Set(field string, value any) *UpdateQuery {
	if field == "" {
		q.fail(Errorf(ErrCodeInvalidQuery, "set", "empty field name"))
		return q
	}
	for i := range q.set {
		if q.set[i].Field == field {
			q.set[i].Value = value
			return q
		}
	}
	q.set = append(q.set, Assignment{Field: field, Value: value})
	return q
}

// SetAll assigns every entry of values, in field name order.
func (q *UpdateQuery) SetAll(values map[string]any) *UpdateQuery {
	for _, k := range ir.Record(values).SortedKeys() {
		q.Set(k, values[k])
	}
	return q
}

// SetStruct assigns the fields of a struct (see ir.FromStruct).
func (q *UpdateQuery) SetStruct(v any) *UpdateQuery {
	rec, err := ir.FromStruct(v)
	if err != nil {
		q.fail(&Error{Code: ErrCodeInvalidQuery, Op: "set", Err: err})
		return q
	}
	return q.SetAll(rec)
}

func (q *UpdateQuery) Err() error { return q.err }
func (q *UpdateQuery) WhereConditions() []Condition { return q.where }

// Spec returns a snapshot of the query for engines.
func (q *UpdateQuery) Spec() *UpdateSpec {
	return &UpdateSpec{
		Where:     slices.Clone(q.where),
		Relations: slices.Clone(q.relations),
		Set:       slices.Clone(q.set),
	}
}

// Update executes the query and returns the number of updated rows.
func (q *UpdateQuery) Update(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.source == nil {
		return 0, Errorf(ErrCodeInvalidQuery, "update", "query has no data source")
	}
	if len(q.set) == 0 {
		return 0, Errorf(ErrCodeInvalidQuery, "update", "no fields to set")
	}
	return q.source.UpdateData(ctx, q.Spec())
}

// DeleteQuery is the fluent builder of delete queries.
type DeleteQuery struct {
	whereList
	source    Updater
	relations []string
}

// NewDeleteQuery creates a delete query bound to src.
func NewDeleteQuery(src Updater) *DeleteQuery {
	return &DeleteQuery{source: src}
}

func (q *DeleteQuery) Where(args ...any) *DeleteQuery {
	q.add(And, args)
	return q
}

func (q *DeleteQuery) OrWhere(args ...any) *DeleteQuery {
	q.add(Or, args)
	return q
}

func (q *DeleteQuery) WithRelation(paths ...string) *DeleteQuery {
	q.relations = append(q.relations, paths...)
	return q
}

func (q *DeleteQuery) Err() error { return q.err }
func (q *DeleteQuery) WhereConditions() []Condition { return q.where }

// Spec returns a snapshot of the query for engines.
func (q *DeleteQuery) Spec() *DeleteSpec {
	return &DeleteSpec{Where: slices.Clone(q.where), Relations: slices.Clone(q.relations)}
}

// Delete executes the query and returns the number of deleted rows.
func (q *DeleteQuery) Delete(ctx context.Context) (int64, error) {
	if q.err != nil {
		return 0, q.err
	}
	if q.source == nil {
		return 0, Errorf(ErrCodeInvalidQuery, "delete", "query has no data source")
	}
	return q.source.DeleteData(ctx, q.Spec())
}
