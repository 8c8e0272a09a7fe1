package queryir

import (
	"context"
	"slices"
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
)

// Query is the fluent builder of select queries.
//
// Every mutator records one entry and returns the same query for chaining.
// Mutators never validate cross-field consistency and never panic: a
// malformed call records an error that Err and every terminal operation
// return before any work is done.
//
//	rows, err := queryir.NewQuery(src).
//		Where("status", "open").
//		OrderBy("total", true).
//		SelectAll(ctx)
type Query struct {
	whereList
	source    DataSource
	relations []string
	fields    []string
	orderBy   []OrderTerm
	groupBy   []string
	limit     *int
	offset    *int
}

// NewQuery creates a query bound to a data source. src may be nil when the
// query is only compiled (for example by a SQL compiler), never executed.
func NewQuery(src DataSource) *Query {
	return &Query{source: src}
}

// Source returns the data source the query executes against.
func (q *Query) Source() DataSource { return q.source }

// Where appends an AND condition. See Conditions for the accepted forms.
func (q *Query) Where(args ...any) *Query {
	q.add(And, args)
	return q
}

// OrWhere appends an OR condition.
func (q *Query) OrWhere(args ...any) *Query {
	q.add(Or, args)
	return q
}

// WithRelation includes dotted relation paths ("customer",
// "customer.country") so their fields can be referenced and selected.
func (q *Query) WithRelation(paths ...string) *Query {
	q.relations = append(q.relations, paths...)
	return q
}

// OrderBy appends an ordering on field.
func (q *Query) OrderBy(field string, asc bool) *Query {
	q.orderBy = append(q.orderBy, OrderTerm{Field: field, Desc: !asc})
	return q
}

// OrderByFunc appends an ordering by a custom row comparator. Only the
// collection engine can evaluate it.
func (q *Query) OrderByFunc(fn CompareFunc, asc bool) *Query {
	if fn == nil {
		q.fail(Errorf(ErrCodeInvalidQuery, "orderBy", "nil comparator"))
		return q
	}
	q.orderBy = append(q.orderBy, OrderTerm{Func: fn, Desc: !asc})
	return q
}

// GroupBy appends grouping fields.
func (q *Query) GroupBy(fields ...string) *Query {
	q.groupBy = append(q.groupBy, fields...)
	return q
}

// Fields replaces the projection. No arguments, or "*", selects all fields.
func (q *Query) Fields(fields ...string) *Query {
	if len(fields) == 0 || (len(fields) == 1 && fields[0] == AllFields) {
		q.fields = nil
		return q
	}
	q.fields = slices.Clone(fields)
	return q
}

// AppendFields extends the projection. Appending to an all-fields
// projection yields just the appended fields.
func (q *Query) AppendFields(fields ...string) *Query {
	q.fields = append(q.fields, fields...)
	return q
}

// Limit caps the number of returned rows.
func (q *Query) Limit(limit int) *Query {
	if limit < 0 {
		q.fail(Errorf(ErrCodeInvalidQuery, "limit", "negative limit %d", limit))
		return q
	}
	q.limit = &limit
	return q
}

// LimitOffset sets limit and offset together.
func (q *Query) LimitOffset(limit, offset int) *Query {
	return q.Limit(limit).Offset(offset)
}

// Offset skips the first offset rows.
func (q *Query) Offset(offset int) *Query {
	if offset < 0 {
		q.fail(Errorf(ErrCodeInvalidQuery, "offset", "negative offset %d", offset))
		return q
	}
	q.offset = &offset
	return q
}

// Err returns the first construction error.
func (q *Query) Err() error { return q.err }

// WhereConditions implements ConditionSource, so a query can be nested as
// a condition group of another query.
func (q *Query) WhereConditions() []Condition { return q.where }

// Spec returns a snapshot of the query for engines.
func (q *Query) Spec() *SelectSpec {
	s := &SelectSpec{
		Where:     q.where,
		OrderBy:   q.orderBy,
		GroupBy:   q.groupBy,
		Fields:    q.fields,
		Relations: q.relations,
		Limit:     q.limit,
		Offset:    q.offset,
	}
	return s.Clone()
}

// CountSpec returns the count query derived from q: its where list and
// relations only.
func (q *Query) CountSpec() *CountSpec {
	return &CountSpec{
		Where:     slices.Clone(q.where),
		Relations: slices.Clone(q.relations),
	}
}

func (q *Query) ready(op string) error {
	if q.err != nil {
		return q.err
	}
	if q.source == nil {
		return Errorf(ErrCodeInvalidQuery, op, "query has no data source")
	}
	return nil
}

// Select executes the query and returns a cursor over the rows.
func (q *Query) Select(ctx context.Context, opts ...SelectOption) (ir.Rows, error) {
	if err := q.ready("select"); err != nil {
		return nil, err
	}
	return q.source.GetData(ctx, q.Spec(), opts...)
}

// SelectAll executes the query and materializes all rows.
func (q *Query) SelectAll(ctx context.Context) ([]ir.Row, error) {
	rows, err := q.Select(ctx, Materialized())
	if err != nil {
		return nil, err
	}
	return ir.Collect(rows)
}

// SelectFirst returns the first row, or nil when nothing matches.
// The query itself is not modified.
func (q *Query) SelectFirst(ctx context.Context) (ir.Row, error) {
	if err := q.ready("selectFirst"); err != nil {
		return nil, err
	}
	spec := q.Spec()
	spec.Limit = IntPtr(1)
	return q.source.GetFirst(ctx, spec)
}

// SelectByID selects rows by key instead of the query's where list.
//
// A collection id returns every matching row; a scalar id returns at most
// the first matching row.
func (q *Query) SelectByID(ctx context.Context, id any) ([]ir.Row, error) {
	if err := q.ready("selectById"); err != nil {
		return nil, err
	}
	spec := q.Spec()
	keyCond := Condition{Join: And, IsKey: true, Op: OpEq, Value: id}
	if ir.IsList(id) {
		keyCond.Op = OpIn
		spec.Where = []Condition{keyCond}
		rows, err := q.source.GetData(ctx, spec, Materialized())
		if err != nil {
			return nil, err
		}
		return ir.Collect(rows)
	}
	spec.Where = []Condition{keyCond}
	spec.Limit = IntPtr(1)
	row, err := q.source.GetFirst(ctx, spec)
	if err != nil || row == nil {
		return nil, err
	}
	return []ir.Row{row}, nil
}

// SelectScalar returns the first field of the first row, nil when nothing
// matches.
//
// With an explicit projection the first listed field is used. Otherwise
// the row must be ordered (SQL results) or hold exactly one field.
func (q *Query) SelectScalar(ctx context.Context) (any, error) {
	row, err := q.SelectFirst(ctx)
	if err != nil || row == nil {
		return nil, err
	}
	if len(q.fields) > 0 && !strings.HasSuffix(q.fields[0], ".*") {
		v, _ := row.Get(q.fields[0])
		return v, nil
	}
	v, ok := ir.FirstValue(row)
	if !ok {
		return nil, Errorf(ErrCodeInvalidQuery, "selectScalar", "row has no unambiguous first field; select a single field")
	}
	return v, nil
}

// HasRows reports whether the query matches at least one row.
func (q *Query) HasRows(ctx context.Context) (bool, error) {
	if err := q.ready("hasRows"); err != nil {
		return false, err
	}
	return q.source.HasRows(ctx, q.Spec())
}

// Count returns the number of rows matching the where list, ignoring
// ordering, projection and pagination.
func (q *Query) Count(ctx context.Context) (int, error) {
	if err := q.ready("count"); err != nil {
		return 0, err
	}
	return q.source.Count(ctx, q.CountSpec())
}

// SelectSQL renders the query as SQL when its data source can. This makes
// a query usable as a sub-select condition value.
func (q *Query) SelectSQL() (string, error) {
	if q.err != nil {
		return "", q.err
	}
	s, ok := q.source.(SQLSource)
	if !ok {
		return "", Errorf(ErrCodeUnsupportedValue, "subselect", "data source %T cannot render SQL", q.source)
	}
	return s.SelectSQL(q.Spec())
}
