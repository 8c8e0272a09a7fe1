package harness

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/enquinity/pdquery/internal/collection"
	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
	"github.com/enquinity/pdquery/internal/querysql"
	"github.com/enquinity/pdquery/internal/store"
)

// Option configures Run.
type Option func(*config)

type config struct {
	logger *slog.Logger
}

// WithLogger sets the logger for scenario progress and the statements the
// SQLite engine executes. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// source is what an engine must provide to run every query kind.
type source interface {
	queryir.DataSource
	queryir.Updater
}

// Run executes a scenario and returns the result.
//
// Each run loads the scenario rows into a fresh collection engine and a
// fresh in-memory SQLite database. A returned error means the scenario
// could not be set up; query failures are recorded in the result.
//
// Execution flow:
//  1. Load the entity model
//  2. Render the query in every dialect
//  3. Run the query on each selected engine
//  4. Compare the engines with each other
//  5. Check the assertions against each engine
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	logger := cfg.logger.With("scenario", scenario.Name)
	logger.Debug("scenario started")

	schema, err := model.LoadFile(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	ctx := context.Background()
	result := NewResult()
	renderSQL(scenario, schema, result)
	if scenario.Query.Kind == queryir.KindSelect {
		if q, err := scenario.Query.Query(nil); err == nil {
			result.Portability = queryir.Validate(q.Spec())
		}
	}

	if scenario.runsOn(EngineCollection) {
		result.Engines[EngineCollection] = runCollection(ctx, scenario, schema, logger)
	}
	if scenario.runsOn(EngineSQLite) {
		res, err := runSQLite(ctx, scenario, schema, logger)
		if err != nil {
			return nil, err
		}
		result.Engines[EngineSQLite] = res
	}

	checkParity(scenario, schema, result)
	checkAssertions(scenario, schema, result)

	logger.Debug("scenario finished", "pass", result.Pass, "errors", len(result.Errors))
	return result, nil
}

// renderSQL records the statement of the scenario query in every dialect.
func renderSQL(s *Scenario, m model.Model, result *Result) {
	for _, name := range dialect.Names() {
		d, _ := dialect.ByName(name)
		sql, err := querysql.NewCompiler(s.Query.Entity, m, d).DocumentSQL(&s.Query)
		if err == nil {
			result.SQL[name] = sql
		}
	}
}

func dataRows(s *Scenario, entity string) []ir.Row {
	rows := make([]ir.Row, len(s.Data[entity]))
	for i, r := range s.Data[entity] {
		rows[i] = ir.Record(r)
	}
	return rows
}

func runCollection(ctx context.Context, s *Scenario, m model.Model, logger *slog.Logger) *EngineResult {
	key := m.KeyFieldName(s.Query.Entity)
	opts := []collection.Option{collection.WithKeyField(key), collection.WithLogger(logger)}
	if s.IndexedBy != "" {
		opts = append(opts, collection.WithIndexedBy(s.IndexedBy))
	}
	engine, err := collection.New(dataRows(s, s.Query.Entity), opts...)
	if err != nil {
		return &EngineResult{Err: err}
	}
	return execute(ctx, engine, &s.Query, key)
}

func runSQLite(ctx context.Context, s *Scenario, m model.Model, logger *slog.Logger) (*EngineResult, error) {
	db, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory database: %w", err)
	}
	defer db.Close()

	entities := make([]string, 0, len(s.Data)+1)
	for name := range s.Data {
		entities = append(entities, name)
	}
	if !slices.Contains(entities, s.Query.Entity) {
		entities = append(entities, s.Query.Entity)
	}
	sort.Strings(entities)

	var target *store.Source
	for _, name := range entities {
		src := store.ForEntity(db, name, m, store.WithLogger(logger))
		if err := src.CreateTable(ctx); err != nil {
			return nil, fmt.Errorf("create table %s: %w", name, err)
		}
		if _, err := src.InsertData(ctx, dataRows(s, name)...); err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		if name == s.Query.Entity {
			target = src
		}
	}
	return execute(ctx, target, &s.Query, m.KeyFieldName(s.Query.Entity)), nil
}

// execute runs doc against src. After an update or delete the whole table
// is read back so the engines' final states can be compared.
func execute(ctx context.Context, src source, doc *queryir.Document, key string) *EngineResult {
	res := &EngineResult{}
	var rows []ir.Row
	var err error
	switch doc.Kind {
	case queryir.KindSelect:
		var q *queryir.Query
		if q, err = doc.Query(src); err == nil {
			rows, err = q.SelectAll(ctx)
		}
	case queryir.KindCount:
		var q *queryir.CountQuery
		if q, err = doc.CountQuery(src); err == nil {
			res.Count, err = q.Count(ctx)
		}
	case queryir.KindUpdate:
		var q *queryir.UpdateQuery
		if q, err = doc.UpdateQuery(src); err == nil {
			res.Affected, err = q.Update(ctx)
		}
	case queryir.KindDelete:
		var q *queryir.DeleteQuery
		if q, err = doc.DeleteQuery(src); err == nil {
			res.Affected, err = q.Delete(ctx)
		}
	}
	if err == nil && (doc.Kind == queryir.KindUpdate || doc.Kind == queryir.KindDelete) {
		rows, err = queryir.NewQuery(src).OrderBy(key, true).SelectAll(ctx)
	}
	if err != nil {
		return &EngineResult{Err: err}
	}
	if doc.Kind != queryir.KindCount {
		res.Count = len(rows)
	}
	res.Rows = make([]ir.Record, len(rows))
	for i, r := range rows {
		res.Rows[i] = ir.ToRecord(r)
	}
	return res
}

// checkParity compares the engines with each other. The collection engine
// ignores projection, so its rows are projected onto the query fields
// before comparison; rows of an unordered select are compared by key.
func checkParity(s *Scenario, m model.Model, result *Result) {
	a, b := result.Engines[EngineCollection], result.Engines[EngineSQLite]
	if a == nil || b == nil {
		return
	}
	if (a.Err == nil) != (b.Err == nil) {
		result.AddError(fmt.Sprintf("engines disagree: %s: %s, %s: %s",
			EngineCollection, describeErr(a.Err), EngineSQLite, describeErr(b.Err)))
		return
	}
	if a.Err != nil {
		if ca, cb := queryir.CodeOf(a.Err), queryir.CodeOf(b.Err); ca != cb {
			result.AddError(fmt.Sprintf("engines fail differently: %s: %s, %s: %s",
				EngineCollection, ca, EngineSQLite, cb))
		}
		return
	}
	if a.Count != b.Count || a.Affected != b.Affected {
		result.AddError(fmt.Sprintf("engines disagree on counts: %s: %d/%d, %s: %d/%d",
			EngineCollection, a.Count, a.Affected, EngineSQLite, b.Count, b.Affected))
	}

	var fields []string
	if s.Query.Kind == queryir.KindSelect && !(len(s.Query.Fields) == 1 && s.Query.Fields[0] == queryir.AllFields) {
		fields = s.Query.Fields
	}
	left, right := normalizeRows(a.Rows, fields), normalizeRows(b.Rows, fields)
	if s.Query.Kind == queryir.KindSelect && len(s.Query.OrderBy) == 0 {
		key := m.KeyFieldName(s.Query.Entity)
		sortByKey(left, key)
		sortByKey(right, key)
	}
	if diff := cmp.Diff(left, right); diff != "" {
		result.AddError(fmt.Sprintf("engines disagree on rows (-%s +%s):\n%s",
			EngineCollection, EngineSQLite, diff))
	}
}

func describeErr(err error) string {
	if err == nil {
		return "ok"
	}
	return err.Error()
}

// normalizeValue maps values of either engine onto one representation:
// numbers and booleans become float64 and byte slices become strings.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case nil, string:
		return x
	case []byte:
		return string(x)
	}
	if f, ok := ir.ToFloat(v); ok {
		return f
	}
	return ir.ToString(v)
}

// normalizeRows converts rows for comparison. Nil values are dropped, so a
// field missing from a collection row equals a NULL column. When fields is
// non-empty only those fields are kept.
func normalizeRows(rows []ir.Record, fields []string) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, r := range rows {
		names := fields
		if len(names) == 0 {
			names = r.SortedKeys()
		}
		n := make(map[string]any, len(names))
		for _, name := range names {
			if v := normalizeValue(r[name]); v != nil {
				n[name] = v
			}
		}
		out[i] = n
	}
	return out
}

func sortByKey(rows []map[string]any, key string) {
	sort.SliceStable(rows, func(i, j int) bool {
		return ir.Compare(rows[i][key], rows[j][key]) < 0
	})
}
