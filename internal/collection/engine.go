package collection

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// DefaultKeyField is the field key conditions resolve to unless
// WithKeyField says otherwise.
const DefaultKeyField = "id"

// Engine executes query specs against an in-memory row set.
//
// The engine owns a table of rows that is either held from construction
// (New, FromSlice) or pulled from a single-pass stream (FromStream). A
// stream is consumed by the first read that needs it; Materialize,
// AddIndex and the write operations load it into the table, after which
// it can be queried any number of times.
//
// Thread-safety model:
//   - reads and writes may be called from any goroutine
//   - writes replace the table, so cursors returned earlier keep iterating
//     the rows they started with
//   - a cursor must not be shared between goroutines
type Engine struct {
	mu sync.RWMutex

	rows     []ir.Row
	stream   ir.Rows // non-nil until the stream is loaded or consumed
	consumed bool

	keyField  string
	indexedBy string
	indexes   map[string]*index

	collation *language.Tag
	collOpts  []collate.Option
	logger    *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithKeyField sets the field key conditions (queryir.Key) compare against.
//
// Default: "id" (DefaultKeyField)
func WithKeyField(field string) Option {
	return func(e *Engine) { e.keyField = field }
}

// WithIndexedBy declares that rows are addressable by a unique field. The
// field is indexed as soon as the table is loaded and key lookups on it use
// the index shortcut.
func WithIndexedBy(field string) Option {
	return func(e *Engine) { e.indexedBy = field }
}

// WithCollator orders textual sort keys by the collation rules of tag
// instead of byte order.
func WithCollator(tag language.Tag, opts ...collate.Option) Option {
	return func(e *Engine) {
		e.collation = &tag
		e.collOpts = opts
	}
}

// WithLogger sets the logger for debug output. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func newEngine(opts []Option) *Engine {
	e := &Engine{
		keyField: DefaultKeyField,
		indexes:  make(map[string]*index),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// New creates an engine over rows. The slice is copied.
func New(rows []ir.Row, opts ...Option) (*Engine, error) {
	e := newEngine(opts)
	e.rows = append([]ir.Row(nil), rows...)
	if err := e.declareIndexes(); err != nil {
		return nil, err
	}
	return e, nil
}

// FromSlice creates an engine over a slice of records, maps or structs.
// Structs are converted through their `field` tags.
func FromSlice[T any](items []T, opts ...Option) (*Engine, error) {
	rows := make([]ir.Row, 0, len(items))
	for i, item := range items {
		switch v := any(item).(type) {
		case ir.Row:
			rows = append(rows, v)
		case map[string]any:
			rows = append(rows, ir.Record(v))
		default:
			rec, err := ir.FromStruct(v)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			rows = append(rows, rec)
		}
	}
	return New(rows, opts...)
}

// FromStream creates an engine over a single-pass cursor. The first query
// reads straight from the cursor and consumes it; later queries fail. Call
// Materialize (or AddIndex) first to keep the rows for repeated use.
func FromStream(rows ir.Rows, opts ...Option) *Engine {
	e := newEngine(opts)
	e.stream = rows
	return e
}

// KeyField returns the field key conditions resolve to.
func (e *Engine) KeyField() string { return e.keyField }

// Materialize loads a stream source into the table. It is a no-op for
// engines created over a slice.
func (e *Engine) Materialize() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadLocked("materialize")
}

// loadLocked drains the stream into the table. Caller holds the write lock.
func (e *Engine) loadLocked(op string) error {
	if e.stream == nil {
		if e.consumed {
			return errConsumed(op)
		}
		return nil
	}
	stream := e.stream
	e.stream = nil
	rows, err := ir.Collect(stream)
	if err != nil {
		e.consumed = true
		return fmt.Errorf("load stream: %w", err)
	}
	e.rows = rows
	e.logger.Debug("collection materialized", "rows", len(rows))
	return e.declareIndexes()
}

// declareIndexes builds the index requested by WithIndexedBy.
func (e *Engine) declareIndexes() error {
	if e.indexedBy == "" || e.stream != nil {
		return nil
	}
	idx := buildIndex(e.indexedBy, e.rows)
	for key, positions := range idx.positions {
		if len(positions) > 1 {
			return queryir.Errorf(queryir.ErrCodeSchema, "collection",
				"rows are indexed by %s but value %v appears %d times", e.indexedBy, key, len(positions))
		}
	}
	e.indexes[e.indexedBy] = idx
	return nil
}

// AddIndex indexes field so equality and IN lookups on it skip the full
// scan. It loads a stream source into the table. Indexing an already
// indexed field is a no-op.
func (e *Engine) AddIndex(field string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.loadLocked("addIndex"); err != nil {
		return err
	}
	if _, ok := e.indexes[field]; ok {
		return nil
	}
	e.indexes[field] = buildIndex(field, e.rows)
	e.logger.Debug("collection index built", "field", field, "values", len(e.indexes[field].positions))
	return nil
}

// rebuildIndexesLocked refreshes every index after the table changed.
func (e *Engine) rebuildIndexesLocked() {
	for field := range e.indexes {
		e.indexes[field] = buildIndex(field, e.rows)
	}
}

func errConsumed(op string) error {
	return queryir.Errorf(queryir.ErrCodeInvalidQuery, op,
		"stream source was already consumed; call Materialize before querying it again")
}
