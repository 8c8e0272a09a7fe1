package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"

	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/querysql"
)

// Open creates or opens a SQLite database at path. ":memory:" opens a
// private in-memory database.
//
// The pool is limited to one connection: SQLite allows a single writer,
// and an in-memory database exists only on the connection that made it.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	return db, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Source is a data source over one table of a SQL database. Statements
// are rendered by a querysql.Compiler and executed through database/sql.
//
// A Source holds no state besides its collaborators and is safe for
// concurrent use.
type Source struct {
	db     *sql.DB
	c      *querysql.Compiler
	logger *slog.Logger
}

// Option configures a Source.
type Option func(*config)

type config struct {
	logger       *slog.Logger
	dialect      dialect.Dialect
	compilerOpts []querysql.Option
}

// WithLogger sets the logger that receives rendered statements at Debug
// level. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithDialect sets the dialect ForEntity compiles with. Default: SQLite.
func WithDialect(d dialect.Dialect) Option {
	return func(c *config) { c.dialect = d }
}

// WithCompilerOptions passes options to the compiler ForEntity creates.
func WithCompilerOptions(opts ...querysql.Option) Option {
	return func(c *config) { c.compilerOpts = append(c.compilerOpts, opts...) }
}

func newConfig(opts []Option) config {
	cfg := config{logger: slog.Default(), dialect: dialect.SQLite}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// New creates a source executing the statements c renders.
func New(db *sql.DB, c *querysql.Compiler, opts ...Option) *Source {
	cfg := newConfig(opts)
	return &Source{db: db, c: c, logger: cfg.logger}
}

// ForEntity creates a source for entity, building its compiler from m and
// the configured dialect.
func ForEntity(db *sql.DB, entity string, m model.Model, opts ...Option) *Source {
	cfg := newConfig(opts)
	c := querysql.NewCompiler(entity, m, cfg.dialect, cfg.compilerOpts...)
	return &Source{db: db, c: c, logger: cfg.logger}
}

// DB returns the underlying database.
func (s *Source) DB() *sql.DB { return s.db }

// Compiler returns the statement compiler.
func (s *Source) Compiler() *querysql.Compiler { return s.c }
