package cli

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/enquinity/pdquery/internal/collection"
	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
	"github.com/enquinity/pdquery/internal/store"
)

// SourceOptions holds the flags that select the model and the data a
// query runs against.
type SourceOptions struct {
	Model string // entity model file (.yaml, .yml, .cue)
	DB    string // SQLite database file
	Rows  string // YAML or JSON rows file for the collection engine
}

// loadDocument reads a query document file.
func loadDocument(path string) (*queryir.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open query: %w", err)
	}
	defer f.Close()

	doc, err := queryir.DecodeDocument(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if doc.Entity == "" {
		return nil, queryir.Errorf(queryir.ErrCodeInvalidQuery, "decode document", "%s: entity is required", path)
	}
	return doc, nil
}

// loadModel loads the model file, or returns a Simple model when path is
// empty.
func loadModel(path string) (model.Model, error) {
	if path == "" {
		return model.Simple{}, nil
	}
	return model.LoadFile(path)
}

// loadRows reads a rows file: a sequence of mappings. JSON arrays are
// valid YAML and load the same way.
func loadRows(path string) ([]ir.Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var records []map[string]any
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&records); err != nil {
		return nil, fmt.Errorf("parse rows %s: %w", path, err)
	}
	rows := make([]ir.Row, len(records))
	for i, r := range records {
		rows[i] = ir.Record(r)
	}
	return rows, nil
}

// source is a data source able to run every query kind.
type source interface {
	queryir.DataSource
	queryir.Updater
}

// openSource returns the collection engine over the rows file, or a store
// over the SQLite database. The returned function releases the source.
func openSource(opts *SourceOptions, entity string, m model.Model) (source, func(), error) {
	switch {
	case opts.Rows != "" && opts.DB != "":
		return nil, nil, NewExitError(ExitCommandError, "--rows and --db are mutually exclusive")
	case opts.Rows != "":
		rows, err := loadRows(opts.Rows)
		if err != nil {
			return nil, nil, err
		}
		engine, err := collection.New(rows, collection.WithKeyField(m.KeyFieldName(entity)))
		if err != nil {
			return nil, nil, err
		}
		return engine, func() {}, nil
	case opts.DB != "":
		if _, err := os.Stat(opts.DB); err != nil {
			return nil, nil, fmt.Errorf("database not found: %w", err)
		}
		db, err := store.Open(opts.DB)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
		return store.ForEntity(db, entity, m), closeDB, nil
	}
	return nil, nil, NewExitError(ExitCommandError, "one of --rows or --db is required")
}

// parseDialect resolves the --dialect flag.
func parseDialect(name string) (dialect.Dialect, error) {
	d, err := dialect.ByName(name)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --dialect", err)
	}
	return d, nil
}
