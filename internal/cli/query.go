package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	SourceOptions
}

// CountResult is the JSON payload of a count query.
type CountResult struct {
	Count int `json:"count"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <query-file>",
		Short: "Run a select or count query",
		Long: `Run a select or count query document against in-memory rows (--rows)
or a SQLite database (--db).

Exit codes:
  0 - Query succeeded
  1 - Query failed
  2 - Command error (bad flags, unreadable files, etc.)

Examples:
  pdquery query open_orders.yaml --rows orders.yaml
  pdquery query open_orders.yaml --model model.yaml --db shop.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)

	return cmd
}

func addSourceFlags(cmd *cobra.Command, opts *SourceOptions) {
	cmd.Flags().StringVar(&opts.Model, "model", "", "entity model file (.yaml, .yml, .cue)")
	cmd.Flags().StringVar(&opts.DB, "db", "", "SQLite database file")
	cmd.Flags().StringVar(&opts.Rows, "rows", "", "rows file (YAML or JSON list of objects)")
}

func runQuery(opts *QueryOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	in, err := prepare(&opts.SourceOptions, path)
	if err != nil {
		return formatter.Fail(GetExitCode(err), ErrCodeIO, err)
	}
	defer in.release()
	doc, src := in.doc, in.src

	ctx := context.Background()
	switch doc.Kind {
	case queryir.KindSelect:
		q, err := doc.Query(src)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		rows, err := q.SelectAll(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		formatter.VerboseLog("%s: %d rows", doc.Entity, len(rows))
		return formatter.Rows(rows)
	case queryir.KindCount:
		q, err := doc.CountQuery(src)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		n, err := q.Count(ctx)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		if opts.Format == "json" {
			return formatter.Success(CountResult{Count: n})
		}
		return formatter.Success(n)
	}
	return formatter.Fail(ExitCommandError, ErrCodeUsage,
		fmt.Errorf("query runs select and count documents; use exec for %s", doc.Kind))
}

// input is a loaded query document with the source it runs against.
type input struct {
	doc     *queryir.Document
	model   model.Model
	src     source
	release func()
}

// prepare loads the document and model and opens the data source. A nil
// error means release must be called.
func prepare(opts *SourceOptions, path string) (*input, error) {
	m, err := loadModel(opts.Model)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load model", err)
	}
	doc, err := loadDocument(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load query", err)
	}
	src, release, err := openSource(opts, doc.Entity, m)
	if err != nil {
		if GetExitCode(err) == ExitCommandError {
			return nil, err
		}
		return nil, WrapExitError(ExitCommandError, "open source", err)
	}
	return &input{doc: doc, model: m, src: src, release: release}, nil
}

// tableRows reads every row of src ordered by key.
func tableRows(ctx context.Context, src source, key string) ([]ir.Row, error) {
	return queryir.NewQuery(src).OrderBy(key, true).SelectAll(ctx)
}
