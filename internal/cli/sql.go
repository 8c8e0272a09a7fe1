package cli

import (
	"github.com/spf13/cobra"

	"github.com/enquinity/pdquery/internal/querysql"
)

// SQLOptions holds flags for the sql command.
type SQLOptions struct {
	*RootOptions
	Model   string
	Dialect string
}

// SQLResult is the JSON payload of the sql command.
type SQLResult struct {
	Dialect string `json:"dialect"`
	SQL     string `json:"sql"`
}

// NewSQLCommand creates the sql command.
func NewSQLCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SQLOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sql <query-file>",
		Short: "Render a query document as SQL",
		Long: `Render the statement of a query document without executing it.

Without --model, tables and columns are named after entities and fields
and no relations are available.

Examples:
  pdquery sql query.yaml --model model.yaml
  pdquery sql query.yaml --model model.cue --dialect postgres`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSQL(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "entity model file (.yaml, .yml, .cue)")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "sqlite", "SQL dialect (mysql|sqlite|postgres)")

	return cmd
}

func runSQL(opts *SQLOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	d, err := parseDialect(opts.Dialect)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeUsage, err)
	}
	m, err := loadModel(opts.Model)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, err)
	}
	doc, err := loadDocument(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, err)
	}

	sql, err := querysql.NewCompiler(doc.Entity, m, d).DocumentSQL(doc)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}

	if opts.Format == "json" {
		return formatter.Success(SQLResult{Dialect: d.Name(), SQL: sql})
	}
	return formatter.Success(sql)
}
