package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// ExecOptions holds flags for the exec command.
type ExecOptions struct {
	*RootOptions
	SourceOptions
}

// ExecResult is the JSON payload of the exec command. Rows is the table
// after the statement, present for --rows sources only.
type ExecResult struct {
	Affected int64 `json:"affected"`
	Rows     any   `json:"rows,omitempty"`
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExecOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <query-file>",
		Short: "Run an update or delete query",
		Long: `Run an update or delete query document and report the affected rows.

With --db the statement changes the database. With --rows the file is
left untouched and the resulting table is printed instead.

Examples:
  pdquery exec close_orders.yaml --model model.yaml --db shop.db
  pdquery exec purge.yaml --rows orders.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(opts, args[0], cmd)
		},
	}

	addSourceFlags(cmd, &opts.SourceOptions)

	return cmd
}

func runExec(opts *ExecOptions, path string, cmd *cobra.Command) error {
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
	var affected int64
	switch doc.Kind {
	case queryir.KindUpdate:
		q, err := doc.UpdateQuery(src)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		if affected, err = q.Update(ctx); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
	case queryir.KindDelete:
		q, err := doc.DeleteQuery(src)
		if err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
		if affected, err = q.Delete(ctx); err != nil {
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
		}
	default:
		return formatter.Fail(ExitCommandError, ErrCodeUsage,
			fmt.Errorf("exec runs update and delete documents; use query for %s", doc.Kind))
	}

	if opts.Rows == "" {
		if opts.Format == "json" {
			return formatter.Success(ExecResult{Affected: affected})
		}
		return formatter.Success(fmt.Sprintf("%d rows affected", affected))
	}

	rows, err := tableRows(ctx, src, in.model.KeyFieldName(doc.Entity))
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	if opts.Format == "json" {
		records := make([]ir.Record, len(rows))
		for i, r := range rows {
			records[i] = ir.ToRecord(r)
		}
		return formatter.Success(ExecResult{Affected: affected, Rows: records})
	}
	fmt.Fprintf(formatter.Writer, "%d rows affected\n", affected)
	return formatter.Rows(rows)
}
