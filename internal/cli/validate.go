package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/enquinity/pdquery/internal/dialect"
	"github.com/enquinity/pdquery/internal/queryir"
	"github.com/enquinity/pdquery/internal/querysql"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Model string
}

// ValidationError is a dialect that cannot render the query.
type ValidationError struct {
	Dialect string `json:"dialect"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Portable bool              `json:"portable"`
	Warnings []string          `json:"warnings,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Check a query document for portability",
		Long: `Check that a query document builds, renders in every SQL dialect and
behaves the same on the collection engine and on SQL.

Portability warnings are reported but do not fail the command; a query
that cannot be built or rendered does.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Model, "model", "", "entity model file (.yaml, .yml, .cue)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	m, err := loadModel(opts.Model)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, err)
	}
	doc, err := loadDocument(path)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeIO, err)
	}

	// The where, relation and projection clauses of every kind are checked
	// through the select form of the document.
	q, err := doc.Query(nil)
	if err != nil {
		return formatter.Fail(ExitFailure, ErrCodeGeneric, err)
	}
	portability := queryir.Validate(q.Spec())
	result := ValidationResult{
		Portable: portability.IsPortable,
		Warnings: portability.Warnings,
	}

	for _, name := range dialect.Names() {
		d, _ := dialect.ByName(name)
		if _, err := querysql.NewCompiler(doc.Entity, m, d).DocumentSQL(doc); err != nil {
			result.Errors = append(result.Errors, ValidationError{
				Dialect: name,
				Code:    string(queryir.CodeOf(err)),
				Message: err.Error(),
			})
			continue
		}
		formatter.VerboseLog("%s: renders", name)
	}
	result.Valid = len(result.Errors) == 0

	if opts.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		writeValidationText(formatter.Writer, path, result)
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d dialect(s) cannot render %s", len(result.Errors), path))
	}
	return nil
}

func writeValidationText(w io.Writer, path string, result ValidationResult) {
	for _, e := range result.Errors {
		fmt.Fprintf(w, "✗ %s: %s\n", e.Dialect, e.Message)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "! %s\n", warning)
	}
	switch {
	case !result.Valid:
		fmt.Fprintf(w, "%s is invalid\n", path)
	case result.Portable:
		fmt.Fprintf(w, "✓ %s is valid and portable\n", path)
	default:
		fmt.Fprintf(w, "✓ %s is valid (%d portability warnings)\n", path, len(result.Warnings))
	}
}
