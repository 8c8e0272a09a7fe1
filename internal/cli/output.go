package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Query, validation or scenario failure
	ExitCommandError = 2 // Command error (bad flags, unreadable files, etc.)
)

// Error codes for failures that carry no query error code.
const (
	ErrCodeGeneric = "ERROR"
	ErrCodeUsage   = "USAGE"
	ErrCodeIO      = "IO"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitSuccess for nil and ExitFailure if the error is not an
// ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // query error code, or ERROR/USAGE/IO
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "ok",
			Data:   data,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError with exitCode. Query
// errors are reported under their query error code.
func (f *OutputFormatter) Fail(exitCode int, code string, err error) error {
	if qc := queryir.CodeOf(err); qc != "" {
		code = string(qc)
	}
	if outErr := f.Error(code, err.Error(), nil); outErr != nil {
		return outErr
	}
	return &ExitError{Code: exitCode, Message: code, Err: err}
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

// Rows outputs rows: a JSON array of objects, or one line per row of
// field=value pairs. Ordered rows keep their column order.
func (f *OutputFormatter) Rows(rows []ir.Row) error {
	if f.Format == "json" {
		records := make([]ir.Record, len(rows))
		for i, r := range rows {
			records[i] = ir.ToRecord(r)
		}
		return f.Success(records)
	}
	for _, r := range rows {
		fmt.Fprintln(f.Writer, formatRow(r))
	}
	fmt.Fprintf(f.Writer, "(%d rows)\n", len(rows))
	return nil
}

func formatRow(r ir.Row) string {
	var keys []string
	if o, ok := r.(ir.Ordered); ok {
		keys = o.Keys()
	} else {
		keys = ir.ToRecord(r).SortedKeys()
	}
	pairs := make([]string, len(keys))
	for i, k := range keys {
		v := ir.Value(r, k)
		if v == nil {
			pairs[i] = k + "=NULL"
			continue
		}
		pairs[i] = k + "=" + ir.ToString(v)
	}
	return strings.Join(pairs, " ")
}
