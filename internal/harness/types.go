package harness

import (
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// EngineResult is what one engine returned for the scenario query.
type EngineResult struct {
	// Rows are the selected rows; after an update or delete, the whole
	// table ordered by key.
	Rows []ir.Record

	// Count is the count result, or the number of selected rows.
	Count int

	// Affected is the number of rows an update or delete touched.
	Affected int64

	// Err is the error the engine failed with.
	Err error
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every assertion held on every engine and the
	// engines agreed with each other.
	Pass bool

	// Errors lists assertion and parity failures. Empty if Pass is true.
	Errors []string

	// Engines maps an engine name to its result.
	Engines map[string]*EngineResult

	// SQL maps a dialect name to the statement rendered for the query.
	// Dialects that cannot render the query are absent.
	SQL map[string]string

	// Portability is the validator's verdict on the query.
	Portability queryir.ValidationResult
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Errors:  []string{},
		Engines: make(map[string]*EngineResult),
		SQL:     make(map[string]string),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
