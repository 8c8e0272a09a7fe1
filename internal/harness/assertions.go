package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Engine   string
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s", e.Type)
	if e.Engine != "" {
		fmt.Fprintf(&buf, " (%s)", e.Engine)
	}
	fmt.Fprintf(&buf, "\n  Expected: %s\n  Actual: %s", e.Expected, e.Actual)
	return buf.String()
}

// checkAssertions checks every assertion against every engine result, in
// engine name order. Portability assertions are checked once.
func checkAssertions(s *Scenario, m model.Model, result *Result) {
	engines := make([]string, 0, len(result.Engines))
	for name := range result.Engines {
		engines = append(engines, name)
	}
	sort.Strings(engines)

	key := m.KeyFieldName(s.Query.Entity)
	for _, a := range s.Assertions {
		if a.Type == AssertPortable {
			if err := assertPortable(result.Portability, a); err != nil {
				result.AddError(err.Error())
			}
			continue
		}
		for _, name := range engines {
			if err := checkAssertion(name, result.Engines[name], a, key); err != nil {
				result.AddError(err.Error())
			}
		}
	}
}

func checkAssertion(engine string, res *EngineResult, a Assertion, key string) error {
	if a.Type == AssertError {
		return assertError(engine, res, a)
	}
	if res.Err != nil {
		return &AssertionError{
			Engine:   engine,
			Type:     a.Type,
			Expected: "query succeeds",
			Actual:   res.Err.Error(),
		}
	}
	switch a.Type {
	case AssertKeys:
		return assertKeys(engine, res, a, key)
	case AssertCount:
		if res.Count != *a.Count {
			return &AssertionError{Engine: engine, Type: a.Type,
				Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(res.Count)}
		}
	case AssertAffected:
		if res.Affected != int64(*a.Count) {
			return &AssertionError{Engine: engine, Type: a.Type,
				Expected: fmt.Sprint(*a.Count), Actual: fmt.Sprint(res.Affected)}
		}
	case AssertRows:
		return assertRows(engine, res, a)
	}
	return nil
}

// assertKeys compares the key values of the result rows, in order.
func assertKeys(engine string, res *EngineResult, a Assertion, key string) error {
	got := make([]any, len(res.Rows))
	for i, r := range res.Rows {
		got[i] = normalizeValue(r[key])
	}
	want := make([]any, len(a.Values))
	for i, v := range a.Values {
		want[i] = normalizeValue(v)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		return &AssertionError{Engine: engine, Type: AssertKeys,
			Expected: fmt.Sprint(a.Values), Actual: "diff (-want +got):\n" + diff}
	}
	return nil
}

// assertRows compares rows in order. Only the fields listed in each
// expected row are compared.
func assertRows(engine string, res *EngineResult, a Assertion) error {
	if len(res.Rows) != len(a.Rows) {
		return &AssertionError{Engine: engine, Type: AssertRows,
			Expected: fmt.Sprintf("%d rows", len(a.Rows)), Actual: fmt.Sprintf("%d rows", len(res.Rows))}
	}
	for i, want := range a.Rows {
		for field, v := range want {
			exp, got := normalizeValue(v), normalizeValue(res.Rows[i][field])
			if !cmp.Equal(exp, got) {
				return &AssertionError{Engine: engine, Type: AssertRows,
					Expected: fmt.Sprintf("row %d %s = %v", i, field, exp),
					Actual:   fmt.Sprintf("%v", got)}
			}
		}
	}
	return nil
}

func assertError(engine string, res *EngineResult, a Assertion) error {
	if res.Err == nil {
		return &AssertionError{Engine: engine, Type: AssertError,
			Expected: "error " + a.Code, Actual: "query succeeded"}
	}
	if code := queryir.CodeOf(res.Err); string(code) != a.Code {
		return &AssertionError{Engine: engine, Type: AssertError,
			Expected: "error " + a.Code, Actual: fmt.Sprintf("%s (%v)", code, res.Err)}
	}
	return nil
}

func assertPortable(v queryir.ValidationResult, a Assertion) error {
	if v.IsPortable != *a.Portable {
		return &AssertionError{Type: AssertPortable,
			Expected: fmt.Sprintf("portable = %v", *a.Portable),
			Actual:   fmt.Sprintf("portable = %v %v", v.IsPortable, v.Warnings)}
	}
	return nil
}
