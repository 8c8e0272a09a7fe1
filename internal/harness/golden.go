package harness

import (
	"sort"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the statements of a result, one section per dialect
// in name order:
//
//	-- mysql --
//	SELECT ...
func Snapshot(result *Result) []byte {
	names := make([]string, 0, len(result.SQL))
	for name := range result.SQL {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		b.WriteString("-- " + name + " --\n")
		b.WriteString(result.SQL[name] + "\n")
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares its rendered SQL against
// a golden file stored in testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result so callers can check Pass and Errors. Test failure
// (via goldie) occurs if the SQL doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the rendered SQL of a result against a golden
// file, without re-running the scenario.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, Snapshot(result))
}
