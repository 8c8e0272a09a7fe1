package harness

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/queryir"
)

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			scenario, err := LoadScenario(path)
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "scenario failed:\n%v", result.Errors)
		})
	}
}

func loadScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func TestRun_EngineResults(t *testing.T) {
	result, err := Run(loadScenario(t, "update_closed"))
	require.NoError(t, err)
	require.True(t, result.Pass, "%v", result.Errors)

	require.Len(t, result.Engines, 2)
	for name, res := range result.Engines {
		assert.NoError(t, res.Err, name)
		assert.Equal(t, int64(1), res.Affected, name)
		assert.Len(t, res.Rows, 4, name)
	}
	assert.Len(t, result.SQL, 3)
}

func TestRun_RestrictedEngines(t *testing.T) {
	result, err := Run(loadScenario(t, "relation_filter"))
	require.NoError(t, err)

	assert.Contains(t, result.Engines, EngineSQLite)
	assert.NotContains(t, result.Engines, EngineCollection)
	assert.False(t, result.Portability.IsPortable)
}

func TestRun_FailingAssertion(t *testing.T) {
	s := loadScenario(t, "select_open_orders")
	s.Assertions = []Assertion{{Type: AssertKeys, Values: []any{1, 3}}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "Assertion failed: keys (collection)")
	assert.Contains(t, result.Errors[1], "Assertion failed: keys (sqlite)")
}

func TestRun_ExpectedErrorThatDoesNotHappen(t *testing.T) {
	s := loadScenario(t, "select_open_orders")
	s.Assertions = []Assertion{{Type: AssertError, Code: string(queryir.ErrCodeSchema)}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "query succeeded")
}

func TestRun_RelationsBreakParity(t *testing.T) {
	s := loadScenario(t, "relation_filter")
	s.Engines = nil

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "engines")
}

func TestRun_MissingModel(t *testing.T) {
	s := loadScenario(t, "select_open_orders")
	s.Model = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load model")
}

func TestRun_Logging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := Run(loadScenario(t, "key_index"), WithLogger(logger))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "scenario started")
	assert.Contains(t, out, "index shortcut")
	assert.Contains(t, out, "CREATE TABLE")
	assert.Contains(t, out, "scenario finished")
}

func TestSnapshot(t *testing.T) {
	r := NewResult()
	r.SQL["sqlite"] = "SELECT 1"
	r.SQL["mysql"] = "SELECT 2"

	assert.Equal(t, "-- mysql --\nSELECT 2\n-- sqlite --\nSELECT 1\n", string(Snapshot(r)))
	assert.Empty(t, Snapshot(NewResult()))
}

func TestLoadScenario_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "missing name",
			content: "model: m.yaml\nquery: {entity: orders}\nassertions: [{type: count, count: 1}]\n",
			errMsg:  "name is required",
		},
		{
			name:    "missing model",
			content: "name: x\nquery: {entity: orders}\nassertions: [{type: count, count: 1}]\n",
			errMsg:  "model is required",
		},
		{
			name:    "missing entity",
			content: "name: x\nmodel: m.yaml\nassertions: [{type: count, count: 1}]\n",
			errMsg:  "query.entity is required",
		},
		{
			name:    "unknown engine",
			content: "name: x\nmodel: m.yaml\nengines: [oracle]\nquery: {entity: orders}\nassertions: [{type: count, count: 1}]\n",
			errMsg:  "unknown engine",
		},
		{
			name:    "no assertions",
			content: "name: x\nmodel: m.yaml\nquery: {entity: orders}\n",
			errMsg:  "assertions list is required",
		},
		{
			name:    "count without count",
			content: "name: x\nmodel: m.yaml\nquery: {entity: orders}\nassertions: [{type: count}]\n",
			errMsg:  "count is required",
		},
		{
			name:    "unknown assertion",
			content: "name: x\nmodel: m.yaml\nquery: {entity: orders}\nassertions: [{type: trace_order}]\n",
			errMsg:  "unknown assertion type",
		},
		{
			name:    "unknown field",
			content: "name: x\nmodle: m.yaml\n",
			errMsg:  "failed to parse YAML",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0o644))

			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestLoadScenario_ResolvesModelPath(t *testing.T) {
	s := loadScenario(t, "select_open_orders")
	assert.Equal(t, filepath.Join("testdata", "models", "shop.yaml"), s.Model)
	assert.Equal(t, queryir.KindSelect, s.Query.Kind)
}
