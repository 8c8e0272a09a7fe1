package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const harnessScenarios = "../harness/testdata/scenarios"

const scenarioYAML = `name: open_orders
model: ../models/orders.yaml
data:
  orders:
    - {id: 1, status: open, total: 20}
    - {id: 2, status: closed, total: 5}
    - {id: 3, status: open, total: 12}
query:
  entity: orders
  where:
    - {field: status, value: open}
  order_by:
    - {field: total}
assertions:
  - {type: keys, values: [3, 1]}
`

// writeScenarioTree lays out models/, scenarios/ and (after an update)
// golden/ under a temporary directory and returns the scenarios dir.
func writeScenarioTree(t *testing.T, scenario string) string {
	t.Helper()
	root := t.TempDir()
	model, err := os.ReadFile(testModel)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "models"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "models", "orders.yaml"), model, 0644))
	scenarios := filepath.Join(root, "scenarios")
	require.NoError(t, os.MkdirAll(scenarios, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(scenarios, "open_orders.yaml"), []byte(scenario), 0644))
	return scenarios
}

func TestTestCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "test")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestTestCommandNonExistentScenariosDir(t *testing.T) {
	_, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenarios directory not found")
}

func TestTestCommandEmptyDir(t *testing.T) {
	out, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "No scenarios found.")
}

func TestTestCommandHarnessScenarios(t *testing.T) {
	if _, err := os.Stat(harnessScenarios); os.IsNotExist(err) {
		t.Skip("harness scenarios not found")
	}

	out, err := execute(t, "test", harnessScenarios, "--format", "json")
	require.NoError(t, err, out)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 0, resp.Data.Failed)
	assert.Equal(t, resp.Data.Total, resp.Data.Passed)
	assert.Greater(t, resp.Data.Total, 0)
}

func TestTestCommandFilter(t *testing.T) {
	if _, err := os.Stat(harnessScenarios); os.IsNotExist(err) {
		t.Skip("harness scenarios not found")
	}

	out, err := execute(t, "test", harnessScenarios, "--filter", "select_*")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ select_open_orders")
	assert.NotContains(t, out, "delete_small")
	assert.Contains(t, out, "Results: 1 passed, 0 failed, 1 total")
}

func TestTestCommandInvalidFilter(t *testing.T) {
	scenarios := writeScenarioTree(t, scenarioYAML)
	_, err := execute(t, "test", scenarios, "--filter", "[")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestTestCommandGoldenLifecycle(t *testing.T) {
	scenarios := writeScenarioTree(t, scenarioYAML)
	golden := filepath.Join(filepath.Dir(scenarios), "golden", "open_orders.golden")

	// No golden file yet: assertions alone decide.
	out, err := execute(t, "test", scenarios)
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ open_orders")

	out, err = execute(t, "test", scenarios, "--update")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ open_orders (golden updated)")
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- sqlite --\nSELECT")

	out, err = execute(t, "test", scenarios)
	require.NoError(t, err, out)

	require.NoError(t, os.WriteFile(golden, []byte("-- sqlite --\nSELECT 1\n"), 0644))
	out, err = execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "SQL does not match golden file")
}

func TestTestCommandFailingScenario(t *testing.T) {
	failing := scenarioYAML[:len(scenarioYAML)-len("  - {type: keys, values: [3, 1]}\n")] +
		"  - {type: keys, values: [1, 3]}\n"
	scenarios := writeScenarioTree(t, failing)

	out, err := execute(t, "test", scenarios, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, 1, resp.Data.Failed)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.NotEmpty(t, resp.Data.Scenarios[0].Errors)
}

func TestTestCommandLoadError(t *testing.T) {
	scenarios := writeScenarioTree(t, "name: broken\nunknown_key: 1\n")

	out, err := execute(t, "test", scenarios)
	require.Error(t, err)
	assert.Contains(t, out, "✗ open_orders.yaml")
	assert.Contains(t, out, "failed to load scenario")
}
