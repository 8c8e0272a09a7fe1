package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/store"
)

const testRows = "testdata/orders.yaml"

// createTestDB writes the test rows into a SQLite database file.
func createTestDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shop.db")

	m, err := model.LoadFile(testModel)
	require.NoError(t, err)
	rows, err := loadRows(testRows)
	require.NoError(t, err)

	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	src := store.ForEntity(db, "orders", m)
	require.NoError(t, src.CreateTable(ctx))
	_, err = src.InsertData(ctx, rows...)
	require.NoError(t, err)
	return path
}

func countOrders(t *testing.T, path, status string) int {
	t.Helper()
	m, err := model.LoadFile(testModel)
	require.NoError(t, err)
	db, err := store.Open(path)
	require.NoError(t, err)
	defer db.Close()

	n, err := store.ForEntity(db, "orders", m).CountQuery().Where("status", status).Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestQueryCommandRows(t *testing.T) {
	out, err := execute(t, "query", "testdata/queries/open_orders.yaml", "--rows", testRows)
	require.NoError(t, err)
	assert.Equal(t, "id=3 status=open total=12\nid=1 status=open total=20\n(2 rows)\n", out)
}

func TestQueryCommandDB(t *testing.T) {
	path := createTestDB(t)

	out, err := execute(t, "query", "testdata/queries/open_orders.yaml", "--model", testModel, "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "id=3 status=open total=12\nid=1 status=open total=20\n(2 rows)\n", out)
}

func TestQueryCommandCount(t *testing.T) {
	path := createTestDB(t)

	tests := []struct {
		name string
		args []string
	}{
		{"rows", []string{"--rows", testRows}},
		{"db", []string{"--model", testModel, "--db", path}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"query", "testdata/queries/count_open.yaml"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, "2\n", out)
		})
	}
}

func TestQueryCommandJSON(t *testing.T) {
	out, err := execute(t, "query", "testdata/queries/open_orders.yaml", "--rows", testRows, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   []ir.Record `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, float64(3), resp.Data[0]["id"])
	assert.Equal(t, float64(1), resp.Data[1]["id"])
}

func TestQueryCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"no_source", []string{"testdata/queries/open_orders.yaml"}, ExitCommandError, "one of --rows or --db"},
		{"both_sources", []string{"testdata/queries/open_orders.yaml", "--rows", testRows, "--db", "x.db"}, ExitCommandError, "mutually exclusive"},
		{"missing_db", []string{"testdata/queries/open_orders.yaml", "--db", "testdata/nope.db"}, ExitCommandError, "database not found"},
		{"missing_rows", []string{"testdata/queries/open_orders.yaml", "--rows", "testdata/nope.yaml"}, ExitCommandError, "read rows"},
		{"update_document", []string{"testdata/queries/close_open.yaml", "--rows", testRows}, ExitCommandError, "use exec"},
		{"unknown_operator", []string{"testdata/queries/bad_operator.yaml", "--rows", testRows}, ExitFailure, "UNSUPPORTED_OPERATOR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"query"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestExecCommandRows(t *testing.T) {
	out, err := execute(t, "exec", "testdata/queries/delete_small.yaml", "--rows", testRows)
	require.NoError(t, err)
	assert.Equal(t, "2 rows affected\nid=1 status=open total=20\nid=4 status=pending total=30\n(2 rows)\n", out)
}

func TestExecCommandRowsJSON(t *testing.T) {
	out, err := execute(t, "exec", "testdata/queries/close_open.yaml", "--rows", testRows, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Affected int64       `json:"affected"`
			Rows     []ir.Record `json:"rows"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(2), resp.Data.Affected)
	require.Len(t, resp.Data.Rows, 4)
	for _, r := range resp.Data.Rows {
		assert.NotEqual(t, "open", r["status"])
	}
}

func TestExecCommandDB(t *testing.T) {
	path := createTestDB(t)

	out, err := execute(t, "exec", "testdata/queries/close_open.yaml", "--model", testModel, "--db", path)
	require.NoError(t, err)
	assert.Equal(t, "2 rows affected\n", out)
	assert.Equal(t, 0, countOrders(t, path, "open"))
	assert.Equal(t, 3, countOrders(t, path, "closed"))

	out, err = execute(t, "exec", "testdata/queries/delete_small.yaml", "--model", testModel, "--db", path, "--format", "json")
	require.NoError(t, err)
	var resp struct {
		Data ExecResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, int64(2), resp.Data.Affected)
	assert.Nil(t, resp.Data.Rows)
}

func TestExecCommandRejectsSelect(t *testing.T) {
	out, err := execute(t, "exec", "testdata/queries/open_orders.yaml", "--rows", testRows)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "use query")
}

func TestLoadRows(t *testing.T) {
	rows, err := loadRows(testRows)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "pending", ir.Value(rows[3], "status"))
}
