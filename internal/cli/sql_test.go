package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = "testdata/model.yaml"

func TestSQLCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "select_mysql",
			args: []string{"testdata/queries/open_orders.yaml", "--model", testModel, "--dialect", "mysql"},
			want: "SELECT `orders`.`id` AS 'id',`orders`.`status` AS 'status',`orders`.`total` AS 'total' " +
				"FROM `orders` WHERE `orders`.`status` = 'open' ORDER BY `orders`.`total` ASC\n",
		},
		{
			name: "count_sqlite",
			args: []string{"testdata/queries/count_open.yaml", "--model", testModel},
			want: `SELECT count(*) AS "count" FROM "orders" WHERE "orders"."status" = 'open'` + "\n",
		},
		{
			name: "update_postgres",
			args: []string{"testdata/queries/close_open.yaml", "--model", testModel, "--dialect", "postgres"},
			want: `UPDATE "orders" SET "status" = 'closed' WHERE "orders"."status" = 'open'` + "\n",
		},
		{
			name: "delete_mysql",
			args: []string{"testdata/queries/delete_small.yaml", "--model", testModel, "--dialect", "mysql"},
			want: "DELETE FROM `orders` WHERE `orders`.`total` < 15\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"sql"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestSQLCommandWithoutModel(t *testing.T) {
	out, err := execute(t, "sql", "testdata/queries/open_orders.yaml", "--dialect", "postgres")
	require.NoError(t, err)
	assert.Contains(t, out, `FROM "orders"`)
	assert.Contains(t, out, `"orders"."status" = 'open'`)
}

func TestSQLCommandJSON(t *testing.T) {
	out, err := execute(t, "sql", "testdata/queries/count_open.yaml", "--model", testModel, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   SQLResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "sqlite", resp.Data.Dialect)
	assert.Contains(t, resp.Data.SQL, "count(*)")
}

func TestSQLCommandErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains string
	}{
		{"unknown_dialect", []string{"testdata/queries/open_orders.yaml", "--dialect", "oracle"}, ExitCommandError, "USAGE"},
		{"missing_query", []string{"testdata/queries/nope.yaml"}, ExitCommandError, "open query"},
		{"missing_model", []string{"testdata/queries/open_orders.yaml", "--model", "testdata/nope.yaml"}, ExitCommandError, "read model"},
		{"unknown_relation", []string{"testdata/queries/with_customer.yaml", "--model", testModel}, ExitFailure, "SCHEMA"},
		{"unknown_operator", []string{"testdata/queries/bad_operator.yaml"}, ExitFailure, "UNSUPPORTED_OPERATOR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"sql"}, tt.args...)...)
			require.Error(t, err)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestSQLCommandMissingArgs(t *testing.T) {
	_, err := execute(t, "sql")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}
