package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		exitCode int
		contains []string
	}{
		{
			name:     "portable",
			args:     []string{"testdata/queries/open_orders.yaml", "--model", testModel},
			contains: []string{"is valid and portable"},
		},
		{
			name:     "like_warning",
			args:     []string{"testdata/queries/like_status.yaml"},
			contains: []string{"uses LIKE", "is valid (1 portability warnings)"},
		},
		{
			name:     "unknown_relation",
			args:     []string{"testdata/queries/with_customer.yaml", "--model", testModel},
			exitCode: ExitFailure,
			contains: []string{"✗ mysql", "✗ postgres", "✗ sqlite", "is invalid"},
		},
		{
			name:     "missing_file",
			args:     []string{"testdata/queries/nope.yaml"},
			exitCode: ExitCommandError,
			contains: []string{"Error [IO]"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, append([]string{"validate"}, tt.args...)...)
			assert.Equal(t, tt.exitCode, GetExitCode(err))
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestValidateCommandJSON(t *testing.T) {
	out, err := execute(t, "validate", "testdata/queries/bad_operator.yaml", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.False(t, resp.Data.Valid)
	assert.False(t, resp.Data.Portable)
	require.Len(t, resp.Data.Errors, 3)
	for _, e := range resp.Data.Errors {
		assert.Equal(t, "UNSUPPORTED_OPERATOR", e.Code)
	}
	assert.NotEmpty(t, resp.Data.Warnings)
}
