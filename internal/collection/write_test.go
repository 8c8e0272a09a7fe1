package collection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

func TestUpdateData(t *testing.T) {
	ctx := context.Background()
	e := newOrders(t, WithIndexedBy("id"))
	require.NoError(t, e.AddIndex("status"))

	before, err := e.Query().Select(ctx)
	require.NoError(t, err)

	n, err := e.UpdateQuery().Where("status", "open").Set("status", "closed").Update(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	count, err := e.Query().Where("status", "closed").Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count, "index reflects the update")

	// A cursor opened before the update keeps the old rows.
	old, err := ir.Collect(before)
	require.NoError(t, err)
	assert.Equal(t, "open", ir.Value(old[0], "status"))

	_, err = e.UpdateQuery().Where("id", 1).Update(ctx)
	assert.True(t, queryir.IsInvalidQuery(err))
}

func TestDeleteAndInsert(t *testing.T) {
	ctx := context.Background()
	e := newOrders(t)

	n, err := e.DeleteQuery().Where("total", "<", 15).Delete(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	n, err = e.InsertData(ctx, ir.Record{"id": 4, "status": "open", "total": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rows, err := e.Query().OrderBy("id", true).SelectAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4}, ids(t, rows))
}
