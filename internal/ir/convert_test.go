package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type order struct {
	ID     int    `field:"id"`
	Status string `field:"status"`
	Total  float64
}

func TestFromStruct(t *testing.T) {
	rec, err := FromStruct(order{ID: 1, Status: "open", Total: 10})
	require.NoError(t, err)
	assert.Equal(t, Record{"id": 1, "status": "open", "Total": 10.0}, rec)

	rec, err = FromStruct(&order{ID: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, rec["id"])
}

func TestFromStructs(t *testing.T) {
	rows, err := FromStructs([]order{{ID: 1}, {ID: 2}})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, Value(rows[1], "id"))
}

func TestDecode(t *testing.T) {
	var o order
	err := Decode(NewColumns([]string{"id", "status", "Total"}, []any{int64(3), "closed", "20.5"}), &o)
	require.NoError(t, err)
	assert.Equal(t, order{ID: 3, Status: "closed", Total: 20.5}, o)
}
