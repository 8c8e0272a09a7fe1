package queryir

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const selectDoc = `
entity: orders
where:
  - {field: status, value: open}
  - {field: total, op: ">", value: 5, or: true}
  - {field: accepted}
  - {key: true, value: [1, 2]}
  - group:
      - {field: a, value: 1}
      - {field: b, value: null, or: true}
order_by:
  - {field: total}
  - {field: id, desc: true}
fields: [id, status]
relations: [customer]
limit: 10
offset: 5
`

func TestDecodeDocumentSelect(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(selectDoc))
	require.NoError(t, err)
	assert.Equal(t, "orders", doc.Entity)
	assert.Equal(t, KindSelect, doc.Kind)

	q, err := doc.Query(nil)
	require.NoError(t, err)
	spec := q.Spec()

	require.Len(t, spec.Where, 5)
	assert.Equal(t, Condition{Join: And, Field: "status", Op: OpEq, Value: "open"}, spec.Where[0])
	assert.Equal(t, Condition{Join: Or, Field: "total", Op: OpGt, Value: 5}, spec.Where[1])
	assert.Equal(t, 1, spec.Where[2].Value, "missing value defaults to 1")
	assert.True(t, spec.Where[3].IsKey)
	assert.Equal(t, OpIn, spec.Where[3].Op)
	require.True(t, spec.Where[4].IsGroup())
	assert.Nil(t, spec.Where[4].Group[1].Value, "explicit null is kept")
	assert.Equal(t, Or, spec.Where[4].Group[1].Join)

	assert.Equal(t, []OrderTerm{{Field: "total"}, {Field: "id", Desc: true}}, spec.OrderBy)
	assert.Equal(t, []string{"id", "status"}, spec.Fields)
	assert.Equal(t, []string{"customer"}, spec.Relations)
	assert.Equal(t, 10, *spec.Limit)
	assert.Equal(t, 5, *spec.Offset)
}

func TestDecodeDocumentUpdate(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader(`
entity: orders
kind: update
where: [{field: id, value: 1}]
set: {status: closed, total: 0}
`))
	require.NoError(t, err)
	q, err := doc.UpdateQuery(nil)
	require.NoError(t, err)
	assert.Equal(t, []Assignment{{"status", "closed"}, {"total", 0}}, q.Spec().Set)
}

func TestDecodeDocumentCountAndDelete(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader("entity: orders\nkind: count\nwhere: [{field: a, value: 1}]\n"))
	require.NoError(t, err)
	cq, err := doc.CountQuery(nil)
	require.NoError(t, err)
	assert.Len(t, cq.Spec().Where, 1)

	dq, err := doc.DeleteQuery(nil)
	require.NoError(t, err)
	assert.Len(t, dq.Spec().Where, 1)
}

func TestDecodeDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", ""},
		{"unknown key", "entity: orders\nwher: []\n"},
		{"unknown kind", "entity: orders\nkind: upsert\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDocument(strings.NewReader(tt.src))
			assert.True(t, IsInvalidQuery(err), "got %v", err)
		})
	}
}

func TestDocumentBadWhere(t *testing.T) {
	doc, err := DecodeDocument(strings.NewReader("entity: orders\nwhere: [{value: 1}]\n"))
	require.NoError(t, err)
	_, err = doc.Query(nil)
	assert.True(t, IsInvalidQuery(err))
	assert.Contains(t, err.Error(), "where[0]")

	doc, err = DecodeDocument(strings.NewReader("entity: orders\nlimit: -1\n"))
	require.NoError(t, err)
	_, err = doc.Query(nil)
	assert.True(t, IsInvalidQuery(err))
}
