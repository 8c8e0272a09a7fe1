package dialect

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

func TestValue(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		value   any
		typ     model.FieldType
		want    string
	}{
		{"nil", MySQL, nil, model.Int, "NULL"},
		{"implicit int", MySQL, 5, model.Implicit, "5"},
		{"implicit int64", MySQL, int64(-7), model.Implicit, "-7"},
		{"implicit float", MySQL, 2.5, model.Implicit, "2.5"},
		{"implicit string", MySQL, "open", model.Implicit, "'open'"},
		{"implicit bool", MySQL, true, model.Implicit, "1"},
		{"quote doubled", MySQL, "O'Brien", model.String, "'O''Brien'"},
		{"mysql control sequence", MySQL, `a\nb`, model.String, `'a\\nb'`},
		{"mysql backslash quote", MySQL, `\' OR 1=1`, model.String, `'\\'' OR 1=1'`},
		{"sqlite backslash literal", SQLite, `a\nb`, model.String, `'a\nb'`},
		{"int from numeric string", MySQL, "42", model.Int, "42"},
		{"int truncates float", MySQL, 3.9, model.Int, "3"},
		{"float from int", MySQL, 3, model.Float, "3"},
		{"string from int", MySQL, 5, model.String, "'5'"},
		{"bool from string zero", MySQL, "0", model.Bool, "0"},
		{"bool from string", MySQL, "yes", model.Bool, "1"},
		{"bool from zero", SQLite, 0, model.Bool, "0"},
		{"postgres bool", Postgres, true, model.Implicit, "TRUE"},
		{"time", SQLite, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC), model.Implicit, "'2024-01-02 03:04:05'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.dialect.Value(tt.value, tt.typ)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValueErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		typ   model.FieldType
	}{
		{"struct implicit", struct{ A int }{1}, model.Implicit},
		{"text as int", "abc", model.Int},
		{"list as int", []int{1}, model.Int},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MySQL.Value(tt.value, tt.typ)
			assert.True(t, queryir.IsUnsupportedValue(err), "got %v", err)
		})
	}
}

func TestQuoting(t *testing.T) {
	assert.Equal(t, "`orders`", MySQL.QuoteTable("orders"))
	assert.Equal(t, "`a``b`", MySQL.QuoteColumn("a`b"))
	assert.Equal(t, "'customer.name'", MySQL.QuoteColumnAlias("customer.name"))
	assert.Equal(t, "`orders_customer`", MySQL.QuoteTableAlias("orders_customer"))

	assert.Equal(t, `"orders"`, SQLite.QuoteTable("orders"))
	assert.Equal(t, `"a""b"`, SQLite.QuoteColumn(`a"b`))
	assert.Equal(t, `"customer.name"`, Postgres.QuoteColumnAlias("customer.name"))
}

func TestApplyLimit(t *testing.T) {
	five, ten := queryir.IntPtr(5), queryir.IntPtr(10)
	tests := []struct {
		name          string
		dialect       Dialect
		limit, offset *int
		want          string
	}{
		{"mysql none", MySQL, nil, nil, "SELECT 1"},
		{"mysql limit", MySQL, ten, nil, "SELECT 1 LIMIT 0, 10"},
		{"mysql both", MySQL, ten, five, "SELECT 1 LIMIT 5, 10"},
		{"mysql offset only", MySQL, nil, five, "SELECT 1 LIMIT 5, 18446744073709551615"},
		{"sqlite limit", SQLite, ten, nil, "SELECT 1 LIMIT 10"},
		{"sqlite both", SQLite, ten, five, "SELECT 1 LIMIT 10 OFFSET 5"},
		{"sqlite offset only", SQLite, nil, five, "SELECT 1 LIMIT -1 OFFSET 5"},
		{"postgres offset only", Postgres, nil, five, "SELECT 1 LIMIT ALL OFFSET 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.dialect.ApplyLimit("SELECT 1", tt.limit, tt.offset))
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range Names() {
		d, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, d.Name())
	}
	d, err := ByName("SQLite3")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)

	_, err = ByName("oracle")
	assert.Error(t, err)
}
