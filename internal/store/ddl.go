package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// columnType maps a field type to a SQLite column type. Implicit fields
// get no declared type and keep values as inserted.
func columnType(t model.FieldType) string {
	switch t {
	case model.Int, model.Bool:
		return " INTEGER"
	case model.Float:
		return " REAL"
	case model.String:
		return " TEXT"
	}
	return ""
}

// CreateTableSQL renders the DDL of the source's entity from the fields its
// model declares. The key field becomes the primary key.
func (s *Source) CreateTableSQL() (string, error) {
	m, entity, d := s.c.Model(), s.c.Entity(), s.c.Dialect()
	fields := m.FieldNames(entity)
	if len(fields) == 0 {
		return "", queryir.Errorf(queryir.ErrCodeSchema, "createTable",
			"entity %s declares no fields", entity)
	}
	key := m.KeyFieldName(entity)
	cols := make([]string, len(fields))
	for i, f := range fields {
		cols[i] = d.QuoteColumn(m.ColumnName(entity, f)) + columnType(m.FieldType(entity, f))
		if f == key {
			cols[i] += " PRIMARY KEY"
		}
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)",
		d.QuoteTable(m.TableName(entity)), strings.Join(cols, ", ")), nil
}

// CreateTable executes CreateTableSQL.
func (s *Source) CreateTable(ctx context.Context) error {
	ddl, err := s.CreateTableSQL()
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, "createTable", ddl)
	return err
}
