package model

import (
	"github.com/iancoleman/strcase"
)

// DefaultKeyField is the key field of entities that do not declare one.
const DefaultKeyField = "id"

// NamingFunc maps an entity or field name to a database identifier.
type NamingFunc func(string) string

// IdentityNaming uses names unchanged.
func IdentityNaming(s string) string { return s }

// SnakeCaseNaming maps camelCase names to snake_case identifiers
// (customerId -> customer_id).
func SnakeCaseNaming(s string) string { return strcase.ToSnake(s) }

// NamingByName returns the naming strategy registered under name.
func NamingByName(name string) (NamingFunc, bool) {
	switch name {
	case "", "identity":
		return IdentityNaming, true
	case "snake", "snake_case":
		return SnakeCaseNaming, true
	}
	return nil, false
}

// Simple is a model without metadata: tables and columns are named after
// entities and fields, every field is Implicit, there are no relations and
// the key field is "id".
type Simple struct {
	// Naming maps names to identifiers. Nil means IdentityNaming.
	Naming NamingFunc
}

var _ Model = Simple{}

func (m Simple) name(s string) string {
	if m.Naming == nil {
		return s
	}
	return m.Naming(s)
}

func (m Simple) TableName(entity string) string { return m.name(entity) }
func (m Simple) ColumnName(_, field string) string { return m.name(field) }
func (Simple) FieldType(_, _ string) FieldType { return Implicit }
func (Simple) Relation(_, _ string) (Relation, bool) { return Relation{}, false }
func (Simple) FieldNames(string) []string { return nil }
func (Simple) KeyFieldName(string) string { return DefaultKeyField }
