package model

import (
	"fmt"
	"strconv"
	"strings"
)

// FieldType declares how a field's values are encoded as SQL literals.
type FieldType int

const (
	// Implicit lets the runtime value choose the encoding.
	Implicit FieldType = iota
	Int
	Float
	String
	Bool
)

func (t FieldType) String() string {
	switch t {
	case Implicit:
		return "implicit"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Bool:
		return "bool"
	}
	return fmt.Sprintf("FieldType(%d)", int(t))
}

// ParseFieldType parses a field type name. The empty string is Implicit.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "implicit":
		return Implicit, nil
	case "int", "integer":
		return Int, nil
	case "float", "double":
		return Float, nil
	case "string", "str", "text":
		return String, nil
	case "bool", "boolean":
		return Bool, nil
	}
	return Implicit, fmt.Errorf("unknown field type %q", s)
}

// RelationType is the cardinality of a relation between two entities.
type RelationType int

const (
	OneToOne  RelationType = 11
	OneToMany RelationType = 18
	ManyToOne RelationType = 81
)

func (t RelationType) String() string {
	switch t {
	case OneToOne:
		return "one_to_one"
	case OneToMany:
		return "one_to_many"
	case ManyToOne:
		return "many_to_one"
	}
	return fmt.Sprintf("RelationType(%d)", int(t))
}

// ParseRelationType accepts the symbolic names (one_to_one, one-to-many,
// ManyToOne...) and the numeric codes 11, 18 and 81.
func ParseRelationType(s string) (RelationType, error) {
	norm := strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	switch norm {
	case "onetoone":
		return OneToOne, nil
	case "onetomany":
		return OneToMany, nil
	case "manytoone":
		return ManyToOne, nil
	}
	if n, err := strconv.Atoi(norm); err == nil {
		switch t := RelationType(n); t {
		case OneToOne, OneToMany, ManyToOne:
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown relation type %q", s)
}

// Relation describes how an entity reaches a related entity.
//
// SourceField is a field of the owning entity, TargetField a field of
// Target; the join condition is source = target.
type Relation struct {
	Type        RelationType
	Target      string
	SourceField string
	TargetField string
}

// Model maps entity and field names to their relational representation.
type Model interface {
	TableName(entity string) string
	ColumnName(entity, field string) string
	FieldType(entity, field string) FieldType
	// Relation returns the named relation of entity, or false when the entity
	// has no such relation.
	Relation(entity, name string) (Relation, bool)
	// FieldNames returns the entity's fields in declaration order, or nil when
	// the field list is unknown (the entity is then selected with a wildcard).
	FieldNames(entity string) []string
	KeyFieldName(entity string) string
}
