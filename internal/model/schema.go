package model

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hashicorp/go-multierror"
)

// Field declares one entity field.
type Field struct {
	Name   string
	Column string // empty: derived from Name with the schema's naming
	Type   FieldType
}

// Entity declares one entity of a Schema.
type Entity struct {
	Name      string
	Table     string // empty: derived from Name with the schema's naming
	Key       string // empty: DefaultKeyField
	Fields    []Field
	Relations map[string]Relation
}

func (e *Entity) field(name string) (Field, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Schema is a declarative Model built from entity declarations.
//
// Entities that are not declared behave like Simple: they are named after
// themselves, have Implicit fields and no relations.
type Schema struct {
	Naming   NamingFunc
	entities map[string]*Entity
}

var _ Model = (*Schema)(nil)

// NewSchema creates a schema from entity declarations. Later declarations of
// the same entity name replace earlier ones.
func NewSchema(naming NamingFunc, entities ...Entity) *Schema {
	if naming == nil {
		naming = IdentityNaming
	}
	s := &Schema{Naming: naming, entities: make(map[string]*Entity, len(entities))}
	for i := range entities {
		e := entities[i]
		s.entities[e.Name] = &e
	}
	return s
}

// Entity returns the declaration of an entity.
func (s *Schema) Entity(name string) (*Entity, bool) {
	e, ok := s.entities[name]
	return e, ok
}

// EntityNames returns declared entity names in sorted order.
func (s *Schema) EntityNames() []string {
	names := make([]string, 0, len(s.entities))
	for n := range s.entities {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Schema) TableName(entity string) string {
	if e, ok := s.entities[entity]; ok && e.Table != "" {
		return e.Table
	}
	return s.Naming(entity)
}

func (s *Schema) ColumnName(entity, field string) string {
	if e, ok := s.entities[entity]; ok {
		if f, ok := e.field(field); ok && f.Column != "" {
			return f.Column
		}
	}
	return s.Naming(field)
}

func (s *Schema) FieldType(entity, field string) FieldType {
	if e, ok := s.entities[entity]; ok {
		if f, ok := e.field(field); ok {
			return f.Type
		}
	}
	return Implicit
}

func (s *Schema) Relation(entity, name string) (Relation, bool) {
	e, ok := s.entities[entity]
	if !ok {
		return Relation{}, false
	}
	r, ok := e.Relations[name]
	return r, ok
}

func (s *Schema) FieldNames(entity string) []string {
	e, ok := s.entities[entity]
	if !ok || len(e.Fields) == 0 {
		return nil
	}
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Name
	}
	return names
}

func (s *Schema) KeyFieldName(entity string) string {
	if e, ok := s.entities[entity]; ok && e.Key != "" {
		return e.Key
	}
	return DefaultKeyField
}

// Validate checks the schema for dangling references and reports every
// problem found.
func (s *Schema) Validate() error {
	var result *multierror.Error
	for _, name := range s.EntityNames() {
		e := s.entities[name]
		seen := make(map[string]bool, len(e.Fields))
		for _, f := range e.Fields {
			if f.Name == "" {
				result = multierror.Append(result, fmt.Errorf("entity %s: field with empty name", name))
				continue
			}
			if seen[f.Name] {
				result = multierror.Append(result, fmt.Errorf("entity %s: duplicate field %s", name, f.Name))
			}
			seen[f.Name] = true
		}
		if e.Key != "" && len(e.Fields) > 0 && !seen[e.Key] {
			result = multierror.Append(result, fmt.Errorf("entity %s: key field %s is not declared", name, e.Key))
		}

		relNames := make([]string, 0, len(e.Relations))
		for r := range e.Relations {
			relNames = append(relNames, r)
		}
		slices.Sort(relNames)
		for _, rn := range relNames {
			result = multierror.Append(result, s.validateRelation(e, rn, seen)...)
		}
	}
	return result.ErrorOrNil()
}

func (s *Schema) validateRelation(e *Entity, name string, fields map[string]bool) []error {
	var errs []error
	r := e.Relations[name]
	prefix := fmt.Sprintf("entity %s: relation %s", e.Name, name)
	switch r.Type {
	case OneToOne, OneToMany, ManyToOne:
	default:
		errs = append(errs, fmt.Errorf("%s: invalid type %d", prefix, int(r.Type)))
	}
	if r.SourceField == "" || r.TargetField == "" {
		errs = append(errs, fmt.Errorf("%s: source and target fields are required", prefix))
	}
	if r.SourceField != "" && len(e.Fields) > 0 && !fields[r.SourceField] {
		errs = append(errs, fmt.Errorf("%s: source field %s is not declared", prefix, r.SourceField))
	}
	target, ok := s.entities[r.Target]
	if !ok {
		errs = append(errs, fmt.Errorf("%s: unknown target entity %q", prefix, r.Target))
		return errs
	}
	if r.TargetField != "" && len(target.Fields) > 0 {
		if _, ok := target.field(r.TargetField); !ok {
			errs = append(errs, fmt.Errorf("%s: target field %s.%s is not declared", prefix, r.Target, r.TargetField))
		}
	}
	return errs
}
