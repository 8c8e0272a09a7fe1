package querysql

import (
	"strings"

	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// Source is one table taking part in a statement. The base entity has the
// empty path and is aliased by its table name.
type Source struct {
	Path   string
	Entity string
	Alias  string
}

// Join links the source at FromPath to the source at ToPath on
// from.SourceField = to.TargetField.
type Join struct {
	FromPath    string
	ToPath      string
	Entity      string
	SourceField string
	TargetField string
}

// Plan is the resolved set of sources and joins for a base entity and its
// requested relation paths.
type Plan struct {
	sources map[string]Source
	paths   []string
	Joins   []Join
}

// ResolveRelations expands dotted relation paths ("customer",
// "customer.country") into sources and joins.
//
// Each new source is aliased parentAlias_segment. Shared prefixes are
// resolved once. One-to-many relations are rejected because they would
// multiply the base rows.
func ResolveRelations(m model.Model, entity string, paths []string) (*Plan, error) {
	root := Source{Entity: entity, Alias: m.TableName(entity)}
	p := &Plan{
		sources: map[string]Source{"": root},
		paths:   []string{""},
	}
	for _, requested := range paths {
		if requested == "" {
			continue
		}
		current := ""
		for _, segment := range strings.Split(requested, ".") {
			parent := p.sources[current]
			next := segment
			if current != "" {
				next = current + "." + segment
			}
			if _, ok := p.sources[next]; ok {
				current = next
				continue
			}
			if segment == "" {
				return nil, queryir.Errorf(queryir.ErrCodeSchema, "resolveRelations",
					"malformed relation path %q", requested)
			}
			rel, ok := m.Relation(parent.Entity, segment)
			if !ok {
				return nil, queryir.Errorf(queryir.ErrCodeSchema, "resolveRelations",
					"entity %s has no relation %s (path %q)", parent.Entity, segment, requested)
			}
			if rel.Type == model.OneToMany {
				return nil, queryir.Errorf(queryir.ErrCodeSchema, "resolveRelations",
					"cannot include one-to-many relation %s -> %s in a single select", entity, next)
			}
			p.sources[next] = Source{Path: next, Entity: rel.Target, Alias: parent.Alias + "_" + segment}
			p.paths = append(p.paths, next)
			p.Joins = append(p.Joins, Join{
				FromPath:    current,
				ToPath:      next,
				Entity:      rel.Target,
				SourceField: rel.SourceField,
				TargetField: rel.TargetField,
			})
			current = next
		}
	}
	return p, nil
}

// Source returns the source resolved for path.
func (p *Plan) Source(path string) (Source, bool) {
	s, ok := p.sources[path]
	return s, ok
}

// Sources returns all sources, base entity first, in resolution order.
func (p *Plan) Sources() []Source {
	out := make([]Source, len(p.paths))
	for i, path := range p.paths {
		out[i] = p.sources[path]
	}
	return out
}

// splitField splits "customer.country.name" into ("customer.country", "name").
func splitField(field string) (path, name string) {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		return field[:i], field[i+1:]
	}
	return "", field
}

// fieldType walks the relations named by a dotted field and returns the
// type of its last segment.
func fieldType(m model.Model, entity, field string) (model.FieldType, error) {
	for {
		i := strings.IndexByte(field, '.')
		if i < 0 {
			return m.FieldType(entity, field), nil
		}
		rel, ok := m.Relation(entity, field[:i])
		if !ok {
			return model.Implicit, queryir.Errorf(queryir.ErrCodeSchema, "fieldType",
				"entity %s has no relation %s", entity, field[:i])
		}
		entity, field = rel.Target, field[i+1:]
	}
}
