package queryir

import (
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Kind selects the query builder a Document produces.
type Kind string

const (
	KindSelect Kind = "select"
	KindCount  Kind = "count"
	KindUpdate Kind = "update"
	KindDelete Kind = "delete"
)

// Document is the YAML form of a query, used by the CLI and the parity
// harness:
//
//	entity: orders
//	kind: select
//	where:
//	  - {field: status, value: open}
//	  - {field: total, op: ">", value: 5, or: true}
//	  - group:
//	      - {field: a, value: 1}
//	      - {field: b, value: 2, or: true}
//	order_by:
//	  - {field: total}
//	  - {field: id, desc: true}
//	fields: [id, status]
//	relations: [customer]
//	limit: 10
//	offset: 5
//	set: {status: closed}
type Document struct {
	Entity    string         `yaml:"entity"`
	Kind      Kind           `yaml:"kind"`
	Where     []WhereDoc     `yaml:"where"`
	OrderBy   []OrderDoc     `yaml:"order_by"`
	GroupBy   []string       `yaml:"group_by"`
	Fields    []string       `yaml:"fields"`
	Relations []string       `yaml:"relations"`
	Limit     *int           `yaml:"limit"`
	Offset    *int           `yaml:"offset"`
	Set       map[string]any `yaml:"set"`
}

// WhereDoc is one where entry. A missing value defaults to 1, like a
// Where call with only a field name.
type WhereDoc struct {
	Field string     `yaml:"field"`
	Key   bool       `yaml:"key"`
	Op    string     `yaml:"op"`
	Value any        `yaml:"value"`
	Or    bool       `yaml:"or"`
	Group []WhereDoc `yaml:"group"`

	hasValue bool
}

// UnmarshalYAML records whether value was present.
func (w *WhereDoc) UnmarshalYAML(node *yaml.Node) error {
	type plain WhereDoc
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*w = WhereDoc(p)
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == "value" {
				w.hasValue = true
			}
		}
	}
	return nil
}

// OrderDoc is one order_by entry.
type OrderDoc struct {
	Field string `yaml:"field"`
	Desc  bool   `yaml:"desc"`
}

// DecodeDocument reads one YAML query document. Unknown keys are rejected.
func DecodeDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, Errorf(ErrCodeInvalidQuery, "decode document", "empty document")
		}
		return nil, &Error{Code: ErrCodeInvalidQuery, Op: "decode document", Err: err}
	}
	if doc.Kind == "" {
		doc.Kind = KindSelect
	}
	switch doc.Kind {
	case KindSelect, KindCount, KindUpdate, KindDelete:
	default:
		return nil, Errorf(ErrCodeInvalidQuery, "decode document", "unknown kind %q", doc.Kind)
	}
	return &doc, nil
}

// args converts an entry into Where call arguments.
func (w WhereDoc) args() ([]any, error) {
	if w.Group != nil {
		group := &Conditions{}
		if err := applyWhere(&group.whereList, w.Group); err != nil {
			return nil, err
		}
		if group.where == nil {
			group.where = []Condition{}
		}
		return []any{group}, nil
	}
	var field any = w.Field
	if w.Key {
		field = Key
	} else if w.Field == "" {
		return nil, Errorf(ErrCodeInvalidQuery, "decode document", "where entry needs field, key or group")
	}
	switch {
	case w.Op != "":
		return []any{field, w.Op, w.Value}, nil
	case w.hasValue:
		return []any{field, w.Value}, nil
	}
	return []any{field}, nil
}

func applyWhere(w *whereList, docs []WhereDoc) error {
	for i, d := range docs {
		args, err := d.args()
		if err != nil {
			return fmt.Errorf("where[%d]: %w", i, err)
		}
		join := And
		if d.Or {
			join = Or
		}
		w.add(join, args)
		if w.err != nil {
			return fmt.Errorf("where[%d]: %w", i, w.err)
		}
	}
	return nil
}

// Query builds a select query from the document.
func (d *Document) Query(src DataSource) (*Query, error) {
	q := NewQuery(src)
	if err := applyWhere(&q.whereList, d.Where); err != nil {
		return nil, err
	}
	q.WithRelation(d.Relations...)
	for _, o := range d.OrderBy {
		q.OrderBy(o.Field, !o.Desc)
	}
	q.GroupBy(d.GroupBy...)
	q.Fields(d.Fields...)
	if d.Limit != nil {
		q.Limit(*d.Limit)
	}
	if d.Offset != nil {
		q.Offset(*d.Offset)
	}
	return q, q.Err()
}

// CountQuery builds a count query from the document.
func (d *Document) CountQuery(src DataSource) (*CountQuery, error) {
	q := NewCountQuery(src)
	if err := applyWhere(&q.whereList, d.Where); err != nil {
		return nil, err
	}
	q.WithRelation(d.Relations...)
	return q, q.Err()
}

// UpdateQuery builds an update query from the document.
func (d *Document) UpdateQuery(src Updater) (*UpdateQuery, error) {
	q := NewUpdateQuery(src)
	if err := applyWhere(&q.whereList, d.Where); err != nil {
		return nil, err
	}
	q.WithRelation(d.Relations...)
	q.SetAll(d.Set)
	return q, q.Err()
}

// DeleteQuery builds a delete query from the document.
func (d *Document) DeleteQuery(src Updater) (*DeleteQuery, error) {
	q := NewDeleteQuery(src)
	if err := applyWhere(&q.whereList, d.Where); err != nil {
		return nil, err
	}
	q.WithRelation(d.Relations...)
	return q, q.Err()
}
