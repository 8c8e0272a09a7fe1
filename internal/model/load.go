package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// LoadError reports a problem in a model document, with the CUE source
// position when one is available.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// schemaDoc is the serialized form shared by the YAML and CUE loaders.
type schemaDoc struct {
	Naming   string               `yaml:"naming" json:"naming"`
	Entities map[string]entityDoc `yaml:"entities" json:"entities"`
}

type entityDoc struct {
	Table     string                 `yaml:"table" json:"table"`
	Key       string                 `yaml:"key" json:"key"`
	Fields    []fieldDoc             `yaml:"fields" json:"fields"`
	Relations map[string]relationDoc `yaml:"relations" json:"relations"`
}

type fieldDoc struct {
	Name   string `yaml:"name" json:"name"`
	Column string `yaml:"column" json:"column"`
	Type   string `yaml:"type" json:"type"`
}

type relationDoc struct {
	Type        string `yaml:"type" json:"type"`
	Target      string `yaml:"target" json:"target"`
	Source      string `yaml:"source" json:"source"`
	TargetField string `yaml:"target_field" json:"target_field"`
}

// LoadYAML reads a schema document:
//
//	naming: snake
//	entities:
//	  orders:
//	    table: orders
//	    key: id
//	    fields:
//	      - {name: id, type: int}
//	      - {name: customerId, type: int}
//	    relations:
//	      customer: {type: many_to_one, target: customers, source: customerId, target_field: id}
//
// Unknown keys are rejected. The schema is validated before it is returned.
func LoadYAML(r io.Reader) (*Schema, error) {
	var doc schemaDoc
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &LoadError{Field: "model", Message: "empty document"}
		}
		return nil, fmt.Errorf("parse model: %w", err)
	}
	return doc.schema()
}

// LoadCUE compiles a CUE model source. The source has the same shape as the
// YAML document; CUE constraints and references are resolved first.
func LoadCUE(filename string, src []byte) (*Schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc schemaDoc
	if naming := v.LookupPath(cue.ParsePath("naming")); naming.Exists() {
		s, err := naming.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		doc.Naming = s
	}

	entitiesVal := v.LookupPath(cue.ParsePath("entities"))
	if !entitiesVal.Exists() {
		return nil, &LoadError{Field: "entities", Message: "entities is required", Pos: v.Pos()}
	}
	iter, err := entitiesVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	doc.Entities = map[string]entityDoc{}
	for iter.Next() {
		var ed entityDoc
		if err := iter.Value().Decode(&ed); err != nil {
			return nil, formatCUEError(err)
		}
		doc.Entities[iter.Label()] = ed
	}
	return doc.schema()
}

// LoadFile loads a model from a .yaml, .yml or .cue file.
func LoadFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	switch filepath.Ext(path) {
	case ".cue":
		return LoadCUE(path, data)
	case ".yaml", ".yml":
		return LoadYAML(bytes.NewReader(data))
	}
	return nil, &LoadError{Field: "model", Message: fmt.Sprintf("unsupported model file extension %q", filepath.Ext(path))}
}

func (d schemaDoc) schema() (*Schema, error) {
	naming, ok := NamingByName(d.Naming)
	if !ok {
		return nil, &LoadError{Field: "naming", Message: fmt.Sprintf("unknown naming %q", d.Naming)}
	}

	entities := make([]Entity, 0, len(d.Entities))
	for name, ed := range d.Entities {
		e := Entity{
			Name:  name,
			Table: ed.Table,
			Key:   ed.Key,
		}
		for _, fd := range ed.Fields {
			ft, err := ParseFieldType(fd.Type)
			if err != nil {
				return nil, &LoadError{Field: fmt.Sprintf("entities.%s.fields.%s", name, fd.Name), Message: err.Error()}
			}
			e.Fields = append(e.Fields, Field{Name: fd.Name, Column: fd.Column, Type: ft})
		}
		if len(ed.Relations) > 0 {
			e.Relations = make(map[string]Relation, len(ed.Relations))
		}
		for rn, rd := range ed.Relations {
			rt, err := ParseRelationType(rd.Type)
			if err != nil {
				return nil, &LoadError{Field: fmt.Sprintf("entities.%s.relations.%s", name, rn), Message: err.Error()}
			}
			e.Relations[rn] = Relation{
				Type:        rt,
				Target:      rd.Target,
				SourceField: rd.Source,
				TargetField: rd.TargetField,
			}
		}
		entities = append(entities, e)
	}

	s := NewSchema(naming, entities...)
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid model: %w", err)
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
