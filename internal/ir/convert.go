package ir

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// FieldTag is the struct tag consulted when converting structs to rows.
const FieldTag = "field"

// FromStruct converts a struct (or pointer to struct) into a Record.
// Field names come from the `field` tag, falling back to the Go field name.
func FromStruct(v any) (Record, error) {
	out := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: FieldTag,
		Result:  &out,
	})
	if err != nil {
		return nil, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(v); err != nil {
		return nil, fmt.Errorf("convert %T to record: %w", v, err)
	}
	return Record(out), nil
}

// FromStructs converts a slice of structs into rows.
func FromStructs[T any](items []T) ([]Row, error) {
	rows := make([]Row, 0, len(items))
	for i, item := range items {
		rec, err := FromStruct(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		rows = append(rows, rec)
	}
	return rows, nil
}

// Decode fills the struct pointed to by out from a row.
// Numeric strings and numbers are converted to the target field type.
func Decode(row Row, out any) error {
	rec := ToRecord(row)
	if rec == nil {
		return fmt.Errorf("decode: unsupported row type %T", row)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          FieldTag,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(map[string]any(rec)); err != nil {
		return fmt.Errorf("decode row: %w", err)
	}
	return nil
}
