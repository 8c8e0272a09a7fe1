package ir

import (
	"slices"
)

// Row is the uniform field accessor used by all engines.
//
// Get returns the value stored under field and whether the field exists.
// A field that exists with a nil value returns (nil, true).
type Row interface {
	Get(field string) (any, bool)
}

// Ordered is implemented by rows that know their column order.
// SelectScalar uses it to pick the first column of a row.
type Ordered interface {
	Row
	Keys() []string
}

// Record is a loosely-typed row backed by a map.
type Record map[string]any

// Get implements Row.
func (r Record) Get(field string) (any, bool) {
	v, ok := r[field]
	return v, ok
}

// SortedKeys returns the record's field names in byte order.
// Use it whenever a deterministic iteration order is needed.
func (r Record) SortedKeys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Columns is an ordered row, typically produced by scanning a SQL result.
type Columns struct {
	names  []string
	values []any
}

// NewColumns creates an ordered row. names and values must have equal length.
func NewColumns(names []string, values []any) *Columns {
	return &Columns{names: names, values: values}
}

// Get implements Row. Lookups are linear; result rows are narrow.
func (c *Columns) Get(field string) (any, bool) {
	for i, n := range c.names {
		if n == field {
			return c.values[i], true
		}
	}
	return nil, false
}

// Keys implements Ordered.
func (c *Columns) Keys() []string {
	return c.names
}

// Values returns the column values in order.
func (c *Columns) Values() []any {
	return c.values
}

// Record converts the ordered row to a Record.
func (c *Columns) Record() Record {
	r := make(Record, len(c.names))
	for i, n := range c.names {
		r[n] = c.values[i]
	}
	return r
}

// Value returns the value of field, or nil when the row has no such field.
func Value(r Row, field string) any {
	v, _ := r.Get(field)
	return v
}

// ToRecord copies any row into a Record. Records are returned as-is.
func ToRecord(r Row) Record {
	switch row := r.(type) {
	case Record:
		return row
	case *Columns:
		return row.Record()
	}
	if o, ok := r.(Ordered); ok {
		keys := o.Keys()
		rec := make(Record, len(keys))
		for _, k := range keys {
			rec[k], _ = o.Get(k)
		}
		return rec
	}
	return nil
}

// FirstValue returns the value of the first field of a row.
//
// Ordered rows use their first column. A Record is only unambiguous when it
// holds exactly one field; ok is false otherwise.
func FirstValue(r Row) (any, bool) {
	if o, ok := r.(Ordered); ok {
		keys := o.Keys()
		if len(keys) == 0 {
			return nil, false
		}
		return o.Get(keys[0])
	}
	if rec, ok := r.(Record); ok && len(rec) == 1 {
		for _, v := range rec {
			return v, true
		}
	}
	return nil, false
}
