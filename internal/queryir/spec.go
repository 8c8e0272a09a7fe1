package queryir

import (
	"slices"

	"github.com/enquinity/pdquery/internal/ir"
)

// AllFields is the projection that selects every field.
const AllFields = "*"

// CompareFunc compares two full rows, returning a negative number, zero or
// a positive number.
type CompareFunc func(a, b ir.Row) int

// OrderTerm is one ORDER BY entry. Exactly one of Field and Func is set.
// Desc flips the sign of the comparison, including for Func.
type OrderTerm struct {
	Field string
	Func  CompareFunc
	Desc  bool
}

// Direction returns "ASC" or "DESC".
func (t OrderTerm) Direction() string {
	if t.Desc {
		return "DESC"
	}
	return "ASC"
}

// SelectSpec is the engine-facing description of a select query.
//
// Engines treat it as read-only.
type SelectSpec struct {
	Where     []Condition
	OrderBy   []OrderTerm
	GroupBy   []string
	Fields    []string // nil selects all fields; "rel.*" selects all fields of a relation
	Relations []string
	Limit     *int
	Offset    *int
}

// AllFields reports whether the projection selects every field.
func (s *SelectSpec) AllFields() bool {
	return len(s.Fields) == 0 || (len(s.Fields) == 1 && s.Fields[0] == AllFields)
}

// LimitValue returns the limit and whether one is set.
func (s *SelectSpec) LimitValue() (int, bool) {
	if s.Limit == nil {
		return 0, false
	}
	return *s.Limit, true
}

// OffsetValue returns the offset, zero when unset.
func (s *SelectSpec) OffsetValue() int {
	if s.Offset == nil {
		return 0
	}
	return *s.Offset
}

// WhereConditions implements ConditionSource.
func (s *SelectSpec) WhereConditions() []Condition { return s.Where }

// CountSpec describes a count query.
type CountSpec struct {
	Where     []Condition
	Relations []string
}

// WhereConditions implements ConditionSource.
func (s *CountSpec) WhereConditions() []Condition { return s.Where }

// Assignment is one field assignment of an update.
type Assignment struct {
	Field string
	Value any
}

// UpdateSpec describes an update query.
type UpdateSpec struct {
	Where     []Condition
	Relations []string
	Set       []Assignment
}

// WhereConditions implements ConditionSource.
func (s *UpdateSpec) WhereConditions() []Condition { return s.Where }

// DeleteSpec describes a delete query.
type DeleteSpec struct {
	Where     []Condition
	Relations []string
}

// WhereConditions implements ConditionSource.
func (s *DeleteSpec) WhereConditions() []Condition { return s.Where }

// Clone returns a copy whose slices can be modified independently.
func (s *SelectSpec) Clone() *SelectSpec {
	c := *s
	c.Where = slices.Clone(s.Where)
	c.OrderBy = slices.Clone(s.OrderBy)
	c.GroupBy = slices.Clone(s.GroupBy)
	c.Fields = slices.Clone(s.Fields)
	c.Relations = slices.Clone(s.Relations)
	if s.Limit != nil {
		l := *s.Limit
		c.Limit = &l
	}
	if s.Offset != nil {
		o := *s.Offset
		c.Offset = &o
	}
	return &c
}

// IntPtr returns a pointer to n. Useful for literal limits.
func IntPtr(n int) *int { return &n }
