package ir

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// number is the normalized numeric view of a loose value.
type number struct {
	i     int64
	f     float64
	isInt bool
}

func (n number) float() float64 {
	if n.isInt {
		return float64(n.i)
	}
	return n.f
}

// toNumber returns the numeric view of v. Numeric strings are numbers;
// booleans are 0 and 1.
func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{i: int64(x), isInt: true}, true
	case int8:
		return number{i: int64(x), isInt: true}, true
	case int16:
		return number{i: int64(x), isInt: true}, true
	case int32:
		return number{i: int64(x), isInt: true}, true
	case int64:
		return number{i: x, isInt: true}, true
	case uint:
		return fromUint(uint64(x)), true
	case uint8:
		return number{i: int64(x), isInt: true}, true
	case uint16:
		return number{i: int64(x), isInt: true}, true
	case uint32:
		return number{i: int64(x), isInt: true}, true
	case uint64:
		return fromUint(x), true
	case float32:
		return number{f: float64(x)}, true
	case float64:
		return number{f: x}, true
	case bool:
		if x {
			return number{i: 1, isInt: true}, true
		}
		return number{i: 0, isInt: true}, true
	case string:
		return parseNumber(x)
	case []byte:
		return parseNumber(string(x))
	}
	return number{}, false
}

func fromUint(u uint64) number {
	if u > math.MaxInt64 {
		return number{f: float64(u)}
	}
	return number{i: int64(u), isInt: true}
}

func parseNumber(s string) (number, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return number{}, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return number{i: i, isInt: true}, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return number{}, false
	}
	return number{f: f}, true
}

// compareNumbers orders numbers exactly. Integers and floats are compared
// without rounding through float64. NaN sorts before every other number.
func compareNumbers(a, b number) int {
	switch {
	case a.isInt && b.isInt:
		return cmp.Compare(a.i, b.i)
	case a.isInt:
		return compareIntFloat(a.i, b.f)
	case b.isInt:
		return -compareIntFloat(b.i, a.f)
	}
	return cmp.Compare(a.f, b.f)
}

func compareIntFloat(i int64, f float64) int {
	switch {
	case math.IsNaN(f):
		return 1
	case f >= 0x1p63:
		return -1
	case f < -0x1p63:
		return 1
	}
	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c
	}
	switch {
	case f > t:
		return -1
	case f < t:
		return 1
	}
	return 0
}

// equalNumbers is compareNumbers == 0, except that NaN equals nothing.
func equalNumbers(a, b number) bool {
	if (!a.isInt && math.IsNaN(a.f)) || (!b.isInt && math.IsNaN(b.f)) {
		return false
	}
	return compareNumbers(a, b) == 0
}

// IsText reports whether v is textual (string or byte slice).
func IsText(v any) bool {
	switch v.(type) {
	case string, []byte:
		return true
	}
	return false
}

// IsNumeric reports whether v is a number, a bool, or a numeric string.
func IsNumeric(v any) bool {
	_, ok := toNumber(v)
	return ok
}

// ToFloat returns the numeric value of v.
func ToFloat(v any) (float64, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	return n.float(), true
}

// ToInt returns v truncated to an integer.
func ToInt(v any) (int64, bool) {
	n, ok := toNumber(v)
	if !ok {
		return 0, false
	}
	if n.isInt {
		return n.i, true
	}
	return int64(n.f), true
}

// ToString renders v as text. nil is the empty string and booleans are
// "1" and "0".
func ToString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case bool:
		if x {
			return "1"
		}
		return "0"
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format(time.DateTime)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// LooseEqual compares two field values the way filters do.
//
// nil equals only nil. When both sides are numeric (numbers, booleans or
// numeric strings) they compare by exact value, so 5, int64(5), 5.0 and "5"
// are all equal while NaN equals nothing. Other text compares byte-wise. Anything else falls back to deep
// equality.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return equalNumbers(na, nb)
		}
	}
	if IsText(a) || IsText(b) {
		if !IsText(a) || !IsText(b) {
			return false
		}
		return ToString(a) == ToString(b)
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
	}
	return reflect.DeepEqual(a, b)
}

// Compare orders two field values for the relational operators.
//
// nil sorts before everything else. Numeric values compare numerically;
// times compare chronologically; everything else compares as text.
func Compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if na, ok := toNumber(a); ok {
		if nb, ok := toNumber(b); ok {
			return compareNumbers(na, nb)
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(ToString(a), ToString(b))
}

type nilKey struct{}

type opaqueKey string

// NilKey is the index key of nil and of absent fields.
var NilKey any = nilKey{}

// IndexKey normalizes v into a comparable map key such that
// IndexKey(a) == IndexKey(b) whenever LooseEqual(a, b) holds for scalars.
//
// Integral numbers in int64 range (and integral numeric strings) map to
// int64, other numbers to float64, remaining text to string, nil to NilKey.
// NaN keys never match a lookup.
func IndexKey(v any) any {
	if v == nil {
		return NilKey
	}
	if n, ok := toNumber(v); ok {
		if n.isInt {
			return n.i
		}
		if n.f == math.Trunc(n.f) && n.f >= math.MinInt64 && n.f < math.MaxInt64 {
			return int64(n.f)
		}
		return n.f
	}
	if IsText(v) {
		return ToString(v)
	}
	if t, ok := v.(time.Time); ok {
		return opaqueKey(t.UTC().Format(time.RFC3339Nano))
	}
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return opaqueKey(fmt.Sprintf("%#v", v))
}

// IsList reports whether v is a collection value without consuming it.
func IsList(v any) bool {
	switch v.(type) {
	case nil, string, []byte:
		return false
	case Rows:
		return true
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array:
		return true
	}
	return false
}

// AsList returns the elements of a collection value.
//
// Slices and arrays of any element type are collections, as are Rows cursors
// (consumed by the call). Text is never a collection.
func AsList(v any) ([]any, bool) {
	switch x := v.(type) {
	case nil, string, []byte:
		return nil, false
	case []any:
		return x, true
	case []Row:
		out := make([]any, len(x))
		for i, r := range x {
			out[i] = r
		}
		return out, true
	case Rows:
		rows, err := Collect(x)
		if err != nil {
			return nil, false
		}
		out := make([]any, len(rows))
		for i, r := range rows {
			out[i] = r
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

// Scalar reduces a collection element to a single value. Rows and maps
// contribute their first field; anything else is returned unchanged.
func Scalar(v any) any {
	switch x := v.(type) {
	case Ordered:
		if val, ok := FirstValue(x); ok {
			return val
		}
		return nil
	case Record:
		return firstMapValue(x)
	case map[string]any:
		return firstMapValue(x)
	}
	return v
}

// firstMapValue picks the value under the smallest key so the choice is
// deterministic.
func firstMapValue(m map[string]any) any {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return m[slices.Min(keys)]
}
