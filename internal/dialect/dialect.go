// Package dialect renders identifiers, literals and pagination for the SQL
// databases pdquery targets.
package dialect

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/model"
	"github.com/enquinity/pdquery/internal/queryir"
)

// Dialect is the database-specific part of SQL generation.
type Dialect interface {
	// Name returns the canonical dialect name.
	Name() string

	QuoteColumn(name string) string
	QuoteTable(name string) string
	// QuoteColumnAlias renders the alias after AS in a select list.
	QuoteColumnAlias(alias string) string
	QuoteTableAlias(alias string) string

	// Value renders v as a literal of field type t. With model.Implicit the
	// runtime type of v decides. nil renders as NULL.
	Value(v any, t model.FieldType) (string, error)

	// ApplyLimit appends pagination to a select statement. A nil limit
	// with an offset renders the dialect's "no cap" form.
	ApplyLimit(sql string, limit, offset *int) string
}

// ByName returns the dialect registered under name.
func ByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "postgres", "postgresql", "pg":
		return Postgres, nil
	}
	return nil, fmt.Errorf("unknown dialect %q (want mysql, sqlite or postgres)", name)
}

// Names lists the canonical dialect names.
func Names() []string { return []string{"mysql", "sqlite", "postgres"} }

// literals holds the type dispatch shared by all dialects.
type literals struct {
	quoteString func(string) string
	boolean     func(bool) string
}

func (l literals) value(v any, t model.FieldType) (string, error) {
	if v == nil {
		return "NULL", nil
	}
	if t == model.Implicit {
		t = implicitType(v)
		if t == model.Implicit {
			return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "dialect.Value",
				"cannot encode %T as SQL", v)
		}
	}
	switch t {
	case model.String:
		if tm, ok := v.(time.Time); ok {
			return l.quoteString(tm.Format(time.DateTime)), nil
		}
		return l.quoteString(ir.ToString(v)), nil
	case model.Bool:
		return l.boolean(truthy(v)), nil
	case model.Int:
		n, ok := ir.ToInt(v)
		if !ok {
			return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "dialect.Value",
				"value %v (%T) is not an integer", v, v)
		}
		return strconv.FormatInt(n, 10), nil
	case model.Float:
		f, ok := ir.ToFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "dialect.Value",
				"value %v (%T) is not a finite number", v, v)
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	}
	return "", queryir.Errorf(queryir.ErrCodeUnsupportedValue, "dialect.Value", "unknown field type %s", t)
}

func implicitType(v any) model.FieldType {
	switch v.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return model.Int
	case float32, float64:
		return model.Float
	case string, []byte, time.Time, fmt.Stringer:
		return model.String
	case bool:
		return model.Bool
	}
	return model.Implicit
}

// truthy: false, zero numbers, "" and "0" are false; anything else is true.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		return x != "" && x != "0"
	case []byte:
		return len(x) > 0 && string(x) != "0"
	}
	if f, ok := ir.ToFloat(v); ok {
		return f != 0
	}
	return v != nil
}

func quoteWith(q string) func(string) string {
	return func(s string) string {
		return q + strings.ReplaceAll(s, q, q+q) + q
	}
}

func standardString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func limitOffset(sql string, limit, offset *int, noCap string) string {
	var b strings.Builder
	b.WriteString(sql)
	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	} else if offset != nil {
		b.WriteString(" LIMIT " + noCap)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}
	return b.String()
}
