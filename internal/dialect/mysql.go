package dialect

import (
	"strconv"
	"strings"

	"github.com/enquinity/pdquery/internal/model"
)

// MySQL quotes identifiers with backticks and string literals with single
// quotes, escaping backslashes.
var MySQL Dialect = mysql{}

// mysqlNoCap is the largest LIMIT MySQL accepts.
const mysqlNoCap = "18446744073709551615"

var mysqlLiterals = literals{
	quoteString: mysqlString,
	boolean: func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	},
}

type mysql struct{}

func (mysql) Name() string { return "mysql" }
func (mysql) QuoteColumn(name string) string { return quoteWith("`")(name) }
func (mysql) QuoteTable(name string) string { return quoteWith("`")(name) }
func (mysql) QuoteColumnAlias(alias string) string { return mysqlString(alias) }
func (mysql) QuoteTableAlias(alias string) string { return quoteWith("`")(alias) }

func (mysql) Value(v any, t model.FieldType) (string, error) {
	return mysqlLiterals.value(v, t)
}

// ApplyLimit renders LIMIT offset, limit.
func (mysql) ApplyLimit(sql string, limit, offset *int) string {
	if limit == nil && offset == nil {
		return sql
	}
	l, o := mysqlNoCap, "0"
	if limit != nil {
		l = strconv.Itoa(*limit)
	}
	if offset != nil {
		o = strconv.Itoa(*offset)
	}
	return sql + " LIMIT " + o + ", " + l
}

func mysqlString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
