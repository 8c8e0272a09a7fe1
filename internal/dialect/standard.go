package dialect

import (
	"github.com/enquinity/pdquery/internal/model"
)

// SQLite quotes identifiers with double quotes; backslashes in literals are
// ordinary characters.
var SQLite Dialect = sqlite{}

// Postgres follows SQLite's quoting and renders booleans as TRUE/FALSE.
var Postgres Dialect = postgres{}

var quoteIdent = quoteWith(`"`)

var sqliteLiterals = literals{
	quoteString: standardString,
	boolean: func(b bool) string {
		if b {
			return "1"
		}
		return "0"
	},
}

var postgresLiterals = literals{
	quoteString: standardString,
	boolean: func(b bool) string {
		if b {
			return "TRUE"
		}
		return "FALSE"
	},
}

type sqlite struct{}

func (sqlite) Name() string { return "sqlite" }
func (sqlite) QuoteColumn(name string) string { return quoteIdent(name) }
func (sqlite) QuoteTable(name string) string { return quoteIdent(name) }
func (sqlite) QuoteColumnAlias(alias string) string { return quoteIdent(alias) }
func (sqlite) QuoteTableAlias(alias string) string { return quoteIdent(alias) }

func (sqlite) Value(v any, t model.FieldType) (string, error) {
	return sqliteLiterals.value(v, t)
}

// ApplyLimit renders LIMIT n [OFFSET m]; LIMIT -1 means no cap.
func (sqlite) ApplyLimit(sql string, limit, offset *int) string {
	return limitOffset(sql, limit, offset, "-1")
}

type postgres struct{}

func (postgres) Name() string { return "postgres" }
func (postgres) QuoteColumn(name string) string { return quoteIdent(name) }
func (postgres) QuoteTable(name string) string { return quoteIdent(name) }
func (postgres) QuoteColumnAlias(alias string) string { return quoteIdent(alias) }
func (postgres) QuoteTableAlias(alias string) string { return quoteIdent(alias) }

func (postgres) Value(v any, t model.FieldType) (string, error) {
	return postgresLiterals.value(v, t)
}

// ApplyLimit renders LIMIT n [OFFSET m]; LIMIT ALL means no cap.
func (postgres) ApplyLimit(sql string, limit, offset *int) string {
	return limitOffset(sql, limit, offset, "ALL")
}
