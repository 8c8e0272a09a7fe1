// Package store executes generated SQL through database/sql.
//
// A Source binds a database handle to a querysql.Compiler and implements
// the queryir read and write contracts, so the same query specs run
// against a SQL table and against the in-memory collection engine. Open
// returns a SQLite handle; any database/sql driver whose syntax matches
// the compiler's dialect works with New.
package store
