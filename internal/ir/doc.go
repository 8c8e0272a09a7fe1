// Package ir provides the row and value representation shared by every
// pdquery engine.
//
// This package contains type definitions and value semantics only. All other
// internal packages import ir; ir imports nothing internal. This keeps the
// row model the foundational layer with no circular dependencies.
//
// Rows:
//
// A Row is anything that can answer "what is the value of field f". Engines
// depend on the Row interface only, never on a concrete record shape:
//
//	Record   map[string]any, the common case (decoded JSON/YAML, literals)
//	Columns  ordered column list, produced by SQL scans
//
// Structured records (Go structs) are converted with FromStruct.
//
// Rows cursors:
//
// Query results are delivered through the Rows cursor. A cursor produced from
// a lazy source is single-pass and cannot be restarted; a cursor produced
// from a slice (SliceRows) can be collected repeatedly by creating a new one.
//
// Value semantics:
//
// Filters compare loosely-typed values. LooseEqual and Compare define the
// rules: numbers and numeric strings compare numerically, other strings
// compare byte-wise, nil equals only nil. IndexKey maps a value to the key
// used by in-memory indexes so that index lookups agree with LooseEqual.
package ir
