// Package model provides the entity model consulted by the SQL engine.
//
// A Model maps entity names to tables, field names to columns and field
// types, and exposes the relations used to resolve dotted relation paths
// into joins. Two implementations exist:
//
//	Simple  no metadata, names map to identifiers through a naming function
//	Schema  declarative entities loaded from YAML or CUE
package model
