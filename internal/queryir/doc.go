// Package queryir provides the engine-agnostic query specification of
// pdquery and its fluent construction API.
//
// A caller builds a query once and hands it to whichever engine backs the
// data source: the in-memory collection engine or the SQL engine.
//
//	[fluent builder] → [SelectSpec] → [collection engine] → rows
//	                               → [SQL compiler]      → SQL text
//
// BUILDERS AND SPECS:
//
// Query, CountQuery, UpdateQuery and DeleteQuery are mutable builders. Each
// produces an immutable snapshot (SelectSpec, CountSpec, UpdateSpec,
// DeleteSpec) that engines consume read-only. Terminal operations on a
// builder (Select, SelectFirst, SelectByID, SelectScalar, HasRows, Count,
// Update, Delete) snapshot the builder and call its data source.
//
// CONDITIONS:
//
// A where list is an ordered sequence of Condition values. A condition is
// either a leaf comparison or a nested group; its Join (AND/OR) connects it
// to the previous condition and is ignored for the first entry.
//
//	q.Where("id", 5)                  // id = 5
//	q.Where("id", "<>", 5)            // id <> 5
//	q.Where("accepted")               // accepted = 1
//	q.Where("id", []int{1, 2, 3})     // id IN (1, 2, 3)
//	q.Where(queryir.Where("a", 1).OrWhere("b", 2)) // (a = 1 OR b = 2)
//
// ERRORS:
//
// Builders never panic. The first malformed call is recorded and returned by
// Err and by every terminal operation. Error codes:
//
//	SCHEMA                unknown relation, one-to-many include, unknown tag argument
//	INVALID_QUERY         wrong where arity, negative limit, malformed document
//	UNSUPPORTED_OPERATOR  operator outside the supported set
//	UNSUPPORTED_VALUE     value the engine cannot evaluate or encode
//
// PORTABILITY:
//
// Validate reports features that only one engine honors, following the same
// pattern as a portable-fragment check: non-portable queries are allowed,
// the warnings explain the divergence.
package queryir
