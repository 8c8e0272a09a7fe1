// Package harness runs parity scenarios: one query, described in YAML,
// executed by the in-memory collection engine and by SQLite over the same
// rows.
//
// A scenario names an entity model, the rows of each entity, the query and
// the assertions its result must satisfy:
//
//	name: open_orders
//	model: ../models/shop.yaml
//	data:
//	  orders:
//	    - {id: 1, status: open, total: 20}
//	query:
//	  entity: orders
//	  where:
//	    - {field: status, value: open}
//	assertions:
//	  - {type: keys, values: [1]}
//
// Besides the assertions, Run fails a scenario when the engines disagree
// with each other: one fails and the other does not, they fail with
// different error codes, or their rows differ after normalization.
// Numbers and booleans compare by numeric value and NULL equals a missing
// field.
//
// Scenarios whose features only one engine supports (relations,
// sub-selects) restrict the run with engines: [sqlite].
//
// RunWithGolden additionally snapshots the SQL the query renders to in
// every dialect.
package harness
