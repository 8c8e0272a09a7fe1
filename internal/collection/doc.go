// Package collection executes pdquery specs against in-memory rows.
//
// Filtering goes through a decision tree compiled once per call (package
// filter). Unordered results stream lazily; ordered results are sorted with
// a stable comparator and then paged. When the filter requires an equality
// or IN test on an indexed field, candidates come from the index instead of
// a full scan.
//
//	eng, _ := collection.New(rows, collection.WithIndexedBy("id"))
//	open, err := eng.Query().
//		Where("status", "open").
//		OrderBy("total", true).
//		SelectAll(ctx)
//
// Relations, projection and grouping are not applied; queryir.Validate
// reports queries that rely on them.
package collection
