// Package filter compiles where lists into decision trees for in-memory
// row filtering.
//
// A tree is a flat slice of nodes. Each node holds one leaf condition and
// two jumps: where to continue when the condition holds and where to
// continue when it does not. A jump is either another node or a final
// verdict (Accept, Reject).
//
// For `a AND b OR c`:
//
//	0: a  true→1  false→2
//	1: b  true→✓  false→2
//	2: c  true→✓  false→✗
//
// Evaluation visits at most MaxHops nodes per row.
package filter
