package filter

import (
	"github.com/enquinity/pdquery/internal/ir"
	"github.com/enquinity/pdquery/internal/queryir"
)

// Terminal outcomes of a node. Non-negative outcomes are node indexes.
const (
	Accept = -1
	Reject = -2
)

// MaxHops bounds the number of nodes visited while evaluating one row.
// A correctly built tree never reaches it; when it does the row is rejected.
const MaxHops = 100

// Node is one decision of the tree: evaluate Cond, then continue at OnTrue
// or OnFalse (a node index, Accept or Reject).
type Node struct {
	Cond    queryir.Condition
	Field   string // resolved row field (the key field for key conditions)
	OnTrue  int
	OnFalse int

	match matcher
}

// Tree is a compiled where list. It is immutable and safe for concurrent
// use once built.
type Tree struct {
	nodes []Node
}

// Option configures Compile.
type Option func(*options)

type options struct {
	keyField string
}

// WithKeyField sets the row field that key conditions compare against.
// The default is "id".
func WithKeyField(field string) Option {
	return func(o *options) { o.keyField = field }
}

// Compile turns a where list into a decision tree.
//
// AND binds tighter than OR. Nested groups are spliced into the enclosing
// list's bookkeeping rather than evaluated as a parenthesized unit, so a
// group containing OR that follows other conditions can accept rows a fully
// parenthesized evaluation would reject. Empty groups are skipped.
//
// Compile fails with UNSUPPORTED_OPERATOR for an unknown operator and with
// UNSUPPORTED_VALUE for values it cannot evaluate in memory (sub-selects,
// non-text LIKE patterns).
func Compile(conds []queryir.Condition, opts ...Option) (*Tree, error) {
	o := options{keyField: "id"}
	for _, opt := range opts {
		opt(&o)
	}

	b := &builder{}
	b.process(conds)

	for i := range b.nodes {
		n := &b.nodes[i]
		n.Field = n.Cond.Field
		if n.Cond.IsKey {
			n.Field = o.keyField
		}
		m, err := compileLeaf(n.Field, n.Cond.Op, n.Cond.Value)
		if err != nil {
			return nil, err
		}
		n.match = m
	}
	return &Tree{nodes: b.nodes}, nil
}

type builder struct {
	nodes []Node
}

// process appends the leaves of conds. segmentStart is where the current OR
// segment began; andFrom is where the current AND chain began.
func (b *builder) process(conds []queryir.Condition) {
	segmentStart := len(b.nodes)
	andFrom := segmentStart
	for _, c := range conds {
		if c.IsGroup() && countLeaves(c.Group) == 0 {
			continue
		}
		next := len(b.nodes)
		if c.Join == queryir.Or {
			for i := segmentStart; i < len(b.nodes); i++ {
				if b.nodes[i].OnFalse == Reject {
					b.nodes[i].OnFalse = next
				}
			}
			andFrom = next
		} else {
			for i := andFrom; i < len(b.nodes); i++ {
				if b.nodes[i].OnTrue == Accept {
					b.nodes[i].OnTrue = next
				}
			}
		}
		if c.IsGroup() {
			b.process(c.Group)
			continue
		}
		b.nodes = append(b.nodes, Node{Cond: c, OnTrue: Accept, OnFalse: Reject})
	}
}

func countLeaves(conds []queryir.Condition) int {
	n := 0
	for _, c := range conds {
		if c.IsGroup() {
			n += countLeaves(c.Group)
		} else {
			n++
		}
	}
	return n
}

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Nodes returns a copy of the nodes, for inspection.
func (t *Tree) Nodes() []Node {
	out := make([]Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Match evaluates the tree against a row. An empty tree accepts every row.
func (t *Tree) Match(row ir.Row) bool {
	if len(t.nodes) == 0 {
		return true
	}
	pos := 0
	for hop := 0; hop < MaxHops; hop++ {
		n := &t.nodes[pos]
		v, _ := row.Get(n.Field)
		next := n.OnFalse
		if n.match.test(v) {
			next = n.OnTrue
		}
		switch {
		case next == Accept:
			return true
		case next == Reject, next < 0, next >= len(t.nodes):
			return false
		}
		pos = next
	}
	return false
}

// IndexLookup reports whether every accepted row must satisfy an equality
// or IN test on a single field, which lets a caller narrow candidates with
// an index. It returns the field and the accepted values.
func (t *Tree) IndexLookup() (field string, values []any, ok bool) {
	if len(t.nodes) == 0 {
		return "", nil, false
	}
	root := t.nodes[0]
	if root.OnFalse != Reject {
		return "", nil, false
	}
	switch root.match.op {
	case queryir.OpEq:
		return root.Field, []any{root.match.value}, true
	case queryir.OpIn:
		return root.Field, root.match.values, true
	}
	return "", nil, false
}
