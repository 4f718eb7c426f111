package arbor

import (
	"iter"

	"github.com/google/uuid"
)

// Options configures a Tree.
type Options[V any] struct {
	// Teardown is invoked exactly once per node created through the tree,
	// when the node's strong count reaches zero. A node's hook fires only
	// after the hooks of all its children.
	Teardown func(V)
}

// Tree is the entry point to the structure. It owns its root nodes through
// strong handles; every other node is owned by its parent's child sequence
// plus whatever external handles callers retain.
//
// A Tree is not safe for concurrent use; the shared package provides the
// multi-threaded variant.
type Tree[V any] struct {
	id       string
	lib      *Library[V]
	roots    []*Ref[Node[V]]
	teardown func(V)
	closed   bool
}

// New creates a tree with a single root node seeded from rootValue.
func New[V any](rootValue V) *Tree[V] {
	t := NewWith(Options[V]{})
	t.roots = append(t.roots, NewNodeFunc(rootValue, t.teardown))
	return t
}

// NewWith creates an empty tree with the given options.
func NewWith[V any](opts Options[V]) *Tree[V] {
	return &Tree[V]{
		id:       uuid.NewString(),
		teardown: opts.Teardown,
	}
}

// ID returns the tree's unique identifier.
func (t *Tree[V]) ID() string {
	return t.id
}

// AddRoot creates a new parentless node owned by the tree and returns a
// handle to it. The caller releases the returned handle.
func (t *Tree[V]) AddRoot(value V) (*Ref[Node[V]], error) {
	if t.closed {
		return nil, ErrClosed
	}
	h := NewNodeFunc(value, t.teardown)
	t.roots = append(t.roots, h)
	return h.Clone(), nil
}

// Roots returns cloned handles to the tree's root nodes, in the order they
// were added. The caller releases them.
func (t *Tree[V]) Roots() []*Ref[Node[V]] {
	out := make([]*Ref[Node[V]], len(t.roots))
	for i, r := range t.roots {
		out[i] = r.Clone()
	}
	return out
}

// Insert creates a node from value and attaches it under parent. The
// returned handle belongs to the caller; the structural handle held by
// parent is separate, so releasing the returned handle does not detach the
// node.
func (t *Tree[V]) Insert(parent *Ref[Node[V]], value V) (*Ref[Node[V]], error) {
	if t.closed {
		return nil, ErrClosed
	}
	h := NewNodeFunc(value, t.teardown)
	if err := Attach(parent, h); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

// Remove detaches node from the structure. If node is one of the tree's
// roots the tree releases its owning handle; otherwise this is a plain
// Detach. The caller's handle stays valid either way — removal deletes the
// structural edge, not the node.
func (t *Tree[V]) Remove(node *Ref[Node[V]]) error {
	if t.closed {
		return ErrClosed
	}
	n := node.Value()
	for i, r := range t.roots {
		if r.Value() == n {
			t.roots = append(t.roots[:i:i], t.roots[i+1:]...)
			r.Release()
			return nil
		}
	}
	return Detach(node)
}

// Find searches all roots in pre-order, left to right, returning a cloned
// handle to the first node whose payload satisfies pred, or (nil, nil).
func (t *Tree[V]) Find(pred func(V) bool) (*Ref[Node[V]], error) {
	for _, r := range t.roots {
		h, err := Find(r, pred)
		if err != nil || h != nil {
			return h, err
		}
	}
	return nil, nil
}

// Walk returns a lazy pre-order iterator over every node reachable from
// the tree's roots, with each node's depth. The sequence is finite and not
// restartable; a fresh call restarts from the roots.
func (t *Tree[V]) Walk() iter.Seq2[*Ref[Node[V]], int] {
	roots := t.roots
	return func(yield func(*Ref[Node[V]], int) bool) {
		for _, r := range roots {
			if !walkFrom(r, 0, yield) {
				return
			}
		}
	}
}

// Len returns the number of nodes currently reachable from the roots.
func (t *Tree[V]) Len() int {
	n := 0
	for range t.Walk() {
		n++
	}
	return n
}

// Close releases the tree's root handles, triggering the depth-first
// teardown cascade for every subtree not kept alive by external handles.
// Close is the deterministic teardown trigger; it is idempotent.
func (t *Tree[V]) Close() error {
	if t.closed {
		return nil
	}
	t.closed = true
	for _, r := range t.roots {
		r.Release()
	}
	t.roots = nil
	if t.lib != nil {
		t.lib.remove(t.id)
		t.lib = nil
	}
	return nil
}

// Audit verifies forward/back edge consistency for every reachable node:
// each child's parent reference must upgrade to the node holding it, and
// each attached node must appear in its parent's child sequence. A
// non-nil result is a defect in mutation code, not a runtime condition.
func (t *Tree[V]) Audit() error {
	for h := range t.Walk() {
		n := h.Value()

		kg, err := n.children.Read()
		if err != nil {
			return err
		}
		kids := kg.Value()
		kg.Release()

		for _, kid := range kids {
			p, err := ParentOf(kid)
			if err != nil {
				return err
			}
			if p == nil {
				return ErrEdgeMismatch
			}
			same := p.Value() == n
			p.Release()
			if !same {
				return ErrEdgeMismatch
			}
		}

		p, err := ParentOf(h)
		if err != nil {
			return err
		}
		if p != nil {
			contained := false
			pk, err := p.Value().children.Read()
			if err != nil {
				p.Release()
				return err
			}
			for _, kid := range pk.Value() {
				if kid.Value() == n {
					contained = true
					break
				}
			}
			pk.Release()
			p.Release()
			if !contained {
				return ErrEdgeMismatch
			}
		}
	}
	return nil
}

// TreeStats describes the current shape of a tree.
type TreeStats struct {
	Nodes    int // nodes reachable from the roots
	Leaves   int // nodes with no children
	MaxDepth int // deepest node, roots at 0; -1 for an empty tree
}

// Stats walks the tree and reports its shape.
func (t *Tree[V]) Stats() TreeStats {
	stats := TreeStats{MaxDepth: -1}
	for h, depth := range t.Walk() {
		stats.Nodes++
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		if g, err := h.Value().children.Read(); err == nil {
			if len(g.Value()) == 0 {
				stats.Leaves++
			}
			g.Release()
		}
	}
	return stats
}
