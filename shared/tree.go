package shared

import (
	"iter"
	"sync"

	"github.com/phroun/arbor"
)

// Options configures a Tree.
type Options[V any] struct {
	// Teardown is invoked exactly once per node created through the tree.
	Teardown func(V)
}

// Tree is the multi-threaded entry point. The root list is guarded by its
// own mutex; everything below the roots is synchronized per node by the
// cells inside each Node.
type Tree[V any] struct {
	mu       sync.Mutex
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
	return &Tree[V]{teardown: opts.Teardown}
}

// AddRoot creates a new parentless node owned by the tree and returns a
// cloned handle the caller releases.
func (t *Tree[V]) AddRoot(value V) (*Ref[Node[V]], error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, arbor.ErrClosed
	}
	h := NewNodeFunc(value, t.teardown)
	t.roots = append(t.roots, h)
	return h.Clone(), nil
}

// Roots returns cloned handles to the tree's roots; the caller releases
// them.
func (t *Tree[V]) Roots() []*Ref[Node[V]] {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]*Ref[Node[V]], len(t.roots))
	for i, r := range t.roots {
		out[i] = r.Clone()
	}
	return out
}

// Insert creates a node from value and attaches it under parent,
// returning the caller's handle to it.
func (t *Tree[V]) Insert(parent *Ref[Node[V]], value V) (*Ref[Node[V]], error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil, arbor.ErrClosed
	}
	teardown := t.teardown
	t.mu.Unlock()

	h := NewNodeFunc(value, teardown)
	if err := Attach(parent, h); err != nil {
		h.Release()
		return nil, err
	}
	return h, nil
}

// Remove detaches node from the structure; a tree root is dropped from the
// root list, anything else is detached from its parent. The caller's
// handle stays valid.
func (t *Tree[V]) Remove(node *Ref[Node[V]]) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return arbor.ErrClosed
	}
	n := node.Value()
	for i, r := range t.roots {
		if r.Value() == n {
			t.roots = append(t.roots[:i:i], t.roots[i+1:]...)
			t.mu.Unlock()
			r.Release()
			return nil
		}
	}
	t.mu.Unlock()

	Detach(node)
	return nil
}

// Find searches all roots in pre-order, left to right, returning a cloned
// handle to the first node whose payload satisfies pred, or (nil, false).
func (t *Tree[V]) Find(pred func(V) bool) (*Ref[Node[V]], bool) {
	var found *Ref[Node[V]]
	for h := range t.Walk() {
		if pred(Payload(h)) {
			found = h.Clone()
			break
		}
	}
	return found, found != nil
}

// Walk returns a lazy pre-order iterator over (node, depth) pairs. Each
// node's child sequence is snapshotted with cloned handles when the node
// is visited, so concurrently detached children remain alive and are still
// yielded for levels already snapshotted. Yielded handles are borrowed;
// clone to retain past the yield.
func (t *Tree[V]) Walk() iter.Seq2[*Ref[Node[V]], int] {
	return func(yield func(*Ref[Node[V]], int) bool) {
		cont := true
		for _, r := range t.Roots() {
			if cont {
				cont = walkFrom(r, 0, yield)
			}
			r.Release()
		}
	}
}

func walkFrom[V any](node *Ref[Node[V]], depth int, yield func(*Ref[Node[V]], int) bool) bool {
	if !yield(node, depth) {
		return false
	}
	cont := true
	for _, kid := range ChildrenOf(node) {
		if cont {
			cont = walkFrom(kid, depth+1, yield)
		}
		kid.Release()
	}
	return cont
}

// Len returns the number of nodes reachable from the roots.
func (t *Tree[V]) Len() int {
	n := 0
	for range t.Walk() {
		n++
	}
	return n
}

// Close releases the tree's root handles, cascading teardown. Idempotent.
func (t *Tree[V]) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	roots := t.roots
	t.roots = nil
	t.mu.Unlock()

	for _, r := range roots {
		r.Release()
	}
	return nil
}
