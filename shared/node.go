package shared

import (
	"sync"

	"github.com/phroun/arbor"
)

// attachMu serializes attaches across the package. An attach inspects the
// prospective parent's ancestor chain while holding the child's parent
// cell write lock; two concurrent attaches walking toward each other's
// held cells would deadlock without this ordering.
var attachMu sync.Mutex

// Node is the multi-threaded counterpart of arbor.Node. Structural
// invariants are identical: children owned strongly in insertion order,
// parent referenced weakly. Every structural operation locks the child's
// parent cell and then, if needed, the parent's children cell; all
// operations follow that acquisition order, so no two of them can
// deadlock against each other.
type Node[V any] struct {
	payload  Cell[V]
	children Cell[[]*Ref[Node[V]]]
	parent   Cell[*Weak[Node[V]]]
	hook     func(V)
}

// NewNode creates a detached node: empty children, no parent.
func NewNode[V any](value V) *Ref[Node[V]] {
	return NewNodeFunc(value, nil)
}

// NewNodeFunc creates a detached node whose hook runs once at teardown.
func NewNodeFunc[V any](value V, hook func(V)) *Ref[Node[V]] {
	n := Node[V]{hook: hook}
	n.payload.value = value
	return NewRefFunc(n, (*Node[V]).teardown)
}

// teardown runs on the goroutine that released the last strong handle.
// Children are released first, so hooks fire in post-order.
func (n *Node[V]) teardown() {
	kg := n.children.Write()
	kids := *kg.Value()
	*kg.Value() = nil
	kg.Release()

	for _, kid := range kids {
		kid.Release()
	}

	pg := n.parent.Write()
	if w := *pg.Value(); w != nil {
		*pg.Value() = nil
		w.Release()
	}
	pg.Release()

	if n.hook != nil {
		n.hook(n.payload.value)
	}
}

// Attach appends child to parent's child sequence and points child's weak
// parent reference back at parent. Both edges are updated while both
// locks are held, so no other goroutine can observe one edge without the
// other. Fails with ErrAlreadyAttached if child already has a live parent
// and with ErrCycle if parent is a descendant of child.
func Attach[V any](parent, child *Ref[Node[V]]) error {
	p := parent.Value()
	c := child.Value()
	if p == c {
		return arbor.ErrSelfAttach
	}

	attachMu.Lock()
	defer attachMu.Unlock()

	pg := c.parent.Write()
	defer pg.Release()

	if w := *pg.Value(); w != nil {
		if cur, ok := w.Upgrade(); ok {
			cur.Release()
			return arbor.ErrAlreadyAttached
		}
		w.Release()
		*pg.Value() = nil
	}

	if inAncestry(parent, c) {
		return arbor.ErrCycle
	}

	kg := p.children.Write()
	defer kg.Release()

	*kg.Value() = append(*kg.Value(), child.Clone())
	*pg.Value() = parent.Downgrade()
	return nil
}

// Detach removes child from its parent's child sequence and clears its
// parent reference. Detaching a parentless node is a no-op.
func Detach[V any](child *Ref[Node[V]]) {
	c := child.Value()

	pg := c.parent.Write()
	defer pg.Release()

	w := *pg.Value()
	if w == nil {
		return
	}

	if parentRef, ok := w.Upgrade(); ok {
		kg := parentRef.Value().children.Write()
		kids := *kg.Value()
		for i, kid := range kids {
			if kid.Value() != c {
				continue
			}
			next := make([]*Ref[Node[V]], 0, len(kids)-1)
			next = append(next, kids[:i]...)
			next = append(next, kids[i+1:]...)
			*kg.Value() = next
			kid.Release()
			break
		}
		kg.Release()
		parentRef.Release()
	}

	w.Release()
	*pg.Value() = nil
}

// inAncestry reports whether target appears in start's ancestor chain,
// start itself included. Each node is compared before its parent cell is
// read, so the walk never touches target's own cells; the upgraded handle
// to the current ancestor is held across the read, keeping it alive.
func inAncestry[V any](start *Ref[Node[V]], target *Node[V]) bool {
	if start.Value() == target {
		return true
	}
	cur, ok := ParentOf(start)
	for ok {
		if cur.Value() == target {
			cur.Release()
			return true
		}
		next, nok := ParentOf(cur)
		cur.Release()
		cur, ok = next, nok
	}
	return false
}

// Reparent moves child under newParent: a detach followed by an attach.
// Each step leaves the forward/back edges consistent; other goroutines may
// observe the intermediate detached state, and a move rejected with
// ErrCycle leaves the child detached.
func Reparent[V any](child, newParent *Ref[Node[V]]) error {
	if newParent.Value() == child.Value() {
		return arbor.ErrSelfAttach
	}
	Detach(child)
	return Attach(newParent, child)
}

// ChildrenOf returns a snapshot of node's children in insertion order, as
// cloned strong handles the caller releases. The clones keep the children
// alive even if they are concurrently detached.
func ChildrenOf[V any](node *Ref[Node[V]]) []*Ref[Node[V]] {
	g := node.Value().children.Read()
	defer g.Release()

	kids := g.Value()
	out := make([]*Ref[Node[V]], len(kids))
	for i, kid := range kids {
		out[i] = kid.Clone()
	}
	return out
}

// ParentOf upgrades node's weak parent reference; false for roots and for
// parents that were destroyed independently.
func ParentOf[V any](node *Ref[Node[V]]) (*Ref[Node[V]], bool) {
	g := node.Value().parent.Read()
	defer g.Release()

	w := g.Value()
	if w == nil {
		return nil, false
	}
	return w.Upgrade()
}

// Mutate applies f to the node's payload under the write lock.
func Mutate[V any](node *Ref[Node[V]], f func(*V)) {
	g := node.Value().payload.Write()
	defer g.Release()
	f(g.Value())
}

// Payload returns a copy of the node's payload under the read lock.
func Payload[V any](node *Ref[Node[V]]) V {
	g := node.Value().payload.Read()
	defer g.Release()
	return g.Value()
}
