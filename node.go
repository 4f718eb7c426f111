package arbor

// Node is one element of the ownership tree. Children are held through
// strong handles in insertion order; the parent is held through a weak
// handle so that the parent/child reference cycle never keeps either side
// alive. All three fields are borrow-checked cells, so a node can be
// mutated through any shared handle to it.
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

// NewNodeFunc creates a detached node whose hook is invoked once, with the
// node's payload, when the node is torn down.
func NewNodeFunc[V any](value V, hook func(V)) *Ref[Node[V]] {
	n := Node[V]{hook: hook}
	n.payload.value = value
	return NewRefFunc(n, (*Node[V]).teardown)
}

// teardown runs when the last strong handle to the node is released. The
// node is unreachable at that point, so no guards can be outstanding and
// the cells are accessed directly. Child handles are released first, which
// cascades depth-first; the hook therefore fires only after every
// descendant's hook has fired.
func (n *Node[V]) teardown() {
	kids := n.children.value
	n.children.value = nil
	for _, kid := range kids {
		kid.Release()
	}
	if w := n.parent.value; w != nil {
		n.parent.value = nil
		w.Release()
	}
	if n.hook != nil {
		n.hook(n.payload.value)
	}
}

// Attach appends child to parent's child sequence and points child's weak
// parent reference back at parent. The child must currently be detached;
// attaching an attached child fails with ErrAlreadyAttached rather than
// silently reparenting, and attaching a node under one of its own
// descendants fails with ErrCycle. On any failure both nodes are left
// unchanged.
func Attach[V any](parent, child *Ref[Node[V]]) error {
	p := parent.Value()
	c := child.Value()
	if p == c {
		return ErrSelfAttach
	}

	pg, err := c.parent.Write()
	if err != nil {
		return err
	}
	defer pg.Release()

	if w := *pg.Value(); w != nil {
		if cur, ok := w.Upgrade(); ok {
			cur.Release()
			return ErrAlreadyAttached
		}
		// The old parent was destroyed independently; the stale weak
		// reference is equivalent to being detached.
		w.Release()
		*pg.Value() = nil
	}

	if ok, err := inAncestry(parent, c); err != nil {
		return err
	} else if ok {
		return ErrCycle
	}

	kg, err := p.children.Write()
	if err != nil {
		return err
	}
	defer kg.Release()

	*kg.Value() = append(*kg.Value(), child.Clone())
	*pg.Value() = parent.Downgrade()
	return nil
}

// Detach removes child from its parent's child sequence and clears its
// parent reference. Detaching a node that has no parent is a no-op.
// Detachment alone never destroys the node: the caller's handle (and any
// other strong handle) keeps it alive.
func Detach[V any](child *Ref[Node[V]]) error {
	c := child.Value()

	pg, err := c.parent.Write()
	if err != nil {
		return err
	}
	defer pg.Release()

	w := *pg.Value()
	if w == nil {
		return nil
	}

	if parentRef, ok := w.Upgrade(); ok {
		defer parentRef.Release()

		kg, err := parentRef.Value().children.Write()
		if err != nil {
			return err
		}
		defer kg.Release()

		kids := *kg.Value()
		for i, kid := range kids {
			if kid.Value() != c {
				continue
			}
			// Build a fresh sequence so snapshots taken earlier keep
			// their contents.
			next := make([]*Ref[Node[V]], 0, len(kids)-1)
			next = append(next, kids[:i]...)
			next = append(next, kids[i+1:]...)
			*kg.Value() = next
			kid.Release()
			break
		}
	}

	w.Release()
	*pg.Value() = nil
	return nil
}

// inAncestry reports whether target appears in start's ancestor chain,
// start itself included. Each node in the chain is compared before its
// parent cell is read, so the chain walk never touches target's own cells.
func inAncestry[V any](start *Ref[Node[V]], target *Node[V]) (bool, error) {
	if start.Value() == target {
		return true, nil
	}
	cur, err := ParentOf(start)
	if err != nil {
		return false, err
	}
	for cur != nil {
		if cur.Value() == target {
			cur.Release()
			return true, nil
		}
		next, err := ParentOf(cur)
		cur.Release()
		if err != nil {
			return false, err
		}
		cur = next
	}
	return false, nil
}

// Reparent moves child under newParent: a detach followed by an attach, so
// the forward/back edge invariant holds before and after each step. Moving
// a node under one of its own descendants fails with ErrCycle before the
// detach, leaving the child where it was.
func Reparent[V any](child, newParent *Ref[Node[V]]) error {
	if newParent.Value() == child.Value() {
		return ErrSelfAttach
	}
	if ok, err := inAncestry(newParent, child.Value()); err != nil {
		return err
	} else if ok {
		return ErrCycle
	}
	if err := Detach(child); err != nil {
		return err
	}
	return Attach(newParent, child)
}

// ChildrenOf returns a snapshot of node's children in insertion order, as
// cloned strong handles. The snapshot does not observe later structural
// mutations. The caller releases the returned handles.
func ChildrenOf[V any](node *Ref[Node[V]]) ([]*Ref[Node[V]], error) {
	g, err := node.Value().children.Read()
	if err != nil {
		return nil, err
	}
	defer g.Release()

	kids := g.Value()
	out := make([]*Ref[Node[V]], len(kids))
	for i, kid := range kids {
		out[i] = kid.Clone()
	}
	return out, nil
}

// ParentOf upgrades node's weak parent reference. It returns (nil, nil)
// when the node is a root, and also when the parent has been destroyed
// independently of the attach/detach protocol.
func ParentOf[V any](node *Ref[Node[V]]) (*Ref[Node[V]], error) {
	g, err := node.Value().parent.Read()
	if err != nil {
		return nil, err
	}
	defer g.Release()

	w := g.Value()
	if w == nil {
		return nil, nil
	}
	p, ok := w.Upgrade()
	if !ok {
		return nil, nil
	}
	return p, nil
}

// Mutate applies f to the node's payload under a write guard.
func Mutate[V any](node *Ref[Node[V]], f func(*V)) error {
	g, err := node.Value().payload.Write()
	if err != nil {
		return err
	}
	defer g.Release()

	f(g.Value())
	return nil
}

// Payload returns a copy of the node's payload under a read guard.
func Payload[V any](node *Ref[Node[V]]) (V, error) {
	g, err := node.Value().payload.Read()
	if err != nil {
		var zero V
		return zero, err
	}
	defer g.Release()

	return g.Value(), nil
}
