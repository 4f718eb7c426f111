package arbor

import "iter"

// Walk returns a lazy pre-order iterator over the subtree rooted at root,
// yielding each node's handle together with its depth (root is depth 0).
// Each node's child sequence is snapshotted with cloned handles when the
// node is visited, so structural mutations made mid-iteration are not
// observed for levels already snapshotted. Yielded handles are borrowed;
// clone any handle that must outlive its yield.
func Walk[V any](root *Ref[Node[V]]) iter.Seq2[*Ref[Node[V]], int] {
	return func(yield func(*Ref[Node[V]], int) bool) {
		walkFrom(root, 0, yield)
	}
}

func walkFrom[V any](node *Ref[Node[V]], depth int, yield func(*Ref[Node[V]], int) bool) bool {
	if !yield(node, depth) {
		return false
	}

	// A borrow conflict here means the caller is mutating the node it is
	// standing on; stop rather than observe a torn view.
	kids, err := ChildrenOf(node)
	if err != nil {
		return false
	}

	cont := true
	for _, kid := range kids {
		if cont {
			cont = walkFrom(kid, depth+1, yield)
		}
		kid.Release()
	}
	return cont
}

// Find searches the subtree rooted at root in pre-order, left to right,
// and returns a cloned handle to the first node whose payload satisfies
// pred, or (nil, nil) if there is none. The caller releases the handle.
// Unlike Walk, Find does not truncate on a borrow conflict: a conflict on
// any payload or child sequence it would have examined is returned, so a
// nil result always means the whole subtree was searched.
func Find[V any](root *Ref[Node[V]], pred func(V) bool) (*Ref[Node[V]], error) {
	v, err := Payload(root)
	if err != nil {
		return nil, err
	}
	if pred(v) {
		return root.Clone(), nil
	}

	kids, err := ChildrenOf(root)
	if err != nil {
		return nil, err
	}

	var (
		found   *Ref[Node[V]]
		findErr error
	)
	for _, kid := range kids {
		if found == nil && findErr == nil {
			found, findErr = Find(kid, pred)
		}
		kid.Release()
	}
	return found, findErr
}
