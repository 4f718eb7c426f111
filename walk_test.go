package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWalkIsLazy(t *testing.T) {
	root := NewNode("root")
	defer root.Release()
	for _, name := range []string{"a", "b", "c"} {
		c := NewNode(name)
		require.NoError(t, Attach(root, c))
		c.Release()
	}

	yields := 0
	for range Walk(root) {
		yields++
		break
	}
	assert.Equal(t, 1, yields, "breaking stops the walk immediately")
}

func TestWalkRestartsFresh(t *testing.T) {
	root := NewNode(1)
	defer root.Release()
	c := NewNode(2)
	require.NoError(t, Attach(root, c))
	c.Release()

	first, second := 0, 0
	for range Walk(root) {
		first++
	}
	for range Walk(root) {
		second++
	}
	assert.Equal(t, first, second, "a fresh call restarts from the root")
}

func TestWalkSnapshotUnaffectedByMidWalkDetach(t *testing.T) {
	root := NewNode("A")
	b := NewNode("B")
	c := NewNode("C")
	defer root.Release()
	defer b.Release()
	defer c.Release()

	require.NoError(t, Attach(root, b))
	require.NoError(t, Attach(root, c))

	var seen []string
	for h := range Walk(root) {
		v, err := Payload(h)
		require.NoError(t, err)
		seen = append(seen, v)
		if v == "B" {
			// A's child sequence was snapshotted when A was visited;
			// detaching C now must not hide it from this walk.
			require.NoError(t, Detach(c))
		}
	}
	assert.Equal(t, []string{"A", "B", "C"}, seen)

	seen = nil
	for h := range Walk(root) {
		v, _ := Payload(h)
		seen = append(seen, v)
	}
	assert.Equal(t, []string{"A", "B"}, seen, "a fresh walk observes the detach")
}

func TestWalkCloneToRetain(t *testing.T) {
	root := NewNode("A")
	defer root.Release()
	b := NewNode("B")
	require.NoError(t, Attach(root, b))
	b.Release()

	var kept *Ref[Node[string]]
	for h, depth := range Walk(root) {
		if depth == 1 {
			kept = h.Clone()
		}
	}
	require.NotNil(t, kept)
	v, err := Payload(kept)
	require.NoError(t, err)
	assert.Equal(t, "B", v)
	kept.Release()
}

func TestFindSurfacesBorrowConflicts(t *testing.T) {
	root := NewNode("A")
	b := NewNode("B")
	c := NewNode("C")
	defer root.Release()
	defer b.Release()
	defer c.Release()

	require.NoError(t, Attach(root, b))
	require.NoError(t, Attach(b, c))

	// A write borrow on B's child sequence makes part of the tree
	// unsearchable; Find must report that rather than a clean miss.
	g, err := b.Value().children.Write()
	require.NoError(t, err)

	h, err := Find(root, func(v string) bool { return v == "C" })
	assert.ErrorIs(t, err, ErrReadConflict)
	assert.Nil(t, h)

	// A match above the conflict is still returned.
	h, err = Find(root, func(v string) bool { return v == "B" })
	require.NoError(t, err)
	require.NotNil(t, h)
	h.Release()

	g.Release()
	h, err = Find(root, func(v string) bool { return v == "C" })
	require.NoError(t, err)
	require.NotNil(t, h)
	h.Release()
}

func TestFindSubtreeScoped(t *testing.T) {
	root := NewNode(1)
	left := NewNode(2)
	right := NewNode(3)
	defer root.Release()
	defer left.Release()
	defer right.Release()

	require.NoError(t, Attach(root, left))
	require.NoError(t, Attach(root, right))

	// Searching from left must not see right's payload.
	h, err := Find(left, func(v int) bool { return v == 3 })
	require.NoError(t, err)
	assert.Nil(t, h)

	h, err = Find(root, func(v int) bool { return v == 3 })
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Same(t, right.Value(), h.Value())
	h.Release()
}
