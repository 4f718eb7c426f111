package arbor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visit struct {
	value string
	depth int
}

func collect(t *Tree[string]) []visit {
	var out []visit
	for h, depth := range t.Walk() {
		v, err := Payload(h)
		if err != nil {
			panic(err)
		}
		out = append(out, visit{v, depth})
	}
	return out
}

func TestTraversalOrder(t *testing.T) {
	tr := New("A")
	defer tr.Close()

	roots := tr.Roots()
	require.Len(t, roots, 1)
	a := roots[0]
	defer a.Release()

	b, err := tr.Insert(a, "B")
	require.NoError(t, err)
	defer b.Release()
	c, err := tr.Insert(a, "C")
	require.NoError(t, err)
	defer c.Release()

	assert.Equal(t, []visit{{"A", 0}, {"B", 1}, {"C", 1}}, collect(tr))

	d, err := tr.Insert(b, "D")
	require.NoError(t, err)
	defer d.Release()

	assert.Equal(t, []visit{{"A", 0}, {"B", 1}, {"D", 2}, {"C", 1}}, collect(tr),
		"pre-order: parent before children, left to right")
	require.NoError(t, tr.Audit())
}

func TestFindPreOrderFirstMatch(t *testing.T) {
	tr := New("top")
	defer tr.Close()
	roots := tr.Roots()
	a := roots[0]
	defer a.Release()

	left, _ := tr.Insert(a, "branch")
	defer left.Release()
	deep, _ := tr.Insert(left, "target")
	defer deep.Release()
	late, _ := tr.Insert(a, "target")
	defer late.Release()

	h, err := tr.Find(func(v string) bool { return v == "target" })
	require.NoError(t, err)
	require.NotNil(t, h)
	assert.Same(t, deep.Value(), h.Value(), "pre-order reaches the deep left match first")
	h.Release()

	miss, err := tr.Find(func(v string) bool { return v == "absent" })
	require.NoError(t, err)
	assert.Nil(t, miss)
}

func TestRemoveKeepsCallerHandle(t *testing.T) {
	tr := New("root")
	defer tr.Close()
	roots := tr.Roots()
	root := roots[0]
	defer root.Release()

	child, err := tr.Insert(root, "child")
	require.NoError(t, err)
	defer child.Release()
	grand, err := tr.Insert(child, "grand")
	require.NoError(t, err)
	defer grand.Release()

	require.Equal(t, 3, tr.Len())
	require.NoError(t, tr.Remove(child))
	assert.Equal(t, 1, tr.Len(), "removed subtree is no longer reachable")
	require.NoError(t, tr.Audit())

	// The handle is still valid: removal deleted the edge, not the node.
	v, err := Payload(child)
	require.NoError(t, err)
	assert.Equal(t, "child", v)

	p, err := ParentOf(child)
	require.NoError(t, err)
	assert.Nil(t, p)

	// The detached subtree is intact below its root.
	kids, err := ChildrenOf(child)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	releaseAll(kids)
}

func TestRemoveRoot(t *testing.T) {
	tr := NewWith(Options[string]{})
	defer tr.Close()

	r1, err := tr.AddRoot("r1")
	require.NoError(t, err)
	defer r1.Release()
	r2, err := tr.AddRoot("r2")
	require.NoError(t, err)
	defer r2.Release()

	require.NoError(t, tr.Remove(r1))
	assert.Equal(t, 1, tr.Len())

	v, err := Payload(r1)
	require.NoError(t, err)
	assert.Equal(t, "r1", v, "caller handle outlives root removal")
}

func TestMultipleRoots(t *testing.T) {
	tr := NewWith(Options[string]{})
	defer tr.Close()

	for _, name := range []string{"x", "y"} {
		h, err := tr.AddRoot(name)
		require.NoError(t, err)
		h.Release()
	}

	assert.Equal(t, []visit{{"x", 0}, {"y", 0}}, collect(tr))

	roots := tr.Roots()
	require.Len(t, roots, 2)
	for _, r := range roots {
		p, err := ParentOf(r)
		require.NoError(t, err)
		assert.Nil(t, p, "roots have no parent")
	}
	releaseAll(roots)
}

func TestCloseTeardownCascade(t *testing.T) {
	var order []string
	tr := NewWith(Options[string]{Teardown: func(v string) { order = append(order, v) }})

	a, err := tr.AddRoot("A")
	require.NoError(t, err)
	b, err := tr.Insert(a, "B")
	require.NoError(t, err)
	c, err := tr.Insert(a, "C")
	require.NoError(t, err)
	d, err := tr.Insert(b, "D")
	require.NoError(t, err)

	// Hand the caller handles back first; the structure keeps everything
	// alive through the tree's root handle.
	b.Release()
	c.Release()
	d.Release()
	a.Release()
	require.Empty(t, order)

	require.NoError(t, tr.Close())
	assert.Equal(t, []string{"D", "B", "C", "A"}, order)

	require.NoError(t, tr.Close(), "close is idempotent")
	assert.Len(t, order, 4, "hooks fire exactly once per node")
}

func TestClosedTreeRejectsMutation(t *testing.T) {
	tr := New("root")
	roots := tr.Roots()
	root := roots[0]
	defer root.Release()
	require.NoError(t, tr.Close())

	_, err := tr.Insert(root, "x")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = tr.AddRoot("y")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, tr.Remove(root), ErrClosed)
}

func TestAuditAfterEveryStructuralOp(t *testing.T) {
	tr := New("root")
	defer tr.Close()
	roots := tr.Roots()
	root := roots[0]
	defer root.Release()

	a, _ := tr.Insert(root, "a")
	defer a.Release()
	require.NoError(t, tr.Audit())

	b, _ := tr.Insert(a, "b")
	defer b.Release()
	require.NoError(t, tr.Audit())

	require.NoError(t, Reparent(b, root))
	require.NoError(t, tr.Audit())

	require.NoError(t, tr.Remove(a))
	require.NoError(t, tr.Audit())
}

func TestAuditDetectsMismatch(t *testing.T) {
	tr := New("root")
	defer tr.Close()
	roots := tr.Roots()
	root := roots[0]
	defer root.Release()

	// Corrupt the structure behind the API's back: a forward edge with no
	// matching back edge.
	orphan := NewNode("orphan")
	defer orphan.Release()
	root.Value().children.value = append(root.Value().children.value, orphan.Clone())

	assert.ErrorIs(t, tr.Audit(), ErrEdgeMismatch)
}

func TestStats(t *testing.T) {
	tr := New("root")
	defer tr.Close()
	roots := tr.Roots()
	root := roots[0]
	defer root.Release()

	a, _ := tr.Insert(root, "a")
	defer a.Release()
	b, _ := tr.Insert(a, "b")
	defer b.Release()
	c, _ := tr.Insert(root, "c")
	defer c.Release()

	stats := tr.Stats()
	assert.Equal(t, 4, stats.Nodes)
	assert.Equal(t, 2, stats.Leaves)
	assert.Equal(t, 2, stats.MaxDepth)

	empty := NewWith(Options[string]{})
	defer empty.Close()
	assert.Equal(t, TreeStats{Nodes: 0, Leaves: 0, MaxDepth: -1}, empty.Stats())
}

func TestTreeIDs(t *testing.T) {
	t1 := New("a")
	t2 := New("b")
	defer t1.Close()
	defer t2.Close()

	assert.NotEmpty(t, t1.ID())
	assert.NotEqual(t, t1.ID(), t2.ID())
}
