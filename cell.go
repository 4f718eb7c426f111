package arbor

// Cell wraps a value with a runtime-checked borrow flag, allowing mutation
// through shared handles. At any moment a cell has either any number of
// active read guards or exactly one active write guard, never both; a
// conflicting acquisition fails at the point of the attempt.
type Cell[T any] struct {
	value   T
	readers int
	writing bool
}

// NewCell creates a cell holding value.
func NewCell[T any](value T) *Cell[T] {
	return &Cell[T]{value: value}
}

// Read acquires shared, immutable access. It fails with ErrReadConflict if
// a write guard is outstanding.
func (c *Cell[T]) Read() (*ReadGuard[T], error) {
	if c.writing {
		return nil, ErrReadConflict
	}
	c.readers++
	return &ReadGuard[T]{cell: c}, nil
}

// Write acquires exclusive, mutable access. It fails with ErrWriteConflict
// if any guard is outstanding.
func (c *Cell[T]) Write() (*WriteGuard[T], error) {
	if c.writing || c.readers > 0 {
		return nil, ErrWriteConflict
	}
	c.writing = true
	return &WriteGuard[T]{cell: c}, nil
}

// ReadGuard is scoped immutable access to a cell's value.
type ReadGuard[T any] struct {
	cell *Cell[T]
	done bool
}

// Value returns a copy of the guarded value.
func (g *ReadGuard[T]) Value() T {
	if g.done {
		panic("arbor: use of released ReadGuard")
	}
	return g.cell.value
}

// Release ends the borrow. Release is idempotent so it can be deferred
// unconditionally and still called early on some paths.
func (g *ReadGuard[T]) Release() {
	if g.done {
		return
	}
	g.done = true
	g.cell.readers--
}

// WriteGuard is scoped mutable access to a cell's value.
type WriteGuard[T any] struct {
	cell *Cell[T]
	done bool
}

// Value returns a pointer to the guarded value, valid until Release.
func (g *WriteGuard[T]) Value() *T {
	if g.done {
		panic("arbor: use of released WriteGuard")
	}
	return &g.cell.value
}

// Set replaces the guarded value.
func (g *WriteGuard[T]) Set(value T) {
	*g.Value() = value
}

// Release ends the borrow. Idempotent.
func (g *WriteGuard[T]) Release() {
	if g.done {
		return
	}
	g.done = true
	g.cell.writing = false
}
