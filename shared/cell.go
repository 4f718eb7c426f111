package shared

import (
	"sync"

	"github.com/phroun/arbor"
)

// Cell wraps a value with a reader/writer lock. Read and Write block the
// calling goroutine until the lock is available, with no implicit timeout;
// TryRead and TryWrite surface conflicts immediately instead, using the
// same sentinels as the single-threaded variant.
type Cell[T any] struct {
	mu    sync.RWMutex
	value T
}

// NewCell creates a cell holding value.
func NewCell[T any](value T) *Cell[T] {
	return &Cell[T]{value: value}
}

// Read acquires shared access, blocking while a write guard is held.
func (c *Cell[T]) Read() *ReadGuard[T] {
	c.mu.RLock()
	return &ReadGuard[T]{cell: c}
}

// TryRead acquires shared access or fails with ErrReadConflict.
func (c *Cell[T]) TryRead() (*ReadGuard[T], error) {
	if !c.mu.TryRLock() {
		return nil, arbor.ErrReadConflict
	}
	return &ReadGuard[T]{cell: c}, nil
}

// Write acquires exclusive access, blocking while any guard is held.
func (c *Cell[T]) Write() *WriteGuard[T] {
	c.mu.Lock()
	return &WriteGuard[T]{cell: c}
}

// TryWrite acquires exclusive access or fails with ErrWriteConflict.
func (c *Cell[T]) TryWrite() (*WriteGuard[T], error) {
	if !c.mu.TryLock() {
		return nil, arbor.ErrWriteConflict
	}
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
		panic("shared: use of released ReadGuard")
	}
	return g.cell.value
}

// Release ends the borrow. Idempotent.
func (g *ReadGuard[T]) Release() {
	if g.done {
		return
	}
	g.done = true
	g.cell.mu.RUnlock()
}

// WriteGuard is scoped mutable access to a cell's value.
type WriteGuard[T any] struct {
	cell *Cell[T]
	done bool
}

// Value returns a pointer to the guarded value, valid until Release.
func (g *WriteGuard[T]) Value() *T {
	if g.done {
		panic("shared: use of released WriteGuard")
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
	g.cell.mu.Unlock()
}
