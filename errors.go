// Package arbor provides a dynamic tree of reference-counted nodes in which
// children are strongly owned by their parent and parents are referenced
// weakly by their children, so parent/child cycles never prevent reclamation.
// Node state is mutated through runtime-checked borrow cells, allowing
// mutation through shared handles.
package arbor

import "errors"

// Borrow errors
var (
	// ErrReadConflict indicates that a read was requested while a write
	// guard is outstanding on the same cell.
	ErrReadConflict = errors.New("cell is write-borrowed")

	// ErrWriteConflict indicates that a write was requested while any
	// guard (read or write) is outstanding on the same cell.
	ErrWriteConflict = errors.New("cell is already borrowed")
)

// Structural errors
var (
	// ErrAlreadyAttached indicates that the child already has a live parent.
	// It must be detached before it can be attached elsewhere.
	ErrAlreadyAttached = errors.New("node is already attached to a parent")

	// ErrSelfAttach indicates an attempt to attach a node underneath itself.
	ErrSelfAttach = errors.New("node cannot be its own parent")

	// ErrCycle indicates an attempt to attach a node underneath one of its
	// own descendants, which would make it its own transitive ancestor.
	ErrCycle = errors.New("attach would create an ancestry cycle")

	// ErrEdgeMismatch indicates that a parent's child sequence and a child's
	// parent reference disagree. This is a defect in mutation code, not a
	// recoverable runtime condition; it is only produced by Audit.
	ErrEdgeMismatch = errors.New("forward/back edge mismatch")
)

// Lifecycle errors
var (
	// ErrClosed indicates that the Tree or Library has been closed.
	ErrClosed = errors.New("already closed")

	// ErrTreeNotFound indicates that no tree with the given ID is registered.
	ErrTreeNotFound = errors.New("tree not found")
)
