// Package shared is the multi-threaded variant of arbor: reference counts
// are atomic, cells are backed by reader/writer locks, and structural
// operations hold the write lock of the node whose child sequence they
// mutate for the duration of the edit. There is no global lock; each node
// is an independent synchronization domain.
//
// A single handle may be shared between goroutines, but Release on a
// handle must not race with other uses of that same handle; clone the
// handle instead and release each clone independently.
package shared

import "sync/atomic"

// block is the shared bookkeeping for one reference-counted value.
type block[T any] struct {
	value    T
	strong   atomic.Int64
	weak     atomic.Int64
	teardown func(*T)
}

// Ref is a strong, owning handle to a shared value. Clone, Release,
// Downgrade and Upgrade are safe to call concurrently from multiple
// goroutines holding their own handles.
type Ref[T any] struct {
	b        *block[T]
	released atomic.Bool
}

// Weak is a non-owning handle to a shared value.
type Weak[T any] struct {
	b        *block[T]
	released atomic.Bool
}

// NewRef creates a value with a single strong handle and no teardown hook.
func NewRef[T any](value T) *Ref[T] {
	return NewRefFunc(value, nil)
}

// NewRefFunc creates a value with a single strong handle. teardown runs
// exactly once, on the goroutine that releases the last strong handle.
func NewRefFunc[T any](value T, teardown func(*T)) *Ref[T] {
	b := &block[T]{value: value, teardown: teardown}
	b.strong.Store(1)
	return &Ref[T]{b: b}
}

// Clone returns a new strong handle aliasing the same value.
func (r *Ref[T]) Clone() *Ref[T] {
	r.check()
	r.b.strong.Add(1)
	return &Ref[T]{b: r.b}
}

// Release gives up this handle's ownership. The goroutine that drops the
// strong count to zero runs the teardown hook and clears the value; no
// other goroutine can reach the value at that point, because Upgrade never
// resurrects a zero count.
func (r *Ref[T]) Release() {
	r.check()
	r.released.Store(true)
	if r.b.strong.Add(-1) > 0 {
		return
	}
	if td := r.b.teardown; td != nil {
		td(&r.b.value)
	}
	var zero T
	r.b.value = zero
}

// Downgrade returns a weak handle to the same value.
func (r *Ref[T]) Downgrade() *Weak[T] {
	r.check()
	r.b.weak.Add(1)
	return &Weak[T]{b: r.b}
}

// Value returns a pointer to the shared value, valid while any strong
// handle exists.
func (r *Ref[T]) Value() *T {
	r.check()
	return &r.b.value
}

// StrongCount reports the number of live strong handles. The value is a
// snapshot; under concurrent mutation it may be stale by the time it is
// observed.
func (r *Ref[T]) StrongCount() int {
	r.check()
	return int(r.b.strong.Load())
}

// WeakCount reports the number of live weak handles.
func (r *Ref[T]) WeakCount() int {
	r.check()
	return int(r.b.weak.Load())
}

func (r *Ref[T]) check() {
	if r.released.Load() {
		panic("shared: use of released Ref")
	}
}

// Upgrade attempts to produce a strong handle, failing if the value has
// been torn down. The increment-from-nonzero is a compare-and-swap loop so
// a concurrent final Release can never be resurrected.
func (w *Weak[T]) Upgrade() (*Ref[T], bool) {
	w.check()
	for {
		n := w.b.strong.Load()
		if n == 0 {
			return nil, false
		}
		if w.b.strong.CompareAndSwap(n, n+1) {
			return &Ref[T]{b: w.b}, true
		}
	}
}

// Release gives up this weak handle.
func (w *Weak[T]) Release() {
	w.check()
	w.released.Store(true)
	w.b.weak.Add(-1)
}

// StrongCount reports the number of live strong handles to the target.
func (w *Weak[T]) StrongCount() int {
	w.check()
	return int(w.b.strong.Load())
}

func (w *Weak[T]) check() {
	if w.released.Load() {
		panic("shared: use of released Weak")
	}
}
