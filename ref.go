package arbor

// block is the shared bookkeeping for one reference-counted value.
// The value is live while strong >= 1. The block itself stays reachable as
// long as any handle (strong or weak) points at it; reclaiming the block is
// the runtime's job, the library only maintains the counting discipline.
type block[T any] struct {
	value    T
	strong   int
	weak     int
	teardown func(*T)
	dead     bool // teardown has run and value has been cleared
}

// Ref is a strong, owning handle to a shared value. Cloning a Ref produces
// an independent handle aliasing the same value; the value is torn down
// exactly once, when the last strong handle is released.
//
// Handles are not safe for concurrent use; see the shared package for the
// atomic variant.
type Ref[T any] struct {
	b        *block[T]
	released bool
}

// Weak is a non-owning handle. It observes a value without keeping it
// alive and must be upgraded before the value can be used.
type Weak[T any] struct {
	b        *block[T]
	released bool
}

// NewRef creates a value with a single strong handle and no teardown hook.
func NewRef[T any](value T) *Ref[T] {
	return NewRefFunc(value, nil)
}

// NewRefFunc creates a value with a single strong handle. If teardown is
// non-nil it is invoked exactly once, when the strong count reaches zero,
// before the stored value is cleared.
func NewRefFunc[T any](value T, teardown func(*T)) *Ref[T] {
	return &Ref[T]{b: &block[T]{value: value, strong: 1, teardown: teardown}}
}

// Clone returns a new strong handle aliasing the same value.
func (r *Ref[T]) Clone() *Ref[T] {
	r.check()
	r.b.strong++
	return &Ref[T]{b: r.b}
}

// Release gives up this handle's ownership. When the last strong handle is
// released the teardown hook runs and the stored value is cleared so the
// runtime can reclaim anything it referenced. Any further use of this
// handle panics.
func (r *Ref[T]) Release() {
	r.check()
	r.released = true
	r.b.strong--
	if r.b.strong > 0 {
		return
	}
	r.b.dead = true
	if td := r.b.teardown; td != nil {
		td(&r.b.value)
	}
	var zero T
	r.b.value = zero
}

// Downgrade returns a weak handle to the same value without extending its
// lifetime.
func (r *Ref[T]) Downgrade() *Weak[T] {
	r.check()
	r.b.weak++
	return &Weak[T]{b: r.b}
}

// Value returns a pointer to the shared value. The pointer remains valid
// for as long as any strong handle exists.
func (r *Ref[T]) Value() *T {
	r.check()
	return &r.b.value
}

// StrongCount reports the number of live strong handles.
func (r *Ref[T]) StrongCount() int {
	r.check()
	return r.b.strong
}

// WeakCount reports the number of live weak handles.
func (r *Ref[T]) WeakCount() int {
	r.check()
	return r.b.weak
}

func (r *Ref[T]) check() {
	if r.released {
		panic("arbor: use of released Ref")
	}
}

// Upgrade attempts to produce a strong handle. It fails if the value has
// already been torn down; this is the only mechanism by which staleness is
// detected, and failure is an expected condition, not an error.
func (w *Weak[T]) Upgrade() (*Ref[T], bool) {
	w.check()
	if w.b.strong == 0 {
		return nil, false
	}
	w.b.strong++
	return &Ref[T]{b: w.b}, true
}

// Release gives up this weak handle. Any further use of the handle panics.
func (w *Weak[T]) Release() {
	w.check()
	w.released = true
	w.b.weak--
}

// StrongCount reports the number of live strong handles to the target.
// Zero means the target has been torn down.
func (w *Weak[T]) StrongCount() int {
	w.check()
	return w.b.strong
}

// WeakCount reports the number of live weak handles to the target.
func (w *Weak[T]) WeakCount() int {
	w.check()
	return w.b.weak
}

func (w *Weak[T]) check() {
	if w.released {
		panic("arbor: use of released Weak")
	}
}
