package arbor

import "sync"

// LibraryOptions configures a Library.
type LibraryOptions[V any] struct {
	// Teardown is applied to every tree opened through the library.
	Teardown func(V)
}

// Library manages a set of active trees sharing one configuration. Trees
// opened through a library deregister themselves when closed. The registry
// itself is safe for concurrent use; the trees it hands out are not.
type Library[V any] struct {
	mu          sync.RWMutex
	activeTrees map[string]*Tree[V]
	teardown    func(V)
	closed      bool
}

// Init initializes a library.
func Init[V any](options LibraryOptions[V]) (*Library[V], error) {
	return &Library[V]{
		activeTrees: make(map[string]*Tree[V]),
		teardown:    options.Teardown,
	}, nil
}

// Open creates a tree with a single root seeded from rootValue and
// registers it with the library.
func (lib *Library[V]) Open(rootValue V) (*Tree[V], error) {
	lib.mu.Lock()
	defer lib.mu.Unlock()

	if lib.closed {
		return nil, ErrClosed
	}

	t := NewWith(Options[V]{Teardown: lib.teardown})
	t.lib = lib
	t.roots = append(t.roots, NewNodeFunc(rootValue, t.teardown))

	lib.activeTrees[t.id] = t
	return t, nil
}

// Get returns the active tree with the given ID.
func (lib *Library[V]) Get(id string) (*Tree[V], error) {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	t, ok := lib.activeTrees[id]
	if !ok {
		return nil, ErrTreeNotFound
	}
	return t, nil
}

// Active returns the number of open trees.
func (lib *Library[V]) Active() int {
	lib.mu.RLock()
	defer lib.mu.RUnlock()
	return len(lib.activeTrees)
}

// TotalNodes returns the node count across all open trees.
func (lib *Library[V]) TotalNodes() int {
	lib.mu.RLock()
	defer lib.mu.RUnlock()

	total := 0
	for _, t := range lib.activeTrees {
		total += t.Len()
	}
	return total
}

// Close closes every open tree and rejects further Opens.
func (lib *Library[V]) Close() error {
	lib.mu.Lock()
	if lib.closed {
		lib.mu.Unlock()
		return nil
	}
	lib.closed = true
	trees := make([]*Tree[V], 0, len(lib.activeTrees))
	for _, t := range lib.activeTrees {
		t.lib = nil // trees must not call back into the locked registry
		trees = append(trees, t)
	}
	lib.activeTrees = nil
	lib.mu.Unlock()

	for _, t := range trees {
		t.Close()
	}
	return nil
}

// remove deregisters a tree; called by Tree.Close.
func (lib *Library[V]) remove(id string) {
	lib.mu.Lock()
	defer lib.mu.Unlock()
	delete(lib.activeTrees, id)
}
