package resource

import (
	"sync"
)

// UnifiedTable implements the Table interface using a LocalBackend for storage.
type UnifiedTable struct {
	backend   *LocalBackend
	observers []Observer
	obsMu     sync.RWMutex
	closed    bool
	closeMu   sync.RWMutex
}

var _ Table = (*UnifiedTable)(nil)

// NewTable creates a new unified table with a LocalBackend.
func NewTable() *UnifiedTable {
	return &UnifiedTable{
		backend: NewLocalBackend(),
	}
}

// Insert adds a value and returns its handle.
// Returns 0 once the table is closed.
func (t *UnifiedTable) Insert(kind Kind, value any) Handle {
	t.closeMu.RLock()
	if t.closed {
		t.closeMu.RUnlock()
		return 0
	}
	t.closeMu.RUnlock()

	handle, err := t.backend.Create(kind, value)
	if err != nil {
		return 0
	}

	t.notify(Event{
		Type:   EventCreated,
		Handle: handle,
		Kind:   kind,
		Value:  value,
	})

	return handle
}

// Get retrieves a value by handle.
func (t *UnifiedTable) Get(handle Handle) (any, bool) {
	return t.backend.Get(handle)
}

// GetTyped retrieves a value only if it matches the expected kind.
func (t *UnifiedTable) GetTyped(handle Handle, kind Kind) (any, bool) {
	actual, ok := t.backend.KindOf(handle)
	if !ok || actual != kind {
		return nil, false
	}
	return t.backend.Get(handle)
}

// Contains reports whether handle still names a live entry.
func (t *UnifiedTable) Contains(handle Handle) bool {
	_, ok := t.backend.KindOf(handle)
	return ok
}

// Remove drops a resource and returns (value, true) if found.
// Borrowed resources are not removed.
func (t *UnifiedTable) Remove(handle Handle) (any, bool) {
	kind, _ := t.backend.KindOf(handle)
	value, ok := t.backend.Drop(handle)
	if !ok {
		return nil, false
	}

	if d, ok := value.(Dropper); ok {
		d.Drop()
	}

	t.notify(Event{
		Type:   EventDropped,
		Handle: handle,
		Kind:   kind,
		Value:  value,
	})

	return value, true
}

// Borrow pins handle until ReturnBorrow is called.
func (t *UnifiedTable) Borrow(handle Handle) bool {
	if !t.backend.Borrow(handle) {
		return false
	}
	kind, _ := t.backend.KindOf(handle)
	t.notify(Event{Type: EventBorrowed, Handle: handle, Kind: kind})
	return true
}

// ReturnBorrow releases one borrow of handle.
func (t *UnifiedTable) ReturnBorrow(handle Handle) bool {
	if !t.backend.ReturnBorrow(handle) {
		return false
	}
	kind, _ := t.backend.KindOf(handle)
	t.notify(Event{Type: EventBorrowReturned, Handle: handle, Kind: kind})
	return true
}

// Borrows reports the outstanding borrow count for handle.
func (t *UnifiedTable) Borrows(handle Handle) (uint32, bool) {
	return t.backend.Borrows(handle)
}

// Subscribe adds an observer for lifecycle events.
func (t *UnifiedTable) Subscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	t.observers = append(t.observers, o)
}

// Unsubscribe removes an observer.
func (t *UnifiedTable) Unsubscribe(o Observer) {
	t.obsMu.Lock()
	defer t.obsMu.Unlock()
	for i, obs := range t.observers {
		if obs == o {
			t.observers = append(t.observers[:i], t.observers[i+1:]...)
			return
		}
	}
}

// Len returns the number of active resources.
func (t *UnifiedTable) Len() int {
	return t.backend.Len()
}

// Count returns the number of active resources of the given kind.
func (t *UnifiedTable) Count(kind Kind) int {
	n := 0
	t.backend.Each(func(_ Handle, k Kind, _ any) bool {
		if k == kind {
			n++
		}
		return true
	})
	return n
}

// Each iterates over all active resources in slot order.
func (t *UnifiedTable) Each(fn func(Handle, Kind, any) bool) {
	t.backend.Each(fn)
}

// Clear drops all unborrowed resources.
func (t *UnifiedTable) Clear() {
	// Collect handles first to avoid holding lock during Remove
	var handles []Handle
	t.backend.Each(func(h Handle, _ Kind, _ any) bool {
		handles = append(handles, h)
		return true
	})
	for _, h := range handles {
		t.Remove(h)
	}
}

// Close releases all resources and stops accepting operations.
func (t *UnifiedTable) Close() error {
	t.closeMu.Lock()
	t.closed = true
	t.closeMu.Unlock()

	return t.backend.Close()
}

// Backend returns the underlying backend.
func (t *UnifiedTable) Backend() BorrowBackend {
	return t.backend
}

func (t *UnifiedTable) notify(e Event) {
	t.obsMu.RLock()
	defer t.obsMu.RUnlock()
	for _, o := range t.observers {
		o.OnResourceEvent(e)
	}
}
