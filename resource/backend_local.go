package resource

import (
	"errors"
	"sync"
)

var (
	ErrClosed            = errors.New("resource backend closed")
	ErrOutstandingBorrow = errors.New("cannot drop resource with outstanding borrows")
)

// LocalBackend is an in-memory resource backend with borrow tracking.
// Implements both Backend and BorrowBackend interfaces.
type LocalBackend struct {
	entries  []entry
	freeList []uint32
	mu       sync.RWMutex
	closed   bool
}

type entry struct {
	value       any
	kind        Kind
	gen         uint32
	borrowCount uint32
	valid       bool
}

// NewLocalBackend creates a new in-memory backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{
		entries:  make([]entry, 0, 64),
		freeList: make([]uint32, 0, 16),
	}
}

// Create stores a value and returns a handle.
func (b *LocalBackend) Create(kind Kind, value any) (Handle, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return 0, ErrClosed
	}

	if len(b.freeList) > 0 {
		idx := b.freeList[len(b.freeList)-1]
		b.freeList = b.freeList[:len(b.freeList)-1]
		e := &b.entries[idx-1]
		e.kind = kind
		e.value = value
		e.valid = true
		return makeHandle(idx, e.gen), nil
	}

	b.entries = append(b.entries, entry{
		kind:  kind,
		value: value,
		gen:   1,
		valid: true,
	})
	return makeHandle(uint32(len(b.entries)), 1), nil
}

// lookup returns the live entry for handle. Caller holds b.mu.
func (b *LocalBackend) lookup(handle Handle) *entry {
	if handle == 0 {
		return nil
	}
	idx := handle.Index()
	if idx == 0 || int(idx) > len(b.entries) {
		return nil
	}
	e := &b.entries[idx-1]
	if !e.valid || e.gen != handle.Generation() {
		return nil
	}
	return e
}

// Get retrieves a value by handle.
func (b *LocalBackend) Get(handle Handle) (any, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}
	return e.value, true
}

// Drop removes a resource and returns (value, true) if destructor should be called.
// The slot generation is bumped so every outstanding copy of handle goes stale.
func (b *LocalBackend) Drop(handle Handle) (any, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return nil, false
	}

	if e.borrowCount > 0 {
		return nil, false
	}

	value := e.value
	e.valid = false
	e.value = nil
	e.borrowCount = 0
	e.gen++
	if e.gen == 0 {
		e.gen = 1
	}
	b.freeList = append(b.freeList, handle.Index())

	return value, true
}

// Close releases all resources.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	for i := range b.entries {
		if b.entries[i].valid {
			if d, ok := b.entries[i].value.(Dropper); ok {
				d.Drop()
			}
			b.entries[i].valid = false
			b.entries[i].value = nil
		}
	}

	b.entries = nil
	b.freeList = nil
	return nil
}

// Borrow increments the borrow count for a handle.
func (b *LocalBackend) Borrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil {
		return false
	}

	e.borrowCount++
	return true
}

// ReturnBorrow decrements the borrow count for a handle.
func (b *LocalBackend) ReturnBorrow(handle Handle) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	e := b.lookup(handle)
	if e == nil || e.borrowCount == 0 {
		return false
	}

	e.borrowCount--
	return true
}

// Borrows reports the outstanding borrow count for a handle.
func (b *LocalBackend) Borrows(handle Handle) (uint32, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.borrowCount, true
}

// KindOf returns the kind for a handle.
func (b *LocalBackend) KindOf(handle Handle) (Kind, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e := b.lookup(handle)
	if e == nil {
		return 0, false
	}
	return e.kind, true
}

// Len returns the number of active resources.
func (b *LocalBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	count := 0
	for _, e := range b.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// Each iterates over all active resources.
// fn runs under the read lock and must not mutate the backend.
func (b *LocalBackend) Each(fn func(Handle, Kind, any) bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for i, e := range b.entries {
		if e.valid {
			if !fn(makeHandle(uint32(i+1), e.gen), e.kind, e.value) {
				break
			}
		}
	}
}
