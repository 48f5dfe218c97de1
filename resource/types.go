package resource

// Handle is an opaque, generation-tagged reference to an entry in a table.
// The low 32 bits select a slot and the high 32 bits carry the slot's
// generation at insertion time, so a handle to a released slot never
// validates again even after the slot is reused.
// Handle 0 is reserved and always invalid.
type Handle uint64

// Index returns the 1-based slot index encoded in h.
func (h Handle) Index() uint32 { return uint32(h) }

// Generation returns the slot generation encoded in h.
func (h Handle) Generation() uint32 { return uint32(h >> 32) }

func makeHandle(index, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(index))
}

// Kind tags an entry with the entity kind it denotes.
type Kind uint32

// Event types for resource lifecycle notifications.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
	EventBorrowed
	EventBorrowReturned
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	case EventBorrowed:
		return "borrowed"
	case EventBorrowReturned:
		return "borrow-returned"
	}
	return "unknown"
}

// Event represents a resource lifecycle event.
type Event struct {
	Value  any
	Handle Handle
	Kind   Kind
	Type   EventType
}

// Observer receives notifications about resource lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// Backend provides the underlying storage mechanism for resources.
type Backend interface {
	// Create stores a value and returns a handle.
	Create(kind Kind, value any) (Handle, error)

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// Drop removes a resource and returns (value, true) if destructor should be called.
	// Returns (nil, false) if handle is invalid or has outstanding borrows.
	Drop(handle Handle) (any, bool)

	// Close releases all resources held by the backend.
	Close() error
}

// BorrowBackend extends Backend with borrow accounting. A borrowed entry
// cannot be dropped until every borrow has been returned.
type BorrowBackend interface {
	Backend

	// Borrow increments the borrow count for a handle.
	Borrow(handle Handle) bool

	// ReturnBorrow decrements the borrow count for a handle.
	ReturnBorrow(handle Handle) bool

	// Borrows reports the outstanding borrow count for a handle.
	Borrows(handle Handle) (uint32, bool)
}

// Table manages resources with kind information and observer support.
type Table interface {
	// Insert adds a value and returns its handle.
	Insert(kind Kind, value any) Handle

	// Get retrieves a value by handle.
	Get(handle Handle) (any, bool)

	// GetTyped retrieves a value only if it matches the expected kind.
	GetTyped(handle Handle, kind Kind) (any, bool)

	// Remove drops a resource and returns (value, true) if found.
	Remove(handle Handle) (any, bool)

	// Borrow pins a resource so Remove fails until the borrow is returned.
	Borrow(handle Handle) bool

	// ReturnBorrow releases one borrow taken with Borrow.
	ReturnBorrow(handle Handle) bool

	// Subscribe adds an observer for lifecycle events.
	Subscribe(Observer)

	// Unsubscribe removes an observer.
	Unsubscribe(Observer)

	// Len returns the number of active resources.
	Len() int

	// Each iterates over all active resources in slot order.
	Each(func(Handle, Kind, any) bool)

	// Clear drops all resources.
	Clear()

	// Close releases all resources and stops accepting operations.
	Close() error
}

// Dropper is optionally implemented by resource values that need cleanup.
type Dropper interface {
	Drop()
}
