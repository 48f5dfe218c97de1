package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

// Reference kinds stored in the engine's handle table.
const (
	kindRegistry resource.Kind = iota + 1
	kindContext
	kindModule
	kindType
	kindValue
	kindMessage
)

// Violation describes a call made with a reference the engine cannot honour.
// A native library would exhibit undefined behaviour instead.
type Violation struct {
	Op     string
	Ref    ffi.Ref
	Reason string
}

func (v Violation) Error() string {
	return fmt.Sprintf("engine: %s: %s (ref %#x)", v.Op, v.Reason, uint64(v.Ref))
}

// Stats is a snapshot of live foreign resources and recorded misuse.
type Stats struct {
	Contexts        int
	Modules         int
	Messages        int
	Refs            int
	OrphanedModules int
	Violations      int
}

// Option configures an Engine.
type Option func(*Engine)

// WithViolationHandler replaces the default handler, which panics.
func WithViolationHandler(fn func(Violation)) Option {
	return func(e *Engine) {
		e.onViolation = fn
	}
}

// Engine implements ffi.Library.
type Engine struct {
	table       *resource.UnifiedTable
	onViolation func(Violation)

	registry      ffi.PassRegistryRef
	initCount     int
	shut          bool
	multithreaded atomic.Bool

	// mu serializes context-level interning while multithreaded mode is on.
	mu sync.Mutex

	orphaned   atomic.Int64
	violations atomic.Int64
}

var _ ffi.Library = (*Engine)(nil)

// New creates an engine with its global pass registry allocated.
func New(opts ...Option) *Engine {
	e := &Engine{
		table: resource.NewTable(),
		onViolation: func(v Violation) {
			panic(v)
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registry = ffi.PassRegistryRef(e.table.Insert(kindRegistry, &registry{}))
	return e
}

type registry struct {
	initialized int
}

// Stats returns a snapshot of live references.
func (e *Engine) Stats() Stats {
	return Stats{
		Contexts:        e.table.Count(kindContext),
		Modules:         e.table.Count(kindModule),
		Messages:        e.table.Count(kindMessage),
		Refs:            e.table.Len() - 1,
		OrphanedModules: int(e.orphaned.Load()),
		Violations:      int(e.violations.Load()),
	}
}

// Subscribe registers an observer for every foreign allocation and release.
func (e *Engine) Subscribe(o resource.Observer) {
	e.table.Subscribe(o)
}

// Unsubscribe removes an observer registered with Subscribe.
func (e *Engine) Unsubscribe(o resource.Observer) {
	e.table.Unsubscribe(o)
}

// InitCount reports how many times InitializeCore ran.
func (e *Engine) InitCount() int {
	return e.initCount
}

// IsShutdown reports whether Shutdown ran.
func (e *Engine) IsShutdown() bool {
	return e.shut
}

func (e *Engine) violate(op string, ref ffi.Ref, reason string) {
	e.violations.Add(1)
	v := Violation{Op: op, Ref: ref, Reason: reason}
	Logger().Warn("foreign call violation",
		zap.String("op", op),
		zap.Uint64("ref", uint64(ref)),
		zap.String("reason", reason))
	e.onViolation(v)
}

// lock serializes interning tables when multithreaded mode is enabled.
func (e *Engine) lock() func() {
	if !e.multithreaded.Load() {
		return func() {}
	}
	e.mu.Lock()
	return e.mu.Unlock
}

func lookup[T any](e *Engine, op string, ref ffi.Ref, kind resource.Kind, what string) *T {
	if ref == 0 {
		e.violate(op, ref, "null "+what)
		return nil
	}
	v, ok := e.table.GetTyped(resource.Handle(ref), kind)
	if !ok {
		e.violate(op, ref, "invalid "+what)
		return nil
	}
	return v.(*T)
}

// Process-wide state

func (e *Engine) GetGlobalPassRegistry() ffi.PassRegistryRef {
	return e.registry
}

func (e *Engine) InitializeCore(r ffi.PassRegistryRef) {
	reg := lookup[registry](e, "InitializeCore", ffi.Ref(r), kindRegistry, "pass registry")
	if reg == nil {
		return
	}
	reg.initialized++
	e.initCount++
	debugf("initialize core (#%d)", e.initCount)
}

func (e *Engine) Shutdown() {
	if e.shut {
		e.violate("Shutdown", 0, "already shut down")
		return
	}
	e.shut = true
	debugf("shutdown with %d live refs", e.table.Len()-1)
}

func (e *Engine) StartMultithreaded() ffi.Bool {
	e.multithreaded.Store(true)
	return ffi.True
}

func (e *Engine) StopMultithreaded() {
	e.multithreaded.Store(false)
}

func (e *Engine) IsMultithreaded() ffi.Bool {
	return ffi.BoolOf(e.multithreaded.Load())
}

// Messages

type message struct {
	buf ffi.CString
}

func (e *Engine) newMessage(s string) ffi.MessageRef {
	buf := make(ffi.CString, len(s)+1)
	copy(buf, s)
	return ffi.MessageRef(e.table.Insert(kindMessage, &message{buf: buf}))
}

func (e *Engine) MessageBytes(r ffi.MessageRef) ffi.CString {
	msg := lookup[message](e, "MessageBytes", ffi.Ref(r), kindMessage, "message")
	if msg == nil {
		return nil
	}
	return msg.buf
}

func (e *Engine) DisposeMessage(r ffi.MessageRef) {
	if lookup[message](e, "DisposeMessage", ffi.Ref(r), kindMessage, "message") == nil {
		return
	}
	e.table.Remove(resource.Handle(r))
}

func cstr(s string) ffi.CString {
	buf := make(ffi.CString, len(s)+1)
	copy(buf, s)
	return buf
}
