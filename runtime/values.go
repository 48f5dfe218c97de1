package runtime

import (
	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/ffi"
)

// Value is an untyped view of an IR value.
type Value struct {
	view[ffi.ValueRef]
}

// Function is a function declared in a module. It is invalidated when the
// module is closed.
type Function struct {
	view[ffi.ValueRef]
}

// Global is a global variable whose element type is fixed at compile time.
type Global[T Ty] struct {
	view[ffi.ValueRef]
	ty T
}

// Metadata is a context-owned metadata value (string or node).
type Metadata struct {
	view[ffi.ValueRef]
}

// Name returns the value's symbol name.
func (v Value) Name() (string, error) { return valueName(v.view) }

// Name returns the function's symbol name, which may differ from the
// requested name when the foreign library renamed a duplicate.
func (f Function) Name() (string, error) { return valueName(f.view) }

// AsValue erases the function's kind.
func (f Function) AsValue() Value { return fromRef[Value](f.scope, f.ref) }

// Name returns the global's symbol name.
func (g Global[T]) Name() (string, error) { return valueName(g.view) }

// ValueType returns the declared element type.
func (g Global[T]) ValueType() T { return g.ty }

// AsValue erases the global's kind.
func (g Global[T]) AsValue() Value { return fromRef[Value](g.scope, g.ref) }

func valueName(v view[ffi.ValueRef]) (string, error) {
	if v.scope.ctx == nil {
		return "", errors.InvalidInput(errors.PhaseLookup, "zero-value value")
	}
	if err := within(errors.PhaseLookup, v.scope.ctx, v, "value"); err != nil {
		return "", err
	}
	return ffi.GoString(v.scope.rt.lib.GetValueName(v.ref)), nil
}
