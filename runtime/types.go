package runtime

import (
	"github.com/wippyai/ir-runtime/ffi"
)

// Ty is implemented by every type wrapper.
type Ty interface {
	Wrapper[ffi.TypeRef]
	scoped
}

// Type is an untyped view of a context-owned IR type.
type Type struct {
	view[ffi.TypeRef]
}

// IntType is an integer type.
type IntType struct {
	view[ffi.TypeRef]
}

// FunctionType is a function signature type.
type FunctionType struct {
	view[ffi.TypeRef]
}

// StructType is a named struct type.
type StructType struct {
	view[ffi.TypeRef]
}

// AsType erases the static kind of t.
func AsType[T Ty](t T) Type {
	s := t.viewScope()
	return fromRef[Type](s, t.ToRef())
}
