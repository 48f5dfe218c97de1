package ffi

import "bytes"

// Ref is a pointer-sized opaque reference issued by the foreign library.
// Equality and validity are defined entirely by the library. Zero is null.
type Ref uintptr

// Distinct reference kinds. The foreign library treats them all as Ref;
// the names only document which kind a call expects.
type (
	ContextRef      Ref
	ModuleRef       Ref
	TypeRef         Ref
	ValueRef        Ref
	PassRegistryRef Ref
	MessageRef      Ref
)

// Bool is the foreign two-valued sentinel.
type Bool int32

const (
	False Bool = 0
	True  Bool = 1
)

// Go converts a sentinel to a Go bool. Any non-zero value is true.
func (b Bool) Go() bool { return b != False }

// BoolOf converts a Go bool to the foreign sentinel.
func BoolOf(v bool) Bool {
	if v {
		return True
	}
	return False
}

// CString is a NUL-terminated byte buffer as seen by the foreign library.
type CString []byte

// GoString copies a foreign string up to its first NUL.
// A nil or empty buffer yields "".
func GoString(cs CString) string {
	if i := bytes.IndexByte(cs, 0); i >= 0 {
		return string(cs[:i])
	}
	return string(cs)
}

// WithCString marshals s into a NUL-terminated buffer that is valid only
// for the duration of fn. The buffer is scrubbed on every exit path,
// including a panic unwinding through fn, so a library that retains it sees
// an empty string rather than stale caller data.
func WithCString(s string, fn func(CString)) {
	buf := make(CString, len(s)+1)
	copy(buf, s)
	defer clear(buf)
	fn(buf)
}

// WithCStrings marshals two strings for the duration of fn.
func WithCStrings(a, b string, fn func(CString, CString)) {
	WithCString(a, func(ca CString) {
		WithCString(b, func(cb CString) {
			fn(ca, cb)
		})
	})
}
