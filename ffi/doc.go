// Package ffi describes the foreign call boundary of the IR library.
//
// Everything here mirrors a C-ABI style function set: entities are passed
// around as raw, untyped references with no lifetime or ownership attached,
// strings cross the boundary as NUL-terminated byte buffers, and status
// results use a two-valued sentinel instead of a Go bool.
//
// Nothing in this package is safe to use directly. Package runtime wraps the
// Library interface and is the only intended caller.
//
// # String conventions
//
//	in,  NUL-terminated:  WithCString(s, func(cs CString) { lib.SetTarget(m, cs) })
//	in,  pointer+length:  lib.GetMDKindIDInContext(ctx, []byte(name), uint32(len(name)))
//	out, borrowed:        GoString(lib.GetTarget(m))   // copy, never free
//	out, owned message:   msg := ...; defer lib.DisposeMessage(msg)
package ffi
