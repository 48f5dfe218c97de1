// Package engine is a pure-Go reference implementation of the foreign IR
// library described by package ffi.
//
// It behaves the way a native IR library does at its C boundary: every
// entity is reachable only through raw references, contexts own the types
// and metadata created in them, modules own their functions and globals,
// and disposing an owner invalidates every reference rooted in it. Unlike a
// native library it notices misuse. A call made with a disposed or foreign
// reference is reported as a Violation instead of corrupting memory, which
// makes the engine usable as a handle-tracking harness in tests:
//
//	eng := engine.New()
//	rt := runtime.New(eng)
//	// ... exercise rt ...
//	st := eng.Stats()
//	if st.Violations != 0 || st.Messages != 0 {
//	    t.Fatalf("leak or use-after-free: %+v", st)
//	}
//
// The default violation handler panics. Install a recording handler with
// WithViolationHandler to observe violations without aborting.
//
// # Textual IR
//
// PrintModuleToFile and PrintModuleToString render an LLVM-flavoured
// textual form of the module: header, target information, module asm,
// named struct types, globals, function declarations and metadata.
package engine
