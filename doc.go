// Package irruntime is an ownership-checked Go binding layer over a C-style
// compiler IR library.
//
// The foreign library hands out raw, untyped references whose validity
// depends on call order: a module must be disposed before its context, a
// message buffer must be released exactly once, and values from one context
// must never reach another. This module turns those rules into runtime
// checks with deterministic errors.
//
// # Architecture Overview
//
//	irruntime/        Root package with Open, the one-call setup
//	├── ffi/          Foreign boundary: reference kinds, Library interface, C strings
//	├── engine/       In-process reference implementation of ffi.Library
//	├── runtime/      Runtime, Context, Module and the typed wrapper views
//	├── resource/     Generation-tagged handle tables backing liveness checks
//	├── errors/       Structured error types (phase, kind, entity)
//	├── manifest/     Declarative YAML description of a module
//	└── cmd/irkit/    CLI: build, list and browse manifests
//
// # Quick Start
//
//	rt, _, err := irruntime.Open(nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Shutdown()
//
//	ctx, _ := rt.NewContext()
//	defer ctx.Close()
//
//	mod, _ := ctx.NewModule("demo")
//	defer mod.Close()
//
//	i32, _ := ctx.IntType(32)
//	fty, _ := ctx.FunctionType(i32, []runtime.Ty{i32, i32}, false)
//	mod.AddFunction("add", fty)
//	text, _ := mod.PrintToString()
//
// # Errors
//
// Misuse never reaches the foreign library. Using a closed module yields
// errors.KindStaleHandle, closing a context with open modules yields
// errors.KindInUse, and mixing contexts yields errors.KindLineageMismatch.
// Failures reported by the foreign library itself carry its message
// verbatim as errors.KindForeign.
//
// # Thread Safety
//
// Runtime, Context and Module do no locking. The foreign multithreading
// flag only guards the library's own global tables; share entities across
// goroutines under external synchronization.
package irruntime
