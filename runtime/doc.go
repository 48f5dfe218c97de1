// Package runtime is the safe ownership layer over the foreign IR library.
//
// The foreign library hands out raw references with no lifetime attached.
// This package converts them into a strict ownership tree:
//
//	Runtime            process-wide state (init, shutdown, multithreading)
//	└── Context        owns one foreign context
//	    ├── Type, Metadata           views, stale once the context closes
//	    └── Module     owns one foreign module, borrows its Context
//	        └── Function, Global[T]  views, stale once the module closes
//
// # Quick Start
//
//	rt := runtime.New(engine.New())
//	if err := rt.InitializeCore(); err != nil {
//	    log.Fatal(err)
//	}
//	defer rt.Shutdown()
//
//	ctx, _ := rt.NewContext()
//	defer ctx.Close()
//
//	mod, _ := ctx.NewModule("demo")
//	defer mod.Close() // runs before ctx.Close
//
//	i32, _ := ctx.IntType(32)
//	fty, _ := ctx.FunctionType(i32, []runtime.Ty{i32}, false)
//	mod.AddFunction("square", fty)
//	if err := mod.Print("demo.ll"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Liveness
//
// Go cannot prove at compile time that a module is closed before its
// context, so every owner is registered in a generation-tagged lease table
// (package resource) and every view carries the lease of its owner. Each
// operation checks, before any foreign call, that:
//
//   - the Runtime is initialized and not shut down (KindNotInitialized, KindShutdown)
//   - the receiver is still open (KindStaleHandle)
//   - every argument view comes from the same Context (KindLineageMismatch)
//     and its owner is still open (KindStaleHandle)
//
// A Context holds one borrow per open Module. Context.Close fails with
// KindInUse until each of those modules has been closed, so a context is
// never disposed underneath a module.
//
// # Wrappers
//
// Every entity implements Wrapper, whose ToRef exposes the raw reference.
// Views are built by one generic constructor and own nothing. Copying a
// view is free, and a copy goes stale together with the original.
//
// # Concurrency
//
// Nothing here locks. The foreign multithreading flag (StartMultithreaded)
// only affects the foreign library's own global tables. Share a Context or
// Module across goroutines only under external mutual exclusion.
package runtime
