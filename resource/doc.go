// Package resource provides generation-tagged handle tables.
//
// A table maps opaque integer handles to Go values. It backs two things in
// this module: the raw references handed out by the reference foreign
// library (package engine), and the liveness leases the safe shell (package
// runtime) stamps into every context, module and entity view.
//
// # Handle Table
//
//	table := resource.NewTable()
//
//	// Insert a value, get a handle
//	handle := table.Insert(kind, myValue)
//
//	// Retrieve value by handle
//	value, ok := table.Get(handle)
//
//	// Remove and get value
//	value, ok := table.Remove(handle)
//
// # Generations
//
// Every handle carries the generation of its slot. Removing an entry bumps
// the generation, so a stale handle is rejected even after the slot has been
// reused by a later Insert:
//
//	h1 := table.Insert(kind, a)
//	table.Remove(h1)
//	h2 := table.Insert(kind, b) // same slot, new generation
//	_, ok := table.Get(h1)      // ok == false
//
// # Borrows
//
// An entry can be pinned with Borrow. Remove refuses to drop a borrowed
// entry until every borrow has been returned:
//
//	table.Borrow(ctxHandle)        // a module now depends on the context
//	_, ok := table.Remove(ctxHandle) // ok == false
//	table.ReturnBorrow(ctxHandle)
//
// # Observers
//
// Register observers to track lifecycle events (create, drop, borrow,
// borrow-returned). Observers run synchronously on the calling goroutine.
//
// # Memory Management
//
// Entries are not garbage collected. Values implementing Dropper have Drop
// called when they are removed or when the table is closed.
package resource
