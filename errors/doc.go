// Package errors provides structured error types for the ir-runtime library.
//
// Errors are categorized by Phase (where the error occurred) and Kind (error category).
// The Error type includes the entity involved, a detail message and a cause chain.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseModule, errors.KindStaleHandle).
//		Entity("module %q", name).
//		Detail("module closed").
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.StaleHandle(errors.PhaseModule, "module \"m\"")
//	err := errors.Foreign(errors.PhasePrint, "print module", msg)
//
// All errors implement the standard error interface and support errors.Is/As.
// IsKind matches on Kind alone across a cause chain.
package errors
