package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseInit     Phase = "init"     // process-wide initialization
	PhaseShutdown Phase = "shutdown" // process-wide teardown
	PhaseContext  Phase = "context"  // context lifecycle
	PhaseModule   Phase = "module"   // module lifecycle and mutation
	PhasePrint    Phase = "print"    // IR serialization
	PhaseLookup   Phase = "lookup"   // name lookups
	PhaseMetadata Phase = "metadata" // named metadata access
	PhaseParse    Phase = "parse"    // manifest parsing
	PhaseBuild    Phase = "build"    // manifest to IR construction
)

// Kind categorizes the error
type Kind string

const (
	KindNotInitialized  Kind = "not_initialized"
	KindShutdown        Kind = "shutdown"
	KindStaleHandle     Kind = "stale_handle"
	KindInUse           Kind = "in_use"
	KindLineageMismatch Kind = "lineage_mismatch"
	KindNotFound        Kind = "not_found"
	KindForeign         Kind = "foreign"
	KindInvalidInput    Kind = "invalid_input"
	KindInvalidData     Kind = "invalid_data"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Entity string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Entity != "" {
		b.WriteString(" (")
		b.WriteString(e.Entity)
		b.WriteByte(')')
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// IsKind reports whether any *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == kind {
			return true
		}
		err = e.Cause
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Entity names the IR entity the error concerns
func (b *Builder) Entity(format string, args ...any) *Builder {
	b.err.Entity = fmt.Sprintf(format, args...)
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// NotInitialized creates a not-initialized error
func NotInitialized(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", what),
	}
}

// Shutdown creates an error for use after process-wide shutdown
func Shutdown(phase Phase) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindShutdown,
		Detail: "runtime has been shut down",
	}
}

// StaleHandle creates an error for use of a disposed entity
func StaleHandle(phase Phase, entity string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindStaleHandle,
		Entity: entity,
		Detail: "handle used after its owner was disposed",
	}
}

// InUse creates an error for disposing an entity that is still borrowed
func InUse(phase Phase, entity string, borrows uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInUse,
		Entity: entity,
		Detail: fmt.Sprintf("%d dependent(s) still open", borrows),
		Value:  borrows,
	}
}

// LineageMismatch creates an error for mixing handles from different contexts
func LineageMismatch(phase Phase, entity, want, got string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindLineageMismatch,
		Entity: entity,
		Detail: fmt.Sprintf("belongs to context %s, expected %s", got, want),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// Foreign creates an error carrying a message reported by the foreign library.
// msg is kept verbatim.
func Foreign(phase Phase, op, msg string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindForeign,
		Entity: op,
		Detail: msg,
		Value:  msg,
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// ParseFailed creates a parsing error
func ParseFailed(what string, cause error) *Error {
	return &Error{
		Phase:  PhaseParse,
		Kind:   KindInvalidData,
		Detail: fmt.Sprintf("parse %s", what),
		Cause:  cause,
	}
}
