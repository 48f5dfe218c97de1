package runtime

import (
	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/resource"
)

// Wrapper is implemented by every typed IR entity. ToRef exposes the raw
// foreign reference for the next foreign call; it does not transfer
// ownership and performs no liveness check.
type Wrapper[R any] interface {
	ToRef() R
}

// scope records where a view was produced: the context lineage it belongs
// to and the lease of the owner whose disposal invalidates it.
type scope struct {
	rt    *Runtime
	ctx   *Context
	lease resource.Handle
}

// view is the common body of every lightweight entity wrapper. It pairs a
// raw reference with its scope and owns nothing.
type view[R any] struct {
	scope scope
	ref   R
}

// ToRef returns the raw foreign reference.
func (v view[R]) ToRef() R { return v.ref }

// Valid reports whether the view's owner is still alive.
func (v view[R]) Valid() bool {
	return v.scope.rt != nil && !v.scope.rt.shut && v.scope.rt.leases.Contains(v.scope.lease)
}

func (v view[R]) viewScope() scope { return v.scope }

func (v *view[R]) bind(s scope, r R) {
	v.scope = s
	v.ref = r
}

// binder is satisfied by a pointer to any entity wrapper.
type binder[W any, R any] interface {
	*W
	bind(scope, R)
}

// fromRef builds a typed wrapper of kind W around r. r is not validated:
// callers pass only references the foreign library documents as kind W.
func fromRef[W any, PW binder[W, R], R any](s scope, r R) W {
	var w W
	PW(&w).bind(s, r)
	return w
}

// wrapAll wraps every reference in refs as kind W.
func wrapAll[W any, PW binder[W, R], R any](s scope, refs []R) []W {
	out := make([]W, len(refs))
	for i, r := range refs {
		PW(&out[i]).bind(s, r)
	}
	return out
}

// scoped is implemented by every view; it exposes the scope for checks.
type scoped interface {
	viewScope() scope
}

// within verifies v belongs to ctx and that its owner is alive.
func within(phase errors.Phase, ctx *Context, v scoped, what string) error {
	if v == nil {
		return errors.InvalidInput(phase, "nil "+what)
	}
	s := v.viewScope()
	if s.rt == nil {
		return errors.InvalidInput(phase, "zero-value "+what)
	}
	if s.ctx != ctx {
		return errors.LineageMismatch(phase, what, ctx.id.String(), s.ctx.id.String())
	}
	if s.rt.shut {
		return errors.Shutdown(phase)
	}
	if !s.rt.leases.Contains(s.lease) {
		return errors.StaleHandle(phase, what)
	}
	return nil
}
