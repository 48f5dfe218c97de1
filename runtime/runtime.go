package runtime

import (
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

// Lease kinds in the runtime's liveness table.
const (
	leaseContext resource.Kind = iota + 1
	leaseModule
)

// Runtime is the process-wide capability state of the foreign library: its
// one-shot initialization, the multithreading flag, and the liveness table
// every Context and Module is registered in. Create one per process (or per
// test) and pass it explicitly.
//
// Runtime provides no locking for Context or Module state. Callers sharing
// them across goroutines must synchronize access themselves.
type Runtime struct {
	lib    ffi.Library
	leases *resource.UnifiedTable
	log    *zap.Logger

	initialized bool
	shut        bool
}

// New wraps lib. InitializeCore must be called before creating contexts.
func New(lib ffi.Library, opts ...Option) *Runtime {
	r := &Runtime{
		lib:    lib,
		leases: resource.NewTable(),
		log:    Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// InitializeCore initializes the foreign library's global registry.
// Calling it again re-registers the same registry.
func (r *Runtime) InitializeCore() error {
	if r.shut {
		return errors.Shutdown(errors.PhaseInit)
	}
	if r.initialized {
		r.log.Debug("core already initialized, re-registering")
	}
	r.lib.InitializeCore(r.lib.GetGlobalPassRegistry())
	r.initialized = true
	return nil
}

// Shutdown closes every open Module, then every open Context, and tears down
// the foreign library's global state. It is irreversible: every later
// operation on this Runtime or anything created from it fails with
// KindShutdown.
func (r *Runtime) Shutdown() error {
	if r.shut {
		return errors.Shutdown(errors.PhaseShutdown)
	}

	var modules []*Module
	var contexts []*Context
	r.leases.Each(func(_ resource.Handle, kind resource.Kind, v any) bool {
		switch kind {
		case leaseModule:
			modules = append(modules, v.(*Module))
		case leaseContext:
			contexts = append(contexts, v.(*Context))
		}
		return true
	})

	var err error
	for _, m := range modules {
		r.log.Warn("closing module left open at shutdown", zap.String("module", m.name))
		err = multierr.Append(err, m.Close())
	}
	for _, c := range contexts {
		r.log.Warn("closing context left open at shutdown", zap.Stringer("context", c.id))
		err = multierr.Append(err, c.Close())
	}

	r.lib.Shutdown()
	r.shut = true
	if cerr := r.leases.Close(); cerr != nil {
		err = multierr.Append(err, cerr)
	}
	if err != nil {
		return errors.Wrap(errors.PhaseShutdown, errors.KindInUse, err, "close open entities")
	}
	return nil
}

// StartMultithreaded asks the foreign library to serialize access to its
// global tables. Reports whether multithreaded mode is now enabled.
func (r *Runtime) StartMultithreaded() bool {
	if r.shut {
		return false
	}
	return r.lib.StartMultithreaded().Go()
}

// StopMultithreaded disables multithreaded mode.
func (r *Runtime) StopMultithreaded() {
	if r.shut {
		return
	}
	r.lib.StopMultithreaded()
}

// IsMultithreaded reports the foreign library's multithreading flag.
func (r *Runtime) IsMultithreaded() bool {
	if r.shut {
		return false
	}
	return r.lib.IsMultithreaded().Go()
}

// Live reports how many contexts and modules are open.
func (r *Runtime) Live() (contexts, modules int) {
	if r.shut {
		return 0, 0
	}
	return r.leases.Count(leaseContext), r.leases.Count(leaseModule)
}

// NewContext allocates a fresh foreign context.
func (r *Runtime) NewContext() (*Context, error) {
	if err := r.checkLive(errors.PhaseContext); err != nil {
		return nil, err
	}
	c := newContext(r, r.lib.ContextCreate())
	r.log.Debug("created context", zap.Stringer("context", c.id))
	return c, nil
}

func (r *Runtime) checkLive(phase errors.Phase) error {
	if r.shut {
		return errors.Shutdown(phase)
	}
	if !r.initialized {
		return errors.NotInitialized(phase, "core")
	}
	return nil
}
