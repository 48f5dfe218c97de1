package irruntime

import (
	"github.com/wippyai/ir-runtime/engine"
	"github.com/wippyai/ir-runtime/runtime"
)

// Open returns a runtime over the in-process reference engine with core
// initialization done. Engine options configure the foreign side, for
// example its violation handler.
func Open(opts []runtime.Option, engineOpts ...engine.Option) (*runtime.Runtime, *engine.Engine, error) {
	eng := engine.New(engineOpts...)
	rt := runtime.New(eng, opts...)
	if err := rt.InitializeCore(); err != nil {
		return nil, nil, err
	}
	return rt, eng, nil
}
