package runtime

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/wippyai/ir-runtime/engine"
)

// propRuntime returns an initialized runtime whose engine records
// violations instead of panicking, so a property can report them.
func propRuntime() (*Runtime, *engine.Engine) {
	eng := engine.New(engine.WithViolationHandler(func(engine.Violation) {}))
	rt := New(eng)
	rt.InitializeCore()
	return rt, eng
}

func clean(eng *engine.Engine) bool {
	st := eng.Stats()
	return st.Violations == 0 && st.Messages == 0 && st.OrphanedModules == 0
}

func TestTargetAndLayoutRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("set then get returns the same strings", prop.ForAll(
		func(triple, layout string) bool {
			rt, eng := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			m, _ := c.NewModule("p")

			if got, _ := m.Target(); got != "" {
				return false
			}
			m.SetTarget(triple)
			m.SetDataLayout(layout)
			gotTriple, _ := m.Target()
			gotLayout, _ := m.DataLayout()
			return gotTriple == triple && gotLayout == layout && clean(eng)
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestEachFunctionOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("walk visits declaration order and stops at k", prop.ForAll(
		func(n, k int) bool {
			// k == 0 never stops the walk.
			if k > n {
				k = n
			}
			rt, eng := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			m, _ := c.NewModule("p")
			void, _ := c.VoidType()
			fty, _ := c.FunctionType(void, nil, false)
			for i := 0; i < n; i++ {
				m.AddFunction("fn"+strconv.Itoa(i), fty)
			}

			visits := 0
			ordered := true
			complete, err := m.EachFunction(func(f Function) bool {
				name, _ := f.Name()
				ordered = ordered && name == "fn"+strconv.Itoa(visits)
				visits++
				return k == 0 || visits < k
			})
			if err != nil || !ordered || !clean(eng) {
				return false
			}
			if k == 0 {
				return complete && visits == n
			}
			return !complete && visits == k
		},
		gen.IntRange(0, 20),
		gen.IntRange(0, 20),
	))

	properties.Property("full walk reports true", prop.ForAll(
		func(n int) bool {
			rt, _ := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			m, _ := c.NewModule("p")
			void, _ := c.VoidType()
			fty, _ := c.FunctionType(void, nil, false)
			for i := 0; i < n; i++ {
				m.AddFunction("f", fty)
			}
			fns, err := m.Functions()
			return err == nil && len(fns) == n
		},
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func TestNamedMetadataProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("single operand round-trips by reference", prop.ForAll(
		func(name, text string) bool {
			rt, eng := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			m, _ := c.NewModule("p")

			md, _ := c.MDString(text)
			if err := m.AddNamedMDOperand(name, md); err != nil {
				return false
			}
			ops, err := m.NamedMDOperands(name)
			return err == nil && len(ops) == 1 && ops[0].ToRef() == md.ToRef() && clean(eng)
		},
		gen.Identifier(),
		gen.AlphaString(),
	))

	properties.Property("MDKindID is idempotent", prop.ForAll(
		func(name string) bool {
			rt, _ := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			a, _ := c.MDKindID(name)
			b, _ := c.MDKindID(name)
			return a == b
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}

func TestPrintDoesNotLeakProperty(t *testing.T) {
	dir := t.TempDir()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("repeated prints release every message", prop.ForAll(
		func(times int, writable bool) bool {
			rt, eng := propRuntime()
			defer rt.Shutdown()
			c, _ := rt.NewContext()
			m, _ := c.NewModule("p")

			path := filepath.Join(dir, "out.ll")
			if !writable {
				path = filepath.Join(dir, "absent", "out.ll")
			}
			for i := 0; i < times; i++ {
				err := m.Print(path)
				if writable != (err == nil) {
					return false
				}
				if err != nil && err.Error() == "" {
					return false
				}
			}
			return eng.Stats().Messages == 0
		},
		gen.IntRange(1, 5),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestCloseOrderProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("closing modules then context releases everything once", prop.ForAll(
		func(modules int) bool {
			rt, eng := propRuntime()
			c, _ := rt.NewContext()
			opened := make([]*Module, modules)
			for i := range opened {
				opened[i], _ = c.NewModule("m" + strconv.Itoa(i))
			}
			for _, m := range opened {
				if m.Close() != nil || m.Close() != nil {
					return false
				}
			}
			if c.Close() != nil || c.Close() != nil {
				return false
			}
			st := eng.Stats()
			return st.Contexts == 0 && st.Modules == 0 && clean(eng) && rt.Shutdown() == nil
		},
		gen.IntRange(0, 8),
	))

	properties.TestingRun(t)
}
