package irruntime

import (
	"testing"

	"github.com/wippyai/ir-runtime/engine"
	"github.com/wippyai/ir-runtime/errors"
)

func TestOpen(t *testing.T) {
	var violations []engine.Violation
	rt, eng, err := Open(nil, engine.WithViolationHandler(func(v engine.Violation) {
		violations = append(violations, v)
	}))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if eng.InitCount() != 1 {
		t.Fatalf("InitCount = %d, want 1", eng.InitCount())
	}

	ctx, err := rt.NewContext()
	if err != nil {
		t.Fatalf("NewContext: %v", err)
	}
	mod, err := ctx.NewModule("open")
	if err != nil {
		t.Fatal(err)
	}
	if err := ctx.Close(); !errors.IsKind(err, errors.KindInUse) {
		t.Fatalf("expected in_use, got %v", err)
	}
	if err := mod.Close(); err != nil {
		t.Fatal(err)
	}
	if err := rt.Shutdown(); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if len(violations) != 0 {
		t.Fatalf("unexpected violations: %v", violations)
	}
	if st := eng.Stats(); st.Contexts != 0 || st.Modules != 0 {
		t.Fatalf("leaked foreign state: %+v", st)
	}
}
