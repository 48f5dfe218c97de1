package engine

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/wippyai/ir-runtime/ffi"
)

type violationRecorder struct {
	got []Violation
}

func (r *violationRecorder) handle(v Violation) {
	r.got = append(r.got, v)
}

func newRecordingEngine(t *testing.T) (*Engine, *violationRecorder) {
	t.Helper()
	rec := &violationRecorder{}
	return New(WithViolationHandler(rec.handle)), rec
}

func withName(s string, fn func(ffi.CString)) { ffi.WithCString(s, fn) }

func newModule(e *Engine, ctx ffi.ContextRef, name string) ffi.ModuleRef {
	var m ffi.ModuleRef
	withName(name, func(cs ffi.CString) {
		m = e.ModuleCreateWithNameInContext(cs, ctx)
	})
	return m
}

func addFunction(e *Engine, m ffi.ModuleRef, name string, ty ffi.TypeRef) ffi.ValueRef {
	var fn ffi.ValueRef
	withName(name, func(cs ffi.CString) {
		fn = e.AddFunction(m, cs, ty)
	})
	return fn
}

func voidFn(e *Engine, ctx ffi.ContextRef) ffi.TypeRef {
	return e.FunctionType(e.VoidTypeInContext(ctx), nil, 0, ffi.False)
}

func functionNames(e *Engine, m ffi.ModuleRef) []string {
	var names []string
	for fn := e.GetFirstFunction(m); fn != 0; fn = e.GetNextFunction(fn) {
		names = append(names, ffi.GoString(e.GetValueName(fn)))
	}
	return names
}

func TestEngine_ContextLifecycle(t *testing.T) {
	e, rec := newRecordingEngine(t)

	ctx := e.ContextCreate()
	if ctx == 0 {
		t.Fatal("ContextCreate returned null")
	}
	m := newModule(e, ctx, "m")
	e.IntTypeInContext(ctx, 32)

	st := e.Stats()
	if st.Contexts != 1 || st.Modules != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}

	e.DisposeModule(m)
	e.ContextDispose(ctx)

	st = e.Stats()
	if st.Contexts != 0 || st.Modules != 0 || st.Refs != 0 {
		t.Fatalf("leaked refs: %+v", st)
	}
	if st.OrphanedModules != 0 || len(rec.got) != 0 {
		t.Fatalf("clean teardown reported problems: %+v %v", st, rec.got)
	}
}

func TestEngine_ContextDisposeReleasesAttachedModules(t *testing.T) {
	e, rec := newRecordingEngine(t)

	ctx := e.ContextCreate()
	m := newModule(e, ctx, "m")
	addFunction(e, m, "f", voidFn(e, ctx))

	e.ContextDispose(ctx)

	st := e.Stats()
	if st.OrphanedModules != 1 || st.Modules != 0 || st.Refs != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}

	// The module went with its context: disposing it again is a violation.
	e.DisposeModule(m)
	if len(rec.got) != 1 || rec.got[0].Op != "DisposeModule" {
		t.Fatalf("expected one DisposeModule violation, got %v", rec.got)
	}
}

func TestEngine_DefaultHandlerPanics(t *testing.T) {
	e := New()
	ctx := e.ContextCreate()
	e.ContextDispose(ctx)

	defer func() {
		r := recover()
		v, ok := r.(Violation)
		if !ok {
			t.Fatalf("expected Violation panic, got %v", r)
		}
		if !strings.Contains(v.Error(), "invalid context") {
			t.Fatalf("unexpected violation %v", v)
		}
	}()
	e.ContextDispose(ctx)
}

func TestEngine_MDKindIDs(t *testing.T) {
	e, _ := newRecordingEngine(t)
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)

	kind := func(s string) uint32 {
		return e.GetMDKindIDInContext(ctx, []byte(s), uint32(len(s)))
	}

	if got := kind("dbg"); got != 0 {
		t.Fatalf("dbg = %d, want 0", got)
	}
	first := kind("custom")
	if first != uint32(len(builtinMDKinds)) {
		t.Fatalf("custom = %d, want %d", first, len(builtinMDKinds))
	}
	if again := kind("custom"); again != first {
		t.Fatalf("kind id not stable: %d then %d", first, again)
	}
	if other := kind("other"); other == first {
		t.Fatal("distinct names share an id")
	}

	// Pointer+length: bytes past length are ignored.
	if got := e.GetMDKindIDInContext(ctx, []byte("customXYZ"), 6); got != first {
		t.Fatalf("length-limited lookup = %d, want %d", got, first)
	}
}

func TestEngine_FunctionListAndRenaming(t *testing.T) {
	e, _ := newRecordingEngine(t)
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)
	m := newModule(e, ctx, "m")
	defer e.DisposeModule(m)

	if e.GetFirstFunction(m) != 0 {
		t.Fatal("empty module has a first function")
	}

	fty := voidFn(e, ctx)
	for _, n := range []string{"a", "b", "a", "c", "a"} {
		addFunction(e, m, n, fty)
	}

	want := []string{"a", "b", "a.1", "c", "a.2"}
	if diff := cmp.Diff(want, functionNames(e, m)); diff != "" {
		t.Fatalf("function order mismatch (-want +got):\n%s", diff)
	}

	var found ffi.ValueRef
	withName("a.1", func(cs ffi.CString) { found = e.GetNamedFunction(m, cs) })
	if ffi.GoString(e.GetValueName(found)) != "a.1" {
		t.Fatal("GetNamedFunction did not find renamed function")
	}
	withName("missing", func(cs ffi.CString) { found = e.GetNamedFunction(m, cs) })
	if found != 0 {
		t.Fatal("GetNamedFunction found a missing function")
	}
}

func TestEngine_TypesAreUniqued(t *testing.T) {
	e, _ := newRecordingEngine(t)
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)

	i32 := e.IntTypeInContext(ctx, 32)
	if e.IntTypeInContext(ctx, 32) != i32 {
		t.Fatal("i32 not uniqued")
	}
	params := []ffi.TypeRef{i32, i32}
	f1 := e.FunctionType(i32, params, 2, ffi.False)
	f2 := e.FunctionType(i32, params, 2, ffi.False)
	f3 := e.FunctionType(i32, params, 2, ffi.True)
	if f1 != f2 || f1 == f3 {
		t.Fatalf("function type interning broken: %v %v %v", f1, f2, f3)
	}
	if e.GetTypeContext(f1) != ctx {
		t.Fatal("type reports wrong context")
	}

	var s1, s2 ffi.TypeRef
	withName("Point", func(cs ffi.CString) {
		s1 = e.StructCreateNamed(ctx, cs)
		s2 = e.StructCreateNamed(ctx, cs)
	})
	if s1 == s2 {
		t.Fatal("named structs must be distinct")
	}

	m := newModule(e, ctx, "m")
	defer e.DisposeModule(m)
	var got ffi.TypeRef
	withName("Point.1", func(cs ffi.CString) { got = e.GetTypeByName(m, cs) })
	if got != s2 {
		t.Fatal("renamed struct not found by name")
	}
	withName("Nope", func(cs ffi.CString) { got = e.GetTypeByName(m, cs) })
	if got != 0 {
		t.Fatal("missing type must be null")
	}
}

func TestEngine_CrossContextIsViolation(t *testing.T) {
	e, rec := newRecordingEngine(t)
	a := e.ContextCreate()
	b := e.ContextCreate()
	m := newModule(e, a, "m")

	if fn := addFunction(e, m, "f", voidFn(e, b)); fn != 0 {
		t.Fatal("cross-context AddFunction must fail")
	}
	if len(rec.got) != 1 || !strings.Contains(rec.got[0].Reason, "another context") {
		t.Fatalf("expected cross-context violation, got %v", rec.got)
	}
}

func TestEngine_NamedMetadata(t *testing.T) {
	e, _ := newRecordingEngine(t)
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)
	m := newModule(e, ctx, "m")
	defer e.DisposeModule(m)

	s := e.MDStringInContext(ctx, []byte("hello"), 5)
	if e.MDStringInContext(ctx, []byte("hello"), 5) != s {
		t.Fatal("MDString not uniqued")
	}
	node := e.MDNodeInContext(ctx, []ffi.ValueRef{s}, 1)

	withName("x", func(cs ffi.CString) {
		if n := e.GetNamedMetadataNumOperands(m, cs); n != 0 {
			t.Fatalf("absent node has %d operands", n)
		}
		e.AddNamedMetadataOperand(m, cs, node)
		e.AddNamedMetadataOperand(m, cs, s)
		n := e.GetNamedMetadataNumOperands(m, cs)
		buf := make([]ffi.ValueRef, n)
		e.GetNamedMetadataOperands(m, cs, buf)
		if diff := cmp.Diff([]ffi.ValueRef{node, s}, buf); diff != "" {
			t.Fatalf("operands mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEngine_PrintModuleToFile(t *testing.T) {
	e, _ := newRecordingEngine(t)
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)
	m := newModule(e, ctx, "m")
	defer e.DisposeModule(m)

	path := filepath.Join(t.TempDir(), "out.ll")
	var msg ffi.MessageRef
	var res ffi.Bool
	withName(path, func(cs ffi.CString) { res = e.PrintModuleToFile(m, cs, &msg) })
	if res != ffi.False || msg != 0 {
		t.Fatalf("print failed: res=%v msg=%v", res, msg)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "; ModuleID = 'm'\n") {
		t.Fatalf("unexpected output %q", data)
	}

	bad := filepath.Join(t.TempDir(), "missing", "dir", "out.ll")
	withName(bad, func(cs ffi.CString) { res = e.PrintModuleToFile(m, cs, &msg) })
	if res == ffi.False || msg == 0 {
		t.Fatal("print to unwritable path must fail with a message")
	}
	if ffi.GoString(e.MessageBytes(msg)) == "" {
		t.Fatal("failure message is empty")
	}
	if e.Stats().Messages != 1 {
		t.Fatalf("expected 1 live message, got %d", e.Stats().Messages)
	}
	e.DisposeMessage(msg)
	if e.Stats().Messages != 0 {
		t.Fatal("message not released")
	}
}

func TestEngine_Multithreaded(t *testing.T) {
	e, _ := newRecordingEngine(t)
	if e.IsMultithreaded().Go() {
		t.Fatal("multithreaded by default")
	}
	if !e.StartMultithreaded().Go() || !e.IsMultithreaded().Go() {
		t.Fatal("StartMultithreaded had no effect")
	}
	e.StopMultithreaded()
	if e.IsMultithreaded().Go() {
		t.Fatal("StopMultithreaded had no effect")
	}
}

func TestEngine_ConcurrentStructLookup(t *testing.T) {
	e, rec := newRecordingEngine(t)
	e.StartMultithreaded()
	defer e.StopMultithreaded()
	ctx := e.ContextCreate()
	defer e.ContextDispose(ctx)
	m := newModule(e, ctx, "m")
	defer e.DisposeModule(m)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			withName("S"+strconv.Itoa(i), func(cs ffi.CString) { e.StructCreateNamed(ctx, cs) })
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			withName("S"+strconv.Itoa(i), func(cs ffi.CString) { e.GetTypeByName(m, cs) })
		}
	}()
	wg.Wait()

	for i := 0; i < n; i++ {
		var got ffi.TypeRef
		withName("S"+strconv.Itoa(i), func(cs ffi.CString) { got = e.GetTypeByName(m, cs) })
		if got == 0 {
			t.Fatalf("S%d not found after concurrent creation", i)
		}
	}
	if len(rec.got) != 0 {
		t.Fatalf("unexpected violations %v", rec.got)
	}
}

func TestEngine_InitializeAndShutdown(t *testing.T) {
	e, rec := newRecordingEngine(t)
	reg := e.GetGlobalPassRegistry()
	e.InitializeCore(reg)
	e.InitializeCore(reg)
	if e.InitCount() != 2 {
		t.Fatalf("InitCount = %d, want 2", e.InitCount())
	}
	e.Shutdown()
	if !e.IsShutdown() {
		t.Fatal("not shut down")
	}
	e.Shutdown()
	if len(rec.got) != 1 {
		t.Fatalf("second Shutdown should be a violation, got %v", rec.got)
	}
}
