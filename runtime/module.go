package runtime

import (
	"go.uber.org/zap"

	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

// Module owns one foreign compilation unit inside a Context. Functions and
// globals obtained from it are views that go stale when it is closed.
type Module struct {
	ctx   *Context
	ref   ffi.ModuleRef
	name  string
	lease resource.Handle
	log   *zap.Logger
}

var _ Wrapper[ffi.ModuleRef] = (*Module)(nil)

// ToRef returns the raw foreign module reference.
func (m *Module) ToRef() ffi.ModuleRef { return m.ref }

// Context returns the context m was created in.
func (m *Module) Context() *Context { return m.ctx }

// Name returns the name m was created with.
func (m *Module) Name() string { return m.name }

func (m *Module) entity() string { return "module " + m.name }

func (m *Module) live(phase errors.Phase) error {
	if m.zero() {
		return errors.InvalidInput(phase, "zero-value module")
	}
	if err := m.ctx.rt.checkLive(phase); err != nil {
		return err
	}
	if !m.ctx.rt.leases.Contains(m.lease) {
		return errors.StaleHandle(phase, m.entity())
	}
	return nil
}

// zero reports whether m was not created by Context.NewModule.
func (m *Module) zero() bool {
	return m == nil || m.ctx == nil || m.ctx.rt == nil
}

func (m *Module) lib() ffi.Library { return m.ctx.rt.lib }

// scope returns the scope of views owned by the module.
func (m *Module) scope() scope {
	return scope{rt: m.ctx.rt, ctx: m.ctx, lease: m.lease}
}

// DataLayout returns the module's data layout string.
func (m *Module) DataLayout() (string, error) {
	if err := m.live(errors.PhaseModule); err != nil {
		return "", err
	}
	return ffi.GoString(m.lib().GetDataLayout(m.ref)), nil
}

// SetDataLayout replaces the module's data layout string.
func (m *Module) SetDataLayout(layout string) error {
	if err := m.live(errors.PhaseModule); err != nil {
		return err
	}
	ffi.WithCString(layout, func(cs ffi.CString) {
		m.lib().SetDataLayout(m.ref, cs)
	})
	return nil
}

// Target returns the module's target triple.
func (m *Module) Target() (string, error) {
	if err := m.live(errors.PhaseModule); err != nil {
		return "", err
	}
	return ffi.GoString(m.lib().GetTarget(m.ref)), nil
}

// SetTarget replaces the module's target triple.
func (m *Module) SetTarget(triple string) error {
	if err := m.live(errors.PhaseModule); err != nil {
		return err
	}
	ffi.WithCString(triple, func(cs ffi.CString) {
		m.lib().SetTarget(m.ref, cs)
	})
	return nil
}

// SetInlineAsm replaces the module-level inline assembly.
func (m *Module) SetInlineAsm(asm string) error {
	if err := m.live(errors.PhaseModule); err != nil {
		return err
	}
	ffi.WithCString(asm, func(cs ffi.CString) {
		m.lib().SetModuleInlineAsm(m.ref, cs)
	})
	return nil
}

// Print writes the module's textual IR to filename. A failure carries the
// foreign library's message verbatim.
func (m *Module) Print(filename string) error {
	if err := m.live(errors.PhasePrint); err != nil {
		return err
	}
	var msg ffi.MessageRef
	var failed bool
	ffi.WithCString(filename, func(cs ffi.CString) {
		failed = m.lib().PrintModuleToFile(m.ref, cs, &msg).Go()
	})
	text := m.takeMessage(msg)
	if failed {
		if text == "" {
			text = "print failed"
		}
		return errors.Foreign(errors.PhasePrint, "print "+filename, text)
	}
	return nil
}

// PrintToString returns the module's textual IR.
func (m *Module) PrintToString() (string, error) {
	if err := m.live(errors.PhasePrint); err != nil {
		return "", err
	}
	return m.takeMessage(m.lib().PrintModuleToString(m.ref)), nil
}

// takeMessage copies a foreign message and releases it. A null message
// yields "".
func (m *Module) takeMessage(msg ffi.MessageRef) string {
	if msg == 0 {
		return ""
	}
	defer m.lib().DisposeMessage(msg)
	return ffi.GoString(m.lib().MessageBytes(msg))
}

// Type looks up a named type. A missing name is reported as KindNotFound
// rather than as a null type.
func (m *Module) Type(name string) (Type, error) {
	if err := m.live(errors.PhaseLookup); err != nil {
		return Type{}, err
	}
	var ref ffi.TypeRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = m.lib().GetTypeByName(m.ref, cs)
	})
	if ref == 0 {
		return Type{}, errors.NotFound(errors.PhaseLookup, "type", name)
	}
	return fromRef[Type](m.ctx.scope(), ref), nil
}

// NamedMDOperands returns the operands of the named metadata node name.
// An absent node has no operands.
func (m *Module) NamedMDOperands(name string) ([]Metadata, error) {
	if err := m.live(errors.PhaseMetadata); err != nil {
		return nil, err
	}
	var refs []ffi.ValueRef
	ffi.WithCString(name, func(cs ffi.CString) {
		n := m.lib().GetNamedMetadataNumOperands(m.ref, cs)
		refs = make([]ffi.ValueRef, n)
		if n > 0 {
			m.lib().GetNamedMetadataOperands(m.ref, cs, refs)
		}
	})
	return wrapAll[Metadata](m.ctx.scope(), refs), nil
}

// AddNamedMDOperand appends md to the named metadata node name, creating
// the node if needed.
func (m *Module) AddNamedMDOperand(name string, md Metadata) error {
	if err := m.live(errors.PhaseMetadata); err != nil {
		return err
	}
	if err := within(errors.PhaseMetadata, m.ctx, md, "metadata"); err != nil {
		return err
	}
	ffi.WithCString(name, func(cs ffi.CString) {
		m.lib().AddNamedMetadataOperand(m.ref, cs, md.ref)
	})
	return nil
}

// AddFunction declares a function of type fnType. Names are not checked
// for uniqueness here; the foreign library renames duplicates.
func (m *Module) AddFunction(name string, fnType FunctionType) (Function, error) {
	if err := m.live(errors.PhaseModule); err != nil {
		return Function{}, err
	}
	if err := within(errors.PhaseModule, m.ctx, fnType, "function type"); err != nil {
		return Function{}, err
	}
	var ref ffi.ValueRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = m.lib().AddFunction(m.ref, cs, fnType.ref)
	})
	return fromRef[Function](m.scope(), ref), nil
}

// NamedFunction looks up a function by symbol name.
func (m *Module) NamedFunction(name string) (Function, error) {
	if err := m.live(errors.PhaseLookup); err != nil {
		return Function{}, err
	}
	var ref ffi.ValueRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = m.lib().GetNamedFunction(m.ref, cs)
	})
	if ref == 0 {
		return Function{}, errors.NotFound(errors.PhaseLookup, "function", name)
	}
	return fromRef[Function](m.scope(), ref), nil
}

// EachFunction calls visit for every function in declaration order. It
// stops as soon as visit returns false and reports false in that case;
// walking the whole list reports true. visit must not add functions.
// Closing the module from inside visit ends the walk with KindStaleHandle.
func (m *Module) EachFunction(visit func(Function) bool) (bool, error) {
	if err := m.live(errors.PhaseModule); err != nil {
		return false, err
	}
	s := m.scope()
	for ref := m.lib().GetFirstFunction(m.ref); ref != 0; ref = m.lib().GetNextFunction(ref) {
		if !visit(fromRef[Function](s, ref)) {
			return false, nil
		}
		if err := m.live(errors.PhaseModule); err != nil {
			return false, err
		}
	}
	return true, nil
}

// Functions returns every function in declaration order.
func (m *Module) Functions() ([]Function, error) {
	var fns []Function
	_, err := m.EachFunction(func(f Function) bool {
		fns = append(fns, f)
		return true
	})
	return fns, err
}

// AddGlobal declares a global of element type ty in m. The element type is
// carried statically by the returned Global.
func AddGlobal[T Ty](m *Module, ty T, name string) (Global[T], error) {
	if err := m.live(errors.PhaseModule); err != nil {
		return Global[T]{}, err
	}
	if err := within(errors.PhaseModule, m.ctx, ty, "global type"); err != nil {
		return Global[T]{}, err
	}
	var ref ffi.ValueRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = m.lib().AddGlobal(m.ref, ty.ToRef(), cs)
	})
	g := fromRef[Global[T]](m.scope(), ref)
	g.ty = ty
	return g, nil
}

// Close disposes the foreign module and releases its hold on the context.
// Closing twice is a no-op.
func (m *Module) Close() error {
	if m.zero() {
		return errors.InvalidInput(errors.PhaseModule, "zero-value module")
	}
	leases := m.ctx.rt.leases
	if !leases.Contains(m.lease) {
		return nil
	}
	m.log.Debug("disposing module")
	m.ctx.rt.lib.DisposeModule(m.ref)
	leases.Remove(m.lease)
	leases.ReturnBorrow(m.ctx.lease)
	return nil
}
