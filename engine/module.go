package engine

import (
	"os"

	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

type module struct {
	ref    ffi.ModuleRef
	ctx    *context
	name   string
	layout string
	target string
	asm    string

	firstFn *value
	lastFn  *value
	globals []*value
	symbols map[string]*value

	namedMD    map[string][]*value
	namedOrder []string

	owned []resource.Handle
}

type valueKind uint8

const (
	valueFunction valueKind = iota
	valueGlobal
	valueMDString
	valueMDNode
)

type value struct {
	ref  ffi.ValueRef
	kind valueKind
	name string
	ty   *typ
	ctx  *context
	mod  *module
	next *value
	str  string
	ops  []*value
}

func (v *value) context() *context {
	if v.mod != nil {
		return v.mod.ctx
	}
	return v.ctx
}

func (e *Engine) ModuleCreateWithNameInContext(name ffi.CString, r ffi.ContextRef) ffi.ModuleRef {
	c := lookup[context](e, "ModuleCreateWithNameInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	m := &module{
		ctx:     c,
		name:    ffi.GoString(name),
		symbols: make(map[string]*value),
		namedMD: make(map[string][]*value),
	}
	m.ref = ffi.ModuleRef(e.table.Insert(kindModule, m))
	c.modules[m.ref] = m
	debugf("module create %q %#x", m.name, uint64(m.ref))
	return m.ref
}

func (e *Engine) DisposeModule(r ffi.ModuleRef) {
	m := lookup[module](e, "DisposeModule", ffi.Ref(r), kindModule, "module")
	if m == nil {
		return
	}
	e.releaseModule(r, m)
}

func (e *Engine) releaseModule(r ffi.ModuleRef, m *module) {
	for _, h := range m.owned {
		e.table.Remove(h)
	}
	m.owned = nil
	delete(m.ctx.modules, r)
	e.table.Remove(resource.Handle(r))
	debugf("module dispose %q %#x", m.name, uint64(r))
}

func (e *Engine) module(op string, r ffi.ModuleRef) *module {
	return lookup[module](e, op, ffi.Ref(r), kindModule, "module")
}

func (e *Engine) GetModuleContext(r ffi.ModuleRef) ffi.ContextRef {
	if m := e.module("GetModuleContext", r); m != nil {
		return m.ctx.ref
	}
	return 0
}

func (e *Engine) GetDataLayout(r ffi.ModuleRef) ffi.CString {
	if m := e.module("GetDataLayout", r); m != nil {
		return cstr(m.layout)
	}
	return nil
}

func (e *Engine) SetDataLayout(r ffi.ModuleRef, layout ffi.CString) {
	if m := e.module("SetDataLayout", r); m != nil {
		m.layout = ffi.GoString(layout)
	}
}

func (e *Engine) GetTarget(r ffi.ModuleRef) ffi.CString {
	if m := e.module("GetTarget", r); m != nil {
		return cstr(m.target)
	}
	return nil
}

func (e *Engine) SetTarget(r ffi.ModuleRef, triple ffi.CString) {
	if m := e.module("SetTarget", r); m != nil {
		m.target = ffi.GoString(triple)
	}
}

func (e *Engine) SetModuleInlineAsm(r ffi.ModuleRef, asm ffi.CString) {
	if m := e.module("SetModuleInlineAsm", r); m != nil {
		m.asm = ffi.GoString(asm)
	}
}

// GetTypeByName searches the named structs of the module's context.
// A miss returns the null reference.
func (e *Engine) GetTypeByName(r ffi.ModuleRef, name ffi.CString) ffi.TypeRef {
	m := e.module("GetTypeByName", r)
	if m == nil {
		return 0
	}
	defer e.lock()()
	if t, ok := m.ctx.structs[ffi.GoString(name)]; ok {
		return t.ref
	}
	return 0
}

func (e *Engine) PrintModuleToFile(r ffi.ModuleRef, filename ffi.CString, errMsg *ffi.MessageRef) ffi.Bool {
	m := e.module("PrintModuleToFile", r)
	if m == nil {
		if errMsg != nil {
			*errMsg = e.newMessage("invalid module")
		}
		return ffi.True
	}
	if err := os.WriteFile(ffi.GoString(filename), []byte(render(m)), 0o644); err != nil {
		if errMsg != nil {
			*errMsg = e.newMessage(err.Error())
		}
		return ffi.True
	}
	return ffi.False
}

func (e *Engine) PrintModuleToString(r ffi.ModuleRef) ffi.MessageRef {
	m := e.module("PrintModuleToString", r)
	if m == nil {
		return 0
	}
	return e.newMessage(render(m))
}

// Named metadata

func (e *Engine) GetNamedMetadataNumOperands(r ffi.ModuleRef, name ffi.CString) uint32 {
	m := e.module("GetNamedMetadataNumOperands", r)
	if m == nil {
		return 0
	}
	return uint32(len(m.namedMD[ffi.GoString(name)]))
}

func (e *Engine) GetNamedMetadataOperands(r ffi.ModuleRef, name ffi.CString, dest []ffi.ValueRef) {
	m := e.module("GetNamedMetadataOperands", r)
	if m == nil {
		return
	}
	ops := m.namedMD[ffi.GoString(name)]
	if len(dest) < len(ops) {
		e.violate("GetNamedMetadataOperands", ffi.Ref(r), "destination buffer too small")
		return
	}
	for i, op := range ops {
		dest[i] = op.ref
	}
}

// AddNamedMetadataOperand appends val, creating the named node if absent.
func (e *Engine) AddNamedMetadataOperand(r ffi.ModuleRef, name ffi.CString, val ffi.ValueRef) {
	m := e.module("AddNamedMetadataOperand", r)
	if m == nil {
		return
	}
	v := lookup[value](e, "AddNamedMetadataOperand", ffi.Ref(val), kindValue, "metadata")
	if v == nil {
		return
	}
	if v.kind != valueMDNode && v.kind != valueMDString {
		e.violate("AddNamedMetadataOperand", ffi.Ref(val), "operand is not metadata")
		return
	}
	if v.context() != m.ctx {
		e.violate("AddNamedMetadataOperand", ffi.Ref(val), "metadata from another context")
		return
	}
	n := ffi.GoString(name)
	if _, ok := m.namedMD[n]; !ok {
		m.namedOrder = append(m.namedOrder, n)
	}
	m.namedMD[n] = append(m.namedMD[n], v)
}

// Functions and globals

func (e *Engine) addSymbol(m *module, v *value, name string) {
	v.name = uniqueName(name, func(s string) bool {
		_, taken := m.symbols[s]
		return taken
	})
	v.mod = m
	v.ref = ffi.ValueRef(e.table.Insert(kindValue, v))
	m.owned = append(m.owned, resource.Handle(v.ref))
	if v.name != "" {
		m.symbols[v.name] = v
	}
}

func (e *Engine) AddFunction(r ffi.ModuleRef, name ffi.CString, fnType ffi.TypeRef) ffi.ValueRef {
	m := e.module("AddFunction", r)
	if m == nil {
		return 0
	}
	ft := lookup[typ](e, "AddFunction", ffi.Ref(fnType), kindType, "function type")
	if ft == nil {
		return 0
	}
	if ft.kind != typeFunction {
		e.violate("AddFunction", ffi.Ref(fnType), "not a function type")
		return 0
	}
	if ft.ctx != m.ctx {
		e.violate("AddFunction", ffi.Ref(fnType), "type from another context")
		return 0
	}
	fn := &value{kind: valueFunction, ty: ft}
	e.addSymbol(m, fn, ffi.GoString(name))
	if m.lastFn == nil {
		m.firstFn = fn
	} else {
		m.lastFn.next = fn
	}
	m.lastFn = fn
	return fn.ref
}

func (e *Engine) GetNamedFunction(r ffi.ModuleRef, name ffi.CString) ffi.ValueRef {
	m := e.module("GetNamedFunction", r)
	if m == nil {
		return 0
	}
	if v, ok := m.symbols[ffi.GoString(name)]; ok && v.kind == valueFunction {
		return v.ref
	}
	return 0
}

func (e *Engine) GetFirstFunction(r ffi.ModuleRef) ffi.ValueRef {
	m := e.module("GetFirstFunction", r)
	if m == nil || m.firstFn == nil {
		return 0
	}
	return m.firstFn.ref
}

func (e *Engine) GetNextFunction(r ffi.ValueRef) ffi.ValueRef {
	fn := lookup[value](e, "GetNextFunction", ffi.Ref(r), kindValue, "function")
	if fn == nil || fn.next == nil {
		return 0
	}
	return fn.next.ref
}

func (e *Engine) AddGlobal(r ffi.ModuleRef, ty ffi.TypeRef, name ffi.CString) ffi.ValueRef {
	m := e.module("AddGlobal", r)
	if m == nil {
		return 0
	}
	t := lookup[typ](e, "AddGlobal", ffi.Ref(ty), kindType, "type")
	if t == nil {
		return 0
	}
	if t.ctx != m.ctx {
		e.violate("AddGlobal", ffi.Ref(ty), "type from another context")
		return 0
	}
	g := &value{kind: valueGlobal, ty: t}
	e.addSymbol(m, g, ffi.GoString(name))
	m.globals = append(m.globals, g)
	return g.ref
}

func (e *Engine) GetValueName(r ffi.ValueRef) ffi.CString {
	v := lookup[value](e, "GetValueName", ffi.Ref(r), kindValue, "value")
	if v == nil {
		return nil
	}
	return cstr(v.name)
}

func (e *Engine) TypeOf(r ffi.ValueRef) ffi.TypeRef {
	v := lookup[value](e, "TypeOf", ffi.Ref(r), kindValue, "value")
	if v == nil {
		return 0
	}
	return v.ty.ref
}
