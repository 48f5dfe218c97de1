package engine

import (
	"strconv"
	"strings"

	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

// Fixed metadata kinds every context starts with.
var builtinMDKinds = []string{"dbg", "tbaa", "prof", "fpmath", "range"}

type context struct {
	ref ffi.ContextRef

	types   map[string]*typ
	structs map[string]*typ
	order   []*typ // named structs in creation order

	mdKinds   map[string]uint32
	mdStrings map[string]*value
	mdNodes   map[string]*value

	modules map[ffi.ModuleRef]*module
	owned   []resource.Handle
}

type typeKind uint8

const (
	typeVoid typeKind = iota
	typeInt
	typeFunction
	typeStruct
	typeMetadata
)

type typ struct {
	ref      ffi.TypeRef
	ctx      *context
	kind     typeKind
	bits     uint32
	ret      *typ
	params   []*typ
	variadic bool
	name     string
}

func (t *typ) String() string {
	switch t.kind {
	case typeVoid:
		return "void"
	case typeInt:
		return "i" + strconv.FormatUint(uint64(t.bits), 10)
	case typeStruct:
		return "%" + t.name
	case typeMetadata:
		return "metadata"
	case typeFunction:
		var b strings.Builder
		b.WriteString(t.ret.String())
		b.WriteString(" (")
		b.WriteString(t.paramList())
		b.WriteByte(')')
		return b.String()
	}
	return "<invalid>"
}

func (t *typ) paramList() string {
	parts := make([]string, 0, len(t.params)+1)
	for _, p := range t.params {
		parts = append(parts, p.String())
	}
	if t.variadic {
		parts = append(parts, "...")
	}
	return strings.Join(parts, ", ")
}

func (e *Engine) ContextCreate() ffi.ContextRef {
	c := &context{
		types:     make(map[string]*typ),
		structs:   make(map[string]*typ),
		mdKinds:   make(map[string]uint32, len(builtinMDKinds)),
		mdStrings: make(map[string]*value),
		mdNodes:   make(map[string]*value),
		modules:   make(map[ffi.ModuleRef]*module),
	}
	for i, k := range builtinMDKinds {
		c.mdKinds[k] = uint32(i)
	}
	c.ref = ffi.ContextRef(e.table.Insert(kindContext, c))
	debugf("context create %#x", uint64(c.ref))
	return c.ref
}

// ContextDispose releases the context and everything rooted in it,
// including modules the caller failed to dispose first.
func (e *Engine) ContextDispose(r ffi.ContextRef) {
	c := lookup[context](e, "ContextDispose", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return
	}
	for mr, m := range c.modules {
		e.orphaned.Add(1)
		e.releaseModule(mr, m)
	}
	for _, h := range c.owned {
		e.table.Remove(h)
	}
	c.owned = nil
	e.table.Remove(resource.Handle(r))
	debugf("context dispose %#x", uint64(r))
}

func (e *Engine) GetMDKindIDInContext(r ffi.ContextRef, name []byte, length uint32) uint32 {
	c := lookup[context](e, "GetMDKindIDInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	if int(length) > len(name) {
		length = uint32(len(name))
	}
	key := string(name[:length])

	defer e.lock()()
	if id, ok := c.mdKinds[key]; ok {
		return id
	}
	id := uint32(len(c.mdKinds))
	c.mdKinds[key] = id
	return id
}

// Types

func (e *Engine) internType(c *context, key string, build func() *typ) ffi.TypeRef {
	defer e.lock()()
	if t, ok := c.types[key]; ok {
		return t.ref
	}
	t := build()
	t.ctx = c
	t.ref = ffi.TypeRef(e.table.Insert(kindType, t))
	c.owned = append(c.owned, resource.Handle(t.ref))
	c.types[key] = t
	return t.ref
}

func (e *Engine) IntTypeInContext(r ffi.ContextRef, bits uint32) ffi.TypeRef {
	c := lookup[context](e, "IntTypeInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	return e.internType(c, "i"+strconv.FormatUint(uint64(bits), 10), func() *typ {
		return &typ{kind: typeInt, bits: bits}
	})
}

func (e *Engine) VoidTypeInContext(r ffi.ContextRef) ffi.TypeRef {
	c := lookup[context](e, "VoidTypeInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	return e.internType(c, "void", func() *typ {
		return &typ{kind: typeVoid}
	})
}

func (e *Engine) metadataType(c *context) *typ {
	ref := e.internType(c, "metadata", func() *typ {
		return &typ{kind: typeMetadata}
	})
	v, _ := e.table.Get(resource.Handle(ref))
	return v.(*typ)
}

func (e *Engine) FunctionType(ret ffi.TypeRef, params []ffi.TypeRef, count uint32, variadic ffi.Bool) ffi.TypeRef {
	rt := lookup[typ](e, "FunctionType", ffi.Ref(ret), kindType, "return type")
	if rt == nil {
		return 0
	}
	if int(count) > len(params) {
		e.violate("FunctionType", 0, "parameter count exceeds buffer")
		return 0
	}
	ps := make([]*typ, 0, count)
	for _, p := range params[:count] {
		pt := lookup[typ](e, "FunctionType", ffi.Ref(p), kindType, "parameter type")
		if pt == nil {
			return 0
		}
		if pt.ctx != rt.ctx {
			e.violate("FunctionType", ffi.Ref(p), "parameter type from another context")
			return 0
		}
		ps = append(ps, pt)
	}
	ft := &typ{kind: typeFunction, ret: rt, params: ps, variadic: variadic.Go()}
	key := "fn:" + rt.String() + "(" + ft.paramList() + ")"
	return e.internType(rt.ctx, key, func() *typ { return ft })
}

// StructCreateNamed creates an opaque named struct. A taken name is
// uniqued with a numeric suffix.
func (e *Engine) StructCreateNamed(r ffi.ContextRef, name ffi.CString) ffi.TypeRef {
	c := lookup[context](e, "StructCreateNamed", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	defer e.lock()()
	n := uniqueName(ffi.GoString(name), func(s string) bool {
		_, taken := c.structs[s]
		return taken
	})
	t := &typ{kind: typeStruct, name: n, ctx: c}
	t.ref = ffi.TypeRef(e.table.Insert(kindType, t))
	c.owned = append(c.owned, resource.Handle(t.ref))
	c.structs[n] = t
	c.order = append(c.order, t)
	return t.ref
}

func (e *Engine) GetTypeContext(r ffi.TypeRef) ffi.ContextRef {
	t := lookup[typ](e, "GetTypeContext", ffi.Ref(r), kindType, "type")
	if t == nil {
		return 0
	}
	return t.ctx.ref
}

// Metadata

func (e *Engine) MDStringInContext(r ffi.ContextRef, str []byte, length uint32) ffi.ValueRef {
	c := lookup[context](e, "MDStringInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	if int(length) > len(str) {
		length = uint32(len(str))
	}
	s := string(str[:length])
	mt := e.metadataType(c)

	defer e.lock()()
	if v, ok := c.mdStrings[s]; ok {
		return v.ref
	}
	v := &value{kind: valueMDString, str: s, ty: mt, ctx: c}
	v.ref = ffi.ValueRef(e.table.Insert(kindValue, v))
	c.owned = append(c.owned, resource.Handle(v.ref))
	c.mdStrings[s] = v
	return v.ref
}

func (e *Engine) MDNodeInContext(r ffi.ContextRef, vals []ffi.ValueRef, count uint32) ffi.ValueRef {
	c := lookup[context](e, "MDNodeInContext", ffi.Ref(r), kindContext, "context")
	if c == nil {
		return 0
	}
	if int(count) > len(vals) {
		e.violate("MDNodeInContext", ffi.Ref(r), "operand count exceeds buffer")
		return 0
	}
	ops := make([]*value, 0, count)
	keys := make([]string, 0, count)
	for _, vr := range vals[:count] {
		op := lookup[value](e, "MDNodeInContext", ffi.Ref(vr), kindValue, "operand")
		if op == nil {
			return 0
		}
		if op.context() != c {
			e.violate("MDNodeInContext", ffi.Ref(vr), "operand from another context")
			return 0
		}
		ops = append(ops, op)
		keys = append(keys, strconv.FormatUint(uint64(op.ref), 16))
	}
	mt := e.metadataType(c)
	key := strings.Join(keys, ",")

	defer e.lock()()
	if v, ok := c.mdNodes[key]; ok {
		return v.ref
	}
	v := &value{kind: valueMDNode, ops: ops, ty: mt, ctx: c}
	v.ref = ffi.ValueRef(e.table.Insert(kindValue, v))
	c.owned = append(c.owned, resource.Handle(v.ref))
	c.mdNodes[key] = v
	return v.ref
}

// uniqueName returns base, or base.N for the first N that is not taken.
// The empty name is never uniqued.
func uniqueName(base string, taken func(string) bool) string {
	if base == "" || !taken(base) {
		return base
	}
	for i := 1; ; i++ {
		n := base + "." + strconv.Itoa(i)
		if !taken(n) {
			return n
		}
	}
}
