package runtime

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/ffi"
	"github.com/wippyai/ir-runtime/resource"
)

// Context owns one foreign context: the root every module, type and
// metadata value created through it is tied to. Close releases it, and is
// refused while any Module created from it is still open.
type Context struct {
	rt    *Runtime
	ref   ffi.ContextRef
	id    uuid.UUID
	lease resource.Handle
	log   *zap.Logger
}

var _ Wrapper[ffi.ContextRef] = (*Context)(nil)

func newContext(r *Runtime, ref ffi.ContextRef) *Context {
	c := &Context{
		rt:  r,
		ref: ref,
		id:  uuid.New(),
	}
	c.log = r.log.With(zap.Stringer("context", c.id))
	c.lease = r.leases.Insert(leaseContext, c)
	return c
}

// ToRef returns the raw foreign context reference.
func (c *Context) ToRef() ffi.ContextRef { return c.ref }

// ID returns the lineage identifier stamped into everything created from c.
func (c *Context) ID() uuid.UUID { return c.id }

func (c *Context) live(phase errors.Phase) error {
	if c == nil || c.rt == nil {
		return errors.InvalidInput(phase, "zero-value context")
	}
	if err := c.rt.checkLive(phase); err != nil {
		return err
	}
	if !c.rt.leases.Contains(c.lease) {
		return errors.StaleHandle(phase, "context "+c.id.String())
	}
	return nil
}

// scope returns the scope of views owned by the context itself.
func (c *Context) scope() scope {
	return scope{rt: c.rt, ctx: c, lease: c.lease}
}

// NewModule creates an empty module in c. The module must be closed before
// c can be closed. Names containing NUL are truncated at the first NUL.
func (c *Context) NewModule(name string) (*Module, error) {
	if err := c.live(errors.PhaseContext); err != nil {
		return nil, err
	}
	var ref ffi.ModuleRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = c.rt.lib.ModuleCreateWithNameInContext(cs, c.ref)
	})
	m := &Module{
		ctx:  c,
		ref:  ref,
		name: name,
		log:  c.log.With(zap.String("module", name)),
	}
	m.lease = c.rt.leases.Insert(leaseModule, m)
	c.rt.leases.Borrow(c.lease)
	m.log.Debug("created module")
	return m, nil
}

// MDKindID interns name in the context's metadata kind registry. The same
// name yields the same id for the life of the context.
func (c *Context) MDKindID(name string) (uint32, error) {
	if err := c.live(errors.PhaseMetadata); err != nil {
		return 0, err
	}
	return c.rt.lib.GetMDKindIDInContext(c.ref, []byte(name), uint32(len(name))), nil
}

// IntType returns the integer type of the given bit width.
func (c *Context) IntType(bits uint32) (IntType, error) {
	if err := c.live(errors.PhaseContext); err != nil {
		return IntType{}, err
	}
	if bits == 0 || bits > maxIntBits {
		return IntType{}, errors.New(errors.PhaseContext, errors.KindInvalidInput).
			Detail("integer width %d out of range [1, %d]", bits, maxIntBits).
			Value(bits).
			Build()
	}
	return fromRef[IntType](c.scope(), c.rt.lib.IntTypeInContext(c.ref, bits)), nil
}

// maxIntBits is the widest integer type the foreign library supports.
const maxIntBits = 1 << 23

// VoidType returns the void type.
func (c *Context) VoidType() (Type, error) {
	if err := c.live(errors.PhaseContext); err != nil {
		return Type{}, err
	}
	return fromRef[Type](c.scope(), c.rt.lib.VoidTypeInContext(c.ref)), nil
}

// FunctionType returns the signature type ret(params...), optionally
// variadic. Every type must come from c.
func (c *Context) FunctionType(ret Ty, params []Ty, variadic bool) (FunctionType, error) {
	if err := c.live(errors.PhaseContext); err != nil {
		return FunctionType{}, err
	}
	if err := within(errors.PhaseContext, c, ret, "return type"); err != nil {
		return FunctionType{}, err
	}
	refs := make([]ffi.TypeRef, len(params))
	for i, p := range params {
		if err := within(errors.PhaseContext, c, p, "parameter type"); err != nil {
			return FunctionType{}, err
		}
		refs[i] = p.ToRef()
	}
	ref := c.rt.lib.FunctionType(ret.ToRef(), refs, uint32(len(refs)), ffi.BoolOf(variadic))
	return fromRef[FunctionType](c.scope(), ref), nil
}

// NamedStruct creates an opaque named struct type. A name already taken in
// c is uniqued by the foreign library.
func (c *Context) NamedStruct(name string) (StructType, error) {
	if err := c.live(errors.PhaseContext); err != nil {
		return StructType{}, err
	}
	var ref ffi.TypeRef
	ffi.WithCString(name, func(cs ffi.CString) {
		ref = c.rt.lib.StructCreateNamed(c.ref, cs)
	})
	return fromRef[StructType](c.scope(), ref), nil
}

// MDString returns the metadata string s.
func (c *Context) MDString(s string) (Metadata, error) {
	if err := c.live(errors.PhaseMetadata); err != nil {
		return Metadata{}, err
	}
	return fromRef[Metadata](c.scope(), c.rt.lib.MDStringInContext(c.ref, []byte(s), uint32(len(s)))), nil
}

// MDNode returns the metadata tuple of ops.
func (c *Context) MDNode(ops ...Metadata) (Metadata, error) {
	if err := c.live(errors.PhaseMetadata); err != nil {
		return Metadata{}, err
	}
	refs := make([]ffi.ValueRef, len(ops))
	for i, op := range ops {
		if err := within(errors.PhaseMetadata, c, op, "metadata operand"); err != nil {
			return Metadata{}, err
		}
		refs[i] = op.ref
	}
	return fromRef[Metadata](c.scope(), c.rt.lib.MDNodeInContext(c.ref, refs, uint32(len(refs)))), nil
}

// Close disposes the foreign context. It fails with KindInUse while modules
// created from c are open, leaving c usable. Closing twice is a no-op.
func (c *Context) Close() error {
	if c == nil || c.rt == nil {
		return errors.InvalidInput(errors.PhaseContext, "zero-value context")
	}
	if !c.rt.leases.Contains(c.lease) {
		return nil
	}
	if n, _ := c.rt.leases.Borrows(c.lease); n > 0 {
		return errors.InUse(errors.PhaseContext, "context "+c.id.String(), n)
	}
	if _, ok := c.rt.leases.Remove(c.lease); !ok {
		return errors.StaleHandle(errors.PhaseContext, "context "+c.id.String())
	}
	c.log.Debug("disposing context")
	c.rt.lib.ContextDispose(c.ref)
	return nil
}
