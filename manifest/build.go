package manifest

import (
	"strconv"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/ir-runtime/errors"
	"github.com/wippyai/ir-runtime/runtime"
)

// builder resolves manifest spellings against one context.
type builder struct {
	ctx     *runtime.Context
	structs map[string]runtime.StructType
}

// Build creates the described module in ctx. The caller owns the returned
// module. On failure nothing is left open.
func (m *Manifest) Build(ctx *runtime.Context) (mod *runtime.Module, err error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	created, err := ctx.NewModule(m.Module)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, created.Close())
			mod = nil
		}
	}()
	mod = created

	if m.Target != "" {
		if err := mod.SetTarget(m.Target); err != nil {
			return nil, err
		}
	}
	if m.DataLayout != "" {
		if err := mod.SetDataLayout(m.DataLayout); err != nil {
			return nil, err
		}
	}
	if m.Asm != "" {
		if err := mod.SetInlineAsm(m.Asm); err != nil {
			return nil, err
		}
	}

	b := &builder{ctx: ctx, structs: make(map[string]runtime.StructType, len(m.Structs))}
	for _, name := range m.Structs {
		st, err := b.namedStruct(mod, name)
		if err != nil {
			return nil, err
		}
		b.structs[name] = st
	}

	for i, g := range m.Globals {
		ty, err := b.resolve(g.Type, []string{"globals", strconv.Itoa(i), "type"})
		if err != nil {
			return nil, err
		}
		if _, err := runtime.AddGlobal(mod, ty, g.Name); err != nil {
			return nil, err
		}
	}

	for i, f := range m.Functions {
		path := []string{"functions", strconv.Itoa(i)}
		fty, err := b.signature(f, path)
		if err != nil {
			return nil, err
		}
		if _, err := mod.AddFunction(f.Name, fty); err != nil {
			return nil, err
		}
	}

	for i, md := range m.Metadata {
		path := []string{"metadata", strconv.Itoa(i)}
		for j := range md.Operands {
			op, err := b.operand(&md.Operands[j], append(path, "operands", strconv.Itoa(j)))
			if err != nil {
				return nil, err
			}
			if err := mod.AddNamedMDOperand(md.Name, op); err != nil {
				return nil, err
			}
		}
	}
	return mod, nil
}

// namedStruct reuses a struct already registered in the context under
// name, so building the same manifest twice in one context does not
// produce renamed copies.
func (b *builder) namedStruct(mod *runtime.Module, name string) (runtime.StructType, error) {
	if existing, err := mod.Type(name); err == nil {
		return runtime.StructType(existing), nil
	} else if !errors.IsKind(err, errors.KindNotFound) {
		return runtime.StructType{}, err
	}
	return b.ctx.NamedStruct(name)
}

func (b *builder) resolve(s string, path []string) (runtime.Ty, error) {
	spec, ok := parseType(s)
	if !ok {
		return nil, errors.InvalidData(errors.PhaseBuild, path, "unknown type "+strconv.Quote(s))
	}
	switch spec.kind {
	case typeVoid:
		return b.ctx.VoidType()
	case typeInt:
		return b.ctx.IntType(spec.bits)
	default:
		st, ok := b.structs[spec.name]
		if !ok {
			return nil, errors.InvalidData(errors.PhaseBuild, path, "undeclared struct "+s)
		}
		return st, nil
	}
}

func (b *builder) signature(f Function, path []string) (runtime.FunctionType, error) {
	ret, err := b.resolve(f.Ret, append(path, "ret"))
	if err != nil {
		return runtime.FunctionType{}, err
	}
	params := make([]runtime.Ty, len(f.Params))
	for i, p := range f.Params {
		if params[i], err = b.resolve(p, append(path, "params", strconv.Itoa(i))); err != nil {
			return runtime.FunctionType{}, err
		}
	}
	return b.ctx.FunctionType(ret, params, f.Variadic)
}

func (b *builder) operand(n *yaml.Node, path []string) (runtime.Metadata, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return b.ctx.MDString(n.Value)
	case yaml.SequenceNode:
		ops := make([]runtime.Metadata, len(n.Content))
		for i, c := range n.Content {
			op, err := b.operand(c, append(path, strconv.Itoa(i)))
			if err != nil {
				return runtime.Metadata{}, err
			}
			ops[i] = op
		}
		return b.ctx.MDNode(ops...)
	}
	return runtime.Metadata{}, errors.InvalidData(errors.PhaseBuild, path, "metadata operand must be a string or a list")
}
