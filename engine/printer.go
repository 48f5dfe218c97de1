package engine

import (
	"strconv"
	"strings"
)

// render produces the textual form of m. Sections are separated by a blank
// line and the output always ends with a newline.
func render(m *module) string {
	var b strings.Builder

	b.WriteString("; ModuleID = '")
	b.WriteString(m.name)
	b.WriteString("'\n")
	b.WriteString("source_filename = ")
	b.WriteString(quote(m.name))
	b.WriteByte('\n')
	if m.layout != "" {
		b.WriteString("target datalayout = ")
		b.WriteString(quote(m.layout))
		b.WriteByte('\n')
	}
	if m.target != "" {
		b.WriteString("target triple = ")
		b.WriteString(quote(m.target))
		b.WriteByte('\n')
	}

	if m.asm != "" {
		b.WriteByte('\n')
		for _, line := range strings.Split(strings.TrimSuffix(m.asm, "\n"), "\n") {
			b.WriteString("module asm ")
			b.WriteString(quote(line))
			b.WriteByte('\n')
		}
	}

	if len(m.ctx.order) > 0 {
		b.WriteByte('\n')
		for _, t := range m.ctx.order {
			b.WriteString(t.String())
			b.WriteString(" = type opaque\n")
		}
	}

	// Unnamed globals and functions share one numbering, globals first.
	unnamed := 0
	global := func(name string) string {
		if name != "" {
			return Symbol(name)
		}
		id := unnamed
		unnamed++
		return "@" + strconv.Itoa(id)
	}

	if len(m.globals) > 0 {
		b.WriteByte('\n')
		for _, g := range m.globals {
			b.WriteString(global(g.name))
			b.WriteString(" = external global ")
			b.WriteString(g.ty.String())
			b.WriteByte('\n')
		}
	}

	for fn := m.firstFn; fn != nil; fn = fn.next {
		b.WriteString("\ndeclare ")
		b.WriteString(fn.ty.ret.String())
		b.WriteByte(' ')
		b.WriteString(global(fn.name))
		b.WriteByte('(')
		b.WriteString(fn.ty.paramList())
		b.WriteString(")\n")
	}

	if len(m.namedOrder) > 0 {
		slots := newSlotTracker()
		var named strings.Builder
		for _, n := range m.namedOrder {
			named.WriteString(symbol('!', n))
			named.WriteString(" = !{")
			for i, op := range m.namedMD[n] {
				if i > 0 {
					named.WriteString(", ")
				}
				named.WriteString(slots.ref(op))
			}
			named.WriteString("}\n")
		}
		b.WriteByte('\n')
		b.WriteString(named.String())
		if len(slots.nodes) > 0 {
			b.WriteByte('\n')
			// slots.nodes grows while rendering nested operands.
			for i := 0; i < len(slots.nodes); i++ {
				node := slots.nodes[i]
				b.WriteString("!" + strconv.Itoa(i) + " = !{")
				for j, op := range node.ops {
					if j > 0 {
						b.WriteString(", ")
					}
					b.WriteString(slots.ref(op))
				}
				b.WriteString("}\n")
			}
		}
	}

	return b.String()
}

type slotTracker struct {
	ids   map[*value]int
	nodes []*value
}

func newSlotTracker() *slotTracker {
	return &slotTracker{ids: make(map[*value]int)}
}

// ref returns the textual reference to a metadata operand, numbering nodes
// in first-use order.
func (s *slotTracker) ref(v *value) string {
	if v.kind == valueMDString {
		return "!" + quote(v.str)
	}
	id, ok := s.ids[v]
	if !ok {
		id = len(s.nodes)
		s.ids[v] = id
		s.nodes = append(s.nodes, v)
	}
	return "!" + strconv.Itoa(id)
}

// Symbol renders the identifier of a named function or global as it
// appears in printed IR.
func Symbol(name string) string {
	return symbol('@', name)
}

// symbol renders a global identifier, quoting names that are not plain.
func symbol(sigil byte, name string) string {
	if name == "" {
		return string(sigil) + quote(name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '.' || c == '$' || c == '-') {
			return string(sigil) + quote(name)
		}
	}
	return string(sigil) + name
}

// quote renders s as an IR string literal, escaping quotes, backslashes and
// non-printable bytes as \XX.
func quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= 0x7f {
			const hex = "0123456789ABCDEF"
			b.WriteByte('\\')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0xF])
			continue
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}
