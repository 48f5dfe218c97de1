package manifest

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/ir-runtime/errors"
)

// Manifest describes one module declaratively.
type Manifest struct {
	// Module is the module name. Required.
	Module string `yaml:"module"`

	Target     string `yaml:"target,omitempty"`
	DataLayout string `yaml:"datalayout,omitempty"`

	// Asm is module-level inline assembly, one statement per line.
	Asm string `yaml:"asm,omitempty"`

	// Structs lists opaque named struct types, referenced elsewhere as %Name.
	Structs []string `yaml:"structs,omitempty"`

	Globals   []Global   `yaml:"globals,omitempty"`
	Functions []Function `yaml:"functions,omitempty"`

	// Metadata lists named metadata nodes in output order.
	Metadata []NamedMetadata `yaml:"metadata,omitempty"`
}

// Global declares an external global variable.
type Global struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// Function declares a function by signature.
type Function struct {
	Name     string   `yaml:"name"`
	Ret      string   `yaml:"ret"`
	Params   []string `yaml:"params,omitempty"`
	Variadic bool     `yaml:"variadic,omitempty"`
}

// NamedMetadata is a named metadata node. Each operand is either a scalar,
// which becomes a metadata string, or a sequence, which becomes a node of
// its elements.
type NamedMetadata struct {
	Name     string      `yaml:"name"`
	Operands []yaml.Node `yaml:"operands"`
}

// Load reads and parses the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "read manifest "+path)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest. Unknown fields are rejected.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil {
		return nil, errors.ParseFailed("manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest without touching any foreign state: names
// are present, type spellings parse, and struct references are declared.
func (m *Manifest) Validate() error {
	if m.Module == "" {
		return errors.InvalidData(errors.PhaseParse, []string{"module"}, "module name is required")
	}

	structs := make(map[string]bool, len(m.Structs))
	for i, s := range m.Structs {
		path := []string{"structs", strconv.Itoa(i)}
		if s == "" {
			return errors.InvalidData(errors.PhaseParse, path, "struct name is required")
		}
		if structs[s] {
			return errors.InvalidData(errors.PhaseParse, path, "duplicate struct "+s)
		}
		structs[s] = true
	}

	for i, g := range m.Globals {
		path := []string{"globals", strconv.Itoa(i)}
		if g.Name == "" {
			return errors.InvalidData(errors.PhaseParse, path, "global name is required")
		}
		if err := checkType(structs, g.Type, false, append(path, "type")); err != nil {
			return err
		}
	}

	for i, f := range m.Functions {
		path := []string{"functions", strconv.Itoa(i)}
		if f.Name == "" {
			return errors.InvalidData(errors.PhaseParse, path, "function name is required")
		}
		if err := checkType(structs, f.Ret, true, append(path, "ret")); err != nil {
			return err
		}
		for j, p := range f.Params {
			if err := checkType(structs, p, false, append(path, "params", strconv.Itoa(j))); err != nil {
				return err
			}
		}
	}

	for i, md := range m.Metadata {
		path := []string{"metadata", strconv.Itoa(i)}
		if md.Name == "" {
			return errors.InvalidData(errors.PhaseParse, path, "metadata name is required")
		}
		for j := range md.Operands {
			if err := checkOperand(&md.Operands[j], append(path, "operands", strconv.Itoa(j))); err != nil {
				return err
			}
		}
	}
	return nil
}

// typeSpec is a parsed type spelling.
type typeSpec struct {
	kind typeKind
	bits uint32
	name string
}

type typeKind int

const (
	typeVoid typeKind = iota
	typeInt
	typeStruct
)

// parseType parses "void", "iN" or "%Name".
func parseType(s string) (typeSpec, bool) {
	switch {
	case s == "void":
		return typeSpec{kind: typeVoid}, true
	case strings.HasPrefix(s, "%") && len(s) > 1:
		return typeSpec{kind: typeStruct, name: s[1:]}, true
	case strings.HasPrefix(s, "i"):
		bits, err := strconv.ParseUint(s[1:], 10, 32)
		if err != nil || bits == 0 {
			return typeSpec{}, false
		}
		return typeSpec{kind: typeInt, bits: uint32(bits)}, true
	}
	return typeSpec{}, false
}

func checkType(structs map[string]bool, s string, allowVoid bool, path []string) error {
	spec, ok := parseType(s)
	if !ok {
		return errors.InvalidData(errors.PhaseParse, path, "unknown type "+strconv.Quote(s))
	}
	switch spec.kind {
	case typeVoid:
		if !allowVoid {
			return errors.InvalidData(errors.PhaseParse, path, "void is only valid as a return type")
		}
	case typeStruct:
		if !structs[spec.name] {
			return errors.InvalidData(errors.PhaseParse, path, "undeclared struct "+s)
		}
	}
	return nil
}

func checkOperand(n *yaml.Node, path []string) error {
	switch n.Kind {
	case yaml.ScalarNode:
		return nil
	case yaml.SequenceNode:
		for i, c := range n.Content {
			if err := checkOperand(c, append(path, strconv.Itoa(i))); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.InvalidData(errors.PhaseParse, path, "metadata operand must be a string or a list")
}
