package indexer

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// DefaultDumpLanguage is assumed when a dump does not name its language
const DefaultDumpLanguage = "angelscript"

// Dump is a symbol dump exported by a scripting engine. Dumps are YAML; JSON
// dumps decode the same way.
type Dump struct {
	Language   string          `yaml:"language"`
	Origin     types.Origin    `yaml:"origin"`
	Namespaces []DumpNamespace `yaml:"namespaces"`
}

// DumpNamespace lists the symbols declared in one namespace. The empty name
// is the root namespace.
type DumpNamespace struct {
	Name      string         `yaml:"name"`
	Types     []DumpType     `yaml:"types"`
	Functions []DumpFunction `yaml:"functions"`
	Variables []DumpVariable `yaml:"variables"`
}

// DumpType is a type with its members
type DumpType struct {
	Name       string         `yaml:"name"`
	Kind       types.TypeKind `yaml:"kind"`
	Super      string         `yaml:"super"`
	Template   bool           `yaml:"template"`
	Signature  string         `yaml:"signature"`
	Doc        string         `yaml:"doc"`
	Origin     types.Origin   `yaml:"origin"`
	Methods    []DumpFunction `yaml:"methods"`
	Properties []DumpVariable `yaml:"properties"`
	Nested     []DumpType     `yaml:"nested"`
}

// DumpFunction is a method, constructor or global function
type DumpFunction struct {
	Name        string        `yaml:"name"`
	Return      string        `yaml:"return"`
	Params      []types.Param `yaml:"params"`
	Signature   string        `yaml:"signature"`
	Doc         string        `yaml:"doc"`
	Constructor bool          `yaml:"constructor"`
	Generated   bool          `yaml:"generated"`
	Mixin       bool          `yaml:"mixin"`
	Static      bool          `yaml:"static"`
	Const       bool          `yaml:"const"`
	Origin      types.Origin  `yaml:"origin"`
}

// DumpVariable is a property or global variable
type DumpVariable struct {
	Name      string       `yaml:"name"`
	Type      string       `yaml:"type"`
	Signature string       `yaml:"signature"`
	Doc       string       `yaml:"doc"`
	Constant  bool         `yaml:"constant"`
	Origin    types.Origin `yaml:"origin"`
}

// ParseDump decodes and validates a symbol dump
func ParseDump(content []byte) (*Dump, error) {
	var dump Dump
	if err := yaml.Unmarshal(content, &dump); err != nil {
		return nil, fmt.Errorf("failed to decode symbol dump: %w", err)
	}
	if dump.Language == "" {
		dump.Language = DefaultDumpLanguage
	}
	if dump.Origin == "" {
		dump.Origin = types.OriginNative
	}
	if err := dump.validate(); err != nil {
		return nil, err
	}
	return &dump, nil
}

func (d *Dump) validate() error {
	var errs []error
	if err := validateOrigin(d.Origin); err != nil {
		errs = append(errs, err)
	}
	for _, ns := range d.Namespaces {
		for _, t := range ns.Types {
			errs = append(errs, validateType(ns.Name, t)...)
		}
		for _, f := range ns.Functions {
			errs = append(errs, validateFunction(ns.Name, f))
		}
		for _, v := range ns.Variables {
			errs = append(errs, validateVariable(ns.Name, v))
		}
	}
	return errors.Join(errs...)
}

func validateType(scope string, t DumpType) []error {
	var errs []error
	if t.Name == "" {
		errs = append(errs, fmt.Errorf("%s: type without a name", scopeName(scope)))
	}
	if err := types.ValidateTypeKind(t.Kind); err != nil {
		errs = append(errs, fmt.Errorf("%s: type %s: %w", scopeName(scope), t.Name, err))
	}
	errs = append(errs, validateOrigin(t.Origin))
	for _, m := range t.Methods {
		errs = append(errs, validateFunction(t.Name, m))
	}
	for _, p := range t.Properties {
		errs = append(errs, validateVariable(t.Name, p))
	}
	for _, n := range t.Nested {
		errs = append(errs, validateType(t.Name, n)...)
	}
	return errs
}

func validateFunction(scope string, f DumpFunction) error {
	if f.Name == "" {
		return fmt.Errorf("%s: function without a name", scopeName(scope))
	}
	return validateOrigin(f.Origin)
}

func validateVariable(scope string, v DumpVariable) error {
	if v.Name == "" {
		return fmt.Errorf("%s: variable without a name", scopeName(scope))
	}
	return validateOrigin(v.Origin)
}

func validateOrigin(o types.Origin) error {
	switch o {
	case "", types.OriginNative, types.OriginScript:
		return nil
	default:
		return fmt.Errorf("invalid origin %q", o)
	}
}

func scopeName(scope string) string {
	if scope == "" {
		return "<root>"
	}
	return scope
}

// declSets converts the dump into per-namespace declarations
func (d *Dump) declSets() []declSet {
	sets := make([]declSet, 0, len(d.Namespaces))
	for _, ns := range d.Namespaces {
		result := &types.ParseResult{}
		for _, t := range ns.Types {
			result.Types = append(result.Types, t.decl())
		}
		for _, f := range ns.Functions {
			result.Functions = append(result.Functions, f.decl(""))
		}
		for _, v := range ns.Variables {
			result.Variables = append(result.Variables, v.decl())
		}
		sets = append(sets, declSet{namespace: strings.TrimSpace(ns.Name), result: result})
	}
	return sets
}

func (t DumpType) decl() types.TypeDecl {
	decl := types.TypeDecl{
		Name:      t.Name,
		Kind:      t.Kind,
		Super:     t.Super,
		Template:  t.Template,
		Signature: t.Signature,
		Doc:       t.Doc,
		Origin:    t.Origin,
	}
	if decl.Signature == "" {
		decl.Signature = string(t.Kind) + " " + t.Name
		if t.Super != "" {
			decl.Signature += " : " + t.Super
		}
	}
	for _, m := range t.Methods {
		decl.Methods = append(decl.Methods, m.decl(t.Name))
	}
	for _, p := range t.Properties {
		decl.Properties = append(decl.Properties, p.decl())
	}
	for _, n := range t.Nested {
		decl.Nested = append(decl.Nested, n.decl())
	}
	return decl
}

func (f DumpFunction) decl(receiver string) types.FuncDecl {
	decl := types.FuncDecl{
		Name:        f.Name,
		Receiver:    receiver,
		ReturnType:  f.Return,
		Params:      f.Params,
		Signature:   f.Signature,
		Doc:         f.Doc,
		Constructor: f.Constructor,
		Generated:   f.Generated,
		Mixin:       f.Mixin,
		Static:      f.Static,
		Const:       f.Const,
		Origin:      f.Origin,
	}
	if decl.Signature == "" {
		decl.Signature = functionSignature(f)
	}
	return decl
}

// functionSignature renders "Return Name(Type Name = Default) const"
func functionSignature(f DumpFunction) string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		s := strings.TrimSpace(p.Type + " " + p.Name)
		if p.Default != "" {
			s += " = " + p.Default
		}
		params[i] = s
	}

	var b strings.Builder
	if f.Static {
		b.WriteString("static ")
	}
	if f.Return != "" && !f.Constructor {
		b.WriteString(f.Return)
		b.WriteByte(' ')
	}
	b.WriteString(f.Name)
	b.WriteByte('(')
	b.WriteString(strings.Join(params, ", "))
	b.WriteByte(')')
	if f.Const {
		b.WriteString(" const")
	}
	return b.String()
}

func (v DumpVariable) decl() types.VarDecl {
	decl := types.VarDecl{
		Name:      v.Name,
		Type:      v.Type,
		Signature: v.Signature,
		Doc:       v.Doc,
		Constant:  v.Constant,
		Origin:    v.Origin,
	}
	if decl.Signature == "" {
		decl.Signature = strings.TrimSpace(v.Type + " " + v.Name)
		if v.Constant {
			decl.Signature = "const " + decl.Signature
		}
	}
	return decl
}
