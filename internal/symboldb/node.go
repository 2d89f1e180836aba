package symboldb

import (
	"strings"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// NodeKind discriminates the node variants of the symbol tree
type NodeKind int

const (
	NodeNamespace NodeKind = iota
	NodeType
	NodeMethod
	NodeProperty
)

func (k NodeKind) String() string {
	switch k {
	case NodeNamespace:
		return "namespace"
	case NodeType:
		return "type"
	case NodeMethod:
		return "method"
	case NodeProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Node is implemented only by *Namespace, *Type, *Method and *Property
type Node interface {
	Kind() NodeKind
	Name() string
	sealed()
}

// Namespace groups child namespaces, types and global symbols. A namespace
// that Shadows a type holds that type's static functions and is never
// listed on its own.
type Namespace struct {
	name      string
	parent    *Namespace
	children  []*Namespace
	byName    map[string]*Namespace
	Types     []*Type
	Functions []*Method
	Variables []*Property
	Shadows   *Type
}

func (*Namespace) Kind() NodeKind { return NodeNamespace }
func (n *Namespace) Name() string { return n.name }
func (*Namespace) sealed() {}
func (n *Namespace) Parent() *Namespace { return n.parent }

// IsRoot reports whether n is the unnamed root namespace
func (n *Namespace) IsRoot() bool { return n.parent == nil }

// Children returns child namespaces in insertion order
func (n *Namespace) Children() []*Namespace { return n.children }

// Child returns the child namespace with the given name, or nil
func (n *Namespace) Child(name string) *Namespace { return n.byName[name] }

// QualifiedName joins the path from the root with "::"
func (n *Namespace) QualifiedName() string {
	if n == nil || n.IsRoot() {
		return ""
	}
	if p := n.parent.QualifiedName(); p != "" {
		return p + "::" + n.name
	}
	return n.name
}

// Prefix is the qualified name followed by "::", empty for the root
func (n *Namespace) Prefix() string {
	if q := n.QualifiedName(); q != "" {
		return q + "::"
	}
	return ""
}

func (n *Namespace) addChild(name string) *Namespace {
	if c, ok := n.byName[name]; ok {
		return c
	}
	c := &Namespace{name: name, parent: n, byName: make(map[string]*Namespace)}
	n.children = append(n.children, c)
	n.byName[name] = c
	return c
}

// Type is a class, struct, enum, delegate, event or primitive
type Type struct {
	TypeName  string
	TypeKind  types.TypeKind
	Namespace *Namespace
	// Outer is set for nested types
	Outer      *Type
	Super      string
	Template   bool
	Origin     types.Origin
	Signature  string
	Doc        string
	Methods    []*Method
	Properties []*Property
	Nested     []*Type
}

func (*Type) Kind() NodeKind { return NodeType }
func (t *Type) Name() string { return t.TypeName }
func (*Type) sealed() {}

// QualifiedName is the namespace prefix, any outer types joined with ".",
// and the type name
func (t *Type) QualifiedName() string {
	if t.Outer != nil {
		return t.Outer.QualifiedName() + "." + t.TypeName
	}
	return t.Namespace.Prefix() + t.TypeName
}

// Prefix is the qualified name followed by "."
func (t *Type) Prefix() string {
	return t.QualifiedName() + "."
}

// Listable reports whether the type may appear as its own search result
func (t *Type) Listable() bool {
	if t.Template {
		return false
	}
	switch t.TypeKind {
	case types.TypeDelegate, types.TypeEvent, types.TypePrimitive:
		return false
	}
	return true
}

// Traversable reports whether members and nested types are searched
func (t *Type) Traversable() bool {
	if t.Template {
		return false
	}
	return t.TypeKind != types.TypeDelegate && t.TypeKind != types.TypeEvent
}

// Method is a method, constructor or global function
type Method struct {
	ID         int64
	MethodName string
	// Owner is the containing type; nil for free functions
	Owner       *Type
	Namespace   *Namespace
	ReturnType  string
	Params      []types.Param
	Constructor bool
	Generated   bool
	Mixin       bool
	Static      bool
	Const       bool
	Origin      types.Origin
	Signature   string
	Doc         string
}

func (*Method) Kind() NodeKind { return NodeMethod }
func (m *Method) Name() string { return m.MethodName }
func (*Method) sealed() {}

// ParamList renders the parameters as "Type Name, Type Name = Default"
func (m *Method) ParamList() string {
	parts := make([]string, len(m.Params))
	for i, p := range m.Params {
		s := strings.TrimSpace(p.Type + " " + p.Name)
		if p.Default != "" {
			s += " = " + p.Default
		}
		parts[i] = s
	}
	return strings.Join(parts, ", ")
}

// Property is a property owned by a type or a global variable
type Property struct {
	ID           int64
	PropertyName string
	Owner        *Type
	Namespace    *Namespace
	ValueType    string
	Constant     bool
	Origin       types.Origin
	Signature    string
	Doc          string
}

func (*Property) Kind() NodeKind { return NodeProperty }
func (p *Property) Name() string { return p.PropertyName }
func (*Property) sealed() {}
