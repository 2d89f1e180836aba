package types

import (
	"fmt"
	"strings"
)

// ResultKind is the coarse category of a search result
type ResultKind string

const (
	ResultType      ResultKind = "type"
	ResultFunction  ResultKind = "function"
	ResultProperty  ResultKind = "property"
	ResultNamespace ResultKind = "namespace"
)

// Origin tells whether a symbol comes from native (engine) code or script code
type Origin string

const (
	OriginNative Origin = "native"
	OriginScript Origin = "script"
)

// TypeKind is the declared flavor of a type symbol
type TypeKind string

const (
	TypeClass     TypeKind = "class"
	TypeStruct    TypeKind = "struct"
	TypeEnum      TypeKind = "enum"
	TypeDelegate  TypeKind = "delegate"
	TypeEvent     TypeKind = "event"
	TypePrimitive TypeKind = "primitive"
)

// ValidateTypeKind checks if the type kind is known
func ValidateTypeKind(k TypeKind) error {
	switch k {
	case TypeClass, TypeStruct, TypeEnum, TypeDelegate, TypeEvent, TypePrimitive:
		return nil
	default:
		return fmt.Errorf("invalid type kind %q", k)
	}
}

// FilterKind is a category a caller can restrict results to
type FilterKind string

const (
	FilterClass          FilterKind = "class"
	FilterStruct         FilterKind = "struct"
	FilterEnum           FilterKind = "enum"
	FilterMethod         FilterKind = "method"
	FilterFunction       FilterKind = "function"
	FilterProperty       FilterKind = "property"
	FilterGlobalVariable FilterKind = "global-variable"
)

// AllFilterKinds lists every accepted filter kind in canonical order
var AllFilterKinds = []FilterKind{
	FilterClass, FilterStruct, FilterEnum, FilterMethod,
	FilterFunction, FilterProperty, FilterGlobalVariable,
}

// ParseFilterKind resolves a case-insensitive kind name. Underscores and
// spaces are accepted in place of the dash in "global-variable".
func ParseFilterKind(s string) (FilterKind, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "-", " ", "-").Replace(norm)
	for _, k := range AllFilterKinds {
		if string(k) == norm {
			return k, true
		}
	}
	return "", false
}

// Payload is the structural data a result carries so details can be requested
// later. The set of implementations is closed: TypePayload, FunctionPayload,
// PropertyPayload, GlobalPayload and NamespacePayload.
type Payload interface {
	// Tag names the variant, e.g. "type" or "global"
	Tag() string
	// Identity is the stable dedup and sort key of the symbol
	Identity() string
	payload()
}

// TypePayload identifies a class, struct or enum
type TypePayload struct {
	Name      string   `json:"name"`
	Namespace string   `json:"namespace,omitempty"`
	Kind      TypeKind `json:"kind"`
}

func (TypePayload) Tag() string { return "type" }
func (p TypePayload) Identity() string {
	return fmt.Sprintf("type:%s:%s:%s", p.Kind, p.Name, p.Namespace)
}
func (TypePayload) payload() {}

// FunctionPayload identifies a method owned by a type. Constructors are
// functions whose Owner is the constructed type.
type FunctionPayload struct {
	ID          int64  `json:"id"`
	Owner       string `json:"owner"`
	Name        string `json:"name"`
	Constructor bool   `json:"constructor,omitempty"`
}

func (FunctionPayload) Tag() string { return "function" }
func (p FunctionPayload) Identity() string {
	return fmt.Sprintf("function:%s.%s#%d", p.Owner, p.Name, p.ID)
}
func (FunctionPayload) payload() {}

// PropertyPayload identifies a property owned by a type
type PropertyPayload struct {
	ID    int64  `json:"id"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

func (PropertyPayload) Tag() string { return "property" }
func (p PropertyPayload) Identity() string {
	return fmt.Sprintf("property:%s.%s#%d", p.Owner, p.Name, p.ID)
}
func (PropertyPayload) payload() {}

// GlobalPayload identifies a free function or global variable declared in a namespace
type GlobalPayload struct {
	ID        int64  `json:"id"`
	Namespace string `json:"namespace,omitempty"`
	Name      string `json:"name"`
	Variable  bool   `json:"variable,omitempty"`
}

func (GlobalPayload) Tag() string { return "global" }
func (p GlobalPayload) Identity() string {
	return fmt.Sprintf("global:%s::%s#%d", p.Namespace, p.Name, p.ID)
}
func (GlobalPayload) payload() {}

// NamespacePayload identifies a namespace
type NamespacePayload struct {
	Name string `json:"name"`
}

func (NamespacePayload) Tag() string { return "namespace" }
func (p NamespacePayload) Identity() string {
	return "namespace:" + p.Name
}
func (NamespacePayload) payload() {}

// FilterKindOf maps a payload to the filter kind it answers to. Payloads with
// no mapping report false and are dropped whenever a kind filter is active.
func FilterKindOf(p Payload) (FilterKind, bool) {
	switch v := p.(type) {
	case TypePayload:
		switch v.Kind {
		case TypeClass:
			return FilterClass, true
		case TypeStruct:
			return FilterStruct, true
		case TypeEnum:
			return FilterEnum, true
		}
	case FunctionPayload:
		return FilterMethod, true
	case PropertyPayload:
		return FilterProperty, true
	case GlobalPayload:
		if v.Variable {
			return FilterGlobalVariable, true
		}
		return FilterFunction, true
	}
	return "", false
}

// SymbolResult is one match produced by the symbol walker
type SymbolResult struct {
	Kind     ResultKind
	Label    string
	Identity string
	Origin   Origin
	Payload  Payload
}

// NewSymbolResult builds a result whose identity is derived from the payload
func NewSymbolResult(kind ResultKind, label string, origin Origin, p Payload) SymbolResult {
	return SymbolResult{
		Kind:     kind,
		Label:    label,
		Identity: p.Identity(),
		Origin:   origin,
		Payload:  p,
	}
}
