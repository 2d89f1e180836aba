package walker

import (
	"strings"

	"github.com/dshills/apisearch-mcp/internal/symboldb"
)

// Exclusions decides which compiler-generated or duplicated members are
// hidden from search results. Each rule can be switched off on its own
// because the heuristics follow quirks of the symbol database.
type Exclusions struct {
	// SkipGeneratedDefaultConstructors hides bodyless zero-argument constructors
	SkipGeneratedDefaultConstructors bool
	// SkipCopyConstructors hides constructors taking one argument of their own type
	SkipCopyConstructors bool
	// OperatorPrefix marks operator overloads, e.g. "op" for opEquals.
	// Empty disables the rule.
	OperatorPrefix string
	// SkipMixinsOnOwner hides mixin functions under the type they extend;
	// they are still listed in their declaring namespace.
	SkipMixinsOnOwner bool
}

// DefaultExclusions returns the rules that match the engine symbol database
func DefaultExclusions() Exclusions {
	return Exclusions{
		SkipGeneratedDefaultConstructors: true,
		SkipCopyConstructors:             true,
		OperatorPrefix:                   "op",
		SkipMixinsOnOwner:                true,
	}
}

// ExcludeMethod reports whether m is hidden. listedUnder is the type whose
// member list is being walked, nil for namespace-level functions. owner is
// the resolved owning type of constructors.
func (e Exclusions) ExcludeMethod(m *symboldb.Method, listedUnder, owner *symboldb.Type) bool {
	if e.SkipMixinsOnOwner && m.Mixin && listedUnder != nil {
		return true
	}
	if e.isOperator(m.MethodName) {
		return true
	}
	if !m.Constructor {
		return false
	}
	if e.SkipGeneratedDefaultConstructors && m.Generated && len(m.Params) == 0 {
		return true
	}
	if e.SkipCopyConstructors && owner != nil && len(m.Params) == 1 {
		if bareTypeName(m.Params[0].Type) == owner.TypeName {
			return true
		}
	}
	return false
}

// isOperator matches the prefix followed by an uppercase letter, so opEquals
// is an operator while "open" is not
func (e Exclusions) isOperator(name string) bool {
	if e.OperatorPrefix == "" || !strings.HasPrefix(name, e.OperatorPrefix) {
		return false
	}
	rest := name[len(e.OperatorPrefix):]
	return rest != "" && rest[0] >= 'A' && rest[0] <= 'Z'
}

func bareTypeName(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "const ")
	s = strings.TrimRight(s, "&* ")
	s = strings.TrimLeft(s, "*& ")
	if i := strings.LastIndexAny(s, ":."); i >= 0 {
		s = s[i+1:]
	}
	return s
}
