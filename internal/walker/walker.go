package walker

import (
	"sort"
	"strings"

	"github.com/dshills/apisearch-mcp/internal/query"
	"github.com/dshills/apisearch-mcp/internal/ranking"
	"github.com/dshills/apisearch-mcp/internal/symboldb"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Walker searches a symbol database snapshot
type Walker struct {
	db    *symboldb.Database
	rules Exclusions
}

// New creates a Walker over db
func New(db *symboldb.Database, rules Exclusions) *Walker {
	return &Walker{db: db, rules: rules}
}

// scored is a result with its sort keys
type scored struct {
	result types.SymbolResult
	tier   ranking.Tier
	score  float64
}

// search holds the state of one walk
type search struct {
	w       *Walker
	q       query.Query
	simple  *ranking.SimpleScorer
	seen    map[string]bool
	results []scored
}

// Search walks the database depth-first from the root and returns every
// symbol q matches, de-duplicated by identity, ranked, and restricted by
// filter. The order is deterministic for a given snapshot.
func (w *Walker) Search(q query.Query, filter KindFilter) []types.SymbolResult {
	if q.Empty() {
		return nil
	}

	s := &search{
		w:      w,
		q:      q,
		simple: ranking.NewSimpleScorer(q.Alternates...),
		seen:   make(map[string]bool),
	}
	s.namespace(w.db.Root())
	s.sort()

	out := make([]types.SymbolResult, 0, len(s.results))
	for _, r := range s.results {
		if filter.Allows(r.result.Payload) {
			out = append(out, r.result)
		}
	}
	return out
}

// matches checks both the bare and the qualified display form
func (s *search) matches(bare, qualified string) bool {
	return s.q.Matches(bare) || s.q.Matches(qualified)
}

func (s *search) emit(kind types.ResultKind, label, rankName string, origin types.Origin, p types.Payload) {
	r := types.NewSymbolResult(kind, label, origin, p)
	if s.seen[r.Identity] {
		return
	}
	s.seen[r.Identity] = true

	entry := scored{result: r, score: ranking.NoMatch}
	if !s.q.IsMatchAll() {
		entry.tier = s.simple.Score(rankName)
		entry.score = ranking.ScoreName(rankName, s.q.Groups)
	}
	s.results = append(s.results, entry)
}

func (s *search) namespace(ns *symboldb.Namespace) {
	for _, child := range ns.Children() {
		if child.Shadows != nil {
			continue
		}
		s.namespace(child)
	}

	prefix := ns.Prefix()
	matched := false
	if !ns.IsRoot() {
		matched = s.matches(ns.Name(), prefix)
		if matched {
			qualified := ns.QualifiedName()
			s.emit(types.ResultNamespace, qualified, qualified, "", types.NamespacePayload{Name: qualified})
		}
	}

	for _, t := range ns.Types {
		if t.Traversable() {
			s.typ(t)
		}
	}
	s.members(ns, nil, prefix, matched)
}

func (s *search) typ(t *symboldb.Type) {
	prefix := t.Prefix()
	qualified := t.QualifiedName()
	matched := s.matches(t.TypeName, prefix)

	if matched && t.Listable() {
		s.emit(types.ResultType, qualified, qualified, t.Origin, types.TypePayload{
			Name:      strings.TrimPrefix(qualified, t.Namespace.Prefix()),
			Namespace: t.Namespace.QualifiedName(),
			Kind:      t.TypeKind,
		})
	}

	for _, m := range t.Methods {
		s.method(m, t, prefix, matched)
	}
	for _, p := range t.Properties {
		s.property(p, t, prefix, matched)
	}

	// statics live in the namespace the type shadows
	if t.Outer == nil {
		if shadow := t.Namespace.Child(t.TypeName); shadow != nil && shadow.Shadows == t {
			s.members(shadow, t, prefix, matched)
		}
	}

	for _, nested := range t.Nested {
		if nested.Traversable() {
			s.typ(nested)
		}
	}
}

// members emits the functions and variables declared in ns. owner is the
// shadowed type when ns holds statics.
func (s *search) members(ns *symboldb.Namespace, owner *symboldb.Type, prefix string, nodeMatched bool) {
	for _, f := range ns.Functions {
		s.method(f, owner, prefix, nodeMatched)
	}
	for _, v := range ns.Variables {
		s.property(v, owner, prefix, nodeMatched)
	}
}

func (s *search) memberMatches(name, prefix string, nodeMatched bool) bool {
	return nodeMatched || s.q.Matches(name) || s.q.Matches(prefix+name)
}

// method emits m. listedUnder is the type whose members are being walked,
// nil for namespace-level functions.
func (s *search) method(m *symboldb.Method, listedUnder *symboldb.Type, prefix string, nodeMatched bool) {
	if !s.memberMatches(m.MethodName, prefix, nodeMatched) {
		return
	}

	owner := m.Owner
	if m.Constructor {
		owner = s.w.ResolveConstructorOwner(m)
	}
	if owner == nil {
		owner = listedUnder
	}
	if s.w.rules.ExcludeMethod(m, m.Owner, owner) {
		return
	}

	var label string
	if m.Constructor {
		name := m.MethodName
		if owner != nil {
			name = owner.TypeName
		}
		label = "<ctor>" + name + "(" + m.ParamList() + ")"
	} else {
		label = prefix + m.MethodName + "(" + m.ParamList() + ")"
	}

	var p types.Payload
	if owner != nil {
		p = types.FunctionPayload{
			ID:          m.ID,
			Owner:       owner.QualifiedName(),
			Name:        m.MethodName,
			Constructor: m.Constructor,
		}
	} else {
		p = types.GlobalPayload{ID: m.ID, Namespace: m.Namespace.QualifiedName(), Name: m.MethodName}
	}
	s.emit(types.ResultFunction, label, label, m.Origin, p)
}

func (s *search) property(v *symboldb.Property, owner *symboldb.Type, prefix string, nodeMatched bool) {
	if !s.memberMatches(v.PropertyName, prefix, nodeMatched) {
		return
	}
	label := prefix + v.PropertyName

	var p types.Payload
	if owner != nil {
		p = types.PropertyPayload{ID: v.ID, Owner: owner.QualifiedName(), Name: v.PropertyName}
	} else {
		p = types.GlobalPayload{ID: v.ID, Namespace: v.Namespace.QualifiedName(), Name: v.PropertyName, Variable: true}
	}
	s.emit(types.ResultProperty, label, label, v.Origin, p)
}

// ResolveConstructorOwner finds the type a constructor builds: the explicit
// containing type, else the type its namespace shadows, else a type named
// like its return type, else a type named like the constructor itself.
func (w *Walker) ResolveConstructorOwner(m *symboldb.Method) *symboldb.Type {
	if m.Owner != nil {
		return m.Owner
	}
	if m.Namespace != nil && m.Namespace.Shadows != nil {
		return m.Namespace.Shadows
	}
	if t := w.db.LookupType(m.ReturnType); t != nil {
		return t
	}
	return w.db.LookupType(m.MethodName)
}

// kindOrder puts types first, then namespaces, functions and properties
func kindOrder(k types.ResultKind) int {
	switch k {
	case types.ResultType:
		return 0
	case types.ResultNamespace:
		return 1
	case types.ResultFunction:
		return 2
	default:
		return 3
	}
}

func (s *search) sort() {
	sort.SliceStable(s.results, func(i, j int) bool {
		a, b := s.results[i], s.results[j]
		ka, kb := kindOrder(a.result.Kind), kindOrder(b.result.Kind)
		if ka != kb {
			return ka < kb
		}
		// namespaces list alphabetically
		if a.result.Kind != types.ResultNamespace {
			if a.tier != b.tier {
				return a.tier > b.tier
			}
			if a.score != b.score {
				return a.score > b.score
			}
		}
		if a.result.Label != b.result.Label {
			return a.result.Label < b.result.Label
		}
		return a.result.Identity < b.result.Identity
	})
}
