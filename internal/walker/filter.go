package walker

import (
	"sort"
	"strings"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// KindFilter restricts results to a set of filter kinds. The zero value
// accepts everything.
type KindFilter map[types.FilterKind]bool

// ParseKindFilter builds a filter from case-insensitive kind names and
// returns the names it did not recognize
func ParseKindFilter(names []string) (KindFilter, []string) {
	var invalid []string
	f := KindFilter{}
	for _, n := range names {
		k, ok := types.ParseFilterKind(n)
		if !ok {
			invalid = append(invalid, n)
			continue
		}
		f[k] = true
	}
	if len(f) == 0 {
		return nil, invalid
	}
	return f, invalid
}

// Active reports whether the filter restricts anything
func (f KindFilter) Active() bool {
	return len(f) > 0
}

// Allows reports whether a result with payload p passes the filter.
// Payloads without a filter kind only pass an inactive filter.
func (f KindFilter) Allows(p types.Payload) bool {
	if !f.Active() {
		return true
	}
	k, ok := types.FilterKindOf(p)
	return ok && f[k]
}

// Key is the sorted, comma-joined kind list used in cache keys
func (f KindFilter) Key() string {
	kinds := make([]string, 0, len(f))
	for k := range f {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	return strings.Join(kinds, ",")
}

// Apply keeps the results the filter allows, preserving order
func (f KindFilter) Apply(results []types.SymbolResult) []types.SymbolResult {
	if !f.Active() {
		return results
	}
	kept := make([]types.SymbolResult, 0, len(results))
	for _, r := range results {
		if f.Allows(r.Payload) {
			kept = append(kept, r)
		}
	}
	return kept
}
