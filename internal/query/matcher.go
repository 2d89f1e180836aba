package query

import "strings"

// Query is a parsed search query: the raw text, its phrase groups and the
// raw text of each '|' alternative.
type Query struct {
	Raw        string
	Groups     []PhraseGroup
	Alternates []string
	matchAll   bool
}

// Parse tokenizes raw into a Query
func Parse(raw string) Query {
	q := Query{Raw: raw, Groups: Tokenize(raw)}
	for _, alt := range strings.Split(raw, "|") {
		if alt = strings.TrimSpace(alt); alt != "" {
			q.Alternates = append(q.Alternates, alt)
		}
	}
	return q
}

// MatchAll returns a query that accepts every name
func MatchAll() Query {
	return Query{matchAll: true}
}

// IsMatchAll reports whether the query accepts every name
func (q Query) IsMatchAll() bool {
	return q.matchAll
}

// Empty reports whether the query has nothing to match. An empty query
// matches no name; callers answer it with an empty result set.
func (q Query) Empty() bool {
	return !q.matchAll && len(q.Groups) == 0
}

// Matches reports whether any phrase group matches name
func (q Query) Matches(name string) bool {
	if q.matchAll {
		return true
	}
	return CanComplete(name, q.Groups)
}

// CanComplete is true iff any group matches name
func CanComplete(name string, groups []PhraseGroup) bool {
	if name == "" {
		return false
	}
	lower := FoldASCII(name)
	for _, g := range groups {
		if groupMatches(name, lower, g) {
			return true
		}
	}
	return false
}

// GroupMatches reports whether every token of group occurs in name in order.
// Separators are matched verbatim against name; a tight separator must start
// exactly at the cursor. Words are matched case-insensitively.
func GroupMatches(name string, group PhraseGroup) bool {
	return groupMatches(name, FoldASCII(name), group)
}

func groupMatches(name, lower string, group PhraseGroup) bool {
	if len(group) == 0 {
		return false
	}
	cursor := 0
	for _, tok := range group {
		start, ok := Locate(name, lower, cursor, tok)
		if !ok {
			return false
		}
		cursor = start + len(tok.Value)
	}
	return true
}

// Locate finds where tok matches at or after cursor. For a tight separator
// the only acceptable position is cursor itself.
func Locate(name, lower string, cursor int, tok Token) (int, bool) {
	if cursor > len(name) {
		return 0, false
	}
	if tok.IsSeparator {
		idx := strings.Index(name[cursor:], tok.Value)
		if idx < 0 || (tok.TightPrev && idx != 0) {
			return 0, false
		}
		return cursor + idx, true
	}
	idx := strings.Index(lower[cursor:], tok.Value)
	if idx < 0 {
		return 0, false
	}
	return cursor + idx, true
}

// FoldASCII lowercases ASCII letters only, so byte offsets in the result line
// up with the input.
func FoldASCII(s string) string {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'A' && c <= 'Z' {
			b := []byte(s)
			for j := i; j < len(b); j++ {
				if b[j] >= 'A' && b[j] <= 'Z' {
					b[j] += 'a' - 'A'
				}
			}
			return string(b)
		}
	}
	return s
}
