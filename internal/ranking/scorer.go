package ranking

import (
	"github.com/dshills/apisearch-mcp/internal/query"
)

// NoMatch is returned for names no phrase group matches. Every real score is
// non-negative, so NoMatch sorts below all of them.
const NoMatch = -1.0

// Structured-mode weights
const (
	namespaceSepBonus = 60.0
	memberSepBonus    = 30.0
	startBonus        = 200.0
	boundaryBonus     = 150.0
	upperCharBonus    = 25.0
	upperFirstBonus   = 40.0
	earlyMatchBonus   = 100.0
	tightGapBonus     = 60.0
	exactNameBonus    = 1000.0
	shortNameBonus    = 50.0
)

// ScoreName scores name against the phrase groups of a query and returns the
// best score across groups, or NoMatch when no group matches.
func ScoreName(name string, groups []query.PhraseGroup) float64 {
	if name == "" {
		return NoMatch
	}
	lower := query.FoldASCII(name)
	best := NoMatch
	for _, g := range groups {
		if s := scoreGroup(name, lower, g); s > best {
			best = s
		}
	}
	return best
}

func scoreGroup(name, lower string, group query.PhraseGroup) float64 {
	if len(group) == 0 {
		return NoMatch
	}

	score := 0.0
	cursor := 0
	for _, tok := range group {
		start, ok := query.Locate(name, lower, cursor, tok)
		if !ok {
			return NoMatch
		}

		if tok.IsSeparator {
			if tok.Value == query.SepNamespace {
				score += namespaceSepBonus
			} else {
				score += memberSepBonus
			}
		} else {
			score += wordScore(name, start, len(tok.Value), start-cursor)
		}
		cursor = start + len(tok.Value)
	}

	if len(group) == 1 && !group[0].IsSeparator && group[0].Value == lower {
		score += exactNameBonus
	}
	score += shortNameBonus / (1 + float64(len(name))/8)
	return score
}

// wordScore rates one word match of length n starting at start, gap
// characters after the previous token ended.
func wordScore(name string, start, n, gap int) float64 {
	score := 0.0
	if start == 0 {
		score += startBonus
	}
	if isBoundary(name, start) {
		score += boundaryBonus
	}
	for i := start; i < start+n && i < len(name); i++ {
		if isUpper(name[i]) {
			score += upperCharBonus
		}
	}
	if isUpper(name[start]) {
		score += upperFirstBonus
	}
	score += earlyMatchBonus / float64(1+start)
	score += tightGapBonus / float64(1+gap)
	return score
}

// isBoundary is true at the start of name, after a non-word character, and
// at a lower-to-upper camelCase transition.
func isBoundary(name string, i int) bool {
	if i == 0 {
		return true
	}
	prev, cur := name[i-1], name[i]
	if !isWordByte(prev) {
		return true
	}
	return isLower(prev) && isUpper(cur)
}

func isUpper(c byte) bool { return c >= 'A' && c <= 'Z' }
func isLower(c byte) bool { return c >= 'a' && c <= 'z' }

func isWordByte(c byte) bool {
	return isUpper(c) || isLower(c) || (c >= '0' && c <= '9') || c == '_' || c >= 0x80
}
