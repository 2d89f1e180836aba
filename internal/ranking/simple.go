package ranking

import (
	"regexp"
	"strings"
)

// Tier is the simple-mode relevance class of a label. Higher is better.
type Tier int

const (
	TierNone Tier = iota
	TierAnyOrder
	TierOrdered
	TierSubstring
	TierWordBoundary
	TierPrefix
	TierExact
)

// SimpleScorer classifies labels against plain query text. Each '|'
// alternative is scored on its own and the best tier wins.
type SimpleScorer struct {
	alts []simpleAlt
}

type simpleAlt struct {
	text     string
	words    []string
	boundary *regexp.Regexp
}

// NewSimpleScorer prepares a scorer for the given query alternatives
func NewSimpleScorer(alternates ...string) *SimpleScorer {
	s := &SimpleScorer{}
	for _, alt := range alternates {
		text := strings.ToLower(strings.TrimSpace(alt))
		if text == "" {
			continue
		}
		s.alts = append(s.alts, simpleAlt{
			text:     text,
			words:    strings.Fields(text),
			boundary: regexp.MustCompile(`\b` + regexp.QuoteMeta(text)),
		})
	}
	return s
}

// Score returns the best tier of label across all alternatives
func (s *SimpleScorer) Score(label string) Tier {
	lower := strings.ToLower(label)
	best := TierNone
	for _, alt := range s.alts {
		if t := alt.tier(lower); t > best {
			best = t
		}
	}
	return best
}

func (a simpleAlt) tier(lower string) Tier {
	switch {
	case lower == a.text:
		return TierExact
	case strings.HasPrefix(lower, a.text):
		return TierPrefix
	case a.boundary.MatchString(lower):
		return TierWordBoundary
	case strings.Contains(lower, a.text):
		return TierSubstring
	}

	if len(a.words) < 2 {
		return TierNone
	}
	if containsInOrder(lower, a.words) {
		return TierOrdered
	}
	for _, w := range a.words {
		if !strings.Contains(lower, w) {
			return TierNone
		}
	}
	return TierAnyOrder
}

func containsInOrder(s string, words []string) bool {
	cursor := 0
	for _, w := range words {
		idx := strings.Index(s[cursor:], w)
		if idx < 0 {
			return false
		}
		cursor += idx + len(w)
	}
	return true
}
