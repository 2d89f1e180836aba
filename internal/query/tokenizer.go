package query

import (
	"strings"
	"unicode"
)

// Structural separators recognized inside a phrase
const (
	SepNamespace = "::"
	SepMember    = "."
)

// Token is one unit of a phrase group. Word tokens are lowercased,
// separators are kept verbatim.
type Token struct {
	Value       string
	IsSeparator bool
	// TightPrev is true when no whitespace stood between this token and the
	// previous one in the raw query.
	TightPrev bool
}

// PhraseGroup is an ordered sequence of tokens that must all match in order
type PhraseGroup []Token

// String renders the group back into query syntax
func (g PhraseGroup) String() string {
	var b strings.Builder
	for i, tok := range g {
		if i > 0 && !tok.TightPrev {
			b.WriteByte(' ')
		}
		b.WriteString(tok.Value)
	}
	return b.String()
}

// Tokenize splits a raw query into '|'-separated phrase groups. Groups that
// contain no tokens are dropped, so an empty or blank query yields none.
func Tokenize(raw string) []PhraseGroup {
	var groups []PhraseGroup
	for _, part := range strings.Split(raw, "|") {
		if g := tokenizeGroup(part); len(g) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func tokenizeGroup(s string) PhraseGroup {
	var group PhraseGroup
	sawSpace := false
	rs := []rune(s)

	for i := 0; i < len(rs); {
		r := rs[i]
		switch {
		case unicode.IsSpace(r):
			sawSpace = true
			i++
		case r == ':' && i+1 < len(rs) && rs[i+1] == ':':
			group = append(group, Token{Value: SepNamespace, IsSeparator: true, TightPrev: len(group) > 0 && !sawSpace})
			sawSpace = false
			i += 2
		case r == '.':
			group = append(group, Token{Value: SepMember, IsSeparator: true, TightPrev: len(group) > 0 && !sawSpace})
			sawSpace = false
			i++
		case isWordRune(r):
			start := i
			for i < len(rs) && isWordRune(rs[i]) {
				i++
			}
			word := FoldASCII(string(rs[start:i]))
			group = append(group, Token{Value: word, TightPrev: len(group) > 0 && !sawSpace})
			sawSpace = false
		default:
			// punctuation such as '(' or '<' separates words without breaking adjacency
			i++
		}
	}
	return group
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
