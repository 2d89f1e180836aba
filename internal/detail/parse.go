package detail

import (
	"strings"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// fence opens and closes the snippet block of a detail blob
const fence = "```"

// ParseDetail splits a detail blob into its signature and documentation.
//
// Without a fence the whole text is a bare signature. Otherwise the
// signature is the fenced text after the opening marker line, up to the
// closing marker or the end of text, and the trimmed remainder after the
// closing marker is the documentation.
func ParseDetail(text string) types.ParsedDetail {
	open := strings.Index(text, fence)
	if open < 0 {
		return types.ParsedDetail{Signature: strings.TrimSpace(text)}
	}

	body := text[open+len(fence):]
	// the rest of the opening line is the language tag
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	} else {
		body = ""
	}

	end := strings.Index(body, fence)
	if end < 0 {
		return types.ParsedDetail{Signature: strings.TrimSpace(body)}
	}
	return types.ParsedDetail{
		Signature: strings.TrimSpace(body[:end]),
		Docs:      strings.TrimSpace(body[end+len(fence):]),
	}
}

// FormatDetail renders a signature and documentation in the format
// ParseDetail reads
func FormatDetail(language, signature, doc string) string {
	var b strings.Builder
	b.WriteString(fence)
	b.WriteString(language)
	b.WriteByte('\n')
	b.WriteString(signature)
	b.WriteString("\n")
	b.WriteString(fence)
	if doc = strings.TrimSpace(doc); doc != "" {
		b.WriteString("\n\n")
		b.WriteString(doc)
	}
	return b.String()
}
