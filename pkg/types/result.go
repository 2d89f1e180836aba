package types

// SearchPage is one page of a ranked, filtered result set
type SearchPage struct {
	Query           string     `json:"query"`
	SearchIndex     int        `json:"searchIndex"`
	NextSearchIndex *int       `json:"nextSearchIndex"`
	RemainingCount  int        `json:"remainingCount"`
	Total           int        `json:"total"`
	Returned        int        `json:"returned"`
	Truncated       bool       `json:"truncated"`
	Items           []PageItem `json:"items"`
}

// PageItem is a result enriched with its parsed detail
type PageItem struct {
	Signature string  `json:"signature"`
	Docs      string  `json:"docs,omitempty"`
	Type      string  `json:"type,omitempty"`
	Data      Payload `json:"data,omitempty"`
}

// ParsedDetail is a detail blob split into its signature and documentation
type ParsedDetail struct {
	Signature string
	Docs      string
}

// HasDocs reports whether documentation was found after the snippet
func (d ParsedDetail) HasDocs() bool {
	return d.Docs != ""
}
