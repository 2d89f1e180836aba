package searcher

import (
	"regexp"
	"strings"

	"github.com/dshills/apisearch-mcp/pkg/types"
)

// CompilePattern compiles a post-filter pattern. The literal form
// "/pattern/flags" takes flags from the set i, m, s; any other text is
// compiled case-insensitively.
func CompilePattern(field, raw string) (*regexp.Regexp, error) {
	pattern, flags := raw, "i"
	if len(raw) >= 2 && raw[0] == '/' {
		if end := strings.LastIndexByte(raw, '/'); end > 0 {
			pattern, flags = raw[1:end], raw[end+1:]
		}
	}

	for _, f := range flags {
		if !strings.ContainsRune("ims", f) {
			return nil, types.NewSearchError(types.CodeInvalidRegex,
				"unsupported regex flag "+string(f),
				map[string]any{"field": field, "pattern": raw, "allowedFlags": "ims"})
		}
	}
	if flags != "" {
		pattern = "(?" + flags + ")" + pattern
	}

	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, &types.SearchError{
			Code:    types.CodeInvalidRegex,
			Message: "invalid regular expression",
			Details: map[string]any{"field": field, "pattern": raw, "reason": err.Error()},
			Err:     err,
		}
	}
	return re, nil
}
