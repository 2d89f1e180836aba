package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/apisearch-mcp/internal/searcher"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// searchAPISymbolsTool returns the tool definition for search_api_symbols
func searchAPISymbolsTool() mcp.Tool {
	kinds := make([]string, len(types.AllFilterKinds))
	for i, k := range types.AllFilterKinds {
		kinds[i] = string(k)
	}

	return mcp.Tool{
		Name: "search_api_symbols",
		Description: "Search the API symbol database (namespaces, types, methods, properties, " +
			"global functions and variables). Results are ranked and paginated; follow " +
			"nextSearchIndex to read further pages.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type": "string",
					"description": "Symbol query. Whitespace separates tokens, '|' separates alternatives, " +
						"'.' or '::' written without spaces must be adjacent in the match (e.g. 'UObject.')",
				},
				"searchIndex": map[string]interface{}{
					"type":        "integer",
					"description": "Index of the first result to return",
					"default":     0,
					"minimum":     0,
				},
				"maxBatchResults": map[string]interface{}{
					"type":        "integer",
					"description": "Page size override",
					"default":     searcher.DefaultPageSize,
					"minimum":     1,
				},
				"includeDocs": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include documentation for each result",
					"default":     false,
				},
				"kinds": map[string]interface{}{
					"type":        "array",
					"description": "Restrict results to these kinds (case-insensitive)",
					"items": map[string]interface{}{
						"type": "string",
						"enum": kinds,
					},
				},
				"labelQueryUseRegex": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat query as a regular expression on result labels; '/pattern/flags' is accepted",
					"default":     false,
				},
				"signatureRegex": map[string]interface{}{
					"type":        "string",
					"description": "Keep only results whose signature matches this regular expression",
				},
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Restrict results to native or script symbols",
					"enum":        []string{searcher.SourceNative, searcher.SourceScript, searcher.SourceBoth},
					"default":     searcher.SourceBoth,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexSymbolsTool returns the tool definition for index_symbols
func indexSymbolsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index_symbols",
		Description: "Index a Go source tree or a YAML/JSON symbol dump into the API symbol database",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"path": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to a Go project directory or a .yaml/.yml/.json symbol dump",
				},
				"include_tests": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index *_test.go files",
				},
				"include_vendor": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, index vendor/ directories",
				},
				"exclude": map[string]interface{}{
					"type":        "array",
					"description": "Glob patterns relative to path to skip (e.g. 'internal/generated/**')",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
			},
			Required: []string{"path"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Report symbol database statistics and search cache state",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
