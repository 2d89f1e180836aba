package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/apisearch-mcp/internal/indexer"
	"github.com/dshills/apisearch-mcp/internal/searcher"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Error codes of the indexing and status tools. Search errors use the
// codes in pkg/types.
const (
	CodeInvalidPath     = "INVALID_PATH"
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeIndexInProgress = "INDEX_IN_PROGRESS"
)

// maxReportedErrors caps the per-source errors echoed by index_symbols
const maxReportedErrors = 5

// handleSearchAPISymbols handles the search_api_symbols tool invocation
func (s *Server) handleSearchAPISymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req, err := parseSearchRequest(arguments(request))
	if err != nil {
		return toolError(err), nil
	}

	page, err := s.searcher.Search(ctx, req)
	if err != nil {
		s.logger.Debug("search rejected", "code", types.ErrorCode(err), "error", err)
		return toolError(err), nil
	}
	return mcp.NewToolResultText(formatJSON(page)), nil
}

// handleIndexSymbols handles the index_symbols tool invocation
func (s *Server) handleIndexSymbols(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)

	path, _ := args["path"].(string)
	if strings.TrimSpace(path) == "" {
		return toolError(types.NewSearchError(CodeInvalidPath, "path parameter is required", map[string]any{
			"param":  "path",
			"reason": "missing or empty",
		})), nil
	}
	if err := validatePath(path); err != nil {
		return toolError(types.NewSearchError(CodeInvalidPath, "invalid path", map[string]any{
			"param":  "path",
			"reason": err.Error(),
		})), nil
	}

	cfg := s.config.Index.IndexerConfig()
	cfg.IncludeTests = getBoolDefault(args, "include_tests", cfg.IncludeTests)
	cfg.IncludeVendor = getBoolDefault(args, "include_vendor", cfg.IncludeVendor)
	if v, ok := args["exclude"]; ok && v != nil {
		exclude, ok := toStrings(v)
		if !ok {
			return toolError(types.NewSearchError(CodeInvalidArgument, "exclude must be an array of strings", map[string]any{
				"param":    "exclude",
				"received": v,
			})), nil
		}
		cfg.Exclude = exclude
	}

	stats, err := s.indexer.IndexPath(ctx, path, cfg)
	if errors.Is(err, indexer.ErrIndexInProgress) {
		return toolError(types.NewSearchError(CodeIndexInProgress, "another indexing operation is already running", nil)), nil
	}
	// Batches may have been committed before a failure
	s.searcher.Reset()
	if err != nil {
		if errors.Is(err, indexer.ErrUnsupportedPath) {
			return toolError(&types.SearchError{Code: CodeInvalidPath, Message: "unsupported path", Err: err}), nil
		}
		return toolError(&types.SearchError{Code: types.CodeInternal, Message: "indexing failed", Err: err}), nil
	}

	response := map[string]interface{}{
		"indexed":           true,
		"sources_indexed":   stats.SourcesIndexed,
		"sources_skipped":   stats.SourcesSkipped,
		"sources_failed":    stats.SourcesFailed,
		"sources_removed":   stats.SourcesRemoved,
		"symbols_extracted": stats.SymbolsExtracted,
		"duration_ms":       stats.Duration.Milliseconds(),
	}
	if n := len(stats.ErrorMessages); n > 0 {
		response["errors"] = stats.ErrorMessages[:min(n, maxReportedErrors)]
		response["error_count"] = n
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return toolError(&types.SearchError{Code: types.CodeInternal, Message: "failed to get status", Err: err}), nil
	}

	cache := s.searcher.Cache()
	response := map[string]interface{}{
		"indexed": status.Sources > 0,
		"statistics": map[string]interface{}{
			"sources":        status.Sources,
			"failed_sources": status.FailedSources,
			"namespaces":     status.Namespaces,
			"types":          status.Types,
			"functions":      status.Functions,
			"properties":     status.Properties,
			"index_size_mb":  fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"cache": map[string]interface{}{
			"entries":     cache.Len(),
			"ttl_seconds": cache.TTL().Seconds(),
		},
		"indexing":       s.indexer.Running(),
		"schema_version": status.SchemaVersion,
		"build_mode":     status.BuildMode,
	}
	if !status.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = status.LastIndexedAt.Format(time.RFC3339)
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// parseSearchRequest converts tool arguments into a search request. Type
// mismatches are reported under the code of the offending field.
func parseSearchRequest(args map[string]interface{}) (searcher.SearchRequest, error) {
	var req searcher.SearchRequest

	if v, ok := args["query"]; ok && v != nil {
		q, ok := v.(string)
		if !ok {
			return req, types.NewSearchError(types.CodeMissingLabelQuery, "query must be a string",
				map[string]any{"field": "query", "received": v})
		}
		req.Query = &q
	}

	if v, ok := args["searchIndex"]; ok && v != nil {
		n, ok := toInt(v)
		if !ok {
			return req, types.NewSearchError(types.CodeInvalidSearchIndex, "searchIndex must be an integer",
				map[string]any{"received": v, "min": 0})
		}
		req.SearchIndex = n
	}

	if v, ok := args["maxBatchResults"]; ok && v != nil {
		n, ok := toInt(v)
		if !ok {
			return req, types.NewSearchError(types.CodeInvalidMaxBatchResults, "maxBatchResults must be a positive integer",
				map[string]any{"received": v, "min": 1})
		}
		req.MaxBatchResults = &n
	}

	if v, ok := args["kinds"]; ok && v != nil {
		kinds, ok := toStrings(v)
		if !ok {
			return req, types.NewSearchError(types.CodeInvalidKinds, "kinds must be an array of strings",
				map[string]any{"received": v})
		}
		req.Kinds = kinds
	}

	if v, ok := args["source"]; ok && v != nil {
		src, ok := v.(string)
		if !ok {
			return req, types.NewSearchError(types.CodeInvalidSource, "source must be a string",
				map[string]any{"received": v, "valid": []string{searcher.SourceNative, searcher.SourceScript, searcher.SourceBoth}})
		}
		req.Source = src
	}

	req.IncludeDocs = getBoolDefault(args, "includeDocs", false)
	req.LabelQueryUseRegex = getBoolDefault(args, "labelQueryUseRegex", false)
	req.SignatureRegex = getStringDefault(args, "signatureRegex", "")
	return req, nil
}

// errorEnvelope is the payload of a failed tool call
type errorEnvelope struct {
	OK    bool               `json:"ok"`
	Error *types.SearchError `json:"error"`
}

// toolError renders err as {"ok": false, "error": {...}}. Errors without a
// code become INTERNAL_ERROR.
func toolError(err error) *mcp.CallToolResult {
	var se *types.SearchError
	if !errors.As(err, &se) {
		se = &types.SearchError{Code: types.CodeInternal, Message: err.Error()}
	}
	if se.Code == types.CodeInternal && se.Err != nil {
		details := maps.Clone(se.Details)
		if details == nil {
			details = map[string]any{}
		}
		details["cause"] = se.Err.Error()
		se = &types.SearchError{Code: se.Code, Message: se.Message, Details: details, Err: se.Err}
	}
	return mcp.NewToolResultError(formatJSON(errorEnvelope{Error: se}))
}

// arguments returns the call arguments, or an empty map
func arguments(request mcp.CallToolRequest) map[string]interface{} {
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// validatePath checks that a path is absolute, exists and is something the
// indexer accepts
func validatePath(path string) error {
	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if info.IsDir() {
		f, err := os.Open(path)
		if err != nil {
			return ErrPathNotReadable
		}
		_ = f.Close()
		return nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".go", ".yaml", ".yml", ".json":
		return nil
	default:
		return ErrUnsupportedFile
	}
}

// formatJSON formats a value as indented JSON
func formatJSON(data interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// toInt accepts JSON numbers that hold an integral value
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || n > math.MaxInt32 || n < math.MinInt32 {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// toStrings accepts an array of strings or a single comma separated string
func toStrings(v interface{}) ([]string, bool) {
	switch vals := v.(type) {
	case []string:
		return vals, true
	case string:
		var out []string
		for _, part := range strings.Split(vals, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, true
	case []interface{}:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrUnsupportedFile = errors.New("file is neither a Go source nor a .yaml, .yml or .json symbol dump")
)
