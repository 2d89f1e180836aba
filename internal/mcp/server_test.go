package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/apisearch-mcp/internal/config"
	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

const actorDump = `language: angelscript
namespaces:
  - name: ""
    types:
      - name: AActor
        kind: class
        doc: Base class for placed objects.
        methods:
          - name: GetActorLocation
            return: FVector
            const: true
            doc: Returns the actor location.
          - name: SetActorLocation
            return: bool
            params:
              - {name: NewLocation, type: FVector}
    functions:
      - name: SpawnActor
        return: AActor
        origin: script
        params:
          - {name: Class, type: UClass}
`

const pawnDump = `namespaces:
  - name: ""
    types:
      - name: APawn
        kind: class
        super: AActor
`

// page mirrors types.SearchPage with the payload kept raw
type page struct {
	Query           string `json:"query"`
	SearchIndex     int    `json:"searchIndex"`
	NextSearchIndex *int   `json:"nextSearchIndex"`
	RemainingCount  int    `json:"remainingCount"`
	Total           int    `json:"total"`
	Returned        int    `json:"returned"`
	Truncated       bool   `json:"truncated"`
	Items           []struct {
		Signature string          `json:"signature"`
		Docs      string          `json:"docs"`
		Type      string          `json:"type"`
		Data      json.RawMessage `json:"data"`
	} `json:"items"`
}

type failure struct {
	OK    bool `json:"ok"`
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func testConfig() *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{Path: ":memory:"},
		Cache:    config.CacheConfig{TTL: time.Minute, Capacity: 8},
		Search: config.SearchConfig{
			PageSize:          2,
			DetailConcurrency: 10,
			Exclusions: config.ExclusionsConfig{
				GeneratedDefaultConstructors: true,
				CopyConstructors:             true,
				OperatorPrefix:               "op",
				MixinsOnOwner:                true,
			},
		},
		Server: config.ServerConfig{Transport: config.TransportStdio},
		Log:    logging.Config{Level: "info", Format: "text"},
		Index:  config.IndexConfig{BatchSize: 20},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.storage.Close() })
	return s
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func callTool(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func decodeSuccess(t *testing.T, res *mcp.CallToolResult, v interface{}) {
	t.Helper()
	text := resultText(t, res)
	require.False(t, res.IsError, "unexpected tool error: %s", text)
	require.NoError(t, json.Unmarshal([]byte(text), v))
}

func decodeFailure(t *testing.T, res *mcp.CallToolResult) failure {
	t.Helper()
	require.True(t, res.IsError, "expected a tool error")
	var f failure
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &f))
	assert.False(t, f.OK)
	return f
}

func writeDump(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func indexDump(t *testing.T, s *Server, content string) map[string]interface{} {
	t.Helper()
	res := callTool(t, s.handleIndexSymbols, map[string]interface{}{"path": writeDump(t, "api.yaml", content)})
	var out map[string]interface{}
	decodeSuccess(t, res, &out)
	return out
}

func search(t *testing.T, s *Server, args map[string]interface{}) page {
	t.Helper()
	var p page
	decodeSuccess(t, callTool(t, s.handleSearchAPISymbols, args), &p)
	return p
}

func TestNewServer(t *testing.T) {
	s := newTestServer(t)

	assert.NotNil(t, s.mcp, "MCP server should be initialized")
	assert.NotNil(t, s.storage, "Storage should be initialized")
	assert.NotNil(t, s.indexer, "Indexer should be initialized")
	assert.NotNil(t, s.searcher, "Searcher should be initialized")

	t.Run("registers tools", func(t *testing.T) {
		msg := s.mcp.HandleMessage(context.Background(), []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
		raw, err := json.Marshal(msg)
		require.NoError(t, err)
		for _, name := range []string{"search_api_symbols", "index_symbols", "get_status"} {
			assert.Contains(t, string(raw), name)
		}
	})
}

func TestNewServer_CreatesDatabaseDirectory(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "nested", "dir", "symbols.db")

	s, err := NewServer(cfg, nil)
	require.NoError(t, err)
	defer func() { _ = s.storage.Close() }()

	_, err = os.Stat(cfg.Database.Path)
	assert.NoError(t, err)
}

func TestNewServer_InvalidCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Capacity = 0

	_, err := NewServer(cfg, nil)
	assert.Error(t, err)
}

func TestIndexThenSearch(t *testing.T) {
	s := newTestServer(t)

	stats := indexDump(t, s, actorDump)
	assert.Equal(t, true, stats["indexed"])
	assert.EqualValues(t, 1, stats["sources_indexed"])
	assert.EqualValues(t, 4, stats["symbols_extracted"])

	p := search(t, s, map[string]interface{}{"query": "GetActorLocation", "includeDocs": true})
	require.NotEmpty(t, p.Items)
	assert.Equal(t, "GetActorLocation", p.Query)
	assert.Equal(t, "FVector GetActorLocation() const", p.Items[0].Signature)
	assert.Equal(t, "Returns the actor location.", p.Items[0].Docs)
	assert.Equal(t, string(types.ResultFunction), p.Items[0].Type)
	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(p.Items[0].Data, &data))
	assert.Equal(t, "AActor", data["owner"])
	assert.Equal(t, "GetActorLocation", data["name"])

	t.Run("docs omitted by default", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{"query": "GetActorLocation"})
		require.NotEmpty(t, p.Items)
		assert.Equal(t, "FVector GetActorLocation() const", p.Items[0].Signature)
		assert.Empty(t, p.Items[0].Docs)
	})

	t.Run("empty query", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{"query": "   "})
		assert.Equal(t, 0, p.Total)
		assert.Empty(t, p.Items)
		assert.Nil(t, p.NextSearchIndex)
	})
}

func TestSearch_Pagination(t *testing.T) {
	s := newTestServer(t)
	indexDump(t, s, actorDump)

	first := search(t, s, map[string]interface{}{"query": "Actor"})
	require.Greater(t, first.Total, 2, "fixture should span several pages")
	assert.Equal(t, 2, first.Returned)
	assert.True(t, first.Truncated)
	require.NotNil(t, first.NextSearchIndex)
	assert.Equal(t, first.Total-2, first.RemainingCount)

	seen := map[string]bool{}
	collected := 0
	next := 0
	for {
		p := search(t, s, map[string]interface{}{"query": "Actor", "searchIndex": float64(next)})
		assert.Equal(t, first.Total, p.Total)
		assert.Equal(t, len(p.Items), p.Returned)
		for _, item := range p.Items {
			key := item.Type + string(item.Data)
			assert.False(t, seen[key], "duplicate result %s", key)
			seen[key] = true
		}
		collected += p.Returned
		if p.NextSearchIndex == nil {
			assert.False(t, p.Truncated)
			assert.Equal(t, 0, p.RemainingCount)
			break
		}
		next = *p.NextSearchIndex
	}
	assert.Equal(t, first.Total, collected)

	t.Run("page size override", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{"query": "Actor", "maxBatchResults": float64(100)})
		assert.Equal(t, p.Total, p.Returned)
		assert.Nil(t, p.NextSearchIndex)
	})
}

func TestSearch_Filters(t *testing.T) {
	s := newTestServer(t)
	indexDump(t, s, actorDump)

	t.Run("kinds", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{
			"query":           "Actor",
			"kinds":           []interface{}{"METHOD"},
			"maxBatchResults": float64(50),
		})
		require.NotEmpty(t, p.Items)
		for _, item := range p.Items {
			assert.Equal(t, string(types.ResultFunction), item.Type)
			assert.NotContains(t, item.Signature, "SpawnActor")
		}
	})

	t.Run("source", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{
			"query":           "Actor",
			"source":          "script",
			"maxBatchResults": float64(50),
		})
		var signatures []string
		for _, item := range p.Items {
			signatures = append(signatures, item.Signature)
		}
		assert.Contains(t, signatures, "AActor SpawnActor(UClass Class)")
		assert.NotContains(t, signatures, "FVector GetActorLocation() const")
	})

	t.Run("signature regex", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{
			"query":          "Actor",
			"signatureRegex": "^bool ",
		})
		require.Len(t, p.Items, 1)
		assert.Equal(t, "bool SetActorLocation(FVector NewLocation)", p.Items[0].Signature)
		assert.Equal(t, 1, p.Total)
	})

	t.Run("label regex", func(t *testing.T) {
		p := search(t, s, map[string]interface{}{
			"query":              "/^spawn/i",
			"labelQueryUseRegex": true,
		})
		require.Len(t, p.Items, 1)
		assert.Equal(t, "AActor SpawnActor(UClass Class)", p.Items[0].Signature)
	})
}

func TestSearch_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	indexDump(t, s, actorDump)

	tests := []struct {
		name string
		args map[string]interface{}
		code string
	}{
		{name: "missing query", args: map[string]interface{}{}, code: types.CodeMissingLabelQuery},
		{name: "query not a string", args: map[string]interface{}{"query": float64(3)}, code: types.CodeMissingLabelQuery},
		{name: "zero page size", args: map[string]interface{}{"query": "Actor", "maxBatchResults": float64(0)}, code: types.CodeInvalidMaxBatchResults},
		{name: "negative page size", args: map[string]interface{}{"query": "Actor", "maxBatchResults": float64(-1)}, code: types.CodeInvalidMaxBatchResults},
		{name: "fractional page size", args: map[string]interface{}{"query": "Actor", "maxBatchResults": 2.5}, code: types.CodeInvalidMaxBatchResults},
		{name: "fractional index", args: map[string]interface{}{"query": "Actor", "searchIndex": 1.5}, code: types.CodeInvalidSearchIndex},
		{name: "negative index", args: map[string]interface{}{"query": "Actor", "searchIndex": float64(-1)}, code: types.CodeInvalidSearchIndex},
		{name: "unknown kind", args: map[string]interface{}{"query": "Actor", "kinds": []interface{}{"widget"}}, code: types.CodeInvalidKinds},
		{name: "non-string kind", args: map[string]interface{}{"query": "Actor", "kinds": []interface{}{float64(1)}}, code: types.CodeInvalidKinds},
		{name: "unknown source", args: map[string]interface{}{"query": "Actor", "source": "plugin"}, code: types.CodeInvalidSource},
		{name: "bad signature regex", args: map[string]interface{}{"query": "Actor", "signatureRegex": "("}, code: types.CodeInvalidRegex},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := decodeFailure(t, callTool(t, s.handleSearchAPISymbols, tt.args))
			assert.Equal(t, tt.code, f.Error.Code)
			assert.NotEmpty(t, f.Error.Message)
		})
	}

	t.Run("index past the end reports the valid range", func(t *testing.T) {
		total := search(t, s, map[string]interface{}{"query": "Actor"}).Total
		f := decodeFailure(t, callTool(t, s.handleSearchAPISymbols, map[string]interface{}{
			"query":       "Actor",
			"searchIndex": float64(total),
		}))
		assert.Equal(t, types.CodeInvalidSearchIndex, f.Error.Code)
		assert.Equal(t, map[string]any{"min": float64(0), "max": float64(total - 1)}, f.Error.Details["validRange"])
	})
}

func TestIndexSymbols_Errors(t *testing.T) {
	s := newTestServer(t)
	unsupported := writeDump(t, "notes.txt", "hello")

	tests := []struct {
		name string
		args map[string]interface{}
		code string
	}{
		{name: "missing path", args: map[string]interface{}{}, code: CodeInvalidPath},
		{name: "relative path", args: map[string]interface{}{"path": "some/dir"}, code: CodeInvalidPath},
		{name: "nonexistent path", args: map[string]interface{}{"path": filepath.Join(t.TempDir(), "missing")}, code: CodeInvalidPath},
		{name: "unsupported file", args: map[string]interface{}{"path": unsupported}, code: CodeInvalidPath},
		{name: "bad exclude", args: map[string]interface{}{"path": t.TempDir(), "exclude": float64(1)}, code: CodeInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := decodeFailure(t, callTool(t, s.handleIndexSymbols, tt.args))
			assert.Equal(t, tt.code, f.Error.Code)
		})
	}
}

func TestIndexSymbols_GoProject(t *testing.T) {
	s := newTestServer(t)
	root := t.TempDir()
	src := `package shapes

// Circle is round
type Circle struct {
	Radius float64
}

// NewCircle creates a Circle
func NewCircle(r float64) *Circle { return &Circle{Radius: r} }

// Area returns the area
func (c Circle) Area() float64 { return 0 }
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "circle.go"), []byte(src), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "generated"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "generated", "gen.go"), []byte("package generated\n\nfunc Generated() {}\n"), 0644))

	var stats map[string]interface{}
	decodeSuccess(t, callTool(t, s.handleIndexSymbols, map[string]interface{}{
		"path":    root,
		"exclude": []interface{}{"generated/**"},
	}), &stats)
	assert.EqualValues(t, 1, stats["sources_indexed"])

	p := search(t, s, map[string]interface{}{"query": "Circle.Area", "includeDocs": true})
	require.NotEmpty(t, p.Items)
	assert.Equal(t, "func (Circle) Area() float64", p.Items[0].Signature)
	assert.Equal(t, "Area returns the area", p.Items[0].Docs)

	assert.Zero(t, search(t, s, map[string]interface{}{"query": "Generated"}).Total)
}

func TestIndexSymbols_ResetsSearchCache(t *testing.T) {
	s := newTestServer(t)
	indexDump(t, s, actorDump)

	assert.Zero(t, search(t, s, map[string]interface{}{"query": "APawn"}).Total)
	assert.Equal(t, 1, s.searcher.Cache().Len())

	indexDump(t, s, pawnDump)
	assert.Equal(t, 0, s.searcher.Cache().Len())

	p := search(t, s, map[string]interface{}{"query": "APawn"})
	require.NotEmpty(t, p.Items)
	assert.Equal(t, "class APawn : AActor", p.Items[0].Signature)
}

func TestGetStatus(t *testing.T) {
	s := newTestServer(t)

	var before map[string]interface{}
	decodeSuccess(t, callTool(t, s.handleGetStatus, nil), &before)
	assert.Equal(t, false, before["indexed"])
	assert.NotContains(t, before, "last_indexed_at")

	indexDump(t, s, actorDump)
	search(t, s, map[string]interface{}{"query": "Actor"})

	var after map[string]interface{}
	decodeSuccess(t, callTool(t, s.handleGetStatus, nil), &after)
	assert.Equal(t, true, after["indexed"])
	assert.Equal(t, false, after["indexing"])
	assert.Contains(t, after, "last_indexed_at")
	assert.NotEmpty(t, after["schema_version"])

	stats, ok := after["statistics"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, stats["sources"])
	assert.EqualValues(t, 1, stats["types"])
	assert.EqualValues(t, 3, stats["functions"])

	cache, ok := after["cache"].(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, cache["entries"])
	assert.EqualValues(t, 60, cache["ttl_seconds"])
}

func TestToolError(t *testing.T) {
	t.Run("plain error becomes internal", func(t *testing.T) {
		f := decodeFailure(t, toolError(errors.New("disk on fire")))
		assert.Equal(t, types.CodeInternal, f.Error.Code)
		assert.Equal(t, "disk on fire", f.Error.Message)
	})

	t.Run("internal cause is reported", func(t *testing.T) {
		err := &types.SearchError{Code: types.CodeInternal, Message: "symbol search failed", Err: errors.New("database is locked")}
		f := decodeFailure(t, toolError(err))
		assert.Equal(t, "symbol search failed", f.Error.Message)
		assert.Equal(t, "database is locked", f.Error.Details["cause"])
		assert.Nil(t, err.Details, "original error must not be mutated")
	})

	t.Run("validation details pass through", func(t *testing.T) {
		err := types.NewSearchError(types.CodeInvalidMaxBatchResults, "bad", map[string]any{"min": 1})
		f := decodeFailure(t, toolError(err))
		assert.Equal(t, types.CodeInvalidMaxBatchResults, f.Error.Code)
		assert.Equal(t, float64(1), f.Error.Details["min"])
	})

	t.Run("wrapped code is found", func(t *testing.T) {
		err := fmt.Errorf("page: %w", types.NewSearchError(types.CodeInvalidKinds, "bad", nil))
		assert.Equal(t, types.CodeInvalidKinds, types.ErrorCode(err))
		assert.Equal(t, types.CodeInternal, types.ErrorCode(errors.New("boom")))
	})
}

func TestToInt(t *testing.T) {
	tests := []struct {
		in   interface{}
		want int
		ok   bool
	}{
		{float64(3), 3, true},
		{float64(-2), -2, true},
		{3, 3, true},
		{int64(7), 7, true},
		{json.Number("12"), 12, true},
		{2.5, 0, false},
		{"3", 0, false},
		{true, 0, false},
		{float64(1e12), 0, false},
	}
	for _, tt := range tests {
		got, ok := toInt(tt.in)
		assert.Equal(t, tt.ok, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}

func TestToStrings(t *testing.T) {
	got, ok := toStrings([]interface{}{"class", "method"})
	assert.True(t, ok)
	assert.Equal(t, []string{"class", "method"}, got)

	got, ok = toStrings("class, struct ,")
	assert.True(t, ok)
	assert.Equal(t, []string{"class", "struct"}, got)

	_, ok = toStrings([]interface{}{"class", 1})
	assert.False(t, ok)

	_, ok = toStrings(42)
	assert.False(t, ok)
}
