package searcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dshills/apisearch-mcp/internal/detail"
	"github.com/dshills/apisearch-mcp/internal/query"
	"github.com/dshills/apisearch-mcp/internal/walker"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// mockProvider implements SymbolProvider for testing
type mockProvider struct {
	searchFunc  func(ctx context.Context, q query.Query, filter walker.KindFilter) ([]types.SymbolResult, error)
	calls       atomic.Int32
	invalidated atomic.Int32
	lastQuery   query.Query
	mu          sync.Mutex
}

func (m *mockProvider) SearchSymbols(ctx context.Context, q query.Query, filter walker.KindFilter) ([]types.SymbolResult, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastQuery = q
	m.mu.Unlock()
	if m.searchFunc != nil {
		return m.searchFunc(ctx, q, filter)
	}
	return filter.Apply(makeResults(3)), nil
}

func (m *mockProvider) Invalidate() {
	m.invalidated.Add(1)
}

// mockDetails answers one payload at a time
type mockDetails struct {
	calls atomic.Int32
}

func (m *mockDetails) FetchDetail(_ context.Context, p types.Payload) (string, error) {
	m.calls.Add(1)
	fp, ok := p.(types.FunctionPayload)
	if !ok {
		return "", errors.New("no detail")
	}
	return detail.FormatDetail("cpp", "void "+fp.Name+"()", "Docs for "+fp.Name), nil
}

// makeResults builds n function results alternating native and script origins
func makeResults(n int) []types.SymbolResult {
	out := make([]types.SymbolResult, n)
	for i := range out {
		origin := types.OriginNative
		if i%2 == 1 {
			origin = types.OriginScript
		}
		name := fmt.Sprintf("Fn%03d", i)
		out[i] = types.NewSymbolResult(types.ResultFunction, "AActor."+name+"()", origin,
			types.FunctionPayload{ID: int64(i + 1), Owner: "AActor", Name: name})
	}
	return out
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int { return &i }

func newTestSearcher(t *testing.T, provider SymbolProvider, details detail.Provider) *Searcher {
	t.Helper()
	cache, err := NewResultCache(DefaultCacheCapacity, DefaultCacheTTL)
	require.NoError(t, err)
	return New(provider, details, cache, Options{}, nil)
}

func requireCode(t *testing.T, err error, code string) *types.SearchError {
	t.Helper()
	require.Error(t, err)
	var se *types.SearchError
	require.True(t, errors.As(err, &se), "expected SearchError, got %T", err)
	assert.Equal(t, code, se.Code)
	return se
}

func TestSearchPagination(t *testing.T) {
	provider := &mockProvider{searchFunc: func(context.Context, query.Query, walker.KindFilter) ([]types.SymbolResult, error) {
		return makeResults(450), nil
	}}
	s := newTestSearcher(t, provider, &mockDetails{})
	ctx := context.Background()

	var all []types.PageItem
	index := 0
	pages := 0
	for {
		page, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), SearchIndex: index})
		require.NoError(t, err)
		pages++

		assert.Equal(t, 450, page.Total)
		assert.Equal(t, min(DefaultPageSize, 450-index), page.Returned)
		assert.Len(t, page.Items, page.Returned)
		all = append(all, page.Items...)

		if page.NextSearchIndex == nil {
			assert.False(t, page.Truncated)
			assert.Zero(t, page.RemainingCount)
			break
		}
		assert.True(t, page.Truncated)
		assert.Equal(t, 450-*page.NextSearchIndex, page.RemainingCount)
		index = *page.NextSearchIndex
	}

	assert.Equal(t, 3, pages)
	require.Len(t, all, 450)
	seen := make(map[string]bool)
	for i, item := range all {
		id := item.Data.Identity()
		assert.False(t, seen[id], "duplicate %s", id)
		seen[id] = true
		assert.Equal(t, fmt.Sprintf("void Fn%03d()", i), item.Signature)
	}
	assert.Equal(t, int32(1), provider.calls.Load(), "pages share one cached match set")
}

func TestSearchMaxBatchResults(t *testing.T) {
	s := newTestSearcher(t, &mockProvider{}, nil)

	page, err := s.Search(context.Background(), SearchRequest{Query: strPtr("Fn"), MaxBatchResults: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Returned)
	require.NotNil(t, page.NextSearchIndex)
	assert.Equal(t, 2, *page.NextSearchIndex)
	assert.Equal(t, 1, page.RemainingCount)

	for _, bad := range []int{0, -1} {
		_, err := s.Search(context.Background(), SearchRequest{Query: strPtr("Fn"), MaxBatchResults: intPtr(bad)})
		se := requireCode(t, err, types.CodeInvalidMaxBatchResults)
		assert.Equal(t, bad, se.Details["received"])
	}
}

func TestSearchIndexValidation(t *testing.T) {
	s := newTestSearcher(t, &mockProvider{}, nil)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), SearchIndex: 5})
	se := requireCode(t, err, types.CodeInvalidSearchIndex)
	assert.Equal(t, map[string]int{"min": 0, "max": 2}, se.Details["validRange"])
	assert.Equal(t, 5, se.Details["received"])

	_, err = s.Search(ctx, SearchRequest{Query: strPtr("Fn"), SearchIndex: 3})
	requireCode(t, err, types.CodeInvalidSearchIndex)

	_, err = s.Search(ctx, SearchRequest{Query: strPtr("Fn"), SearchIndex: -1})
	requireCode(t, err, types.CodeInvalidSearchIndex)

	page, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), SearchIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Returned)
	assert.Nil(t, page.NextSearchIndex)
}

func TestSearchEmptyResultSet(t *testing.T) {
	provider := &mockProvider{searchFunc: func(context.Context, query.Query, walker.KindFilter) ([]types.SymbolResult, error) {
		return nil, nil
	}}
	s := newTestSearcher(t, provider, nil)

	page, err := s.Search(context.Background(), SearchRequest{Query: strPtr("nothing")})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Items)
	assert.Nil(t, page.NextSearchIndex)

	_, err = s.Search(context.Background(), SearchRequest{Query: strPtr("nothing"), SearchIndex: 1})
	se := requireCode(t, err, types.CodeInvalidSearchIndex)
	assert.Equal(t, map[string]int{"min": 0, "max": 0}, se.Details["validRange"])
}

func TestSearchQueryPresence(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, nil)

	_, err := s.Search(context.Background(), SearchRequest{})
	requireCode(t, err, types.CodeMissingLabelQuery)

	page, err := s.Search(context.Background(), SearchRequest{Query: strPtr("   ")})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
	assert.NotNil(t, page.Items)
	assert.Zero(t, provider.calls.Load())
}

func TestSearchCacheIdempotence(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, &mockDetails{})
	ctx := context.Background()

	first, err := s.Search(ctx, SearchRequest{Query: strPtr("GetActor")})
	require.NoError(t, err)
	second, err := s.Search(ctx, SearchRequest{Query: strPtr("  getactor ")})
	require.NoError(t, err)

	assert.Equal(t, first.Items, second.Items)
	assert.Equal(t, int32(1), provider.calls.Load())
	assert.Equal(t, 1, s.Cache().Len())
}

func TestSearchKindsArePartOfCacheKey(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, nil)
	ctx := context.Background()

	_, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn")})
	require.NoError(t, err)
	page, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), Kinds: []string{"property"}})
	require.NoError(t, err)
	_, err = s.Search(ctx, SearchRequest{Query: strPtr("Fn"), Kinds: []string{"PROPERTY"}})
	require.NoError(t, err)

	assert.Zero(t, page.Total)
	assert.Equal(t, int32(2), provider.calls.Load())
}

func TestSearchValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		req  SearchRequest
		code string
	}{
		{"unknown kind", SearchRequest{Query: strPtr("x"), Kinds: []string{"class", "widget"}}, types.CodeInvalidKinds},
		{"unknown source", SearchRequest{Query: strPtr("x"), Source: "plugin"}, types.CodeInvalidSource},
		{"bad label regex", SearchRequest{Query: strPtr("(unclosed"), LabelQueryUseRegex: true}, types.CodeInvalidRegex},
		{"bad signature regex", SearchRequest{Query: strPtr("x"), SignatureRegex: "/a/q"}, types.CodeInvalidRegex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &mockProvider{}
			s := newTestSearcher(t, provider, nil)
			_, err := s.Search(context.Background(), tt.req)
			requireCode(t, err, tt.code)
			assert.Zero(t, provider.calls.Load(), "validation precedes provider calls")
		})
	}
}

func TestSearchProviderError(t *testing.T) {
	cause := errors.New("database locked")
	provider := &mockProvider{searchFunc: func(context.Context, query.Query, walker.KindFilter) ([]types.SymbolResult, error) {
		return nil, cause
	}}
	s := newTestSearcher(t, provider, nil)

	_, err := s.Search(context.Background(), SearchRequest{Query: strPtr("Fn")})
	requireCode(t, err, types.CodeInternal)
	assert.ErrorIs(t, err, cause)
	assert.Zero(t, s.Cache().Len(), "failures are not cached")
}

func TestSearchSourceFilter(t *testing.T) {
	s := newTestSearcher(t, &mockProvider{}, nil)
	ctx := context.Background()

	native, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), Source: "Native"})
	require.NoError(t, err)
	assert.Equal(t, 2, native.Total)

	script, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), Source: SourceScript})
	require.NoError(t, err)
	assert.Equal(t, 1, script.Total)
	assert.Equal(t, "AActor.Fn001()", script.Items[0].Signature)

	both, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), Source: SourceBoth})
	require.NoError(t, err)
	assert.Equal(t, 3, both.Total)
}

func TestSearchLabelRegex(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, nil)

	page, err := s.Search(context.Background(), SearchRequest{Query: strPtr(`fn00[02]`), LabelQueryUseRegex: true})
	require.NoError(t, err)

	assert.True(t, provider.lastQuery.IsMatchAll())
	require.Equal(t, 2, page.Total)
	assert.Equal(t, "AActor.Fn000()", page.Items[0].Signature)
	assert.Equal(t, "AActor.Fn002()", page.Items[1].Signature)

	// the literal form without flags is case-sensitive
	page, err = s.Search(context.Background(), SearchRequest{Query: strPtr(`/fn00[02]/`), LabelQueryUseRegex: true})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

func TestSearchLabelRegexCaseIsPartOfCacheKey(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, nil)
	ctx := context.Background()

	upper, err := s.Search(ctx, SearchRequest{Query: strPtr(`/Fn00[02]/`), LabelQueryUseRegex: true})
	require.NoError(t, err)
	assert.Equal(t, 2, upper.Total)

	lower, err := s.Search(ctx, SearchRequest{Query: strPtr(`/fn00[02]/`), LabelQueryUseRegex: true})
	require.NoError(t, err)
	assert.Zero(t, lower.Total)
	assert.Equal(t, int32(2), provider.calls.Load())
	assert.Equal(t, 2, s.Cache().Len())
}

func TestSearchSignatureRegex(t *testing.T) {
	details := &mockDetails{}
	s := newTestSearcher(t, &mockProvider{}, details)

	page, err := s.Search(context.Background(), SearchRequest{
		Query:          strPtr("Fn"),
		SignatureRegex: `/void Fn00[12]\(\)/`,
		IncludeDocs:    true,
	})
	require.NoError(t, err)

	require.Equal(t, 2, page.Total)
	assert.Equal(t, "void Fn001()", page.Items[0].Signature)
	assert.Equal(t, "Docs for Fn001", page.Items[0].Docs)
	assert.Equal(t, int32(3), details.calls.Load(), "details fetched once for the whole list")
}

func TestSearchIncludeDocs(t *testing.T) {
	s := newTestSearcher(t, &mockProvider{}, &mockDetails{})
	ctx := context.Background()

	without, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn")})
	require.NoError(t, err)
	assert.Empty(t, without.Items[0].Docs)
	assert.Equal(t, "void Fn000()", without.Items[0].Signature)
	assert.Equal(t, "function", without.Items[0].Type)

	with, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), IncludeDocs: true})
	require.NoError(t, err)
	assert.Equal(t, "Docs for Fn000", with.Items[0].Docs)
}

func TestSearchCancelledSkipsDetails(t *testing.T) {
	details := &mockDetails{}
	s := newTestSearcher(t, &mockProvider{}, details)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	page, err := s.Search(ctx, SearchRequest{Query: strPtr("Fn"), IncludeDocs: true})
	require.NoError(t, err)
	assert.Equal(t, "AActor.Fn000()", page.Items[0].Signature)
	assert.Empty(t, page.Items[0].Docs)
	assert.Zero(t, details.calls.Load())
}

func TestSearchCollapsesConcurrentMisses(t *testing.T) {
	defer goleak.VerifyNone(t)

	release := make(chan struct{})
	provider := &mockProvider{searchFunc: func(context.Context, query.Query, walker.KindFilter) ([]types.SymbolResult, error) {
		<-release
		return makeResults(5), nil
	}}
	s := newTestSearcher(t, provider, nil)

	var wg sync.WaitGroup
	pages := make([]*types.SearchPage, 8)
	for i := range pages {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			page, err := s.Search(context.Background(), SearchRequest{Query: strPtr("Fn")})
			assert.NoError(t, err)
			pages[i] = page
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), provider.calls.Load())
	for _, p := range pages {
		require.NotNil(t, p)
		assert.Equal(t, pages[0].Items, p.Items)
	}
}

func TestSearchSharedMissSurvivesCallerCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	started := make(chan struct{})
	release := make(chan struct{})
	provider := &mockProvider{searchFunc: func(ctx context.Context, _ query.Query, _ walker.KindFilter) ([]types.SymbolResult, error) {
		close(started)
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return makeResults(3), nil
	}}
	s := newTestSearcher(t, provider, nil)

	ctxA, cancelA := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	var errA, errB error
	var pageB *types.SearchPage

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errA = s.Search(ctxA, SearchRequest{Query: strPtr("Fn")})
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		pageB, errB = s.Search(context.Background(), SearchRequest{Query: strPtr("Fn")})
	}()
	time.Sleep(20 * time.Millisecond)
	cancelA()
	close(release)
	wg.Wait()

	assert.NoError(t, errA, "cancellation only skips detail enrichment")
	require.NoError(t, errB)
	assert.Equal(t, 3, pageB.Total)
	assert.Equal(t, int32(1), provider.calls.Load())
}

func TestSearchReset(t *testing.T) {
	provider := &mockProvider{}
	s := newTestSearcher(t, provider, nil)

	_, err := s.Search(context.Background(), SearchRequest{Query: strPtr("Fn")})
	require.NoError(t, err)
	require.Equal(t, 1, s.Cache().Len())

	s.Reset()
	assert.Zero(t, s.Cache().Len())
	assert.Equal(t, int32(1), provider.invalidated.Load())
}

func TestCacheKey(t *testing.T) {
	methods, _ := walker.ParseKindFilter([]string{"method", "class"})
	p := &plan{raw: "  GetActor ", filter: methods, source: SourceNative}
	assert.Equal(t, "getactor|class,method|native", p.cacheKey())

	p.labelRE, _ = CompilePattern("query", "x")
	assert.Equal(t, "re:(?i)x|class,method|native", p.cacheKey())

	p.labelRE, _ = CompilePattern("query", "/X/")
	upper := p.cacheKey()
	p.labelRE, _ = CompilePattern("query", "/x/")
	assert.NotEqual(t, upper, p.cacheKey(), "case-sensitive patterns differing in case")
}

func TestCompilePattern(t *testing.T) {
	tests := []struct {
		raw     string
		subject string
		match   bool
	}{
		{"getactor", "AActor.GetActorLocation()", true},
		{"/getactor/", "AActor.GetActorLocation()", false},
		{"/getactor/i", "AActor.GetActorLocation()", true},
		{"/^AActor\\./", "AActor.GetActorLocation()", true},
		{"/", "a/b", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			re, err := CompilePattern("query", tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.match, re.MatchString(tt.subject))
		})
	}

	_, err := CompilePattern("signatureRegex", "/x/g")
	se := requireCode(t, err, types.CodeInvalidRegex)
	assert.Equal(t, "signatureRegex", se.Details["field"])
}
