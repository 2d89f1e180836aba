package searcher

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/dshills/apisearch-mcp/internal/detail"
	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/internal/query"
	"github.com/dshills/apisearch-mcp/internal/walker"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// DefaultPageSize is used when a request does not override the page size
const DefaultPageSize = 200

// Source filter values
const (
	SourceNative = "native"
	SourceScript = "script"
	SourceBoth   = "both"
)

// SymbolProvider returns the ranked match set of a query
type SymbolProvider interface {
	SearchSymbols(ctx context.Context, q query.Query, filter walker.KindFilter) ([]types.SymbolResult, error)
}

// invalidator is implemented by providers that cache a database snapshot
type invalidator interface {
	Invalidate()
}

// SearchRequest is one page request
type SearchRequest struct {
	// Query is nil when the caller omitted it
	Query       *string
	SearchIndex int
	// MaxBatchResults overrides the page size when set
	MaxBatchResults    *int
	IncludeDocs        bool
	Kinds              []string
	LabelQueryUseRegex bool
	SignatureRegex     string
	// Source is native, script or both; empty means both
	Source string
}

// Options tunes a Searcher
type Options struct {
	PageSize          int
	DetailConcurrency int
}

// Searcher serves paginated symbol searches backed by a result cache
type Searcher struct {
	provider SymbolProvider
	fetcher  *detail.Fetcher
	cache    *ResultCache
	pageSize int
	group    singleflight.Group
	logger   *slog.Logger
}

// New creates a Searcher. details may be nil, in which case labels stand in
// for signatures.
func New(provider SymbolProvider, details detail.Provider, cache *ResultCache, opts Options, logger *slog.Logger) *Searcher {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	logger = logging.OrDiscard(logger)
	return &Searcher{
		provider: provider,
		fetcher:  detail.NewFetcher(details, opts.DetailConcurrency, logger),
		cache:    cache,
		pageSize: opts.PageSize,
		logger:   logger,
	}
}

// Cache returns the result cache
func (s *Searcher) Cache() *ResultCache {
	return s.cache
}

// Reset clears the result cache and drops the provider's snapshot, if any.
// Call it after the symbol database changes.
func (s *Searcher) Reset() {
	s.cache.Clear()
	if inv, ok := s.provider.(invalidator); ok {
		inv.Invalidate()
	}
}

// plan is a validated request
type plan struct {
	raw         string
	pageSize    int
	filter      walker.KindFilter
	source      string
	labelRE     *regexp.Regexp
	signatureRE *regexp.Regexp
}

// Search returns one page of results for req. Validation failures and
// provider failures are *types.SearchError values.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*types.SearchPage, error) {
	p, err := s.validate(req)
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(p.raw) == "" {
		if err := checkIndex(req.SearchIndex, 0); err != nil {
			return nil, err
		}
		return &types.SearchPage{Query: p.raw, Items: []types.PageItem{}}, nil
	}

	results, err := s.lookup(ctx, p)
	if err != nil {
		return nil, err
	}

	var details []types.ParsedDetail
	if p.signatureRE != nil {
		details = s.fetcher.Fetch(ctx, toItems(results))
		results, details = filterSignatures(results, details, p.signatureRE)
	}

	total := len(results)
	if err := checkIndex(req.SearchIndex, total); err != nil {
		return nil, err
	}

	start := req.SearchIndex
	end := min(start+p.pageSize, total)
	pageResults := results[start:end]

	var pageDetails []types.ParsedDetail
	if details != nil {
		pageDetails = details[start:end]
	} else {
		pageDetails = s.fetcher.Fetch(ctx, toItems(pageResults))
	}

	return buildPage(p.raw, start, end, total, pageResults, pageDetails, req.IncludeDocs), nil
}

func (s *Searcher) validate(req SearchRequest) (*plan, error) {
	if req.Query == nil {
		return nil, types.NewSearchError(types.CodeMissingLabelQuery,
			"query is required", map[string]any{"field": "query"})
	}
	p := &plan{raw: *req.Query, pageSize: s.pageSize}

	if req.MaxBatchResults != nil {
		if *req.MaxBatchResults <= 0 {
			return nil, types.NewSearchError(types.CodeInvalidMaxBatchResults,
				"maxBatchResults must be a positive integer",
				map[string]any{"received": *req.MaxBatchResults, "min": 1})
		}
		p.pageSize = *req.MaxBatchResults
	}

	if req.SearchIndex < 0 {
		return nil, types.NewSearchError(types.CodeInvalidSearchIndex,
			"searchIndex must not be negative",
			map[string]any{"received": req.SearchIndex, "min": 0})
	}

	filter, invalid := walker.ParseKindFilter(req.Kinds)
	if len(invalid) > 0 {
		valid := make([]string, len(types.AllFilterKinds))
		for i, k := range types.AllFilterKinds {
			valid[i] = string(k)
		}
		return nil, types.NewSearchError(types.CodeInvalidKinds,
			fmt.Sprintf("unknown kinds: %s", strings.Join(invalid, ", ")),
			map[string]any{"invalid": invalid, "valid": valid})
	}
	p.filter = filter

	switch src := strings.ToLower(strings.TrimSpace(req.Source)); src {
	case "", SourceBoth:
		p.source = SourceBoth
	case SourceNative, SourceScript:
		p.source = src
	default:
		return nil, &types.SearchError{
			Code:    types.CodeInvalidSource,
			Message: fmt.Sprintf("unknown source %q", req.Source),
			Details: map[string]any{"received": req.Source, "valid": []string{SourceNative, SourceScript, SourceBoth}},
			Err:     types.ErrUnknownSource,
		}
	}

	var err error
	if req.LabelQueryUseRegex && strings.TrimSpace(p.raw) != "" {
		if p.labelRE, err = CompilePattern("query", strings.TrimSpace(p.raw)); err != nil {
			return nil, err
		}
	}
	if req.SignatureRegex != "" {
		if p.signatureRE, err = CompilePattern("signatureRegex", req.SignatureRegex); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// cacheKey identifies a match set: the normalized query, the kind filter
// and the source. A label regex keys on its compiled form since its flags
// decide case sensitivity.
func (p *plan) cacheKey() string {
	if p.labelRE != nil {
		return "re:" + p.labelRE.String() + "|" + p.filter.Key() + "|" + p.source
	}
	return strings.ToLower(strings.TrimSpace(p.raw)) + "|" + p.filter.Key() + "|" + p.source
}

// lookup returns the cached match set or computes it. Concurrent misses on
// one key share a single provider call, which outlives the cancellation of
// whichever caller started it.
func (s *Searcher) lookup(ctx context.Context, p *plan) ([]types.SymbolResult, error) {
	key := p.cacheKey()
	if results, ok := s.cache.Get(key); ok {
		s.logger.Debug("search cache hit", "key", key, "results", len(results))
		return results, nil
	}
	s.logger.Debug("search cache miss", "key", key)

	shared := context.WithoutCancel(ctx)
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		if results, ok := s.cache.Get(key); ok {
			return results, nil
		}
		results, err := s.compute(shared, p)
		if err != nil {
			return nil, err
		}
		s.cache.Put(key, results)
		return results, nil
	})
	if err != nil {
		s.logger.Warn("symbol provider failed", "query", p.raw, "error", err)
		return nil, &types.SearchError{
			Code:    types.CodeInternal,
			Message: "symbol search failed",
			Err:     err,
		}
	}
	return v.([]types.SymbolResult), nil
}

func (s *Searcher) compute(ctx context.Context, p *plan) ([]types.SymbolResult, error) {
	q := query.Parse(p.raw)
	if p.labelRE != nil {
		q = query.MatchAll()
	}

	results, err := s.provider.SearchSymbols(ctx, q, p.filter)
	if err != nil {
		return nil, err
	}

	kept := make([]types.SymbolResult, 0, len(results))
	for _, r := range results {
		if !sourceAllows(p.source, r) {
			continue
		}
		if p.labelRE != nil && !p.labelRE.MatchString(r.Label) {
			continue
		}
		kept = append(kept, r)
	}
	return kept, nil
}

// sourceAllows keeps namespaces under every source since both native and
// script symbols live in them
func sourceAllows(source string, r types.SymbolResult) bool {
	if source == SourceBoth || r.Kind == types.ResultNamespace {
		return true
	}
	return string(r.Origin) == source
}

func filterSignatures(results []types.SymbolResult, details []types.ParsedDetail, re *regexp.Regexp) ([]types.SymbolResult, []types.ParsedDetail) {
	keptResults := make([]types.SymbolResult, 0, len(results))
	keptDetails := make([]types.ParsedDetail, 0, len(details))
	for i, d := range details {
		if re.MatchString(d.Signature) {
			keptResults = append(keptResults, results[i])
			keptDetails = append(keptDetails, d)
		}
	}
	return keptResults, keptDetails
}

// checkIndex accepts indexes in [0, total-1], and 0 for an empty set
func checkIndex(index, total int) error {
	maxIndex := max(total-1, 0)
	if index >= 0 && index <= maxIndex {
		return nil
	}
	return types.NewSearchError(types.CodeInvalidSearchIndex,
		fmt.Sprintf("searchIndex %d is out of range", index),
		map[string]any{
			"received":   index,
			"total":      total,
			"validRange": map[string]int{"min": 0, "max": maxIndex},
		})
}

func toItems(results []types.SymbolResult) []detail.Item {
	items := make([]detail.Item, len(results))
	for i, r := range results {
		items[i] = detail.Item{Label: r.Label, Payload: r.Payload}
	}
	return items
}

func buildPage(raw string, start, end, total int, results []types.SymbolResult, details []types.ParsedDetail, includeDocs bool) *types.SearchPage {
	page := &types.SearchPage{
		Query:       raw,
		SearchIndex: start,
		Total:       total,
		Returned:    len(results),
		Truncated:   end < total,
		Items:       make([]types.PageItem, len(results)),
	}
	if end < total {
		next := end
		page.NextSearchIndex = &next
		page.RemainingCount = total - end
	}

	for i, r := range results {
		item := types.PageItem{
			Signature: details[i].Signature,
			Type:      string(r.Kind),
			Data:      r.Payload,
		}
		if includeDocs {
			item.Docs = details[i].Docs
		}
		page.Items[i] = item
	}
	return page
}
