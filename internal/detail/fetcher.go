// Package detail enriches a page of search results with the signature and
// documentation of each symbol.
package detail

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// DefaultConcurrency caps in-flight individual detail requests
const DefaultConcurrency = 10

// Provider returns the detail blob of one symbol
type Provider interface {
	FetchDetail(ctx context.Context, p types.Payload) (string, error)
}

// BatchProvider resolves many symbols in one request. Blobs are aligned by
// index with the payloads.
type BatchProvider interface {
	Provider
	FetchDetails(ctx context.Context, ps []types.Payload) ([]string, error)
}

// Item is one result awaiting enrichment
type Item struct {
	Label   string
	Payload types.Payload
}

// Fetcher resolves details for a page of results
type Fetcher struct {
	provider    Provider
	concurrency int64
	logger      *slog.Logger
}

// NewFetcher creates a Fetcher. A concurrency below one selects
// DefaultConcurrency.
func NewFetcher(provider Provider, concurrency int, logger *slog.Logger) *Fetcher {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	return &Fetcher{
		provider:    provider,
		concurrency: int64(concurrency),
		logger:      logging.OrDiscard(logger),
	}
}

// Fetch returns one parsed detail per item, aligned by index. It never
// fails: a cancelled context or a failed provider leaves the label as the
// signature and the docs empty.
func (f *Fetcher) Fetch(ctx context.Context, items []Item) []types.ParsedDetail {
	out := make([]types.ParsedDetail, len(items))
	if len(items) == 0 {
		return out
	}
	if f.provider == nil || ctx.Err() != nil {
		for i, it := range items {
			out[i] = types.ParsedDetail{Signature: it.Label}
		}
		return out
	}

	var blobs []string
	if bp, ok := f.provider.(BatchProvider); ok {
		blobs = f.fetchBatch(ctx, bp, items)
	} else {
		blobs = f.fetchEach(ctx, items)
	}

	for i, it := range items {
		d := ParseDetail(blobs[i])
		if d.Signature == "" {
			d.Signature = it.Label
		}
		out[i] = d
	}
	return out
}

func (f *Fetcher) fetchBatch(ctx context.Context, bp BatchProvider, items []Item) []string {
	payloads := make([]types.Payload, len(items))
	for i, it := range items {
		payloads[i] = it.Payload
	}

	blobs, err := bp.FetchDetails(ctx, payloads)
	if err == nil && len(blobs) != len(items) {
		err = fmt.Errorf("provider returned %d details for %d symbols", len(blobs), len(items))
	}
	if err != nil {
		f.logger.Warn("batch detail fetch failed", "items", len(items), "error", err)
		return make([]string, len(items))
	}
	return blobs
}

// fetchEach issues individual requests, at most f.concurrency at a time
func (f *Fetcher) fetchEach(ctx context.Context, items []Item) []string {
	blobs := make([]string, len(items))
	sem := semaphore.NewWeighted(f.concurrency)
	var wg sync.WaitGroup

	for i, it := range items {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int, p types.Payload) {
			defer wg.Done()
			defer sem.Release(1)

			blob, err := f.provider.FetchDetail(ctx, p)
			if err != nil {
				f.logger.Debug("detail fetch failed", "identity", p.Identity(), "error", err)
				return
			}
			blobs[i] = blob
		}(i, it.Payload)
	}
	wg.Wait()
	return blobs
}
