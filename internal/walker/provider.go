package walker

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/apisearch-mcp/internal/query"
	"github.com/dshills/apisearch-mcp/internal/symboldb"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// Source loads a database snapshot, typically from storage
type Source interface {
	LoadDatabase(ctx context.Context) (*symboldb.Database, error)
}

// staticSource serves a fixed snapshot
type staticSource struct {
	db *symboldb.Database
}

func (s staticSource) LoadDatabase(context.Context) (*symboldb.Database, error) {
	return s.db, nil
}

// FromDatabase wraps an already built database as a Source
func FromDatabase(db *symboldb.Database) Source {
	return staticSource{db: db}
}

// Provider answers symbol searches over a lazily loaded snapshot. The
// snapshot is reused until Invalidate is called.
type Provider struct {
	source Source
	rules  Exclusions

	mu     sync.Mutex
	walker *Walker
}

// NewProvider creates a Provider over source
func NewProvider(source Source, rules Exclusions) *Provider {
	return &Provider{source: source, rules: rules}
}

// SearchSymbols runs the walker for q and returns the ranked, filtered results
func (p *Provider) SearchSymbols(ctx context.Context, q query.Query, filter KindFilter) ([]types.SymbolResult, error) {
	w, err := p.current(ctx)
	if err != nil {
		return nil, err
	}
	return w.Search(q, filter), nil
}

// Invalidate drops the cached snapshot so the next search reloads it
func (p *Provider) Invalidate() {
	p.mu.Lock()
	p.walker = nil
	p.mu.Unlock()
}

// Stats reports node counts of the current snapshot
func (p *Provider) Stats(ctx context.Context) (symboldb.Stats, error) {
	w, err := p.current(ctx)
	if err != nil {
		return symboldb.Stats{}, err
	}
	return w.db.Stats(), nil
}

func (p *Provider) current(ctx context.Context) (*Walker, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.walker != nil {
		return p.walker, nil
	}
	db, err := p.source.LoadDatabase(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load symbol database: %w", err)
	}
	p.walker = New(db, p.rules)
	return p.walker, nil
}
