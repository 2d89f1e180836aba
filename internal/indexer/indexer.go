package indexer

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/internal/parser"
	"github.com/dshills/apisearch-mcp/internal/storage"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

// LanguageGo is the source language recorded for Go packages
const LanguageGo = "go"

var (
	// ErrIndexInProgress is returned when IndexPath is called while another
	// run is still going
	ErrIndexInProgress = errors.New("indexing already in progress")
	// ErrUnsupportedPath is returned for files that are neither Go sources
	// nor symbol dumps
	ErrUnsupportedPath = errors.New("unsupported path")
)

// Indexer coordinates the indexing pipeline: discover -> parse -> store
type Indexer struct {
	parser  *parser.Parser
	storage storage.Storage
	logger  *slog.Logger

	running atomic.Bool
}

// Config contains configuration for the indexer
type Config struct {
	Workers       int      // Number of concurrent parse workers (default: runtime.NumCPU())
	BatchSize     int      // Number of sources to commit per transaction (default: 20)
	IncludeTests  bool     // Whether to index _test.go files
	IncludeVendor bool     // Whether to index vendor directories
	Exclude       []string // doublestar patterns, relative to the indexed root

	// Progress is called after each source is stored
	Progress func(done, total int)
}

// Statistics contains statistics about the indexing operation
type Statistics struct {
	SourcesIndexed   int
	SourcesSkipped   int
	SourcesFailed    int
	SourcesRemoved   int
	SymbolsExtracted int
	Duration         time.Duration
	ErrorMessages    []string
}

// New creates a new Indexer instance
func New(store storage.Storage, logger *slog.Logger) *Indexer {
	return &Indexer{
		parser:  parser.New(),
		storage: store,
		logger:  logging.OrDiscard(logger),
	}
}

// Running reports whether an indexing run is in progress
func (idx *Indexer) Running() bool {
	return idx.running.Load()
}

// unit is one source: a Go package directory or a symbol dump file
type unit struct {
	path      string
	language  string
	namespace string
	files     []string
	dump      bool

	hash     [32]byte
	size     int64
	skip     bool
	sets     []declSet
	parseErr string
	origin   types.Origin
	err      error
}

// IndexPath indexes a Go source tree, a single Go file or a symbol dump
// (.yaml, .yml or .json). Unchanged sources are skipped and Go packages
// that disappeared from an indexed tree are removed.
func (idx *Indexer) IndexPath(ctx context.Context, path string, config *Config) (*Statistics, error) {
	if !idx.running.CompareAndSwap(false, true) {
		return nil, ErrIndexInProgress
	}
	defer idx.running.Store(false)

	if config == nil {
		config = &Config{}
	}
	workers := config.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	batchSize := config.BatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	startTime := time.Now()
	stats := &Statistics{
		ErrorMessages: make([]string, 0),
	}

	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat path: %w", err)
	}

	units, err := idx.discover(root, info, config)
	if err != nil {
		return nil, fmt.Errorf("failed to discover sources: %w", err)
	}

	// Parse concurrently; failures are recorded on the unit
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, u := range units {
		g.Go(func() error {
			idx.prepare(gctx, u)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Store sequentially in batched transactions
	for i := 0; i < len(units); i += batchSize {
		end := min(i+batchSize, len(units))
		if err := idx.storeBatch(ctx, units[i:end], stats); err != nil {
			return nil, err
		}
		if config.Progress != nil {
			for done := i + 1; done <= end; done++ {
				config.Progress(done, len(units))
			}
		}
	}

	if info.IsDir() {
		removed, err := idx.removeStale(ctx, root, units)
		if err != nil {
			return nil, fmt.Errorf("failed to remove stale sources: %w", err)
		}
		stats.SourcesRemoved = removed
	}

	stats.Duration = time.Since(startTime)
	idx.logger.Info("indexing complete",
		"path", root,
		"indexed", stats.SourcesIndexed,
		"skipped", stats.SourcesSkipped,
		"failed", stats.SourcesFailed,
		"removed", stats.SourcesRemoved,
		"symbols", stats.SymbolsExtracted,
		"duration", stats.Duration)
	return stats, nil
}

// discover lists the sources under root
func (idx *Indexer) discover(root string, info fs.FileInfo, config *Config) ([]*unit, error) {
	if !info.IsDir() {
		switch strings.ToLower(filepath.Ext(root)) {
		case ".go":
			return []*unit{{path: root, language: LanguageGo, files: []string{root}}}, nil
		case ".yaml", ".yml", ".json":
			return []*unit{{path: root, files: []string{root}, dump: true}}, nil
		default:
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPath, root)
		}
	}

	packages := make(map[string][]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			// Skip hidden directories and testdata
			if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "testdata" {
				return filepath.SkipDir
			}
			// Skip vendor unless explicitly included
			if !config.IncludeVendor && name == "vendor" {
				return filepath.SkipDir
			}
			if excluded(config.Exclude, rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		// Skip test files unless explicitly included
		if !config.IncludeTests && strings.HasSuffix(path, "_test.go") {
			return nil
		}
		if excluded(config.Exclude, rel) {
			return nil
		}

		dir := filepath.Dir(path)
		packages[dir] = append(packages[dir], path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	units := make([]*unit, 0, len(packages))
	for dir, files := range packages {
		sort.Strings(files)
		units = append(units, &unit{
			path:      dir,
			language:  LanguageGo,
			namespace: packageNamespace(root, dir),
			files:     files,
		})
	}
	sort.Slice(units, func(i, j int) bool { return units[i].path < units[j].path })
	return units, nil
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, rel)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// packageNamespace maps a package directory to a "::" path relative to the
// indexed root. The root package takes its package name later.
func packageNamespace(root, dir string) string {
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." {
		return ""
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "::")
}

// prepare reads, hashes and parses a unit
func (idx *Indexer) prepare(ctx context.Context, u *unit) {
	if ctx.Err() != nil {
		return
	}

	files := make([]parser.File, 0, len(u.files))
	hash := sha256.New()
	for _, path := range u.files {
		content, err := os.ReadFile(path)
		if err != nil {
			u.err = fmt.Errorf("failed to read %s: %w", path, err)
			return
		}
		hash.Write([]byte(filepath.Base(path)))
		hash.Write([]byte{0})
		hash.Write(content)
		u.size += int64(len(content))
		files = append(files, parser.File{Path: path, Content: content})
	}
	copy(u.hash[:], hash.Sum(nil))

	// Check if the source has changed
	existing, err := idx.storage.GetSource(ctx, u.path)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		u.err = err
		return
	}
	if err == nil && existing.ContentHash == u.hash {
		u.skip = true
		return
	}

	if u.dump {
		idx.prepareDump(u, files[0].Content)
		return
	}

	result, err := idx.parser.ParsePackage(files)
	if err != nil {
		u.err = err
		return
	}
	if result.HasErrors() {
		first := result.Errors[0]
		u.parseErr = fmt.Sprintf("%s:%d:%d: %s", first.File, first.Line, first.Column, first.Message)
	}
	if u.namespace == "" {
		u.namespace = result.PackageName
	}
	u.origin = types.OriginNative
	u.sets = []declSet{{namespace: u.namespace, result: result}}
}

func (idx *Indexer) prepareDump(u *unit, content []byte) {
	dump, err := ParseDump(content)
	if err != nil {
		u.language = DefaultDumpLanguage
		u.parseErr = err.Error()
		return
	}
	u.language = dump.Language
	u.origin = dump.Origin
	u.sets = dump.declSets()
}

// storeBatch writes a batch of units within a transaction
func (idx *Indexer) storeBatch(ctx context.Context, units []*unit, stats *Statistics) error {
	tx, err := idx.storage.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, u := range units {
		switch {
		case u.skip:
			stats.SourcesSkipped++
			continue
		case u.err != nil:
			stats.SourcesFailed++
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %v", u.path, u.err))
			idx.logger.Warn("failed to index source", "path", u.path, "error", u.err)
			continue
		}

		symbols, err := idx.storeUnit(ctx, tx, u)
		if err != nil {
			return fmt.Errorf("failed to store %s: %w", u.path, err)
		}

		if u.parseErr != "" {
			stats.ErrorMessages = append(stats.ErrorMessages, fmt.Sprintf("%s: %s", u.path, u.parseErr))
			idx.logger.Warn("source has parse errors", "path", u.path, "error", u.parseErr)
		}
		if u.parseErr != "" && u.sets == nil {
			stats.SourcesFailed++
			continue
		}
		stats.SourcesIndexed++
		stats.SymbolsExtracted += symbols
	}

	// Commit the batch
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// storeUnit replaces the stored symbols of a unit
func (idx *Indexer) storeUnit(ctx context.Context, tx storage.Tx, u *unit) (int, error) {
	existing, err := tx.GetSource(ctx, u.path)
	switch {
	case err == nil:
		if err := tx.DeleteSymbolsBySource(ctx, existing.ID); err != nil {
			return 0, err
		}
	case !errors.Is(err, storage.ErrNotFound):
		return 0, err
	}

	source := &storage.Source{
		Path:        u.path,
		Language:    u.language,
		ContentHash: u.hash,
		SizeBytes:   u.size,
	}
	if u.parseErr != "" {
		source.ParseError = &u.parseErr
	}
	if err := tx.UpsertSource(ctx, source); err != nil {
		return 0, err
	}

	w := &declWriter{store: tx, sourceID: source.ID, origin: u.origin}
	for _, set := range u.sets {
		if err := w.write(ctx, set); err != nil {
			return 0, err
		}
	}
	return w.symbols, nil
}

// removeStale deletes Go sources under root that were not discovered
func (idx *Indexer) removeStale(ctx context.Context, root string, units []*unit) (int, error) {
	seen := make(map[string]bool, len(units))
	for _, u := range units {
		seen[u.path] = true
	}

	sources, err := idx.storage.ListSources(ctx)
	if err != nil {
		return 0, err
	}

	removed := 0
	prefix := root + string(filepath.Separator)
	for _, src := range sources {
		if src.Language != LanguageGo || seen[src.Path] {
			continue
		}
		if src.Path != root && !strings.HasPrefix(src.Path, prefix) {
			continue
		}
		if err := idx.storage.DeleteSource(ctx, src.ID); err != nil {
			return removed, err
		}
		idx.logger.Debug("removed stale source", "path", src.Path)
		removed++
	}
	return removed, nil
}
