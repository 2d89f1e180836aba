package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/apisearch-mcp/internal/config"
	"github.com/dshills/apisearch-mcp/internal/indexer"
	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/internal/searcher"
	"github.com/dshills/apisearch-mcp/internal/storage"
	"github.com/dshills/apisearch-mcp/internal/walker"
)

const (
	// ServerName is the MCP server name
	ServerName = "apisearch-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"

	shutdownTimeout = 5 * time.Second
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	config   *config.Config
	logger   *slog.Logger
}

// NewServer opens the symbol store at cfg.Database.Path and creates a new
// MCP server instance on top of it
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	dbPath := cfg.Database.Path
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	s, err := NewServerWithStorage(store, cfg, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return s, nil
}

// NewServerWithStorage creates a server over an already opened store. The
// server owns store and closes it when Serve returns.
func NewServerWithStorage(store storage.Storage, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	logger = logging.OrDiscard(logger)

	cache, err := searcher.NewResultCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create result cache: %w", err)
	}

	// The walker reads a snapshot loaded from storage; details come straight
	// from storage in batches.
	provider := walker.NewProvider(store, cfg.Search.Exclusions.Rules())
	srch := searcher.New(provider, store, cache, searcher.Options{
		PageSize:          cfg.Search.PageSize,
		DetailConcurrency: cfg.Search.DetailConcurrency,
	}, logger)

	s := &Server{
		mcp: server.NewMCPServer(
			ServerName,
			ServerVersion,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
		storage:  store,
		indexer:  indexer.New(store, logger),
		searcher: srch,
		config:   cfg,
		logger:   logger,
	}

	s.registerTools()
	return s, nil
}

// Serve runs the configured transport and blocks until ctx is cancelled or
// the transport fails. The store is closed on return.
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()

	switch s.config.Server.Transport {
	case config.TransportSSE:
		sse := server.NewSSEServer(s.mcp)
		s.logger.Info("MCP server listening", "transport", "sse", "addr", s.config.Server.Addr)
		return s.serveHTTP(ctx, sse.Start, sse.Shutdown)
	case config.TransportHTTP:
		h := server.NewStreamableHTTPServer(s.mcp)
		s.logger.Info("MCP server listening", "transport", "http", "addr", s.config.Server.Addr)
		return s.serveHTTP(ctx, h.Start, h.Shutdown)
	default:
		stdio := server.NewStdioServer(s.mcp)
		stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
		s.logger.Info("MCP server listening", "transport", "stdio")
		err := stdio.Listen(ctx, os.Stdin, os.Stdout)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

func (s *Server) serveHTTP(ctx context.Context, start func(string) error, shutdown func(context.Context) error) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- start(s.config.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchAPISymbolsTool(), s.handleSearchAPISymbols)
	s.mcp.AddTool(indexSymbolsTool(), s.handleIndexSymbols)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
