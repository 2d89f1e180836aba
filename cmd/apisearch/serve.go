package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/apisearch-mcp/internal/mcp"
	"github.com/dshills/apisearch-mcp/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Run the MCP server on the configured transport.

Examples:
  apisearch serve                                # stdio, for MCP clients that spawn the server
  apisearch serve --transport http --addr :8080  # streamable HTTP
  apisearch serve --transport sse                # Server-Sent Events`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("transport", "stdio", "MCP transport (stdio, sse, http)")
	serveCmd.Flags().String("addr", ":8080", "listen address for the sse and http transports")

	_ = v.BindPFlag("server.transport", serveCmd.Flags().Lookup("transport"))
	_ = v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Info("APISearch MCP Server starting",
		"version", version,
		"build_mode", storage.BuildMode,
		"driver", storage.DriverName,
		"database", cfg.Database.Path)

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		logger.Error("Failed to create MCP server", "error", err)
		return err
	}

	// Set up graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Serve(ctx); err != nil {
		logger.Error("Server error", "error", err)
		return err
	}

	logger.Info("Server stopped")
	return nil
}
