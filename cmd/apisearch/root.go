package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dshills/apisearch-mcp/internal/config"
	"github.com/dshills/apisearch-mcp/internal/logging"
	"github.com/dshills/apisearch-mcp/internal/storage"
)

var (
	cfgFile string
	v       = viper.New()

	// Set by PersistentPreRunE for every subcommand
	cfg    *config.Config
	logger *slog.Logger

	rootCmd = &cobra.Command{
		Use:   "apisearch",
		Short: "apisearch: API symbol search for AI coding assistants",
		Long: `apisearch indexes API symbols (namespaces, types, methods, properties,
global functions and variables) from Go source trees and engine symbol dumps,
and serves ranked, paginated symbol search over the Model Context Protocol.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if used := v.ConfigFileUsed(); used != "" {
				fmt.Fprintln(os.Stderr, "Using config file:", used)
			}

			// stdout carries MCP stdio traffic, so logs always go to stderr
			l, err := logging.New(loaded.Log, os.Stderr)
			if err != nil {
				return err
			}
			cfg, logger = loaded, l
			return nil
		},
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"APISearch MCP Server\nVersion: {{.Version}}\nBuild Time: %s\nBuild Mode: %s\nSQLite Driver: %s\n",
		buildTime, storage.BuildMode, storage.DriverName))

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.apisearch.yaml)")
	rootCmd.PersistentFlags().String("db", "", "symbol database path (default ~/.apisearch/symbols.db)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	_ = v.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
}

// openStorage opens the configured symbol database, creating its directory
func openStorage() (*storage.SQLiteStorage, error) {
	path := cfg.Database.Path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open symbol database: %w", err)
	}
	return store, nil
}
