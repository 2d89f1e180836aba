package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/dshills/apisearch-mcp/internal/indexer"
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index API symbols for search",
	Long: `Index a Go source tree or a YAML/JSON symbol dump into the symbol database.
Unchanged sources are skipped; Go packages that disappeared are removed.

Examples:
  apisearch index .                          # Index the current Go project
  apisearch index /path/to/engine_api.yaml   # Import a symbol dump
  apisearch index . --exclude 'internal/gen/**'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIndex,
}

func init() {
	indexCmd.Flags().Bool("include-tests", false, "index *_test.go files")
	indexCmd.Flags().Bool("include-vendor", false, "index vendor directories")
	indexCmd.Flags().StringSlice("exclude", nil, "glob patterns relative to the indexed root to skip")
	indexCmd.Flags().Int("workers", 0, "parse workers (default: number of CPUs)")
	indexCmd.Flags().Bool("no-progress", false, "disable the progress bar")

	_ = v.BindPFlag("index.include_tests", indexCmd.Flags().Lookup("include-tests"))
	_ = v.BindPFlag("index.include_vendor", indexCmd.Flags().Lookup("include-vendor"))
	_ = v.BindPFlag("index.exclude", indexCmd.Flags().Lookup("exclude"))
	_ = v.BindPFlag("index.workers", indexCmd.Flags().Lookup("workers"))

	rootCmd.AddCommand(indexCmd)
}

func runIndex(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}
	path, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	config := cfg.Index.IndexerConfig()
	noProgress, _ := cmd.Flags().GetBool("no-progress")
	var bar *progressbar.ProgressBar
	if !noProgress {
		config.Progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total)
			}
			_ = bar.Set(done)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Indexing %s...\n", path)

	idx := indexer.New(store, logger)
	stats, err := idx.IndexPath(ctx, path, config)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return fmt.Errorf("indexing failed: %w", err)
	}

	fmt.Fprintf(out, "\nIndexing complete:\n")
	fmt.Fprintf(out, "  Sources indexed:  %d\n", stats.SourcesIndexed)
	fmt.Fprintf(out, "  Sources skipped:  %d (unchanged)\n", stats.SourcesSkipped)
	fmt.Fprintf(out, "  Sources failed:   %d\n", stats.SourcesFailed)
	fmt.Fprintf(out, "  Sources removed:  %d\n", stats.SourcesRemoved)
	fmt.Fprintf(out, "  Symbols:          %d\n", stats.SymbolsExtracted)
	fmt.Fprintf(out, "  Duration:         %s\n", stats.Duration.Round(time.Millisecond))

	if len(stats.ErrorMessages) > 0 {
		fmt.Fprintf(out, "\nWarnings:\n")
		for _, e := range stats.ErrorMessages {
			fmt.Fprintf(out, "  - %s\n", e)
		}
	}

	fmt.Fprintf(out, "\nIndex stored at: %s\n", cfg.Database.Path)
	return nil
}

func newProgressBar(total int) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Indexing[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
	)
}
