package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/apisearch-mcp/internal/searcher"
	"github.com/dshills/apisearch-mcp/internal/walker"
	"github.com/dshills/apisearch-mcp/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search indexed API symbols",
	Long: `Search the symbol database and print one page of ranked results.

Examples:
  apisearch search GetActor
  apisearch search "UObject." --kinds method --docs
  apisearch search "Actor|Pawn" --index 200
  apisearch search "/^Get.*Location$/" --regex`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int("index", 0, "index of the first result")
	searchCmd.Flags().Int("max", 0, "page size (default search.page_size)")
	searchCmd.Flags().Bool("docs", false, "include documentation")
	searchCmd.Flags().StringSlice("kinds", nil, "restrict to kinds (class, struct, enum, method, function, property, global-variable)")
	searchCmd.Flags().String("source", searcher.SourceBoth, "restrict to native, script or both")
	searchCmd.Flags().Bool("regex", false, "treat the query as a regular expression over labels")
	searchCmd.Flags().String("signature-regex", "", "keep only results whose signature matches")
	searchCmd.Flags().Bool("json", false, "print the page as JSON")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	query := strings.Join(args, " ")
	req := searcher.SearchRequest{Query: &query}
	req.SearchIndex, _ = flags.GetInt("index")
	req.IncludeDocs, _ = flags.GetBool("docs")
	req.Kinds, _ = flags.GetStringSlice("kinds")
	req.Source, _ = flags.GetString("source")
	req.LabelQueryUseRegex, _ = flags.GetBool("regex")
	req.SignatureRegex, _ = flags.GetString("signature-regex")
	if flags.Changed("max") {
		n, _ := flags.GetInt("max")
		req.MaxBatchResults = &n
	}

	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	cache, err := searcher.NewResultCache(cfg.Cache.Capacity, cfg.Cache.TTL)
	if err != nil {
		return err
	}
	srch := searcher.New(
		walker.NewProvider(store, cfg.Search.Exclusions.Rules()),
		store,
		cache,
		searcher.Options{PageSize: cfg.Search.PageSize, DetailConcurrency: cfg.Search.DetailConcurrency},
		logger,
	)

	page, err := srch.Search(cmd.Context(), req)
	if err != nil {
		var se *types.SearchError
		if errors.As(err, &se) {
			return fmt.Errorf("%s: %s", se.Code, se.Message)
		}
		return err
	}

	if asJSON, _ := flags.GetBool("json"); asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}
	printPage(cmd.OutOrStdout(), page)
	return nil
}

func printPage(w io.Writer, page *types.SearchPage) {
	if page.Total == 0 {
		fmt.Fprintf(w, "No symbols match %q\n", page.Query)
		return
	}

	for i, item := range page.Items {
		fmt.Fprintf(w, "%4d  %-9s %s\n", page.SearchIndex+i, item.Type, item.Signature)
		if item.Docs != "" {
			for _, line := range strings.Split(item.Docs, "\n") {
				fmt.Fprintf(w, "      %s\n", line)
			}
		}
	}

	fmt.Fprintf(w, "\nShowing %d-%d of %d", page.SearchIndex+1, page.SearchIndex+page.Returned, page.Total)
	if page.NextSearchIndex != nil {
		fmt.Fprintf(w, " (next page: --index %d)", *page.NextSearchIndex)
	}
	fmt.Fprintln(w)
}
