package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show symbol database statistics",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print the status as JSON")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, err := openStorage()
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	status, err := store.GetStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get status: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	fmt.Fprintf(out, "Database:       %s\n", cfg.Database.Path)
	fmt.Fprintf(out, "Schema version: %s (%s)\n", status.SchemaVersion, status.BuildMode)
	fmt.Fprintf(out, "Sources:        %d (%d failed)\n", status.Sources, status.FailedSources)
	fmt.Fprintf(out, "Namespaces:     %d\n", status.Namespaces)
	fmt.Fprintf(out, "Types:          %d\n", status.Types)
	fmt.Fprintf(out, "Functions:      %d\n", status.Functions)
	fmt.Fprintf(out, "Properties:     %d\n", status.Properties)
	fmt.Fprintf(out, "Size:           %.2f MB\n", status.IndexSizeMB)
	if status.LastIndexedAt.IsZero() {
		fmt.Fprintf(out, "Last indexed:   never\n")
	} else {
		fmt.Fprintf(out, "Last indexed:   %s\n", status.LastIndexedAt.Format(time.RFC3339))
	}
	return nil
}
