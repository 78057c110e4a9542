package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/castellan-sec/castellan/pkg/config"
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a model's action items to the configured trackers",
	Long: `Export a model's action items to the configured trackers.

Exports are idempotent: items that already have a link for an exporter are
skipped, so this command is safe to re-run after partial failures.

Example:
  castellanctl export --model 4f5c0d3a-8a77-4a58-9d3c-2f6f2b5c9f01`,
	Run: func(cmd *cobra.Command, args []string) {
		modelArg, _ := cmd.Flags().GetString("model")
		modelID, err := uuid.Parse(modelArg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid model id %q: %v\n", modelArg, err)
			os.Exit(1)
		}

		cfg := config.Get()
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
			os.Exit(1)
		}

		// The JWT secret is only needed by the HTTP layer; any value works
		// for a CLI export.
		s, err := buildServer(cfg, []byte("unused"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		if len(s.Registry.All()) == 0 {
			fmt.Fprintln(os.Stderr, "No exporters are configured")
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		if err := s.Dispatcher.ExportModel(ctx, modelID); err != nil {
			fmt.Fprintln(os.Stderr, "Export failed:", err)
			os.Exit(1)
		}
		fmt.Println("Export complete")
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("model", "m", "", "model id to export")
	_ = exportCmd.MarkFlagRequired("model")
}
