package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-analyst/internal/ingestion"
	"github.com/jonathan/proposal-analyst/internal/observability"
	"github.com/jonathan/proposal-analyst/internal/server"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Analyze a batch of proposals from a JSON file",
	Long:  `Analyze up to 10 proposals from a file shaped like {"proposals": [{"id": ..., "text": ...}]}.`,
	RunE:  runBatch,
}

var (
	batchInput  string
	batchOutput string
)

func init() {
	batchCmd.Flags().StringVarP(&batchInput, "in", "i", "", "Path to the batch JSON file (required)")
	batchCmd.Flags().StringVarP(&batchOutput, "out", "o", "", "Write the JSON results to this file instead of stdout")

	_ = batchCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	items, err := ingestion.LoadBatch(batchInput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	analyzer, err := newAnalyzer(cfg, client, logger, nil)
	if err != nil {
		return err
	}

	results, err := analyzer.AnalyzeBatch(ctx, items)
	if err != nil {
		return err
	}
	observability.NewPrinter(cmd.ErrOrStderr()).PrintBatch(results)

	resp := server.NewBatchResponse(results, true)
	if batchOutput != "" {
		if err := ingestion.WriteJSON(batchOutput, resp); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d results to %s\n", len(results), batchOutput)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
