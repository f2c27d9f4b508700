package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-analyst/internal/ingestion"
	"github.com/jonathan/proposal-analyst/internal/observability"
	"github.com/jonathan/proposal-analyst/internal/pipeline"
	"github.com/jonathan/proposal-analyst/internal/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze one proposal file",
	Long:  "Analyze a proposal from a text, markdown or HTML file and write the JSON result.",
	RunE:  runAnalyze,
}

var (
	analyzeInput   string
	analyzeOutput  string
	analyzeVerbose bool
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInput, "in", "i", "", "Path to the proposal file (required)")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "out", "o", "", "Write the JSON result to this file instead of stdout")
	analyzeCmd.Flags().BoolVarP(&analyzeVerbose, "verbose", "v", false, "Print a readable report and stage progress to stderr")

	_ = analyzeCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(analyzeCmd)
}

// AnalyzeOutput is the JSON written by the analyze command.
type AnalyzeOutput struct {
	Source *ingestion.Metadata `json:"source"`
	*types.AnalysisResult
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text, metadata, err := ingestion.IngestFromFile(analyzeInput)
	if err != nil {
		return fmt.Errorf("failed to ingest proposal: %w", err)
	}
	if err := types.ValidateProposal(text); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	stderr := cmd.ErrOrStderr()
	var progress pipeline.ProgressCallback
	if analyzeVerbose {
		var mu sync.Mutex
		progress = func(e pipeline.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(stderr, "  ✓ %-16s %s\n", e.Stage, e.Duration.Round(time.Millisecond))
		}
	}

	analyzer, err := newAnalyzer(cfg, client, logger, progress)
	if err != nil {
		return err
	}

	result, err := analyzer.Analyze(ctx, text)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeVerbose {
		observability.NewPrinter(stderr).PrintAnalysis(result)
	}

	out := AnalyzeOutput{Source: metadata, AnalysisResult: result}
	if analyzeOutput != "" {
		if err := ingestion.WriteJSON(analyzeOutput, out); err != nil {
			return err
		}
		fmt.Fprintf(stderr, "Wrote analysis to %s\n", analyzeOutput)
		return nil
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
