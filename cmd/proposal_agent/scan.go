package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/proposal-analyst/internal/ingestion"
	"github.com/jonathan/proposal-analyst/internal/observability"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Flag loaded language and stakeholder mentions without calling a model",
	Long:  "Run only the deterministic vocabulary scans on a proposal file. No API key is needed.",
	RunE:  runScan,
}

var (
	scanInput   string
	scanVerbose bool
)

func init() {
	scanCmd.Flags().StringVarP(&scanInput, "in", "i", "", "Path to the proposal file (required)")
	scanCmd.Flags().BoolVarP(&scanVerbose, "verbose", "v", false, "Print a readable report to stderr")

	_ = scanCmd.MarkFlagRequired("in")

	rootCmd.AddCommand(scanCmd)
}

// ScanOutput is the JSON written by the scan command.
type ScanOutput struct {
	LoadedLanguage []string `json:"loaded_language"`
	Stakeholders   []string `json:"stakeholders"`
}

func runScan(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	text, _, err := ingestion.IngestFromFile(scanInput)
	if err != nil {
		return fmt.Errorf("failed to ingest proposal: %w", err)
	}

	analyzer, err := newAnalyzer(cfg, nil, logger, nil)
	if err != nil {
		return err
	}
	loaded, stakeholders := analyzer.Scan(text)

	if scanVerbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintFlags(loaded, stakeholders)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(ScanOutput{LoadedLanguage: loaded, Stakeholders: stakeholders})
}
