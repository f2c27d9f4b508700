// Package main provides the entry point for the proposal analysis API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "proposal_agent",
	Short: "Proposal bias and fairness analyzer",
	Long: "Proposal Analyst flags loaded language and stakeholder mentions in institutional proposals, " +
		"raises equity questions, and writes a neutral summary grounded only in extracted facts.",
	SilenceUsage: true,
	Version:      version,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: ./config.yaml or ./configs/config.yaml if present)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
