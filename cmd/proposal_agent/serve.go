package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/proposal-analyst/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server exposing POST /analyze, POST /analyze/batch, GET /health and GET /metrics.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	client, err := newClient(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	analyzer, err := newAnalyzer(cfg, client, logger, nil)
	if err != nil {
		return err
	}

	srv := server.New(server.Config{
		Port:           cfg.Server.Port,
		CORSOrigins:    cfg.Server.CORSOrigins,
		Debug:          cfg.Server.Debug,
		Version:        version,
		RateLimit:      cfg.RateLimiterConfig(),
		RequestTimeout: cfg.RequestDeadline(),
	}, analyzer, client, logger)

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Server.Port),
		zap.String("provider", cfg.LLM.Provider),
		zap.Bool("debug", cfg.Server.Debug),
		zap.Strings("cors_origins", cfg.Server.CORSOrigins))

	if err := srv.Start(); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}
