package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/proposal-analyst/internal/config"
	"github.com/jonathan/proposal-analyst/internal/lexicon"
	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/logging"
	"github.com/jonathan/proposal-analyst/internal/pipeline"
)

// loadConfig reads configuration and builds the logger.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// loadLexicon returns the embedded vocabularies or the configured override.
func loadLexicon(cfg *config.Config) (*lexicon.Lexicon, error) {
	if cfg.VocabularyFile != "" {
		return lexicon.Load(cfg.VocabularyFile)
	}
	return lexicon.Default()
}

// newClient builds the guarded model client for the configured provider.
func newClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (llm.Client, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	client, err := llm.NewClient(ctx, cfg.ModelConfig(), cfg.LLM.APIKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return llm.NewGuarded(client, cfg.GuardOptions(logger)), nil
}

// newAnalyzer wires the client, vocabularies and pipeline options together.
func newAnalyzer(cfg *config.Config, client llm.Client, logger *zap.Logger, onProgress pipeline.ProgressCallback) (*pipeline.Analyzer, error) {
	lex, err := loadLexicon(cfg)
	if err != nil {
		return nil, err
	}
	return pipeline.NewAnalyzer(client, lex, logger, pipeline.Options{
		ItemTimeout:      cfg.Pipeline.ItemTimeout,
		BatchConcurrency: cfg.Pipeline.BatchConcurrency,
		OnProgress:       onProgress,
	}), nil
}
