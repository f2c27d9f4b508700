// Package pipeline orchestrates the analysis stages for single proposals and batches.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/proposal-analyst/internal/equity"
	"github.com/jonathan/proposal-analyst/internal/facts"
	"github.com/jonathan/proposal-analyst/internal/lexicon"
	"github.com/jonathan/proposal-analyst/internal/llm"
	"github.com/jonathan/proposal-analyst/internal/observability"
	"github.com/jonathan/proposal-analyst/internal/summary"
	"github.com/jonathan/proposal-analyst/internal/types"
)

// Analysis modes for metrics.
const (
	ModeSingle = "single"
	ModeBatch  = "batch"
)

// Defaults applied by NewAnalyzer when Options leaves a field zero.
const (
	DefaultItemTimeout      = 3 * time.Minute
	DefaultBatchConcurrency = 2
)

// ProgressEvent represents a completed stage during an analysis
type ProgressEvent struct {
	Stage    string        `json:"stage"`
	Message  string        `json:"message"`
	Duration time.Duration `json:"duration"`
	Content  any           `json:"content,omitempty"`
}

// ProgressCallback is called when a stage completes. Stages in different
// branches complete concurrently, so the callback must be safe for concurrent use.
type ProgressCallback func(event ProgressEvent)

// Options holds configuration for the Analyzer
type Options struct {
	// ItemTimeout bounds the analysis of one batch item.
	ItemTimeout time.Duration
	// BatchConcurrency caps how many batch items are analyzed at once.
	BatchConcurrency int
	OnProgress       ProgressCallback
}

// Analyzer runs the full analysis. It holds no per-proposal state and is safe
// for concurrent use.
type Analyzer struct {
	client  llm.Client
	lexicon *lexicon.Lexicon
	logger  *zap.Logger
	opts    Options
}

// NewAnalyzer wires the shared model client and vocabularies into an Analyzer.
func NewAnalyzer(client llm.Client, lex *lexicon.Lexicon, logger *zap.Logger, opts Options) *Analyzer {
	if lex == nil {
		lex = lexicon.MustDefault()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.ItemTimeout <= 0 {
		opts.ItemTimeout = DefaultItemTimeout
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	return &Analyzer{client: client, lexicon: lex, logger: logger, opts: opts}
}

// Scan runs only the deterministic stages. It never calls the model.
func (a *Analyzer) Scan(text string) (loaded, stakeholders []string) {
	return a.lexicon.Loaded.Scan(text), a.lexicon.Stakeholders.Scan(text)
}

// Analyze validates text and runs every stage on it. The lexical scan runs
// first; then the stakeholder and equity stages run alongside the fact and
// summary stages. The first stage failure cancels the rest and is returned as
// a *StageError. Invalid input returns a *types.ValidationError before any
// model call.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*types.AnalysisResult, error) {
	result, err := a.analyze(ctx, text)
	observability.Analyses.WithLabelValues(ModeSingle, observability.Outcome(err)).Inc()
	return result, err
}

func (a *Analyzer) analyze(ctx context.Context, text string) (*types.AnalysisResult, error) {
	if err := types.ValidateProposal(text); err != nil {
		return nil, err
	}
	if a.client == nil {
		return nil, errors.New("analyzer has no LLM client")
	}

	start := time.Now()
	log := a.logger.With(zap.Int("proposal_chars", utf8.RuneCountInString(text)))
	tr := newTracker()
	result := &types.AnalysisResult{}

	err := a.runStage(ctx, tr, log, StageLoadedLanguage, func(context.Context) (any, error) {
		result.LoadedLanguage = a.lexicon.Loaded.Scan(text)
		return result.LoadedLanguage, nil
	})
	if err != nil {
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Stakeholders -> equity concerns
	g.Go(func() error {
		err := a.runStage(gCtx, tr, log, StageStakeholders, func(context.Context) (any, error) {
			result.Stakeholders = a.lexicon.Stakeholders.Scan(text)
			return result.Stakeholders, nil
		})
		if err != nil {
			return err
		}
		return a.runStage(gCtx, tr, log, StageEquityConcerns, func(ctx context.Context) (any, error) {
			concerns, err := equity.Elicit(ctx, a.client, text, result.Stakeholders)
			result.EquityConcerns = concerns
			return concerns, err
		})
	})

	// Facts -> summary. The summarizer sees only the extracted facts.
	g.Go(func() error {
		var extracted *types.ObjectiveFacts
		err := a.runStage(gCtx, tr, log, StageObjectiveFacts, func(ctx context.Context) (any, error) {
			var err error
			extracted, err = facts.Extract(ctx, a.client, text)
			return extracted, err
		})
		if err != nil {
			return err
		}
		result.ObjectiveFacts = *extracted
		return a.runStage(gCtx, tr, log, StageNeutralSummary, func(ctx context.Context) (any, error) {
			s, err := summary.Summarize(ctx, a.client, *extracted)
			result.Summary = s
			return s, err
		})
	})

	if err := g.Wait(); err != nil {
		log.Warn("analysis failed",
			zap.String("stage", FailedStage(err)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, err
	}

	log.Info("analysis complete",
		zap.Int("loaded_terms", len(result.LoadedLanguage)),
		zap.Int("stakeholders", len(result.Stakeholders)),
		zap.Int("equity_concerns", len(result.EquityConcerns)),
		zap.Duration("duration", time.Since(start)))
	return result, nil
}

// runStage checks dependencies, times fn, and wraps its failure in a StageError.
func (a *Analyzer) runStage(ctx context.Context, tr *tracker, log *zap.Logger, stage string, fn func(context.Context) (any, error)) error {
	if err := tr.ready(stage); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}

	log.Debug("stage started", zap.String("stage", stage))
	start := time.Now()
	content, err := fn(ctx)
	elapsed := time.Since(start)
	observability.ObserveStage(stage, err, elapsed)

	if err != nil {
		log.Debug("stage failed", zap.String("stage", stage), zap.Duration("duration", elapsed), zap.Error(err))
		return &StageError{Stage: stage, Err: err}
	}

	tr.complete(stage)
	log.Debug("stage finished", zap.String("stage", stage), zap.Duration("duration", elapsed))
	if a.opts.OnProgress != nil {
		a.opts.OnProgress(ProgressEvent{
			Stage:    stage,
			Message:  fmt.Sprintf("%s completed", stage),
			Duration: elapsed,
			Content:  content,
		})
	}
	return nil
}

// AnalyzeBatch analyzes each item independently and returns one result per
// item in input order. Batches over types.MaxBatchSize are rejected before any
// work. A failing item never affects the others.
func (a *Analyzer) AnalyzeBatch(ctx context.Context, items []types.BatchItem) ([]types.BatchResult, error) {
	if err := types.ValidateBatchSize(len(items)); err != nil {
		return nil, err
	}

	results := make([]types.BatchResult, len(items))
	var g errgroup.Group
	g.SetLimit(a.opts.BatchConcurrency)

	for i := range items {
		g.Go(func() error {
			results[i] = a.analyzeItem(ctx, items[i])
			return nil
		})
	}
	_ = g.Wait()

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	a.logger.Info("batch complete", zap.Int("items", len(items)), zap.Int("succeeded", succeeded))
	return results, nil
}

func (a *Analyzer) analyzeItem(ctx context.Context, item types.BatchItem) types.BatchResult {
	observability.BatchItemsActive.Inc()
	defer observability.BatchItemsActive.Dec()

	if err := item.Validate(); err != nil {
		observability.Analyses.WithLabelValues(ModeBatch, observability.Outcome(err)).Inc()
		return types.BatchResult{ID: item.ID, Err: err}
	}

	itemCtx, cancel := context.WithTimeout(ctx, a.opts.ItemTimeout)
	defer cancel()

	result, err := a.analyze(itemCtx, *item.Text)
	observability.Analyses.WithLabelValues(ModeBatch, observability.Outcome(err)).Inc()
	if err != nil {
		a.logger.Warn("batch item failed", zap.Stringer("id", item.ID), zap.Error(err))
		return types.BatchResult{ID: item.ID, Err: err}
	}
	return types.BatchResult{ID: item.ID, Success: true, Result: result}
}
