package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"papergraph/application/ports"
	"papergraph/domain/config"
	"papergraph/domain/core/entities"
	"papergraph/domain/core/valueobjects"
	pkgerrors "papergraph/pkg/errors"
	"papergraph/pkg/observability"
)

const conceptCacheNamespace = "concepts"

// AnalysisConfig controls batching of concept extraction
type AnalysisConfig struct {
	BatchSize  int
	BatchDelay time.Duration
	Timeout    time.Duration
}

// AnalysisConfigFrom extracts batching settings from the domain config
func AnalysisConfigFrom(cfg *config.DomainConfig) AnalysisConfig {
	return AnalysisConfig{
		BatchSize:  cfg.AnalysisBatchSize,
		BatchDelay: cfg.AnalysisBatchDelay,
		Timeout:    cfg.ProviderTimeout,
	}
}

// AnalysisReport summarises one extraction run
type AnalysisReport struct {
	Papers          int  `json:"papers"`
	Preanalyzed     int  `json:"preanalyzed"`
	CacheHits       int  `json:"cacheHits"`
	ProviderBatches int  `json:"providerBatches"`
	FallbackBatches int  `json:"fallbackBatches"`
	HeuristicPapers int  `json:"heuristicPapers"`
	Degraded        bool `json:"degraded"`
}

// AnalysisService turns raw papers into analysed papers in batches.
// A failed batch falls back to the heuristic extractor for that batch only.
type AnalysisService struct {
	provider  ports.ConceptProvider
	fallback  ports.ConceptProvider
	heuristic bool // provider is the fallback itself
	cache     ports.Cache
	limiter   *rate.Limiter
	config    AnalysisConfig
	metrics   *observability.Collector
	logger    *zap.Logger
}

// NewAnalysisService creates a new analysis service. A nil provider selects
// the fallback for every batch.
func NewAnalysisService(
	provider ports.ConceptProvider,
	fallback ports.ConceptProvider,
	cache ports.Cache,
	cfg AnalysisConfig,
	metrics *observability.Collector,
	logger *zap.Logger,
) *AnalysisService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	heuristic := provider == nil
	if heuristic {
		provider = fallback
	}

	limit := rate.Inf
	if cfg.BatchDelay > 0 {
		limit = rate.Every(cfg.BatchDelay)
	}

	return &AnalysisService{
		provider:  provider,
		fallback:  fallback,
		heuristic: heuristic,
		cache:     cache,
		limiter:   rate.NewLimiter(limit, 1),
		config:    cfg,
		metrics:   metrics,
		logger:    logger,
	}
}

// AnalyzePapers returns the papers with analysis applied, in input order.
// Papers that already carry concepts or a domain are kept as they are.
func (s *AnalysisService) AnalyzePapers(ctx context.Context, papers []entities.Paper) ([]entities.Paper, AnalysisReport, error) {
	report := AnalysisReport{Papers: len(papers)}
	analysed := make([]entities.Paper, len(papers))
	copy(analysed, papers)

	pending := make([]int, 0, len(papers))
	for i, p := range analysed {
		if p.IsAnalyzed() {
			report.Preanalyzed++
			continue
		}
		if cached, ok := ports.GetJSON[valueobjects.ConceptAnalysis](ctx, s.cache, ports.CacheKey(conceptCacheNamespace, p.Title)); ok {
			s.metrics.RecordCacheLookup(conceptCacheNamespace, true)
			analysed[i] = cached.ApplyTo(p)
			report.CacheHits++
			continue
		}
		s.metrics.RecordCacheLookup(conceptCacheNamespace, false)
		pending = append(pending, i)
	}

	for start := 0; start < len(pending); start += s.config.BatchSize {
		end := start + s.config.BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]

		titles := make([]string, len(batch))
		for j, idx := range batch {
			titles[j] = analysed[idx].Title
		}

		results, fromProvider, err := s.analyzeBatch(ctx, titles)
		if err != nil {
			return nil, report, err
		}

		if fromProvider {
			report.ProviderBatches++
		} else {
			report.FallbackBatches++
		}

		for j, idx := range batch {
			result := results[j]
			if result.Source == valueobjects.SourceHeuristic {
				report.HeuristicPapers++
			} else if err := ports.SetJSON(ctx, s.cache, ports.CacheKey(conceptCacheNamespace, titles[j]), result, 0); err != nil {
				s.logger.Warn("Failed to cache concept analysis", zap.String("title", titles[j]), zap.Error(err))
			}
			analysed[idx] = result.ApplyTo(analysed[idx])
		}
	}

	report.Degraded = !s.heuristic && report.FallbackBatches > 0

	s.logger.Info("Concept extraction finished",
		zap.String("provider", s.provider.Name()),
		zap.Int("papers", report.Papers),
		zap.Int("cache_hits", report.CacheHits),
		zap.Int("provider_batches", report.ProviderBatches),
		zap.Int("fallback_batches", report.FallbackBatches),
	)

	return analysed, report, nil
}

// analyzeBatch calls the provider under the rate limiter and a per-call
// timeout. Provider failures are absorbed by the fallback; only context
// cancellation is returned as an error.
func (s *AnalysisService) analyzeBatch(ctx context.Context, titles []string) ([]valueobjects.ConceptAnalysis, bool, error) {
	if s.heuristic {
		results, err := s.fallback.AnalyzeBatch(ctx, titles)
		if err != nil {
			return nil, false, fmt.Errorf("heuristic extraction failed: %w", err)
		}
		s.metrics.RecordAnalysisBatch(s.fallback.Name())
		return results, false, nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, false, fmt.Errorf("waiting for provider rate limit: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	started := time.Now()
	results, err := s.provider.AnalyzeBatch(callCtx, titles)
	cancel()
	s.metrics.RecordProviderCall(s.provider.Name(), "analyze", err, time.Since(started))

	if err == nil && len(results) != len(titles) {
		err = pkgerrors.NewResponseParseFailedError(s.provider.Name(),
			fmt.Errorf("expected %d analyses, got %d", len(titles), len(results)))
	}

	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		s.logger.Warn("Concept provider batch failed, using heuristic extraction",
			zap.String("provider", s.provider.Name()),
			zap.Int("batch_size", len(titles)),
			zap.Bool("provider_failure", pkgerrors.IsProviderFailure(err)),
			zap.Error(err),
		)
		fallback, ferr := s.fallback.AnalyzeBatch(ctx, titles)
		if ferr != nil {
			return nil, false, fmt.Errorf("heuristic extraction failed: %w", ferr)
		}
		s.metrics.RecordAnalysisBatch(s.fallback.Name())
		return fallback, false, nil
	}

	// Fill titles the provider left without concepts
	for i, r := range results {
		if r.IsEmpty() {
			h, ferr := s.fallback.AnalyzeBatch(ctx, titles[i:i+1])
			if ferr == nil && len(h) == 1 {
				results[i] = valueobjects.NewConceptAnalysis(h[0].Concepts, r.Domain, r.Methodology, valueobjects.SourceHeuristic)
			}
		}
	}

	s.metrics.RecordAnalysisBatch(s.provider.Name())
	return results, true, nil
}

// Reset drops cached concept analyses
func (s *AnalysisService) Reset(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Clear(ctx)
}
