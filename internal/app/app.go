// Package app wires configuration into the extraction stack shared by the CLI and the daemon.
package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/foc-extractor/internal/cache"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

const memoryCacheEntries = 512

// Stack is a ready-to-run pipeline.
type Stack struct {
	Extractor extract.TextExtractor
	Processor *pipeline.Processor
	Runner    *pipeline.BatchRunner
	Cache     *cache.Redis // nil unless Redis is configured and reachable

	logger *slog.Logger
}

// Build loads the extraction rules and assembles acquisition, parsing and batching.
// Acquisition tries a .txt reader, then the pure-Go PDF text layer, then the external OCR tools.
func Build(cfg *common.Config, m *metrics.Metrics, logger *slog.Logger) (*Stack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	rules, err := common.LoadRules(cfg.Rules.Path)
	if err != nil {
		return nil, err
	}

	ocrExtractor := ocr.NewExtractor(ocr.ConfigFrom(cfg.OCR), logger)
	var ex extract.TextExtractor = extract.NewChain(logger,
		extract.PlainText{},
		extract.PDFLayer{},
		extract.NewOCRAdapter(ocrExtractor, logger),
	)

	st := &Stack{logger: logger}
	rc, err := cache.NewRedis(cfg.Cache)
	switch {
	case errors.Is(err, cache.ErrEmptyAddress):
		ex = extract.NewCached(ex, cache.NewMemory(cfg.Cache.TTL, memoryCacheEntries), logger)
		logger.Info("app.cache.memory", "entries", memoryCacheEntries)
	case err != nil:
		// acquisition still works without the cache
		logger.Warn("app.cache.unavailable", "addr", cfg.Cache.RedisAddr, "error", err)
	default:
		st.Cache = rc
		ex = extract.NewCached(ex, rc, logger)
		logger.Info("app.cache.enabled", "addr", cfg.Cache.RedisAddr, "ttl", cfg.Cache.TTL.String())
	}

	deps := pipeline.Deps{Logger: logger, Metrics: m}
	st.Extractor = ex
	st.Processor = pipeline.NewProcessor(ex, pipeline.NewParserFromRules(rules, deps), deps)
	st.Runner = pipeline.NewBatchRunner(st.Processor, deps,
		pipeline.WithWorkers(cfg.Batch.Workers),
		pipeline.WithDocumentTimeout(cfg.Batch.DocumentTimeout),
	)
	return st, nil
}

// Health reports cache reachability; a stack without a cache is always healthy.
func (s *Stack) Health(ctx context.Context) error {
	if s.Cache == nil {
		return nil
	}
	return s.Cache.Health(ctx)
}

func (s *Stack) Close() {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Close(); err != nil {
		s.logger.Warn("app.cache.close_failed", "error", err)
	}
}
