package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/ocr"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

// Deps are the optional collaborators shared by Processor and BatchRunner.
type Deps struct {
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Processor acquires the text of one file and parses it into records.
type Processor struct {
	logger    *slog.Logger
	metrics   *metrics.Metrics
	extractor extract.TextExtractor
	parser    *declaration.Parser
}

func NewProcessor(extractor extract.TextExtractor, parser *declaration.Parser, deps Deps) *Processor {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{logger: logger, metrics: deps.Metrics, extractor: extractor, parser: parser}
}

// ProcessFile runs acquisition then parsing for src. An error means no text could be
// acquired; parse problems surface as warnings on the result.
func (p *Processor) ProcessFile(ctx context.Context, src ingest.Source) (declaration.DocumentResult, error) {
	start := time.Now()
	if src.HashHex != "" {
		ctx = ocr.WithContentHash(ctx, src.HashHex)
	}

	txt, err := p.extractor.Extract(ctx, src.Path)
	if err != nil {
		p.logger.Error("processor.acquire.failed", "document", src.Name, "error", err)
		return declaration.DocumentResult{Document: src.Name}, err
	}
	p.logger.Debug("processor.acquire.ok",
		"document", src.Name,
		"method", txt.Method,
		"pages", txt.Pages,
		"confidence", txt.Confidence,
		"cached", txt.Cached,
	)

	res := p.parse(declaration.RawDocument{Name: src.Name, Text: txt.Text})
	p.metrics.ObserveDocument(res, src.Format, txt.Cached, time.Since(start))
	return res, nil
}

// ProcessText parses already-acquired text.
func (p *Processor) ProcessText(doc declaration.RawDocument) declaration.DocumentResult {
	start := time.Now()
	res := p.parse(doc)
	p.metrics.ObserveDocument(res, "TEXT", false, time.Since(start))
	return res
}

func (p *Processor) parse(doc declaration.RawDocument) declaration.DocumentResult {
	res := p.parser.Parse(doc)
	for _, w := range res.Warnings {
		p.logger.Warn("processor.document.warning",
			"document", w.Document,
			"kind", string(w.Kind),
			"line", w.Line,
			"message", w.Message,
		)
	}
	p.logger.Info("processor.document.parsed",
		"document", doc.Name,
		"segments", res.Stats.Segments,
		"items", res.Stats.Items,
		"foc", res.Stats.FOC,
	)
	return res
}
