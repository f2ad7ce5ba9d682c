package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

var errEmptyText = errors.New("no text recovered")

// Chain tries extractors in order and returns the first non-empty text.
// Extractors that do not handle the format are skipped silently.
type Chain struct {
	extractors []TextExtractor
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, extractors ...TextExtractor) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{extractors: extractors, logger: logger}
}

func (c *Chain) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	var (
		errs     []error
		warnings []string
	)
	for i, e := range c.extractors {
		if err := ctx.Err(); err != nil {
			return TextExtractionResult{Warnings: warnings}, err
		}
		res, err := e.Extract(ctx, path)
		warnings = append(warnings, res.Warnings...)
		switch {
		case errors.Is(err, common.ErrUnsupportedFormat):
			continue
		case err != nil:
			c.logger.Debug("extract.chain.miss", "path", path, "stage", i, "error", err)
			errs = append(errs, err)
			continue
		case strings.TrimSpace(res.Text) == "":
			c.logger.Debug("extract.chain.empty", "path", path, "stage", i, "method", res.Method)
			errs = append(errs, fmt.Errorf("%s: %w", res.Method, errEmptyText))
			continue
		}
		res.Warnings = warnings
		return res, nil
	}

	if len(errs) == 0 {
		return TextExtractionResult{Warnings: warnings}, fmt.Errorf("%s: %w", filepath.Base(path), common.ErrUnsupportedFormat)
	}
	return TextExtractionResult{Warnings: warnings}, fmt.Errorf("%w: %s: %w", common.ErrAcquisition, filepath.Base(path), errors.Join(errs...))
}
