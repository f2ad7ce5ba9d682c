package extract

import (
	"context"
	"time"
)

// TextExtractor is the acquisition stage: file -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (TextExtractionResult, error)
}

type TextExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE | constants.TXT
	Method     string // "pdf-layer" | "pdf-text" | "pdf-ocr" | "image-ocr" | "plain-text"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
	Cached     bool
}

// ExtractorFunc adapts a function to TextExtractor.
type ExtractorFunc func(ctx context.Context, path string) (TextExtractionResult, error)

func (f ExtractorFunc) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	return f(ctx, path)
}
