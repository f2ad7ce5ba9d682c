package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pdftext"
)

// PDFLayer reads the embedded PDF text layer in-process. Scanned PDFs come back empty,
// which Chain treats as a miss.
type PDFLayer struct{}

func (PDFLayer) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.PDF {
		return TextExtractionResult{}, fmt.Errorf("pdf layer: %w", common.ErrUnsupportedFormat)
	}
	if err := ctx.Err(); err != nil {
		return TextExtractionResult{}, err
	}
	start := time.Now()
	text, pages, err := pdftext.Text(path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	return TextExtractionResult{
		Text:       text,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-layer",
		Duration:   time.Since(start),
		Confidence: 1,
	}, nil
}
