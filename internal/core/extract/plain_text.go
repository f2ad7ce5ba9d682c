package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PlainText reads already-acquired .txt exports. Files that are not valid UTF-8 are
// decoded as EUC-KR, the encoding older customs software writes.
type PlainText struct{}

func (PlainText) Extract(_ context.Context, path string) (TextExtractionResult, error) {
	if constants.MapExtToFormat(filepath.Ext(path)) != constants.TXT {
		return TextExtractionResult{}, fmt.Errorf("plain text: %w", common.ErrUnsupportedFormat)
	}
	start := time.Now()
	data, err := os.ReadFile(path)
	if err != nil {
		return TextExtractionResult{}, err
	}
	text, warns, err := DecodeText(data)
	if err != nil {
		return TextExtractionResult{}, err
	}
	return TextExtractionResult{
		Text:       text,
		Pages:      1,
		SourceType: constants.TXT,
		Method:     "plain-text",
		Duration:   time.Since(start),
		Warnings:   warns,
		Confidence: 1,
	}, nil
}

// DecodeText strips a UTF-8 BOM and falls back to EUC-KR for non-UTF-8 input.
func DecodeText(data []byte) (string, []string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil, nil
	}
	out, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", nil, fmt.Errorf("decode euc-kr: %w", err)
	}
	return string(out), []string{"decoded as EUC-KR"}, nil
}
