package extract_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/korean"

	"github.com/joseph-ayodele/foc-extractor/internal/cache"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/ocr"
)

func fixed(text, method string, err error) extract.ExtractorFunc {
	return func(context.Context, string) (extract.TextExtractionResult, error) {
		return extract.TextExtractionResult{Text: text, Method: method}, err
	}
}

func TestChain_FallsThroughEmptyAndFailed(t *testing.T) {
	c := extract.NewChain(nil,
		fixed("", "", common.ErrUnsupportedFormat),
		fixed("   \n", "pdf-layer", nil),
		fixed("", "pdf-text", errors.New("pdftotext: exit status 1")),
		fixed("(NO.01) PUMP", "pdf-ocr", nil),
	)

	res, err := c.Extract(context.Background(), "decl.pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, "(NO.01) PUMP", res.Text)
}

func TestChain_AllFailIsAcquisitionError(t *testing.T) {
	c := extract.NewChain(nil,
		fixed("", "pdf-layer", nil),
		fixed("", "pdf-ocr", errors.New("tesseract: exit status 1")),
	)

	_, err := c.Extract(context.Background(), "/in/decl.pdf")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAcquisition)
	assert.Contains(t, err.Error(), "decl.pdf")
	assert.Contains(t, err.Error(), "tesseract")
}

func TestChain_NothingHandlesFormat(t *testing.T) {
	c := extract.NewChain(nil, extract.PlainText{}, extract.PDFLayer{})

	_, err := c.Extract(context.Background(), "sheet.xlsx")

	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
	assert.NotErrorIs(t, err, common.ErrAcquisition)
}

func TestChain_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extract.NewChain(nil, fixed("text", "x", nil)).Extract(ctx, "a.txt")

	assert.ErrorIs(t, err, context.Canceled)
}

func TestPlainText_UTF8WithBOM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decl.txt")
	require.NoError(t, os.WriteFile(path, append([]byte{0xEF, 0xBB, 0xBF}, "(란번호/총란수 : 001/001)"...), 0o644))

	res, err := extract.PlainText{}.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "(란번호/총란수 : 001/001)", res.Text)
	assert.Empty(t, res.Warnings)
}

func TestPlainText_EUCKR(t *testing.T) {
	encoded, err := korean.EUCKR.NewEncoder().String("거래구분 : 11")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "legacy.txt")
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0o644))

	res, err := extract.PlainText{}.Extract(context.Background(), path)

	require.NoError(t, err)
	assert.Equal(t, "거래구분 : 11", res.Text)
	assert.Equal(t, []string{"decoded as EUC-KR"}, res.Warnings)
}

func TestPDFLayer_RejectsOtherFormats(t *testing.T) {
	_, err := extract.PDFLayer{}.Extract(context.Background(), "photo.png")

	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestCached_SecondExtractionIsServedFromCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decl.txt")
	require.NoError(t, os.WriteFile(path, []byte("same bytes"), 0o644))

	var calls atomic.Int32
	inner := extract.ExtractorFunc(func(ctx context.Context, p string) (extract.TextExtractionResult, error) {
		calls.Add(1)
		h, ok := ocr.ContentHashFromContext(ctx)
		assert.True(t, ok)
		assert.Len(t, h, 64)
		return extract.TextExtractionResult{Text: "(NO.01) PUMP", Pages: 1, Method: "image-ocr"}, nil
	})
	store := cache.NewMemory(0, 0)
	c := extract.NewCached(inner, store, nil)

	first, err := c.Extract(context.Background(), path)
	require.NoError(t, err)
	second, err := c.Extract(context.Background(), path)
	require.NoError(t, err)

	assert.EqualValues(t, 1, calls.Load())
	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, "image-ocr", second.Method)
	assert.Equal(t, 1, store.Len())
}

func TestCached_ErrorsAreNotCached(t *testing.T) {
	store := cache.NewMemory(0, 0)
	c := extract.NewCached(fixed("", "", errors.New("boom")), store, nil)
	ctx := ocr.WithContentHash(context.Background(), "deadbeef")

	_, err := c.Extract(ctx, "missing.pdf")

	assert.Error(t, err)
	assert.Equal(t, 0, store.Len())
}

func TestHashFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o644))

	h, err := extract.HashFile(path)

	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", h)
}
