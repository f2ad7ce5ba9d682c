package ocr_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/ocr"
)

type call struct {
	name string
	args []string
}

// stubRunner answers commands from a handler and records every call.
type stubRunner struct {
	mu      sync.Mutex
	calls   []call
	handler func(name string, args []string) ([]byte, []byte, error)
}

func (s *stubRunner) Run(_ context.Context, name string, _ *slog.Logger, args ...string) ([]byte, []byte, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{name: name, args: args})
	s.mu.Unlock()
	return s.handler(name, args)
}

func (s *stubRunner) count(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		if c.name == name {
			n++
		}
	}
	return n
}

const declText = "수출신고번호 12345-67-890123A\n(란번호/총란수 : 001/001)\n(NO.01) PUMP FREE OF CHARGE 13 (BO)"

func TestExtractor_PDFTextLayer(t *testing.T) {
	r := &stubRunner{handler: func(name string, args []string) ([]byte, []byte, error) {
		require.Equal(t, "pdftotext", name)
		return []byte("page one\fpage two\f"), nil, nil
	}}
	e := ocr.NewExtractorWithRunner(ocr.Config{}, r, nil)

	res, err := e.Extract(context.Background(), "/in/decl.pdf")

	require.NoError(t, err)
	assert.Equal(t, "page one\npage two", res.Text)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, "pdf-text", res.Method)
	assert.Equal(t, 0, r.count("pdftoppm"))
}

func TestExtractor_ScannedPDFFallsBackToOCR(t *testing.T) {
	r := &stubRunner{}
	r.handler = func(name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "pdftotext":
			return []byte("  \f"), nil, nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			for _, p := range []string{"-1.png", "-2.png"} {
				require.NoError(t, os.WriteFile(prefix+p, []byte("png"), 0o644))
			}
			return nil, nil, nil
		case "tesseract":
			assert.Contains(t, args, "kor+eng")
			if strings.HasSuffix(args[0], "-1.png") {
				return []byte(declText), nil, nil
			}
			return []byte("(NO.02)   VALVE\t7 (BO)"), nil, nil
		}
		return nil, nil, errors.New("unexpected " + name)
	}
	e := ocr.NewExtractorWithRunner(ocr.Config{}, r, nil)

	res, err := e.Extract(context.Background(), "/in/scan.pdf")

	require.NoError(t, err)
	assert.Equal(t, "pdf-ocr", res.Method)
	assert.Equal(t, 2, res.Pages)
	assert.Equal(t, declText+"\n(NO.02) VALVE 7 (BO)", res.Text)
	assert.Greater(t, res.Confidence, float32(0.8))
}

func TestExtractor_Image(t *testing.T) {
	r := &stubRunner{handler: func(name string, args []string) ([]byte, []byte, error) {
		return []byte("\r\n-----\r\n(NO.01)  SAMPLE\r\n\r\n\r\n\r\n13 (BO)  \r\n"), nil, nil
	}}
	e := ocr.NewExtractorWithRunner(ocr.Config{TesseractLang: "kor", PSM: 6}, r, nil)

	res, err := e.Extract(context.Background(), "/in/photo.JPG")

	require.NoError(t, err)
	assert.Equal(t, "(NO.01) SAMPLE\n\n13 (BO)", res.Text)
	assert.Equal(t, "image-ocr", res.Method)
	assert.Equal(t, "kor", res.Language)
	require.Len(t, r.calls, 1)
	assert.Contains(t, r.calls[0].args, "--psm")
}

func TestExtractor_FailuresAreAcquisitionErrors(t *testing.T) {
	r := &stubRunner{handler: func(string, []string) ([]byte, []byte, error) {
		return nil, []byte("Error opening data file"), errors.New("exit status 1")
	}}
	e := ocr.NewExtractorWithRunner(ocr.Config{}, r, nil)

	res, err := e.Extract(context.Background(), "/in/photo.png")

	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrAcquisition)
	assert.Equal(t, []string{"Error opening data file"}, res.Warnings)
}

func TestExtractor_UnsupportedExtension(t *testing.T) {
	e := ocr.NewExtractorWithRunner(ocr.Config{}, &stubRunner{}, nil)

	_, err := e.Extract(context.Background(), "/in/sheet.xlsx")

	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestExtractor_HEICConversionIsCached(t *testing.T) {
	cacheDir := t.TempDir()
	r := &stubRunner{}
	r.handler = func(name string, args []string) ([]byte, []byte, error) {
		switch name {
		case "magick":
			return nil, nil, os.WriteFile(args[1], []byte("png"), 0o644)
		case "tesseract":
			assert.Equal(t, filepath.Join(cacheDir, "abc123.png"), args[0])
			return []byte(declText), nil, nil
		}
		return nil, nil, errors.New("unexpected " + name)
	}
	e := ocr.NewExtractorWithRunner(ocr.Config{HeicConverter: "magick", ArtifactCacheDir: cacheDir}, r, nil)
	ctx := ocr.WithContentHash(context.Background(), "abc123")

	for i := 0; i < 2; i++ {
		res, err := e.Extract(ctx, "/in/photo.heic")
		require.NoError(t, err)
		assert.Equal(t, declText, res.Text)
	}
	assert.Equal(t, 1, r.count("magick"))
	assert.Equal(t, 2, r.count("tesseract"))
}

func TestExtractor_HEICWithoutConverter(t *testing.T) {
	e := ocr.NewExtractorWithRunner(ocr.Config{}, &stubRunner{}, nil)

	_, err := e.Extract(context.Background(), "/in/photo.heic")

	assert.ErrorIs(t, err, common.ErrAcquisition)
}

func TestNormalize_KeepsDigits(t *testing.T) {
	assert.Equal(t, "(NO.01) 0 1", ocr.Normalize("(NO.01)\t0   1  "))
	assert.Equal(t, "", ocr.Normalize(""))
}
