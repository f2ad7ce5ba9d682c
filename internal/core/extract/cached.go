package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/joseph-ayodele/foc-extractor/internal/core/ocr"
)

// TextCache is the storage behind Cached. Implemented by internal/cache.
type TextCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

type cachedEntry struct {
	Text       string  `json:"text"`
	Pages      int     `json:"pages"`
	SourceType string  `json:"source_type"`
	Method     string  `json:"method"`
	Language   string  `json:"language,omitempty"`
	Confidence float32 `json:"confidence"`
}

// Cached memoizes an extractor by the SHA-256 of the file content.
// Cache failures are logged and never fail an extraction.
type Cached struct {
	next   TextExtractor
	cache  TextCache
	logger *slog.Logger
}

func NewCached(next TextExtractor, cache TextCache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{next: next, cache: cache, logger: logger}
}

func (c *Cached) Extract(ctx context.Context, path string) (TextExtractionResult, error) {
	if c.cache == nil {
		return c.next.Extract(ctx, path)
	}
	key, err := contentKey(ctx, path)
	if err != nil {
		return c.next.Extract(ctx, path)
	}
	ctx = ocr.WithContentHash(ctx, key)

	if b, ok, err := c.cache.Get(ctx, key); err != nil {
		c.logger.Warn("extract.cache.get_failed", "path", path, "error", err)
	} else if ok {
		var e cachedEntry
		if err := json.Unmarshal(b, &e); err == nil {
			c.logger.Debug("extract.cache.hit", "path", path, "key", key)
			return TextExtractionResult{
				Text:       e.Text,
				Pages:      e.Pages,
				SourceType: e.SourceType,
				Method:     e.Method,
				Language:   e.Language,
				Confidence: e.Confidence,
				Cached:     true,
			}, nil
		}
	}

	res, err := c.next.Extract(ctx, path)
	if err != nil {
		return res, err
	}
	b, err := json.Marshal(cachedEntry{
		Text:       res.Text,
		Pages:      res.Pages,
		SourceType: res.SourceType,
		Method:     res.Method,
		Language:   res.Language,
		Confidence: res.Confidence,
	})
	if err == nil {
		err = c.cache.Set(ctx, key, b)
	}
	if err != nil {
		c.logger.Warn("extract.cache.set_failed", "path", path, "error", err)
	}
	return res, nil
}

// contentKey reuses a hash computed at ingest time when one is on the context.
func contentKey(ctx context.Context, path string) (string, error) {
	if h, ok := ocr.ContentHashFromContext(ctx); ok {
		return h, nil
	}
	return HashFile(path)
}

// HashFile returns the hex SHA-256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
