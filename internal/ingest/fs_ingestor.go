package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

// FSIngestor reads from the local filesystem.
type FSIngestor struct {
	AllowedExts map[string]struct{} // lowercased sans '.'; nil -> constants.AllowedExtensions
	logger      *slog.Logger
}

func NewFSIngestor(logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{logger: logger}
}

func (i *FSIngestor) allowed(ext string) bool {
	if i.AllowedExts == nil {
		return AllowedExt(ext)
	}
	_, ok := i.AllowedExts[constants.NormalizeExt(ext)]
	return ok
}

func (i *FSIngestor) IngestPath(ctx context.Context, path string) (Source, error) {
	if err := ctx.Err(); err != nil {
		return Source{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Source{}, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !i.allowed(ext) {
		return Source{}, common.WrapError(common.ErrUnsupportedFormat, fmt.Sprintf("extension %q", ext))
	}

	f, err := os.Open(abs)
	if err != nil {
		return Source{}, err
	}
	defer func(f *os.File) {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close_failed", "path", abs, "error", err)
		}
	}(f)

	st, err := f.Stat()
	if err != nil {
		return Source{}, err
	}
	if st.IsDir() {
		return Source{}, fmt.Errorf("%s: is a directory", abs)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return Source{}, fmt.Errorf("hash: %w", err)
	}

	return Source{
		Path:    abs,
		Name:    filepath.Base(abs),
		Ext:     ext,
		Format:  constants.MapExtToFormat(ext),
		HashHex: hex.EncodeToString(h.Sum(nil)),
		Size:    st.Size(),
		ModTime: st.ModTime().UTC(),
	}, nil
}

// Scan walks root, skips hidden entries if requested, and hashes each supported file.
// Files with identical content are reported once, under the first path in walk order.
func (i *FSIngestor) Scan(ctx context.Context, root string, skipHidden bool) ([]Source, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.WrapError(common.ErrInvalidInput, "root path is required")
	}

	var (
		out   []Source
		stats DirStats
		seen  = map[string]string{}
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			i.logger.Warn("ingest.walk_error", "path", path, "error", walkErr)
			stats.Failed++
			stats.Failures = append(stats.Failures, Failure{Path: path, Err: walkErr})
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !i.allowed(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		src, err := i.IngestPath(ctx, path)
		if err != nil {
			i.logger.Warn("ingest.file_failed", "path", path, "error", err)
			stats.Failed++
			stats.Failures = append(stats.Failures, Failure{Path: path, Err: err})
			return nil
		}
		stats.Succeeded++
		if first, dup := seen[src.HashHex]; dup {
			i.logger.Info("ingest.duplicate", "path", src.Path, "duplicate_of", first)
			stats.Deduplicated++
			return nil
		}
		seen[src.HashHex] = src.Path
		out = append(out, src)
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return out, stats, err
		}
		return out, stats, fmt.Errorf("walk: %w", err)
	}

	i.logger.Info("ingest.scan.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"unique", len(out),
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	return out, stats, nil
}
