package ingest

import (
	"context"
	"path/filepath"
	"time"
)

// Source is one declaration file found on disk.
type Source struct {
	Path    string
	Name    string // base name, used as the document name in reports
	Ext     string
	Format  string // constants.PDF | constants.IMAGE | constants.TXT
	HashHex string
	Size    int64
	ModTime time.Time
}

// DirStats summarizes a directory scan.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
	Failures     []Failure
}

// Failure is a file that was found but could not be read.
type Failure struct {
	Path string
	Err  error
}

// Name is the document name reported for the failed file.
func (f Failure) Name() string { return filepath.Base(f.Path) }

// Ingestor is the behavior the batch runner and daemon depend on.
type Ingestor interface {
	// IngestPath hashes a single file.
	IngestPath(ctx context.Context, path string) (Source, error)
	// Scan walks root and returns the unique supported files in path order.
	Scan(ctx context.Context, root string, skipHidden bool) ([]Source, DirStats, error)
}
