package server

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/export"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
)

// BatchRunner is satisfied by *pipeline.BatchRunner.
type BatchRunner interface {
	Run(ctx context.Context, sources []ingest.Source) (*pipeline.BatchReport, error)
	RunTexts(ctx context.Context, docs []declaration.RawDocument) (*pipeline.BatchReport, error)
}

type Options struct {
	Ingestor ingest.Ingestor
	Runs     repository.RunRepository // nil disables persistence and GetRun/ExportRun
	Exporter *export.Service
	Columns  []constants.Column
	// Roots limits which server-side paths ExtractDocuments may read. Empty rejects all paths.
	Roots []string
}

type ExtractionService struct {
	runner   BatchRunner
	ingestor ingest.Ingestor
	runs     repository.RunRepository
	exporter *export.Service
	columns  []constants.Column
	roots    []string
	logger   *slog.Logger
}

var _ ExtractionServer = (*ExtractionService)(nil)

func NewExtractionService(runner BatchRunner, opts Options, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Exporter == nil {
		opts.Exporter = export.NewService(logger)
	}
	roots := make([]string, 0, len(opts.Roots))
	for _, r := range opts.Roots {
		if abs, err := filepath.Abs(r); err == nil {
			roots = append(roots, abs)
		}
	}
	return &ExtractionService{
		runner:   runner,
		ingestor: opts.Ingestor,
		runs:     opts.Runs,
		exporter: opts.Exporter,
		columns:  opts.Columns,
		roots:    roots,
		logger:   logger,
	}
}

// ExtractDocuments runs one batch.
//
// Request: {"documents": [{"name", "text"}], "paths": [string], "include_all": bool}.
// Exactly one of documents or paths must be given.
// Response: {"batch_id", "status", "records", "warnings", "stats", "all_records"?}.
func (s *ExtractionService) ExtractDocuments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	logger := common.LoggerFromContext(ctx, s.logger)
	docs, err := rawDocuments(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	paths := stringList(req, "paths")
	if err := validateDocuments(docs); err != nil {
		return nil, err
	}

	switch {
	case len(docs) == 0 && len(paths) == 0:
		return nil, status.Error(codes.InvalidArgument, "documents or paths is required")
	case len(docs) > 0 && len(paths) > 0:
		return nil, status.Error(codes.InvalidArgument, "documents and paths are mutually exclusive")
	}

	var (
		rep    *pipeline.BatchReport
		source string
	)
	if len(docs) > 0 {
		source = "grpc:documents"
		logger.Info("server.extract.started", "documents", len(docs))
		rep, err = s.runner.RunTexts(ctx, docs)
	} else {
		sources, failures, serr := s.ingestPaths(ctx, paths)
		if serr != nil {
			return nil, serr
		}
		source = "grpc:paths"
		logger.Info("server.extract.started", "paths", len(sources), "unreadable", len(failures))
		rep, err = s.runner.Run(ctx, sources)
		if rep != nil {
			rep.AddIngestFailures(failures)
		}
	}
	if err != nil {
		if pipeline.IsCancelled(err) {
			return nil, status.FromContextError(err).Err()
		}
		logger.Error("server.extract.failed", "error", err)
		return nil, common.ToStatus(err)
	}

	if s.runs != nil {
		if err := s.runs.SaveReport(ctx, rep, source); err != nil {
			logger.Error("server.extract.persist_failed", "batch_id", rep.BatchID, "error", err)
			return nil, common.ToStatus(err)
		}
	}

	logger.Info("server.extract.completed",
		"batch_id", rep.BatchID,
		"status", string(rep.Status),
		"foc", rep.Stats.FOC,
		"warnings", len(rep.Warnings),
	)
	return reportStruct(rep, boolField(req, "include_all")), nil
}

// maxDocumentText bounds one inline document; a full certificate is a few thousand characters.
const maxDocumentText = 1 << 20

func validateDocuments(docs []declaration.RawDocument) error {
	v := common.NewValidator()
	for i, d := range docs {
		v.Field(fmt.Sprintf("documents[%d].name", i), d.Name, common.MaxLen(255))
		v.Field(fmt.Sprintf("documents[%d].text", i), d.Text, common.Required, common.MaxLen(maxDocumentText))
	}
	return common.ValidateAndReturnError(v)
}

// ingestPaths hashes every requested path. A path outside the roots rejects the whole
// request; a path that cannot be read is returned as a failure and the rest still run.
func (s *ExtractionService) ingestPaths(ctx context.Context, paths []string) ([]ingest.Source, []ingest.Failure, error) {
	if s.ingestor == nil || len(s.roots) == 0 {
		return nil, nil, status.Error(codes.FailedPrecondition, "server-side paths are disabled")
	}
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil || !s.withinRoots(a) {
			return nil, nil, status.Errorf(codes.PermissionDenied, "path %q is outside the allowed roots", p)
		}
		abs[i] = a
	}

	var (
		sources  = make([]ingest.Source, 0, len(abs))
		failures []ingest.Failure
	)
	for _, p := range abs {
		src, err := s.ingestor.IngestPath(ctx, p)
		if err != nil {
			if pipeline.IsCancelled(err) {
				return nil, nil, status.FromContextError(err).Err()
			}
			s.logger.Warn("server.ingest.failed", "path", p, "error", err)
			failures = append(failures, ingest.Failure{Path: p, Err: err})
			continue
		}
		sources = append(sources, src)
	}
	return sources, failures, nil
}

func (s *ExtractionService) withinRoots(abs string) bool {
	for _, root := range s.roots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
