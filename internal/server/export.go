package server

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/aggregate"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/export"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
)

// GetRun returns a stored run.
//
// Request: {"batch_id": uuid, "foc_only": bool}.
func (s *ExtractionService) GetRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.batchID(req)
	if err != nil {
		return nil, err
	}
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	recs, err := s.runs.ListRecords(ctx, id, boolField(req, "foc_only"))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	warns, err := s.runs.ListWarnings(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return runStruct(run, recs, warns), nil
}

// ExportRun renders a stored run as the broker workbook.
//
// Request: {"batch_id": uuid, "include_all": bool}.
// Response: {"filename", "xlsx_base64"}.
func (s *ExtractionService) ExportRun(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.batchID(req)
	if err != nil {
		return nil, err
	}
	rep, err := s.loadReport(ctx, id)
	if err != nil {
		return nil, common.ToStatus(err)
	}

	xlsx, err := s.exporter.ReportXLSX(rep, export.Options{
		Columns:         s.columns,
		IncludeAll:      boolField(req, "include_all"),
		IncludeWarnings: true,
	})
	if err != nil {
		s.logger.Error("export.xlsx.failed", "batch_id", id, "error", err)
		return nil, status.Error(codes.Internal, "export failed")
	}

	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"filename":    structpb.NewStringValue(export.ReportFilename(rep)),
		"xlsx_base64": structpb.NewStringValue(base64.StdEncoding.EncodeToString(xlsx)),
	}}, nil
}

func (s *ExtractionService) batchID(req *structpb.Struct) (uuid.UUID, error) {
	if s.runs == nil {
		return uuid.Nil, status.Error(codes.Unimplemented, "run history is disabled")
	}
	raw := strings.TrimSpace(stringField(req, "batch_id"))
	v := common.NewValidator().Field("batch_id", raw, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func (s *ExtractionService) loadReport(ctx context.Context, id uuid.UUID) (*pipeline.BatchReport, error) {
	run, err := s.runs.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	all, err := s.runs.ListRecords(ctx, id, false)
	if err != nil {
		return nil, err
	}
	warns, err := s.runs.ListWarnings(ctx, id)
	if err != nil {
		return nil, err
	}
	return reportFromRun(run, all, warns), nil
}

func reportFromRun(run *repository.Run, all []declaration.OutputRecord, warns []declaration.Warning) *pipeline.BatchReport {
	return &pipeline.BatchReport{
		BatchID:    run.ID,
		Status:     run.Status,
		Records:    aggregate.FOCOnly(all),
		AllRecords: all,
		Warnings:   warns,
		Stats:      run.Stats,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
