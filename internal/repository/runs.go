package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/aggregate"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
)

// insertChunk keeps multi-row inserts under SQLite's bound-parameter limit.
const insertChunk = 200

// Run is one persisted batch.
type Run struct {
	ID         uuid.UUID
	Status     constants.RunStatus
	Source     string
	Stats      aggregate.Stats
	StartedAt  time.Time
	FinishedAt time.Time
}

type RunRepository interface {
	SaveReport(ctx context.Context, report *pipeline.BatchReport, source string) error
	GetRun(ctx context.Context, id uuid.UUID) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]Run, error)
	ListRecords(ctx context.Context, batchID uuid.UUID, focOnly bool) ([]declaration.OutputRecord, error)
	ListWarnings(ctx context.Context, batchID uuid.UUID) ([]declaration.Warning, error)
}

type runRepo struct {
	db *DB
}

func NewRunRepository(db *DB) RunRepository {
	return &runRepo{db: db}
}

var runColumns = []string{
	"id", "status", "source", "documents", "failed", "zero_yield", "analyzed",
	"unique_records", "foc", "duplicates", "started_at", "finished_at",
}

var recordColumns = []string{
	"id", "batch_id", "seq", "document_name", "declaration_number", "trade_code", "line_index",
	"item_tag", "model_spec", "quantity", "net_weight", "declared_price", "is_foc",
}

var warningColumns = []string{"id", "batch_id", "seq", "document_name", "kind", "line", "message"}

// SaveReport stores the run, every item record (FOC and not), and its warnings in one transaction.
func (r *runRepo) SaveReport(ctx context.Context, report *pipeline.BatchReport, source string) (err error) {
	if report == nil || report.BatchID == uuid.Nil {
		return common.WrapError(common.ErrInvalidInput, "report with batch id is required")
	}
	tx, err := r.db.drv.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", common.ErrDatabase, err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				r.db.logger.Error("repository.rollback_failed", "batch_id", report.BatchID, "error", rbErr)
			}
		}
	}()

	b := r.db.builder()
	s := report.Stats
	q, args := b.Insert("batch_runs").Columns(runColumns...).Values(
		report.BatchID.String(), string(report.Status), source,
		s.Documents, s.Failed, s.ZeroYield, s.Analyzed, s.Unique, s.FOC, s.Duplicates,
		formatTime(report.StartedAt), formatTime(report.FinishedAt),
	).Query()
	if err = tx.Exec(ctx, q, args, nil); err != nil {
		return fmt.Errorf("%w: insert run: %w", common.ErrDatabase, err)
	}

	batchID := report.BatchID.String()
	for start := 0; start < len(report.AllRecords); start += insertChunk {
		end := min(start+insertChunk, len(report.AllRecords))
		ins := b.Insert("output_records").Columns(recordColumns...)
		for i, rec := range report.AllRecords[start:end] {
			ins.Values(
				uuid.NewString(), batchID, start+i,
				rec.DocumentName, rec.DeclarationNumber, rec.TradeCode, rec.LineIndex,
				rec.ItemTag, rec.ModelSpec, rec.Quantity, rec.NetWeight, rec.DeclaredPrice,
				boolInt(rec.IsFOC),
			)
		}
		q, args := ins.Query()
		if err = tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("%w: insert records: %w", common.ErrDatabase, err)
		}
	}

	for start := 0; start < len(report.Warnings); start += insertChunk {
		end := min(start+insertChunk, len(report.Warnings))
		ins := b.Insert("document_warnings").Columns(warningColumns...)
		for i, w := range report.Warnings[start:end] {
			ins.Values(uuid.NewString(), batchID, start+i, w.Document, string(w.Kind), w.Line, w.Message)
		}
		q, args := ins.Query()
		if err = tx.Exec(ctx, q, args, nil); err != nil {
			return fmt.Errorf("%w: insert warnings: %w", common.ErrDatabase, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", common.ErrDatabase, err)
	}
	r.db.logger.Info("repository.report.saved",
		"batch_id", batchID,
		"records", len(report.AllRecords),
		"warnings", len(report.Warnings),
	)
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, id uuid.UUID) (*Run, error) {
	q, args := r.db.builder().Select(runColumns...).
		From(entsql.Table("batch_runs")).
		Where(entsql.EQ("id", id.String())).
		Query()
	runs, err := r.queryRuns(ctx, q, args)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, common.WrapError(common.ErrNotFound, "batch run "+id.String())
	}
	return &runs[0], nil
}

// ListRuns returns the most recent runs first.
func (r *runRepo) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args := r.db.builder().Select(runColumns...).
		From(entsql.Table("batch_runs")).
		OrderBy(entsql.Desc("started_at")).
		Limit(limit).
		Query()
	return r.queryRuns(ctx, q, args)
}

func (r *runRepo) queryRuns(ctx context.Context, q string, args []any) ([]Run, error) {
	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			run              Run
			id, status       string
			started, finished string
		)
		if err := rows.Scan(&id, &status, &run.Source,
			&run.Stats.Documents, &run.Stats.Failed, &run.Stats.ZeroYield, &run.Stats.Analyzed,
			&run.Stats.Unique, &run.Stats.FOC, &run.Stats.Duplicates,
			&started, &finished,
		); err != nil {
			return nil, fmt.Errorf("%w: scan run: %w", common.ErrDatabase, err)
		}
		var err error
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("%w: run id %q: %w", common.ErrDatabase, id, err)
		}
		run.Status = constants.RunStatus(status)
		run.StartedAt = parseTime(started)
		run.FinishedAt = parseTime(finished)
		out = append(out, run)
	}
	return out, rows.Err()
}

// ListRecords returns the batch's records in report order.
func (r *runRepo) ListRecords(ctx context.Context, batchID uuid.UUID, focOnly bool) ([]declaration.OutputRecord, error) {
	pred := entsql.EQ("batch_id", batchID.String())
	if focOnly {
		pred = entsql.And(pred, entsql.EQ("is_foc", 1))
	}
	q, args := r.db.builder().Select(recordColumns[3:]...).
		From(entsql.Table("output_records")).
		Where(pred).
		OrderBy("seq").
		Query()

	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []declaration.OutputRecord
	for rows.Next() {
		var (
			rec   declaration.OutputRecord
			isFOC int
		)
		if err := rows.Scan(&rec.DocumentName, &rec.DeclarationNumber, &rec.TradeCode, &rec.LineIndex,
			&rec.ItemTag, &rec.ModelSpec, &rec.Quantity, &rec.NetWeight, &rec.DeclaredPrice, &isFOC,
		); err != nil {
			return nil, fmt.Errorf("%w: scan record: %w", common.ErrDatabase, err)
		}
		rec.IsFOC = isFOC != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *runRepo) ListWarnings(ctx context.Context, batchID uuid.UUID) ([]declaration.Warning, error) {
	q, args := r.db.builder().Select(warningColumns[3:]...).
		From(entsql.Table("document_warnings")).
		Where(entsql.EQ("batch_id", batchID.String())).
		OrderBy("seq").
		Query()

	rows := &entsql.Rows{}
	if err := r.db.drv.Query(ctx, q, args, rows); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrDatabase, err)
	}
	defer rows.Close()

	var out []declaration.Warning
	for rows.Next() {
		var (
			w    declaration.Warning
			kind string
		)
		if err := rows.Scan(&w.Document, &kind, &w.Line, &w.Message); err != nil {
			return nil, fmt.Errorf("%w: scan warning: %w", common.ErrDatabase, err)
		}
		w.Kind = constants.WarningKind(kind)
		out = append(out, w)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// IsNotFound reports whether err is a missing-row error.
func IsNotFound(err error) bool {
	return errors.Is(err, common.ErrNotFound)
}
