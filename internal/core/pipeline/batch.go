package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/aggregate"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

// BatchReport is the outcome of one batch run.
type BatchReport struct {
	BatchID    uuid.UUID
	Status     constants.RunStatus
	Records    []declaration.OutputRecord // FOC only, de-duplicated, document order
	AllRecords []declaration.OutputRecord
	Warnings   []declaration.Warning
	Stats      aggregate.Stats
	StartedAt  time.Time
	FinishedAt time.Time
}

// AddIngestFailures folds files that were found but never reached acquisition into
// the report, as acquisition-failure warnings counted against the batch.
func (r *BatchReport) AddIngestFailures(failures []ingest.Failure) {
	if len(failures) == 0 {
		return
	}
	for _, f := range failures {
		msg := "file could not be read"
		if f.Err != nil {
			msg = f.Err.Error()
		}
		r.Warnings = append(r.Warnings, declaration.Warning{
			Document: f.Name(),
			Kind:     constants.WarnAcquisitionFailure,
			Message:  msg,
		})
	}
	r.Stats.Documents += len(failures)
	r.Stats.Failed += len(failures)
	if r.Status == constants.RunStatusCompleted {
		r.Status = constants.RunStatusPartial
	}
}

// BatchRunner processes documents with bounded parallelism. Output order follows input
// order regardless of completion order.
type BatchRunner struct {
	proc    *Processor
	workers int
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type BatchOption func(*BatchRunner)

func WithWorkers(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.workers = n
		}
	}
}

// WithDocumentTimeout bounds acquisition of a single document.
func WithDocumentTimeout(d time.Duration) BatchOption {
	return func(b *BatchRunner) {
		if d > 0 {
			b.timeout = d
		}
	}
}

func NewBatchRunner(proc *Processor, deps Deps, opts ...BatchOption) *BatchRunner {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b := &BatchRunner{
		proc:    proc,
		workers: 4,
		timeout: 3 * time.Minute,
		logger:  logger,
		metrics: deps.Metrics,
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Run acquires and parses every source. Failed acquisitions become warnings; the
// returned error is non-nil only when ctx ended first, and the partial report is
// still returned.
func (b *BatchRunner) Run(ctx context.Context, sources []ingest.Source) (*BatchReport, error) {
	return b.run(ctx, len(sources), func(ctx context.Context, i int, agg *aggregate.Aggregator) {
		src := sources[i]
		dctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		res, err := b.proc.ProcessFile(dctx, src)
		if err != nil {
			b.metrics.ObserveFailure(string(constants.WarnAcquisitionFailure))
			agg.AddFailure(i, src.Name, err)
			return
		}
		agg.Add(i, res)
	})
}

// RunTexts parses documents whose text is already acquired.
func (b *BatchRunner) RunTexts(ctx context.Context, docs []declaration.RawDocument) (*BatchReport, error) {
	return b.run(ctx, len(docs), func(_ context.Context, i int, agg *aggregate.Aggregator) {
		agg.Add(i, b.proc.ProcessText(docs[i]))
	})
}

func (b *BatchRunner) run(ctx context.Context, n int, work func(context.Context, int, *aggregate.Aggregator)) (*BatchReport, error) {
	report := &BatchReport{BatchID: uuid.New(), StartedAt: time.Now().UTC()}
	ctx = common.WithBatchID(ctx, report.BatchID.String())
	logger := common.LoggerFromContext(ctx, b.logger)
	logger.Info("batch.start", "documents", n, "workers", b.workers)

	agg := aggregate.New()
	var g errgroup.Group
	g.SetLimit(b.workers)

	submitted := 0
	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			work(ctx, i, agg)
			return nil
		})
		submitted++
	}
	_ = g.Wait()

	res := agg.Result()
	report.Records = res.Records
	report.AllRecords = res.AllRecords
	report.Warnings = res.Warnings
	report.Stats = res.Stats
	report.FinishedAt = time.Now().UTC()

	var err error
	switch {
	case submitted < n || ctx.Err() != nil:
		report.Status = constants.RunStatusCancelled
		err = ctx.Err()
		if err == nil {
			err = context.Canceled
		}
	case res.Stats.Failed > 0:
		report.Status = constants.RunStatusPartial
	default:
		report.Status = constants.RunStatusCompleted
	}
	b.metrics.ObserveBatch(string(report.Status))

	logger.Info("batch.done",
		"status", string(report.Status),
		"documents", res.Stats.Documents,
		"failed", res.Stats.Failed,
		"zero_yield", res.Stats.ZeroYield,
		"analyzed", res.Stats.Analyzed,
		"foc", res.Stats.FOC,
		"duplicates", res.Stats.Duplicates,
		"warnings", len(res.Warnings),
		"duration_ms", report.FinishedAt.Sub(report.StartedAt).Milliseconds(),
	)
	return report, err
}

// IsCancelled reports whether err came from a stopped batch.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
