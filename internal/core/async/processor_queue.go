package async

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

// ErrQueueClosed is returned by Enqueue after Shutdown.
var ErrQueueClosed = errors.New("queue is shutting down")

// Job is one file submitted to the daemon.
type Job struct {
	Source      ingest.Source
	SubmittedAt time.Time
	TraceID     string
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Shutdown(ctx context.Context)
}

// BatchRunner is satisfied by *pipeline.BatchRunner.
type BatchRunner interface {
	Run(ctx context.Context, sources []ingest.Source) (*pipeline.BatchReport, error)
}

// Sink receives the single-document report of every processed job.
type Sink func(ctx context.Context, job Job, report *pipeline.BatchReport) error

type ProcessorQueue struct {
	runner  BatchRunner
	sink    Sink
	logger  *slog.Logger
	metrics *metrics.Metrics
	workers int
	timeout time.Duration

	ch      chan Job
	stop    chan struct{}
	wg      sync.WaitGroup
	senders sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}

func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(q *ProcessorQueue) { q.metrics = m }
}

func NewProcessorQueue(runner BatchRunner, sink Sink, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		runner:  runner,
		sink:    sink,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
		stop:    make(chan struct{}),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.metrics.SetQueueDepth(len(q.ch))
					q.process(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) process(workerID int, job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	report, err := q.runner.Run(ctx, []ingest.Source{job.Source})
	if err != nil {
		q.logger.Error("queue.process.failed", "worker_id", workerID, "document", job.Source.Name, "error", err)
		return
	}
	if q.sink != nil {
		if err := q.sink(ctx, job, report); err != nil {
			q.logger.Error("queue.sink.failed", "worker_id", workerID, "document", job.Source.Name, "batch_id", report.BatchID, "error", err)
			return
		}
	}
	q.logger.Info("queue.process.ok",
		"worker_id", workerID,
		"document", job.Source.Name,
		"batch_id", report.BatchID,
		"foc", report.Stats.FOC,
		"wait_ms", time.Since(job.SubmittedAt).Milliseconds(),
	)
}

// Enqueue blocks while the queue is full, until ctx ends or Shutdown is called.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "document", job.Source.Name)
		return ErrQueueClosed
	}
	q.senders.Add(1)
	q.mu.Unlock()
	defer q.senders.Done()

	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.full.backpressure", "document", job.Source.Name)
		select {
		case q.ch <- job:
		case <-q.stop:
			return ErrQueueClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	q.metrics.SetQueueDepth(len(q.ch))
	q.logger.Debug("queue.enqueued", "document", job.Source.Name)
	return nil
}

// Shutdown stops intake and waits for queued jobs to drain or ctx to end.
// Enqueue calls blocked on a full queue return ErrQueueClosed.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.stop)
	q.mu.Unlock()

	// ch is closed only once no sender can still write to it
	q.senders.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
