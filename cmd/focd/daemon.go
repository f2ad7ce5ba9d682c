package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/joseph-ayodele/foc-extractor/internal/app"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/async"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
	"github.com/joseph-ayodele/foc-extractor/internal/server"
)

type daemonFlags struct {
	inbox         string
	grpcAddr      string
	metricsAddr   string
	noInitialScan bool
}

func serve(ctx context.Context, flags daemonFlags) error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if flags.inbox != "" {
		cfg.Server.InboxDir = flags.inbox
	}
	if flags.grpcAddr != "" {
		cfg.Server.GRPCAddr = flags.grpcAddr
	}
	if flags.metricsAddr != "" {
		cfg.Server.MetricsAddr = flags.metricsAddr
	}
	if !strings.Contains(cfg.Server.GRPCAddr, ":") {
		cfg.Server.GRPCAddr = ":" + cfg.Server.GRPCAddr
	}

	logger := common.NewLogger(cfg.Log, os.Stdout)
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Server.InboxDir, 0o755); err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer server.CloseDB(db, logger)
	runs := repository.NewRunRepository(db)

	stack, err := app.Build(cfg, m, logger)
	if err != nil {
		return err
	}
	defer stack.Close()

	queue := async.NewProcessorQueue(stack.Runner, persistReport(runs), logger,
		async.WithWorkers(cfg.Batch.Workers),
		async.WithQueueSize(cfg.Batch.QueueSize),
		async.WithProcessTimeout(cfg.Batch.DocumentTimeout),
		async.WithMetrics(m),
	)

	ingestor := ingest.NewFSIngestor(logger)
	events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Server.InboxDir},
		InitialScan: !flags.noInitialScan,
		Debounce:    cfg.Server.WatchDebounce,
		SkipHidden:  true,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		feedQueue(ctx, events, watchErrs, ingestor, queue, logger)
	}()

	svc := server.NewExtractionService(stack.Runner, server.Options{
		Ingestor: ingestor,
		Runs:     runs,
		Columns:  cfg.ExportColumns(),
		Roots:    []string{cfg.Server.InboxDir},
	}, logger)
	gs, hs := server.NewGRPCServer(svc, logger)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		return err
	}
	go func() {
		logger.Info("daemon.grpc.serving", "addr", cfg.Server.GRPCAddr)
		if err := gs.Serve(lis); err != nil {
			logger.Error("daemon.grpc.serve_failed", "error", err)
		}
	}()

	httpSrv := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           opsMux(reg, db, stack),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("daemon.metrics.serving", "addr", cfg.Server.MetricsAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("daemon.metrics.serve_failed", "error", err)
		}
	}()

	logger.Info("daemon.started", "inbox", cfg.Server.InboxDir, "workers", cfg.Batch.Workers)
	<-ctx.Done()
	logger.Info("daemon.shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(server.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	stopped := make(chan struct{})
	go func() { gs.GracefulStop(); close(stopped) }()
	select {
	case <-stopped:
	case <-shutdownCtx.Done():
		gs.Stop()
	}
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("daemon.metrics.shutdown_failed", "error", err)
	}
	<-watchDone
	queue.Shutdown(shutdownCtx)
	logger.Info("daemon.stopped")
	return nil
}

// persistReport stores every single-document report with its inbox path as the source.
func persistReport(runs repository.RunRepository) async.Sink {
	return func(ctx context.Context, job async.Job, report *pipeline.BatchReport) error {
		return runs.SaveReport(ctx, report, "inbox:"+job.Source.Path)
	}
}

// feedQueue hashes each watched path and enqueues it. Content already queued in this
// process is skipped, so editors that save twice do not produce two runs.
func feedQueue(ctx context.Context, events <-chan string, errs <-chan error, ing ingest.Ingestor, q async.Queue, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	seen := make(map[string]struct{})
	for {
		select {
		case path, ok := <-events:
			if !ok {
				return
			}
			src, err := ing.IngestPath(ctx, path)
			if err != nil {
				logger.Warn("daemon.ingest.failed", "path", path, "error", err)
				continue
			}
			if _, dup := seen[src.HashHex]; dup {
				logger.Debug("daemon.ingest.duplicate", "path", path, "hash", src.HashHex)
				continue
			}
			job := async.Job{Source: src, SubmittedAt: time.Now(), TraceID: uuid.NewString()}
			if err := q.Enqueue(ctx, job); err != nil {
				logger.Warn("daemon.enqueue.failed", "path", path, "error", err)
				continue
			}
			seen[src.HashHex] = struct{}{}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("daemon.watch.error", "error", err)
		}
	}
}

func opsMux(reg *prometheus.Registry, db *repository.DB, stack *app.Stack) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := db.HealthCheck(r.Context(), 2*time.Second); err != nil {
			http.Error(w, "database: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		if err := stack.Health(r.Context()); err != nil {
			http.Error(w, "cache: "+err.Error(), http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}
