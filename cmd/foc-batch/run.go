package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/foc-extractor/internal/app"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/export"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/repository"
	"github.com/joseph-ayodele/foc-extractor/internal/server"
	s3store "github.com/joseph-ayodele/foc-extractor/internal/storage/s3"
)

type runOptions struct {
	dir     string
	out     string
	csvOut  string
	all     bool
	workers int
	upload  bool
	inmem   bool
	noStore bool
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every declaration in a directory",
		Long: `Process every supported file under --dir and write the FOC workbook.

Example:
  foc-batch run --dir ./declarations
  foc-batch run --dir ./declarations --out report.xlsx --csv report.csv --all --workers 8`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBatch(cmd.Context(), cmd.OutOrStdout(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.dir, "dir", "", "directory of declaration files (required)")
	cmd.Flags().StringVar(&opts.out, "out", "", "output XLSX path (default <dir>/../"+export.DefaultFilename+")")
	cmd.Flags().StringVar(&opts.csvOut, "csv", "", "also write the FOC records as CSV")
	cmd.Flags().BoolVar(&opts.all, "all", false, "add a sheet with every analyzed item")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "parallel documents (default FOCX_BATCH_WORKERS)")
	cmd.Flags().BoolVar(&opts.upload, "upload", false, "upload the workbook to FOCX_STORAGE_BUCKET")
	cmd.Flags().BoolVar(&opts.inmem, "inmem", false, "keep run history in an in-memory SQLite database")
	cmd.Flags().BoolVar(&opts.noStore, "no-store", false, "do not record the run in the history database")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func runBatch(ctx context.Context, stdout io.Writer, opts runOptions) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if opts.workers > 0 {
		cfg.Batch.Workers = opts.workers
	}
	if opts.all {
		cfg.Batch.IncludeAll = true
	}
	if opts.out == "" {
		opts.out = filepath.Join(filepath.Dir(filepath.Clean(opts.dir)), export.DefaultFilename)
	}

	stack, err := app.Build(cfg, nil, logger)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	defer stack.Close()

	sources, stats, err := ingest.NewFSIngestor(logger).Scan(ctx, opts.dir, true)
	if err != nil {
		return fmt.Errorf("scan %s: %w", opts.dir, err)
	}
	logger.Info("batch.scan.completed",
		"dir", opts.dir,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)

	rep, runErr := stack.Runner.Run(ctx, sources)
	if runErr != nil && !pipeline.IsCancelled(runErr) {
		return runErr
	}
	rep.AddIngestFailures(stats.Failures)

	xlsx, err := export.NewService(logger).ReportXLSX(rep, export.Options{
		Columns:         cfg.ExportColumns(),
		IncludeAll:      cfg.Batch.IncludeAll,
		IncludeWarnings: true,
	})
	if err != nil {
		return fmt.Errorf("render workbook: %w", err)
	}
	if err := os.WriteFile(opts.out, xlsx, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	if opts.csvOut != "" {
		if err := writeCSV(opts.csvOut, rep, cfg); err != nil {
			return err
		}
	}

	if !opts.noStore {
		if err := storeRun(ctx, cfg, opts, rep, logger); err != nil {
			logger.Warn("batch.history.save_failed", "error", err)
		}
	}

	location := ""
	if opts.upload {
		location, err = uploadReport(ctx, cfg, rep, xlsx, logger)
		if err != nil {
			return err
		}
	}

	printSummary(stdout, rep, opts.out, location)
	if runErr != nil {
		return fmt.Errorf("interrupted, partial report written: %w", runErr)
	}
	return nil
}

func writeCSV(path string, rep *pipeline.BatchReport, cfg *common.Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.WriteCSV(f, rep.Records, cfg.ExportColumns()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func storeRun(ctx context.Context, cfg *common.Config, opts runOptions, rep *pipeline.BatchReport, logger *slog.Logger) error {
	dbCfg := cfg.Database
	if opts.inmem {
		dbCfg.DSN = repository.InMemoryDSN("foc-batch")
	}
	// the report is already on disk, so history gets its own deadline
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()

	db, err := server.ConnectDB(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer server.CloseDB(db, logger)
	return repository.NewRunRepository(db).SaveReport(ctx, rep, "cli:"+opts.dir)
}

func uploadReport(ctx context.Context, cfg *common.Config, rep *pipeline.BatchReport, xlsx []byte, logger *slog.Logger) (string, error) {
	if cfg.Storage.Bucket == "" {
		return "", errors.New("--upload needs FOCX_STORAGE_BUCKET")
	}
	store, err := s3store.NewReportStore(ctx, cfg.Storage, logger)
	if err != nil {
		return "", err
	}
	return store.UploadReport(ctx, rep.BatchID.String(), export.ReportFilename(rep), xlsx)
}

func printSummary(w io.Writer, rep *pipeline.BatchReport, out, location string) {
	s := rep.Stats
	fmt.Fprintf(w, "Batch %s: %s\n", rep.BatchID, rep.Status)
	fmt.Fprintf(w, "- Documents: %d (failed %d, no items %d)\n", s.Documents, s.Failed, s.ZeroYield)
	fmt.Fprintf(w, "- Items analyzed: %d (duplicates %d)\n", s.Analyzed, s.Duplicates)
	fmt.Fprintf(w, "- FOC items: %d\n", s.FOC)
	fmt.Fprintf(w, "- Warnings: %d\n", len(rep.Warnings))
	fmt.Fprintf(w, "- Output: %s\n", out)
	if location != "" {
		fmt.Fprintf(w, "- Uploaded: %s\n", location)
	}
}

func loadConfig() (*common.Config, *slog.Logger, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	logger := common.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
