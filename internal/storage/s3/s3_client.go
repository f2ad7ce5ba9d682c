// Package s3 uploads finished report workbooks to an S3-compatible bucket.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader is the subset of *manager.Uploader used here.
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// ReportStore puts report files under {prefix}{yyyy/mm/dd}/{batch_id}/{name}.
type ReportStore struct {
	uploader Uploader
	bucket   string
	prefix   string
	logger   *slog.Logger
	now      func() time.Time
}

// NewReportStore builds an S3 client from config. Static credentials are used when both
// keys are set, otherwise the default AWS chain applies.
func NewReportStore(ctx context.Context, cfg common.StorageConfig, logger *slog.Logger) (*ReportStore, error) {
	if cfg.Bucket == "" {
		return nil, common.WrapError(common.ErrInvalidInput, "storage bucket is required")
	}
	var opts []func(*awsconfig.LoadOptions) error
	opts = append(opts, awsconfig.WithRegion(cfg.Region))

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	var s3Opts []func(*s3.Options)
	if cfg.Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Opts...)
	return NewReportStoreWithUploader(manager.NewUploader(client), cfg.Bucket, cfg.Prefix, logger), nil
}

func NewReportStoreWithUploader(u Uploader, bucket, prefix string, logger *slog.Logger) *ReportStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReportStore{uploader: u, bucket: bucket, prefix: prefix, logger: logger, now: time.Now}
}

// Key returns the object key for a report file.
func (s *ReportStore) Key(batchID, name string) string {
	return s.prefix + path.Join(s.now().UTC().Format("2006/01/02"), batchID, path.Base(name))
}

// UploadReport stores an XLSX workbook and returns its location.
func (s *ReportStore) UploadReport(ctx context.Context, batchID, name string, data []byte) (string, error) {
	key := s.Key(batchID, name)
	result, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(xlsxContentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload: %w", err)
	}
	s.logger.Info("storage.report.uploaded", "batch_id", batchID, "bucket", s.bucket, "key", key, "bytes", len(data))
	return result.Location, nil
}
