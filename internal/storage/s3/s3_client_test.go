package s3

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/internal/common"
)

type fakeUploader struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeUploader) Upload(_ context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.input = in
	f.body, _ = io.ReadAll(in.Body)
	return &manager.UploadOutput{Location: "https://bucket/" + *in.Key}, nil
}

func TestReportStore_UploadReport(t *testing.T) {
	up := &fakeUploader{}
	s := NewReportStoreWithUploader(up, "reports", "foc/", nil)
	s.now = func() time.Time { return time.Date(2026, 4, 9, 23, 0, 0, 0, time.UTC) }

	loc, err := s.UploadReport(context.Background(), "b-1", "../FOC_Final_Report.xlsx", []byte("xlsx"))

	require.NoError(t, err)
	assert.Equal(t, "https://bucket/foc/2026/04/09/b-1/FOC_Final_Report.xlsx", loc)
	assert.Equal(t, "reports", *up.input.Bucket)
	assert.Equal(t, xlsxContentType, *up.input.ContentType)
	assert.Equal(t, []byte("xlsx"), up.body)
}

func TestReportStore_UploadError(t *testing.T) {
	s := NewReportStoreWithUploader(&fakeUploader{err: errors.New("denied")}, "reports", "", nil)

	_, err := s.UploadReport(context.Background(), "b", "r.xlsx", nil)

	assert.ErrorContains(t, err, "denied")
}

func TestNewReportStore_RequiresBucket(t *testing.T) {
	_, err := NewReportStore(context.Background(), common.StorageConfig{Region: "ap-northeast-2"}, nil)

	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
