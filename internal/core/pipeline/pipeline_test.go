package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/common"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/core/extract"
	"github.com/joseph-ayodele/foc-extractor/internal/core/pipeline"
	"github.com/joseph-ayodele/foc-extractor/internal/ingest"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

func declaration1(n int) string {
	return fmt.Sprintf("수출신고번호 12345-67-89012%dA\n(란번호/총란수 : 001/001) (NO.01) Sample %d FREE OF CHARGE 1 (EA)", n, n)
}

// textsByPath serves fixed text per path, with optional per-path delay or failure.
func textsByPath(texts map[string]string, delays map[string]time.Duration) extract.ExtractorFunc {
	return func(ctx context.Context, path string) (extract.TextExtractionResult, error) {
		if d := delays[path]; d > 0 {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return extract.TextExtractionResult{}, ctx.Err()
			}
		}
		txt, ok := texts[path]
		if !ok {
			return extract.TextExtractionResult{}, fmt.Errorf("%w: %s", common.ErrAcquisition, path)
		}
		return extract.TextExtractionResult{Text: txt, Method: "stub"}, nil
	}
}

func newRunner(ex extract.TextExtractor, m *metrics.Metrics, opts ...pipeline.BatchOption) *pipeline.BatchRunner {
	deps := pipeline.Deps{Metrics: m}
	parser := pipeline.NewParserFromRules(common.DefaultRules(), deps)
	return pipeline.NewBatchRunner(pipeline.NewProcessor(ex, parser, deps), deps, opts...)
}

func src(name string) ingest.Source {
	return ingest.Source{Path: "/in/" + name, Name: name, Format: constants.PDF}
}

func TestBatchRunner_OrderFollowsInputNotCompletion(t *testing.T) {
	ex := textsByPath(map[string]string{
		"/in/a.pdf": declaration1(1),
		"/in/b.pdf": declaration1(2),
		"/in/c.pdf": declaration1(3),
	}, map[string]time.Duration{"/in/a.pdf": 50 * time.Millisecond})

	report, err := newRunner(ex, nil, pipeline.WithWorkers(3)).Run(context.Background(),
		[]ingest.Source{src("a.pdf"), src("b.pdf"), src("c.pdf")})

	require.NoError(t, err)
	require.Len(t, report.Records, 3)
	assert.Equal(t, "a.pdf", report.Records[0].DocumentName)
	assert.Equal(t, "b.pdf", report.Records[1].DocumentName)
	assert.Equal(t, "c.pdf", report.Records[2].DocumentName)
	assert.Equal(t, constants.RunStatusCompleted, report.Status)
	assert.NotEqual(t, "", report.BatchID.String())
	assert.False(t, report.FinishedAt.Before(report.StartedAt))
}

func TestBatchRunner_FailedAcquisitionDoesNotAbortBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	ex := textsByPath(map[string]string{
		"/in/ok.pdf":    declaration1(1),
		"/in/empty.pdf": "scan with no markers",
	}, nil)

	report, err := newRunner(ex, m).Run(context.Background(),
		[]ingest.Source{src("broken.pdf"), src("ok.pdf"), src("empty.pdf")})

	require.NoError(t, err)
	assert.Equal(t, constants.RunStatusPartial, report.Status)
	assert.Equal(t, 3, report.Stats.Documents)
	assert.Equal(t, 1, report.Stats.Failed)
	assert.Equal(t, 1, report.Stats.ZeroYield)
	require.Len(t, report.Records, 1)

	require.Len(t, report.Warnings, 2)
	assert.Equal(t, constants.WarnAcquisitionFailure, report.Warnings[0].Kind)
	assert.Equal(t, "broken.pdf", report.Warnings[0].Document)
	assert.Equal(t, constants.WarnZeroYield, report.Warnings[1].Kind)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchesTotal.WithLabelValues(string(constants.RunStatusPartial))))
}

func TestBatchReport_AddIngestFailures(t *testing.T) {
	ex := textsByPath(map[string]string{"/in/ok.pdf": declaration1(1)}, nil)
	report, err := newRunner(ex, nil).Run(context.Background(), []ingest.Source{src("ok.pdf")})
	require.NoError(t, err)
	require.Equal(t, constants.RunStatusCompleted, report.Status)

	report.AddIngestFailures([]ingest.Failure{{Path: "/in/missing.pdf", Err: errors.New("no such file or directory")}})

	assert.Equal(t, constants.RunStatusPartial, report.Status)
	assert.Equal(t, 2, report.Stats.Documents)
	assert.Equal(t, 1, report.Stats.Failed)
	require.Len(t, report.Records, 1)
	require.Len(t, report.Warnings, 1)
	assert.Equal(t, constants.WarnAcquisitionFailure, report.Warnings[0].Kind)
	assert.Equal(t, "missing.pdf", report.Warnings[0].Document)
	assert.Equal(t, "no such file or directory", report.Warnings[0].Message)
}

func TestBatchRunner_DocumentTimeout(t *testing.T) {
	ex := textsByPath(map[string]string{"/in/slow.pdf": declaration1(1)},
		map[string]time.Duration{"/in/slow.pdf": time.Second})

	report, err := newRunner(ex, nil, pipeline.WithDocumentTimeout(20*time.Millisecond)).Run(context.Background(),
		[]ingest.Source{src("slow.pdf")})

	require.NoError(t, err)
	assert.Equal(t, 1, report.Stats.Failed)
	assert.Equal(t, constants.RunStatusPartial, report.Status)
}

func TestBatchRunner_CancelledBatchKeepsPartialReport(t *testing.T) {
	var calls atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	ex := extract.ExtractorFunc(func(context.Context, string) (extract.TextExtractionResult, error) {
		if calls.Add(1) == 1 {
			cancel()
		}
		return extract.TextExtractionResult{Text: declaration1(1)}, nil
	})
	srcs := make([]ingest.Source, 20)
	for i := range srcs {
		srcs[i] = src(fmt.Sprintf("%02d.pdf", i))
	}

	report, err := newRunner(ex, nil, pipeline.WithWorkers(1)).Run(ctx, srcs)

	require.Error(t, err)
	assert.True(t, pipeline.IsCancelled(err))
	require.NotNil(t, report)
	assert.Equal(t, constants.RunStatusCancelled, report.Status)
	assert.Less(t, report.Stats.Documents, 20)
}

func TestBatchRunner_RunTextsDeduplicatesAcrossDocuments(t *testing.T) {
	same := declaration1(1)
	docs := []declaration.RawDocument{
		{Name: "a.txt", Text: same},
		{Name: "a.txt", Text: same},
		{Name: "b.txt", Text: "(란번호/총란수 : 001/001) (NO.01) Bolt 2 (EA)"},
	}

	report, err := newRunner(nil, nil).RunTexts(context.Background(), docs)

	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.Analyzed)
	assert.Equal(t, 1, report.Stats.Duplicates)
	assert.Len(t, report.AllRecords, 2)
	require.Len(t, report.Records, 1)
	assert.Equal(t, "a.txt", report.Records[0].DocumentName)
}

func TestProcessor_ProcessFilePropagatesAcquisitionError(t *testing.T) {
	deps := pipeline.Deps{}
	p := pipeline.NewProcessor(textsByPath(nil, nil), pipeline.NewParserFromRules(common.DefaultRules(), deps), deps)

	res, err := p.ProcessFile(context.Background(), src("x.pdf"))

	assert.True(t, errors.Is(err, common.ErrAcquisition))
	assert.Equal(t, "x.pdf", res.Document)
}

func TestFromRules_CustomPolicy(t *testing.T) {
	rules := common.DefaultRules()
	rules.TargetTradeCode = "15"
	rules.Exclusions = append(rules.Exclusions, "PALLET")
	rules.Placeholders.Price = "-"
	deps := pipeline.Deps{}
	parser := pipeline.NewParserFromRules(rules, deps)

	res := parser.Parse(declaration.RawDocument{Name: "a", Text: "거래구분 15\n(란번호/총란수 : 001/001) (NO.01) Pallet FREE OF CHARGE (NO.02) Box FREE OF CHARGE"})

	require.Len(t, res.Records, 2)
	assert.False(t, res.Records[0].IsFOC)
	assert.True(t, res.Records[1].IsFOC)
	assert.Equal(t, "-", res.Records[1].DeclaredPrice)
	assert.Equal(t, "15", res.Records[1].TradeCode)
}
