package metrics_test

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/foc-extractor/constants"
	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
	"github.com/joseph-ayodele/foc-extractor/internal/metrics"
)

func TestMetrics_ObserveDocument(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	m.ObserveDocument(declaration.DocumentResult{
		Records:  make([]declaration.OutputRecord, 3),
		Warnings: []declaration.Warning{{Kind: constants.WarnAlignmentMismatch}},
		Stats:    declaration.DocumentStats{Items: 3, FOC: 2},
	}, constants.PDF, true, 150*time.Millisecond)
	m.ObserveDocument(declaration.DocumentResult{
		Warnings: []declaration.Warning{{Kind: constants.WarnZeroYield}},
	}, constants.IMAGE, false, time.Second)
	m.ObserveFailure(string(constants.WarnAcquisitionFailure))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(metrics.OutcomeParsed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(metrics.OutcomeZeroYield)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DocumentsTotal.WithLabelValues(metrics.OutcomeFailed)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ItemsTotal))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FOCItemsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WarningsTotal.WithLabelValues(string(constants.WarnZeroYield))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TextCacheHitTotal))
	assert.Equal(t, 2, testutil.CollectAndCount(m.DocumentDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveDocument(declaration.DocumentResult{}, "", false, 0)
		m.ObserveFailure("x")
		m.ObserveBatch("COMPLETED")
		m.SetQueueDepth(3)
	})
}
