// Package metrics exposes Prometheus counters for document processing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/joseph-ayodele/foc-extractor/internal/core/declaration"
)

const (
	Namespace = "focx"
	Subsystem = "extractor"
)

// Document outcomes.
const (
	OutcomeParsed    = "parsed"
	OutcomeZeroYield = "zero_yield"
	OutcomeFailed    = "failed"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	DocumentsTotal    *prometheus.CounterVec
	ItemsTotal        prometheus.Counter
	FOCItemsTotal     prometheus.Counter
	WarningsTotal     *prometheus.CounterVec
	DocumentDuration  *prometheus.HistogramVec
	BatchesTotal      *prometheus.CounterVec
	QueueDepth        prometheus.Gauge
	TextCacheHitTotal prometheus.Counter
}

// New creates and registers all metrics on reg (prometheus.DefaultRegisterer when nil).
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		DocumentsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "documents_total",
				Help:      "Documents processed, by outcome",
			},
			[]string{"outcome"},
		),
		ItemsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "items_total",
			Help:      "Item records produced before de-duplication",
		}),
		FOCItemsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "foc_items_total",
			Help:      "Item records classified free of charge",
		}),
		WarningsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "warnings_total",
				Help:      "Document warnings, by kind",
			},
			[]string{"kind"},
		),
		DocumentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "document_duration_seconds",
				Help:      "Time to acquire and parse one document",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 180},
			},
			[]string{"source_type"},
		),
		BatchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Subsystem: Subsystem,
				Name:      "batches_total",
				Help:      "Batch runs, by final status",
			},
			[]string{"status"},
		),
		QueueDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "queue_depth",
			Help:      "Files waiting in the daemon queue",
		}),
		TextCacheHitTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: Subsystem,
			Name:      "text_cache_hits_total",
			Help:      "Documents whose text came from the acquisition cache",
		}),
	}
}

// ObserveDocument records one parsed document.
func (m *Metrics) ObserveDocument(res declaration.DocumentResult, sourceType string, cached bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := OutcomeParsed
	if len(res.Records) == 0 {
		outcome = OutcomeZeroYield
	}
	m.DocumentsTotal.WithLabelValues(outcome).Inc()
	m.ItemsTotal.Add(float64(len(res.Records)))
	m.FOCItemsTotal.Add(float64(res.Stats.FOC))
	for _, w := range res.Warnings {
		m.WarningsTotal.WithLabelValues(string(w.Kind)).Inc()
	}
	if sourceType == "" {
		sourceType = "unknown"
	}
	m.DocumentDuration.WithLabelValues(sourceType).Observe(d.Seconds())
	if cached {
		m.TextCacheHitTotal.Inc()
	}
}

// ObserveFailure records a document whose text could not be acquired.
func (m *Metrics) ObserveFailure(kind string) {
	if m == nil {
		return
	}
	m.DocumentsTotal.WithLabelValues(OutcomeFailed).Inc()
	m.WarningsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveBatch(status string) {
	if m == nil {
		return
	}
	m.BatchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.QueueDepth.Set(float64(n))
}
