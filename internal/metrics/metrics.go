package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "invwatch"

// Metrics holds the process's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	FilesProcessed     *prometheus.CounterVec
	ParseDuration      prometheus.Histogram
	ItemsExtracted     prometheus.Counter
	SegmentAnomalies   prometheus.Counter
	ValidationFailures *prometheus.CounterVec
	PendingFiles       prometheus.Gauge
	SyncCycles         *prometheus.CounterVec
	SyncRecords        *prometheus.CounterVec
	SyncDuration       prometheus.Histogram
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "files_processed_total",
			Help: "Files taken off the watch queue, by outcome.",
		}, []string{"outcome"}),
		ParseDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "parse_duration_seconds",
			Help:    "Time to extract and parse one document.",
			Buckets: prometheus.DefBuckets,
		}),
		ItemsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "items_extracted_total",
			Help: "Line items extracted from parsed documents.",
		}),
		SegmentAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "segmentation_anomalies_total",
			Help: "Item numbers seen out of order while parsing tables.",
		}),
		ValidationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "validation_failures_total",
			Help: "Failed validation checks, by rule.",
		}, []string{"rule"}),
		PendingFiles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "pending_files",
			Help: "Files queued for processing.",
		}),
		SyncCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sync_cycles_total",
			Help: "Sync cycles, by result (ok, error, skipped).",
		}, []string{"result"}),
		SyncRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sync_records_uploaded_total",
			Help: "Records uploaded to the remote table, by table kind.",
		}, []string{"table"}),
		SyncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "sync_duration_seconds",
			Help:    "Duration of sync cycles.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.FilesProcessed, m.ParseDuration, m.ItemsExtracted, m.SegmentAnomalies,
		m.ValidationFailures, m.PendingFiles,
		m.SyncCycles, m.SyncRecords, m.SyncDuration,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
