package cli

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics collects pipeline and cache events for a single CLI invocation and
// writes them in the node_exporter textfile format on exit.
type metrics struct {
	reg *prometheus.Registry

	stagesStarted   *prometheus.CounterVec
	stagesCompleted *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	stageSize       *prometheus.GaugeVec

	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec
	cacheBytes  *prometheus.CounterVec
}

func newMetrics() *metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &metrics{
		reg: reg,
		stagesStarted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metavis_stage_started_total",
			Help: "Pipeline stages started, labelled by stage.",
		}, []string{"stage"}),
		stagesCompleted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metavis_stage_completed_total",
			Help: "Pipeline stages completed, labelled by stage and status.",
		}, []string{"stage", "status"}),
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "metavis_stage_duration_ms",
			Help:    "Pipeline stage latency in milliseconds.",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
		}, []string{"stage"}),
		stageSize: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "metavis_stage_output_size",
			Help: "Items produced by the last run of each stage.",
		}, []string{"stage"}),
		cacheHits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metavis_cache_hits_total",
			Help: "Cache hits, labelled by entry type.",
		}, []string{"type"}),
		cacheMisses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metavis_cache_misses_total",
			Help: "Cache misses, labelled by entry type.",
		}, []string{"type"}),
		cacheBytes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "metavis_cache_written_bytes_total",
			Help: "Bytes written to the cache, labelled by entry type.",
		}, []string{"type"}),
	}
}

func (m *metrics) OnStageStart(_ context.Context, stage string) {
	m.stagesStarted.WithLabelValues(stage).Inc()
}

func (m *metrics) OnStageComplete(_ context.Context, stage string, size int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.stagesCompleted.WithLabelValues(stage, status).Inc()
	m.stageDuration.WithLabelValues(stage).Observe(float64(d.Microseconds()) / 1000)
	m.stageSize.WithLabelValues(stage).Set(float64(size))
}

func (m *metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheHits.WithLabelValues(keyType).Inc()
}

func (m *metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheMisses.WithLabelValues(keyType).Inc()
}

func (m *metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *metrics) writeTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
