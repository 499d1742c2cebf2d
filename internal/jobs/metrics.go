// Package jobmetrics instruments the worker: one run counter and latency histogram per
// task type, plus per-source gauges describing the last validated snapshot.
package jobmetrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the worker collectors. A nil *Metrics is a no-op.
type Metrics struct {
	runs        *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	bytes       *prometheus.GaugeVec
	refreshedAt *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the collectors on registerer. A nil registerer means the
// process-wide default registry, registered at most once.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return build(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = build(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func build(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)
	return &Metrics{
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tablero_job_runs_total",
			Help: "Ejecuciones de tareas por tipo y resultado.",
		}, []string{"job", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tablero_job_duration_seconds",
			Help:    "Duración de las tareas en segundos.",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"job"}),
		bytes: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tablero_snapshot_bytes",
			Help: "Tamaño del último snapshot validado por fuente.",
		}, []string{"source"}),
		refreshedAt: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tablero_snapshot_refreshed_timestamp_seconds",
			Help: "Momento Unix de la última validación exitosa por fuente.",
		}, []string{"source"}),
	}
}

// Tracker times one task run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts timing a run of job.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records the run outcome and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// ObserveSnapshot records the size and validation time of a snapshot.
func (m *Metrics) ObserveSnapshot(source string, size int, at time.Time) {
	if m == nil {
		return
	}
	m.bytes.WithLabelValues(source).Set(float64(size))
	m.refreshedAt.WithLabelValues(source).Set(float64(at.Unix()))
}
