// Package metrics records run statistics in a Prometheus registry and
// writes them in the node-exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"showlist/internal/diagnostics"
	"showlist/internal/pipeline"
)

const namespace = "showlist"

// Recorder holds the metrics of every run observed by one process. Gauges
// describe the last run; counters accumulate across runs.
type Recorder struct {
	registry *prometheus.Registry

	runs        prometheus.Counter
	records     *prometheus.GaugeVec
	entities    *prometheus.GaugeVec
	diagnostics *prometheus.CounterVec
	lastRun     prometheus.Gauge
	duration    prometheus.Gauge
}

// NewRecorder returns a Recorder with its own registry. Go runtime metrics
// are included when withRuntime is set.
func NewRecorder(withRuntime bool) *Recorder {
	r := &Recorder{registry: prometheus.NewRegistry()}

	r.runs = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "runs_total",
		Help:      "Number of completed runs",
	})
	r.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "records",
		Help:      "Input records of the last run by kind and stage",
	}, []string{"kind", "stage"})
	r.entities = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "entities",
		Help:      "Entities produced by the last run",
	}, []string{"entity"})
	r.diagnostics = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "diagnostics_total",
		Help:      "Diagnostics reported by category and type",
	}, []string{"severity", "category", "type"})
	r.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})
	r.duration = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_duration_seconds",
		Help:      "Wall time of the last run",
	})

	r.registry.MustRegister(r.runs, r.records, r.entities, r.diagnostics, r.lastRun, r.duration)

	if withRuntime {
		r.registry.MustRegister(collectors.NewGoCollector())
	}

	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one finished run.
func (r *Recorder) Observe(run *pipeline.RunResult, finished time.Time, took time.Duration) {
	s := run.Stats

	r.runs.Inc()

	r.records.WithLabelValues("event", "raw").Set(float64(s.RawEvents))
	r.records.WithLabelValues("event", "accepted").Set(float64(s.Events))
	r.records.WithLabelValues("event", "rejected").Set(float64(s.RejectedEvents))
	r.records.WithLabelValues("venue", "raw").Set(float64(s.RawVenues))

	r.entities.WithLabelValues("event").Set(float64(s.Events))
	r.entities.WithLabelValues("artist").Set(float64(s.Artists))
	r.entities.WithLabelValues("venue").Set(float64(s.Venues))
	r.entities.WithLabelValues("stub_venue").Set(float64(s.StubVenues))

	r.count("error", run.Errors)
	r.count("warning", run.Warnings)

	r.lastRun.Set(float64(finished.Unix()))
	r.duration.Set(took.Seconds())
}

func (r *Recorder) count(severity string, ds []diagnostics.Diagnostic) {
	for key, n := range diagnostics.Tally(ds) {
		r.diagnostics.WithLabelValues(severity, string(key.Category), key.Type).Add(float64(n))
	}
}

// WriteTextfile writes the registry to path for the node-exporter textfile
// collector. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", path, err)
	}

	return nil
}
