package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "subsidy_"

	resultSuccess = "success"
	resultError   = "error"
)

// Exported constants for callers.
const (
	ResultSuccess = resultSuccess
	ResultError   = resultError
)

// Metrics bundles the metrics of one report run.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal        *prometheus.CounterVec
	runDuration      *prometheus.HistogramVec
	participants     prometheus.Gauge
	readings         prometheus.Gauge
	usageKWh         prometheus.Gauge
	creditTotal      prometheus.Gauge
	negativeCredits  prometheus.Counter
	artifactsTotal   *prometheus.CounterVec
	lastRunTimestamp prometheus.Gauge
}

// New constructs metrics on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "runs_total",
				Help: "Total report runs by result",
			},
			[]string{"result"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "run_duration_seconds",
				Help:    "Report run duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
		participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "participants",
			Help: "Participants in the last run",
		}),
		readings: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "readings_in_window",
			Help: "Meter readings inside the billing window",
		}),
		usageKWh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "usage_kwh",
			Help: "Total subsidized usage in kWh",
		}),
		creditTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "credit_dollars",
			Help: "Total credit owed in dollars, unrounded",
		}),
		negativeCredits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "negative_credits_total",
			Help: "Participants whose credit came out negative",
		}),
		artifactsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "artifacts_total",
				Help: "Artifacts written by format",
			},
			[]string{"format"},
		),
		lastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
	}
	m.registry.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.participants,
		m.readings,
		m.usageKWh,
		m.creditTotal,
		m.negativeCredits,
		m.artifactsTotal,
		m.lastRunTimestamp,
	)
	return m
}

// Registry exposes the gatherer for tests and exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records run duration and result.
func (m *Metrics) ObserveRun(result string, duration time.Duration, finishedAt time.Time) {
	if m == nil {
		return
	}
	if result == "" {
		result = resultSuccess
	}
	m.runsTotal.WithLabelValues(result).Inc()
	m.runDuration.WithLabelValues(result).Observe(duration.Seconds())
	m.lastRunTimestamp.Set(float64(finishedAt.Unix()))
}

// SetInputs records input sizes.
func (m *Metrics) SetInputs(participants, readings int) {
	if m == nil {
		return
	}
	m.participants.Set(float64(participants))
	m.readings.Set(float64(readings))
}

// SetTotals records the unrounded run totals.
func (m *Metrics) SetTotals(usageKWh, credit float64) {
	if m == nil {
		return
	}
	m.usageKWh.Set(usageKWh)
	m.creditTotal.Set(credit)
}

// IncNegativeCredit counts a participant with a negative credit.
func (m *Metrics) IncNegativeCredit() {
	if m == nil {
		return
	}
	m.negativeCredits.Inc()
}

// IncArtifact counts a written artifact.
func (m *Metrics) IncArtifact(format string) {
	if m == nil {
		return
	}
	if format == "" {
		format = "unknown"
	}
	m.artifactsTotal.WithLabelValues(format).Inc()
}

// WriteTextfile writes the metrics in text exposition format for the
// node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return errors.New("metrics: nil")
	}
	if path == "" {
		return errors.New("metrics: empty textfile path")
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
