package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics covers spreadsheet processing, imports and display update delivery.
type PipelineMetrics struct {
	service string

	runsTotal          *prometheus.CounterVec
	runDuration        *prometheus.HistogramVec
	rowsTotal          *prometheus.CounterVec
	displayEventsTotal *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	return &PipelineMetrics{
		service: service,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docket",
				Subsystem: "pipeline",
				Name:      "runs_total",
				Help:      "Total processing and import runs by stage and status.",
			},
			[]string{"service", "stage", "status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "docket",
				Subsystem: "pipeline",
				Name:      "run_duration_seconds",
				Help:      "Run duration in seconds by stage.",
				Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"service", "stage"},
		),
		rowsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docket",
				Subsystem: "pipeline",
				Name:      "rows_total",
				Help:      "Rows seen by stage and outcome.",
			},
			[]string{"service", "stage", "outcome"},
		),
		displayEventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "docket",
				Subsystem: "display",
				Name:      "events_total",
				Help:      "Display update events by delivery outcome.",
			},
			[]string{"service", "outcome"},
		),
		breakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "docket",
				Subsystem: "resilience",
				Name:      "breaker_state",
				Help:      "Circuit breaker state: 0 closed, 1 half-open, 2 open.",
			},
			[]string{"service", "operation"},
		),
	}
}

func (m *PipelineMetrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runsTotal, m.runDuration, m.rowsTotal, m.displayEventsTotal, m.breakerState}
}

func (m *PipelineMetrics) ObserveRun(stage string, duration time.Duration, success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.runsTotal.WithLabelValues(m.service, stage, status).Inc()
	m.runDuration.WithLabelValues(m.service, stage).Observe(duration.Seconds())
}

func (m *PipelineMetrics) AddRows(stage, outcome string, n int) {
	if n <= 0 {
		return
	}
	m.rowsTotal.WithLabelValues(m.service, stage, outcome).Add(float64(n))
}

// DisplayEvent counts one event as published, dropped or failed.
func (m *PipelineMetrics) DisplayEvent(outcome string) {
	m.displayEventsTotal.WithLabelValues(m.service, outcome).Inc()
}

func (m *PipelineMetrics) BreakerStateChanged(operation, _, to string) {
	value := 0.0
	switch to {
	case "half-open":
		value = 1
	case "open":
		value = 2
	}
	m.breakerState.WithLabelValues(m.service, operation).Set(value)
}
