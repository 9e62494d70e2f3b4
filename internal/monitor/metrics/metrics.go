package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbeRunsTotal tracks probe executions per source and outcome
	ProbeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethmonitor_probe_runs_total",
			Help: "Total number of probe runs",
		},
		[]string{"source", "result"},
	)

	// ProbeErrorsTotal tracks probe failures per source and error kind
	ProbeErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethmonitor_probe_errors_total",
			Help: "Total number of probe errors",
		},
		[]string{"source", "error_type"},
	)

	// ProbeLatency tracks measured probe latency
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ethmonitor_probe_latency_seconds",
			Help:    "Probe latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	// SourceUp is 1 while the source is OK and 0 when it is DOWN
	SourceUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ethmonitor_source_up",
			Help: "Whether the source reported within the staleness threshold",
		},
		[]string{"source"},
	)

	// FramesRendered counts dashboard redraws
	FramesRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "ethmonitor_frames_rendered_total",
			Help: "Total number of dashboard frames rendered",
		},
	)
)
