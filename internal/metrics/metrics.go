// Package metrics exposes prometheus collectors for the simulation and
// alerting pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation metrics

	CyclesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquamon_simulation_cycles_total",
			Help: "Total number of completed simulation cycles",
		},
	)

	CycleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aquamon_simulation_cycle_duration_seconds",
			Help:    "Duration of one full simulation cycle",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
	)

	SamplesGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquamon_samples_generated_total",
			Help: "Telemetry samples generated, labelled by branch",
		},
		[]string{"branch"}, // normal, anomaly, outage, scenario
	)

	DeviceCycleErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquamon_device_cycle_errors_total",
			Help: "Per-device failures during simulation cycles",
		},
	)

	// Alerting metrics

	AlertsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aquamon_alerts_created_total",
			Help: "Alerts created by the rule engine",
		},
		[]string{"severity"},
	)

	AlertsSuppressed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquamon_alerts_suppressed_total",
			Help: "Alerts suppressed by an open cooldown window",
		},
	)

	RuleEvaluationErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "aquamon_rule_evaluation_errors_total",
			Help: "Rules skipped due to malformed stored conditions",
		},
	)
)
