// Package metrics exposes Prometheus instrumentation for analysis runs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyzer_runs_started_total",
		Help: "Total number of analysis runs started.",
	})

	RunsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyzer_runs_completed_total",
		Help: "Total number of analysis runs completed successfully.",
	})

	RunsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyzer_runs_failed_total",
		Help: "Total number of analysis runs that ended in error.",
	})

	TransactionsAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyzer_transactions_analyzed_total",
		Help: "Total number of transactions processed across all runs.",
	})

	AnomaliesDetected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "analyzer_anomalies_detected_total",
		Help: "Total number of transactions flagged as anomalous.",
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "analyzer_run_duration_seconds",
		Help:    "Wall-clock duration of analysis runs.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
)
