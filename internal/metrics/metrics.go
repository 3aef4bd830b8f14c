package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Registry holds the engine's Prometheus collectors.
	Registry = prometheus.NewRegistry()

	ledgerRecomputes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthpal",
			Subsystem: "ledger",
			Name:      "recomputes_total",
			Help:      "Total number of ledger recomputes by result.",
		},
		[]string{"result"},
	)

	ledgerRecomputeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "healthpal",
			Subsystem: "ledger",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of ledger recompute transactions.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
	)

	estimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthpal",
			Subsystem: "energy",
			Name:      "estimates_total",
			Help:      "Total number of energy estimates by method.",
		},
		[]string{"method"},
	)

	progressRecalculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthpal",
			Subsystem: "challenge",
			Name:      "progress_recalculations_total",
			Help:      "Total number of challenge progress recalculations by result.",
		},
		[]string{"result"},
	)

	challengeFinishes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "healthpal",
			Subsystem: "challenge",
			Name:      "finishes_total",
			Help:      "Total number of challenge finish attempts by result.",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		ledgerRecomputes,
		ledgerRecomputeDuration,
		estimates,
		progressRecalculations,
		challengeFinishes,
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordLedgerRecompute records one recompute and its duration.
func RecordLedgerRecompute(duration time.Duration, err error) {
	ledgerRecomputes.WithLabelValues(result(err)).Inc()
	ledgerRecomputeDuration.Observe(duration.Seconds())
}

func RecordEstimate(method string) {
	if method == "" {
		method = "unknown"
	}
	estimates.WithLabelValues(method).Inc()
}

func RecordProgressRecalculation(err error) {
	progressRecalculations.WithLabelValues(result(err)).Inc()
}

func RecordChallengeFinish(err error) {
	challengeFinishes.WithLabelValues(result(err)).Inc()
}

// WriteTextfile writes the registry in the node-exporter textfile format.
func WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
