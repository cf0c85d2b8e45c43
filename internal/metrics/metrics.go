// Package metrics exposes Prometheus collectors for ledger and closure operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Collector records ledger, closure and entry-write metrics
type Collector struct {
	ledgerComputations *prometheus.CounterVec
	ledgerLatency      prometheus.Histogram
	closures           *prometheus.CounterVec
	closureLatency     prometheus.Histogram
	entryWrites        *prometheus.CounterVec
	lockWait           prometheus.Histogram
}

// NewCollector creates a Collector under the given namespace
func NewCollector(namespace string) *Collector {
	return &Collector{
		ledgerComputations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ledger_computations_total",
				Help:      "Total number of ledger computations by outcome",
			},
			[]string{"outcome"},
		),
		ledgerLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "ledger_computation_duration_seconds",
				Help:      "Ledger computation latency",
				Buckets:   prometheus.DefBuckets,
			},
		),
		closures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cob_closures_total",
				Help:      "Total number of close-of-business attempts by outcome",
			},
			[]string{"outcome"},
		),
		closureLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "cob_closure_duration_seconds",
				Help:      "Close-of-business latency including lock wait",
				Buckets:   prometheus.DefBuckets,
			},
		),
		entryWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entry_writes_total",
				Help:      "Total number of entry writes by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		lockWait: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "closure_lock_wait_seconds",
				Help:      "Time spent waiting for the closure lock",
				Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 5},
			},
		),
	}
}

// Register registers all metrics with the given registry
func (c *Collector) Register(registry prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		c.ledgerComputations,
		c.ledgerLatency,
		c.closures,
		c.closureLatency,
		c.entryWrites,
		c.lockWait,
	}
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// RecordLedgerComputation records one ledger computation
func (c *Collector) RecordLedgerComputation(success bool, duration time.Duration) {
	c.ledgerComputations.WithLabelValues(outcome(success)).Inc()
	c.ledgerLatency.Observe(duration.Seconds())
}

// RecordClosure records one close-of-business attempt. reason is the
// outcome label: "success", or a short failure reason such as "already_closed".
func (c *Collector) RecordClosure(reason string, duration time.Duration) {
	c.closures.WithLabelValues(reason).Inc()
	c.closureLatency.Observe(duration.Seconds())
}

// RecordEntryWrite records one entry create or status update
func (c *Collector) RecordEntryWrite(kind string, success bool) {
	c.entryWrites.WithLabelValues(kind, outcome(success)).Inc()
}

// RecordLockWait records how long a caller waited for the closure lock
func (c *Collector) RecordLockWait(duration time.Duration) {
	c.lockWait.Observe(duration.Seconds())
}

func outcome(success bool) string {
	if success {
		return OutcomeSuccess
	}
	return OutcomeError
}
