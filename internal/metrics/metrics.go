// ============================================================================
// Ballast Gate Metrics - Prometheus instrumentation
// ============================================================================
//
// Package: internal/metrics
// File: metrics.go
// Purpose: Collect and expose planner runtime metrics for Prometheus.
//
// Metric families:
//
//   Counters:
//     - ballastgate_solves_total: stage solves attempted
//     - ballastgate_solve_failures_total: stage solves that returned an error
//     - ballastgate_gate_violations_total: soft-gate FAIL verdicts reported
//
//   Histogram:
//     - ballastgate_solve_duration_seconds: per-stage solve latency
//
//   Gauges:
//     - ballastgate_stages_pending: stages queued but not yet picked up
//     - ballastgate_stages_in_flight: stages currently being solved
//
// Example queries:
//
//   # solve error rate
//   rate(ballastgate_solve_failures_total[5m]) / rate(ballastgate_solves_total[5m])
//
//   # 95th percentile solve latency
//   histogram_quantile(0.95, ballastgate_solve_duration_seconds_bucket)
//
// Exposed on /metrics via StartServer; scraping is optional and the planner
// runs fine without it. All Collector methods accept a nil receiver so the
// pipeline can be wired with or without instrumentation.
//
// ============================================================================

package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the planner's Prometheus metrics.
type Collector struct {
	solvesTotal    prometheus.Counter
	solveFailures  prometheus.Counter
	gateViolations prometheus.Counter

	solveDuration prometheus.Histogram

	stagesPending  prometheus.Gauge
	stagesInFlight prometheus.Gauge
}

// NewCollector creates and registers the planner metrics. A process registers
// at most one collector; a second call panics on duplicate registration.
func NewCollector() *Collector {
	c := &Collector{
		solvesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ballastgate_solves_total",
			Help: "Total number of stage solves attempted",
		}),
		solveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ballastgate_solve_failures_total",
			Help: "Total number of stage solves that returned an error",
		}),
		gateViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ballastgate_gate_violations_total",
			Help: "Total number of gate FAIL verdicts across completed solves",
		}),
		solveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ballastgate_solve_duration_seconds",
			Help:    "Per-stage solve latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stagesPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ballastgate_stages_pending",
			Help: "Stages queued on the pipeline but not yet picked up",
		}),
		stagesInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ballastgate_stages_in_flight",
			Help: "Stages currently being solved",
		}),
	}

	prometheus.MustRegister(c.solvesTotal)
	prometheus.MustRegister(c.solveFailures)
	prometheus.MustRegister(c.gateViolations)
	prometheus.MustRegister(c.solveDuration)
	prometheus.MustRegister(c.stagesPending)
	prometheus.MustRegister(c.stagesInFlight)

	return c
}

// RecordSolve records one completed stage solve and its latency.
func (c *Collector) RecordSolve(seconds float64) {
	if c == nil {
		return
	}
	c.solvesTotal.Inc()
	c.solveDuration.Observe(seconds)
}

// RecordFailure records one stage solve that returned an error.
func (c *Collector) RecordFailure() {
	if c == nil {
		return
	}
	c.solvesTotal.Inc()
	c.solveFailures.Inc()
}

// RecordViolations records gate FAIL verdicts from a completed solve.
func (c *Collector) RecordViolations(count int) {
	if c == nil || count <= 0 {
		return
	}
	c.gateViolations.Add(float64(count))
}

// UpdateStageStats sets the pending and in-flight stage gauges.
func (c *Collector) UpdateStageStats(pending, inFlight int) {
	if c == nil {
		return
	}
	c.stagesPending.Set(float64(pending))
	c.stagesInFlight.Set(float64(inFlight))
}

// StartServer serves /metrics on the given port. Blocks; run it on its own
// goroutine.
func StartServer(port int) error {
	http.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), nil)
}
