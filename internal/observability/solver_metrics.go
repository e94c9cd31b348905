package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SolverCollector exposes equilibrium-solver and sweep Prometheus metrics.
// It satisfies the solver's MetricsRecorder interface, so a single collector
// instance can be handed to every Solve call a process makes.
type SolverCollector struct {
	gatherer prometheus.Gatherer

	RunsTotal     *prometheus.CounterVec
	RunDuration   *prometheus.HistogramVec
	RunIterations prometheus.Histogram

	SweepsActive   prometheus.Gauge
	SweepRowsTotal prometheus.Counter
}

// NewSolverCollector registers solver metrics against the provided registerer.
func NewSolverCollector(reg prometheus.Registerer) (*SolverCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "solver_runs_total",
		Help: "Completed equilibrium runs, labeled by jammer strategy, objective, and outcome.",
	}, []string{"strategy", "objective", "outcome"})
	runs, err := registerCounterVec(reg, runs, "solver_runs_total")
	if err != nil {
		return nil, err
	}

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "solver_run_duration_seconds",
		Help:    "Wall-clock duration of one equilibrium run.",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}, []string{"strategy"})
	duration, err = registerHistogramVec(reg, duration, "solver_run_duration_seconds")
	if err != nil {
		return nil, err
	}

	iterations := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "solver_run_iterations",
		Help:    "Best-response iterations consumed per run.",
		Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	iterations, err = registerHistogram(reg, iterations, "solver_run_iterations")
	if err != nil {
		return nil, err
	}

	sweepsActive := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "sweep_runs_active",
		Help: "Parameter sweeps currently executing.",
	})
	sweepsActive, err = registerGauge(reg, sweepsActive, "sweep_runs_active")
	if err != nil {
		return nil, err
	}

	sweepRows := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sweep_rows_completed_total",
		Help: "Cumulative sweep rows solved across all sweeps.",
	})
	sweepRows, err = registerCounter(reg, sweepRows, "sweep_rows_completed_total")
	if err != nil {
		return nil, err
	}

	return &SolverCollector{
		gatherer:       gatherer,
		RunsTotal:      runs,
		RunDuration:    duration,
		RunIterations:  iterations,
		SweepsActive:   sweepsActive,
		SweepRowsTotal: sweepRows,
	}, nil
}

// Gatherer returns the Prometheus gatherer associated with the collector.
func (c *SolverCollector) Gatherer() prometheus.Gatherer {
	if c == nil {
		return nil
	}
	return c.gatherer
}

// RecordRun implements the solver's MetricsRecorder.
func (c *SolverCollector) RecordRun(strategy, objective string, converged bool, iterations int, elapsed time.Duration) {
	if c == nil {
		return
	}
	outcome := "exhausted"
	if converged {
		outcome = "converged"
	}
	if c.RunsTotal != nil {
		c.RunsTotal.WithLabelValues(strategy, objective, outcome).Inc()
	}
	if c.RunDuration != nil {
		c.RunDuration.WithLabelValues(strategy).Observe(elapsed.Seconds())
	}
	if c.RunIterations != nil {
		c.RunIterations.Observe(float64(iterations))
	}
}

// SweepStarted bumps the active sweep gauge; pair with SweepFinished.
func (c *SolverCollector) SweepStarted() {
	if c != nil && c.SweepsActive != nil {
		c.SweepsActive.Inc()
	}
}

// SweepFinished decrements the active sweep gauge.
func (c *SolverCollector) SweepFinished() {
	if c != nil && c.SweepsActive != nil {
		c.SweepsActive.Dec()
	}
}

// AddSweepRows accounts n freshly solved sweep rows.
func (c *SolverCollector) AddSweepRows(n int) {
	if c == nil || c.SweepRowsTotal == nil || n <= 0 {
		return
	}
	c.SweepRowsTotal.Add(float64(n))
}
