// Package game computes approximate equilibria of the deception-jamming
// power-allocation game: defenders split power budgets across real and decoy
// channels while jammers split their own budgets to suppress throughput,
// with or without the ability to tell decoys apart. The solver runs damped
// simultaneous best responses until the largest per-channel allocation
// change drops below epsilon or the iteration budget is exhausted.
//
// A run is a pure function of its validated parameters (and seed); Solve is
// safe to call from many goroutines at once, which is how parameter sweeps
// fan out.
package game

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

const tracerName = "github.com/signalsfoundry/spectrum-deception-sim/game"

// MetricsRecorder receives the outcome of each run. Implementations must be
// safe for concurrent use; parallel sweeps report from many goroutines.
type MetricsRecorder interface {
	RecordRun(strategy, objective string, converged bool, iterations int, elapsed time.Duration)
}

// Option customizes a Solve call.
type Option func(*solveConfig)

type solveConfig struct {
	logger  logging.Logger
	metrics MetricsRecorder
}

// WithLogger attaches a structured logger to the run. The default discards
// everything.
func WithLogger(l logging.Logger) Option {
	return func(c *solveConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetricsRecorder wires solver outcome metrics, typically the Prometheus
// collector from internal/observability.
func WithMetricsRecorder(r MetricsRecorder) Option {
	return func(c *solveConfig) {
		c.metrics = r
	}
}

// Solve validates params and runs one equilibrium computation to completion.
// It returns a validation error before any iteration starts, or the caller's
// context error if the run is cancelled mid-iteration. Non-convergence is
// not an error: the result carries Converged=false with the full trajectory.
func Solve(ctx context.Context, params *model.Parameters, opts ...Option) (*model.Result, error) {
	cfg := solveConfig{logger: logging.Noop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := params.Validate(); err != nil {
		return nil, err
	}
	// The run must not observe caller mutations, especially under parallel
	// sweeps that reuse scenario buffers.
	p := params.Clone()

	tracer := otel.Tracer(tracerName)
	ctx, span := tracer.Start(ctx, "game.Solve", trace.WithAttributes(
		attribute.Int("game.channels", p.NumChannels),
		attribute.Int("game.defenders", p.NumDefenders()),
		attribute.Int("game.attackers", p.NumAttackers()),
		attribute.String("game.jammer_strategy", string(p.JammerStrategy)),
		attribute.String("game.jammer_objective", string(p.JammerObjective)),
	))
	defer span.End()

	start := time.Now()
	s := newSolver(p, cfg.logger)
	if err := s.run(ctx); err != nil {
		span.RecordError(err)
		return nil, err
	}
	elapsed := time.Since(start)

	res := s.result()
	span.SetAttributes(
		attribute.Bool("game.converged", res.Converged),
		attribute.Int("game.iterations", res.Iterations),
	)
	if cfg.metrics != nil {
		cfg.metrics.RecordRun(string(p.JammerStrategy), string(p.JammerObjective), res.Converged, res.Iterations, elapsed)
	}
	cfg.logger.Info(ctx, "equilibrium run finished",
		logging.Bool("converged", res.Converged),
		logging.Int("iterations", res.Iterations),
		logging.Float64("max_change", res.MaxChange),
		logging.Duration("elapsed", elapsed),
	)
	return res, nil
}
