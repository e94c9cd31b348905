package model

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidParameters = errors.New("invalid parameters")
)

// Hard safety bounds on run sizes. Runs are O(N*(D+M)) per iteration; these
// caps keep a single request from monopolizing a worker.
const (
	MaxChannels     = 100
	MaxDefenders    = 20
	MaxAttackers    = 20
	MaxIterationCap = 1000
)

// Validate checks every field and reports the first violation with a
// field-level message. It never mutates p, and a run must not start if it
// returns an error.
func (p *Parameters) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: parameters are required", ErrInvalidParameters)
	}
	if p.NumChannels < 1 || p.NumChannels > MaxChannels {
		return fmt.Errorf("%w: numChannels must be in [1, %d], got %d", ErrInvalidParameters, MaxChannels, p.NumChannels)
	}
	if len(p.Channels) != p.NumChannels {
		return fmt.Errorf("%w: channels must have exactly numChannels=%d entries, got %d", ErrInvalidParameters, p.NumChannels, len(p.Channels))
	}

	d := p.NumDefenders()
	m := p.NumAttackers()
	if d < 1 || d > MaxDefenders {
		return fmt.Errorf("%w: defenderBudgets must have between 1 and %d entries, got %d", ErrInvalidParameters, MaxDefenders, d)
	}
	if m > MaxAttackers {
		return fmt.Errorf("%w: attackerBudgets must have at most %d entries, got %d", ErrInvalidParameters, MaxAttackers, m)
	}
	for i, b := range p.DefenderBudgets {
		if !finiteNonNegative(b) {
			return fmt.Errorf("%w: defenderBudgets[%d] must be finite and non-negative, got %v", ErrInvalidParameters, i, b)
		}
	}
	for i, b := range p.AttackerBudgets {
		if !finiteNonNegative(b) {
			return fmt.Errorf("%w: attackerBudgets[%d] must be finite and non-negative, got %v", ErrInvalidParameters, i, b)
		}
	}

	if err := validateGainMatrix("defenderGains", p.DefenderGains, d, p.NumChannels); err != nil {
		return err
	}
	if err := validateGainMatrix("attackerGains", p.AttackerGains, m, p.NumChannels); err != nil {
		return err
	}

	for i, ch := range p.Channels {
		switch ch.Type {
		case ChannelReal, ChannelDecoy, ChannelInactive:
		default:
			return fmt.Errorf("%w: channels[%d].type %q is not one of real, decoy, inactive", ErrInvalidParameters, i, ch.Type)
		}
		if ch.Owner < 0 || ch.Owner >= d {
			return fmt.Errorf("%w: channels[%d].owner must be in [0, %d), got %d", ErrInvalidParameters, i, d, ch.Owner)
		}
	}

	if !finitePositive(p.NoiseFloor) {
		return fmt.Errorf("%w: sigma2 must be finite and strictly positive, got %v", ErrInvalidParameters, p.NoiseFloor)
	}
	if !finiteNonNegative(p.SensingThreshold) {
		return fmt.Errorf("%w: tau must be finite and non-negative, got %v", ErrInvalidParameters, p.SensingThreshold)
	}
	if math.IsNaN(p.Damping) || p.Damping <= 0 || p.Damping > 1 {
		return fmt.Errorf("%w: alpha must be in (0, 1], got %v", ErrInvalidParameters, p.Damping)
	}
	if !finitePositive(p.Epsilon) {
		return fmt.Errorf("%w: epsilon must be finite and strictly positive, got %v", ErrInvalidParameters, p.Epsilon)
	}
	if p.MaxIterations < 1 || p.MaxIterations > MaxIterationCap {
		return fmt.Errorf("%w: maxIter must be in [1, %d], got %d", ErrInvalidParameters, MaxIterationCap, p.MaxIterations)
	}

	switch p.JammerStrategy {
	case StrategyUniform, StrategyGradient:
	case StrategyTopK:
		if p.TopK < 1 {
			return fmt.Errorf("%w: topK must be at least 1 when jammerStrategy is topK, got %d", ErrInvalidParameters, p.TopK)
		}
	default:
		return fmt.Errorf("%w: jammerStrategy %q is not one of uniform, topK, gradient", ErrInvalidParameters, p.JammerStrategy)
	}
	switch p.JammerObjective {
	case ObjectiveOracle, ObjectiveDeception:
	default:
		return fmt.Errorf("%w: jammerObjective %q is not one of oracle, deception", ErrInvalidParameters, p.JammerObjective)
	}
	switch p.AttackerMode {
	case ModeCoordinated, ModeIndependent:
	default:
		return fmt.Errorf("%w: attackerMode %q is not one of coordinated, independent", ErrInvalidParameters, p.AttackerMode)
	}

	return nil
}

func validateGainMatrix(name string, gains [][]float64, rows, cols int) error {
	if len(gains) != rows {
		return fmt.Errorf("%w: %s must have %d rows, got %d", ErrInvalidParameters, name, rows, len(gains))
	}
	for r, row := range gains {
		if len(row) != cols {
			return fmt.Errorf("%w: %s[%d] must have %d entries, got %d", ErrInvalidParameters, name, r, cols, len(row))
		}
		for c, v := range row {
			if !finiteNonNegative(v) {
				return fmt.Errorf("%w: %s[%d][%d] must be finite and non-negative, got %v", ErrInvalidParameters, name, r, c, v)
			}
		}
	}
	return nil
}

func finiteNonNegative(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func finitePositive(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
