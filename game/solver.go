package game

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// solver owns the mutable state of exactly one run: the allocation matrices,
// the active-channel mask, and the iteration history. Each player's row is
// rewritten only by that player's update, once per iteration.
type solver struct {
	m      *runModel
	p      *model.Parameters
	policy jammerPolicy
	log    logging.Logger

	x      [][]float64
	y      [][]float64
	active []bool

	history    []model.IterationRecord
	iterations int
	converged  bool
	maxChange  float64
}

func newSolver(p *model.Parameters, log logging.Logger) *solver {
	m := newRunModel(p)
	s := &solver{
		m:      m,
		p:      p,
		policy: policyFor(p),
		log:    log,
		active: make([]bool, m.n),
	}

	var rng *rand.Rand
	if p.RandomInit {
		seed := p.Seed
		if seed == 0 {
			// No explicit seed: the run is intentionally non-reproducible.
			seed = time.Now().UnixNano()
		}
		rng = rand.New(rand.NewSource(seed))
	}
	s.x = initialDefenders(m, p.RandomInit, rng)
	s.m.fillActiveSet(s.x, s.active)
	s.y = s.seedAttackers()
	return s
}

// seedAttackers invokes the configured strategy once per attacker against
// the initial defender allocation, in index order and without damping.
func (s *solver) seedAttackers() [][]float64 {
	y := make([][]float64, s.m.numAttackers())
	for a := range y {
		y[a] = make([]float64, s.m.n)
	}
	eligible := s.m.eligibleChannels(s.active, s.p.JammerObjective)
	for a := range y {
		y[a] = s.policy.candidate(s.m, a, s.x, y, eligible)
	}
	return y
}

// run drives the loop to a terminal state: converged when the run-wide
// maximum change drops below epsilon, exhausted when maxIter elapses.
// Exhaustion is a valid outcome, not an error; only context cancellation
// aborts a run.
func (s *solver) run(ctx context.Context) error {
	s.log.Debug(ctx, "starting best-response loop",
		logging.Int("max_iterations", s.p.MaxIterations),
		logging.String("jammer_strategy", string(s.p.JammerStrategy)),
	)
	for iter := 1; iter <= s.p.MaxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec := s.step(iter)
		s.history = append(s.history, rec)
		s.iterations = iter
		s.maxChange = rec.MaxChange
		if rec.MaxChange < s.p.Epsilon {
			s.converged = true
			return nil
		}
	}
	return nil
}

// step advances every player once. Defenders move first in index order
// (ascend, project onto their budget, damp); the active set is rebuilt from
// the new defender allocations; attackers then propose against the
// refreshed eligibility and damp identically. The loop is inherently
// sequential — each update reads the joint state left by the previous one.
func (s *solver) step(iter int) model.IterationRecord {
	alpha := s.p.Damping

	defDeltas := make([]float64, s.m.numDefenders())
	grad := make([]float64, s.m.n)
	for d := 0; d < s.m.numDefenders(); d++ {
		s.m.defenderGradient(d, s.x, s.y, grad)
		owned := s.m.owned[d]
		proposal := make([]float64, len(owned))
		for j, i := range owned {
			proposal[j] = s.x[d][i] + ascentStep*grad[i]
		}
		projected := projectToBudget(proposal, s.m.pt[d])
		var delta float64
		for j, i := range owned {
			next := (1-alpha)*s.x[d][i] + alpha*projected[j]
			if ch := math.Abs(next - s.x[d][i]); ch > delta {
				delta = ch
			}
			s.x[d][i] = next
		}
		defDeltas[d] = delta
	}

	s.m.fillActiveSet(s.x, s.active)
	eligible := s.m.eligibleChannels(s.active, s.p.JammerObjective)

	attDeltas := make([]float64, s.m.numAttackers())
	for a := 0; a < s.m.numAttackers(); a++ {
		cand := s.policy.candidate(s.m, a, s.x, s.y, eligible)
		var delta float64
		for i := 0; i < s.m.n; i++ {
			next := (1-alpha)*s.y[a][i] + alpha*cand[i]
			if ch := math.Abs(next - s.y[a][i]); ch > delta {
				delta = ch
			}
			s.y[a][i] = next
		}
		attDeltas[a] = delta
	}

	maxChange := 0.0
	for _, d := range defDeltas {
		if d > maxChange {
			maxChange = d
		}
	}
	for _, d := range attDeltas {
		if d > maxChange {
			maxChange = d
		}
	}

	defUtils := make([]float64, s.m.numDefenders())
	for d := range defUtils {
		defUtils[d] = s.m.defenderUtility(d, s.x, s.y, scopeRealOnly, s.active)
	}
	attUtils := make([]float64, s.m.numAttackers())
	if len(attUtils) > 0 {
		// The suppression objective is shared; every attacker records the
		// same value.
		objective := s.m.attackerUtility(s.x, s.y, s.p.JammerObjective, s.active)
		for a := range attUtils {
			attUtils[a] = objective
		}
	}

	return model.IterationRecord{
		Iteration:         iter,
		MaxChange:         maxChange,
		DefenderUtilities: defUtils,
		AttackerUtilities: attUtils,
		DefenderDeltas:    defDeltas,
		AttackerDeltas:    attDeltas,
	}
}

func (s *solver) result() *model.Result {
	return buildResult(s.m, s.p, s.x, s.y, s.active, s.history, s.iterations, s.converged, s.maxChange)
}
