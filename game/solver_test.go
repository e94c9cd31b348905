package game

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// referenceParams is the two-real/two-decoy single-defender game used
// throughout: flat unit gains, sigma2=1, tau=0.2, budgets 10/10.
func referenceParams() *model.Parameters {
	return &model.Parameters{
		NumChannels: 4,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
		},
		DefenderGains:    [][]float64{{1, 1, 1, 1}},
		AttackerGains:    [][]float64{{1, 1, 1, 1}},
		DefenderBudgets:  []float64{10},
		AttackerBudgets:  []float64{10},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
		Damping:          0.3,
		Epsilon:          1e-3,
		MaxIterations:    100,
		JammerStrategy:   model.StrategyUniform,
		JammerObjective:  model.ObjectiveDeception,
		AttackerMode:     model.ModeCoordinated,
	}
}

func mustSolve(t *testing.T, p *model.Parameters) *model.Result {
	t.Helper()
	res, err := Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("Solve() err = %v, want nil", err)
	}
	return res
}

func sumOf(row []float64) float64 {
	var s float64
	for _, v := range row {
		s += v
	}
	return s
}

func TestReferenceScenario_DeceptionUniform(t *testing.T) {
	res := mustSolve(t, referenceParams())

	if !res.Converged {
		t.Fatalf("Converged = false, want true (iterations=%d, maxChange=%v)", res.Iterations, res.MaxChange)
	}
	if res.Iterations > 100 {
		t.Fatalf("Iterations = %d, want <= 100", res.Iterations)
	}
	for _, ch := range res.ChannelSummary {
		if !ch.Active {
			t.Fatalf("channel %d inactive, want all four active", ch.Index)
		}
	}
	// Decoys should hold roughly the sensing threshold: funded enough to
	// stay visible, never competitive with real channels.
	for _, ch := range res.ChannelSummary {
		if ch.Type != model.ChannelDecoy {
			continue
		}
		if ch.DefenderPower < 0.15 || ch.DefenderPower > 0.3 {
			t.Fatalf("decoy channel %d power = %v, want ≈ tau (0.2)", ch.Index, ch.DefenderPower)
		}
	}
	// The deceived uniform attacker spreads over all four active channels,
	// so about half its budget lands on decoys.
	if w := res.Metrics.JammerWasteOnDecoys; math.Abs(w-0.5) > 0.05 {
		t.Fatalf("JammerWasteOnDecoys = %v, want ≈ 0.5", w)
	}
	if res.Metrics.TotalRealThroughput <= 0 {
		t.Fatalf("TotalRealThroughput = %v, want > 0", res.Metrics.TotalRealThroughput)
	}
	// Four active channels over two real ones.
	if math.Abs(res.Metrics.DilutionFactor-2) > 1e-9 {
		t.Fatalf("DilutionFactor = %v, want 2", res.Metrics.DilutionFactor)
	}
	if !res.Metrics.SymmetricEquilibrium {
		t.Fatalf("SymmetricEquilibrium = false, want true for a single defender")
	}
	if res.Metrics.OracleGap != nil || res.Metrics.ImprovementOverNoDecoys != nil {
		t.Fatalf("reserved comparison fields populated by plain Solve")
	}
}

func TestOracleNeverBeatsDeceptionForDefenders(t *testing.T) {
	deception := mustSolve(t, referenceParams())

	oracleParams := referenceParams()
	oracleParams.JammerObjective = model.ObjectiveOracle
	oracle := mustSolve(t, oracleParams)

	if oracle.Metrics.TotalRealThroughput > deception.Metrics.TotalRealThroughput+1e-9 {
		t.Fatalf("oracle throughput %v > deception throughput %v; the oracle attacker should suppress at least as well",
			oracle.Metrics.TotalRealThroughput, deception.Metrics.TotalRealThroughput)
	}
	// The oracle attacker ignores decoys entirely.
	if oracle.Metrics.JammerWasteOnDecoys != 0 {
		t.Fatalf("oracle JammerWasteOnDecoys = %v, want 0", oracle.Metrics.JammerWasteOnDecoys)
	}
}

func TestAllRealChannels_ZeroWaste(t *testing.T) {
	p := referenceParams()
	p.Channels[2].Type = model.ChannelReal
	p.Channels[3].Type = model.ChannelReal

	res := mustSolve(t, p)
	if res.Metrics.JammerWasteOnDecoys != 0 {
		t.Fatalf("JammerWasteOnDecoys = %v, want exactly 0 with no decoys", res.Metrics.JammerWasteOnDecoys)
	}
	if res.Metrics.TotalDecoyPower != 0 {
		t.Fatalf("TotalDecoyPower = %v, want 0", res.Metrics.TotalDecoyPower)
	}
	if math.Abs(res.Metrics.DilutionFactor-1) > 1e-9 {
		t.Fatalf("DilutionFactor = %v, want 1 with every channel real and active", res.Metrics.DilutionFactor)
	}
}

func TestZeroBudgetDefenderStaysZero(t *testing.T) {
	p := &model.Parameters{
		NumChannels: 4,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 1},
			{Type: model.ChannelDecoy, Owner: 1},
		},
		DefenderGains:    [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}},
		AttackerGains:    [][]float64{{1, 1, 1, 1}},
		DefenderBudgets:  []float64{10, 0},
		AttackerBudgets:  []float64{10},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
		Damping:          0.3,
		Epsilon:          1e-3,
		MaxIterations:    50,
		JammerStrategy:   model.StrategyUniform,
		JammerObjective:  model.ObjectiveDeception,
		AttackerMode:     model.ModeCoordinated,
	}
	res := mustSolve(t, p)

	for i, v := range res.Defenders[1].Allocation {
		if v != 0 {
			t.Fatalf("zero-budget defender allocation[%d] = %v, want 0", i, v)
		}
	}
	if res.Defenders[1].Utility != 0 {
		t.Fatalf("zero-budget defender utility = %v, want 0", res.Defenders[1].Utility)
	}
	if math.IsNaN(res.Metrics.TotalRealThroughput) {
		t.Fatalf("TotalRealThroughput is NaN; sigma2 floor should prevent division blowups")
	}
	// Ten units of L1 distance between the two defender rows is far beyond
	// the 10*epsilon symmetry band.
	if res.Metrics.SymmetricEquilibrium {
		t.Fatalf("SymmetricEquilibrium = true, want false for wildly different defender rows")
	}
}

func TestBudgetsConservedEveryIteration(t *testing.T) {
	base := &model.Parameters{
		NumChannels: 6,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 1},
			{Type: model.ChannelReal, Owner: 1},
			{Type: model.ChannelReal, Owner: 1},
		},
		DefenderGains: [][]float64{
			{1.2, 0.8, 1.0, 0, 0, 0},
			{0, 0, 0, 0.9, 1.4, 1.1},
		},
		AttackerGains: [][]float64{
			{1, 1.1, 0.9, 1.2, 0.8, 1},
			{0.7, 1.3, 1, 0.9, 1.1, 1.2},
		},
		DefenderBudgets: []float64{12, 7},
		AttackerBudgets: []float64{9, 4},
		NoiseFloor:      0.5,
		// tau=0 keeps every channel active, so attacker rows stay on
		// budget from the seed onward.
		SensingThreshold: 0,
		Damping:          0.3,
		Epsilon:          1e-9,
		MaxIterations:    1,
		JammerStrategy:   model.StrategyGradient,
		JammerObjective:  model.ObjectiveDeception,
		AttackerMode:     model.ModeCoordinated,
		RandomInit:       true,
		Seed:             42,
	}

	// Runs are deterministic for a fixed seed, so truncating at k
	// iterations inspects the state after iteration k of one trajectory.
	for k := 1; k <= 6; k++ {
		p := base.Clone()
		p.MaxIterations = k
		res := mustSolve(t, p)

		for d, out := range res.Defenders {
			if math.Abs(sumOf(out.Allocation)-p.DefenderBudgets[d]) > 1e-9 {
				t.Fatalf("after %d iterations defender %d sums to %v, want %v", k, d, sumOf(out.Allocation), p.DefenderBudgets[d])
			}
			for i, v := range out.Allocation {
				if v < 0 {
					t.Fatalf("after %d iterations defender %d allocation[%d] = %v, want >= 0", k, d, i, v)
				}
			}
		}
		for a, out := range res.Attackers {
			if math.Abs(sumOf(out.Allocation)-p.AttackerBudgets[a]) > 1e-9 {
				t.Fatalf("after %d iterations attacker %d sums to %v, want %v", k, a, sumOf(out.Allocation), p.AttackerBudgets[a])
			}
			for i, v := range out.Allocation {
				if v < 0 {
					t.Fatalf("after %d iterations attacker %d allocation[%d] = %v, want >= 0", k, a, i, v)
				}
			}
		}
	}
}

func TestConvergenceReporting(t *testing.T) {
	res := mustSolve(t, referenceParams())
	if !res.Converged {
		t.Fatalf("reference scenario did not converge")
	}
	if len(res.ConvergenceHistory) != res.Iterations {
		t.Fatalf("history length %d != iterations %d", len(res.ConvergenceHistory), res.Iterations)
	}
	last := res.ConvergenceHistory[len(res.ConvergenceHistory)-1]
	if last.MaxChange >= 1e-3 {
		t.Fatalf("converged but final maxChange %v >= epsilon", last.MaxChange)
	}
	if last.MaxChange != res.MaxChange {
		t.Fatalf("result MaxChange %v != final record %v", res.MaxChange, last.MaxChange)
	}
	// The loop stops the moment the threshold is crossed, so every earlier
	// record must still be at or above epsilon.
	for _, rec := range res.ConvergenceHistory[:len(res.ConvergenceHistory)-1] {
		if rec.MaxChange < 1e-3 {
			t.Fatalf("iteration %d maxChange %v < epsilon but loop continued", rec.Iteration, rec.MaxChange)
		}
	}
}

func TestExhaustionIsNotAnError(t *testing.T) {
	// A top-1 jammer slamming one of two equal channels guarantees the
	// first iteration moves more than epsilon.
	p := &model.Parameters{
		NumChannels: 2,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
		},
		DefenderGains:    [][]float64{{1, 1}},
		AttackerGains:    [][]float64{{1, 1}},
		DefenderBudgets:  []float64{10},
		AttackerBudgets:  []float64{10},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
		Damping:          0.3,
		Epsilon:          1e-3,
		MaxIterations:    1,
		JammerStrategy:   model.StrategyTopK,
		TopK:             1,
		JammerObjective:  model.ObjectiveDeception,
		AttackerMode:     model.ModeCoordinated,
	}
	res := mustSolve(t, p)
	if res.Converged {
		t.Fatalf("Converged = true after one lopsided iteration, want exhausted")
	}
	if res.Iterations != 1 {
		t.Fatalf("Iterations = %d, want 1", res.Iterations)
	}
	if res.MaxChange < 1e-3 {
		t.Fatalf("MaxChange = %v, want >= epsilon for an exhausted run", res.MaxChange)
	}
}

func TestDecoysNeverContributeThroughput(t *testing.T) {
	res := mustSolve(t, referenceParams())

	var realRates float64
	for _, ch := range res.ChannelSummary {
		if ch.Type == model.ChannelDecoy {
			if ch.Rate != 0 {
				t.Fatalf("decoy channel %d carries rate %v, want 0", ch.Index, ch.Rate)
			}
			continue
		}
		realRates += ch.Rate
	}
	if math.Abs(realRates-res.Metrics.TotalRealThroughput) > 1e-9 {
		t.Fatalf("sum of real rates %v != TotalRealThroughput %v", realRates, res.Metrics.TotalRealThroughput)
	}
}

func TestUniformStrategyIgnoresAttackerMode(t *testing.T) {
	coord := mustSolve(t, referenceParams())

	indep := referenceParams()
	indep.AttackerMode = model.ModeIndependent
	other := mustSolve(t, indep)

	if !reflect.DeepEqual(coord.Attackers, other.Attackers) {
		t.Fatalf("attacker mode changed uniform-strategy allocations; independence must only matter under the gradient strategy")
	}
	if !reflect.DeepEqual(coord.Defenders, other.Defenders) {
		t.Fatalf("attacker mode changed defender trajectories under the uniform strategy")
	}
}

func TestTopKCoveringAllChannelsMatchesUniform(t *testing.T) {
	// All-real flat-gain game: every score ties, so a K covering the whole
	// eligible set must reduce to the uniform split.
	uniform := referenceParams()
	uniform.Channels[2].Type = model.ChannelReal
	uniform.Channels[3].Type = model.ChannelReal
	uniRes := mustSolve(t, uniform)

	topK := referenceParams()
	topK.Channels[2].Type = model.ChannelReal
	topK.Channels[3].Type = model.ChannelReal
	topK.JammerStrategy = model.StrategyTopK
	topK.TopK = 10
	topRes := mustSolve(t, topK)

	for i := range uniRes.Attackers[0].Allocation {
		got := topRes.Attackers[0].Allocation[i]
		want := uniRes.Attackers[0].Allocation[i]
		if math.Abs(got-want) > 1e-9 {
			t.Fatalf("topK(10) allocation[%d] = %v, uniform = %v; want identical", i, got, want)
		}
	}
}

func TestGradientStrategiesKeepBudgets(t *testing.T) {
	for _, mode := range []model.AttackerMode{model.ModeCoordinated, model.ModeIndependent} {
		p := referenceParams()
		p.JammerStrategy = model.StrategyGradient
		p.AttackerMode = mode
		res := mustSolve(t, p)

		if math.Abs(sumOf(res.Attackers[0].Allocation)-10) > 1e-9 {
			t.Fatalf("mode %s: attacker budget sum = %v, want 10", mode, sumOf(res.Attackers[0].Allocation))
		}
		if math.Abs(sumOf(res.Defenders[0].Allocation)-10) > 1e-9 {
			t.Fatalf("mode %s: defender budget sum = %v, want 10", mode, sumOf(res.Defenders[0].Allocation))
		}
	}
}

func TestSeededRandomInitIsReproducible(t *testing.T) {
	p := referenceParams()
	p.RandomInit = true
	p.Seed = 1234

	first := mustSolve(t, p)
	second := mustSolve(t, p)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("two runs with the same seed disagreed")
	}
}

func TestValidationFailsBeforeIterating(t *testing.T) {
	p := referenceParams()
	p.NoiseFloor = 0

	res, err := Solve(context.Background(), p)
	if err == nil {
		t.Fatalf("Solve(sigma2=0) err = nil, want validation error")
	}
	if !errors.Is(err, model.ErrInvalidParameters) {
		t.Fatalf("Solve(sigma2=0) err = %v, want ErrInvalidParameters", err)
	}
	if res != nil {
		t.Fatalf("Solve returned a partial result alongside a validation error")
	}
}

func TestCancelledContextAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Solve(ctx, referenceParams())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Solve(cancelled ctx) err = %v, want context.Canceled", err)
	}
	if res != nil {
		t.Fatalf("Solve returned a result after cancellation")
	}
}
