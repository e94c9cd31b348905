package game

import (
	"math"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// buildResult assembles the terminal state into the caller-facing result:
// per-player outcomes, the per-channel table, and headline metrics.
func buildResult(m *runModel, p *model.Parameters, x, y [][]float64, active []bool, history []model.IterationRecord, iterations int, converged bool, maxChange float64) *model.Result {
	res := &model.Result{
		Converged:          converged,
		Iterations:         iterations,
		MaxChange:          maxChange,
		ConvergenceHistory: history,
	}

	res.Defenders = make([]model.PlayerOutcome, m.numDefenders())
	for d := range res.Defenders {
		res.Defenders[d] = model.PlayerOutcome{
			PlayerID:   d,
			Allocation: append([]float64(nil), x[d]...),
			Utility:    m.defenderUtility(d, x, y, scopeRealOnly, active),
		}
	}
	res.Attackers = make([]model.PlayerOutcome, m.numAttackers())
	if m.numAttackers() > 0 {
		objective := m.attackerUtility(x, y, p.JammerObjective, active)
		for a := range res.Attackers {
			res.Attackers[a] = model.PlayerOutcome{
				PlayerID:   a,
				Allocation: append([]float64(nil), y[a]...),
				Utility:    objective,
			}
		}
	}

	res.ChannelSummary = buildChannelSummary(m, x, y, active)
	res.Metrics = buildMetrics(m, p, x, y, active, res.ChannelSummary)
	return res
}

func buildChannelSummary(m *runModel, x, y [][]float64, active []bool) []model.ChannelSummary {
	rows := make([]model.ChannelSummary, m.n)
	for i := 0; i < m.n; i++ {
		owner := m.owners[i]

		var attackerPower float64
		for a := range y {
			attackerPower += y[a][i]
		}
		var meanGain float64
		if m.numAttackers() > 0 {
			for a := range m.g {
				meanGain += m.g[a][i]
			}
			meanGain /= float64(m.numAttackers())
		}

		sinr := m.sinr(x, y, i)
		rate := 0.0
		// Only real channels earn a rate; decoys mimic traffic without
		// carrying any.
		if m.types[i] == model.ChannelReal && sinr > 0 {
			rate = math.Log2(1 + sinr)
		}

		rows[i] = model.ChannelSummary{
			Index:         i,
			Owner:         owner,
			Type:          m.types[i],
			DefenderPower: x[owner][i],
			AttackerPower: attackerPower,
			SINR:          sinr,
			Rate:          rate,
			GainDefender:  m.h[owner][i],
			GainAttacker:  meanGain,
			Active:        active[i],
		}
	}
	return rows
}

func buildMetrics(m *runModel, p *model.Parameters, x, y [][]float64, active []bool, summary []model.ChannelSummary) model.Metrics {
	var met model.Metrics

	activeCount := 0
	for i := range summary {
		met.TotalRealThroughput += summary[i].Rate
		if m.types[i] == model.ChannelDecoy {
			met.TotalDecoyPower += summary[i].DefenderPower
		}
		if active[i] {
			activeCount++
		}
	}

	var wasted, totalJam float64
	for a := range y {
		for i, v := range y[a] {
			totalJam += v
			if m.types[i] == model.ChannelDecoy {
				wasted += v
			}
		}
	}
	if totalJam > 0 {
		met.JammerWasteOnDecoys = wasted / totalJam
	}
	if m.realCount > 0 {
		met.DilutionFactor = float64(activeCount) / float64(m.realCount)
	}
	met.SymmetricEquilibrium = symmetricAllocations(x, 10*p.Epsilon)
	return met
}

// symmetricAllocations reports whether every defender row sits within tol L1
// distance of defender 0's row. It flags degenerate outcomes; with a single
// defender it is trivially true.
func symmetricAllocations(x [][]float64, tol float64) bool {
	for d := 1; d < len(x); d++ {
		var dist float64
		for i := range x[d] {
			dist += math.Abs(x[d][i] - x[0][i])
		}
		if dist >= tol {
			return false
		}
	}
	return true
}
