package game

import (
	"math/rand"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// initialDefenders builds the starting allocation matrix. The deterministic
// rule funds each owned decoy to tau and splits the remainder across owned
// real channels proportional to gain (uniform when gains are flat); the
// random rule draws a weighted split from the seeded source. Every row ends
// projected so it sums exactly to its budget.
func initialDefenders(m *runModel, randomInit bool, rng *rand.Rand) [][]float64 {
	x := make([][]float64, m.numDefenders())
	for d := range x {
		x[d] = make([]float64, m.n)
		if randomInit {
			randomRow(m, d, x[d], rng)
		} else {
			deterministicRow(m, d, x[d])
		}
		projectSubset(x[d], m.owned[d], m.pt[d])
	}
	return x
}

func deterministicRow(m *runModel, d int, row []float64) {
	budget := m.pt[d]
	var reals, decoys []int
	for _, i := range m.owned[d] {
		switch m.types[i] {
		case model.ChannelReal:
			reals = append(reals, i)
		case model.ChannelDecoy:
			decoys = append(decoys, i)
		}
	}

	// Decoys first: each gets tau, scaled down when the budget cannot
	// cover all of them.
	fund := m.tau
	if need := m.tau * float64(len(decoys)); need > budget && len(decoys) > 0 {
		fund = budget / float64(len(decoys))
	}
	for _, i := range decoys {
		row[i] = fund
	}

	remainder := budget - fund*float64(len(decoys))
	if remainder <= 0 || len(reals) == 0 {
		return
	}
	var weightSum float64
	for _, i := range reals {
		weightSum += m.h[d][i]
	}
	if weightSum <= 0 {
		share := remainder / float64(len(reals))
		for _, i := range reals {
			row[i] = share
		}
		return
	}
	for _, i := range reals {
		row[i] = remainder * m.h[d][i] / weightSum
	}
}

// randomRow assigns a positive pseudo-random weight to every activatable
// owned channel; the caller's projection turns the weights into a budget
// split. Inactive-type channels stay unfunded, matching the deterministic
// rule.
func randomRow(m *runModel, d int, row []float64, rng *rand.Rand) {
	for _, i := range m.owned[d] {
		if m.types[i] == model.ChannelInactive {
			continue
		}
		row[i] = rng.Float64()
	}
}
