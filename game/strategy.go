package game

import (
	"sort"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// jammerPolicy produces one attacker's proposed allocation row from the
// joint state. The row sums to the attacker's budget whenever at least one
// channel is eligible; with nothing eligible the attacker allocates nothing
// and damping decays its previous row.
//
// The policies form a closed set selected once per run; the iteration loop
// itself stays strategy-agnostic.
type jammerPolicy interface {
	candidate(m *runModel, a int, x, y [][]float64, eligible []int) []float64
}

func policyFor(p *model.Parameters) jammerPolicy {
	switch p.JammerStrategy {
	case model.StrategyTopK:
		return topKPolicy{k: p.TopK}
	case model.StrategyGradient:
		return gradientPolicy{independent: p.AttackerMode == model.ModeIndependent}
	default:
		return uniformPolicy{}
	}
}

// uniformPolicy spreads the budget equally over every eligible channel.
type uniformPolicy struct{}

func (uniformPolicy) candidate(m *runModel, a int, _, _ [][]float64, eligible []int) []float64 {
	row := make([]float64, m.n)
	if len(eligible) == 0 {
		return row
	}
	share := m.pj[a] / float64(len(eligible))
	for _, i := range eligible {
		row[i] = share
	}
	return row
}

// topKPolicy concentrates the budget on the K highest-value eligible
// channels, proportional to perceived value x_owner*g. Equal split when all
// scores are zero.
type topKPolicy struct {
	k int
}

func (p topKPolicy) candidate(m *runModel, a int, x, _ [][]float64, eligible []int) []float64 {
	row := make([]float64, m.n)
	if len(eligible) == 0 {
		return row
	}

	type scoredChannel struct {
		idx   int
		score float64
	}
	scored := make([]scoredChannel, len(eligible))
	for j, i := range eligible {
		scored[j] = scoredChannel{idx: i, score: x[m.owners[i]][i] * m.g[a][i]}
	}
	// Stable keeps ties in channel-index order so runs stay deterministic.
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	k := p.k
	if k > len(scored) {
		k = len(scored)
	}
	selected := scored[:k]

	var total float64
	for _, s := range selected {
		total += s.score
	}
	if total <= 0 {
		share := m.pj[a] / float64(k)
		for _, s := range selected {
			row[s.idx] = share
		}
		return row
	}
	for _, s := range selected {
		row[s.idx] = m.pj[a] * s.score / total
	}
	return row
}

// gradientPolicy follows the attacker's utility gradient. Coordinated
// attackers allocate proportional to the non-negative gradient components
// (uniform fallback when the gradient vanishes). An independent attacker
// instead ascends from its own previous row and projects — the one place
// attackerMode changes behaviour, kept as a deliberate special case.
type gradientPolicy struct {
	independent bool
}

func (p gradientPolicy) candidate(m *runModel, a int, x, y [][]float64, eligible []int) []float64 {
	row := make([]float64, m.n)
	if len(eligible) == 0 {
		return row
	}

	grad := make([]float64, m.n)
	m.attackerGradient(a, x, y, eligible, grad)

	if p.independent {
		for i := range row {
			row[i] = y[a][i] + ascentStep*grad[i]
		}
		return projectToBudget(row, m.pj[a])
	}

	var total float64
	for _, i := range eligible {
		if grad[i] > 0 {
			total += grad[i]
		}
	}
	if total <= 0 {
		share := m.pj[a] / float64(len(eligible))
		for _, i := range eligible {
			row[i] = share
		}
		return row
	}
	for _, i := range eligible {
		if grad[i] > 0 {
			row[i] = m.pj[a] * grad[i] / total
		}
	}
	return row
}
