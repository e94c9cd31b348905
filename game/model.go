package game

import (
	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// runModel is the immutable per-run view of the game: channel roles,
// ownership, gain matrices, budgets, and thresholds. It is compiled once
// from validated parameters and never mutated; all per-iteration state lives
// in the solver's allocation matrices.
type runModel struct {
	n      int
	types  []model.ChannelType
	owners []int

	h [][]float64 // defender gains, one row per defender
	g [][]float64 // attacker gains, one row per attacker

	pt []float64
	pj []float64

	sigma2 float64
	tau    float64

	// owned[d] lists the channel indexes defender d transmits on; a
	// defender only ever allocates within its own channels.
	owned     [][]int
	realCount int
}

func newRunModel(p *model.Parameters) *runModel {
	m := &runModel{
		n:      p.NumChannels,
		types:  make([]model.ChannelType, p.NumChannels),
		owners: make([]int, p.NumChannels),
		h:      p.DefenderGains,
		g:      p.AttackerGains,
		pt:     p.DefenderBudgets,
		pj:     p.AttackerBudgets,
		sigma2: p.NoiseFloor,
		tau:    p.SensingThreshold,
		owned:  make([][]int, p.NumDefenders()),
	}
	for i, ch := range p.Channels {
		m.types[i] = ch.Type
		m.owners[i] = ch.Owner
		m.owned[ch.Owner] = append(m.owned[ch.Owner], i)
		if ch.Type == model.ChannelReal {
			m.realCount++
		}
	}
	return m
}

func (m *runModel) numDefenders() int { return len(m.pt) }
func (m *runModel) numAttackers() int { return len(m.pj) }

// fillActiveSet marks each channel active when its type allows activation
// and its owner currently funds it at or above the sensing threshold. Pure
// in the current defender allocation: the mask is rebuilt from scratch every
// iteration with no hysteresis.
func (m *runModel) fillActiveSet(x [][]float64, active []bool) int {
	count := 0
	for i := 0; i < m.n; i++ {
		active[i] = m.types[i] != model.ChannelInactive && x[m.owners[i]][i] >= m.tau
		if active[i] {
			count++
		}
	}
	return count
}

// eligibleChannels lists the channels an attacker may target: the active
// set, narrowed to real channels when the attacker can tell decoys apart.
func (m *runModel) eligibleChannels(active []bool, objective model.JammerObjective) []int {
	eligible := make([]int, 0, m.n)
	for i := 0; i < m.n; i++ {
		if !active[i] {
			continue
		}
		if objective == model.ObjectiveOracle && m.types[i] != model.ChannelReal {
			continue
		}
		eligible = append(eligible, i)
	}
	return eligible
}
