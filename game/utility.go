package game

import (
	"math"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// Fixed ascent step shared by defender updates and independent gradient
// attackers, and the two constant decoy gradients: a stronger pull while a
// decoy sits below the sensing threshold, a weak hold once it is visible.
// Decoys have no rate objective; these constants exist only to keep them
// minimally funded near tau.
const (
	ascentStep        = 1.0
	decoyGradBelowTau = 0.05
	decoyGradActive   = 0.006
)

// utilityScope restricts which owned channels count toward a defender's
// utility.
type utilityScope int

const (
	// scopeRealOnly counts real channels regardless of activation.
	scopeRealOnly utilityScope = iota
	// scopeActiveAny counts currently active channels of any type; this is
	// what a deceived attacker believes it is suppressing.
	scopeActiveAny
)

// interference is sigma^2 plus the attacker power landing on channel i,
// weighted by each attacker's gain. Strictly positive because sigma^2 > 0.
func (m *runModel) interference(y [][]float64, i int) float64 {
	total := m.sigma2
	for a := range m.g {
		total += y[a][i] * m.g[a][i]
	}
	return total
}

// sinr is the owner's signal over interference-plus-noise on channel i, or
// zero when the owner parks no power there.
func (m *runModel) sinr(x, y [][]float64, i int) float64 {
	p := x[m.owners[i]][i]
	if p <= 0 {
		return 0
	}
	return p * m.h[m.owners[i]][i] / m.interference(y, i)
}

// defenderUtility sums log(1+SINR) over defender d's owned channels that
// fall inside the requested scope.
func (m *runModel) defenderUtility(d int, x, y [][]float64, scope utilityScope, active []bool) float64 {
	var u float64
	for _, i := range m.owned[d] {
		switch scope {
		case scopeRealOnly:
			if m.types[i] != model.ChannelReal {
				continue
			}
		case scopeActiveAny:
			if !active[i] {
				continue
			}
		}
		if s := m.sinr(x, y, i); s > 0 {
			u += math.Log(1 + s)
		}
	}
	return u
}

// attackerUtility is shared by every attacker: the negative of the summed
// defender utility over the channels the objective can see. An oracle
// attacker scores only real channels; a deceived attacker scores every
// active channel and therefore pays for suppressing decoys.
func (m *runModel) attackerUtility(x, y [][]float64, objective model.JammerObjective, active []bool) float64 {
	scope := scopeActiveAny
	if objective == model.ObjectiveOracle {
		scope = scopeRealOnly
	}
	var total float64
	for d := range m.owned {
		total += m.defenderUtility(d, x, y, scope, active)
	}
	return -total
}

// defenderGradient fills grad with d(utility)/dx for defender d. Real
// channels follow the log-SINR derivative; decoys get the constant funding
// gradients; inactive-type channels stay at zero so projection drains them.
func (m *runModel) defenderGradient(d int, x, y [][]float64, grad []float64) {
	for i := range grad {
		grad[i] = 0
	}
	for _, i := range m.owned[d] {
		switch m.types[i] {
		case model.ChannelReal:
			inter := m.interference(y, i)
			grad[i] = m.h[d][i] / (inter + x[d][i]*m.h[d][i])
		case model.ChannelDecoy:
			if x[d][i] < m.tau {
				grad[i] = decoyGradBelowTau
			} else {
				grad[i] = decoyGradActive
			}
		}
	}
}

// attackerGradient fills grad with d(-defender utility)/dy for attacker a
// over the eligible channels; everything else stays zero.
func (m *runModel) attackerGradient(a int, x, y [][]float64, eligible []int, grad []float64) {
	for i := range grad {
		grad[i] = 0
	}
	for _, i := range eligible {
		sig := x[m.owners[i]][i] * m.h[m.owners[i]][i]
		if sig <= 0 {
			continue
		}
		inter := m.interference(y, i)
		grad[i] = sig * m.g[a][i] / (inter * (inter + sig))
	}
}
