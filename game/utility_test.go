package game

import (
	"math"
	"testing"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestInterference_SumsWeightedAttackerPower(t *testing.T) {
	m := mixedModel()
	y := [][]float64{{2, 0, 0}, {4, 2, 0}}

	// sigma2 + 2*0.5 + 4*1 on channel 0.
	if got := m.interference(y, 0); !almostEqual(got, 6, 1e-12) {
		t.Errorf("interference(ch0) = %v, want 6", got)
	}
	// sigma2 + 0*1 + 2*0.5 on channel 1.
	if got := m.interference(y, 1); !almostEqual(got, 2, 1e-12) {
		t.Errorf("interference(ch1) = %v, want 2", got)
	}
	// Untouched channel collapses to the noise floor.
	if got := m.interference(y, 2); !almostEqual(got, 1, 1e-12) {
		t.Errorf("interference(ch2) = %v, want sigma2", got)
	}
}

func TestSINR_ZeroWithoutOwnerPower(t *testing.T) {
	m := mixedModel()
	x := [][]float64{{3, 0, 0}}
	y := [][]float64{{2, 0, 0}, {4, 0, 0}}

	// 3*2 over interference 6.
	if got := m.sinr(x, y, 0); !almostEqual(got, 1, 1e-12) {
		t.Errorf("sinr(ch0) = %v, want 1", got)
	}
	if got := m.sinr(x, y, 1); got != 0 {
		t.Errorf("sinr(unfunded ch1) = %v, want 0", got)
	}
}

func TestDefenderUtility_Scopes(t *testing.T) {
	m := mixedModel()
	x := [][]float64{{3, 0.5, 0}}
	y := [][]float64{{2, 0, 0}, {4, 0, 0}}
	active := []bool{true, true, false}

	// Real channel: SINR 1. Decoy: 0.5*1 over noise floor 1 = 0.5.
	real := math.Log(2)
	withDecoy := math.Log(2) + math.Log(1.5)

	if got := m.defenderUtility(0, x, y, scopeRealOnly, active); !almostEqual(got, real, 1e-12) {
		t.Errorf("realOnly utility = %v, want %v", got, real)
	}
	if got := m.defenderUtility(0, x, y, scopeActiveAny, active); !almostEqual(got, withDecoy, 1e-12) {
		t.Errorf("activeAny utility = %v, want %v", got, withDecoy)
	}

	// A real channel that drops out of the active set still counts toward
	// the defender's own objective.
	if got := m.defenderUtility(0, x, y, scopeRealOnly, []bool{false, false, false}); !almostEqual(got, real, 1e-12) {
		t.Errorf("realOnly utility with empty active set = %v, want %v", got, real)
	}
}

func TestAttackerUtility_ObjectiveScopes(t *testing.T) {
	m := mixedModel()
	x := [][]float64{{3, 0.5, 0}}
	y := [][]float64{{2, 0, 0}, {4, 0, 0}}
	active := []bool{true, true, false}

	oracle := m.attackerUtility(x, y, model.ObjectiveOracle, active)
	if want := -math.Log(2); !almostEqual(oracle, want, 1e-12) {
		t.Errorf("oracle utility = %v, want %v", oracle, want)
	}

	// The deceived attacker also pays to suppress the visible decoy, so its
	// perceived objective is strictly more negative here.
	deceived := m.attackerUtility(x, y, model.ObjectiveDeception, active)
	if want := -(math.Log(2) + math.Log(1.5)); !almostEqual(deceived, want, 1e-12) {
		t.Errorf("deception utility = %v, want %v", deceived, want)
	}
}

func TestDefenderGradient_PerChannelRules(t *testing.T) {
	m := mixedModel()
	y := [][]float64{{2, 0, 0}, {4, 0, 0}}
	grad := make([]float64, m.n)

	// Decoy funded at/above tau: weak hold gradient.
	m.defenderGradient(0, [][]float64{{3, 0.5, 0}}, y, grad)
	if want := 2.0 / (6 + 3*2); !almostEqual(grad[0], want, 1e-12) {
		t.Errorf("real gradient = %v, want %v", grad[0], want)
	}
	if grad[1] != decoyGradActive {
		t.Errorf("visible decoy gradient = %v, want %v", grad[1], decoyGradActive)
	}
	if grad[2] != 0 {
		t.Errorf("inactive-type gradient = %v, want 0", grad[2])
	}

	// Decoy below tau: the stronger funding pull.
	m.defenderGradient(0, [][]float64{{3, 0.1, 0}}, y, grad)
	if grad[1] != decoyGradBelowTau {
		t.Errorf("starved decoy gradient = %v, want %v", grad[1], decoyGradBelowTau)
	}
}

func TestAttackerGradient_EligibleOnly(t *testing.T) {
	m := mixedModel()
	x := [][]float64{{3, 0.5, 0}}
	y := [][]float64{{2, 0, 0}, {4, 0, 0}}
	grad := make([]float64, m.n)

	m.attackerGradient(0, x, y, []int{0, 1}, grad)
	// Channel 0: signal 6, interference 6, gain 0.5.
	if want := 6 * 0.5 / (6 * (6 + 6)); !almostEqual(grad[0], want, 1e-12) {
		t.Errorf("grad[0] = %v, want %v", grad[0], want)
	}
	// Channel 1: signal 0.5, interference 1, gain 1.
	if want := 0.5 / (1 * 1.5); !almostEqual(grad[1], want, 1e-12) {
		t.Errorf("grad[1] = %v, want %v", grad[1], want)
	}
	if grad[2] != 0 {
		t.Errorf("grad outside eligible set = %v, want 0", grad[2])
	}

	// Restricting eligibility zeroes the excluded component even though the
	// channel still carries power.
	m.attackerGradient(0, x, y, []int{1}, grad)
	if grad[0] != 0 {
		t.Errorf("grad[0] with ch0 ineligible = %v, want 0", grad[0])
	}

	// No signal means nothing to suppress.
	m.attackerGradient(0, [][]float64{{0, 0.5, 0}}, y, []int{0, 1}, grad)
	if grad[0] != 0 {
		t.Errorf("grad[0] with zero owner power = %v, want 0", grad[0])
	}
}
