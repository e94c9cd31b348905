package game

import (
	"math/rand"
	"testing"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

func TestDeterministicInit_DecoysToTauThenGainWeighted(t *testing.T) {
	m := newRunModel(&model.Parameters{
		NumChannels: 4,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
			{Type: model.ChannelInactive, Owner: 0},
		},
		DefenderGains:    [][]float64{{3, 1, 1, 1}},
		AttackerGains:    [][]float64{{1, 1, 1, 1}},
		DefenderBudgets:  []float64{10},
		AttackerBudgets:  []float64{1},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
	})

	x := initialDefenders(m, false, nil)

	// Decoy takes tau; the 9.8 remainder splits 3:1 across the reals.
	if !almostEqual(x[0][2], 0.2, 1e-9) {
		t.Fatalf("decoy start = %v, want tau", x[0][2])
	}
	if !almostEqual(x[0][0], 7.35, 1e-9) || !almostEqual(x[0][1], 2.45, 1e-9) {
		t.Fatalf("real starts = %v/%v, want 7.35/2.45", x[0][0], x[0][1])
	}
	if x[0][3] != 0 {
		t.Fatalf("inactive-type start = %v, want 0", x[0][3])
	}
	if !almostEqual(sumOf(x[0]), 10, 1e-9) {
		t.Fatalf("row sums to %v, want the budget", sumOf(x[0]))
	}
}

func TestDeterministicInit_ScalesDecoysWhenBudgetShort(t *testing.T) {
	m := newRunModel(&model.Parameters{
		NumChannels: 3,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
		},
		DefenderGains:    [][]float64{{1, 1, 1}},
		AttackerGains:    [][]float64{{1, 1, 1}},
		DefenderBudgets:  []float64{0.3},
		AttackerBudgets:  []float64{1},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
	})

	x := initialDefenders(m, false, nil)

	// Two decoys want 0.4 out of 0.3: each gets 0.15, the real gets nothing.
	if !almostEqual(x[0][1], 0.15, 1e-9) || !almostEqual(x[0][2], 0.15, 1e-9) {
		t.Fatalf("decoy starts = %v/%v, want 0.15 each", x[0][1], x[0][2])
	}
	if x[0][0] != 0 {
		t.Fatalf("real start = %v, want 0 once decoys exhaust the budget", x[0][0])
	}
}

func TestDeterministicInit_FlatFallbackWhenGainsVanish(t *testing.T) {
	m := newRunModel(&model.Parameters{
		NumChannels: 3,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
		},
		DefenderGains:    [][]float64{{0, 0, 0}},
		AttackerGains:    [][]float64{{1, 1, 1}},
		DefenderBudgets:  []float64{5},
		AttackerBudgets:  []float64{1},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
	})

	x := initialDefenders(m, false, nil)
	if !almostEqual(x[0][0], 2.4, 1e-9) || !almostEqual(x[0][1], 2.4, 1e-9) {
		t.Fatalf("real starts = %v/%v, want an even 2.4 split", x[0][0], x[0][1])
	}
}

func TestRandomInit_SeededAndOnBudget(t *testing.T) {
	m := newRunModel(&model.Parameters{
		NumChannels: 4,
		Channels: []model.ChannelConfig{
			{Type: model.ChannelReal, Owner: 0},
			{Type: model.ChannelDecoy, Owner: 0},
			{Type: model.ChannelInactive, Owner: 0},
			{Type: model.ChannelReal, Owner: 1},
		},
		DefenderGains:    [][]float64{{1, 1, 1, 1}, {1, 1, 1, 1}},
		AttackerGains:    [][]float64{{1, 1, 1, 1}},
		DefenderBudgets:  []float64{10, 4},
		AttackerBudgets:  []float64{1},
		NoiseFloor:       1,
		SensingThreshold: 0.2,
	})

	first := initialDefenders(m, true, rand.New(rand.NewSource(7)))
	second := initialDefenders(m, true, rand.New(rand.NewSource(7)))

	for d := range first {
		if !almostEqual(sumOf(first[d]), m.pt[d], 1e-9) {
			t.Fatalf("defender %d row sums to %v, want %v", d, sumOf(first[d]), m.pt[d])
		}
		for i := range first[d] {
			if first[d][i] < 0 {
				t.Fatalf("defender %d start[%d] = %v, want >= 0", d, i, first[d][i])
			}
			if first[d][i] != second[d][i] {
				t.Fatalf("same seed produced different starts at [%d][%d]", d, i)
			}
		}
	}
	// The inactive-type channel never receives random weight.
	if first[0][2] != 0 {
		t.Fatalf("inactive-type start = %v, want 0", first[0][2])
	}

	other := initialDefenders(m, true, rand.New(rand.NewSource(8)))
	same := true
	for d := range first {
		for i := range first[d] {
			if first[d][i] != other[d][i] {
				same = false
			}
		}
	}
	if same {
		t.Fatalf("different seeds produced identical starts")
	}
}
