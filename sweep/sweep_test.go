package sweep

import (
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

func TestLoadSpecFromYAML(t *testing.T) {
	yamlData := `
name: decoy-ladder
seed: 100
workers: 3
base:
  channels: 8
  defenders: 2
  attackers: 2
  defenderBudget: 10
  attackerBudget: 12.5
  tau: 0.25
  gains:
    mode: random
    min: 0.5
    max: 1.5
    seed: 7
axes:
  decoys: [0, 1, 2]
  objectives: [oracle, deception]
`
	spec, err := Load(strings.NewReader(yamlData))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if spec.Name != "decoy-ladder" || spec.Seed != 100 || spec.Workers != 3 {
		t.Errorf("spec header = %q/%d/%d", spec.Name, spec.Seed, spec.Workers)
	}
	if spec.Base.Channels != 8 || spec.Base.AttackerBudget != 12.5 {
		t.Errorf("base = %d channels, attacker budget %v", spec.Base.Channels, spec.Base.AttackerBudget)
	}
	if spec.Base.SensingThreshold == nil || *spec.Base.SensingThreshold != 0.25 {
		t.Errorf("base tau = %v, want pointer to 0.25", spec.Base.SensingThreshold)
	}
	if spec.Base.Gains.Mode != "random" || spec.Base.Gains.Seed != 7 {
		t.Errorf("base gains = %+v", spec.Base.Gains)
	}
	if len(spec.Axes.Decoys) != 3 || len(spec.Axes.Objectives) != 2 {
		t.Errorf("axes = %+v", spec.Axes)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	if _, err := Load(strings.NewReader(":\n  - not valid yaml")); err == nil {
		t.Fatalf("Load accepted malformed YAML")
	}
}

func baseSpec() *Spec {
	spec := &Spec{}
	spec.Base.Channels = 4
	spec.Base.Defenders = 1
	spec.Base.Attackers = 1
	spec.Base.DefenderBudget = 10
	spec.Base.AttackerBudget = 10
	return spec
}

func TestCasesCartesianOrderLastAxisFastest(t *testing.T) {
	spec := baseSpec()
	spec.Axes.Decoys = []int{0, 2}
	spec.Axes.Objectives = []string{"deception", "oracle"}

	cases, err := spec.Cases()
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	if len(cases) != 4 {
		t.Fatalf("len(cases) = %d, want 4", len(cases))
	}

	want := []struct {
		decoys    int
		objective model.JammerObjective
	}{
		{0, model.ObjectiveDeception},
		{0, model.ObjectiveOracle},
		{2, model.ObjectiveDeception},
		{2, model.ObjectiveOracle},
	}
	for i, c := range cases {
		if c.Index != i {
			t.Errorf("case %d index = %d", i, c.Index)
		}
		if c.Doc.Decoys != want[i].decoys || c.Doc.JammerObjective != want[i].objective {
			t.Errorf("case %d = decoys %d objective %q, want %d/%q",
				i, c.Doc.Decoys, c.Doc.JammerObjective, want[i].decoys, want[i].objective)
		}
		if c.Doc.Channels != 4 || c.Doc.DefenderBudget != 10 {
			t.Errorf("case %d lost base fields: %+v", i, c.Doc)
		}
		wantLabels := []Label{
			{Axis: "decoys", Value: strconv.Itoa(want[i].decoys)},
			{Axis: "objective", Value: string(want[i].objective)},
		}
		if len(c.Labels) != 2 || c.Labels[0] != wantLabels[0] || c.Labels[1] != wantLabels[1] {
			t.Errorf("case %d labels = %v, want %v", i, c.Labels, wantLabels)
		}
	}
}

func TestCasesNoAxesRunsBaseOnce(t *testing.T) {
	spec := baseSpec()
	cases, err := spec.Cases()
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	if len(cases) != 1 {
		t.Fatalf("len(cases) = %d, want 1", len(cases))
	}
	if len(cases[0].Labels) != 0 {
		t.Errorf("labels = %v, want none", cases[0].Labels)
	}
	if cases[0].Doc.Channels != 4 {
		t.Errorf("base document not carried: %+v", cases[0].Doc)
	}
}

func TestCasesDeriveSeedsFromSpecSeed(t *testing.T) {
	spec := baseSpec()
	spec.Base.Seed = 99
	spec.Seed = 1000
	spec.Axes.Decoys = []int{0, 1, 2}

	cases, err := spec.Cases()
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	for i, c := range cases {
		if want := int64(1000 + i); c.Doc.Seed != want {
			t.Errorf("case %d seed = %d, want %d", i, c.Doc.Seed, want)
		}
	}

	// Without a spec seed the base seed rides along unchanged.
	spec.Seed = 0
	cases, err = spec.Cases()
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	for i, c := range cases {
		if c.Doc.Seed != 99 {
			t.Errorf("case %d seed = %d, want base seed 99", i, c.Doc.Seed)
		}
	}
}

func TestCasesThresholdAxisKeepsExplicitZero(t *testing.T) {
	spec := baseSpec()
	spec.Axes.Thresholds = []float64{0, 0.4}

	cases, err := spec.Cases()
	if err != nil {
		t.Fatalf("Cases: %v", err)
	}
	if cases[0].Doc.SensingThreshold == nil || *cases[0].Doc.SensingThreshold != 0 {
		t.Errorf("case 0 tau = %v, want pointer to 0", cases[0].Doc.SensingThreshold)
	}
	if cases[1].Doc.SensingThreshold == nil || *cases[1].Doc.SensingThreshold != 0.4 {
		t.Errorf("case 1 tau = %v, want pointer to 0.4", cases[1].Doc.SensingThreshold)
	}
	if cases[0].Labels[0] != (Label{Axis: "tau", Value: "0"}) {
		t.Errorf("case 0 label = %v", cases[0].Labels[0])
	}
}

func TestCasesRejectsOversizedGrid(t *testing.T) {
	spec := baseSpec()
	for i := 0; i < 300; i++ {
		spec.Axes.DefenderBudgets = append(spec.Axes.DefenderBudgets, float64(i+1))
		spec.Axes.AttackerBudgets = append(spec.Axes.AttackerBudgets, float64(i+1))
	}
	if _, err := spec.Cases(); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("Cases err = %v, want ErrInvalidSpec", err)
	}
}
