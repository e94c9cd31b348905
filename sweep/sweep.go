// Package sweep expands a declarative sweep specification into a grid of
// scenarios and solves them on a bounded worker pool. A specification is a
// base scenario document plus one or more axes; the cartesian product of the
// axes defines the grid, and every grid point is an independent equilibrium
// run. Rows come back in grid order no matter how the workers interleave.
package sweep

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
	"github.com/signalsfoundry/spectrum-deception-sim/scenario"
)

// ErrInvalidSpec marks structural problems in a sweep specification.
var ErrInvalidSpec = errors.New("invalid sweep specification")

// maxCases caps the expanded grid so a careless spec cannot queue an
// unbounded amount of work.
const maxCases = 50000

// Spec is the YAML sweep shape: a base scenario, the swept axes, and
// execution knobs.
type Spec struct {
	Name string            `yaml:"name,omitempty" json:"name,omitempty"`
	Base scenario.Document `yaml:"base" json:"base"`
	Axes Axes              `yaml:"axes" json:"axes"`

	// Workers bounds the solver pool; zero picks a worker per CPU.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`
	// Seed derives per-row seeds (seed + row index) for randomly
	// initialised runs; zero leaves the base document's seed untouched.
	Seed int64 `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// Axes lists the swept dimensions. Empty axes are skipped; listing a single
// value pins that dimension while still labelling it in the output rows.
type Axes struct {
	Channels        []int     `yaml:"channels,omitempty" json:"channels,omitempty"`
	Decoys          []int     `yaml:"decoys,omitempty" json:"decoys,omitempty"`
	Defenders       []int     `yaml:"defenders,omitempty" json:"defenders,omitempty"`
	Attackers       []int     `yaml:"attackers,omitempty" json:"attackers,omitempty"`
	DefenderBudgets []float64 `yaml:"defenderBudgets,omitempty" json:"defenderBudgets,omitempty"`
	AttackerBudgets []float64 `yaml:"attackerBudgets,omitempty" json:"attackerBudgets,omitempty"`
	Thresholds      []float64 `yaml:"thresholds,omitempty" json:"thresholds,omitempty"`
	Strategies      []string  `yaml:"strategies,omitempty" json:"strategies,omitempty"`
	Objectives      []string  `yaml:"objectives,omitempty" json:"objectives,omitempty"`
}

// Label is one axis assignment of a grid point, formatted for row output.
type Label struct {
	Axis  string `json:"axis"`
	Value string `json:"value"`
}

// Case is one expanded grid point: the base document with this point's axis
// values applied.
type Case struct {
	Index  int
	Labels []Label
	Doc    scenario.Document
}

// Load reads one YAML sweep specification from r.
func Load(r io.Reader) (*Spec, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read sweep spec: %w", err)
	}
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse sweep spec: %w", err)
	}
	return &s, nil
}

// axisValue applies one axis assignment to a document copy.
type axisValue struct {
	label string
	apply func(*scenario.Document)
}

// axis is one populated sweep dimension. Axes expand in declaration order
// with the last axis varying fastest, like nested loops.
type axis struct {
	name   string
	values []axisValue
}

func intAxis(name string, vals []int, set func(*scenario.Document, int)) axis {
	ax := axis{name: name}
	for _, v := range vals {
		v := v
		ax.values = append(ax.values, axisValue{
			label: strconv.Itoa(v),
			apply: func(doc *scenario.Document) { set(doc, v) },
		})
	}
	return ax
}

func floatAxis(name string, vals []float64, set func(*scenario.Document, float64)) axis {
	ax := axis{name: name}
	for _, v := range vals {
		v := v
		ax.values = append(ax.values, axisValue{
			label: strconv.FormatFloat(v, 'g', -1, 64),
			apply: func(doc *scenario.Document) { set(doc, v) },
		})
	}
	return ax
}

func stringAxis(name string, vals []string, set func(*scenario.Document, string)) axis {
	ax := axis{name: name}
	for _, v := range vals {
		v := v
		ax.values = append(ax.values, axisValue{
			label: v,
			apply: func(doc *scenario.Document) { set(doc, v) },
		})
	}
	return ax
}

func (s *Spec) axes() []axis {
	all := []axis{
		intAxis("channels", s.Axes.Channels, func(d *scenario.Document, v int) { d.Channels = v }),
		intAxis("decoys", s.Axes.Decoys, func(d *scenario.Document, v int) { d.Decoys = v }),
		intAxis("defenders", s.Axes.Defenders, func(d *scenario.Document, v int) { d.Defenders = v }),
		intAxis("attackers", s.Axes.Attackers, func(d *scenario.Document, v int) { d.Attackers = v }),
		floatAxis("defenderBudget", s.Axes.DefenderBudgets, func(d *scenario.Document, v float64) { d.DefenderBudget = v }),
		floatAxis("attackerBudget", s.Axes.AttackerBudgets, func(d *scenario.Document, v float64) { d.AttackerBudget = v }),
		floatAxis("tau", s.Axes.Thresholds, func(d *scenario.Document, v float64) { d.SensingThreshold = &v }),
		stringAxis("strategy", s.Axes.Strategies, func(d *scenario.Document, v string) { d.JammerStrategy = model.JammerStrategy(v) }),
		stringAxis("objective", s.Axes.Objectives, func(d *scenario.Document, v string) { d.JammerObjective = model.JammerObjective(v) }),
	}
	populated := all[:0]
	for _, ax := range all {
		if len(ax.values) > 0 {
			populated = append(populated, ax)
		}
	}
	return populated
}

// Cases expands the specification into its grid points. With no populated
// axes the base document runs once. Grid points that violate scenario or
// parameter constraints are not rejected here; they surface as failed rows.
func (s *Spec) Cases() ([]Case, error) {
	axes := s.axes()

	total := 1
	for _, ax := range axes {
		total *= len(ax.values)
		if total > maxCases {
			return nil, fmt.Errorf("%w: grid has more than %d points", ErrInvalidSpec, maxCases)
		}
	}

	cases := make([]Case, 0, total)
	pick := make([]int, len(axes))
	for idx := 0; idx < total; idx++ {
		doc := s.Base
		labels := make([]Label, len(axes))
		for a, ax := range axes {
			val := ax.values[pick[a]]
			val.apply(&doc)
			labels[a] = Label{Axis: ax.name, Value: val.label}
		}
		if s.Seed != 0 {
			doc.Seed = s.Seed + int64(idx)
		}
		cases = append(cases, Case{Index: idx, Labels: labels, Doc: doc})

		// Odometer step, last axis fastest.
		for a := len(axes) - 1; a >= 0; a-- {
			pick[a]++
			if pick[a] < len(axes[a].values) {
				break
			}
			pick[a] = 0
		}
	}
	return cases, nil
}
