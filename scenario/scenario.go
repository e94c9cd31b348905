// Package scenario turns compact scenario documents into fully-populated
// game parameters. A document names the channel layout (total channels,
// trailing decoy count, round-robin ownership), per-side budgets, solver
// knobs, and a gain synthesis mode; the builder expands that into the raw
// matrices the solver consumes.
package scenario

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// ErrInvalidScenario marks structural problems in a scenario document. The
// builder also surfaces the game's own parameter validation errors verbatim.
var ErrInvalidScenario = errors.New("invalid scenario document")

// Document is the scenario shape, decoded from JSON on the API and embedded
// in YAML sweep specifications. Zero-valued solver knobs pick up the usual
// defaults; SensingThreshold is a pointer so an explicit zero survives (a
// zero threshold keeps every funded channel visible).
type Document struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	Channels  int `json:"channels" yaml:"channels"`
	Decoys    int `json:"decoys,omitempty" yaml:"decoys,omitempty"`
	Defenders int `json:"defenders" yaml:"defenders"`
	Attackers int `json:"attackers" yaml:"attackers"`

	// Budgets apply uniformly to every player on their side.
	DefenderBudget float64 `json:"defenderBudget" yaml:"defenderBudget"`
	AttackerBudget float64 `json:"attackerBudget" yaml:"attackerBudget"`

	NoiseFloor       float64  `json:"sigma2,omitempty" yaml:"sigma2,omitempty"`
	SensingThreshold *float64 `json:"tau,omitempty" yaml:"tau,omitempty"`
	Damping          float64  `json:"alpha,omitempty" yaml:"alpha,omitempty"`
	Epsilon          float64  `json:"epsilon,omitempty" yaml:"epsilon,omitempty"`
	MaxIterations    int      `json:"maxIter,omitempty" yaml:"maxIter,omitempty"`

	JammerStrategy  model.JammerStrategy  `json:"jammerStrategy,omitempty" yaml:"jammerStrategy,omitempty"`
	TopK            int                   `json:"topK,omitempty" yaml:"topK,omitempty"`
	JammerObjective model.JammerObjective `json:"jammerObjective,omitempty" yaml:"jammerObjective,omitempty"`
	AttackerMode    model.AttackerMode    `json:"attackerMode,omitempty" yaml:"attackerMode,omitempty"`
	RandomInit      bool                  `json:"randomInit,omitempty" yaml:"randomInit,omitempty"`
	Seed            int64                 `json:"seed,omitempty" yaml:"seed,omitempty"`

	Gains GainSpec `json:"gains" yaml:"gains"`
}

// Load reads one JSON scenario document from r. It fails only on decode
// errors; structural checks happen in Build.
func Load(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &doc, nil
}

// Defaults used when a document leaves solver knobs at their zero values.
const (
	defaultNoiseFloor       = 1.0
	defaultSensingThreshold = 0.2
	defaultDamping          = 0.3
	defaultEpsilon          = 1e-3
	defaultMaxIterations    = 100
)

// Build expands the document into validated game parameters.
func (doc *Document) Build() (*model.Parameters, error) {
	if doc.Channels <= 0 {
		return nil, fmt.Errorf("%w: channels must be positive", ErrInvalidScenario)
	}
	if doc.Decoys < 0 || doc.Decoys > doc.Channels {
		return nil, fmt.Errorf("%w: decoys must be within 0..channels", ErrInvalidScenario)
	}
	if doc.Defenders <= 0 {
		return nil, fmt.Errorf("%w: at least one defender is required", ErrInvalidScenario)
	}
	if doc.Attackers < 0 {
		return nil, fmt.Errorf("%w: attackers must be non-negative", ErrInvalidScenario)
	}

	// Round-robin ownership; the trailing Decoys channels are decoys, so
	// decoy duty also rotates across defenders.
	channels := make([]model.ChannelConfig, doc.Channels)
	firstDecoy := doc.Channels - doc.Decoys
	for i := range channels {
		channels[i].Owner = i % doc.Defenders
		if i >= firstDecoy {
			channels[i].Type = model.ChannelDecoy
		} else {
			channels[i].Type = model.ChannelReal
		}
	}

	h, g, err := buildGains(doc)
	if err != nil {
		return nil, err
	}

	defenderBudgets := make([]float64, doc.Defenders)
	for d := range defenderBudgets {
		defenderBudgets[d] = doc.DefenderBudget
	}
	attackerBudgets := make([]float64, doc.Attackers)
	for a := range attackerBudgets {
		attackerBudgets[a] = doc.AttackerBudget
	}

	p := &model.Parameters{
		NumChannels:      doc.Channels,
		Channels:         channels,
		DefenderGains:    h,
		AttackerGains:    g,
		DefenderBudgets:  defenderBudgets,
		AttackerBudgets:  attackerBudgets,
		NoiseFloor:       doc.NoiseFloor,
		SensingThreshold: defaultSensingThreshold,
		Damping:          doc.Damping,
		Epsilon:          doc.Epsilon,
		MaxIterations:    doc.MaxIterations,
		JammerStrategy:   doc.JammerStrategy,
		TopK:             doc.TopK,
		JammerObjective:  doc.JammerObjective,
		AttackerMode:     doc.AttackerMode,
		RandomInit:       doc.RandomInit,
		Seed:             doc.Seed,
	}
	if doc.SensingThreshold != nil {
		p.SensingThreshold = *doc.SensingThreshold
	}
	if p.NoiseFloor == 0 {
		p.NoiseFloor = defaultNoiseFloor
	}
	if p.Damping == 0 {
		p.Damping = defaultDamping
	}
	if p.Epsilon == 0 {
		p.Epsilon = defaultEpsilon
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = defaultMaxIterations
	}
	if p.JammerStrategy == "" {
		p.JammerStrategy = model.StrategyUniform
	}
	if p.JammerObjective == "" {
		p.JammerObjective = model.ObjectiveDeception
	}
	if p.AttackerMode == "" {
		p.AttackerMode = model.ModeCoordinated
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}
