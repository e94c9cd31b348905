package scenario

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// Gain synthesis modes.
const (
	GainsFlat       = "flat"
	GainsRandom     = "random"
	GainsCorrelated = "correlated"
	GainsGeometric  = "geometric"
)

// GainSpec describes how the defender and attacker gain matrices are
// synthesized. All modes are deterministic for a fixed spec.
type GainSpec struct {
	Mode string `json:"mode,omitempty" yaml:"mode,omitempty"`

	// FlatValue is the single gain used by the flat mode. Defaults to 1.
	FlatValue float64 `json:"flatValue,omitempty" yaml:"flatValue,omitempty"`

	// Min and Max bound the random mode's uniform draw. Default 0.5..1.5.
	Min float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max float64 `json:"max,omitempty" yaml:"max,omitempty"`

	// Scale and Roughness shape the correlated mode: Scale multiplies the
	// profile, Roughness is the noise frequency along the channel axis.
	Scale     float64 `json:"scale,omitempty" yaml:"scale,omitempty"`
	Roughness float64 `json:"roughness,omitempty" yaml:"roughness,omitempty"`

	// Seed drives the random and correlated modes. Attacker rows derive
	// from Seed+1 so the two sides never share a sample sequence.
	Seed int64 `json:"seed,omitempty" yaml:"seed,omitempty"`

	// Geometric mode: per-channel carrier frequencies spread across the
	// band, one transmitter node per player, one shared receiver.
	BandMinGHz    float64 `json:"bandMinGHz,omitempty" yaml:"bandMinGHz,omitempty"`
	BandMaxGHz    float64 `json:"bandMaxGHz,omitempty" yaml:"bandMaxGHz,omitempty"`
	Epoch         string  `json:"epoch,omitempty" yaml:"epoch,omitempty"`
	DefenderNodes []Node  `json:"defenderNodes,omitempty" yaml:"defenderNodes,omitempty"`
	AttackerNodes []Node  `json:"attackerNodes,omitempty" yaml:"attackerNodes,omitempty"`
	ReceiverNode  *Node   `json:"receiverNode,omitempty" yaml:"receiverNode,omitempty"`
}

// buildGains synthesizes h (defenders × channels) and g (attackers ×
// channels) for the document's layout.
func buildGains(doc *Document) (h, g [][]float64, err error) {
	switch doc.Gains.Mode {
	case GainsFlat, "":
		return flatGains(doc)
	case GainsRandom:
		return randomGains(doc)
	case GainsCorrelated:
		return correlatedGains(doc)
	case GainsGeometric:
		return geometricGains(doc)
	default:
		return nil, nil, fmt.Errorf("%w: unknown gains mode %q", ErrInvalidScenario, doc.Gains.Mode)
	}
}

func flatGains(doc *Document) ([][]float64, [][]float64, error) {
	v := doc.Gains.FlatValue
	if v == 0 {
		v = 1
	}
	if v < 0 || math.IsInf(v, 0) || math.IsNaN(v) {
		return nil, nil, fmt.Errorf("%w: flatValue must be a finite non-negative number", ErrInvalidScenario)
	}
	fill := func(rows int) [][]float64 {
		m := make([][]float64, rows)
		for r := range m {
			m[r] = make([]float64, doc.Channels)
			for i := range m[r] {
				m[r][i] = v
			}
		}
		return m
	}
	return fill(doc.Defenders), fill(doc.Attackers), nil
}

// randomGains draws every entry uniformly from [Min, Max), defender rows
// first so a fixed seed always yields the same matrices.
func randomGains(doc *Document) ([][]float64, [][]float64, error) {
	lo, hi := doc.Gains.Min, doc.Gains.Max
	if lo == 0 && hi == 0 {
		lo, hi = 0.5, 1.5
	}
	if lo < 0 || hi <= lo || math.IsInf(hi, 0) || math.IsNaN(lo) || math.IsNaN(hi) {
		return nil, nil, fmt.Errorf("%w: random gains need 0 <= min < max", ErrInvalidScenario)
	}

	rng := rand.New(rand.NewSource(doc.Gains.Seed))
	fill := func(rows int) [][]float64 {
		m := make([][]float64, rows)
		for r := range m {
			m[r] = make([]float64, doc.Channels)
			for i := range m[r] {
				m[r][i] = lo + (hi-lo)*rng.Float64()
			}
		}
		return m
	}
	h := fill(doc.Defenders)
	g := fill(doc.Attackers)
	return h, g, nil
}

// correlatedGains samples a smooth fading profile over the channel axis,
// one noise row per player, so neighbouring channels see similar gains.
func correlatedGains(doc *Document) ([][]float64, [][]float64, error) {
	scale := doc.Gains.Scale
	if scale == 0 {
		scale = 1
	}
	if scale < 0 || math.IsInf(scale, 0) || math.IsNaN(scale) {
		return nil, nil, fmt.Errorf("%w: correlated gains need a finite non-negative scale", ErrInvalidScenario)
	}
	roughness := doc.Gains.Roughness
	if roughness <= 0 {
		roughness = 0.35
	}

	defNoise := opensimplex.NewNormalized(doc.Gains.Seed)
	attNoise := opensimplex.NewNormalized(doc.Gains.Seed + 1)

	fill := func(noise opensimplex.Noise, rows int) [][]float64 {
		m := make([][]float64, rows)
		for r := range m {
			m[r] = make([]float64, doc.Channels)
			for i := range m[r] {
				m[r][i] = scale * (0.5 + fadingProfile(noise, i, r, roughness))
			}
		}
		return m
	}
	return fill(defNoise, doc.Defenders), fill(attNoise, doc.Attackers), nil
}

// fadingProfile layers three octaves of normalized simplex noise along the
// channel axis. The result stays in [0, 1].
func fadingProfile(noise opensimplex.Noise, channel, row int, roughness float64) float64 {
	total := 0.0
	amplitude := 1.0
	norm := 0.0
	freq := roughness

	for octave := 0; octave < 3; octave++ {
		total += noise.Eval2(float64(channel)*freq, float64(row)) * amplitude
		norm += amplitude
		amplitude *= 0.5
		freq *= 2
	}
	return total / norm
}

// geometricGains derives linear gains from free-space path loss between each
// transmitter node and the shared receiver, evaluated at per-channel carrier
// frequencies spread across the band. Losses are normalized so the strongest
// link of the whole scenario gets gain 1; Earth-blocked paths get 0.
func geometricGains(doc *Document) ([][]float64, [][]float64, error) {
	spec := doc.Gains
	if spec.ReceiverNode == nil {
		return nil, nil, fmt.Errorf("%w: geometric gains need a receiverNode", ErrInvalidScenario)
	}
	if len(spec.DefenderNodes) != doc.Defenders {
		return nil, nil, fmt.Errorf("%w: geometric gains need one defenderNode per defender (%d != %d)",
			ErrInvalidScenario, len(spec.DefenderNodes), doc.Defenders)
	}
	if len(spec.AttackerNodes) != doc.Attackers {
		return nil, nil, fmt.Errorf("%w: geometric gains need one attackerNode per attacker (%d != %d)",
			ErrInvalidScenario, len(spec.AttackerNodes), doc.Attackers)
	}

	var epoch time.Time
	if spec.Epoch != "" {
		parsed, err := time.Parse(time.RFC3339, spec.Epoch)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: epoch %q is not RFC 3339", ErrInvalidScenario, spec.Epoch)
		}
		epoch = parsed
	}

	rx, err := spec.ReceiverNode.locate(epoch)
	if err != nil {
		return nil, nil, err
	}

	freqs := channelFrequencies(doc.Channels, spec.BandMinGHz, spec.BandMaxGHz)

	lossRows := func(nodes []Node) ([][]float64, error) {
		rows := make([][]float64, len(nodes))
		for r := range nodes {
			pos, err := nodes[r].locate(epoch)
			if err != nil {
				return nil, err
			}
			rows[r] = make([]float64, doc.Channels)
			dist := pos.DistanceTo(rx)
			clear := lineOfSight(pos, rx)
			for i := range rows[r] {
				if !clear {
					rows[r][i] = math.Inf(1)
					continue
				}
				rows[r][i] = fsplDB(dist, freqs[i])
			}
		}
		return rows, nil
	}

	hLoss, err := lossRows(spec.DefenderNodes)
	if err != nil {
		return nil, nil, err
	}
	gLoss, err := lossRows(spec.AttackerNodes)
	if err != nil {
		return nil, nil, err
	}

	minLoss := math.Inf(1)
	for _, rows := range [][][]float64{hLoss, gLoss} {
		for _, row := range rows {
			for _, l := range row {
				if l < minLoss {
					minLoss = l
				}
			}
		}
	}

	toGain := func(rows [][]float64) [][]float64 {
		m := make([][]float64, len(rows))
		for r, row := range rows {
			m[r] = make([]float64, len(row))
			for i, l := range row {
				if math.IsInf(l, 1) || math.IsInf(minLoss, 1) {
					m[r][i] = 0
					continue
				}
				m[r][i] = math.Pow(10, (minLoss-l)/10)
			}
		}
		return m
	}
	return toGain(hLoss), toGain(gLoss), nil
}

// channelFrequencies spreads N carriers across the band at slot midpoints.
// An unset band defaults to 11.7..12.7 GHz.
func channelFrequencies(n int, minGHz, maxGHz float64) []float64 {
	if minGHz <= 0 || maxGHz <= minGHz {
		minGHz, maxGHz = 11.7, 12.7
	}
	freqs := make([]float64, n)
	step := (maxGHz - minGHz) / float64(n)
	for i := range freqs {
		freqs[i] = minGHz + step*(float64(i)+0.5)
	}
	return freqs
}
