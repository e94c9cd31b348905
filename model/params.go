package model

// ChannelType classifies a frequency channel.
type ChannelType string

const (
	// ChannelReal carries genuine traffic and contributes throughput.
	ChannelReal ChannelType = "real"
	// ChannelDecoy mimics real traffic to draw jammer power but carries none.
	ChannelDecoy ChannelType = "decoy"
	// ChannelInactive is statically disabled and never becomes active.
	ChannelInactive ChannelType = "inactive"
)

// JammerStrategy selects how an attacker splits its budget each iteration.
type JammerStrategy string

const (
	// StrategyUniform spreads power equally over eligible channels.
	StrategyUniform JammerStrategy = "uniform"
	// StrategyTopK concentrates power on the K highest-value channels,
	// proportional to perceived value.
	StrategyTopK JammerStrategy = "topK"
	// StrategyGradient allocates along the attacker's utility gradient.
	StrategyGradient JammerStrategy = "gradient"
)

// JammerObjective is the attacker's visibility model.
type JammerObjective string

const (
	// ObjectiveOracle lets attackers distinguish decoys and target only
	// real channels.
	ObjectiveOracle JammerObjective = "oracle"
	// ObjectiveDeception makes every active channel look real to attackers.
	ObjectiveDeception JammerObjective = "deception"
)

// AttackerMode controls whether attackers share a coordinated response.
// It changes behaviour only under StrategyGradient; see the solver docs.
type AttackerMode string

const (
	ModeCoordinated AttackerMode = "coordinated"
	ModeIndependent AttackerMode = "independent"
)

// ChannelConfig describes one channel's static role.
type ChannelConfig struct {
	Type ChannelType `json:"type"`
	// Owner is the index of the defender that transmits on this channel.
	Owner int `json:"owner"`
}

// Parameters is the single input object for an equilibrium run. Counts are
// implied by slice lengths: D = len(DefenderBudgets), M = len(AttackerBudgets);
// NumChannels must match len(Channels) and every gain row.
type Parameters struct {
	NumChannels int             `json:"numChannels"`
	Channels    []ChannelConfig `json:"channels"`

	// DefenderGains is h[d][i], defender d's channel gain on channel i.
	DefenderGains [][]float64 `json:"defenderGains"`
	// AttackerGains is g[m][i], attacker m's gain toward the receiver of
	// channel i.
	AttackerGains [][]float64 `json:"attackerGains"`

	DefenderBudgets []float64 `json:"defenderBudgets"`
	AttackerBudgets []float64 `json:"attackerBudgets"`

	// NoiseFloor is sigma^2, the receiver noise power. Strictly positive.
	NoiseFloor float64 `json:"sigma2"`
	// SensingThreshold is tau: the minimum owner power at which a channel
	// becomes visible to attackers.
	SensingThreshold float64 `json:"tau"`
	// Damping is alpha in (0,1]; new allocations blend
	// (1-alpha)*previous + alpha*proposed.
	Damping float64 `json:"alpha"`
	// Epsilon is the convergence threshold on the run-wide maximum
	// per-channel allocation change.
	Epsilon       float64 `json:"epsilon"`
	MaxIterations int     `json:"maxIter"`

	JammerStrategy  JammerStrategy  `json:"jammerStrategy"`
	TopK            int             `json:"topK,omitempty"`
	JammerObjective JammerObjective `json:"jammerObjective"`
	AttackerMode    AttackerMode    `json:"attackerMode"`

	// RandomInit switches from deterministic to seeded pseudo-random
	// initial defender allocations.
	RandomInit bool  `json:"randomInit,omitempty"`
	Seed       int64 `json:"seed,omitempty"`
}

// NumDefenders returns D.
func (p *Parameters) NumDefenders() int { return len(p.DefenderBudgets) }

// NumAttackers returns M.
func (p *Parameters) NumAttackers() int { return len(p.AttackerBudgets) }

// Clone returns a deep copy. Comparison passes mutate the copy (for example
// re-typing decoys) without touching the caller's parameters.
func (p *Parameters) Clone() *Parameters {
	out := *p
	out.Channels = append([]ChannelConfig(nil), p.Channels...)
	out.DefenderGains = cloneMatrix(p.DefenderGains)
	out.AttackerGains = cloneMatrix(p.AttackerGains)
	out.DefenderBudgets = append([]float64(nil), p.DefenderBudgets...)
	out.AttackerBudgets = append([]float64(nil), p.AttackerBudgets...)
	return &out
}

func cloneMatrix(m [][]float64) [][]float64 {
	if m == nil {
		return nil
	}
	out := make([][]float64, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
