package model

// PlayerOutcome is one player's final allocation and objective value.
type PlayerOutcome struct {
	PlayerID int `json:"playerId"`
	// Allocation has one entry per channel and sums to the player's budget.
	Allocation []float64 `json:"allocation"`
	// Utility is the player's objective at the terminal state: for
	// defenders the log-SINR sum over their real channels, for attackers
	// the (negative) suppression objective.
	Utility float64 `json:"utility"`
}

// Result is the output of one equilibrium run.
type Result struct {
	Defenders []PlayerOutcome `json:"defenders"`
	Attackers []PlayerOutcome `json:"attackers"`

	// Converged reports whether the run stopped because the maximum
	// per-channel change fell below epsilon. False with
	// Iterations == maxIter means the iteration budget was exhausted,
	// which is a valid outcome rather than an error.
	Converged  bool `json:"converged"`
	Iterations int  `json:"iterations"`
	// MaxChange is the run-wide maximum allocation change of the final
	// iteration.
	MaxChange float64 `json:"maxChange"`

	ConvergenceHistory []IterationRecord `json:"convergenceHistory"`
	ChannelSummary     []ChannelSummary  `json:"channelSummary"`
	Metrics            Metrics           `json:"metrics"`
}

// IterationRecord captures one iteration for diagnostics and convergence
// plots.
type IterationRecord struct {
	Iteration int     `json:"iter"`
	MaxChange float64 `json:"maxChange"`
	// DefenderUtilities holds each defender's utility over its real
	// channels; AttackerUtilities each attacker's objective value.
	DefenderUtilities []float64 `json:"defenderUtilities"`
	AttackerUtilities []float64 `json:"attackerUtilities"`
	// Deltas are the per-player maximum absolute allocation changes.
	DefenderDeltas []float64 `json:"defenderDeltas"`
	AttackerDeltas []float64 `json:"attackerDeltas"`
}

// Metrics are the headline outcome measures of a run.
type Metrics struct {
	// TotalRealThroughput sums log2(1+SINR) over real channels with
	// positive defender power.
	TotalRealThroughput float64 `json:"totalRealThroughput"`
	// TotalDecoyPower is the defender power parked on decoy channels.
	TotalDecoyPower float64 `json:"totalDecoyPower"`
	// JammerWasteOnDecoys is the fraction of total attacker power landing
	// on decoy channels.
	JammerWasteOnDecoys float64 `json:"jammerWasteOnDecoys"`
	// DilutionFactor is active channel count over real channel count.
	DilutionFactor float64 `json:"dilutionFactor"`
	// SymmetricEquilibrium reports whether every defender's allocation is
	// within 10*epsilon L1 distance of defender 0's. It flags degenerate
	// outcomes; it is not a formal symmetry test.
	SymmetricEquilibrium bool `json:"symmetricEquilibrium"`

	// OracleGap and ImprovementOverNoDecoys are reserved. The engine never
	// fills them; callers that run an explicit comparison pass do.
	OracleGap               *float64 `json:"oracleGap,omitempty"`
	ImprovementOverNoDecoys *float64 `json:"improvementOverNoDecoys,omitempty"`
}

// ChannelSummary is one row of the per-channel outcome table.
type ChannelSummary struct {
	Index int         `json:"index"`
	Owner int         `json:"owner"`
	Type  ChannelType `json:"type"`
	// DefenderPower is the owner's allocation; AttackerPower sums all
	// attackers on this channel.
	DefenderPower float64 `json:"defenderPower"`
	AttackerPower float64 `json:"attackerPower"`
	SINR          float64 `json:"sinr"`
	// Rate is log2(1+SINR) for real channels and zero otherwise, so the
	// column sums to Metrics.TotalRealThroughput.
	Rate float64 `json:"rate"`
	// GainDefender is the owner's gain; GainAttacker the mean attacker gain.
	GainDefender float64 `json:"gainDefender"`
	GainAttacker float64 `json:"gainAttacker"`
	Active       bool    `json:"active"`
}
