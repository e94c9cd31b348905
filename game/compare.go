package game

import (
	"context"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
)

// CompareOptions selects the optional comparison re-runs. Each enabled
// comparison costs one full additional equilibrium computation.
type CompareOptions struct {
	// Oracle re-runs the game under the oracle objective and fills
	// Metrics.OracleGap with the primary run's real throughput minus the
	// oracle run's.
	Oracle bool `json:"oracle"`
	// NoDecoys re-runs with every decoy channel re-typed inactive and fills
	// Metrics.ImprovementOverNoDecoys with the primary run's real
	// throughput minus the decoy-free run's.
	NoDecoys bool `json:"noDecoys"`
}

// SolveWithComparisons runs the primary equilibrium and then the explicitly
// requested comparison passes. Solve itself never populates the reserved
// metric fields; this wrapper is the one place they are computed, so a plain
// Solve result always carries them as null.
func SolveWithComparisons(ctx context.Context, params *model.Parameters, cmp CompareOptions, opts ...Option) (*model.Result, error) {
	res, err := Solve(ctx, params, opts...)
	if err != nil {
		return nil, err
	}

	if cmp.Oracle {
		oracleParams := params.Clone()
		oracleParams.JammerObjective = model.ObjectiveOracle
		oracleRes, err := Solve(ctx, oracleParams, opts...)
		if err != nil {
			return nil, err
		}
		gap := res.Metrics.TotalRealThroughput - oracleRes.Metrics.TotalRealThroughput
		res.Metrics.OracleGap = &gap
	}

	if cmp.NoDecoys {
		bareParams := params.Clone()
		for i := range bareParams.Channels {
			if bareParams.Channels[i].Type == model.ChannelDecoy {
				bareParams.Channels[i].Type = model.ChannelInactive
			}
		}
		bareRes, err := Solve(ctx, bareParams, opts...)
		if err != nil {
			return nil, err
		}
		improvement := res.Metrics.TotalRealThroughput - bareRes.Metrics.TotalRealThroughput
		res.Metrics.ImprovementOverNoDecoys = &improvement
	}

	return res, nil
}
