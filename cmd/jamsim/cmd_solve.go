package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/spectrum-deception-sim/game"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/persistence"
	"github.com/signalsfoundry/spectrum-deception-sim/model"
	"github.com/signalsfoundry/spectrum-deception-sim/scenario"
)

func newSolveCmd() *cobra.Command {
	var (
		paramsPath      string
		scenarioPath    string
		compareOracle   bool
		compareNoDecoys bool
		dbPath          string
		outPath         string
		pretty          bool
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Run one equilibrium computation",
		Long: `solve runs a single equilibrium computation from either a raw parameter
file (--params) or a compact scenario document (--scenario) and writes the
full result object as JSON.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (paramsPath == "") == (scenarioPath == "") {
				return fmt.Errorf("exactly one of --params or --scenario is required")
			}

			params, name, err := loadSolveInput(paramsPath, scenarioPath)
			if err != nil {
				return err
			}

			cmp := game.CompareOptions{Oracle: compareOracle, NoDecoys: compareNoDecoys}
			res, err := game.SolveWithComparisons(cmd.Context(), params, cmp,
				game.WithLogger(logging.NewFromEnv()))
			if err != nil {
				return err
			}

			if dbPath != "" {
				store, err := persistence.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				id := uuid.NewString()
				if err := store.SaveRun(id, name, params, res); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "stored run %s\n", id)
			}

			return writeResult(cmd, outPath, res, pretty)
		},
	}

	cmd.Flags().StringVar(&paramsPath, "params", "", "Path to a JSON parameter object")
	cmd.Flags().StringVar(&scenarioPath, "scenario", "", "Path to a JSON scenario document")
	cmd.Flags().BoolVar(&compareOracle, "compare-oracle", false, "Run an extra oracle-objective pass and fill oracleGap")
	cmd.Flags().BoolVar(&compareNoDecoys, "compare-no-decoys", false, "Run an extra decoy-free pass and fill improvementOverNoDecoys")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to store the run in")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the result JSON to this file instead of stdout")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "Indent the result JSON")
	return cmd
}

func loadSolveInput(paramsPath, scenarioPath string) (*model.Parameters, string, error) {
	if paramsPath != "" {
		data, err := os.ReadFile(paramsPath)
		if err != nil {
			return nil, "", fmt.Errorf("read params: %w", err)
		}
		var params model.Parameters
		if err := json.Unmarshal(data, &params); err != nil {
			return nil, "", fmt.Errorf("parse params: %w", err)
		}
		return &params, "", nil
	}

	f, err := os.Open(scenarioPath)
	if err != nil {
		return nil, "", fmt.Errorf("read scenario: %w", err)
	}
	defer f.Close()
	doc, err := scenario.Load(f)
	if err != nil {
		return nil, "", err
	}
	params, err := doc.Build()
	if err != nil {
		return nil, "", err
	}
	return params, doc.Name, nil
}

func writeResult(cmd *cobra.Command, outPath string, res *model.Result, pretty bool) error {
	var (
		data []byte
		err  error
	)
	if pretty {
		data, err = json.MarshalIndent(res, "", "  ")
	} else {
		data, err = json.Marshal(res)
	}
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	data = append(data, '\n')

	if outPath != "" {
		return os.WriteFile(outPath, data, 0644)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
