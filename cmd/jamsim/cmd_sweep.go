package main

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/persistence"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

func newSweepCmd() *cobra.Command {
	var (
		specPath string
		workers  int
		csvPath  string
		dbPath   string
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a parameter sweep from a YAML specification",
		Long: `sweep expands a YAML sweep specification into its grid of scenarios,
solves every grid point on a worker pool, and prints a summary. Rows can be
exported as CSV and stored in SQLite.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(specPath)
			if err != nil {
				return fmt.Errorf("read sweep spec: %w", err)
			}
			spec, err := sweep.Load(f)
			f.Close()
			if err != nil {
				return err
			}

			out, err := sweep.Run(cmd.Context(), spec, sweep.Options{
				Workers: workers,
				Logger:  logging.NewFromEnv(),
			})
			if err != nil {
				return err
			}

			if csvPath != "" {
				cf, err := os.Create(csvPath)
				if err != nil {
					return fmt.Errorf("create csv: %w", err)
				}
				if err := sweep.WriteCSV(cf, out.Rows); err != nil {
					cf.Close()
					return err
				}
				if err := cf.Close(); err != nil {
					return err
				}
			}

			if dbPath != "" {
				store, err := persistence.Open(dbPath)
				if err != nil {
					return err
				}
				defer store.Close()
				id := uuid.NewString()
				if err := store.SaveSweep(id, out); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "stored sweep %s\n", id)
			}

			printSummary(cmd, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&specPath, "spec", "", "Path to a YAML sweep specification")
	cmd.Flags().IntVar(&workers, "workers", 0, "Solver pool size (0 picks the spec's setting, then one per CPU)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "Write sweep rows to this CSV file")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database to store the sweep in")
	_ = cmd.MarkFlagRequired("spec")
	return cmd
}

func printSummary(cmd *cobra.Command, out *sweep.Outcome) {
	w := cmd.OutOrStdout()
	name := out.Name
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(w, "sweep %s: %s rows in %s\n",
		name, humanize.Comma(int64(len(out.Rows))), out.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "  converged %d, exhausted %d, failed %d\n",
		out.Converged, out.Exhausted, out.Failed)
	if out.BestRow >= 0 {
		best := out.Rows[out.BestRow]
		fmt.Fprintf(w, "  best row %d: throughput %.4f", best.Index, best.TotalRealThroughput)
		for _, l := range best.Labels {
			fmt.Fprintf(w, " %s=%s", l.Axis, l.Value)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  mean throughput %.4f\n", out.MeanThroughput)
	}
}
