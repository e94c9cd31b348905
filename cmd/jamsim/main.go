// Command jamsim runs deception-jamming equilibrium computations from the
// command line: one-off solves from parameter or scenario files, and
// parameter sweeps from YAML specifications.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jamsim",
		Short: "Deception-jamming equilibrium solver",
		Long: `jamsim computes approximate Nash-style equilibria of the wireless
deception-jamming game: defenders split power budgets across real and decoy
channels while jammers try to suppress throughput.

Solves take a raw parameter object (JSON) or a compact scenario document;
sweeps expand a YAML specification into a grid of runs and export the rows
as CSV.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newSolveCmd(),
		newSweepCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "jamsim version %s\n", version)
		},
	}
}
