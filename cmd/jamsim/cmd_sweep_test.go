package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const ladderSpec = `name: decoy-ladder
base:
  channels: 4
  defenders: 1
  attackers: 1
  defenderBudget: 10
  attackerBudget: 10
  maxIter: 100
axes:
  decoys: [0, 2]
  objectives: [deception, oracle]
workers: 2
`

func TestSweepWritesCSVAndSummary(t *testing.T) {
	specPath := writeTempFile(t, "spec.yaml", ladderSpec)
	csvPath := filepath.Join(t.TempDir(), "rows.csv")

	out, err := runCommand(t, "sweep", "--spec", specPath, "--csv", csvPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if !strings.Contains(out, "sweep decoy-ladder: 4 rows") {
		t.Errorf("summary %q does not report the grid size", out)
	}
	if !strings.Contains(out, "converged 4, exhausted 0, failed 0") {
		t.Errorf("summary %q does not report outcomes", out)
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 5 {
		t.Fatalf("csv has %d lines, want header + 4 rows", len(lines))
	}
	if !strings.HasPrefix(lines[0], "index,decoys,objective,") {
		t.Errorf("unexpected csv header %q", lines[0])
	}
}

func TestSweepRejectsMissingSpecFile(t *testing.T) {
	if _, err := runCommand(t, "sweep", "--spec", filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error for a missing spec file")
	}
}
