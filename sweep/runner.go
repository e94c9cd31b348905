package sweep

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/signalsfoundry/spectrum-deception-sim/game"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
)

// Row is the outcome of one grid point: its axis assignment plus the
// headline metrics of the run. A failed build or solve leaves the metric
// fields zero and records the error text.
type Row struct {
	Index  int     `json:"index" db:"row_index"`
	Labels []Label `json:"labels,omitempty" db:"-"`

	Converged  bool `json:"converged" db:"converged"`
	Iterations int  `json:"iterations" db:"iterations"`

	TotalRealThroughput float64 `json:"totalRealThroughput" db:"total_real_throughput"`
	TotalDecoyPower     float64 `json:"totalDecoyPower" db:"total_decoy_power"`
	JammerWasteOnDecoys float64 `json:"jammerWasteOnDecoys" db:"jammer_waste_on_decoys"`
	DilutionFactor      float64 `json:"dilutionFactor" db:"dilution_factor"`
	DefenderUtility     float64 `json:"defenderUtility" db:"defender_utility"`
	AttackerUtility     float64 `json:"attackerUtility" db:"attacker_utility"`

	Err string `json:"error,omitempty" db:"error"`
}

// Failed reports whether the row never produced a result.
func (r Row) Failed() bool { return r.Err != "" }

// Outcome aggregates a finished sweep.
type Outcome struct {
	Name string `json:"name,omitempty"`
	Rows []Row  `json:"rows"`

	Converged int `json:"converged"`
	Exhausted int `json:"exhausted"`
	Failed    int `json:"failed"`

	// BestRow indexes the successful row with the highest real throughput,
	// or -1 when every row failed.
	BestRow int `json:"bestRow"`
	// MeanThroughput averages total real throughput over successful rows.
	MeanThroughput float64 `json:"meanThroughput"`

	Elapsed time.Duration `json:"elapsed"`
}

// Metrics is the sweep-level slice of the observability collector. A nil
// value disables reporting.
type Metrics interface {
	SweepStarted()
	SweepFinished()
	AddSweepRows(n int)
}

// Options tune one Run call. The zero value runs silently with a worker per
// CPU.
type Options struct {
	// Workers overrides the spec's worker count when positive.
	Workers int
	// Logger reports sweep progress; nil discards.
	Logger logging.Logger
	// Metrics receives sweep lifecycle counters.
	Metrics Metrics
	// Recorder is handed to every solver invocation, typically the
	// Prometheus collector.
	Recorder game.MetricsRecorder
	// OnRow observes each completed row. It is called from worker
	// goroutines and must be safe for concurrent use.
	OnRow func(Row)
}

// Run expands the spec and solves every grid point. Rows retain grid order
// regardless of worker interleaving. Individual row failures (structural or
// validation errors at a grid point) do not abort the sweep; only spec
// expansion errors and context cancellation do.
func Run(ctx context.Context, spec *Spec, opts Options) (*Outcome, error) {
	cases, err := spec.Cases()
	if err != nil {
		return nil, err
	}

	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = spec.Workers
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(cases) {
		workers = len(cases)
	}

	if opts.Metrics != nil {
		opts.Metrics.SweepStarted()
		defer opts.Metrics.SweepFinished()
	}
	log.Info(ctx, "sweep starting",
		logging.String("name", spec.Name),
		logging.Int("rows", len(cases)),
		logging.Int("workers", workers),
	)
	start := time.Now()

	rows := make([]Row, len(cases))
	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				rows[idx] = runCase(ctx, cases[idx], opts.Recorder)
				if opts.Metrics != nil {
					opts.Metrics.AddSweepRows(1)
				}
				if opts.OnRow != nil {
					opts.OnRow(rows[idx])
				}
			}
		}()
	}

feed:
	for i := range cases {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := aggregate(spec.Name, rows)
	out.Elapsed = time.Since(start)
	log.Info(ctx, "sweep finished",
		logging.String("name", spec.Name),
		logging.Int("converged", out.Converged),
		logging.Int("exhausted", out.Exhausted),
		logging.Int("failed", out.Failed),
		logging.Duration("elapsed", out.Elapsed),
	)
	return out, nil
}

// runCase builds and solves one grid point. Errors become row text so a bad
// corner of the grid does not sink the rest.
func runCase(ctx context.Context, c Case, recorder game.MetricsRecorder) Row {
	row := Row{Index: c.Index, Labels: c.Labels}

	params, err := c.Doc.Build()
	if err != nil {
		row.Err = err.Error()
		return row
	}

	var solveOpts []game.Option
	if recorder != nil {
		solveOpts = append(solveOpts, game.WithMetricsRecorder(recorder))
	}
	res, err := game.Solve(ctx, params, solveOpts...)
	if err != nil {
		row.Err = err.Error()
		return row
	}

	row.Converged = res.Converged
	row.Iterations = res.Iterations
	row.TotalRealThroughput = res.Metrics.TotalRealThroughput
	row.TotalDecoyPower = res.Metrics.TotalDecoyPower
	row.JammerWasteOnDecoys = res.Metrics.JammerWasteOnDecoys
	row.DilutionFactor = res.Metrics.DilutionFactor
	for _, d := range res.Defenders {
		row.DefenderUtility += d.Utility
	}
	for _, a := range res.Attackers {
		row.AttackerUtility += a.Utility
	}
	return row
}

func aggregate(name string, rows []Row) *Outcome {
	out := &Outcome{Name: name, Rows: rows, BestRow: -1}
	sum := 0.0
	best := 0.0
	for _, row := range rows {
		if row.Failed() {
			out.Failed++
			continue
		}
		if row.Converged {
			out.Converged++
		} else {
			out.Exhausted++
		}
		sum += row.TotalRealThroughput
		if out.BestRow < 0 || row.TotalRealThroughput > best {
			best = row.TotalRealThroughput
			out.BestRow = row.Index
		}
	}
	if n := out.Converged + out.Exhausted; n > 0 {
		out.MeanThroughput = sum / float64(n)
	}
	return out
}
