// Package persistence stores completed equilibrium runs and sweep results in
// SQLite. The store is optional everywhere it is wired: a nil *Store disables
// persistence without branching at the call sites.
package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/signalsfoundry/spectrum-deception-sim/model"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

// Store wraps a SQLite connection holding runs and sweep rows.
type Store struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path and applies the
// schema.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		converged INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		max_change REAL NOT NULL,
		total_real_throughput REAL NOT NULL,
		total_decoy_power REAL NOT NULL,
		jammer_waste_on_decoys REAL NOT NULL,
		dilution_factor REAL NOT NULL,
		params_json TEXT NOT NULL,
		result_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sweeps (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL,
		total_rows INTEGER NOT NULL,
		converged INTEGER NOT NULL,
		exhausted INTEGER NOT NULL,
		failed INTEGER NOT NULL,
		best_row INTEGER NOT NULL,
		mean_throughput REAL NOT NULL,
		elapsed_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sweep_rows (
		sweep_id TEXT NOT NULL,
		row_index INTEGER NOT NULL,
		labels_json TEXT NOT NULL,
		converged INTEGER NOT NULL,
		iterations INTEGER NOT NULL,
		total_real_throughput REAL NOT NULL,
		total_decoy_power REAL NOT NULL,
		jammer_waste_on_decoys REAL NOT NULL,
		dilution_factor REAL NOT NULL,
		defender_utility REAL NOT NULL,
		attacker_utility REAL NOT NULL,
		error TEXT NOT NULL,
		PRIMARY KEY (sweep_id, row_index)
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_sweep_rows_sweep ON sweep_rows(sweep_id);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// RunRecord is one stored equilibrium run. The full parameter and result
// objects ride along as JSON so a stored run can be replayed or re-rendered.
type RunRecord struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name,omitempty"`
	CreatedAt time.Time `db:"-" json:"createdAt"`

	Converged  bool    `db:"converged" json:"converged"`
	Iterations int     `db:"iterations" json:"iterations"`
	MaxChange  float64 `db:"max_change" json:"maxChange"`

	TotalRealThroughput float64 `db:"total_real_throughput" json:"totalRealThroughput"`
	TotalDecoyPower     float64 `db:"total_decoy_power" json:"totalDecoyPower"`
	JammerWasteOnDecoys float64 `db:"jammer_waste_on_decoys" json:"jammerWasteOnDecoys"`
	DilutionFactor      float64 `db:"dilution_factor" json:"dilutionFactor"`

	Params *model.Parameters `db:"-" json:"params,omitempty"`
	Result *model.Result     `db:"-" json:"result,omitempty"`
}

// SaveRun stores one finished run under the given ID.
func (s *Store) SaveRun(id, name string, params *model.Parameters, res *model.Result) error {
	paramsJSON, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	resultJSON, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.conn.Exec(`INSERT OR REPLACE INTO runs
		(id, name, created_at, converged, iterations, max_change,
		 total_real_throughput, total_decoy_power, jammer_waste_on_decoys,
		 dilution_factor, params_json, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, time.Now().UTC().Format(time.RFC3339Nano),
		boolToInt(res.Converged), res.Iterations, res.MaxChange,
		res.Metrics.TotalRealThroughput, res.Metrics.TotalDecoyPower,
		res.Metrics.JammerWasteOnDecoys, res.Metrics.DilutionFactor,
		string(paramsJSON), string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", id, err)
	}
	return nil
}

// GetRun loads one stored run, including its full parameter and result
// payloads.
func (s *Store) GetRun(id string) (*RunRecord, error) {
	var raw struct {
		RunRecord
		CreatedAt  string `db:"created_at"`
		ParamsJSON string `db:"params_json"`
		ResultJSON string `db:"result_json"`
	}
	err := s.conn.Get(&raw, `SELECT * FROM runs WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}

	rec := raw.RunRecord
	if t, err := time.Parse(time.RFC3339Nano, raw.CreatedAt); err == nil {
		rec.CreatedAt = t
	}
	if err := json.Unmarshal([]byte(raw.ParamsJSON), &rec.Params); err != nil {
		return nil, fmt.Errorf("decode stored params for run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw.ResultJSON), &rec.Result); err != nil {
		return nil, fmt.Errorf("decode stored result for run %s: %w", id, err)
	}
	return &rec, nil
}

// ListRuns returns the newest runs first, without the JSON payloads.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []struct {
		RunRecord
		CreatedAt string `db:"created_at"`
	}
	err := s.conn.Select(&rows, `SELECT id, name, created_at, converged,
		iterations, max_change, total_real_throughput, total_decoy_power,
		jammer_waste_on_decoys, dilution_factor
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	recs := make([]RunRecord, 0, len(rows))
	for _, r := range rows {
		rec := r.RunRecord
		if t, err := time.Parse(time.RFC3339Nano, r.CreatedAt); err == nil {
			rec.CreatedAt = t
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// SaveSweep stores a finished sweep and all of its rows in one transaction.
func (s *Store) SaveSweep(id string, out *sweep.Outcome) error {
	tx, err := s.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT OR REPLACE INTO sweeps
		(id, name, created_at, total_rows, converged, exhausted, failed,
		 best_row, mean_throughput, elapsed_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, out.Name, time.Now().UTC().Format(time.RFC3339Nano),
		len(out.Rows), out.Converged, out.Exhausted, out.Failed,
		out.BestRow, out.MeanThroughput, out.Elapsed.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert sweep %s: %w", id, err)
	}

	stmt, err := tx.Preparex(`INSERT OR REPLACE INTO sweep_rows
		(sweep_id, row_index, labels_json, converged, iterations,
		 total_real_throughput, total_decoy_power, jammer_waste_on_decoys,
		 dilution_factor, defender_utility, attacker_utility, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range out.Rows {
		labelsJSON, err := json.Marshal(row.Labels)
		if err != nil {
			return fmt.Errorf("marshal labels for row %d: %w", row.Index, err)
		}
		_, err = stmt.Exec(
			id, row.Index, string(labelsJSON), boolToInt(row.Converged),
			row.Iterations, row.TotalRealThroughput, row.TotalDecoyPower,
			row.JammerWasteOnDecoys, row.DilutionFactor,
			row.DefenderUtility, row.AttackerUtility, row.Err,
		)
		if err != nil {
			return fmt.Errorf("insert sweep row %d: %w", row.Index, err)
		}
	}

	return tx.Commit()
}

// SweepRows loads a stored sweep's rows in grid order.
func (s *Store) SweepRows(sweepID string) ([]sweep.Row, error) {
	var raws []struct {
		sweep.Row
		LabelsJSON string `db:"labels_json"`
	}
	err := s.conn.Select(&raws, `SELECT row_index, labels_json, converged,
		iterations, total_real_throughput, total_decoy_power,
		jammer_waste_on_decoys, dilution_factor, defender_utility,
		attacker_utility, error
		FROM sweep_rows WHERE sweep_id = ? ORDER BY row_index`, sweepID)
	if err != nil {
		return nil, fmt.Errorf("load sweep rows for %s: %w", sweepID, err)
	}

	rows := make([]sweep.Row, 0, len(raws))
	for _, raw := range raws {
		row := raw.Row
		if err := json.Unmarshal([]byte(raw.LabelsJSON), &row.Labels); err != nil {
			return nil, fmt.Errorf("decode labels for row %d: %w", row.Index, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
