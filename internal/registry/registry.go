// Package registry tracks submitted sweeps through their lifecycle. It is an
// in-memory, thread-safe store feeding the status and progress-stream
// endpoints; completed results outlive the process only if a persistence
// store is attached elsewhere.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/clock"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

// Status is a sweep's lifecycle stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusRunning Status = "running"
	StatusDone    Status = "done"
	StatusFailed  Status = "failed"
)

// terminal reports whether no further transitions are allowed.
func (s Status) terminal() bool { return s == StatusDone || s == StatusFailed }

// EventType indicates what kind of change happened to a sweep.
type EventType int

const (
	EventStatusChanged EventType = iota
	EventRowCompleted
)

// Event is emitted to subscribers when a sweep changes.
type Event struct {
	Type  EventType
	Sweep Snapshot
	// Row is set for EventRowCompleted.
	Row *sweep.Row
}

// OutcomeSummary mirrors the sweep aggregates without the row payload.
type OutcomeSummary struct {
	Converged      int           `json:"converged"`
	Exhausted      int           `json:"exhausted"`
	Failed         int           `json:"failed"`
	BestRow        int           `json:"bestRow"`
	MeanThroughput float64       `json:"meanThroughput"`
	Elapsed        time.Duration `json:"elapsed"`
}

// Snapshot is a point-in-time copy of one sweep's state.
type Snapshot struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Status Status `json:"status"`

	TotalRows  int `json:"totalRows"`
	DoneRows   int `json:"doneRows"`
	FailedRows int `json:"failedRows"`

	Error string `json:"error,omitempty"`

	SubmittedAt time.Time  `json:"submittedAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`

	// Outcome is filled once the sweep reaches done.
	Outcome *OutcomeSummary `json:"outcome,omitempty"`
}

type entry struct {
	snap    Snapshot
	rows    []sweep.Row
	subs    map[int]func(Event)
	nextSub int
}

// Registry is an in-memory, thread-safe sweep store.
type Registry struct {
	mu     sync.RWMutex
	clk    clock.Clock
	sweeps map[string]*entry
}

// New constructs an empty registry. A nil clock means wall time.
func New(clk clock.Clock) *Registry {
	if clk == nil {
		clk = clock.System()
	}
	return &Registry{
		clk:    clk,
		sweeps: make(map[string]*entry),
	}
}

// Submit records a new sweep in the queued state and returns its snapshot,
// including the generated ID.
func (r *Registry) Submit(name string, totalRows int) Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	e := &entry{
		snap: Snapshot{
			ID:          uuid.NewString(),
			Name:        name,
			Status:      StatusQueued,
			TotalRows:   totalRows,
			SubmittedAt: r.clk.Now(),
		},
		subs: make(map[int]func(Event)),
	}
	r.sweeps[e.snap.ID] = e
	return e.snap
}

// MarkRunning transitions a queued sweep to running.
func (r *Registry) MarkRunning(id string) error {
	r.mu.Lock()
	e, ok := r.sweeps[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q not found", id)
	}
	if e.snap.Status.terminal() {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q already finished", id)
	}
	now := r.clk.Now()
	e.snap.Status = StatusRunning
	e.snap.StartedAt = &now
	event := Event{Type: EventStatusChanged, Sweep: e.snap}
	subs := snapshotSubs(e)
	r.mu.Unlock()

	notify(subs, event)
	return nil
}

// RecordRow accounts one completed grid point and notifies subscribers.
func (r *Registry) RecordRow(id string, row sweep.Row) error {
	r.mu.Lock()
	e, ok := r.sweeps[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q not found", id)
	}
	if e.snap.Status.terminal() {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q already finished", id)
	}
	e.rows = append(e.rows, row)
	e.snap.DoneRows++
	if row.Failed() {
		e.snap.FailedRows++
	}
	event := Event{Type: EventRowCompleted, Sweep: e.snap, Row: &row}
	subs := snapshotSubs(e)
	r.mu.Unlock()

	notify(subs, event)
	return nil
}

// Complete transitions a sweep to done and stores the full outcome. The
// retained rows switch to the outcome's grid ordering.
func (r *Registry) Complete(id string, out *sweep.Outcome) error {
	r.mu.Lock()
	e, ok := r.sweeps[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q not found", id)
	}
	if e.snap.Status.terminal() {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q already finished", id)
	}
	now := r.clk.Now()
	e.snap.Status = StatusDone
	e.snap.FinishedAt = &now
	if out != nil {
		e.rows = out.Rows
		e.snap.DoneRows = len(out.Rows)
		e.snap.FailedRows = out.Failed
		e.snap.Outcome = &OutcomeSummary{
			Converged:      out.Converged,
			Exhausted:      out.Exhausted,
			Failed:         out.Failed,
			BestRow:        out.BestRow,
			MeanThroughput: out.MeanThroughput,
			Elapsed:        out.Elapsed,
		}
	}
	event := Event{Type: EventStatusChanged, Sweep: e.snap}
	subs := snapshotSubs(e)
	r.mu.Unlock()

	notify(subs, event)
	return nil
}

// Fail transitions a sweep to failed with the cause's message.
func (r *Registry) Fail(id string, cause error) error {
	r.mu.Lock()
	e, ok := r.sweeps[id]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q not found", id)
	}
	if e.snap.Status.terminal() {
		r.mu.Unlock()
		return fmt.Errorf("sweep %q already finished", id)
	}
	now := r.clk.Now()
	e.snap.Status = StatusFailed
	e.snap.FinishedAt = &now
	if cause != nil {
		e.snap.Error = cause.Error()
	}
	event := Event{Type: EventStatusChanged, Sweep: e.snap}
	subs := snapshotSubs(e)
	r.mu.Unlock()

	notify(subs, event)
	return nil
}

// Get returns a snapshot of one sweep.
func (r *Registry) Get(id string) (Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sweeps[id]
	if !ok {
		return Snapshot{}, false
	}
	return e.snap, true
}

// Rows returns a copy of the rows recorded so far, ordered by grid index.
// Mid-run the set is partial; after Complete it is the full grid.
func (r *Registry) Rows(id string) ([]sweep.Row, bool) {
	r.mu.RLock()
	e, ok := r.sweeps[id]
	if !ok {
		r.mu.RUnlock()
		return nil, false
	}
	rows := append([]sweep.Row(nil), e.rows...)
	r.mu.RUnlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].Index < rows[j].Index })
	return rows, true
}

// List returns snapshots of every sweep, newest submission first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make([]Snapshot, 0, len(r.sweeps))
	for _, e := range r.sweeps {
		res = append(res, e.snap)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].SubmittedAt.Equal(res[j].SubmittedAt) {
			return res[i].SubmittedAt.After(res[j].SubmittedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res
}

// Subscribe registers a callback for one sweep's events. It returns an
// unsubscribe function, or ok=false when the sweep does not exist.
// Callbacks run synchronously on the mutating goroutine and must not call
// back into the registry.
func (r *Registry) Subscribe(id string, fn func(Event)) (unsubscribe func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, exists := r.sweeps[id]
	if !exists {
		return nil, false
	}
	key := e.nextSub
	e.nextSub++
	e.subs[key] = fn

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(e.subs, key)
	}, true
}

// snapshotSubs copies the subscriber set so delivery happens outside the
// lock.
func snapshotSubs(e *entry) []func(Event) {
	subs := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		subs = append(subs, fn)
	}
	return subs
}

func notify(subs []func(Event), event Event) {
	for _, fn := range subs {
		fn(event)
	}
}
