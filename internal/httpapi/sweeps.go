package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

// handleSubmitSweep expands the spec up front so structural errors come back
// synchronously, then runs the grid in the background and reports 202 with
// the queued snapshot.
func (s *Server) handleSubmitSweep(w http.ResponseWriter, r *http.Request) {
	var spec sweep.Spec
	if err := json.NewDecoder(r.Body).Decode(&spec); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode sweep spec: %v", err)})
		return
	}

	cases, err := spec.Cases()
	if err != nil {
		writeError(w, err)
		return
	}

	snap := s.registry.Submit(spec.Name, len(cases))
	log := logging.LoggerFromContext(r.Context()).With(logging.String("sweep_id", snap.ID))
	log.Info(r.Context(), "sweep submitted",
		logging.String("name", spec.Name),
		logging.Int("rows", len(cases)),
	)

	// The request context dies with the response; the sweep lives on until
	// it finishes or the process exits.
	go s.executeSweep(context.Background(), snap.ID, &spec, log)

	writeJSON(w, http.StatusAccepted, snap)
}

func (s *Server) executeSweep(ctx context.Context, id string, spec *sweep.Spec, log logging.Logger) {
	if err := s.registry.MarkRunning(id); err != nil {
		log.Error(ctx, "failed to start sweep", logging.Err(err))
		return
	}

	opts := sweep.Options{
		Workers: s.sweepWorkers,
		Logger:  log,
		OnRow: func(row sweep.Row) {
			if err := s.registry.RecordRow(id, row); err != nil {
				log.Warn(ctx, "failed to record sweep row", logging.Int("row", row.Index), logging.Err(err))
			}
		},
	}
	if s.solver != nil {
		opts.Metrics = s.solver
		opts.Recorder = s.solver
	}

	out, err := sweep.Run(ctx, spec, opts)
	if err != nil {
		log.Error(ctx, "sweep failed", logging.Err(err))
		if ferr := s.registry.Fail(id, err); ferr != nil {
			log.Warn(ctx, "failed to mark sweep failed", logging.Err(ferr))
		}
		return
	}

	if err := s.registry.Complete(id, out); err != nil {
		log.Warn(ctx, "failed to complete sweep", logging.Err(err))
	}
	if s.store != nil {
		if err := s.store.SaveSweep(id, out); err != nil {
			log.Error(ctx, "failed to persist sweep", logging.Err(err))
		}
	}
}

func (s *Server) handleListSweeps(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

func (s *Server) handleGetSweep(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	snap, ok := s.registry.Get(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("sweep %q not found", id)})
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// handleSweepRows returns the rows recorded so far (the full grid once the
// sweep is done), as JSON or CSV via ?format=csv.
func (s *Server) handleSweepRows(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rows, ok := s.registry.Rows(id)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: fmt.Sprintf("sweep %q not found", id)})
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "sweep-"+id+".csv"))
		if err := sweep.WriteCSV(w, rows); err != nil {
			logging.LoggerFromContext(r.Context()).Warn(r.Context(), "csv export aborted", logging.Err(err))
		}
		return
	}
	writeJSON(w, http.StatusOK, rows)
}
