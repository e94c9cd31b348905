package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/signalsfoundry/spectrum-deception-sim/game"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/model"
	"github.com/signalsfoundry/spectrum-deception-sim/scenario"
)

// solveRequest is the POST /api/v1/solve body. The comparison flags trigger
// extra full equilibrium passes that populate the reserved metric fields;
// Store writes the run to the database when one is attached.
type solveRequest struct {
	Params          *model.Parameters `json:"params"`
	CompareOracle   bool              `json:"compareOracle,omitempty"`
	CompareNoDecoys bool              `json:"compareNoDecoys,omitempty"`
	Store           bool              `json:"store,omitempty"`
}

// scenarioSolveRequest is the POST /api/v1/scenario/solve body: a compact
// scenario document instead of raw matrices.
type scenarioSolveRequest struct {
	Scenario        *scenario.Document `json:"scenario"`
	CompareOracle   bool               `json:"compareOracle,omitempty"`
	CompareNoDecoys bool               `json:"compareNoDecoys,omitempty"`
	Store           bool               `json:"store,omitempty"`
}

// solveResponse is a Result plus the storage ID when the run was persisted.
type solveResponse struct {
	ID string `json:"id,omitempty"`
	*model.Result
}

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req solveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if req.Params == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "params is required"})
		return
	}
	s.solve(w, r, req.Params, "", game.CompareOptions{Oracle: req.CompareOracle, NoDecoys: req.CompareNoDecoys}, req.Store)
}

func (s *Server) handleScenarioSolve(w http.ResponseWriter, r *http.Request) {
	var req scenarioSolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if req.Scenario == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "scenario is required"})
		return
	}

	params, err := req.Scenario.Build()
	if err != nil {
		writeError(w, err)
		return
	}
	s.solve(w, r, params, req.Scenario.Name, game.CompareOptions{Oracle: req.CompareOracle, NoDecoys: req.CompareNoDecoys}, req.Store)
}

func (s *Server) solve(w http.ResponseWriter, r *http.Request, params *model.Parameters, name string, cmp game.CompareOptions, store bool) {
	ctx := r.Context()
	log := logging.LoggerFromContext(ctx)

	opts := []game.Option{game.WithLogger(log)}
	if s.solver != nil {
		opts = append(opts, game.WithMetricsRecorder(s.solver))
	}

	res, err := game.SolveWithComparisons(ctx, params, cmp, opts...)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := solveResponse{Result: res}
	if store && s.store != nil {
		resp.ID = uuid.NewString()
		if err := s.store.SaveRun(resp.ID, name, params, res); err != nil {
			log.Error(ctx, "failed to persist run", logging.String("id", resp.ID), logging.Err(err))
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: fmt.Sprintf("persist run: %v", err)})
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
