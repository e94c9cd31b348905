// Package httpapi serves the JSON API: synchronous equilibrium solves,
// scenario-document solves, asynchronous parameter sweeps with a live
// progress stream, and health. Validation errors surface verbatim with a 400
// so callers see the same field-level message the engine produced.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/observability"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/persistence"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/registry"
	"github.com/signalsfoundry/spectrum-deception-sim/model"
	"github.com/signalsfoundry/spectrum-deception-sim/scenario"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

// Config wires the server's collaborators. Everything except Registry is
// optional: a nil Store disables persistence, nil collectors disable
// metrics, and a nil Logger discards logs.
type Config struct {
	Logger   logging.Logger
	Registry *registry.Registry
	Store    *persistence.Store
	API      *observability.APICollector
	Solver   *observability.SolverCollector

	// SweepWorkers bounds each submitted sweep's solver pool; zero defers
	// to the sweep spec (and ultimately one worker per CPU).
	SweepWorkers int
}

// Server handles the JSON API routes.
type Server struct {
	log      logging.Logger
	registry *registry.Registry
	store    *persistence.Store
	api      *observability.APICollector
	solver   *observability.SolverCollector

	sweepWorkers int
	upgrader     websocket.Upgrader
}

// New constructs a Server from the config, filling in defaults.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = logging.Noop()
	}
	reg := cfg.Registry
	if reg == nil {
		reg = registry.New(nil)
	}
	return &Server{
		log:          log,
		registry:     reg,
		store:        cfg.Store,
		api:          cfg.API,
		solver:       cfg.Solver,
		sweepWorkers: cfg.SweepWorkers,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the fully-wired API handler: per-route Prometheus
// middleware, request IDs, and OpenTelemetry HTTP instrumentation around the
// whole mux.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	s.route(mux, "POST /api/v1/solve", "/api/v1/solve", s.handleSolve)
	s.route(mux, "POST /api/v1/scenario/solve", "/api/v1/scenario/solve", s.handleScenarioSolve)
	s.route(mux, "POST /api/v1/sweeps", "/api/v1/sweeps", s.handleSubmitSweep)
	s.route(mux, "GET /api/v1/sweeps", "/api/v1/sweeps", s.handleListSweeps)
	s.route(mux, "GET /api/v1/sweeps/{id}", "/api/v1/sweeps/{id}", s.handleGetSweep)
	s.route(mux, "GET /api/v1/sweeps/{id}/rows", "/api/v1/sweeps/{id}/rows", s.handleSweepRows)
	s.route(mux, "GET /api/v1/healthz", "/api/v1/healthz", s.handleHealthz)

	// The stream route hijacks the connection for the websocket upgrade, so
	// it skips the status-recording metrics middleware.
	mux.Handle("GET /api/v1/sweeps/{id}/stream", s.withRequestID(http.HandlerFunc(s.handleSweepStream)))

	return otelhttp.NewHandler(mux, "httpapi")
}

// route registers one pattern with request-ID and metrics middleware. The
// metrics label is the route pattern, never the raw URL.
func (s *Server) route(mux *http.ServeMux, pattern, label string, h http.HandlerFunc) {
	var handler http.Handler = s.withRequestID(h)
	if s.api != nil {
		handler = s.api.Middleware(label, handler)
	}
	mux.Handle(pattern, handler)
}

// withRequestID attaches a request ID and a request-scoped logger to the
// context and echoes the ID back to the caller.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, reqLog := logging.WithRequestLogger(r.Context(), s.log)
		ctx = logging.ContextWithLogger(ctx, reqLog)
		w.Header().Set("X-Request-Id", logging.RequestIDFromContext(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps validation failures to 400 with the engine's verbatim
// message; anything else is a 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, model.ErrInvalidParameters) ||
		errors.Is(err, scenario.ErrInvalidScenario) ||
		errors.Is(err, sweep.ErrInvalidSpec) {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
