package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/spectrum-deception-sim/internal/logging"
	"github.com/signalsfoundry/spectrum-deception-sim/internal/registry"
	"github.com/signalsfoundry/spectrum-deception-sim/sweep"
)

const streamWriteTimeout = 10 * time.Second

// streamMessage is one frame on the sweep progress websocket.
type streamMessage struct {
	// Type is "status" for lifecycle transitions and "row" for completed
	// grid points.
	Type  string            `json:"type"`
	Sweep registry.Snapshot `json:"sweep"`
	Row   *sweep.Row        `json:"row,omitempty"`
}

// handleSweepStream upgrades to a websocket and forwards the sweep's
// registry events until the sweep reaches a terminal state or the client
// disconnects. The first frame is always the current snapshot.
func (s *Server) handleSweepStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logging.LoggerFromContext(ctx)
	id := r.PathValue("id")

	// Subscribe before reading the snapshot so no event can slip between
	// the snapshot frame and the event feed; a transition that lands in
	// both shows up as a harmless duplicate status frame. Registry
	// callbacks run on the mutating goroutine, so they only enqueue.
	events := make(chan registry.Event, 256)
	unsubscribe, ok := s.registry.Subscribe(id, func(ev registry.Event) {
		select {
		case events <- ev:
		default:
			// A stalled client drops events rather than stalling the sweep.
		}
	})
	if !ok {
		http.Error(w, "sweep not found", http.StatusNotFound)
		return
	}
	defer unsubscribe()

	snap, _ := s.registry.Get(id)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.String("sweep_id", id), logging.Err(err))
		return
	}
	defer conn.Close()

	if s.api != nil {
		s.api.StreamOpened()
		defer s.api.StreamClosed()
	}
	log.Info(ctx, "sweep stream opened", logging.String("sweep_id", id))

	// Reader goroutine: the client never sends data frames, but reading is
	// what surfaces close frames and dead connections.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if !s.writeFrame(conn, streamMessage{Type: "status", Sweep: snap}) {
		return
	}
	if terminalStatus(snap.Status) {
		return
	}

	for {
		select {
		case ev := <-events:
			msg := streamMessage{Type: "status", Sweep: ev.Sweep, Row: ev.Row}
			if ev.Type == registry.EventRowCompleted {
				msg.Type = "row"
			}
			if !s.writeFrame(conn, msg) {
				return
			}
			if terminalStatus(ev.Sweep.Status) {
				return
			}
		case <-clientGone:
			log.Info(ctx, "sweep stream client left", logging.String("sweep_id", id))
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, msg streamMessage) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(msg) == nil
}

func terminalStatus(st registry.Status) bool {
	return st == registry.StatusDone || st == registry.StatusFailed
}
