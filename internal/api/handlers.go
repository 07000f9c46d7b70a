package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tomy27/input-recorder/internal/recorder"
	"github.com/tomy27/input-recorder/internal/tail"
)

type Handlers struct {
	rec        *recorder.Recorder
	hub        *tail.Hub
	tailBuffer int
	log        *slog.Logger
}

func NewHandlers(rec *recorder.Recorder, hub *tail.Hub, tailBuffer int, log *slog.Logger) *Handlers {
	return &Handlers{rec: rec, hub: hub, tailBuffer: tailBuffer, log: log}
}

func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	st := h.rec.Status()

	body := map[string]any{
		"state":            st.State.String(),
		"session_id":       st.SessionID,
		"events":           st.Events,
		"elapsed_seconds":  st.Elapsed.Seconds(),
		"dropped":          st.Dropped,
		"tail_subscribers": h.hub.Subscribers(),
	}
	if !st.StartedAt.IsZero() {
		body["started_at"] = st.StartedAt
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handlers) HandleLog(w http.ResponseWriter, r *http.Request) {
	log := h.rec.Snapshot()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"count":  len(log),
		"events": log,
	})
}
