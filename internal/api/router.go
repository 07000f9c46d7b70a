// Package api is the loopback debug surface of the recorder daemon: health,
// status, the captured log, metrics and a live event tail.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomy27/input-recorder/internal/tail"
)

func NewRouter(h *Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/status", h.HandleStatus)
	r.Get("/log", h.HandleLog)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Get("/tail", tail.Handler(h.hub, h.tailBuffer, h.log))

	return r
}
