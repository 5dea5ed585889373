// Package api serves the read side over HTTP: the bulletin feed, ingestion
// status and health.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"schoolbeat/internal/carousel"
	"schoolbeat/internal/logger"
	"schoolbeat/internal/metrics"
	"schoolbeat/internal/models"
	"schoolbeat/internal/store"
)

type Server struct {
	announcements store.Collection[models.Announcement]
	events        store.Collection[models.GeneralEvent]
	fixtures      store.Collection[models.AthleticsFixture]
	status        *metrics.Status
	now           func() time.Time

	router *mux.Router
}

// New wires the handlers. now is injectable so the feed window is testable;
// pass time.Now in production.
func New(
	announcements store.Collection[models.Announcement],
	events store.Collection[models.GeneralEvent],
	fixtures store.Collection[models.AthleticsFixture],
	status *metrics.Status,
	now func() time.Time,
) *Server {
	s := &Server{
		announcements: announcements,
		events:        events,
		fixtures:      fixtures,
		status:        status,
		now:           now,
	}

	r := mux.NewRouter()
	r.HandleFunc("/api/v1/carousel", s.handleCarousel).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/ingest/status", s.handleIngestStatus).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleCarousel returns the feed. A source that fails to load degrades to an
// empty slice so the feed stays up on partial storage trouble.
func (s *Server) handleCarousel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	announcements := listOrEmpty(ctx, s.announcements, "announcements")
	events := listOrEmpty(ctx, s.events, "events")
	fixtures := listOrEmpty(ctx, s.fixtures, "athletics")

	entries := carousel.Build(announcements, events, fixtures, s.now())
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"sources": s.status.Snapshot()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.status.Healthy() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listOrEmpty[T store.Record](ctx context.Context, col store.Collection[T], name string) []T {
	items, err := col.ListAll(ctx)
	if err != nil {
		logger.Warn("feed source unavailable", "source", name, "err", err)
		return nil
	}
	return items
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("write response", "err", err)
	}
}
