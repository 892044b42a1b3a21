package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rezghost/content-droid/internal/models"
)

// Pinger is the database health view.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// QueueHealth is the broker health view.
type QueueHealth interface {
	Healthy() bool
}

// VideoReader backs the debug status endpoint.
type VideoReader interface {
	GetVideo(ctx context.Context, videoID string) (*models.Video, error)
}

type Handler struct {
	db     Pinger
	videos VideoReader
	queue  QueueHealth
}

func NewHandler(db Pinger, videos VideoReader, queue QueueHealth) *Handler {
	return &Handler{db: db, videos: videos, queue: queue}
}

// Health reports process liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready reports whether the worker can actually take jobs: broker connected
// and database reachable.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"queue": "ok", "database": "ok"}
	status := http.StatusOK

	if !h.queue.Healthy() {
		checks["queue"] = "disconnected"
		status = http.StatusServiceUnavailable
	}
	if err := h.db.PingContext(ctx); err != nil {
		checks["database"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, checks)
}

// GetVideo exposes a single job record for operator debugging.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	video, err := h.videos.GetVideo(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, video)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
