// Package sse adapts the Progress Bus to external HTTP subscribers: one
// GET per job id, streamed as server-sent events until the job reaches a
// terminal state. Request parsing and response body shape are a thin
// wiring layer; the event ordering and retention guarantees all come from
// progress.Bus.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/merchantiq/docverify/pkg/domain"
	"github.com/merchantiq/docverify/pkg/progress"
)

const keepaliveInterval = 30 * time.Second

// wireEvent is the JSON shape documented for the streaming transport: field
// names match the external contract, not the internal domain.ProgressEvent
// struct tags.
type wireEvent struct {
	DocumentID string        `json:"document_id"`
	Step       string        `json:"step"`
	Progress   int           `json:"progress"`
	Message    string        `json:"message"`
	Status     domain.Status `json:"status"`
	Timestamp  time.Time     `json:"timestamp"`
}

// Handler wires a progress.Bus to chi's router.
type Handler struct {
	bus *progress.Bus
	log *zap.Logger
}

// NewHandler builds a Handler for bus.
func NewHandler(bus *progress.Bus, log *zap.Logger) *Handler {
	return &Handler{bus: bus, log: log}
}

// Routes mounts the progress stream under r, with CORS configured for the
// origins allowed to open a long-lived browser connection.
func (h *Handler) Routes(r chi.Router, allowedOrigins []string) {
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{http.MethodGet},
	}))
	r.Get("/jobs/{jobID}/progress", h.stream)
}

// stream holds the connection open, writing each ProgressEvent as it is
// published, a keepalive comment every 30s of inactivity, and closing once
// a terminal event is delivered or the client disconnects.
func (h *Handler) stream(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	handle := h.bus.Subscribe(jobID)
	defer h.bus.Unsubscribe(handle)

	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-handle.Events():
			if !open {
				return
			}
			if err := writeEvent(w, event); err != nil {
				h.log.Warn("sse: write failed, closing stream", zap.String("job_id", jobID), zap.Error(err))
				return
			}
			flusher.Flush()
			ticker.Reset(keepaliveInterval)
			if event.IsTerminal() {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ":keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, event domain.ProgressEvent) error {
	payload, err := json.Marshal(wireEvent{
		DocumentID: event.JobID,
		Step:       event.Step,
		Progress:   event.Percent,
		Message:    event.Message,
		Status:     event.Status,
		Timestamp:  event.Timestamp,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", payload)
	return err
}
