package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/futurelens/futurelens/internal/api/response"
	"github.com/futurelens/futurelens/internal/pipeline"
	"github.com/futurelens/futurelens/internal/store"
	"github.com/futurelens/futurelens/pkg/models"
)

const (
	// defaultWaitInterval is how long the stream waits for a live event
	// before checking for out-of-band status changes.
	defaultWaitInterval = 3 * time.Second
	// defaultStatusEvery is how often the durable store is re-read as a
	// safety net when no events arrive.
	defaultStatusEvery = 6 * time.Second
)

// StreamHandler serves Server-Sent Events progress for in-flight analyses.
type StreamHandler struct {
	service Service
	logger  *slog.Logger

	// Overridable for tests.
	waitInterval time.Duration
	statusEvery  time.Duration
}

func NewStreamHandler(service Service, logger *slog.Logger) *StreamHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamHandler{
		service:      service,
		logger:       logger,
		waitInterval: defaultWaitInterval,
		statusEvery:  defaultStatusEvery,
	}
}

// Stream writes SSE progress events until the analysis reaches a terminal
// status or the client disconnects. Late attachers to an already-terminal
// analysis receive exactly one terminal event.
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	handler := AnalysisHandler{service: h.service, logger: h.logger}
	id, ok := handler.analysisID(w, r)
	if !ok {
		return
	}

	a, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "NOT_FOUND", "Analysis not found", nil)
			return
		}
		h.logger.Error("loading analysis for stream", "analysis_id", id, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error", nil)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Streaming unsupported", nil)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	h.writeEvent(w, flusher, "status", map[string]string{
		"status":  a.Status,
		"message": "Connected",
	})

	if models.TerminalStatus(a.Status) {
		h.writeTerminal(w, flusher, a.Status)
		// The registry entry created at trigger time is dropped here too,
		// not only on the live-stream exit path.
		h.service.Release(context.WithoutCancel(r.Context()), id)
		return
	}

	ch := h.service.Subscribe(id)
	// Release uses a detached context: the client disconnecting must not
	// stop the terminal-status check.
	defer h.service.Release(context.WithoutCancel(r.Context()), id)

	lastStatusCheck := time.Now()
	for {
		select {
		case <-r.Context().Done():
			return

		case e := <-ch:
			h.writeEvent(w, flusher, e.Type, map[string]string{
				"message":   e.Message,
				"timestamp": e.Timestamp.UTC().Format(time.RFC3339Nano),
			})
			if e.Type == pipeline.EventAnalysisComplete || e.Type == pipeline.EventAnalysisFailed {
				return
			}

		case <-time.After(h.waitInterval):
			// Cheap fast-path: the run mirrors terminal transitions into
			// the cache, so a stream that missed the event converges fast.
			if status, found := h.service.CachedStatus(r.Context(), id); found && models.TerminalStatus(status) {
				h.writeTerminal(w, flusher, status)
				return
			}

			if time.Since(lastStatusCheck) >= h.statusEvery {
				lastStatusCheck = time.Now()
				status, err := h.service.Status(r.Context(), id)
				if err != nil {
					h.logger.Warn("stream status re-read failed", "analysis_id", id, "error", err)
				} else if models.TerminalStatus(status) {
					h.writeTerminal(w, flusher, status)
					return
				} else if status == models.AnalysisStatusProcessing {
					h.writeEvent(w, flusher, "status", map[string]string{
						"status":  status,
						"message": "Analysis in progress...",
					})
				}
			}

			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		}
	}
}

func (h *StreamHandler) writeTerminal(w http.ResponseWriter, flusher http.Flusher, status string) {
	event := pipeline.EventAnalysisComplete
	message := "Analysis completed successfully"
	if status == models.AnalysisStatusFailed {
		event = pipeline.EventAnalysisFailed
		message = "Analysis failed"
	}
	h.writeEvent(w, flusher, event, map[string]string{
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *StreamHandler) writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("marshaling stream event", "event", event, "error", err)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	flusher.Flush()
}
