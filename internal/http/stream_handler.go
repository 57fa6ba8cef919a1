package api

import (
	"net/http"

	"contest-voting/internal/metrics"
	"contest-voting/internal/platform/apperr"
)

// @Summary     Live change notifications
// @Description Long-lived SSE stream. Emits an init event on connect, a
// @Description message per vote change, and keepalive comments while idle.
// @Tags        events
// @Produce     text/event-stream
// @Success     200
// @Router      /api/v1/events [get]
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		errorResponse(w, apperr.Internal("streaming_unsupported", "response writer does not support streaming", nil))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	metrics.StreamConnected()
	defer metrics.StreamDisconnected()

	if err := h.relay.Run(r.Context(), w, flusher.Flush); err != nil {
		slogLogger.Warn("event stream ended with error", "err", err)
	}
}
