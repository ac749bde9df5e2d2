package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/events"
)

type EventsHandler struct {
	Hub *events.Hub
	Log *zap.SugaredLogger
	// KeepAlive is the interval of comment lines that keep proxies from
	// closing an idle stream. Zero means 25s.
	KeepAlive time.Duration
}

func (h EventsHandler) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, r, http.StatusInternalServerError, "stream_unsupported", "Streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Hub.Subscribe()
	defer h.Hub.Unsubscribe(ch)

	// Ping as a proper event envelope
	reqID := RequestIDFrom(r.Context())
	if h.Log != nil {
		h.Log.Debugw("sse client connected", "request_id", reqID, "subscribers", h.Hub.Subscribers())
	}
	ping := events.MakeEvent(reqID, "ping", 1, nil)
	fmt.Fprintf(w, "event: message\ndata: %s\n\n", ping)
	flusher.Flush()

	every := h.KeepAlive
	if every <= 0 {
		every = 25 * time.Second
	}
	tick := time.NewTicker(every)
	defer tick.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-tick.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
