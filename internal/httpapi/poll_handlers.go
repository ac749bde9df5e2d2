package httpapi

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/poll"
)

type PollHandler struct {
	Poller *poll.Poller
	// Ctx bounds polls started over HTTP; they outlive the request.
	Ctx context.Context
	Log *zap.SugaredLogger
}

func (h PollHandler) Status(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Poller.Status())
}

// Run starts a poll in the background and answers right away.
func (h PollHandler) Run(w http.ResponseWriter, r *http.Request) {
	if h.Poller.Status().Running {
		WriteJSON(w, http.StatusConflict, map[string]any{"ok": false, "msg": "already running"})
		return
	}

	ctx := h.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	go func() {
		if _, err := h.Poller.Run(ctx); err != nil {
			h.Log.Warnw("manual poll failed", "error", err)
		}
	}()
	WriteJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}
