package httpapi

import (
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
)

type ConfigHandler struct {
	Live *config.Live
	Log  *zap.SugaredLogger
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Live.Get())
}

// Put replaces the editable sections of the config file. app, database and
// redis only take effect on restart, so they are kept as they are on disk.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	var incoming config.Config
	if err := decodeJSON(r, &incoming); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	onDisk, err := config.Load(h.Live.Path())
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	incoming.App = onDisk.App
	incoming.Database = onDisk.Database
	incoming.Redis = onDisk.Redis

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		// Structured errors so the UI can show them per field
		WriteJSON(w, http.StatusUnprocessableEntity, vr)
		return
	}

	if err := config.SaveAtomic(h.Live.Path(), normalized); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	saved, err := h.Live.Reload()
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	saved, _ = config.NormalizeAndValidate(saved)
	h.Live.Set(saved)
	h.Log.Infow("config saved", "path", h.Live.Path(), "request_id", RequestIDFrom(r.Context()))
	WriteJSON(w, http.StatusOK, saved)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.Live.Path())
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}

func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	_, vr := config.NormalizeAndValidate(h.Live.Get())
	WriteJSON(w, http.StatusOK, vr)
}
