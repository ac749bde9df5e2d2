package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/secrets"
)

type SecretsHandler struct {
	Live *config.Live
	Log  *zap.SugaredLogger
}

type setIMAPPasswordReq struct {
	Password string `json:"password"`
}

func (h SecretsHandler) SetIMAPPassword(w http.ResponseWriter, r *http.Request) {
	var req setIMAPPasswordReq
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	// Account follows the live config, not a startup snapshot.
	account := secrets.IMAPKeyringAccount(h.Live.Get())
	if err := secrets.SetIMAPPassword(account, req.Password); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h SecretsHandler) DeleteIMAPPassword(w http.ResponseWriter, r *http.Request) {
	if err := secrets.DeleteIMAPPassword(secrets.IMAPKeyringAccount(h.Live.Get())); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
