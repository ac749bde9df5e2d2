package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/errors"
)

type APIError struct {
	Error struct {
		Code      string   `json:"code"`
		Message   string   `json:"message"`
		Hints     []string `json:"hints,omitempty"`
		RequestID string   `json:"request_id,omitempty"`
	} `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	var e APIError
	e.Error.Code = code
	e.Error.Message = message
	e.Error.RequestID = RequestIDFrom(r.Context())
	WriteJSON(w, status, e)
}

// writeErr maps err onto a status: rejected input is 422, a missing
// resource 404, anything else 500. Internal details are logged, not sent.
func writeErr(w http.ResponseWriter, r *http.Request, log *zap.SugaredLogger, err error) {
	var e APIError
	e.Error.RequestID = RequestIDFrom(r.Context())

	status := http.StatusInternalServerError
	switch {
	case errors.IsInvalidRequest(err):
		status = http.StatusUnprocessableEntity
		e.Error.Code = "invalid_request"
		e.Error.Message = err.Error()
		e.Error.Hints = errors.GetAllHints(err)
	case errors.IsNotFound(err):
		status = http.StatusNotFound
		e.Error.Code = "not_found"
		e.Error.Message = err.Error()
	default:
		e.Error.Code = "internal_error"
		e.Error.Message = "internal server error"
		log.Errorw("request failed",
			"request_id", e.Error.RequestID,
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
	}
	WriteJSON(w, status, e)
}
