package httpapi

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"jobhunt-aggregator/internal/errors"
)

const maxBodyBytes = 8 << 20

func methodMux(m map[string]http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h, ok := m[r.Method]; ok {
			h(w, r)
			return
		}
		WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	}
}

// decodeJSON reads exactly one JSON value from the body. Syntax errors,
// unknown fields and trailing data are invalid requests.
func decodeJSON(r *http.Request, v any) error {
	return decodeReader(r.Body, v)
}

func decodeReader(r io.Reader, v any) error {
	dec := json.NewDecoder(io.LimitReader(r, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidRequestf("invalid JSON: %v", err)
	}
	if dec.More() {
		return errors.InvalidRequestf("invalid JSON: trailing data")
	}
	return nil
}

// pathID returns the single segment after prefix, or "" when the path has
// none or more than one.
func pathID(r *http.Request, prefix string) string {
	id := strings.TrimPrefix(r.URL.Path, prefix)
	if id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
