package main

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"jobhunt-aggregator/internal/errors"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// shutdownToken returns $JOBHUNT_SHUTDOWN_TOKEN, or a fresh token written
// to <dataDir>/shutdown.token for the local client that launched us.
func shutdownToken(dataDir string) (string, error) {
	if v := strings.TrimSpace(os.Getenv("JOBHUNT_SHUTDOWN_TOKEN")); v != "" {
		return v, nil
	}
	token, err := randomToken(16)
	if err != nil {
		return "", errors.Wrap(err, "generate shutdown token")
	}
	path := filepath.Join(dataDir, "shutdown.token")
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return "", errors.Wrapf(err, "write %s", path)
	}
	return token, nil
}

func shutdownHandler(token string, stop func()) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		// Local-only guard
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			// RemoteAddr can sometimes be just a host
			host = r.RemoteAddr
		}
		if host != "127.0.0.1" && host != "::1" && host != "localhost" {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		got := r.Header.Get("X-Shutdown-Token")
		if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Respond first; serve drains in-flight requests once stop fires.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("shutting down\n"))
		go stop()
	}
}
