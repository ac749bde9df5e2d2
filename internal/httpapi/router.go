package httpapi

import (
	"net/http"

	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/logger"
)

// NewMux returns the raw mux so main() can still attach /shutdown (needs srv+token).
func NewMux(d Deps) *http.ServeMux {
	log := logger.OrNop(d.Log)
	pub := d.Events
	if pub == nil {
		pub = events.Nop
	}
	mux := http.NewServeMux()

	hh := HealthHandler{Version: d.Version}
	mux.HandleFunc("/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Root,
	}))
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))

	// Jobs
	jh := JobsHandler{Pipeline: d.Pipeline, Search: d.Search, Config: d.Config, Log: log}
	mux.HandleFunc("/jobs/ingest", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: jh.Ingest,
	}))
	mux.HandleFunc("/jobs/search", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.SearchJobs,
	}))
	mux.HandleFunc("/jobs/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: jh.GetByPath, // expects /jobs/{id}
	}))

	// Applications
	ah := ApplicationsHandler{Store: d.Store, Events: pub, Log: log}
	mux.HandleFunc("/applications", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ah.List,
	}))
	mux.HandleFunc("/applications/", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   ah.Upsert,
		http.MethodPatch:  ah.Patch,
		http.MethodDelete: ah.Delete,
	}))

	// Config
	ch := ConfigHandler{Live: d.Config, Log: log}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use the live config, NOT a snapshot)
	sh := SecretsHandler{Live: d.Config, Log: log}
	mux.HandleFunc("/api/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost:   sh.SetIMAPPassword,
		http.MethodDelete: sh.DeleteIMAPPassword,
	}))

	// Polling
	if d.Poller != nil {
		ph := PollHandler{Poller: d.Poller, Ctx: d.BaseContext, Log: log}
		mux.HandleFunc("/poll/status", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: ph.Status,
		}))
		mux.HandleFunc("/poll/run", methodMux(map[string]http.HandlerFunc{
			http.MethodPost: ph.Run,
		}))
	}

	// SSE events
	if d.Hub != nil {
		eh := EventsHandler{Hub: d.Hub, Log: d.Log}
		mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
			http.MethodGet: eh.ServeSSE,
		}))
	}

	return mux
}

// Handler wraps h with the standard middleware chain.
func Handler(h http.Handler, d Deps) http.Handler {
	log := logger.OrNop(d.Log)
	return Chain(h,
		RequestID,
		Recover(log),
		AccessLog(log),
		Cors(func() []string { return d.Config.Get().CORS.AllowedOrigins }),
	)
}
