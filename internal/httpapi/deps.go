package httpapi

import (
	"context"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/ingest"
	"jobhunt-aggregator/internal/poll"
	"jobhunt-aggregator/internal/search"
	"jobhunt-aggregator/internal/store"
)

type Deps struct {
	Store    store.Store
	Pipeline *ingest.Pipeline
	Search   *search.Engine

	// Hub feeds /events. Events receives everything handlers publish and
	// usually fans out to Hub and Redis.
	Hub    *events.Hub
	Events events.Publisher

	Config *config.Live

	// Poller is optional; without it /poll/* is not served.
	Poller *poll.Poller
	// BaseContext bounds work that outlives a request, such as a poll
	// started by POST /poll/run.
	BaseContext context.Context

	Log     *zap.SugaredLogger
	Version string
}
