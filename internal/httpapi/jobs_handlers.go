package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/config"
	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/ingest"
	"jobhunt-aggregator/internal/search"
)

type JobsHandler struct {
	Pipeline *ingest.Pipeline
	Search   *search.Engine
	Config   *config.Live
	Log      *zap.SugaredLogger
}

func (h JobsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	source, postings, err := ParseIngest(r.Body)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	res, err := h.Pipeline.Ingest(r.Context(), source, postings)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	WriteJSON(w, http.StatusOK, ingestResponse{
		Inserted:       res.Inserted,
		Merged:         res.Merged,
		TotalProcessed: len(postings),
	})
}

func (h JobsHandler) SearchJobs(w http.ResponseWriter, r *http.Request) {
	p, err := ParseSearchParams(r.URL.Query(), h.Config.Get())
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	page, err := h.Search.Search(r.Context(), p)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	WriteJSON(w, http.StatusOK, newSearchResponse(p, page))
}

// GetByPath serves GET /jobs/{id}.
func (h JobsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := pathID(r, "/jobs/")
	if id == "" {
		WriteError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	}
	job, ok, err := h.Search.Job(r.Context(), id)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	if !ok {
		WriteError(w, r, http.StatusNotFound, "not_found", "job not found")
		return
	}
	WriteJSON(w, http.StatusOK, toJobDetail(job))
}

// ParseSearchParams validates the query string of GET /jobs/search.
// Defaults and the page size ceiling come from cfg.
func ParseSearchParams(q url.Values, cfg config.Config) (search.Params, error) {
	p := search.Params{
		Query:    q.Get("q"),
		Company:  q.Get("company"),
		Location: q.Get("location"),
		Sort:     search.SortRelevance,
		Page:     1,
		PageSize: cfg.Search.DefaultPageSize,
	}

	intParam := func(name string, dst *int, min, max int) error {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			return nil
		}
		v, err := strconv.Atoi(raw)
		if err != nil || v < min || v > max {
			return errors.InvalidRequestf("%s must be an integer in %d..%d, got %q", name, min, max, raw)
		}
		*dst = v
		return nil
	}
	if err := intParam("page", &p.Page, 1, 1<<30); err != nil {
		return p, err
	}
	if err := intParam("page_size", &p.PageSize, 1, cfg.Search.MaxPageSize); err != nil {
		return p, err
	}
	if err := intParam("days", &p.Days, 0, 1<<20); err != nil {
		return p, err
	}

	if s := strings.TrimSpace(q.Get("sort")); s != "" {
		if s != search.SortRelevance && s != search.SortDate {
			return p, errors.InvalidRequestf("sort must be %q or %q, got %q", search.SortRelevance, search.SortDate, s)
		}
		p.Sort = s
	}
	if s := strings.TrimSpace(q.Get("source")); s != "" {
		src, err := domain.ParseSource(s)
		if err != nil {
			return p, err
		}
		p.Source = src
	}
	return p, nil
}
