package httpapi

import "net/http"

type HealthHandler struct {
	Version string
}

func (h HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteError(w, r, http.StatusNotFound, "not_found", "no route for "+r.URL.Path)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Job Aggregator API",
		"version": h.Version,
		"endpoints": map[string]string{
			"ingest":              "POST /jobs/ingest",
			"search":              "GET /jobs/search",
			"job_detail":          "GET /jobs/{job_id}",
			"applications":        "GET /applications",
			"create_applications": "POST /applications/{job_id}",
			"update_applications": "PATCH /applications/{job_id}",
			"delete_applications": "DELETE /applications/{job_id}",
			"events":              "GET /events",
		},
	})
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{"status": "healthy"})
}
