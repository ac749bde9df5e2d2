package httpapi

import (
	"net/http"

	"go.uber.org/zap"

	"jobhunt-aggregator/internal/domain"
	"jobhunt-aggregator/internal/errors"
	"jobhunt-aggregator/internal/events"
	"jobhunt-aggregator/internal/store"
)

type ApplicationsHandler struct {
	Store  store.Store
	Events events.Publisher
	Log    *zap.SugaredLogger
}

func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	apps, err := h.Store.ListApplications(r.Context())
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	out := make([]applicationResponse, 0, len(apps))
	for _, a := range apps {
		job, ok, err := h.Store.FindJobByID(r.Context(), a.JobID)
		if err != nil {
			writeErr(w, r, h.Log, err)
			return
		}
		if !ok {
			// cascaded away between the two reads
			continue
		}
		out = append(out, toApplicationResponse(a, job))
	}
	WriteJSON(w, http.StatusOK, out)
}

// Upsert serves POST /applications/{job_id}.
func (h ApplicationsHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	jobID := pathID(r, "/applications/")
	var req applicationCreate
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	status, err := domain.ParseApplicationStatus(req.Status)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}

	app, err := h.Store.UpsertApplication(r.Context(), jobID, status, notes)
	if err != nil {
		writeErr(w, r, h.Log, errors.Wrap(err, "job"))
		return
	}
	h.respond(w, r, app)
}

// Patch serves PATCH /applications/{job_id}. Absent fields keep their value.
func (h ApplicationsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	jobID := pathID(r, "/applications/")
	var req applicationUpdate
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, r, h.Log, err)
		return
	}

	var patch store.ApplicationPatch
	if req.Status != nil {
		status, err := domain.ParseApplicationStatus(*req.Status)
		if err != nil {
			writeErr(w, r, h.Log, err)
			return
		}
		patch.Status = &status
	}
	patch.Notes = req.Notes

	app, err := h.Store.UpdateApplication(r.Context(), jobID, patch)
	if err != nil {
		writeErr(w, r, h.Log, errors.Wrap(err, "application"))
		return
	}
	h.respond(w, r, app)
}

func (h ApplicationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	jobID := pathID(r, "/applications/")
	if err := h.Store.DeleteApplication(r.Context(), jobID); err != nil {
		writeErr(w, r, h.Log, errors.Wrap(err, "application"))
		return
	}
	h.Events.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeApplicationChanged, 1,
		events.ApplicationChanged{JobID: jobID}))
	WriteJSON(w, http.StatusOK, map[string]string{"message": "Application deleted"})
}

func (h ApplicationsHandler) respond(w http.ResponseWriter, r *http.Request, app domain.Application) {
	h.Events.Publish(events.MakeEvent(RequestIDFrom(r.Context()), events.TypeApplicationChanged, 1,
		events.ApplicationChanged{JobID: app.JobID, Status: string(app.Status)}))

	job, ok, err := h.Store.FindJobByID(r.Context(), app.JobID)
	if err != nil {
		writeErr(w, r, h.Log, err)
		return
	}
	if !ok {
		writeErr(w, r, h.Log, errors.Wrap(store.ErrNotFound, "job"))
		return
	}
	WriteJSON(w, http.StatusOK, toApplicationResponse(app, job))
}
