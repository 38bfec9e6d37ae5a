// internal/app/features/collaborations/collaborations.go
package collaborations

import (
	"net/http"

	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/authz"
	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
)

type listResponse struct {
	Items      []models.Collaboration `json:"items"`
	PrevCursor string                 `json:"prev_cursor,omitempty"`
	NextCursor string                 `json:"next_cursor,omitempty"`
	HasPrev    bool                   `json:"has_prev"`
	HasNext    bool                   `json:"has_next"`
}

// ServeList handles GET /collaborations.
//
// Query: mine=1, status, type, tag, q (title prefix), limit, after, before.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := readCtx(r)
	defer cancel()

	f := collabstore.ListFilter{
		Status: models.CollaborationStatus(query.Get(r, "status")),
		Type:   models.CollaborationType(query.Get(r, "type")),
		Tag:    query.Get(r, "tag"),
		Search: query.Get(r, "q"),
	}
	mine := query.Get(r, "mine")
	page, err := h.Svc.List(ctx, authz.Viewer(r), mine == "1" || mine == "true", f, paging.ParseParams(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, listResponse{
		Items:      page.Items,
		PrevCursor: page.PrevCursor,
		NextCursor: page.NextCursor,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
	})
}

// HandleCreate handles POST /collaborations.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	var in collab.CreateInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	c, err := h.Svc.Create(ctx, uid, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, c)
}

// ServeView handles GET /collaborations/{id}. The response carries the
// viewer's role and access flags.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := readCtx(r)
	defer cancel()

	v, err := h.Svc.Get(ctx, id, authz.Viewer(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, v)
}

// HandleUpdate handles PATCH /collaborations/{id}. Fields outside
// collab.Patch (owner, collaborators, versions, stats) are ignored.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var p collab.Patch
	if !decode(w, r, &p) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	c, err := h.Svc.Update(ctx, id, uid, p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, c)
}

// HandleDelete handles DELETE /collaborations/{id}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	if err := h.Svc.Delete(ctx, id, uid); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleStatus handles POST /collaborations/{id}/status {"status": "..."}.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Status models.CollaborationStatus `json:"status"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Status == "" {
		apierr.BadRequest(w, r, "status is required")
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	c, err := h.Svc.Transition(ctx, id, uid, body.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, c)
}

// ServeInsights handles GET /collaborations/{id}/insights.
func (h *Handler) ServeInsights(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	ctx, cancel := readCtx(r)
	defer cancel()

	in, err := h.Svc.Insights(ctx, id, authz.Viewer(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, in)
}
