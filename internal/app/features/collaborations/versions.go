// internal/app/features/collaborations/versions.go
package collaborations

import (
	"net/http"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/domain/collab"
)

// HandleCreateVersion handles POST /collaborations/{id}/versions.
func (h *Handler) HandleCreateVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var in collab.VersionInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	v, err := h.Svc.CreateVersion(ctx, id, uid, in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, v)
}

// HandleApproveVersion handles POST /collaborations/{id}/versions/{n}/approve.
func (h *Handler) HandleApproveVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	n, ok := versionNumber(w, r)
	if !ok {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	v, err := h.Svc.ApproveVersion(ctx, id, uid, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, v)
}

// HandleSetCurrentVersion handles POST /collaborations/{id}/versions/{n}/current.
func (h *Handler) HandleSetCurrentVersion(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	n, ok := versionNumber(w, r)
	if !ok {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	c, err := h.Svc.SetCurrentVersion(ctx, id, uid, n)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, c)
}
