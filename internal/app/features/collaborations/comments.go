// internal/app/features/collaborations/comments.go
package collaborations

import (
	"net/http"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/authz"
	"github.com/dalemusser/remixhub/internal/domain/collab"
)

// HandleComment handles POST /collaborations/{id}/comments.
func (h *Handler) HandleComment(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var in collab.CommentInput
	if !decode(w, r, &in) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	cm, err := h.Svc.AddComment(ctx, id, authz.Viewer(r), in)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, cm)
}

// HandleActivity handles POST /collaborations/{id}/activity {"kind": "..."}.
func (h *Handler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Kind collab.Activity `json:"kind"`
	}
	if !decode(w, r, &body) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	if err := h.Svc.TrackActivity(ctx, id, uid, body.Kind); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
