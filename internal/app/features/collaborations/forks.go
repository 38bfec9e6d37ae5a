// internal/app/features/collaborations/forks.go
package collaborations

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/authz"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleFork handles POST /collaborations/{id}/fork {"title": "..."}.
func (h *Handler) HandleFork(w http.ResponseWriter, r *http.Request) {
	if _, ok := actor(w, r); !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Title string `json:"title"`
	}
	if !decode(w, r, &body) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	f, err := h.Svc.Fork(ctx, id, authz.Viewer(r), body.Title)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, f)
}

// ServeForks handles GET /collaborations/{id}/forks?limit=.
func (h *Handler) ServeForks(w http.ResponseWriter, r *http.Request) {
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var limit int64
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			apierr.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}
	ctx, cancel := readCtx(r)
	defer cancel()

	forks, err := h.Svc.ListForks(ctx, id, authz.Viewer(r), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"items": forks})
}

type mergeRequest struct {
	ForkID             string `json:"fork_id"`
	MergeVersions      bool   `json:"merge_versions"`
	MergeComments      bool   `json:"merge_comments"`
	MergeCollaborators bool   `json:"merge_collaborators"`
}

// HandleMerge handles POST /collaborations/{id}/merge.
func (h *Handler) HandleMerge(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body mergeRequest
	if !decode(w, r, &body) {
		return
	}
	forkID, err := primitive.ObjectIDFromHex(body.ForkID)
	if err != nil {
		apierr.BadRequest(w, r, "fork_id must be a valid id")
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	sum, err := h.Svc.Merge(ctx, id, uid, forkID, models.MergeOptions{
		MergeVersions:      body.MergeVersions,
		MergeComments:      body.MergeComments,
		MergeCollaborators: body.MergeCollaborators,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, sum)
}
