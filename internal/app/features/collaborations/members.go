// internal/app/features/collaborations/members.go
package collaborations

import (
	"net/http"
	"strings"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/domain/models"
)

type roleResponse struct {
	Success bool                    `json:"success"`
	Role    models.CollaboratorRole `json:"role,omitempty"`
}

// HandleJoin handles POST /collaborations/{id}/join {"message": "..."}.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Message string `json:"message"`
	}
	if !decode(w, r, &body) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	role, err := h.Svc.Join(ctx, id, uid, body.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, roleResponse{Success: true, Role: role})
}

// HandleInvite handles POST /collaborations/{id}/invites
// {"username": "...", "role": "...", "message": "..."}.
func (h *Handler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Username string                  `json:"username"`
		Role     models.CollaboratorRole `json:"role"`
		Message  string                  `json:"message"`
	}
	if !decode(w, r, &body) {
		return
	}
	if strings.TrimSpace(body.Username) == "" {
		apierr.BadRequest(w, r, "username is required")
		return
	}
	if body.Role == "" {
		body.Role = models.RoleContributor
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	inv, err := h.Svc.Invite(ctx, id, uid, body.Username, body.Role, body.Message)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusCreated, inv)
}

// HandleAcceptInvite handles POST /collaborations/{id}/invites/accept.
func (h *Handler) HandleAcceptInvite(w http.ResponseWriter, r *http.Request) {
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

	role, err := h.Svc.AcceptInvite(ctx, id, uid)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, roleResponse{Success: true, Role: role})
}

// HandleDeclineInvite handles POST /collaborations/{id}/invites/decline.
func (h *Handler) HandleDeclineInvite(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Svc.DeclineInvite(ctx, id, uid); err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, roleResponse{Success: true})
}

// HandleSetRole handles PUT /collaborations/{id}/collaborators/{userID}/role
// {"role": "..."}.
func (h *Handler) HandleSetRole(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	target, ok := objectID(w, r, "userID")
	if !ok {
		return
	}
	var body struct {
		Role models.CollaboratorRole `json:"role"`
	}
	if !decode(w, r, &body) {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	if err := h.Svc.UpdateCollaboratorRole(ctx, id, uid, target, body.Role); err != nil {
		h.fail(w, r, err)
		return
	}
	apierr.WriteJSON(w, http.StatusOK, roleResponse{Success: true, Role: body.Role})
}

// HandleRemoveCollaborator handles DELETE /collaborations/{id}/collaborators/{userID}.
func (h *Handler) HandleRemoveCollaborator(w http.ResponseWriter, r *http.Request) {
	uid, ok := actor(w, r)
	if !ok {
		return
	}
	id, ok := objectID(w, r, "id")
	if !ok {
		return
	}
	target, ok := objectID(w, r, "userID")
	if !ok {
		return
	}
	ctx, cancel := writeCtx(r)
	defer cancel()

	if err := h.Svc.RemoveCollaborator(ctx, id, uid, target); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
