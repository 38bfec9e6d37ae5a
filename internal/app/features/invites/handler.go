// internal/app/features/invites/handler.go
package invites

import (
	"context"
	"net/http"
	"time"

	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Source lists the caller's live invites. collabservice.Service satisfies it.
type Source interface {
	MyInvites(ctx context.Context, user primitive.ObjectID) ([]collabstore.PendingInvite, error)
}

// Handler serves the signed-in user's identity and pending invites.
type Handler struct {
	Invites Source
	Log     *zap.Logger
}

// NewHandler creates a new invites handler.
func NewHandler(src Source, logger *zap.Logger) *Handler {
	return &Handler{Invites: src, Log: logger}
}

type meResponse struct {
	IsAuthenticated bool   `json:"is_authenticated"`
	ID              string `json:"id,omitempty"`
	Username        string `json:"username,omitempty"`
	Role            string `json:"role,omitempty"`
}

// ServeMe returns the caller's authentication status and identity.
//
//	{ "is_authenticated": true, "id": "...", "username": "...", "role": "user" }
func (h *Handler) ServeMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierr.WriteJSON(w, http.StatusOK, meResponse{})
		return
	}
	apierr.WriteJSON(w, http.StatusOK, meResponse{
		IsAuthenticated: true,
		ID:              user.ID.Hex(),
		Username:        user.Username,
		Role:            user.Role,
	})
}

type inviteItem struct {
	CollaborationID string    `json:"collaboration_id"`
	Title           string    `json:"title"`
	InvitedBy       string    `json:"invited_by"`
	Role            string    `json:"role"`
	Message         string    `json:"message,omitempty"`
	InvitedAt       time.Time `json:"invited_at"`
	ExpiresAt       time.Time `json:"expires_at"`
}

// ServeInvites handles GET /me/invites. Expired invites are never listed.
func (h *Handler) ServeInvites(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Unauthorized(w, r, "sign in required")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	pending, err := h.Invites.MyInvites(ctx, user.ID)
	if err != nil {
		apierr.Respond(w, r, h.Log, err)
		return
	}
	items := make([]inviteItem, 0, len(pending))
	for _, p := range pending {
		items = append(items, inviteItem{
			CollaborationID: p.CollaborationID.Hex(),
			Title:           p.Title,
			InvitedBy:       p.Invite.InvitedBy.Hex(),
			Role:            string(p.Invite.Role),
			Message:         p.Invite.Message,
			InvitedAt:       p.Invite.InvitedAt,
			ExpiresAt:       p.Invite.ExpiresAt,
		})
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
