// internal/app/features/collaborations/routes.go
package collaborations

import (
	"net/http"

	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the collaboration API. Reads are open to anonymous callers
// (visibility is enforced per document); writes require a signed-in user and
// pass through limit, which may be nil.
func Routes(h *Handler, limit func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	// READ
	r.Get("/", h.ServeList)
	r.Get("/{id}", h.ServeView)
	r.Get("/{id}/forks", h.ServeForks)
	r.Get("/{id}/insights", h.ServeInsights)

	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireSignedIn)
		if limit != nil {
			pr.Use(limit)
		}

		// CREATE / EDIT / DELETE
		pr.Post("/", h.HandleCreate)
		pr.Patch("/{id}", h.HandleUpdate)
		pr.Delete("/{id}", h.HandleDelete)
		pr.Post("/{id}/status", h.HandleStatus)

		// MEMBERSHIP
		pr.Post("/{id}/join", h.HandleJoin)
		pr.Post("/{id}/invites", h.HandleInvite)
		pr.Post("/{id}/invites/accept", h.HandleAcceptInvite)
		pr.Post("/{id}/invites/decline", h.HandleDeclineInvite)
		pr.Put("/{id}/collaborators/{userID}/role", h.HandleSetRole)
		pr.Delete("/{id}/collaborators/{userID}", h.HandleRemoveCollaborator)

		// VERSIONS
		pr.Post("/{id}/versions", h.HandleCreateVersion)
		pr.Post("/{id}/versions/{n}/approve", h.HandleApproveVersion)
		pr.Post("/{id}/versions/{n}/current", h.HandleSetCurrentVersion)

		// FORK / MERGE
		pr.Post("/{id}/fork", h.HandleFork)
		pr.Post("/{id}/merge", h.HandleMerge)

		// COMMENTS / ACTIVITY
		pr.Post("/{id}/comments", h.HandleComment)
		pr.Post("/{id}/activity", h.HandleActivity)
	})

	return r
}
