// internal/app/features/invites/routes.go
package invites

import "github.com/go-chi/chi/v5"

// MountRoutes registers GET /me and GET /me/invites on the supplied router.
// /me answers anonymous callers too; /me/invites checks the user itself.
func MountRoutes(r chi.Router, h *Handler) {
	r.Get("/me", h.ServeMe)
	r.Get("/me/invites", h.ServeInvites)
}
