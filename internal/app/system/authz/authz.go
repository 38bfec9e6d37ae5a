// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's site role (lowercased), ObjectID, and a found
// flag. Anonymous callers get "visitor", NilObjectID, false.
func UserCtx(r *http.Request) (role string, userID primitive.ObjectID, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok || u.ID.IsZero() {
		return "visitor", primitive.NilObjectID, false
	}
	return strings.ToLower(u.Role), u.ID, true
}

// IsSiteAdmin reports whether the caller is a site administrator.
func IsSiteAdmin(r *http.Request) bool {
	role, _, ok := UserCtx(r)
	return ok && role == "admin"
}

// HasAnyRole reports whether the caller has any of the given site roles.
func HasAnyRole(r *http.Request, roles ...string) bool {
	role, _, ok := UserCtx(r)
	if !ok {
		return false
	}
	for _, want := range roles {
		if role == strings.ToLower(strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

// Viewer describes the caller for visibility checks. Anonymous callers get
// the zero Viewer.
func Viewer(r *http.Request) collab.Viewer {
	role, id, ok := UserCtx(r)
	if !ok {
		return collab.Viewer{}
	}
	return collab.Viewer{ID: id, SiteAdmin: role == "admin"}
}
