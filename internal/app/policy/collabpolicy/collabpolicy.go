// internal/app/policy/collabpolicy/collabpolicy.go
package collabpolicy

import (
	"net/http"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/authz"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
)

// Access summarises what a caller may do with one collaboration. It is
// returned alongside the document so clients can show or hide controls; the
// service re-checks every action on write.
type Access struct {
	Role          models.CollaboratorRole `json:"role,omitempty"`
	View          bool                    `json:"view"`
	Comment       bool                    `json:"comment"`
	Edit          bool                    `json:"edit"`
	CreateVersion bool                    `json:"create_version"`
	Invite        bool                    `json:"invite"`
	Manage        bool                    `json:"manage"`
	Approve       bool                    `json:"approve"`
	Delete        bool                    `json:"delete"`
	Fork          bool                    `json:"fork"`
	Join          bool                    `json:"join"`
}

// For computes v's access to c.
//
// Rules:
//   - Anonymous viewers can at most view a public collaboration.
//   - Role-gated actions follow collab.Can.
//   - Join is offered to signed-in non-members of an active collaboration
//     that is open or holds an invite for them.
func For(c *models.Collaboration, v collab.Viewer) Access {
	a := Access{View: collab.CanView(c, v)}
	if v.ID.IsZero() || !a.View {
		return a
	}
	if role, ok := collab.RoleOf(c, v.ID); ok {
		a.Role = role
	}
	a.Comment = true
	a.Edit = collab.CanEdit(c, v.ID)
	a.CreateVersion = collab.CanCreateVersion(c, v.ID) && !c.Status.Terminal()
	a.Invite = collab.CanInvite(c, v.ID)
	a.Manage = collab.CanManage(c, v.ID)
	a.Approve = collab.CanApprove(c, v.ID)
	a.Delete = collab.CanDelete(c, v.ID) == nil
	a.Fork = c.Settings.AllowForks
	if a.Role == "" && c.Status == models.StatusActive {
		inv := collab.PendingInvite(c, v.ID)
		a.Join = !c.Settings.RequireApproval || (inv != nil && !inv.Expired(time.Now()))
	}
	return a
}

// FromRequest computes the request user's access to c.
func FromRequest(r *http.Request, c *models.Collaboration) Access {
	return For(c, authz.Viewer(r))
}

// CanView reports whether the request user may read c.
func CanView(r *http.Request, c *models.Collaboration) bool {
	return collab.CanView(c, authz.Viewer(r))
}

// Permissions lists the granted action tags of a, in a stable order.
func (a Access) Permissions() []string {
	var out []string
	add := func(ok bool, tag string) {
		if ok {
			out = append(out, tag)
		}
	}
	add(a.View, "view")
	add(a.Comment, "comment")
	add(a.Edit, "edit")
	add(a.CreateVersion, "create_version")
	add(a.Invite, "invite")
	add(a.Manage, "manage")
	add(a.Approve, "approve")
	add(a.Delete, "delete")
	add(a.Fork, "fork")
	add(a.Join, "join")
	return out
}
