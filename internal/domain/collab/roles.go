// internal/domain/collab/roles.go
package collab

import (
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RoleOf resolves the user's role on c. The owner resolves to RoleOwner even
// though it is never stored in Collaborators. ok is false when the user is
// not associated with c.
//
// Every permission check goes through this function.
func RoleOf(c *models.Collaboration, user primitive.ObjectID) (role models.CollaboratorRole, ok bool) {
	if user.IsZero() {
		return "", false
	}
	if c.OwnerID == user {
		return models.RoleOwner, true
	}
	if i := collaboratorIndex(c, user); i >= 0 {
		return c.Collaborators[i].Role, true
	}
	return "", false
}

// IsCollaborator reports whether user is the owner or a listed collaborator.
func IsCollaborator(c *models.Collaboration, user primitive.ObjectID) bool {
	_, ok := RoleOf(c, user)
	return ok
}

// Action is a permission-gated operation on a collaboration.
type Action string

const (
	ActionEdit          Action = "edit"
	ActionCreateVersion Action = "create a version"
	ActionInvite        Action = "invite users"
	ActionManage        Action = "manage collaborators and settings"
	ActionApprove       Action = "approve versions"
)

var actionRoles = map[Action][]models.CollaboratorRole{
	ActionEdit:          {models.RoleOwner, models.RoleAdmin, models.RoleEditor},
	ActionCreateVersion: {models.RoleOwner, models.RoleAdmin, models.RoleEditor, models.RoleContributor},
	ActionInvite:        {models.RoleOwner, models.RoleAdmin, models.RoleEditor},
	ActionManage:        {models.RoleOwner, models.RoleAdmin},
	ActionApprove:       {models.RoleOwner, models.RoleAdmin, models.RoleReviewer},
}

// Can reports whether user's role on c permits action.
func Can(c *models.Collaboration, user primitive.ObjectID, action Action) bool {
	role, ok := RoleOf(c, user)
	if !ok {
		return false
	}
	for _, r := range actionRoles[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Authorize returns a Forbidden error naming the required roles when user may
// not perform action on c.
func Authorize(c *models.Collaboration, user primitive.ObjectID, action Action) error {
	if Can(c, user, action) {
		return nil
	}
	return Forbidden("role %s required to %s", joinRoles(actionRoles[action]), action)
}

func CanEdit(c *models.Collaboration, user primitive.ObjectID) bool {
	return Can(c, user, ActionEdit)
}

func CanCreateVersion(c *models.Collaboration, user primitive.ObjectID) bool {
	return Can(c, user, ActionCreateVersion)
}

func CanInvite(c *models.Collaboration, user primitive.ObjectID) bool {
	return Can(c, user, ActionInvite)
}

// CanManage covers removing collaborators, changing roles, updating settings
// and status transitions.
func CanManage(c *models.Collaboration, user primitive.ObjectID) bool {
	return Can(c, user, ActionManage)
}

func CanApprove(c *models.Collaboration, user primitive.ObjectID) bool {
	return Can(c, user, ActionApprove)
}

// Viewer identifies who is reading a collaboration. A zero ID is anonymous.
type Viewer struct {
	ID        primitive.ObjectID
	SiteAdmin bool
}

// CanView reports whether v may read c. Public collaborations are readable by
// anyone; private ones only by members and site admins.
func CanView(c *models.Collaboration, v Viewer) bool {
	if c.Settings.IsPublic || v.SiteAdmin {
		return true
	}
	return IsCollaborator(c, v.ID)
}

// roleRank orders roles for invite grants. Reviewer and contributor are peers.
func roleRank(r models.CollaboratorRole) int {
	switch r {
	case models.RoleOwner:
		return 4
	case models.RoleAdmin:
		return 3
	case models.RoleEditor:
		return 2
	case models.RoleReviewer, models.RoleContributor:
		return 1
	}
	return 0
}

// ValidRole reports whether r can be stored on a collaborator or invite.
func ValidRole(r models.CollaboratorRole) bool {
	for _, a := range models.AssignableRoles {
		if a == r {
			return true
		}
	}
	return false
}

func collaboratorIndex(c *models.Collaboration, user primitive.ObjectID) int {
	for i := range c.Collaborators {
		if c.Collaborators[i].UserID == user {
			return i
		}
	}
	return -1
}

func joinRoles(rs []models.CollaboratorRole) string {
	switch len(rs) {
	case 0:
		return ""
	case 1:
		return string(rs[0])
	}
	s := ""
	for i, r := range rs {
		switch {
		case i == 0:
			s = string(r)
		case i == len(rs)-1:
			s += " or " + string(r)
		default:
			s += ", " + string(r)
		}
	}
	return s
}
