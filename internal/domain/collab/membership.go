// internal/domain/collab/membership.go
package collab

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddCollaborator lists user with role. It fails with Conflict when user is
// already associated with c or the collaborator cap is reached. Any pending
// invite for user is consumed.
func AddCollaborator(c *models.Collaboration, user primitive.ObjectID, role models.CollaboratorRole, now time.Time) error {
	if !ValidRole(role) {
		return Invalid("role must be one of contributor, reviewer, editor, admin")
	}
	if c.OwnerID == user {
		return Conflict("the owner is already part of this collaboration")
	}
	if collaboratorIndex(c, user) >= 0 {
		return Conflict("user is already a collaborator")
	}
	if len(c.Collaborators) >= c.Settings.MaxCollaborators {
		return Conflict("collaborator limit of %d reached", c.Settings.MaxCollaborators)
	}
	c.Collaborators = append(c.Collaborators, models.Collaborator{
		UserID:      user,
		Role:        role,
		JoinedAt:    now,
		Permissions: permissionsFor(role),
		LastActive:  now,
	})
	removeInvite(c, user)
	RecomputeStats(c)
	c.UpdatedAt = now
	return nil
}

// RemoveCollaborator drops target on behalf of actor (owner or admin). The
// owner is never listed, so removing the owner reports NotFound.
func RemoveCollaborator(c *models.Collaboration, actor, target primitive.ObjectID, now time.Time) error {
	if err := Authorize(c, actor, ActionManage); err != nil {
		return err
	}
	i := collaboratorIndex(c, target)
	if i < 0 {
		return NotFound("user is not a collaborator")
	}
	next := make([]models.Collaborator, 0, len(c.Collaborators)-1)
	next = append(next, c.Collaborators[:i]...)
	c.Collaborators = append(next, c.Collaborators[i+1:]...)
	RecomputeStats(c)
	c.UpdatedAt = now
	return nil
}

// UpdateCollaboratorRole changes target's role on behalf of actor (owner or admin).
func UpdateCollaboratorRole(c *models.Collaboration, actor, target primitive.ObjectID, role models.CollaboratorRole, now time.Time) error {
	if err := Authorize(c, actor, ActionManage); err != nil {
		return err
	}
	if !ValidRole(role) {
		return Invalid("role must be one of contributor, reviewer, editor, admin")
	}
	i := collaboratorIndex(c, target)
	if i < 0 {
		return NotFound("user is not a collaborator")
	}
	c.Collaborators[i].Role = role
	c.Collaborators[i].Permissions = permissionsFor(role)
	c.UpdatedAt = now
	return nil
}

// Invite records a pending invite for target. The inviter must be allowed to
// invite and cannot grant a role above their own. An expired invite for the
// same user is replaced; a live one is a Conflict.
func Invite(c *models.Collaboration, actor, target primitive.ObjectID, role models.CollaboratorRole, message string, now time.Time) (*models.Invite, error) {
	if err := Authorize(c, actor, ActionInvite); err != nil {
		return nil, err
	}
	if !ValidRole(role) {
		return nil, Invalid("role must be one of contributor, reviewer, editor, admin")
	}
	message = strings.TrimSpace(message)
	if utf8.RuneCountInString(message) > MaxMessageLen {
		return nil, Invalid("message must be at most %d characters", MaxMessageLen)
	}
	actorRole, _ := RoleOf(c, actor)
	if roleRank(role) > roleRank(actorRole) {
		return nil, Forbidden("a %s cannot invite someone as %s", actorRole, role)
	}
	if c.Status.Terminal() {
		return nil, Conflict("collaboration is %s and no longer accepts members", c.Status)
	}
	if IsCollaborator(c, target) {
		return nil, Conflict("user is already a collaborator")
	}
	if inv := findInvite(c, target); inv != nil && !inv.Expired(now) {
		return nil, Conflict("user already has a pending invite")
	}

	removeInvite(c, target)
	inv := models.Invite{
		UserID:    target,
		InvitedBy: actor,
		Role:      role,
		Message:   message,
		InvitedAt: now,
		ExpiresAt: now.Add(InviteTTL),
	}
	c.PendingInvites = append(c.PendingInvites, inv)
	Credit(c, actor, ActivityInviteSent, now)
	c.UpdatedAt = now
	return &inv, nil
}

// AcceptInvite consumes user's pending invite and adds them with the invited
// role. A failed add (cap reached) is returned and the invite is kept.
func AcceptInvite(c *models.Collaboration, user primitive.ObjectID, now time.Time) (models.CollaboratorRole, error) {
	inv := findInvite(c, user)
	if inv == nil {
		return "", NotFound("no pending invite for this user")
	}
	if inv.Expired(now) {
		return "", Conflict("invite expired on %s", inv.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if c.Status.Terminal() {
		return "", Conflict("collaboration is %s and no longer accepts members", c.Status)
	}
	role := inv.Role
	if err := AddCollaborator(c, user, role, now); err != nil {
		return "", err
	}
	return role, nil
}

// DeclineInvite removes user's pending invite.
func DeclineInvite(c *models.Collaboration, user primitive.ObjectID, now time.Time) error {
	if findInvite(c, user) == nil {
		return NotFound("no pending invite for this user")
	}
	removeInvite(c, user)
	c.UpdatedAt = now
	return nil
}

// Join adds user to an active collaboration. A live pending invite is
// consumed with its role; otherwise open collaborations admit the user as a
// contributor and approval-required ones refuse.
func Join(c *models.Collaboration, user primitive.ObjectID, now time.Time) (models.CollaboratorRole, error) {
	if c.Status != models.StatusActive {
		return "", Conflict("only active collaborations can be joined; this one is %s", c.Status)
	}
	if IsCollaborator(c, user) {
		return "", Conflict("user is already a collaborator")
	}
	if inv := findInvite(c, user); inv != nil && !inv.Expired(now) {
		return AcceptInvite(c, user, now)
	}
	if c.Settings.RequireApproval {
		return "", Forbidden("this collaboration requires an invitation to join")
	}
	if err := AddCollaborator(c, user, models.RoleContributor, now); err != nil {
		return "", err
	}
	return models.RoleContributor, nil
}

// PruneExpiredInvites drops invites that expired at or before now and
// reports how many were removed.
func PruneExpiredInvites(c *models.Collaboration, now time.Time) int {
	kept := make([]models.Invite, 0, len(c.PendingInvites))
	removed := 0
	for _, inv := range c.PendingInvites {
		if inv.Expired(now) {
			removed++
			continue
		}
		kept = append(kept, inv)
	}
	c.PendingInvites = kept
	return removed
}

// PendingInvite returns user's invite, or nil.
func PendingInvite(c *models.Collaboration, user primitive.ObjectID) *models.Invite {
	return findInvite(c, user)
}

func findInvite(c *models.Collaboration, user primitive.ObjectID) *models.Invite {
	for i := range c.PendingInvites {
		if c.PendingInvites[i].UserID == user {
			return &c.PendingInvites[i]
		}
	}
	return nil
}

func removeInvite(c *models.Collaboration, user primitive.ObjectID) {
	out := make([]models.Invite, 0, len(c.PendingInvites))
	for _, inv := range c.PendingInvites {
		if inv.UserID != user {
			out = append(out, inv)
		}
	}
	c.PendingInvites = out
}

// permissionsFor returns the informational permission tags shown to clients.
func permissionsFor(role models.CollaboratorRole) []string {
	var p []string
	for _, a := range []Action{ActionEdit, ActionCreateVersion, ActionInvite, ActionManage, ActionApprove} {
		for _, r := range actionRoles[a] {
			if r == role {
				p = append(p, permissionTag[a])
				break
			}
		}
	}
	return p
}

var permissionTag = map[Action]string{
	ActionEdit:          "edit",
	ActionCreateVersion: "create_version",
	ActionInvite:        "invite",
	ActionManage:        "manage",
	ActionApprove:       "approve",
}
