// internal/app/services/collabservice/members.go
package collabservice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Join adds user to id, consuming a live invite when there is one.
func (s *Service) Join(ctx context.Context, id, user primitive.ObjectID, message string) (models.CollaboratorRole, error) {
	var role models.CollaboratorRole
	var invited bool
	_, err := s.mutate(ctx, id, "join", func(c *models.Collaboration, now time.Time) error {
		inv := collab.PendingInvite(c, user)
		invited = inv != nil && !inv.Expired(now)
		var err error
		role, err = collab.Join(c, user, now)
		return err
	})
	if err != nil {
		return "", err
	}
	data := map[string]any{"role": string(role), "via_invite": invited}
	if m := strings.TrimSpace(htmlsanitize.PlainText(message)); m != "" {
		data["message"] = m
	}
	s.publish(ctx, events.CollaboratorJoin, id, user, data)
	return role, nil
}

// Invite offers the account named username a role on id.
func (s *Service) Invite(ctx context.Context, id, actor primitive.ObjectID, username string, role models.CollaboratorRole, message string) (*models.Invite, error) {
	target, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, collab.NotFound("user %q not found", strings.TrimSpace(username))
	}
	if err != nil {
		return nil, err
	}
	if target.Blocked(s.now()) {
		return nil, collab.Conflict("@%s cannot be invited while their account is %s", target.Username, target.Status)
	}
	message = htmlsanitize.PlainText(message)

	var inv *models.Invite
	_, err = s.mutate(ctx, id, "invite", func(c *models.Collaboration, now time.Time) error {
		var err error
		inv, err = collab.Invite(c, actor, target.ID, role, message, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.InviteSent, id, actor, map[string]any{
		"user_id":    target.ID.Hex(),
		"role":       string(inv.Role),
		"expires_at": inv.ExpiresAt,
	})
	return inv, nil
}

// AcceptInvite turns user's pending invite into membership.
func (s *Service) AcceptInvite(ctx context.Context, id, user primitive.ObjectID) (models.CollaboratorRole, error) {
	var role models.CollaboratorRole
	_, err := s.mutate(ctx, id, "accept_invite", func(c *models.Collaboration, now time.Time) error {
		var err error
		role, err = collab.AcceptInvite(c, user, now)
		return err
	})
	if err != nil {
		return "", err
	}
	s.publish(ctx, events.InviteAccepted, id, user, map[string]any{"role": string(role)})
	return role, nil
}

// DeclineInvite drops user's pending invite.
func (s *Service) DeclineInvite(ctx context.Context, id, user primitive.ObjectID) error {
	_, err := s.mutate(ctx, id, "decline_invite", func(c *models.Collaboration, now time.Time) error {
		return collab.DeclineInvite(c, user, now)
	})
	return err
}

// RemoveCollaborator removes target from id.
func (s *Service) RemoveCollaborator(ctx context.Context, id, actor, target primitive.ObjectID) error {
	_, err := s.mutate(ctx, id, "remove_collaborator", func(c *models.Collaboration, now time.Time) error {
		return collab.RemoveCollaborator(c, actor, target, now)
	})
	if err != nil {
		return err
	}
	s.audit.CollaboratorRemoved(ctx, id, actor, target)
	return nil
}

// UpdateCollaboratorRole changes target's role on id.
func (s *Service) UpdateCollaboratorRole(ctx context.Context, id, actor, target primitive.ObjectID, role models.CollaboratorRole) error {
	_, err := s.mutate(ctx, id, "update_role", func(c *models.Collaboration, now time.Time) error {
		return collab.UpdateCollaboratorRole(c, actor, target, role, now)
	})
	if err != nil {
		return err
	}
	s.audit.CollaboratorRoleChanged(ctx, id, actor, target, string(role))
	return nil
}
