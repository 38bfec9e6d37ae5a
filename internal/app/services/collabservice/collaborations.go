// internal/app/services/collabservice/collaborations.go
package collabservice

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/remixhub/internal/app/policy/collabpolicy"
	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// View is a collaboration as seen by one viewer.
type View struct {
	*models.Collaboration
	UserRole       models.CollaboratorRole `json:"user_role,omitempty"`
	IsCollaborator bool                    `json:"is_collaborator"`
	Access         collabpolicy.Access     `json:"access"`
}

func viewOf(c *models.Collaboration, v collab.Viewer) View {
	a := collabpolicy.For(c, v)
	return View{Collaboration: c, UserRole: a.Role, IsCollaborator: a.Role != "", Access: a}
}

// Create validates in, checks its references and stores a new collaboration
// owned by owner.
func (s *Service) Create(ctx context.Context, owner primitive.ObjectID, in collab.CreateInput) (*models.Collaboration, error) {
	in.Title = htmlsanitize.PlainText(in.Title)
	in.Description = htmlsanitize.PlainText(in.Description)
	if in.Tags != nil {
		tags := make([]string, len(in.Tags))
		for i, t := range in.Tags {
			tags[i] = htmlsanitize.PlainText(t)
		}
		in.Tags = tags
	}

	c, err := collab.New(owner, in, s.now())
	if err != nil {
		return nil, err
	}
	if c.OriginalMemeID != nil {
		if err := exists(ctx, s.memes, *c.OriginalMemeID, "original meme"); err != nil {
			return nil, err
		}
	}
	if c.ChallengeID != nil {
		if err := exists(ctx, s.challenges, *c.ChallengeID, "challenge"); err != nil {
			return nil, err
		}
	}
	if c.GroupID != nil {
		if err := exists(ctx, s.groups, *c.GroupID, "group"); err != nil {
			return nil, err
		}
		member, err := s.groups.IsMember(ctx, *c.GroupID, owner)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, collab.Forbidden("only members of the group can start a collaboration in it")
		}
	}

	if err := s.repo.Insert(ctx, c); err != nil {
		return nil, err
	}
	s.audit.CollabCreated(ctx, c.ID, owner, c.Title)
	s.log.Info("collaboration created",
		zap.String("collaboration_id", c.ID.Hex()),
		zap.String("owner_id", owner.Hex()),
		zap.String("type", string(c.Type)))
	return c, nil
}

// Get returns id as seen by v and counts the view. Private collaborations
// are Forbidden to anyone but members and site admins.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID, v collab.Viewer) (View, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if !collab.CanView(c, v) {
		return View{}, collab.Forbidden("this collaboration is private")
	}
	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.log.Warn("increment views failed", zap.String("collaboration_id", id.Hex()), zap.Error(err))
	} else {
		c.Stats.TotalViews++
	}
	return viewOf(c, v), nil
}

// Update applies a partial update. Titles, descriptions and tags are reduced
// to plain text first.
func (s *Service) Update(ctx context.Context, id, actor primitive.ObjectID, p collab.Patch) (*models.Collaboration, error) {
	if p.Title != nil {
		t := htmlsanitize.PlainText(*p.Title)
		p.Title = &t
	}
	if p.Description != nil {
		d := htmlsanitize.PlainText(*p.Description)
		p.Description = &d
	}
	if p.Tags != nil {
		tags := make([]string, len(*p.Tags))
		for i, t := range *p.Tags {
			tags[i] = htmlsanitize.PlainText(t)
		}
		p.Tags = &tags
	}

	var from models.CollaborationStatus
	c, err := s.mutate(ctx, id, "update", func(c *models.Collaboration, now time.Time) error {
		from = c.Status
		return collab.Update(c, actor, p, now)
	})
	if err != nil {
		return nil, err
	}
	if c.Status != from {
		s.audit.StatusChanged(ctx, id, actor, string(from), string(c.Status))
	}
	return c, nil
}

// Transition moves id to status to.
func (s *Service) Transition(ctx context.Context, id, actor primitive.ObjectID, to models.CollaborationStatus) (*models.Collaboration, error) {
	var from models.CollaborationStatus
	c, err := s.mutate(ctx, id, "transition", func(c *models.Collaboration, now time.Time) error {
		from = c.Status
		return collab.Transition(c, actor, to, now)
	})
	if err != nil {
		return nil, err
	}
	s.audit.StatusChanged(ctx, id, actor, string(from), string(to))
	return c, nil
}

// Delete hard-deletes id. Only the owner may, and only once every
// collaborator has been removed.
func (s *Service) Delete(ctx context.Context, id, actor primitive.ObjectID) error {
	release, err := s.lock(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	c, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := collab.CanDelete(c, actor); err != nil {
		return err
	}
	err = s.repo.Delete(ctx, id, c.Revision)
	if errors.Is(err, collabstore.ErrStale) {
		return collab.Conflict("collaboration was modified concurrently; please retry")
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return collab.NotFound("collaboration not found")
	}
	if err != nil {
		return err
	}
	s.audit.CollabDeleted(ctx, id, actor, c.Title)
	return nil
}

// Insights computes read-side metrics for id.
func (s *Service) Insights(ctx context.Context, id primitive.ObjectID, v collab.Viewer) (collab.Insights, error) {
	c, err := s.load(ctx, id)
	if err != nil {
		return collab.Insights{}, err
	}
	if !collab.CanView(c, v) {
		return collab.Insights{}, collab.Forbidden("this collaboration is private")
	}
	return collab.ComputeInsights(c, s.now()), nil
}

// List returns one page of collaborations. Mine restricts the list to those
// v owns or belongs to and requires a signed-in viewer.
func (s *Service) List(ctx context.Context, v collab.Viewer, mine bool, f collabstore.ListFilter, p paging.Params) (collabstore.Page, error) {
	f.Member = nil
	if mine {
		if v.ID.IsZero() {
			return collabstore.Page{}, collab.Forbidden("sign in to list your collaborations")
		}
		id := v.ID
		f.Member = &id
	}
	if f.Status != "" && !validStatus(f.Status) {
		return collabstore.Page{}, collab.Invalid("unknown status %q", f.Status)
	}
	if f.Type != "" && !validType(f.Type) {
		return collabstore.Page{}, collab.Invalid("unknown type %q", f.Type)
	}
	return s.repo.List(ctx, f, p)
}

// MyInvites lists user's live invitations, soonest expiry first.
func (s *Service) MyInvites(ctx context.Context, user primitive.ObjectID) ([]collabstore.PendingInvite, error) {
	if user.IsZero() {
		return nil, collab.Forbidden("sign in to see your invitations")
	}
	return s.repo.PendingInvitesFor(ctx, user, s.now())
}

func validStatus(st models.CollaborationStatus) bool {
	for _, v := range models.CollaborationStatuses {
		if v == st {
			return true
		}
	}
	return false
}

func validType(t models.CollaborationType) bool {
	for _, v := range models.CollaborationTypes {
		if v == t {
			return true
		}
	}
	return false
}
