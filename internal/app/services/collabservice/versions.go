// internal/app/services/collabservice/versions.go
package collabservice

import (
	"context"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateVersion appends a version by actor. The meme must exist.
func (s *Service) CreateVersion(ctx context.Context, id, actor primitive.ObjectID, in collab.VersionInput) (*models.Version, error) {
	if in.MemeID.IsZero() {
		return nil, collab.Invalid("meme_id is required")
	}
	in.Title = htmlsanitize.PlainText(in.Title)
	in.Description = htmlsanitize.PlainText(in.Description)

	var v *models.Version
	memeChecked := false
	_, err := s.mutate(ctx, id, "create_version", func(c *models.Collaboration, now time.Time) error {
		// Permission failures take precedence over a bad meme reference.
		if err := collab.Authorize(c, actor, collab.ActionCreateVersion); err != nil {
			return err
		}
		if !memeChecked {
			if err := exists(ctx, s.memes, in.MemeID, "meme"); err != nil {
				return err
			}
			memeChecked = true
		}
		var err error
		v, err = collab.CreateVersion(c, actor, in, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.VersionCreated, id, actor, map[string]any{
		"version":  v.Version,
		"meme_id":  v.MemeID.Hex(),
		"approved": v.Approved,
	})
	return v, nil
}

// ApproveVersion approves version n of id.
func (s *Service) ApproveVersion(ctx context.Context, id, actor primitive.ObjectID, n int) (*models.Version, error) {
	var v *models.Version
	_, err := s.mutate(ctx, id, "approve_version", func(c *models.Collaboration, now time.Time) error {
		var err error
		v, err = collab.ApproveVersion(c, actor, n, now)
		return err
	})
	return v, err
}

// SetCurrentVersion makes version n the single current version of id.
func (s *Service) SetCurrentVersion(ctx context.Context, id, actor primitive.ObjectID, n int) (*models.Collaboration, error) {
	return s.mutate(ctx, id, "set_current_version", func(c *models.Collaboration, now time.Time) error {
		return collab.SetCurrentVersion(c, actor, n, now)
	})
}
