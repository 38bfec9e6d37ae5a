// internal/app/services/collabservice/comments.go
package collabservice

import (
	"context"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AddComment appends a comment (or a reply) by v. Content keeps safe inline
// formatting only.
func (s *Service) AddComment(ctx context.Context, id primitive.ObjectID, v collab.Viewer, in collab.CommentInput) (*models.Comment, error) {
	in.Content = htmlsanitize.Comment(in.Content)
	in.ElementID = htmlsanitize.PlainText(in.ElementID)

	var cm *models.Comment
	_, err := s.mutate(ctx, id, "add_comment", func(c *models.Collaboration, now time.Time) error {
		var err error
		cm, err = collab.AddComment(c, v, in, now)
		return err
	})
	return cm, err
}

// TrackActivity credits user for a client-reported activity on id.
func (s *Service) TrackActivity(ctx context.Context, id, user primitive.ObjectID, kind collab.Activity) error {
	_, err := s.mutate(ctx, id, "track_activity", func(c *models.Collaboration, now time.Time) error {
		return collab.TrackActivity(c, user, kind, now)
	})
	return err
}
