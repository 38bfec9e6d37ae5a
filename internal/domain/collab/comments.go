// internal/domain/collab/comments.go
package collab

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CommentInput is a new comment or, with ParentID set, a reply to a
// top-level comment.
type CommentInput struct {
	Content       string              `json:"content"`
	VersionNumber *int                `json:"version_number,omitempty"`
	ElementID     string              `json:"element_id,omitempty"`
	ParentID      *primitive.ObjectID `json:"parent_id,omitempty"`
}

// AddComment appends an immutable comment by v. Anyone who can view c may
// comment; members are credited for it.
func AddComment(c *models.Collaboration, v Viewer, in CommentInput, now time.Time) (*models.Comment, error) {
	if v.ID.IsZero() {
		return nil, Forbidden("sign in to comment")
	}
	if !CanView(c, v) {
		return nil, Forbidden("this collaboration is private")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, Invalid("content is required")
	}
	if utf8.RuneCountInString(content) > MaxCommentLen {
		return nil, Invalid("content must be at most %d characters", MaxCommentLen)
	}
	elementID := strings.TrimSpace(in.ElementID)
	if elementID != "" && !validElementID(elementID) {
		return nil, Invalid("element_id must be at most 100 characters")
	}
	if in.VersionNumber != nil && versionIndex(c, *in.VersionNumber) < 0 {
		return nil, NotFound("version %d does not exist", *in.VersionNumber)
	}

	parent := -1
	if in.ParentID != nil {
		for i := range c.Comments {
			if c.Comments[i].ID == *in.ParentID {
				parent = i
				break
			}
		}
		if parent < 0 {
			return nil, NotFound("comment to reply to does not exist")
		}
	}

	cm := models.Comment{
		ID:        primitive.NewObjectID(),
		UserID:    v.ID,
		Content:   content,
		CreatedAt: now,
		ElementID: elementID,
	}
	if in.VersionNumber != nil {
		n := *in.VersionNumber
		cm.VersionNumber = &n
	}
	if parent >= 0 {
		c.Comments[parent].Replies = append(c.Comments[parent].Replies, cm)
	} else {
		c.Comments = append(c.Comments, cm)
	}
	Credit(c, v.ID, ActivityComment, now)
	RecomputeStats(c)
	c.UpdatedAt = now
	return &cm, nil
}
