// internal/domain/collab/scoring.go
package collab

import (
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity is a tracked kind of contribution.
type Activity string

const (
	ActivityVersionCreated  Activity = "version_created"
	ActivityComment         Activity = "comment"
	ActivityInviteSent      Activity = "invite_sent"
	ActivityVersionApproved Activity = "version_approved"
)

// weights is the single table of contribution points. Anything not listed
// earns defaultWeight.
var weights = map[Activity]int{
	ActivityVersionCreated:  10,
	ActivityComment:         5,
	ActivityInviteSent:      10,
	ActivityVersionApproved: 8,
}

const defaultWeight = 1

// Weight returns the contribution points for a.
func Weight(a Activity) int {
	if w, ok := weights[a]; ok {
		return w
	}
	return defaultWeight
}

// Credit adds Weight(a) to user's contribution score and refreshes LastActive.
// The owner carries no score record, so crediting the owner or a non-member
// is a no-op that returns false.
func Credit(c *models.Collaboration, user primitive.ObjectID, a Activity, now time.Time) bool {
	i := collaboratorIndex(c, user)
	if i < 0 {
		return false
	}
	c.Collaborators[i].ContributionScore += Weight(a)
	c.Collaborators[i].LastActive = now
	return true
}

// TrackActivity records a client-reported activity for user. Only members may
// report activity.
func TrackActivity(c *models.Collaboration, user primitive.ObjectID, a Activity, now time.Time) error {
	if a == "" {
		return Invalid("activity kind is required")
	}
	if len(a) > 50 {
		return Invalid("activity kind must be at most 50 characters")
	}
	if !IsCollaborator(c, user) {
		return Forbidden("only collaborators can record activity")
	}
	Credit(c, user, a, now)
	c.UpdatedAt = now
	return nil
}
