// internal/domain/models/group.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Group is a community group a collaboration may be attached to.
//
// NOTE:
//   - Members are embedded; group administration lives in the community
//     service. This service only checks existence and membership.
type Group struct {
	ID          primitive.ObjectID `bson:"_id" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Description string             `bson:"description" json:"description"`
	Privacy     string             `bson:"privacy" json:"privacy"` // public | private | secret
	Members     []GroupMember      `bson:"members" json:"members"`

	Status string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// GroupMember is a user's membership in a group.
type GroupMember struct {
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	Role     string             `bson:"role" json:"role"` // member | moderator | admin
	JoinedAt time.Time          `bson:"joined_at" json:"joined_at"`
}
