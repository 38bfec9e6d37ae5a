// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a platform account as seen by the collaboration service.
//
// NOTE:
//   - Accounts are created and authenticated elsewhere; this service only
//     reads them to resolve invite targets and enforce bans.
type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username       string             `bson:"username" json:"username"`
	UsernameCI     string             `bson:"username_ci" json:"-"` // lowercase, diacritics-stripped
	DisplayName    string             `bson:"display_name,omitempty" json:"display_name,omitempty"`
	Email          string             `bson:"email,omitempty" json:"-"`
	Role           string             `bson:"role" json:"role"`     // user | admin
	Status         string             `bson:"status" json:"status"` // active | banned | suspended
	SuspendedUntil *time.Time         `bson:"suspended_until,omitempty" json:"suspended_until,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// User statuses and site roles.
const (
	UserStatusActive    = "active"
	UserStatusBanned    = "banned"
	UserStatusSuspended = "suspended"

	UserRoleUser  = "user"
	UserRoleAdmin = "admin"
)

// Blocked reports whether the account may not act at now. A suspension with
// no end date, or one that has not yet lapsed, blocks.
func (u User) Blocked(now time.Time) bool {
	switch u.Status {
	case UserStatusBanned:
		return true
	case UserStatusSuspended:
		return u.SuspendedUntil == nil || now.Before(*u.SuspendedUntil)
	}
	return false
}
