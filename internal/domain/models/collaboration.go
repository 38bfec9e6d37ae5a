// internal/domain/models/collaboration.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CollaborationType classifies what a collaboration is producing.
type CollaborationType string

const (
	CollabTypeRemix             CollaborationType = "remix"
	CollabTypeCollaboration     CollaborationType = "collaboration"
	CollabTypeTemplateCreation  CollaborationType = "template_creation"
	CollabTypeChallengeResponse CollaborationType = "challenge_response"
)

// CollaborationTypes is the canonical list, also used by the schema validator.
var CollaborationTypes = []CollaborationType{
	CollabTypeRemix,
	CollabTypeCollaboration,
	CollabTypeTemplateCreation,
	CollabTypeChallengeResponse,
}

// CollaborationStatus is the lifecycle state of a collaboration.
type CollaborationStatus string

const (
	StatusDraft     CollaborationStatus = "draft"
	StatusActive    CollaborationStatus = "active"
	StatusReviewing CollaborationStatus = "reviewing"
	StatusCompleted CollaborationStatus = "completed"
	StatusCancelled CollaborationStatus = "cancelled"
)

// CollaborationStatuses is the canonical list, also used by the schema validator.
var CollaborationStatuses = []CollaborationStatus{
	StatusDraft,
	StatusActive,
	StatusReviewing,
	StatusCompleted,
	StatusCancelled,
}

// Terminal reports whether no further transitions are possible.
func (s CollaborationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CollaboratorRole is a user's standing on a collaboration.
// RoleOwner is never stored in Collaborators; it is derived from OwnerID.
type CollaboratorRole string

const (
	RoleOwner       CollaboratorRole = "owner"
	RoleAdmin       CollaboratorRole = "admin"
	RoleEditor      CollaboratorRole = "editor"
	RoleReviewer    CollaboratorRole = "reviewer"
	RoleContributor CollaboratorRole = "contributor"
)

// AssignableRoles are the roles that can be stored on a Collaborator or Invite.
var AssignableRoles = []CollaboratorRole{
	RoleContributor,
	RoleReviewer,
	RoleEditor,
	RoleAdmin,
}

// Collaboration is the aggregate root for a multi-user editing session.
//
// NOTE:
//   - Collaborators, invites, versions and comments are embedded; the whole
//     document is the unit of consistency.
//   - Revision is compared-and-incremented on every aggregate write.
//   - Stats.TotalViews and Stats.TotalForks are only ever changed with $inc.
type Collaboration struct {
	ID          primitive.ObjectID  `bson:"_id" json:"id"`
	Title       string              `bson:"title" json:"title"`
	TitleCI     string              `bson:"title_ci" json:"-"`
	Description string              `bson:"description" json:"description"`
	Type        CollaborationType   `bson:"type" json:"type"`
	Status      CollaborationStatus `bson:"status" json:"status"`
	Tags        []string            `bson:"tags" json:"tags"`

	OwnerID               primitive.ObjectID  `bson:"owner_id" json:"owner_id"`
	OriginalMemeID        *primitive.ObjectID `bson:"original_meme_id,omitempty" json:"original_meme_id,omitempty"`
	ParentCollaborationID *primitive.ObjectID `bson:"parent_collaboration_id,omitempty" json:"parent_collaboration_id,omitempty"`
	ChallengeID           *primitive.ObjectID `bson:"challenge_id,omitempty" json:"challenge_id,omitempty"`
	GroupID               *primitive.ObjectID `bson:"group_id,omitempty" json:"group_id,omitempty"`

	Collaborators  []Collaborator `bson:"collaborators" json:"collaborators"`
	PendingInvites []Invite       `bson:"pending_invites" json:"pending_invites"`
	Versions       []Version      `bson:"versions" json:"versions"`
	Comments       []Comment      `bson:"comments" json:"comments"`
	MergeHistory   []MergeRecord  `bson:"merge_history" json:"merge_history"`

	Settings Settings `bson:"settings" json:"settings"`
	Stats    Stats    `bson:"stats" json:"stats"`

	Revision  int64     `bson:"revision" json:"revision"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Collaborator is a non-owner participant.
type Collaborator struct {
	UserID            primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Role              CollaboratorRole    `bson:"role" json:"role"`
	JoinedAt          time.Time           `bson:"joined_at" json:"joined_at"`
	Permissions       []string            `bson:"permissions,omitempty" json:"permissions,omitempty"` // informational only
	ContributionScore int                 `bson:"contribution_score" json:"contribution_score"`
	LastActive        time.Time           `bson:"last_active" json:"last_active"`
	MergedFrom        *primitive.ObjectID `bson:"merged_from,omitempty" json:"merged_from,omitempty"`
}

// Invite is a pending offer to join with a given role.
type Invite struct {
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	InvitedBy primitive.ObjectID `bson:"invited_by" json:"invited_by"`
	Role      CollaboratorRole   `bson:"role" json:"role"`
	Message   string             `bson:"message,omitempty" json:"message,omitempty"`
	InvitedAt time.Time          `bson:"invited_at" json:"invited_at"`
	ExpiresAt time.Time          `bson:"expires_at" json:"expires_at"`
}

// Expired reports whether the invite can no longer be accepted at now.
func (i Invite) Expired(now time.Time) bool {
	return !now.Before(i.ExpiresAt)
}

// Version is one numbered snapshot in a collaboration's history.
type Version struct {
	Version     int                 `bson:"version" json:"version"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	CreatedBy   primitive.ObjectID  `bson:"created_by" json:"created_by"`
	CreatedAt   time.Time           `bson:"created_at" json:"created_at"`
	MemeID      primitive.ObjectID  `bson:"meme_id" json:"meme_id"`
	Changes     []Change            `bson:"changes" json:"changes"`
	Approved    bool                `bson:"approved" json:"approved"`
	ApprovedBy  *primitive.ObjectID `bson:"approved_by,omitempty" json:"approved_by,omitempty"`
	ApprovedAt  *time.Time          `bson:"approved_at,omitempty" json:"approved_at,omitempty"`
	IsCurrent   bool                `bson:"is_current" json:"is_current"`
	MergedFrom  *primitive.ObjectID `bson:"merged_from,omitempty" json:"merged_from,omitempty"`
}

// Comment is an immutable remark on a collaboration. Replies nest one level:
// a reply never carries replies of its own.
type Comment struct {
	ID            primitive.ObjectID  `bson:"_id" json:"id"`
	UserID        primitive.ObjectID  `bson:"user_id" json:"user_id"`
	Content       string              `bson:"content" json:"content"`
	CreatedAt     time.Time           `bson:"created_at" json:"created_at"`
	VersionNumber *int                `bson:"version_number,omitempty" json:"version_number,omitempty"`
	ElementID     string              `bson:"element_id,omitempty" json:"element_id,omitempty"`
	Replies       []Comment           `bson:"replies,omitempty" json:"replies,omitempty"`
	MergedFrom    *primitive.ObjectID `bson:"merged_from,omitempty" json:"merged_from,omitempty"`
}

// Settings control membership and review behaviour.
type Settings struct {
	IsPublic         bool       `bson:"is_public" json:"is_public"`
	AllowForks       bool       `bson:"allow_forks" json:"allow_forks"`
	RequireApproval  bool       `bson:"require_approval" json:"require_approval"`
	MaxCollaborators int        `bson:"max_collaborators" json:"max_collaborators"`
	Deadline         *time.Time `bson:"deadline,omitempty" json:"deadline,omitempty"`
	AllowAnonymous   bool       `bson:"allow_anonymous" json:"allow_anonymous"`
}

// Stats are cached counts derived from the embedded arrays.
type Stats struct {
	TotalVersions     int     `bson:"total_versions" json:"total_versions"`
	TotalContributors int     `bson:"total_contributors" json:"total_contributors"`
	TotalComments     int     `bson:"total_comments" json:"total_comments"`
	TotalViews        int64   `bson:"total_views" json:"total_views"`
	TotalLikes        int64   `bson:"total_likes" json:"total_likes"`
	TotalForks        int64   `bson:"total_forks" json:"total_forks"`
	CompletionRate    float64 `bson:"completion_rate" json:"completion_rate"`
}

// MergeOptions select which record categories a merge copies.
type MergeOptions struct {
	MergeVersions      bool `bson:"merge_versions" json:"merge_versions"`
	MergeComments      bool `bson:"merge_comments" json:"merge_comments"`
	MergeCollaborators bool `bson:"merge_collaborators" json:"merge_collaborators"`
}

// MergeSummary reports what one merge copied.
type MergeSummary struct {
	Options              MergeOptions `bson:"options" json:"options"`
	VersionsMerged       int          `bson:"versions_merged" json:"versions_merged"`
	CommentsMerged       int          `bson:"comments_merged" json:"comments_merged"`
	CollaboratorsMerged  int          `bson:"collaborators_merged" json:"collaborators_merged"`
	CollaboratorsSkipped int          `bson:"collaborators_skipped" json:"collaborators_skipped"`
	FirstVersion         int          `bson:"first_version,omitempty" json:"first_version,omitempty"`
	LastVersion          int          `bson:"last_version,omitempty" json:"last_version,omitempty"`
}

// MergeRecord is an entry in a parent's merge history.
type MergeRecord struct {
	FromFork  primitive.ObjectID `bson:"from_fork" json:"from_fork"`
	MergedAt  time.Time          `bson:"merged_at" json:"merged_at"`
	MergedBy  primitive.ObjectID `bson:"merged_by" json:"merged_by"`
	MergeData MergeSummary       `bson:"merge_data" json:"merge_data"`
}
