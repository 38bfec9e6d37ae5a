// internal/domain/collab/collab.go
//
// Package collab holds the collaboration aggregate's rules: creation,
// membership, versioning, fork and merge, comments, scoring and insights.
// Functions mutate a *models.Collaboration in memory and never touch storage;
// every failure is returned before the aggregate is changed, so a caller that
// discards the value on error never persists a partial mutation.
package collab

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Limits.
const (
	MaxTitleLen          = 100
	MaxDescriptionLen    = 1000
	MaxCommentLen        = 1000
	MaxMessageLen        = 500
	MaxTags              = 10
	MaxTagLen            = 30
	MinCollaborators     = 2
	MaxCollaborators     = 50
	DefaultMaxCollabs    = 10
	ForkMaxCollaborators = 10
	InviteTTL            = 7 * 24 * time.Hour
)

// SettingsInput carries optional settings; nil fields keep their current or
// default value.
type SettingsInput struct {
	IsPublic         *bool      `json:"is_public,omitempty"`
	AllowForks       *bool      `json:"allow_forks,omitempty"`
	RequireApproval  *bool      `json:"require_approval,omitempty"`
	MaxCollaborators *int       `json:"max_collaborators,omitempty"`
	Deadline         *time.Time `json:"deadline,omitempty"`
	AllowAnonymous   *bool      `json:"allow_anonymous,omitempty"`
}

// CreateInput is the caller-supplied part of a new collaboration.
type CreateInput struct {
	Title          string                     `json:"title"`
	Description    string                     `json:"description"`
	Type           models.CollaborationType   `json:"type"`
	Status         models.CollaborationStatus `json:"status,omitempty"` // draft (default) or active
	OriginalMemeID *primitive.ObjectID        `json:"original_meme_id,omitempty"`
	ChallengeID    *primitive.ObjectID        `json:"challenge_id,omitempty"`
	GroupID        *primitive.ObjectID        `json:"group_id,omitempty"`
	Settings       *SettingsInput             `json:"settings,omitempty"`
	Tags           []string                   `json:"tags,omitempty"`
}

// New validates in and builds a collaboration owned by owner. Reference
// existence (meme, challenge, group) is the caller's concern.
func New(owner primitive.ObjectID, in CreateInput, now time.Time) (*models.Collaboration, error) {
	if owner.IsZero() {
		return nil, Invalid("owner is required")
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}
	typ := in.Type
	if typ == "" {
		typ = models.CollabTypeCollaboration
	}
	if !validType(typ) {
		return nil, Invalid("type must be one of remix, collaboration, template_creation, challenge_response")
	}
	if typ == models.CollabTypeChallengeResponse && in.ChallengeID == nil {
		return nil, Invalid("challenge_response collaborations require a challenge")
	}
	status := in.Status
	switch status {
	case "":
		status = models.StatusDraft
	case models.StatusDraft, models.StatusActive:
	default:
		return nil, Invalid("a new collaboration starts as draft or active")
	}
	tags, err := cleanTags(in.Tags)
	if err != nil {
		return nil, err
	}

	settings := models.Settings{
		IsPublic:         true,
		AllowForks:       true,
		RequireApproval:  false,
		MaxCollaborators: DefaultMaxCollabs,
	}
	if err := applySettings(&settings, in.Settings, 0, now); err != nil {
		return nil, err
	}

	c := &models.Collaboration{
		ID:             primitive.NewObjectID(),
		Title:          title,
		TitleCI:        text.Fold(title),
		Description:    desc,
		Type:           typ,
		Status:         status,
		Tags:           tags,
		OwnerID:        owner,
		OriginalMemeID: in.OriginalMemeID,
		ChallengeID:    in.ChallengeID,
		GroupID:        in.GroupID,
		Collaborators:  []models.Collaborator{},
		PendingInvites: []models.Invite{},
		Versions:       []models.Version{},
		Comments:       []models.Comment{},
		MergeHistory:   []models.MergeRecord{},
		Settings:       settings,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	RecomputeStats(c)
	return c, nil
}

// Patch is a partial update. Ownership, membership, versions and stats are
// deliberately absent: they change only through their own operations.
type Patch struct {
	Title       *string                     `json:"title,omitempty"`
	Description *string                     `json:"description,omitempty"`
	Tags        *[]string                   `json:"tags,omitempty"`
	Settings    *SettingsInput              `json:"settings,omitempty"`
	Status      *models.CollaborationStatus `json:"status,omitempty"`
}

// Update applies p on behalf of actor (owner or admin). All fields are
// validated before any is assigned.
func Update(c *models.Collaboration, actor primitive.ObjectID, p Patch, now time.Time) error {
	if err := Authorize(c, actor, ActionManage); err != nil {
		return err
	}

	title, desc, tags := c.Title, c.Description, c.Tags
	var err error
	if p.Title != nil {
		if title, err = cleanTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Description != nil {
		if desc, err = cleanDescription(*p.Description); err != nil {
			return err
		}
	}
	if p.Tags != nil {
		if tags, err = cleanTags(*p.Tags); err != nil {
			return err
		}
	}
	settings := c.Settings
	if err := applySettings(&settings, p.Settings, len(c.Collaborators), now); err != nil {
		return err
	}
	if p.Status != nil && *p.Status != c.Status {
		if err := checkTransition(c.Status, *p.Status); err != nil {
			return err
		}
		c.Status = *p.Status
	}

	c.Title = title
	c.TitleCI = text.Fold(title)
	c.Description = desc
	c.Tags = tags
	c.Settings = settings
	c.UpdatedAt = now
	return nil
}

// transitions lists the allowed lifecycle edges. Cancelling is allowed from
// any non-terminal state and is handled separately.
var transitions = map[models.CollaborationStatus][]models.CollaborationStatus{
	models.StatusDraft:     {models.StatusActive},
	models.StatusActive:    {models.StatusReviewing, models.StatusCompleted},
	models.StatusReviewing: {models.StatusActive, models.StatusCompleted},
}

// Transition moves c to status to on behalf of actor (owner or admin).
func Transition(c *models.Collaboration, actor primitive.ObjectID, to models.CollaborationStatus, now time.Time) error {
	if err := Authorize(c, actor, ActionManage); err != nil {
		return err
	}
	if err := checkTransition(c.Status, to); err != nil {
		return err
	}
	c.Status = to
	c.UpdatedAt = now
	return nil
}

func checkTransition(from, to models.CollaborationStatus) error {
	if !validStatus(to) {
		return Invalid("unknown status %q", to)
	}
	if from.Terminal() {
		return Conflict("collaboration is %s and can no longer change status", from)
	}
	if from == to {
		return Conflict("collaboration is already %s", from)
	}
	if to == models.StatusCancelled {
		return nil
	}
	for _, s := range transitions[from] {
		if s == to {
			return nil
		}
	}
	return Conflict("cannot move a %s collaboration to %s", from, to)
}

// RecomputeStats re-derives the array-backed counters. Views, likes and forks
// are maintained by the store and left untouched.
func RecomputeStats(c *models.Collaboration) {
	c.Stats.TotalVersions = len(c.Versions)
	c.Stats.TotalContributors = len(c.Collaborators) + 1
	n := 0
	for _, cm := range c.Comments {
		n += 1 + len(cm.Replies)
	}
	c.Stats.TotalComments = n

	approved := 0
	for _, v := range c.Versions {
		if v.Approved {
			approved++
		}
	}
	if len(c.Versions) == 0 {
		c.Stats.CompletionRate = 0
	} else {
		c.Stats.CompletionRate = float64(approved) / float64(len(c.Versions)) * 100
	}
}

// CanDelete reports why actor may not hard-delete c, or nil.
func CanDelete(c *models.Collaboration, actor primitive.ObjectID) error {
	if c.OwnerID != actor {
		return Forbidden("only the owner can delete a collaboration")
	}
	if n := len(c.Collaborators); n > 0 {
		return Conflict("collaboration still has %d collaborator(s); remove them before deleting", n)
	}
	return nil
}

func applySettings(s *models.Settings, in *SettingsInput, members int, now time.Time) error {
	if in == nil {
		return nil
	}
	next := *s
	if in.IsPublic != nil {
		next.IsPublic = *in.IsPublic
	}
	if in.AllowForks != nil {
		next.AllowForks = *in.AllowForks
	}
	if in.RequireApproval != nil {
		next.RequireApproval = *in.RequireApproval
	}
	if in.AllowAnonymous != nil {
		next.AllowAnonymous = *in.AllowAnonymous
	}
	if in.MaxCollaborators != nil {
		m := *in.MaxCollaborators
		if m < MinCollaborators || m > MaxCollaborators {
			return Invalid("max_collaborators must be between %d and %d", MinCollaborators, MaxCollaborators)
		}
		if m < members {
			return Invalid("max_collaborators cannot be below the current %d collaborators", members)
		}
		next.MaxCollaborators = m
	}
	if in.Deadline != nil {
		if !in.Deadline.After(now) {
			return Invalid("deadline must be in the future")
		}
		d := in.Deadline.UTC()
		next.Deadline = &d
	}
	*s = next
	return nil
}

func cleanTitle(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", Invalid("title is required")
	}
	if utf8.RuneCountInString(s) > MaxTitleLen {
		return "", Invalid("title must be at most %d characters", MaxTitleLen)
	}
	return s, nil
}

func cleanDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxDescriptionLen {
		return "", Invalid("description must be at most %d characters", MaxDescriptionLen)
	}
	return s, nil
}

// cleanTags lowercases, trims and de-duplicates tags, keeping first-seen order.
func cleanTags(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, t := range in {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		if utf8.RuneCountInString(t) > MaxTagLen {
			return nil, Invalid("tag %q must be at most %d characters", t, MaxTagLen)
		}
		seen[t] = true
		out = append(out, t)
	}
	if len(out) > MaxTags {
		return nil, Invalid("at most %d tags are allowed", MaxTags)
	}
	return out, nil
}

func validType(t models.CollaborationType) bool {
	for _, x := range models.CollaborationTypes {
		if x == t {
			return true
		}
	}
	return false
}

func validStatus(s models.CollaborationStatus) bool {
	for _, x := range models.CollaborationStatuses {
		if x == s {
			return true
		}
	}
	return false
}

// truncateRunes cuts s to at most n runes.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
