// internal/domain/collab/versions.go
package collab

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MaxChanges bounds the change list recorded on one version.
const MaxChanges = 200

// VersionInput is the caller-supplied part of a new version.
type VersionInput struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	MemeID      primitive.ObjectID `json:"meme_id"`
	Changes     []models.Change    `json:"changes,omitempty"`
}

// CreateVersion appends version len+1 by actor and makes it the single
// current version. It is auto-approved unless the collaboration requires
// review. The meme's existence is the caller's concern.
func CreateVersion(c *models.Collaboration, actor primitive.ObjectID, in VersionInput, now time.Time) (*models.Version, error) {
	if err := Authorize(c, actor, ActionCreateVersion); err != nil {
		return nil, err
	}
	if c.Status.Terminal() {
		return nil, Conflict("collaboration is %s and no longer accepts versions", c.Status)
	}
	title, err := cleanTitle(in.Title)
	if err != nil {
		return nil, err
	}
	desc, err := cleanDescription(in.Description)
	if err != nil {
		return nil, err
	}
	if in.MemeID.IsZero() {
		return nil, Invalid("meme_id is required")
	}
	if err := ValidateChanges(in.Changes); err != nil {
		return nil, err
	}

	for i := range c.Versions {
		c.Versions[i].IsCurrent = false
	}
	changes := make([]models.Change, len(in.Changes))
	copy(changes, in.Changes)
	v := models.Version{
		Version:     len(c.Versions) + 1,
		Title:       title,
		Description: desc,
		CreatedBy:   actor,
		CreatedAt:   now,
		MemeID:      in.MemeID,
		Changes:     changes,
		Approved:    !c.Settings.RequireApproval,
		IsCurrent:   true,
	}
	if v.Approved {
		v.ApprovedBy = &actor
		v.ApprovedAt = &now
	}
	c.Versions = append(c.Versions, v)
	Credit(c, actor, ActivityVersionCreated, now)
	RecomputeStats(c)
	c.UpdatedAt = now
	return &v, nil
}

// ApproveVersion marks version n approved by actor (owner, admin or
// reviewer) and credits its author.
func ApproveVersion(c *models.Collaboration, actor primitive.ObjectID, n int, now time.Time) (*models.Version, error) {
	if err := Authorize(c, actor, ActionApprove); err != nil {
		return nil, err
	}
	i := versionIndex(c, n)
	if i < 0 {
		return nil, NotFound("version %d does not exist", n)
	}
	if c.Versions[i].Approved {
		return nil, Conflict("version %d is already approved", n)
	}
	c.Versions[i].Approved = true
	c.Versions[i].ApprovedBy = &actor
	c.Versions[i].ApprovedAt = &now
	Credit(c, c.Versions[i].CreatedBy, ActivityVersionApproved, now)
	RecomputeStats(c)
	c.UpdatedAt = now
	v := c.Versions[i]
	return &v, nil
}

// SetCurrentVersion makes version n the single current version. Requires edit
// rights.
func SetCurrentVersion(c *models.Collaboration, actor primitive.ObjectID, n int, now time.Time) error {
	if err := Authorize(c, actor, ActionEdit); err != nil {
		return err
	}
	i := versionIndex(c, n)
	if i < 0 {
		return NotFound("version %d does not exist", n)
	}
	for j := range c.Versions {
		c.Versions[j].IsCurrent = j == i
	}
	c.UpdatedAt = now
	return nil
}

// CurrentVersion returns the current version, or nil when there is none.
func CurrentVersion(c *models.Collaboration) *models.Version {
	for i := range c.Versions {
		if c.Versions[i].IsCurrent {
			return &c.Versions[i]
		}
	}
	return nil
}

// ValidateChanges checks that each change carries exactly the payload its kind names.
func ValidateChanges(changes []models.Change) error {
	if len(changes) > MaxChanges {
		return Invalid("at most %d changes per version", MaxChanges)
	}
	for i, ch := range changes {
		set := 0
		for _, present := range []bool{ch.Text != nil, ch.Image != nil, ch.Add != nil, ch.Remove != nil, ch.Style != nil} {
			if present {
				set++
			}
		}
		if set != 1 {
			return Invalid("change %d must carry exactly one payload", i)
		}
		var ok bool
		switch ch.Kind {
		case models.ChangeTextEdit:
			ok = ch.Text != nil && validElementID(ch.Text.ElementID)
		case models.ChangeImageEdit:
			ok = ch.Image != nil && strings.TrimSpace(ch.Image.Operation) != ""
		case models.ChangeElementAdd:
			ok = ch.Add != nil && validElementID(ch.Add.ElementID) && ch.Add.ElementType != ""
		case models.ChangeElementRemove:
			ok = ch.Remove != nil && validElementID(ch.Remove.ElementID)
		case models.ChangeStyleChange:
			ok = ch.Style != nil && validElementID(ch.Style.ElementID) && ch.Style.Property != ""
		default:
			return Invalid("change %d has unknown kind %q", i, ch.Kind)
		}
		if !ok {
			return Invalid("change %d is not a valid %s", i, ch.Kind)
		}
	}
	return nil
}

func validElementID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && utf8.RuneCountInString(id) <= 100
}

func versionIndex(c *models.Collaboration, n int) int {
	if n < 1 || n > len(c.Versions) || c.Versions[n-1].Version != n {
		for i := range c.Versions {
			if c.Versions[i].Version == n {
				return i
			}
		}
		return -1
	}
	return n - 1
}
