// internal/domain/collab/forks.go
package collab

import (
	"strings"
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Fork builds a new collaboration owned by newOwner that branches src. The
// caller persists it and bumps src's fork counter. An empty title defaults to
// "Fork of <src title>".
func Fork(src *models.Collaboration, newOwner primitive.ObjectID, title string, now time.Time) (*models.Collaboration, error) {
	if !src.Settings.AllowForks {
		return nil, Conflict("forking is disabled for this collaboration")
	}
	if newOwner.IsZero() {
		return nil, Invalid("owner is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = truncateRunes("Fork of "+src.Title, MaxTitleLen)
	}
	title, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	settings := src.Settings
	if settings.MaxCollaborators > ForkMaxCollaborators {
		settings.MaxCollaborators = ForkMaxCollaborators
	}
	if settings.Deadline != nil {
		d := *settings.Deadline
		settings.Deadline = &d
	}
	parent := src.ID

	f := &models.Collaboration{
		ID:                    primitive.NewObjectID(),
		Title:                 title,
		TitleCI:               text.Fold(title),
		Description:           src.Description,
		Type:                  src.Type,
		Status:                models.StatusActive,
		Tags:                  append([]string{}, src.Tags...),
		OwnerID:               newOwner,
		OriginalMemeID:        cloneID(src.OriginalMemeID),
		ParentCollaborationID: &parent,
		ChallengeID:           cloneID(src.ChallengeID),
		GroupID:               cloneID(src.GroupID),
		Collaborators:         []models.Collaborator{},
		PendingInvites:        []models.Invite{},
		Versions:              []models.Version{},
		Comments:              []models.Comment{},
		MergeHistory:          []models.MergeRecord{},
		Settings:              settings,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	RecomputeStats(f)
	return f, nil
}

// MergeFromFork copies the selected record categories from fork into parent,
// tagging each with the fork's id. The fork is read, never modified, and
// merging the same fork twice copies its records twice.
//
// Versions continue the parent's numbering and the last merged one becomes
// current. Comments get fresh ids and have version references remapped when
// versions are merged, cleared otherwise. Collaborators already on the parent
// (or the parent's owner) are skipped, imported ones keep half their score,
// and any that would exceed the cap are skipped and counted.
func MergeFromFork(parent, fork *models.Collaboration, actor primitive.ObjectID, opts models.MergeOptions, now time.Time) (models.MergeSummary, error) {
	sum := models.MergeSummary{Options: opts}
	if err := Authorize(parent, actor, ActionManage); err != nil {
		return sum, err
	}
	if fork.ParentCollaborationID == nil || *fork.ParentCollaborationID != parent.ID {
		return sum, Conflict("collaboration %s is not a fork of this collaboration", fork.ID.Hex())
	}
	if !opts.MergeVersions && !opts.MergeComments && !opts.MergeCollaborators {
		return sum, Invalid("select at least one of versions, comments or collaborators to merge")
	}
	if parent.Status.Terminal() {
		return sum, Conflict("collaboration is %s and no longer accepts merges", parent.Status)
	}

	from := fork.ID
	base := len(parent.Versions)

	if opts.MergeVersions && len(fork.Versions) > 0 {
		for i := range parent.Versions {
			parent.Versions[i].IsCurrent = false
		}
		for i, v := range fork.Versions {
			nv := v
			nv.Version = base + i + 1
			nv.Changes = append([]models.Change(nil), v.Changes...)
			nv.MergedFrom = &from
			nv.IsCurrent = i == len(fork.Versions)-1
			parent.Versions = append(parent.Versions, nv)
		}
		sum.VersionsMerged = len(fork.Versions)
		sum.FirstVersion = base + 1
		sum.LastVersion = base + len(fork.Versions)
	}

	if opts.MergeComments {
		remap := func(n *int) *int {
			if n == nil || sum.VersionsMerged == 0 || *n < 1 || *n > sum.VersionsMerged {
				return nil
			}
			m := base + *n
			return &m
		}
		for _, cm := range fork.Comments {
			nc := copyComment(cm, &from, remap)
			for _, r := range cm.Replies {
				nc.Replies = append(nc.Replies, copyComment(r, &from, remap))
			}
			parent.Comments = append(parent.Comments, nc)
			sum.CommentsMerged++
		}
	}

	if opts.MergeCollaborators {
		for _, fc := range fork.Collaborators {
			if IsCollaborator(parent, fc.UserID) {
				continue
			}
			if len(parent.Collaborators) >= parent.Settings.MaxCollaborators {
				sum.CollaboratorsSkipped++
				continue
			}
			parent.Collaborators = append(parent.Collaborators, models.Collaborator{
				UserID:            fc.UserID,
				Role:              fc.Role,
				JoinedAt:          now,
				Permissions:       permissionsFor(fc.Role),
				ContributionScore: fc.ContributionScore / 2,
				LastActive:        fc.LastActive,
				MergedFrom:        &from,
			})
			removeInvite(parent, fc.UserID)
			sum.CollaboratorsMerged++
		}
	}

	parent.MergeHistory = append(parent.MergeHistory, models.MergeRecord{
		FromFork:  from,
		MergedAt:  now,
		MergedBy:  actor,
		MergeData: sum,
	})
	RecomputeStats(parent)
	parent.UpdatedAt = now
	return sum, nil
}

func copyComment(cm models.Comment, from *primitive.ObjectID, remap func(*int) *int) models.Comment {
	return models.Comment{
		ID:            primitive.NewObjectID(),
		UserID:        cm.UserID,
		Content:       cm.Content,
		CreatedAt:     cm.CreatedAt,
		VersionNumber: remap(cm.VersionNumber),
		ElementID:     cm.ElementID,
		MergedFrom:    from,
	}
}

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
