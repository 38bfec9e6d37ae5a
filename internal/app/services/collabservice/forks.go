// internal/app/services/collabservice/forks.go
package collabservice

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/remixhub/internal/app/system/txn"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// DefaultForkListLimit caps ListForks when the caller passes no limit.
const DefaultForkListLimit = 50

// Fork copies id into a new collaboration owned by v. The insert and the
// source's fork counter move together in one transaction when the
// deployment supports it.
func (s *Service) Fork(ctx context.Context, id primitive.ObjectID, v collab.Viewer, title string) (*models.Collaboration, error) {
	if v.ID.IsZero() {
		return nil, collab.Forbidden("sign in to fork a collaboration")
	}
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !collab.CanView(src, v) {
		return nil, collab.Forbidden("this collaboration is private")
	}
	f, err := collab.Fork(src, v.ID, htmlsanitize.PlainText(title), s.now())
	if err != nil {
		return nil, err
	}

	err = txn.Run(ctx, s.client, "fork", func(ctx context.Context) error {
		if err := s.repo.Insert(ctx, f); err != nil {
			return err
		}
		return s.repo.IncrementForks(ctx, src.ID)
	})
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, collab.NotFound("collaboration not found")
	}
	if err != nil {
		return nil, err
	}

	s.audit.Forked(ctx, src.ID, f.ID, v.ID)
	s.publish(ctx, events.ForkCreated, src.ID, v.ID, map[string]any{"fork_id": f.ID.Hex()})
	s.log.Info("collaboration forked",
		zap.String("collaboration_id", src.ID.Hex()),
		zap.String("fork_id", f.ID.Hex()),
		zap.String("owner_id", v.ID.Hex()))
	return f, nil
}

// ListForks returns the forks of id that v may see, newest first.
func (s *Service) ListForks(ctx context.Context, id primitive.ObjectID, v collab.Viewer, limit int64) ([]models.Collaboration, error) {
	src, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !collab.CanView(src, v) {
		return nil, collab.Forbidden("this collaboration is private")
	}
	if limit <= 0 {
		limit = DefaultForkListLimit
	}
	forks, err := s.repo.ListForks(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Collaboration, 0, len(forks))
	for i := range forks {
		if collab.CanView(&forks[i], v) {
			out = append(out, forks[i])
		}
	}
	return out, nil
}

// Merge copies the selected records of forkID into id. The fork is only
// read; merging it again copies its records again.
func (s *Service) Merge(ctx context.Context, id, actor, forkID primitive.ObjectID, opts models.MergeOptions) (models.MergeSummary, error) {
	fork, err := s.repo.Get(ctx, forkID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.MergeSummary{}, collab.NotFound("fork not found")
	}
	if err != nil {
		return models.MergeSummary{}, err
	}

	var sum models.MergeSummary
	_, err = s.mutate(ctx, id, "merge", func(c *models.Collaboration, now time.Time) error {
		var err error
		sum, err = collab.MergeFromFork(c, fork, actor, opts, now)
		return err
	})
	if err != nil {
		return models.MergeSummary{}, err
	}

	s.audit.Merged(ctx, id, forkID, actor, map[string]string{
		"versions":      strconv.Itoa(sum.VersionsMerged),
		"comments":      strconv.Itoa(sum.CommentsMerged),
		"collaborators": strconv.Itoa(sum.CollaboratorsMerged),
	})
	s.publish(ctx, events.MergeCompleted, id, actor, map[string]any{
		"fork_id":               forkID.Hex(),
		"versions_merged":       sum.VersionsMerged,
		"comments_merged":       sum.CommentsMerged,
		"collaborators_merged":  sum.CollaboratorsMerged,
		"collaborators_skipped": sum.CollaboratorsSkipped,
	})
	return sum, nil
}
