// internal/app/services/collabservice/service.go
//
// Package collabservice is the operation surface for collaborations. Each
// mutation loads the aggregate under a per-collaboration lock, applies one
// collab.* rule function and saves with an optimistic revision check,
// retrying a few times when another writer got there first. Side effects
// (audit records, activity events) happen only after the write lands.
package collabservice

import (
	"context"
	"errors"
	"time"

	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/locks"
	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// maxAttempts bounds load→mutate→save retries on a stale revision.
const maxAttempts = 3

// Repository persists collaboration aggregates. *collabstore.Store
// satisfies it.
type Repository interface {
	Get(ctx context.Context, id primitive.ObjectID) (*models.Collaboration, error)
	Insert(ctx context.Context, c *models.Collaboration) error
	Save(ctx context.Context, c *models.Collaboration) error
	Delete(ctx context.Context, id primitive.ObjectID, rev int64) error
	IncrementViews(ctx context.Context, id primitive.ObjectID) error
	IncrementForks(ctx context.Context, id primitive.ObjectID) error
	ListForks(ctx context.Context, id primitive.ObjectID, limit int64) ([]models.Collaboration, error)
	List(ctx context.Context, f collabstore.ListFilter, p paging.Params) (collabstore.Page, error)
	PendingInvitesFor(ctx context.Context, user primitive.ObjectID, now time.Time) ([]collabstore.PendingInvite, error)
}

// Users resolves accounts. *userstore.Store satisfies it.
type Users interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByUsername(ctx context.Context, username string) (models.User, error)
}

// Lookup checks that a referenced content document exists.
type Lookup interface {
	Exists(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Groups checks group existence and membership.
type Groups interface {
	Lookup
	IsMember(ctx context.Context, group, user primitive.ObjectID) (bool, error)
}

// Deps wires a Service. Repo, Users, Memes, Challenges and Groups are
// required; the rest default to in-process or no-op implementations.
type Deps struct {
	Repo       Repository
	Users      Users
	Memes      Lookup
	Challenges Lookup
	Groups     Groups

	Locker locks.Locker
	Events events.Publisher
	Audit  *auditlog.Logger
	Client *mongo.Client // fork transactions; nil writes sequentially
	Log    *zap.Logger
	Now    func() time.Time
}

// Service implements the collaboration operations.
type Service struct {
	repo       Repository
	users      Users
	memes      Lookup
	challenges Lookup
	groups     Groups

	locker locks.Locker
	events events.Publisher
	audit  *auditlog.Logger
	client *mongo.Client
	log    *zap.Logger
	now    func() time.Time
}

func New(d Deps) *Service {
	s := &Service{
		repo:       d.Repo,
		users:      d.Users,
		memes:      d.Memes,
		challenges: d.Challenges,
		groups:     d.Groups,
		locker:     d.Locker,
		events:     d.Events,
		audit:      d.Audit,
		client:     d.Client,
		log:        d.Log,
		now:        d.Now,
	}
	if s.locker == nil {
		s.locker = locks.NewLocal()
	}
	if s.events == nil {
		s.events = events.Nop{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	return s
}

// load fetches id, mapping a missing document to NotFound.
func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*models.Collaboration, error) {
	c, err := s.repo.Get(ctx, id)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, collab.NotFound("collaboration not found")
	}
	return c, err
}

// mutate applies fn to a fresh copy of collaboration id and saves it. fn must
// return an error before changing anything it cannot complete; a stale save
// discards the copy and runs fn again against the newer document.
func (s *Service) mutate(ctx context.Context, id primitive.ObjectID, op string, fn func(c *models.Collaboration, now time.Time) error) (*models.Collaboration, error) {
	release, err := s.lock(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c, err := s.load(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(c, s.now()); err != nil {
			return nil, err
		}
		err = s.repo.Save(ctx, c)
		if err == nil {
			return c, nil
		}
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, collab.NotFound("collaboration not found")
		}
		if !errors.Is(err, collabstore.ErrStale) {
			return nil, err
		}
		s.log.Debug("stale collaboration write; retrying",
			zap.String("op", op),
			zap.String("collaboration_id", id.Hex()),
			zap.Int("attempt", attempt))
	}
	s.log.Warn("collaboration write kept losing the revision race",
		zap.String("op", op), zap.String("collaboration_id", id.Hex()))
	return nil, collab.Conflict("collaboration was modified concurrently; please retry")
}

func (s *Service) lock(ctx context.Context, id primitive.ObjectID) (func(), error) {
	lctx, cancel := context.WithTimeout(ctx, timeouts.Lock())
	defer cancel()
	release, err := s.locker.Lock(lctx, "collab:"+id.Hex())
	if err != nil {
		if errors.Is(err, locks.ErrNotAcquired) || errors.Is(err, context.DeadlineExceeded) {
			return nil, collab.Conflict("collaboration is busy; please retry")
		}
		return nil, err
	}
	return release, nil
}

// publish sends an activity event, logging rather than returning failures.
func (s *Service) publish(ctx context.Context, typ string, collabID, actor primitive.ObjectID, data map[string]any) {
	e := events.Stamp(events.Event{
		Type:            typ,
		CollaborationID: collabID.Hex(),
		ActorID:         actor.Hex(),
		OccurredAt:      s.now(),
		Data:            data,
	})
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish activity event failed",
			zap.String("type", typ),
			zap.String("collaboration_id", collabID.Hex()),
			zap.Error(err))
	}
}

// exists runs a Lookup, mapping false to NotFound with what.
func exists(ctx context.Context, l Lookup, id primitive.ObjectID, what string) error {
	ok, err := l.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return collab.NotFound("%s not found", what)
	}
	return nil
}
