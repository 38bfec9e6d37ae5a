// internal/app/store/collaborations/collabstore.go
package collabstore

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStale is returned by Save and Delete when the stored revision no longer
// matches the one the caller loaded.
var ErrStale = errors.New("collaboration revision is stale")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("collaborations")}
}

func (s *Store) Get(ctx context.Context, id primitive.ObjectID) (*models.Collaboration, error) {
	var c models.Collaboration
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert stores a new aggregate at revision 0.
func (s *Store) Insert(ctx context.Context, c *models.Collaboration) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	c.Revision = 0
	normalize(c)
	_, err := s.c.InsertOne(ctx, c)
	return err
}

// Save writes every mutable field of c if the stored revision still equals
// c.Revision, then advances c.Revision. Identity, owner, references and the
// $inc-only counters (views, forks) are never written here.
func (s *Store) Save(ctx context.Context, c *models.Collaboration) error {
	normalize(c)
	set := bson.M{
		"title":                    c.Title,
		"title_ci":                 text.Fold(c.Title),
		"description":              c.Description,
		"status":                   c.Status,
		"tags":                     c.Tags,
		"collaborators":            c.Collaborators,
		"pending_invites":          c.PendingInvites,
		"versions":                 c.Versions,
		"comments":                 c.Comments,
		"merge_history":            c.MergeHistory,
		"settings":                 c.Settings,
		"stats.total_versions":     c.Stats.TotalVersions,
		"stats.total_contributors": c.Stats.TotalContributors,
		"stats.total_comments":     c.Stats.TotalComments,
		"stats.completion_rate":    c.Stats.CompletionRate,
		"updated_at":               c.UpdatedAt,
	}
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": c.ID, "revision": c.Revision},
		bson.M{"$set": set, "$inc": bson.M{"revision": 1}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStale
	}
	c.Revision++
	return nil
}

// Delete removes the document if it is still at rev.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID, rev int64) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "revision": rev})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrStale
	}
	return nil
}

// IncrementViews bumps stats.total_views without touching the revision.
func (s *Store) IncrementViews(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"stats.total_views": 1}})
	return err
}

// IncrementForks bumps stats.total_forks without touching the revision.
func (s *Store) IncrementForks(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$inc": bson.M{"stats.total_forks": 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// CountForks counts documents whose parent is id.
func (s *Store) CountForks(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"parent_collaboration_id": id})
}

// RecountForks sets stats.total_forks of id to its child count and returns
// the new value.
func (s *Store) RecountForks(ctx context.Context, id primitive.ObjectID) (int64, error) {
	n, err := s.CountForks(ctx, id)
	if err != nil {
		return 0, err
	}
	_, err = s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"stats.total_forks": n}})
	return n, err
}

// ReconcileForkCounts corrects total_forks on every collaboration that has
// forks and whose counter drifted. Returns how many were corrected.
func (s *Store) ReconcileForkCounts(ctx context.Context) (int, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"parent_collaboration_id": bson.M{"$exists": true}}}},
		{{Key: "$group", Value: bson.M{"_id": "$parent_collaboration_id", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return 0, err
	}
	defer cur.Close(ctx)

	fixed := 0
	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return fixed, err
		}
		res, err := s.c.UpdateOne(ctx,
			bson.M{"_id": row.ID, "stats.total_forks": bson.M{"$ne": row.N}},
			bson.M{"$set": bson.M{"stats.total_forks": row.N}},
		)
		if err != nil {
			return fixed, err
		}
		fixed += int(res.ModifiedCount)
	}
	return fixed, cur.Err()
}

// ListForks returns direct forks of id, newest first.
func (s *Store) ListForks(ctx context.Context, id primitive.ObjectID, limit int64) ([]models.Collaboration, error) {
	return s.find(ctx, bson.M{"parent_collaboration_id": id},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).SetLimit(limit))
}

// ListFilter narrows List.
type ListFilter struct {
	// Member restricts to collaborations the user owns or collaborates on;
	// when nil only public ones are listed.
	Member *primitive.ObjectID

	Status models.CollaborationStatus
	Type   models.CollaborationType
	Tag    string
	Search string // title prefix
}

// Page is one keyset page of List.
type Page struct {
	Items      []models.Collaboration
	PrevCursor string
	NextCursor string
	HasPrev    bool
	HasNext    bool
}

// List pages collaborations ordered by case-folded title.
// Public listings hide drafts and cancelled collaborations unless Status asks for them.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) (Page, error) {
	var and []bson.M
	if f.Member != nil {
		and = append(and, bson.M{"$or": bson.A{
			bson.M{"owner_id": *f.Member},
			bson.M{"collaborators.user_id": *f.Member},
		}})
	} else {
		and = append(and, bson.M{"settings.is_public": true})
		if f.Status == "" {
			and = append(and, bson.M{"status": bson.M{"$nin": bson.A{models.StatusDraft, models.StatusCancelled}}})
		}
	}
	if f.Status != "" {
		and = append(and, bson.M{"status": f.Status})
	}
	if f.Type != "" {
		and = append(and, bson.M{"type": f.Type})
	}
	if f.Tag != "" {
		and = append(and, bson.M{"tags": strings.ToLower(strings.TrimSpace(f.Tag))})
	}
	if q := text.Fold(f.Search); q != "" {
		and = append(and, bson.M{"title_ci": bson.M{"$regex": "^" + regexp.QuoteMeta(q)}})
	}

	ks := p.Configure()
	if w := ks.Window("title_ci"); w != nil {
		and = append(and, w)
	}
	filter := bson.M{}
	if len(and) > 0 {
		filter["$and"] = and
	}

	rows, err := s.find(ctx, filter, ks.ApplyToFind(options.Find(), "title_ci"))
	if err != nil {
		return Page{}, err
	}
	if ks.Direction == paging.Backward {
		paging.Reverse(rows)
	}
	res := paging.TrimPage(&rows, p)
	prev, next := paging.BuildCursors(rows,
		func(c models.Collaboration) string { return c.TitleCI },
		func(c models.Collaboration) primitive.ObjectID { return c.ID })

	page := Page{Items: rows, HasPrev: res.HasPrev, HasNext: res.HasNext}
	if res.HasPrev {
		page.PrevCursor = prev
	}
	if res.HasNext {
		page.NextCursor = next
	}
	return page, nil
}

// PendingInvite pairs an invite with the collaboration it belongs to.
type PendingInvite struct {
	CollaborationID primitive.ObjectID `json:"collaboration_id"`
	Title           string             `json:"title"`
	OwnerID         primitive.ObjectID `json:"owner_id"`
	Invite          models.Invite      `json:"invite"`
}

// PendingInvitesFor lists unexpired invites addressed to user, soonest
// expiry first.
func (s *Store) PendingInvitesFor(ctx context.Context, user primitive.ObjectID, now time.Time) ([]PendingInvite, error) {
	filter := bson.M{"pending_invites": bson.M{"$elemMatch": bson.M{
		"user_id":    user,
		"expires_at": bson.M{"$gt": now},
	}}}
	proj := options.Find().SetProjection(bson.M{"title": 1, "owner_id": 1, "pending_invites": 1, "status": 1})
	rows, err := s.find(ctx, filter, proj)
	if err != nil {
		return nil, err
	}

	out := []PendingInvite{}
	for _, c := range rows {
		if c.Status.Terminal() {
			continue
		}
		for _, inv := range c.PendingInvites {
			if inv.UserID == user && !inv.Expired(now) {
				out = append(out, PendingInvite{CollaborationID: c.ID, Title: c.Title, OwnerID: c.OwnerID, Invite: inv})
			}
		}
	}
	sortByExpiry(out)
	return out, nil
}

// PullExpiredInvites removes every invite that expired at or before now.
// It bumps the revision of each touched document so in-flight aggregate
// saves built on the old invite list are rejected as stale.
func (s *Store) PullExpiredInvites(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.c.UpdateMany(ctx,
		bson.M{"pending_invites.expires_at": bson.M{"$lte": now}},
		bson.M{
			"$pull": bson.M{"pending_invites": bson.M{"expires_at": bson.M{"$lte": now}}},
			"$inc":  bson.M{"revision": 1},
		},
	)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

func (s *Store) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]models.Collaboration, error) {
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []models.Collaboration{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func sortByExpiry(in []PendingInvite) {
	sort.SliceStable(in, func(i, j int) bool {
		return in[i].Invite.ExpiresAt.Before(in[j].Invite.ExpiresAt)
	})
}

// normalize replaces nil slices with empty ones so arrays, not nulls, are stored.
func normalize(c *models.Collaboration) {
	if c.Tags == nil {
		c.Tags = []string{}
	}
	if c.Collaborators == nil {
		c.Collaborators = []models.Collaborator{}
	}
	if c.PendingInvites == nil {
		c.PendingInvites = []models.Invite{}
	}
	if c.Versions == nil {
		c.Versions = []models.Version{}
	}
	if c.Comments == nil {
		c.Comments = []models.Comment{}
	}
	if c.MergeHistory == nil {
		c.MergeHistory = []models.MergeRecord{}
	}
	c.TitleCI = text.Fold(c.Title)
}
