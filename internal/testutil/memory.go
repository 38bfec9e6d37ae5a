package testutil

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/app/system/paging"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemRepo is an in-memory collaboration repository with the same revision
// semantics as collabstore.Store. Documents are copied in and out through
// BSON so callers never share memory with the stored value.
type MemRepo struct {
	mu   sync.Mutex
	docs map[primitive.ObjectID]*models.Collaboration

	// StaleSaves makes the next n Save calls fail with collabstore.ErrStale,
	// as if another writer had won the race.
	StaleSaves int
	// Saves counts successful saves.
	Saves int
}

func NewMemRepo() *MemRepo {
	return &MemRepo{docs: make(map[primitive.ObjectID]*models.Collaboration)}
}

func clone(c *models.Collaboration) *models.Collaboration {
	raw, err := bson.Marshal(c)
	if err != nil {
		panic(err)
	}
	var out models.Collaboration
	if err := bson.Unmarshal(raw, &out); err != nil {
		panic(err)
	}
	return &out
}

func (m *MemRepo) Get(_ context.Context, id primitive.ObjectID) (*models.Collaboration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return clone(c), nil
}

func (m *MemRepo) Insert(_ context.Context, c *models.Collaboration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, dup := m.docs[c.ID]; dup {
		return errors.New("duplicate _id")
	}
	c.Revision = 0
	c.TitleCI = text.Fold(c.Title)
	m.docs[c.ID] = clone(c)
	return nil
}

func (m *MemRepo) Save(_ context.Context, c *models.Collaboration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.StaleSaves > 0 {
		m.StaleSaves--
		return collabstore.ErrStale
	}
	cur, ok := m.docs[c.ID]
	if !ok || cur.Revision != c.Revision {
		return collabstore.ErrStale
	}
	next := clone(c)
	next.TitleCI = text.Fold(c.Title)
	next.Revision = c.Revision + 1
	// $inc-only counters are never written by Save.
	next.Stats.TotalViews = cur.Stats.TotalViews
	next.Stats.TotalForks = cur.Stats.TotalForks
	m.docs[c.ID] = next
	c.Revision++
	m.Saves++
	return nil
}

func (m *MemRepo) Delete(_ context.Context, id primitive.ObjectID, rev int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[id]
	if !ok || cur.Revision != rev {
		return collabstore.ErrStale
	}
	delete(m.docs, id)
	return nil
}

func (m *MemRepo) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.docs[id]; ok {
		c.Stats.TotalViews++
	}
	return nil
}

func (m *MemRepo) IncrementForks(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.Stats.TotalForks++
	return nil
}

func (m *MemRepo) ListForks(_ context.Context, id primitive.ObjectID, limit int64) ([]models.Collaboration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Collaboration{}
	for _, c := range m.docs {
		if c.ParentCollaborationID != nil && *c.ParentCollaborationID == id {
			out = append(out, *clone(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

// List applies the same visibility filters as the Mongo store, ordered by
// folded title. Cursors are not produced; only the limit is honoured.
func (m *MemRepo) List(_ context.Context, f collabstore.ListFilter, p paging.Params) (collabstore.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Collaboration{}
	for _, c := range m.docs {
		if f.Member != nil {
			if c.OwnerID != *f.Member && !hasCollaborator(c, *f.Member) {
				continue
			}
		} else {
			if !c.Settings.IsPublic {
				continue
			}
			if f.Status == "" && (c.Status == models.StatusDraft || c.Status == models.StatusCancelled) {
				continue
			}
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Type != "" && c.Type != f.Type {
			continue
		}
		if f.Tag != "" && !hasTag(c, strings.ToLower(strings.TrimSpace(f.Tag))) {
			continue
		}
		if q := text.Fold(f.Search); q != "" && !strings.HasPrefix(c.TitleCI, q) {
			continue
		}
		out = append(out, *clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TitleCI != out[j].TitleCI {
			return out[i].TitleCI < out[j].TitleCI
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	limit := p.Limit
	if limit <= 0 {
		limit = paging.DefaultLimit
	}
	page := collabstore.Page{Items: out}
	if len(out) > limit {
		page.Items = out[:limit]
		page.HasNext = true
	}
	return page, nil
}

func (m *MemRepo) PendingInvitesFor(_ context.Context, user primitive.ObjectID, now time.Time) ([]collabstore.PendingInvite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []collabstore.PendingInvite{}
	for _, c := range m.docs {
		if c.Status.Terminal() {
			continue
		}
		for _, inv := range c.PendingInvites {
			if inv.UserID == user && !inv.Expired(now) {
				out = append(out, collabstore.PendingInvite{CollaborationID: c.ID, Title: c.Title, OwnerID: c.OwnerID, Invite: inv})
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Invite.ExpiresAt.Before(out[j].Invite.ExpiresAt) })
	return out, nil
}

// Stored returns a copy of the stored document, or nil.
func (m *MemRepo) Stored(id primitive.ObjectID) *models.Collaboration {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.docs[id]
	if !ok {
		return nil
	}
	return clone(c)
}

// Put stores c as-is, keeping its revision.
func (m *MemRepo) Put(c *models.Collaboration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[c.ID] = clone(c)
}

func hasCollaborator(c *models.Collaboration, user primitive.ObjectID) bool {
	for _, cl := range c.Collaborators {
		if cl.UserID == user {
			return true
		}
	}
	return false
}

func hasTag(c *models.Collaboration, tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// MemUsers is an in-memory account directory.
type MemUsers struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func NewMemUsers(users ...models.User) *MemUsers {
	m := &MemUsers{users: make(map[primitive.ObjectID]models.User)}
	for _, u := range users {
		m.Add(u)
	}
	return m
}

// Add stores u, assigning an id and defaults when missing.
func (m *MemUsers) Add(u models.User) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if u.Role == "" {
		u.Role = models.UserRoleUser
	}
	if u.Status == "" {
		u.Status = models.UserStatusActive
	}
	u.UsernameCI = text.Fold(u.Username)
	m.users[u.ID] = u
	return u
}

func (m *MemUsers) GetByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return models.User{}, mongo.ErrNoDocuments
	}
	return u, nil
}

func (m *MemUsers) GetByUsername(_ context.Context, username string) (models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	want := text.Fold(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	for _, u := range m.users {
		if want != "" && u.UsernameCI == want {
			return u, nil
		}
	}
	return models.User{}, mongo.ErrNoDocuments
}

// MemContent is an in-memory existence set for memes or challenges.
type MemContent struct {
	mu  sync.Mutex
	ids map[primitive.ObjectID]bool
}

func NewMemContent(ids ...primitive.ObjectID) *MemContent {
	m := &MemContent{ids: make(map[primitive.ObjectID]bool)}
	for _, id := range ids {
		m.ids[id] = true
	}
	return m
}

// Add registers a new id and returns it.
func (m *MemContent) Add() primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	m.ids[id] = true
	return id
}

func (m *MemContent) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ids[id], nil
}

// MemGroups is an in-memory group membership table.
type MemGroups struct {
	mu      sync.Mutex
	members map[primitive.ObjectID]map[primitive.ObjectID]bool
}

func NewMemGroups() *MemGroups {
	return &MemGroups{members: make(map[primitive.ObjectID]map[primitive.ObjectID]bool)}
}

// Add creates a group with the given members and returns its id.
func (m *MemGroups) Add(members ...primitive.ObjectID) primitive.ObjectID {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := primitive.NewObjectID()
	set := make(map[primitive.ObjectID]bool)
	for _, u := range members {
		set[u] = true
	}
	m.members[id] = set
	return id
}

func (m *MemGroups) Exists(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.members[id]
	return ok, nil
}

func (m *MemGroups) IsMember(_ context.Context, group, user primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.members[group][user], nil
}
