package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	"github.com/dalemusser/remixhub/internal/domain/collab"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser creates an active account with the given username and site role.
func (f *Fixtures) CreateUser(ctx context.Context, username, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:          primitive.NewObjectID(),
		Username:    username,
		UsernameCI:  text.Fold(username),
		DisplayName: username,
		Role:        role,
		Status:      models.UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateBannedUser creates a banned account.
func (f *Fixtures) CreateBannedUser(ctx context.Context, username string) models.User {
	f.t.Helper()
	u := f.CreateUser(ctx, username, models.UserRoleUser)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": models.UserStatusBanned}}); err != nil {
		f.t.Fatalf("failed to ban test user: %v", err)
	}
	u.Status = models.UserStatusBanned
	return u
}

// CreateMeme creates a meme owned by owner.
func (f *Fixtures) CreateMeme(ctx context.Context, title string, owner primitive.ObjectID) models.Meme {
	f.t.Helper()
	m := models.Meme{
		ID:        primitive.NewObjectID(),
		Title:     title,
		ImageURL:  "https://cdn.example.com/" + primitive.NewObjectID().Hex() + ".png",
		OwnerID:   owner,
		Status:    "active",
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("memes").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to create test meme: %v", err)
	}
	return m
}

// CreateGroup creates a group whose members are the given users.
func (f *Fixtures) CreateGroup(ctx context.Context, name string, members ...primitive.ObjectID) models.Group {
	f.t.Helper()
	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Status:    "active",
		Members:   []models.GroupMember{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, u := range members {
		g.Members = append(g.Members, models.GroupMember{UserID: u, Role: "member", JoinedAt: now})
	}
	if _, err := f.db.Collection("groups").InsertOne(ctx, g); err != nil {
		f.t.Fatalf("failed to create test group: %v", err)
	}
	return g
}

// CreateCollaboration stores an active public collaboration owned by owner.
func (f *Fixtures) CreateCollaboration(ctx context.Context, title string, owner primitive.ObjectID) *models.Collaboration {
	f.t.Helper()
	c, err := collab.New(owner, collab.CreateInput{Title: title, Status: models.StatusActive}, time.Now().UTC())
	if err != nil {
		f.t.Fatalf("failed to build test collaboration: %v", err)
	}
	if err := collabstore.New(f.db).Insert(ctx, c); err != nil {
		f.t.Fatalf("failed to create test collaboration: %v", err)
	}
	return c
}
