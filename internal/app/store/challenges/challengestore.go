// internal/app/store/challenges/challengestore.go
package challengestore

import (
	"context"
	"time"

	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("challenges")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Challenge, error) {
	var ch models.Challenge
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ch); err != nil {
		return models.Challenge{}, err
	}
	return ch, nil
}

// Exists reports whether a challenge with id is stored.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return err == nil, err
}

// Create inserts ch. Used by seeding and tests.
func (s *Store) Create(ctx context.Context, ch models.Challenge) (models.Challenge, error) {
	if ch.ID.IsZero() {
		ch.ID = primitive.NewObjectID()
	}
	if ch.Status == "" {
		ch.Status = "active"
	}
	if ch.CreatedAt.IsZero() {
		ch.CreatedAt = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, ch)
	return ch, err
}
