package userstore

import (
	"context"

	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher: a lean, short-timeout lookup run on
// every authenticated request so moderation changes apply immediately.
type Fetcher struct {
	users *mongo.Collection
}

// NewFetcher creates a Fetcher over the users collection.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{users: db.Collection("users")}
}

func (f *Fetcher) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	proj := options.FindOne().SetProjection(bson.M{
		"_id":             1,
		"username":        1,
		"role":            1,
		"status":          1,
		"suspended_until": 1,
	})
	var u models.User
	if err := f.users.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&u); err != nil {
		return models.User{}, err
	}
	return u, nil
}
