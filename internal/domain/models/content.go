// internal/domain/models/content.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Meme is an uploaded image with metadata. Versions reference memes by ID.
type Meme struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	ImageURL  string             `bson:"image_url" json:"image_url"`
	OwnerID   primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Challenge is a timed contest that collaborations can respond to.
type Challenge struct {
	ID        primitive.ObjectID `bson:"_id" json:"id"`
	Title     string             `bson:"title" json:"title"`
	StartsAt  time.Time          `bson:"starts_at" json:"starts_at"`
	EndsAt    time.Time          `bson:"ends_at" json:"ends_at"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
