// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/remixhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure("collaborations", collaborationsSchema())
	ensure("users", usersSchema())
	ensure("groups", groupsSchema())

	// Owned by other services; ensured so lookups and transactions
	// never hit a missing namespace.
	ensure("memes", nil)
	ensure("challenges", nil)
	ensure("audit_events", nil)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers ---------------------- */

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err == nil && len(names) > 0 {
		zap.L().Debug("collection exists", zap.String("collection", name))
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		if isNamespaceExistsErr(err) {
			return nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

func commandErr(err error, codes ...int32) (mongo.CommandError, bool) {
	var ce mongo.CommandError
	if !errors.As(err, &ce) {
		return ce, false
	}
	for _, c := range codes {
		if ce.Code == c {
			return ce, true
		}
	}
	return ce, false
}

func isNamespaceExistsErr(err error) bool {
	if _, ok := commandErr(err, 48); ok {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

// isUnsupported matches "no such command" (59) and "not implemented" (115).
func isUnsupported(err error) bool {
	if _, ok := commandErr(err, 59, 115); ok {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") ||
		strings.Contains(s, "not implemented") ||
		strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

func enumOf[T ~string](vals []T) bson.A {
	out := bson.A{}
	for _, v := range vals {
		out = append(out, string(v))
	}
	return out
}

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func collaborationsSchema() bson.M {
	roles := bson.A{string(models.RoleAdmin), string(models.RoleEditor), string(models.RoleReviewer), string(models.RoleContributor)}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"title", "title_ci", "type", "status", "owner_id", "revision", "settings"},
			"properties": bson.M{
				"title":       nonBlank,
				"title_ci":    nonBlank,
				"description": bson.M{"bsonType": "string", "maxLength": 1000},
				"type":        bson.M{"enum": enumOf(models.CollaborationTypes)},
				"status":      bson.M{"enum": enumOf(models.CollaborationStatuses)},
				"owner_id":    bson.M{"bsonType": "objectId"},
				"revision":    bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 0},
				"tags": bson.M{
					"bsonType": "array",
					"maxItems": 10,
					"items":    bson.M{"bsonType": "string"},
				},
				"collaborators": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType": "object",
						"required": bson.A{"user_id", "role"},
						"properties": bson.M{
							"user_id": bson.M{"bsonType": "objectId"},
							"role":    bson.M{"enum": roles},
						},
					},
				},
				"settings": bson.M{
					"bsonType": "object",
					"properties": bson.M{
						"max_collaborators": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 2, "maximum": 50},
					},
				},
			},
		},
	}
}

func usersSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"username", "username_ci", "role", "status"},
			"properties": bson.M{
				"username":    nonBlank,
				"username_ci": nonBlank,
				"role":        bson.M{"enum": bson.A{models.UserRoleUser, models.UserRoleAdmin}},
				"status":      bson.M{"enum": bson.A{models.UserStatusActive, models.UserStatusBanned, models.UserStatusSuspended}},
			},
		},
	}
}

func groupsSchema() bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType": "object",
			"required": bson.A{"name", "name_ci"},
			"properties": bson.M{
				"name":    nonBlank,
				"name_ci": nonBlank,
				"members": bson.M{
					"bsonType": "array",
					"items": bson.M{
						"bsonType":   "object",
						"required":   bson.A{"user_id"},
						"properties": bson.M{"user_id": bson.M{"bsonType": "objectId"}},
					},
				},
			},
		},
	}
}
