// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/nats-io/nats.go"
	goredis "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
// Redis and NATS are nil when not configured.
type DBDeps struct {
	RemixHubMongoClient   *mongo.Client
	RemixHubMongoDatabase *mongo.Database
	Redis                 *goredis.Client
	NATS                  *nats.Conn
}
