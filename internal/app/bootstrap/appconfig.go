// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). They represent *app-level*
// configuration, not WAFFLE core configuration (ports, TLS, log level).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Bearer token verification. Tokens are issued by the identity service.
	JWTSecret string
	JWTIssuer string // blank skips the iss check

	// Origins allowed to call the API from a browser. "*" allows any.
	CORSAllowedOrigins []string

	// Redis for cross-instance collaboration locks. Blank uses in-process locks.
	RedisAddr string
	LockTTL   time.Duration

	// NATS for activity events. Blank discards events.
	NATSURL             string
	EventsSubjectPrefix string

	// Background sweep of expired invites and drifted fork counters.
	InviteSweepInterval time.Duration

	// Audit logging: "all" (db+log), "db", "log", or "off"
	AuditLogCollab   string
	AuditLogSecurity string

	// Mutation requests allowed per user (or client IP) per minute. 0 disables.
	RateLimitPerMinute int

	// Request timeouts
	TimeoutShort time.Duration
	TimeoutLong  time.Duration
}
