// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSecretLen is the shortest JWT secret accepted in prod.
const minSecretLen = 32

// appConfigKeys defines the configuration keys for RemixHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: REMIXHUB_MONGO_URI, REMIXHUB_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "remixhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Bearer tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "HS256 secret for bearer tokens (must be strong in production)"},
	{Name: "jwt_issuer", Default: "", Desc: "Expected token issuer (blank skips the check)"},

	{Name: "cors_allowed_origins", Default: "*", Desc: "Comma-separated origins allowed by CORS"},

	// Locks and events
	{Name: "redis_addr", Default: "", Desc: "Redis address for distributed locks (blank uses in-process locks)"},
	{Name: "lock_ttl", Default: "10s", Desc: "Expiry of a held collaboration lock"},
	{Name: "nats_url", Default: "", Desc: "NATS URL for activity events (blank disables publishing)"},
	{Name: "events_subject_prefix", Default: "remixhub", Desc: "Subject prefix for published events"},

	{Name: "invite_sweep_interval", Default: "15m", Desc: "How often expired invites are removed and fork counters reconciled"},

	// Audit logging settings
	{Name: "audit_log_collab", Default: "all", Desc: "Collaboration event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_security", Default: "all", Desc: "Security event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "rate_limit_per_minute", Default: 120, Desc: "Mutation requests per user per minute (0 disables)"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single reads"},
	{Name: "timeout_long", Default: "20s", Desc: "Timeout for writes and multi-step operations"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, REMIXHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "REMIXHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTIssuer: appValues.String("jwt_issuer"),

		CORSAllowedOrigins: splitList(appValues.String("cors_allowed_origins")),

		RedisAddr:           appValues.String("redis_addr"),
		LockTTL:             appValues.Duration("lock_ttl", 10*time.Second),
		NATSURL:             appValues.String("nats_url"),
		EventsSubjectPrefix: appValues.String("events_subject_prefix"),

		InviteSweepInterval: appValues.Duration("invite_sweep_interval", 15*time.Minute),

		AuditLogCollab:   appValues.String("audit_log_collab"),
		AuditLogSecurity: appValues.String("audit_log_security"),

		RateLimitPerMinute: appValues.Int("rate_limit_per_minute"),

		TimeoutShort: appValues.Duration("timeout_short", 5*time.Second),
		TimeoutLong:  appValues.Duration("timeout_long", 20*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// RemixHub validates the MongoDB URI format to catch configuration errors
// early, before attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if coreCfg.Env == "prod" {
		if len(appCfg.JWTSecret) < minSecretLen || strings.HasPrefix(appCfg.JWTSecret, "dev-only") {
			return fmt.Errorf("jwt_secret must be set to at least %d characters in prod", minSecretLen)
		}
	} else if appCfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}

	if appCfg.InviteSweepInterval <= 0 {
		return fmt.Errorf("invite_sweep_interval must be positive, got %s", appCfg.InviteSweepInterval)
	}
	if appCfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate_limit_per_minute must not be negative")
	}
	for _, v := range []struct{ key, val string }{
		{"audit_log_collab", appCfg.AuditLogCollab},
		{"audit_log_security", appCfg.AuditLogSecurity},
	} {
		switch v.val {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", v.key, v.val)
		}
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
