// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	healthfeature "github.com/dalemusser/remixhub/internal/app/features/health"
	"github.com/dalemusser/remixhub/internal/app/services/collabservice"
	"github.com/dalemusser/remixhub/internal/app/store/audit"
	challengestore "github.com/dalemusser/remixhub/internal/app/store/challenges"
	collabstore "github.com/dalemusser/remixhub/internal/app/store/collaborations"
	groupstore "github.com/dalemusser/remixhub/internal/app/store/groups"
	memestore "github.com/dalemusser/remixhub/internal/app/store/memes"
	userstore "github.com/dalemusser/remixhub/internal/app/store/users"
	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/app/system/events"
	"github.com/dalemusser/remixhub/internal/app/system/locks"
	"github.com/dalemusser/remixhub/internal/app/system/ratelimit"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"github.com/dalemusser/remixhub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// runtime is everything Startup builds for BuildHandler and Shutdown.
type runtime struct {
	collabs  *collabservice.Service
	verifier *auth.Verifier
	sweeper  *workers.InviteSweeper
	limiter  *ratelimit.Limiter // nil when rate limiting is off
	nats     *events.NATS
	audit    *audit.Store
	checks   []healthfeature.Check
}

// rt is set by Startup. WAFFLE runs the lifecycle hooks one after another,
// so it needs no locking.
var rt *runtime

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It applies
// timeouts, wires the collaboration service and starts the invite sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short: appCfg.TimeoutShort,
		Long:  appCfg.TimeoutLong,
	})
	cur := timeouts.Current()
	logger.Info("timeouts configured",
		zap.Duration("short", cur.Short), zap.Duration("long", cur.Long), zap.Duration("lock", cur.Lock))

	rt = newRuntime(appCfg, deps, logger)
	rt.sweeper.Start()
	logger.Info("invite sweeper started", zap.Duration("interval", appCfg.InviteSweepInterval))
	return nil
}

func newRuntime(appCfg AppConfig, deps DBDeps, logger *zap.Logger) *runtime {
	db := deps.RemixHubMongoDatabase
	r := &runtime{}

	r.audit = audit.New(db)
	auditLog := auditlog.New(r.audit, logger, auditlog.Config{
		Collab:   appCfg.AuditLogCollab,
		Security: appCfg.AuditLogSecurity,
	})

	var locker locks.Locker = locks.NewLocal()
	if deps.Redis != nil {
		locker = locks.NewRedis(deps.Redis, "", appCfg.LockTTL)
		r.checks = append(r.checks, healthfeature.Check{
			Name: "redis",
			Ping: func(ctx context.Context) error { return deps.Redis.Ping(ctx).Err() },
		})
	} else {
		logger.Info("redis_addr not set; collaboration locks are per-process")
	}

	var publisher events.Publisher = events.Nop{}
	if deps.NATS != nil {
		r.nats = events.NewNATS(deps.NATS, appCfg.EventsSubjectPrefix, logger)
		publisher = r.nats
		r.checks = append(r.checks, healthfeature.Check{
			Name: "nats",
			Ping: func(context.Context) error {
				if st := deps.NATS.Status(); st != nats.CONNECTED {
					return natsStatusError(st)
				}
				return nil
			},
		})
	} else {
		logger.Info("nats_url not set; activity events are discarded")
	}

	users := userstore.New(db)
	collabs := collabstore.New(db)

	r.collabs = collabservice.New(collabservice.Deps{
		Repo:       collabs,
		Users:      users,
		Memes:      memestore.New(db),
		Challenges: challengestore.New(db),
		Groups:     groupstore.New(db),
		Locker:     locker,
		Events:     publisher,
		Audit:      auditLog,
		Client:     deps.RemixHubMongoClient,
		Log:        logger,
	})
	r.verifier = auth.NewVerifier(appCfg.JWTSecret, appCfg.JWTIssuer, userstore.NewFetcher(db), auditLog, logger)
	r.sweeper = workers.NewInviteSweeper(collabs, auditLog, logger, appCfg.InviteSweepInterval)
	if appCfg.RateLimitPerMinute > 0 {
		r.limiter = ratelimit.New(appCfg.RateLimitPerMinute, time.Minute)
	}
	return r
}

type natsStatusError nats.Status

func (e natsStatusError) Error() string { return "nats connection " + nats.Status(e).String() }
