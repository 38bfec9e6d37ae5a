// internal/app/bootstrap/routes.go
package bootstrap

import (
	"errors"
	"net/http"

	auditfeature "github.com/dalemusser/remixhub/internal/app/features/auditlog"
	collabfeature "github.com/dalemusser/remixhub/internal/app/features/collaborations"
	healthfeature "github.com/dalemusser/remixhub/internal/app/features/health"
	invitesfeature "github.com/dalemusser/remixhub/internal/app/features/invites"
	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/auditlog"
	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. RemixHub serves a JSON API only: the collaboration
// endpoints, the caller's identity and pending invites, the admin audit log
// and a health check.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	if rt == nil {
		return nil, errors.New("bootstrap: BuildHandler called before Startup")
	}
	return buildRouter(appCfg, rt, deps.RemixHubMongoClient, logger), nil
}

func buildRouter(appCfg AppConfig, rt *runtime, client *mongo.Client, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   appCfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(apierr.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(auditlog.RequestMeta)

	// Bearer token → user in context for every route. Anonymous requests
	// pass through; auth.RequireSignedIn guards the mutations.
	r.Use(rt.verifier.LoadUser)

	r.NotFound(apierr.NotFoundHandler)
	r.MethodNotAllowed(apierr.MethodNotAllowedHandler)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(client, logger, rt.checks...)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	var limit func(http.Handler) http.Handler
	if rt.limiter != nil {
		limit = rt.limiter.Middleware(rateKey, apierr.RateLimited)
	}

	collabHandler := collabfeature.NewHandler(rt.collabs, logger)
	r.Mount("/collaborations", collabfeature.Routes(collabHandler, limit))

	invitesfeature.MountRoutes(r, invitesfeature.NewHandler(rt.collabs, logger))

	if rt.audit != nil {
		r.Mount("/audit", auditfeature.Routes(auditfeature.NewHandler(rt.audit, logger)))
	}

	return r
}

// rateKey buckets signed-in callers by user id and everyone else by IP.
func rateKey(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return "user:" + u.ID.Hex()
	}
	return "ip:" + ratelimit.ClientIP(r)
}
