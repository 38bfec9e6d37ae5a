package bootstrap

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/remixhub/internal/app/services/collabservice"
	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/app/system/ratelimit"
	"github.com/dalemusser/remixhub/internal/domain/models"
	"github.com/dalemusser/remixhub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

const testSecret = "test-secret-test-secret-test-secret-42"

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "remixhub_test",
		JWTSecret:           testSecret,
		CORSAllowedOrigins:  []string{"https://app.example.com"},
		InviteSweepInterval: time.Minute,
		AuditLogCollab:      "all",
		AuditLogSecurity:    "log",
		RateLimitPerMinute:  60,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "valid dev", env: "dev"},
		{name: "valid prod", env: "prod"},
		{name: "bad mongo uri", env: "dev", mutate: func(c *AppConfig) { c.MongoURI = "postgres://nope" }, wantErr: "MongoDB URI"},
		{name: "short secret in prod", env: "prod", mutate: func(c *AppConfig) { c.JWTSecret = "short" }, wantErr: "jwt_secret"},
		{name: "dev default secret in prod", env: "prod", mutate: func(c *AppConfig) { c.JWTSecret = "dev-only-change-me-please-0123456789ABCDEF" }, wantErr: "jwt_secret"},
		{name: "short secret ok in dev", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = "short" }},
		{name: "missing secret in dev", env: "dev", mutate: func(c *AppConfig) { c.JWTSecret = "" }, wantErr: "jwt_secret"},
		{name: "zero sweep interval", env: "dev", mutate: func(c *AppConfig) { c.InviteSweepInterval = 0 }, wantErr: "invite_sweep_interval"},
		{name: "negative rate limit", env: "dev", mutate: func(c *AppConfig) { c.RateLimitPerMinute = -1 }, wantErr: "rate_limit_per_minute"},
		{name: "bad audit setting", env: "dev", mutate: func(c *AppConfig) { c.AuditLogCollab = "sometimes" }, wantErr: "audit_log_collab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			if tt.mutate != nil {
				tt.mutate(&cfg)
			}
			err := ValidateConfig(&config.CoreConfig{Env: tt.env}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" https://a.example.com, ,https://b.example.com ,")
	if len(got) != 2 || got[0] != "https://a.example.com" || got[1] != "https://b.example.com" {
		t.Errorf("splitList = %q", got)
	}
	if splitList("") != nil {
		t.Error("empty input should give nil")
	}
}

type routerEnv struct {
	handler http.Handler
	rt      *runtime
	users   *testutil.MemUsers
}

func newRouterEnv(t *testing.T, perMinute int) *routerEnv {
	t.Helper()
	users := testutil.NewMemUsers()
	svc := collabservice.New(collabservice.Deps{
		Repo:       testutil.NewMemRepo(),
		Users:      users,
		Memes:      testutil.NewMemContent(),
		Challenges: testutil.NewMemContent(),
		Groups:     testutil.NewMemGroups(),
		Log:        testLogger(),
	})
	r := &runtime{
		collabs:  svc,
		verifier: auth.NewVerifier(testSecret, "", users, nil, testLogger()),
	}
	if perMinute > 0 {
		r.limiter = ratelimit.New(perMinute, time.Minute)
		t.Cleanup(r.limiter.Stop)
	}
	cfg := validConfig()
	return &routerEnv{handler: buildRouter(cfg, r, nil, testLogger()), rt: r, users: users}
}

func (e *routerEnv) token(t *testing.T, username string) string {
	t.Helper()
	u := e.users.Add(models.User{Username: username})
	tok, err := e.rt.verifier.Issue(u.ID, time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	return tok
}

func (e *routerEnv) do(req *http.Request) *testutil.ResponseRecorder {
	rec := testutil.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_UnknownRouteIsJSON404(t *testing.T) {
	e := newRouterEnv(t, 0)
	rec := e.do(testutil.NewRequest(http.MethodGet, "/nope"))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertErrorCode(t, "NOT_FOUND")
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("expected X-Request-Id on the response")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	e := newRouterEnv(t, 0)
	req := testutil.NewRequest(http.MethodOptions, "/collaborations")
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := e.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example.com" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = testutil.NewRequest(http.MethodOptions, "/collaborations")
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec = e.do(req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin was allowed: %q", got)
	}
}

func TestRouter_BearerTokenFlow(t *testing.T) {
	e := newRouterEnv(t, 0)

	anon := e.do(testutil.NewJSONRequest(http.MethodPost, "/collaborations", map[string]any{"title": "x"}))
	anon.AssertStatus(t, http.StatusUnauthorized)

	bad := testutil.NewJSONRequest(http.MethodPost, "/collaborations", map[string]any{"title": "x"})
	bad.Header.Set("Authorization", "Bearer not-a-token")
	e.do(bad).AssertStatus(t, http.StatusUnauthorized)

	req := testutil.NewJSONRequest(http.MethodPost, "/collaborations", map[string]any{"title": "Woman yelling at cat"})
	req.Header.Set("Authorization", "Bearer "+e.token(t, "creator"))
	rec := e.do(req)
	rec.AssertStatus(t, http.StatusCreated)

	me := testutil.NewRequest(http.MethodGet, "/me")
	me.Header.Set("Authorization", "Bearer "+e.token(t, "someone"))
	rec = e.do(me)
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"username":"someone"`)
}

func TestRouter_RateLimitsMutations(t *testing.T) {
	e := newRouterEnv(t, 1)
	tok := e.token(t, "spammer")

	post := func() *testutil.ResponseRecorder {
		req := testutil.NewJSONRequest(http.MethodPost, "/collaborations", map[string]any{"title": "Spam"})
		req.Header.Set("Authorization", "Bearer "+tok)
		return e.do(req)
	}
	post().AssertStatus(t, http.StatusCreated)
	rec := post()
	rec.AssertStatus(t, http.StatusTooManyRequests)
	rec.AssertErrorCode(t, "RATE_LIMITED")

	// reads are not limited
	for i := 0; i < 3; i++ {
		e.do(testutil.NewRequest(http.MethodGet, "/collaborations")).AssertStatus(t, http.StatusOK)
	}
}

func TestEnsureSchemaAndRuntime(t *testing.T) {
	client, db := testutil.SetupTestClient(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{RemixHubMongoClient: client, RemixHubMongoDatabase: db}
	cfg := validConfig()
	if err := EnsureSchema(ctx, &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	// idempotent
	if err := EnsureSchema(ctx, &config.CoreConfig{Env: "dev"}, cfg, deps, testLogger()); err != nil {
		t.Fatalf("second EnsureSchema: %v", err)
	}

	r := newRuntime(cfg, deps, testLogger())
	if r.collabs == nil || r.verifier == nil || r.sweeper == nil || r.limiter == nil || r.audit == nil {
		t.Fatalf("runtime not fully wired: %+v", r)
	}
	defer r.limiter.Stop()
	if len(r.checks) != 0 {
		t.Errorf("no redis or nats configured, got %d checks", len(r.checks))
	}
	r.sweeper.Sweep(ctx)
}
