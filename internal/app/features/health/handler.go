package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Check is an optional dependency probe (Redis, NATS) reported by name.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Checks []Check
	Log    *zap.Logger

	pingDB func(ctx context.Context) error
}

// NewHandler constructs a health Handler with the Mongo client, logger and
// any optional dependency checks.
func NewHandler(client *mongo.Client, logger *zap.Logger, checks ...Check) *Handler {
	h := &Handler{
		Client: client,
		Checks: checks,
		Log:    logger,
	}
	h.pingDB = func(ctx context.Context) error {
		return h.Client.Ping(ctx, readpref.Primary())
	}
	return h
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
	Message      string            `json:"message,omitempty"`
	Error        string            `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "dependencies":{"redis":"ok"} }
//
// On DB failure: 503 and
//
//	{ "status":"error", "database":"disconnected", "message":"Database unavailable", "error":"…"}
//
// A failing optional dependency also yields 503 with status "degraded".
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
	}

	if err := h.pingDB(ctx); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		apierr.WriteJSON(w, http.StatusServiceUnavailable, resp)
		return
	}

	code := http.StatusOK
	for _, c := range h.Checks {
		if resp.Dependencies == nil {
			resp.Dependencies = make(map[string]string, len(h.Checks))
		}
		if err := c.Ping(ctx); err != nil {
			h.Log.Warn("health-check: dependency unavailable", zap.String("dependency", c.Name), zap.Error(err))
			resp.Dependencies[c.Name] = "unavailable"
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
			continue
		}
		resp.Dependencies[c.Name] = "ok"
	}

	apierr.WriteJSON(w, code, resp)
}
