// internal/app/features/collaborations/handler.go
package collaborations

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/dalemusser/remixhub/internal/app/services/collabservice"
	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/auth"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// maxBody caps JSON request bodies.
const maxBody = 1 << 20

// Handler is the shared dependency container for the collaborations
// feature. Every endpoint delegates to the collaboration service and renders
// its result or error as JSON.
type Handler struct {
	Svc *collabservice.Service
	Log *zap.Logger
}

// NewHandler constructs a collaborations Handler. It is called from the
// bootstrap BuildHandler once the service is wired.
func NewHandler(svc *collabservice.Service, logger *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: logger}
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		h.Log.Warn("collaboration request timed out",
			zap.String("method", r.Method), zap.String("path", r.URL.Path))
	}
	apierr.Respond(w, r, h.Log, err)
}

// readCtx and writeCtx bound service calls with the configured timeouts.
func readCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Short())
}

func writeCtx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeouts.Long())
}

// decode reads a JSON body into v. An empty body leaves v untouched.
// Unknown fields are ignored so clients may send whole documents back.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	apierr.BadRequest(w, r, "request body must be valid JSON: "+err.Error())
	return false
}

// objectID parses URL parameter name as an ObjectID.
func objectID(w http.ResponseWriter, r *http.Request, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		apierr.BadRequest(w, r, name+" must be a valid id")
		return primitive.NilObjectID, false
	}
	return id, true
}

// versionNumber parses the {n} URL parameter.
func versionNumber(w http.ResponseWriter, r *http.Request) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil || n < 1 {
		apierr.BadRequest(w, r, "version number must be a positive integer")
		return 0, false
	}
	return n, true
}

// actor returns the signed-in user's id. Routes that call it sit behind
// auth.RequireSignedIn, so a missing user is a wiring bug reported as 401.
func actor(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		apierr.Unauthorized(w, r, "sign in required")
		return primitive.NilObjectID, false
	}
	return u.ID, true
}
