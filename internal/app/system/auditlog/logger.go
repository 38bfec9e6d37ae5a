// internal/app/system/auditlog/logger.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"

	"github.com/dalemusser/remixhub/internal/app/store/audit"
	"github.com/dalemusser/remixhub/internal/app/system/ratelimit"
	"github.com/go-chi/chi/v5/middleware"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Config holds per-category destinations.
// Values: "all" (MongoDB + zap), "db" (MongoDB only), "log" (zap only), "off".
type Config struct {
	Collab   string
	Security string
}

// Logger writes audit events to MongoDB (via audit.Store) and zap according
// to Config. A nil *Logger is a valid no-op.
type Logger struct {
	store  *audit.Store
	zapLog *zap.Logger
	config Config
}

// New creates a new audit Logger.
func New(store *audit.Store, zapLog *zap.Logger, config Config) *Logger {
	return &Logger{store: store, zapLog: zapLog, config: config}
}

type requestMetaKey struct{}

type requestMeta struct {
	ip, userAgent, requestID string
}

// RequestMeta is middleware that stores the client IP, user agent and request
// id on the context so events logged deeper in the call chain carry them.
func RequestMeta(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := requestMeta{
			ip:        ratelimit.ClientIP(r),
			userAgent: r.UserAgent(),
			requestID: middleware.GetReqID(r.Context()),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestMetaKey{}, m)))
	})
}

func (l *Logger) setting(category string) string {
	switch category {
	case audit.CategoryCollab:
		return l.config.Collab
	case audit.CategorySecurity:
		return l.config.Security
	}
	return "all"
}

// Log records event per configuration. Storage failures are logged, never
// returned: auditing must not fail the operation it describes.
func (l *Logger) Log(ctx context.Context, event audit.Event) {
	if l == nil {
		return
	}
	setting := l.setting(event.Category)
	if setting == "off" {
		return
	}
	if m, ok := ctx.Value(requestMetaKey{}).(requestMeta); ok {
		if event.IP == "" {
			event.IP = m.ip
		}
		if event.UserAgent == "" {
			event.UserAgent = m.userAgent
		}
		if event.RequestID == "" {
			event.RequestID = m.requestID
		}
	}

	if setting == "all" || setting == "log" {
		l.logToZap(event)
	}
	if (setting == "all" || setting == "db") && l.store != nil {
		if err := l.store.Log(ctx, event); err != nil {
			l.zapLog.Error("failed to store audit event",
				zap.Error(err),
				zap.String("event_type", event.EventType),
			)
		}
	}
}

func (l *Logger) logToZap(event audit.Event) {
	fields := []zap.Field{
		zap.Bool("audit", true),
		zap.String("category", event.Category),
		zap.String("event_type", event.EventType),
		zap.Bool("success", event.Success),
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if event.CollaborationID != nil {
		fields = append(fields, zap.String("collaboration_id", event.CollaborationID.Hex()))
	}
	if event.UserID != nil {
		fields = append(fields, zap.String("user_id", event.UserID.Hex()))
	}
	if event.ActorID != nil {
		fields = append(fields, zap.String("actor_id", event.ActorID.Hex()))
	}
	if event.FailureReason != "" {
		fields = append(fields, zap.String("failure_reason", event.FailureReason))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("detail_"+k, v))
	}
	if event.Success {
		l.zapLog.Info("audit event", fields...)
	} else {
		l.zapLog.Warn("audit event", fields...)
	}
}

// --- Collaboration events ---

func (l *Logger) collab(ctx context.Context, eventType string, collabID, actorID primitive.ObjectID, userID *primitive.ObjectID, details map[string]string) {
	l.Log(ctx, audit.Event{
		Category:        audit.CategoryCollab,
		EventType:       eventType,
		CollaborationID: &collabID,
		ActorID:         &actorID,
		UserID:          userID,
		Success:         true,
		Details:         details,
	})
}

// CollabCreated logs creation of a collaboration.
func (l *Logger) CollabCreated(ctx context.Context, collabID, actorID primitive.ObjectID, title string) {
	l.collab(ctx, audit.EventCollabCreated, collabID, actorID, nil, map[string]string{"title": title})
}

// CollabDeleted logs a hard delete.
func (l *Logger) CollabDeleted(ctx context.Context, collabID, actorID primitive.ObjectID, title string) {
	l.collab(ctx, audit.EventCollabDeleted, collabID, actorID, nil, map[string]string{"title": title})
}

// StatusChanged logs a lifecycle transition.
func (l *Logger) StatusChanged(ctx context.Context, collabID, actorID primitive.ObjectID, from, to string) {
	l.collab(ctx, audit.EventCollabStatusChanged, collabID, actorID, nil, map[string]string{"from": from, "to": to})
}

// CollaboratorRemoved logs removal of a collaborator.
func (l *Logger) CollaboratorRemoved(ctx context.Context, collabID, actorID, userID primitive.ObjectID) {
	l.collab(ctx, audit.EventCollaboratorRemoved, collabID, actorID, &userID, nil)
}

// CollaboratorRoleChanged logs a role change.
func (l *Logger) CollaboratorRoleChanged(ctx context.Context, collabID, actorID, userID primitive.ObjectID, role string) {
	l.collab(ctx, audit.EventCollaboratorRoleSet, collabID, actorID, &userID, map[string]string{"role": role})
}

// Forked logs creation of a fork. collabID is the source.
func (l *Logger) Forked(ctx context.Context, collabID, forkID, actorID primitive.ObjectID) {
	l.collab(ctx, audit.EventCollabForked, collabID, actorID, nil, map[string]string{"fork_id": forkID.Hex()})
}

// Merged logs a merge from forkID into collabID.
func (l *Logger) Merged(ctx context.Context, collabID, forkID, actorID primitive.ObjectID, details map[string]string) {
	d := map[string]string{"fork_id": forkID.Hex()}
	for k, v := range details {
		d[k] = v
	}
	l.collab(ctx, audit.EventCollabMerged, collabID, actorID, nil, d)
}

// ForkCountsReconciled logs a sweep that corrected n drifted fork counters.
func (l *Logger) ForkCountsReconciled(ctx context.Context, n int) {
	l.Log(ctx, audit.Event{
		Category:  audit.CategoryCollab,
		EventType: audit.EventForkCounterReconcile,
		Success:   true,
		Details:   map[string]string{"corrected": strconv.Itoa(n)},
	})
}

// --- Security events ---

// TokenRejected logs a bearer token that failed verification.
func (l *Logger) TokenRejected(ctx context.Context, reason string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventTokenRejected,
		Success:       false,
		FailureReason: reason,
	})
}

// BlockedUser logs a request from a banned or suspended account.
func (l *Logger) BlockedUser(ctx context.Context, userID primitive.ObjectID, status string) {
	l.Log(ctx, audit.Event{
		Category:      audit.CategorySecurity,
		EventType:     audit.EventBlockedUser,
		UserID:        &userID,
		Success:       false,
		FailureReason: "account " + status,
	})
}
