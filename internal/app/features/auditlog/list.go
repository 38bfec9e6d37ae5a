// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/remixhub/internal/app/store/audit"
	"github.com/dalemusser/remixhub/internal/app/system/apierr"
	"github.com/dalemusser/remixhub/internal/app/system/authz"
	"github.com/dalemusser/remixhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	pageSize = 50
	maxPage  = 500
)

// listItem is a single audit event in the response.
type listItem struct {
	ID              string            `json:"id"`
	Timestamp       time.Time         `json:"timestamp"`
	Category        string            `json:"category"`
	EventType       string            `json:"event_type"`
	CollaborationID string            `json:"collaboration_id,omitempty"`
	ActorID         string            `json:"actor_id,omitempty"`
	UserID          string            `json:"user_id,omitempty"`
	IP              string            `json:"ip,omitempty"`
	RequestID       string            `json:"request_id,omitempty"`
	Success         bool              `json:"success"`
	FailureReason   string            `json:"failure_reason,omitempty"`
	Details         map[string]string `json:"details,omitempty"`
}

// ServeList handles GET /audit. Site admins only.
//
// Query: category, event_type, collaboration_id, actor_id,
// since (YYYY-MM-DD), limit (default 50, max 500).
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	if !authz.IsSiteAdmin(r) {
		apierr.Forbidden(w, r, "site admin required")
		return
	}

	filter := audit.QueryFilter{
		Category:  strings.TrimSpace(query.Get(r, "category")),
		EventType: strings.TrimSpace(query.Get(r, "event_type")),
		Limit:     pageSize,
	}
	if filter.Category != "" && filter.Category != audit.CategoryCollab && filter.Category != audit.CategorySecurity {
		apierr.BadRequest(w, r, "category must be collab or security")
		return
	}
	if s := query.Get(r, "limit"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 1 {
			apierr.BadRequest(w, r, "limit must be a positive integer")
			return
		}
		if n > maxPage {
			n = maxPage
		}
		filter.Limit = n
	}
	for _, p := range []struct {
		name string
		dst  **primitive.ObjectID
	}{
		{"collaboration_id", &filter.CollaborationID},
		{"actor_id", &filter.ActorID},
	} {
		s := query.Get(r, p.name)
		if s == "" {
			continue
		}
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			apierr.BadRequest(w, r, p.name+" must be a valid id")
			return
		}
		*p.dst = &id
	}
	if s := query.Get(r, "since"); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			apierr.BadRequest(w, r, "since must be a date (YYYY-MM-DD)")
			return
		}
		filter.Since = &t
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Long(), h.Log, "audit log list")
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		apierr.Respond(w, r, h.Log, err)
		return
	}

	items := make([]listItem, 0, len(events))
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			RequestID:     e.RequestID,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.CollaborationID != nil {
			item.CollaborationID = e.CollaborationID.Hex()
		}
		if e.ActorID != nil {
			item.ActorID = e.ActorID.Hex()
		}
		if e.UserID != nil {
			item.UserID = e.UserID.Hex()
		}
		items = append(items, item)
	}
	apierr.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}
