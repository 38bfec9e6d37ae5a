// Package events publishes collaboration activity for other services
// (feeds, notifications) to consume.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Event types.
const (
	InviteSent       = "invite.sent"
	InviteAccepted   = "invite.accepted"
	VersionCreated   = "version.created"
	ForkCreated      = "fork.created"
	MergeCompleted   = "merge.completed"
	CollaboratorJoin = "collaborator.joined"
)

// Event is the message body published for each activity.
type Event struct {
	ID              string         `json:"id"`
	Type            string         `json:"type"`
	CollaborationID string         `json:"collaboration_id"`
	ActorID         string         `json:"actor_id,omitempty"`
	OccurredAt      time.Time      `json:"occurred_at"`
	Data            map[string]any `json:"data,omitempty"`
}

// Publisher delivers events. Publish failures never fail the operation
// that produced the event; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Stamp fills ID and OccurredAt when unset.
func Stamp(e Event) Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	return e
}

// Nop discards events. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) error {
	r.mu.Lock()
	r.events = append(r.events, Stamp(e))
	r.mu.Unlock()
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the published event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}

// NATS publishes events as JSON on "<prefix>.<type>".
type NATS struct {
	nc     *nats.Conn
	prefix string
	log    *zap.Logger
}

// Connect dials url with reconnect handling logged through log.
func Connect(url string, log *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("remixhub"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.Timeout(5*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info("nats connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}
	return nc, nil
}

// NewNATS wraps an open connection.
func NewNATS(nc *nats.Conn, prefix string, log *zap.Logger) *NATS {
	if prefix == "" {
		prefix = "remixhub"
	}
	return &NATS{nc: nc, prefix: prefix, log: log}
}

// Subject returns the subject an event type is published on.
func (p *NATS) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *NATS) Publish(_ context.Context, e Event) error {
	raw, err := json.Marshal(Stamp(e))
	if err != nil {
		return err
	}
	return p.nc.Publish(p.Subject(e.Type), raw)
}

// Close flushes pending messages and closes the connection.
func (p *NATS) Close() error {
	if p == nil || p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}
