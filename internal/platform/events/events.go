// Package events publishes health pass lifecycle events to a message broker.
// Publishing is best-effort: callers never fail a request because the broker
// is unavailable.
package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medpass/medpass/internal/platform/metrics"
)

const (
	TypePassCreated  = "health_pass.created"
	TypePassAccessed = "health_pass.accessed"
	TypePassExpired  = "health_pass.expired"
)

const publishTimeout = 5 * time.Second

// Event is the broker payload. Data never carries record contents.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	OccurredAt time.Time         `json:"occurredAt"`
	PassID     string            `json:"passId"`
	OwnerID    string            `json:"ownerId"`
	Data       map[string]string `json:"data,omitempty"`
}

// New stamps an event with a fresh ID and the current time.
func New(eventType string, passID, ownerID uuid.UUID, data map[string]string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		PassID:     passID.String(),
		OwnerID:    ownerID.String(),
		Data:       data,
	}
}

func (e Event) payload() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
	Close() error
}

// NopPublisher drops every event. Used when EVENTS_BACKEND=none.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, evt Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, evt)
	return nil
}

func (r *Recorder) Close() error { return nil }

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the type of every published event, in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, e := range r.Events() {
		out = append(out, e.Type)
	}
	return out
}

// Emitter wraps a Publisher with a timeout, logging and metrics. Emit never
// returns an error.
type Emitter struct {
	pub     Publisher
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// NewEmitter returns an Emitter. m may be nil.
func NewEmitter(pub Publisher, logger zerolog.Logger, m *metrics.Metrics) *Emitter {
	if pub == nil {
		pub = NopPublisher{}
	}
	return &Emitter{pub: pub, logger: logger.With().Str("component", "events").Logger(), metrics: m}
}

func (e *Emitter) Emit(ctx context.Context, evt Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	outcome := "ok"
	if err := e.pub.Publish(ctx, evt); err != nil {
		outcome = "error"
		e.logger.Warn().Err(err).
			Str("event_type", evt.Type).
			Str("event_id", evt.ID).
			Str("pass_id", evt.PassID).
			Msg("event publish failed")
	}
	if e.metrics != nil {
		e.metrics.EventsPublished.WithLabelValues(evt.Type, outcome).Inc()
	}
}
