package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Subjects published by the workflow engine
const (
	TransferSubmitted    = "club.transfer.submitted"
	TransferListed       = "club.transfer.listed"
	TransferCancelled    = "club.transfer.cancelled"
	TransferCompleted    = "club.transfer.completed"
	RegistrationApproved = "club.registration.approved"
	RegistrationRejected = "club.registration.rejected"
	PlayerMoved          = "club.player.moved"
	PlayerCreated        = "club.player.created"
	PlayerDeleted        = "club.player.deleted"
)

// Event is the envelope sent for every committed workflow transition
type Event struct {
	ID         string          `json:"event_id"`
	Subject    string          `json:"subject"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh id
func NewEvent(subject string, payload any, at time.Time) (Event, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return Event{ID: uuid.NewString(), Subject: subject, OccurredAt: at, Payload: b}, nil
}

// Publisher delivers events after the transaction that produced them committed
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LogPublisher writes events to the log, used when no broker is configured
type LogPublisher struct {
	log logrus.FieldLogger
}

// NewLogPublisher creates a publisher that only logs
func NewLogPublisher(log logrus.FieldLogger) *LogPublisher {
	return &LogPublisher{log: log}
}

// Publish logs the event
func (p *LogPublisher) Publish(_ context.Context, event Event) error {
	p.log.WithFields(logrus.Fields{
		"event_id": event.ID,
		"subject":  event.Subject,
	}).Info("Publishing event")
	return nil
}

// NATSPublisher publishes events on a NATS connection
type NATSPublisher struct {
	nc *nats.Conn
}

// NewNATSPublisher connects to the NATS server at url
func NewNATSPublisher(url string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("club_system"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &NATSPublisher{nc: nc}, nil
}

// Publish sends the JSON envelope on the event subject
func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.nc.Publish(event.Subject, b)
}

// Close drains pending messages and closes the connection
func (p *NATSPublisher) Close() error {
	return p.nc.Drain()
}

// Recorder keeps published events in memory
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Publish records the event
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Subjects returns the subjects recorded so far, in order
func (r *Recorder) Subjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Subject
	}
	return out
}

// Events returns a copy of the recorded events
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}
