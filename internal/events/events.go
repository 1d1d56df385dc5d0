// Package events publishes lifecycle step events to NATS for downstream
// processing (dashboards, forge automation). Publishing is optional: when no
// NATS URL is configured the noop publisher is used and every call succeeds.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Subject is the NATS subject lifecycle events are published on.
const Subject = "pubctl.lifecycle"

// StepEvent describes one completed lifecycle step.
type StepEvent struct {
	TransactionID string    `json:"transaction_id"`
	Step          string    `json:"step"`
	Outcome       string    `json:"outcome"`
	DurationMS    int64     `json:"duration_ms"`
	ProjectHome   string    `json:"project_home"`
	Hooks         int       `json:"hooks"`
	Timestamp     time.Time `json:"timestamp"`
}

// Publisher emits lifecycle events. Implementations must be safe to call with
// a partially filled event; the timestamp is stamped on publish.
type Publisher interface {
	PublishStep(event StepEvent) error
	Close() error
}

// NoopPublisher discards all events.
type NoopPublisher struct{}

func (NoopPublisher) PublishStep(StepEvent) error { return nil }
func (NoopPublisher) Close() error                { return nil }

// NATSPublisher publishes events over a core NATS connection. Events are
// fire-and-forget; a lost event never fails the lifecycle step.
type NATSPublisher struct {
	conn *nats.Conn
}

// Connect dials the NATS server and returns a publisher bound to it.
func Connect(url string) (*NATSPublisher, error) {
	conn, err := nats.Connect(url, nats.Name("pubctl"))
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	slog.Info("lifecycle event publisher connected", "url", url, "subject", Subject)
	return &NATSPublisher{conn: conn}, nil
}

// PublishStep emits one step event.
func (p *NATSPublisher) PublishStep(event StepEvent) error {
	event.Timestamp = time.Now().UTC()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal step event: %w", err)
	}
	if err := p.conn.Publish(Subject, data); err != nil {
		return fmt.Errorf("publish step event: %w", err)
	}
	slog.Debug("published lifecycle event",
		"step", event.Step,
		"outcome", event.Outcome,
		"tx.id", event.TransactionID)
	return nil
}

// Close flushes pending events and drops the connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		_ = p.conn.Flush()
		p.conn.Close()
	}
	return nil
}

// ForURL returns a NATS publisher when url is non-empty, the noop publisher
// otherwise. Connection failures degrade to noop with a warning so a missing
// broker never blocks a build.
func ForURL(url string) Publisher {
	if url == "" {
		return NoopPublisher{}
	}
	p, err := Connect(url)
	if err != nil {
		slog.Warn("lifecycle event publishing disabled", "error", err)
		return NoopPublisher{}
	}
	return p
}
