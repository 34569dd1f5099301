// Package events announces contact form outcomes to other services.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject is the NATS subject contact outcomes are published on.
const DefaultSubject = "portfolio.contact"

// ContactSubmitted describes a finished contact submission. It carries no
// personal data beyond the subject line.
type ContactSubmitted struct {
	Status  string    `json:"status"`
	Subject string    `json:"subject"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

// Publisher sends contact events.
type Publisher interface {
	PublishContact(ctx context.Context, ev ContactSubmitted) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) PublishContact(context.Context, ContactSubmitted) error { return nil }

func (Nop) Close() error { return nil }

// conn is the subset of *nats.Conn used by NATS.
type conn interface {
	Publish(subject string, data []byte) error
	Drain() error
}

// NATS publishes events on a NATS subject.
type NATS struct {
	nc      conn
	subject string
}

// Connect dials url and returns a publisher for subject.
func Connect(url, subject string) (*NATS, error) {
	nc, err := nats.Connect(url, nats.Name("portfolio"))
	if err != nil {
		return nil, fmt.Errorf("connecting to nats %s: %w", url, err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &NATS{nc: nc, subject: subject}, nil
}

func (n *NATS) PublishContact(_ context.Context, ev ContactSubmitted) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding contact event: %w", err)
	}
	if err := n.nc.Publish(n.subject+"."+ev.Status, data); err != nil {
		slog.Warn("failed to publish contact event", "subject", n.subject, "error", err)
		return fmt.Errorf("publishing contact event: %w", err)
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (n *NATS) Close() error {
	return n.nc.Drain()
}

// Multi publishes every event to each publisher in turn. All publishers are
// tried; the first error is returned.
type Multi []Publisher

func (m Multi) PublishContact(ctx context.Context, ev ContactSubmitted) error {
	var first error
	for _, p := range m {
		if err := p.PublishContact(ctx, ev); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, p := range m {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
