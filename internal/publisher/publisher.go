// Package publisher defines the ingest notification fanout contract.
package publisher

import "context"

// Publisher sends one payload to a topic and returns the message id.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) (string, error)
}

// NoOp drops every message. Used when no topic is configured.
type NoOp struct{}

// Publish discards the payload.
func (NoOp) Publish(_ context.Context, _ string, _ any) (string, error) {
	return "noop", nil
}
