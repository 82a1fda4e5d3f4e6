package quiz

import (
	"context"
)

// EventPublisher emits the analyzed snapshot of a session. Key is the session
// id; value is the encoded snapshot.
type EventPublisher interface {
	Publish(ctx context.Context, key string, value []byte) error
	Topic() string
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, []byte) error { return nil }
func (nopPublisher) Topic() string                                 { return "" }

// NopPublisher discards every event.
func NopPublisher() EventPublisher { return nopPublisher{} }
