// Package sink defines the outbound forwarding surface for dispatched
// events.
//
// A Sink receives one Envelope per forwarded firing and delivers it to an
// external system (Redis Streams, NATS, Kafka). Sinks are one-way: they
// carry fired events out of the process and take no part in dispatch
// ordering or delivery guarantees.
//
// Sink implementations (redis, nats, kafka) import this package rather than
// the parent dispatch package to avoid import cycles.
package sink

import (
	"context"
	"errors"
	"time"
)

// Sink errors
var (
	// ErrSinkClosed is returned by Publish after Close has been called.
	ErrSinkClosed = errors.New("sink is closed")

	// ErrClientRequired is returned by sink constructors when no client or
	// connection is provided.
	ErrClientRequired = errors.New("client is required")
)

// Envelope is the wire representation of one event firing.
type Envelope struct {
	ID      string    `json:"id" msgpack:"id"`
	Event   string    `json:"event" msgpack:"event"`
	Source  string    `json:"source,omitempty" msgpack:"source,omitempty"`
	Args    []any     `json:"args" msgpack:"args"`
	FiredAt time.Time `json:"fired_at" msgpack:"fired_at"`
}

// Sink delivers envelopes to an external system.
type Sink interface {
	// Publish delivers one envelope. It runs on an async listener
	// goroutine, never on the firing goroutine, so it may block up to the
	// context deadline.
	Publish(ctx context.Context, env Envelope) error

	// Close releases sink resources. The underlying client or connection
	// stays open; the caller created it and keeps ownership.
	Close(ctx context.Context) error
}
