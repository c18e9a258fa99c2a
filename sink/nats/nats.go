// Package nats provides a NATS core pub/sub sink.
//
// Envelopes are published to per-event subjects with at-most-once delivery:
// if no subscribers are connected when an event is forwarded, the envelope
// is dropped. Suitable for ephemeral fan-out (dashboards, notifications)
// where losing a firing is acceptable.
package nats

import (
	"context"
	"sync/atomic"

	"github.com/nats-io/nats.go"

	"github.com/hostbound/dispatch/sink"
	"github.com/hostbound/dispatch/sink/codec"
)

// HeaderContentType is the message header carrying the codec content type.
const HeaderContentType = "Content-Type"

// Sink implements sink.Sink using NATS core publish.
type Sink struct {
	status        int32
	conn          *nats.Conn
	codec         codec.Codec
	subjectPrefix string
}

// New creates a NATS sink on an established connection.
// The connection stays owned by the caller and is not closed by Close.
func New(conn *nats.Conn, opts ...Option) (*Sink, error) {
	if conn == nil {
		return nil, sink.ErrClientRequired
	}
	o := newOptions(opts...)
	return &Sink{
		status:        1,
		conn:          conn,
		codec:         o.codec,
		subjectPrefix: o.subjectPrefix,
	}, nil
}

// Subject returns the subject used for an event.
func (s *Sink) Subject(event string) string {
	return s.subjectPrefix + event
}

// Publish sends the envelope to the event's subject.
func (s *Sink) Publish(ctx context.Context, env sink.Envelope) error {
	if atomic.LoadInt32(&s.status) != 1 {
		return sink.ErrSinkClosed
	}

	data, err := s.codec.Encode(env)
	if err != nil {
		return err
	}

	msg := nats.NewMsg(s.Subject(env.Event))
	msg.Header.Set(HeaderContentType, s.codec.ContentType())
	msg.Data = data
	return s.conn.PublishMsg(msg)
}

// Close marks the sink closed and flushes buffered publishes.
// The connection is left open.
func (s *Sink) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&s.status, 1, 0) {
		return nil
	}
	return s.conn.FlushWithContext(ctx)
}

// Compile-time interface check
var _ sink.Sink = (*Sink)(nil)
