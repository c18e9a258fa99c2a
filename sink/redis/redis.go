// Package redis provides a Redis Streams sink.
//
// Each forwarded event is appended to a per-event stream with XADD, so
// envelopes are persisted and external consumers can read them with consumer
// groups at their own pace. Stream length is capped with approximate MAXLEN
// trimming when WithMaxLen is set.
package redis

import (
	"context"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"github.com/hostbound/dispatch/sink"
	"github.com/hostbound/dispatch/sink/codec"
)

// Client defines the interface for Redis client operations.
// Supports *redis.Client, *redis.ClusterClient, and redis.UniversalClient.
type Client interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

// Field names used in stream entries.
const (
	FieldPayload = "payload"
	FieldCodec   = "codec"
)

// Sink implements sink.Sink using Redis Streams.
type Sink struct {
	status       int32
	client       Client
	codec        codec.Codec
	streamPrefix string
	maxLen       int64
}

// New creates a Redis Streams sink with a pre-initialized client.
// The client stays owned by the caller and is not closed by Close.
func New(client Client, opts ...Option) (*Sink, error) {
	if client == nil {
		return nil, sink.ErrClientRequired
	}
	o := newOptions(opts...)
	return &Sink{
		status:       1,
		client:       client,
		codec:        o.codec,
		streamPrefix: o.streamPrefix,
		maxLen:       o.maxLen,
	}, nil
}

// Stream returns the stream key used for an event.
func (s *Sink) Stream(event string) string {
	return s.streamPrefix + ":" + event
}

// Publish appends the envelope to the event's stream.
func (s *Sink) Publish(ctx context.Context, env sink.Envelope) error {
	if atomic.LoadInt32(&s.status) != 1 {
		return sink.ErrSinkClosed
	}

	data, err := s.codec.Encode(env)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: s.Stream(env.Event),
		Values: map[string]any{
			FieldPayload: data,
			FieldCodec:   s.codec.Name(),
		},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	return s.client.XAdd(ctx, args).Err()
}

// Close marks the sink closed. The Redis client is left open.
func (s *Sink) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.status, 0)
	return nil
}

// Compile-time interface check
var _ sink.Sink = (*Sink)(nil)
