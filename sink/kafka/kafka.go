// Package kafka provides a Kafka sink.
//
// Envelopes are produced synchronously to per-event topics, keyed by
// envelope ID. Producing through a sarama.SyncProducer means a Publish
// error reflects a real broker rejection rather than a buffered failure.
package kafka

import (
	"context"
	"sync/atomic"

	"github.com/IBM/sarama"

	"github.com/hostbound/dispatch/sink"
	"github.com/hostbound/dispatch/sink/codec"
)

// HeaderContentType is the record header carrying the codec content type.
const HeaderContentType = "content-type"

// Sink implements sink.Sink using a Kafka synchronous producer.
type Sink struct {
	status      int32
	producer    sarama.SyncProducer
	codec       codec.Codec
	topicPrefix string
}

// New creates a Kafka sink with a pre-initialized synchronous producer.
// The producer stays owned by the caller and is not closed by Close.
func New(producer sarama.SyncProducer, opts ...Option) (*Sink, error) {
	if producer == nil {
		return nil, sink.ErrClientRequired
	}
	o := newOptions(opts...)
	return &Sink{
		status:      1,
		producer:    producer,
		codec:       o.codec,
		topicPrefix: o.topicPrefix,
	}, nil
}

// Topic returns the topic used for an event.
func (s *Sink) Topic(event string) string {
	return s.topicPrefix + event
}

// Publish produces the envelope to the event's topic.
func (s *Sink) Publish(ctx context.Context, env sink.Envelope) error {
	if atomic.LoadInt32(&s.status) != 1 {
		return sink.ErrSinkClosed
	}

	data, err := s.codec.Encode(env)
	if err != nil {
		return err
	}

	_, _, err = s.producer.SendMessage(&sarama.ProducerMessage{
		Topic: s.Topic(env.Event),
		Key:   sarama.StringEncoder(env.ID),
		Value: sarama.ByteEncoder(data),
		Headers: []sarama.RecordHeader{{
			Key:   []byte(HeaderContentType),
			Value: []byte(s.codec.ContentType()),
		}},
	})
	return err
}

// Close marks the sink closed. The producer is left open.
func (s *Sink) Close(ctx context.Context) error {
	atomic.StoreInt32(&s.status, 0)
	return nil
}

// Compile-time interface check
var _ sink.Sink = (*Sink)(nil)
