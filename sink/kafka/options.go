package kafka

import "github.com/hostbound/dispatch/sink/codec"

// defaultTopicPrefix is the default topic prefix to avoid clashing with user
// topics.
const defaultTopicPrefix = "evt."

// options holds sink configuration (unexported).
type options struct {
	codec       codec.Codec
	topicPrefix string
}

// Option configures the Kafka sink.
type Option func(*options)

// WithCodec sets the envelope codec. Default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithTopicPrefix sets the topic prefix. Topics are named
// "<prefix><event>".
func WithTopicPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.topicPrefix = prefix
		}
	}
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		codec:       codec.Default(),
		topicPrefix: defaultTopicPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
