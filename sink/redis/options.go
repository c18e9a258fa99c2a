package redis

import "github.com/hostbound/dispatch/sink/codec"

// streamPrefix is the default prefix for stream keys to avoid clashing with
// user data.
const defaultStreamPrefix = "evt"

// options holds sink configuration (unexported).
type options struct {
	codec        codec.Codec
	streamPrefix string
	maxLen       int64
}

// Option configures the Redis sink.
type Option func(*options)

// WithCodec sets the envelope codec. Default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithStreamPrefix sets the stream key prefix. Streams are named
// "<prefix>:<event>".
func WithStreamPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.streamPrefix = prefix
		}
	}
}

// WithMaxLen caps each stream at approximately n entries using MAXLEN ~
// trimming. Zero means unlimited.
func WithMaxLen(n int64) Option {
	return func(o *options) {
		o.maxLen = n
	}
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		codec:        codec.Default(),
		streamPrefix: defaultStreamPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
