package nats

import "github.com/hostbound/dispatch/sink/codec"

// defaultSubjectPrefix is the default subject prefix to avoid clashing with
// user subjects.
const defaultSubjectPrefix = "evt."

// options holds sink configuration (unexported).
type options struct {
	codec         codec.Codec
	subjectPrefix string
}

// Option configures the NATS sink.
type Option func(*options)

// WithCodec sets the envelope codec. Default is JSON.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithSubjectPrefix sets the subject prefix. Subjects are named
// "<prefix><event>".
func WithSubjectPrefix(prefix string) Option {
	return func(o *options) {
		if prefix != "" {
			o.subjectPrefix = prefix
		}
	}
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		codec:         codec.Default(),
		subjectPrefix: defaultSubjectPrefix,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
