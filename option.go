package dispatch

import (
	"log/slog"
)

// DefaultName is the emitter name used when none is provided. It scopes the
// logger component and the OTel meter/tracer names.
var DefaultName = "dispatch"

// options holds emitter configuration (unexported).
type options struct {
	name            string
	logger          *slog.Logger
	pool            Pool
	errSink         ErrorSink
	recoveryEnabled bool
	tracingEnabled  bool
	metricsEnabled  bool
}

// Option configures an Emitter.
type Option func(*options)

// WithName sets the emitter name used in logs, metrics and traces.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets a custom logger for the emitter.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPool sets a custom pool for async listeners. The caller keeps
// ownership: Close on the emitter will not close an injected pool.
func WithPool(p Pool) Option {
	return func(o *options) {
		if p != nil {
			o.pool = p
		}
	}
}

// WithErrorSink sets the sink for async listener failures that have no
// per-listener ErrorHandler. The default sink logs the failure.
func WithErrorSink(s ErrorSink) Option {
	return func(o *options) {
		if s != nil {
			o.errSink = s
		}
	}
}

// WithRecovery enables/disables panic recovery in listeners.
// Recovery should stay enabled; disable it only to debug panics in tests.
func WithRecovery(enabled bool) Option {
	return func(o *options) {
		o.recoveryEnabled = enabled
	}
}

// WithTracing enables/disables OpenTelemetry tracing for Call.
func WithTracing(enabled bool) Option {
	return func(o *options) {
		o.tracingEnabled = enabled
	}
}

// WithMetrics enables/disables OpenTelemetry metrics.
func WithMetrics(enabled bool) Option {
	return func(o *options) {
		o.metricsEnabled = enabled
	}
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		name:            DefaultName,
		logger:          slog.Default(),
		recoveryEnabled: true,
		tracingEnabled:  true,
		metricsEnabled:  true,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// attachOptions holds per-listener configuration (unexported).
type attachOptions struct {
	mode    Mode
	once    bool
	onError ErrorHandler
}

// AttachOption configures a single listener registration.
type AttachOption func(*attachOptions)

// AsAsync marks the listener for execution on the worker pool. Call submits
// it and continues without waiting. An async once-listener is valid.
func AsAsync() AttachOption {
	return func(o *attachOptions) {
		o.mode = Async
	}
}

// Once removes the listener from the registry the moment its first dispatch
// is initiated, so it is visible to at most one firing even under
// concurrent Calls.
func Once() AttachOption {
	return func(o *attachOptions) {
		o.once = true
	}
}

// WithOnError sets the listener's failure callback. A sync listener failure
// routed here is considered handled: dispatch of subsequent listeners in the
// same firing continues.
func WithOnError(h ErrorHandler) AttachOption {
	return func(o *attachOptions) {
		o.onError = h
	}
}

// applyAttachOptions applies functional options over sync/not-once defaults.
func applyAttachOptions(opts ...AttachOption) *attachOptions {
	o := &attachOptions{mode: Sync}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
