package worker

import "log/slog"

var (
	// DefaultWorkers is the default number of worker goroutines.
	DefaultWorkers uint = 100

	// DefaultQueueSize is the default task queue buffer size.
	DefaultQueueSize uint = 100
)

// options holds pool configuration (unexported).
type options struct {
	workers   uint
	queueSize uint
	logger    *slog.Logger
	onPanic   func(v any)
}

// Option configures a Pool.
type Option func(*options)

// WithWorkers sets the number of worker goroutines.
func WithWorkers(n uint) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithQueueSize sets the task queue buffer size. Submissions beyond the
// buffer spill to dedicated goroutines instead of blocking.
func WithQueueSize(n uint) Option {
	return func(o *options) {
		o.queueSize = n
	}
}

// WithLogger sets a custom logger for the pool.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithOnPanic sets a callback invoked with recovered task panic values.
func WithOnPanic(f func(v any)) Option {
	return func(o *options) {
		o.onPanic = f
	}
}

// newOptions creates options with defaults and applies provided options.
func newOptions(opts ...Option) *options {
	o := &options{
		workers:   DefaultWorkers,
		queueSize: DefaultQueueSize,
		logger:    slog.Default().With("component", "dispatch>worker"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
