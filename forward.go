package dispatch

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/hostbound/dispatch/sink"
)

// DefaultForwardTimeout bounds a single sink publish.
var DefaultForwardTimeout = 5 * time.Second

// forwardOptions holds forwarding configuration (unexported).
type forwardOptions struct {
	timeout time.Duration
	limiter *rate.Limiter
	source  string
	onError ErrorHandler
}

// ForwardOption configures event forwarding.
type ForwardOption func(*forwardOptions)

// WithForwardTimeout sets the per-publish deadline. Zero disables the
// deadline and the publish may block its worker goroutine indefinitely.
func WithForwardTimeout(d time.Duration) ForwardOption {
	return func(o *forwardOptions) {
		o.timeout = d
	}
}

// WithForwardRateLimit throttles outbound publishes to limit events per
// second with the given burst. Throttled publishes wait on their worker
// goroutine; the firing Call is never delayed.
func WithForwardRateLimit(limit rate.Limit, burst int) ForwardOption {
	return func(o *forwardOptions) {
		o.limiter = rate.NewLimiter(limit, burst)
	}
}

// WithForwardSource sets the envelope source label. Default is the emitter
// name.
func WithForwardSource(source string) ForwardOption {
	return func(o *forwardOptions) {
		if source != "" {
			o.source = source
		}
	}
}

// WithForwardOnError sets the failure callback for this forwarding listener.
// Without it, publish failures go to the emitter's error sink.
func WithForwardOnError(h ErrorHandler) ForwardOption {
	return func(o *forwardOptions) {
		o.onError = h
	}
}

// Forward attaches an async listener that wraps each firing of the named
// event in a sink.Envelope and publishes it to the sink. The returned
// handle detaches the forwarding like any other listener.
//
// Forwarding follows async listener semantics end to end: Call never waits
// for the publish, publish order across firings is unspecified, and a
// publish failure is routed to the forward's ErrorHandler or the emitter's
// error sink, never to Call's caller.
func (e *Emitter) Forward(event string, s sink.Sink, opts ...ForwardOption) (Handle, error) {
	if s == nil {
		return Handle{}, fmt.Errorf("%w: nil sink", ErrInvalidArgument)
	}

	o := &forwardOptions{
		timeout: DefaultForwardTimeout,
		source:  e.name,
	}
	for _, opt := range opts {
		opt(o)
	}

	handler := func(args ...any) error {
		ctx := context.Background()
		if o.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, o.timeout)
			defer cancel()
		}
		if o.limiter != nil {
			if err := o.limiter.Wait(ctx); err != nil {
				return fmt.Errorf("forward rate limit: %w", err)
			}
		}
		return s.Publish(ctx, sink.Envelope{
			ID:      NewID(),
			Event:   event,
			Source:  o.source,
			Args:    args,
			FiredAt: time.Now().UTC(),
		})
	}

	attach := []AttachOption{AsAsync()}
	if o.onError != nil {
		attach = append(attach, WithOnError(o.onError))
	}
	return e.Attach(event, handler, attach...)
}
