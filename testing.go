package dispatch

import (
	"context"
	"sync"
	"time"

	"github.com/hostbound/dispatch/sink"
)

// TestEmitter creates a new emitter configured for testing.
// Has recovery/tracing/metrics disabled for simpler testing.
//
// Example:
//
//	e := dispatch.TestEmitter()
//	defer e.Close(context.Background())
func TestEmitter(opts ...Option) *Emitter {
	base := []Option{
		WithName("test-emitter"),
		WithRecovery(false),
		WithTracing(false),
		WithMetrics(false),
	}
	return New(append(base, opts...)...)
}

// TestCall represents a single delivery received by a TestListener.
type TestCall struct {
	Args []any
	Time time.Time
}

// TestListener is a helper for testing listeners.
// It collects all deliveries for later assertions.
type TestListener struct {
	mu       sync.Mutex
	received []TestCall
	handler  Handler
}

// NewTestListener creates a new test listener.
// If handler is nil, all deliveries succeed.
func NewTestListener(handler Handler) *TestListener {
	return &TestListener{
		received: make([]TestCall, 0),
		handler:  handler,
	}
}

// Handler returns the handler function for use with Attach.
func (l *TestListener) Handler() Handler {
	return func(args ...any) error {
		l.mu.Lock()
		l.received = append(l.received, TestCall{Args: args, Time: time.Now()})
		l.mu.Unlock()

		if l.handler != nil {
			return l.handler(args...)
		}
		return nil
	}
}

// Received returns a copy of all recorded deliveries.
func (l *TestListener) Received() []TestCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := make([]TestCall, len(l.received))
	copy(result, l.received)
	return result
}

// Count returns the number of deliveries received.
func (l *TestListener) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.received)
}

// Last returns the last delivery, or nil if none.
func (l *TestListener) Last() *TestCall {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.received) == 0 {
		return nil
	}
	call := l.received[len(l.received)-1]
	return &call
}

// Reset clears all recorded deliveries.
func (l *TestListener) Reset() {
	l.mu.Lock()
	l.received = make([]TestCall, 0)
	l.mu.Unlock()
}

// WaitFor waits until the listener has received at least n deliveries or
// timeout is reached. Returns true if the count was reached, false on timeout.
func (l *TestListener) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if l.Count() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// CapturedError is one failure delivered to an ErrorCapture.
type CapturedError struct {
	Event string
	Err   error
	Time  time.Time
}

// ErrorCapture collects errors routed to an emitter's error sink.
// Useful for asserting on unhandled async failures.
//
// Example:
//
//	capture := dispatch.NewErrorCapture()
//	e := dispatch.TestEmitter(dispatch.WithErrorSink(capture.Sink()))
type ErrorCapture struct {
	mu     sync.Mutex
	errors []CapturedError
}

// NewErrorCapture creates a new empty error capture.
func NewErrorCapture() *ErrorCapture {
	return &ErrorCapture{errors: make([]CapturedError, 0)}
}

// Sink returns the sink function for use with WithErrorSink.
func (c *ErrorCapture) Sink() ErrorSink {
	return func(event string, err error) {
		c.mu.Lock()
		c.errors = append(c.errors, CapturedError{Event: event, Err: err, Time: time.Now()})
		c.mu.Unlock()
	}
}

// Errors returns a copy of all captured errors.
func (c *ErrorCapture) Errors() []CapturedError {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := make([]CapturedError, len(c.errors))
	copy(result, c.errors)
	return result
}

// Count returns the number of captured errors.
func (c *ErrorCapture) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.errors)
}

// Reset clears all captured errors.
func (c *ErrorCapture) Reset() {
	c.mu.Lock()
	c.errors = make([]CapturedError, 0)
	c.mu.Unlock()
}

// WaitFor waits until at least n errors were captured or timeout is reached.
// Returns true if the count was reached, false on timeout.
func (c *ErrorCapture) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if c.Count() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// RecordingSink records every published envelope.
// Useful for testing that Forward publishes correctly.
type RecordingSink struct {
	mu        sync.Mutex
	envelopes []sink.Envelope
	closed    bool
}

// NewRecordingSink creates a sink that records all published envelopes.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{envelopes: make([]sink.Envelope, 0)}
}

// Publish records the envelope.
func (s *RecordingSink) Publish(_ context.Context, env sink.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return sink.ErrSinkClosed
	}
	s.envelopes = append(s.envelopes, env)
	return nil
}

// Close marks the sink closed; further publishes fail.
func (s *RecordingSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Envelopes returns a copy of all recorded envelopes.
func (s *RecordingSink) Envelopes() []sink.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]sink.Envelope, len(s.envelopes))
	copy(result, s.envelopes)
	return result
}

// EnvelopesFor returns recorded envelopes for a specific event.
func (s *RecordingSink) EnvelopesFor(event string) []sink.Envelope {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []sink.Envelope
	for _, env := range s.envelopes {
		if env.Event == event {
			result = append(result, env)
		}
	}
	return result
}

// Count returns the number of recorded envelopes.
func (s *RecordingSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.envelopes)
}

// WaitFor waits until at least n envelopes were recorded or timeout is
// reached. Returns true if the count was reached, false on timeout.
func (s *RecordingSink) WaitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		if s.Count() >= n {
			return true
		}
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// FailingSink fails publishes with a configured error.
// Useful for testing error routing of forwarded events.
type FailingSink struct {
	mu       sync.Mutex
	err      error
	failAll  bool
	failNext int
}

// NewFailingSink creates a sink that can be configured to fail.
func NewFailingSink() *FailingSink {
	return &FailingSink{}
}

// Publish fails if configured, otherwise succeeds silently.
func (s *FailingSink) Publish(context.Context, sink.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failAll || s.failNext > 0 {
		if s.failNext > 0 {
			s.failNext--
		}
		if s.err != nil {
			return s.err
		}
		return sink.ErrSinkClosed
	}
	return nil
}

// Close is a no-op.
func (s *FailingSink) Close(context.Context) error {
	return nil
}

// FailAll makes all publishes fail with the given error.
func (s *FailingSink) FailAll(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = true
	s.err = err
}

// FailNext makes the next n publishes fail with the given error.
func (s *FailingSink) FailNext(n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = n
	s.err = err
}

// Reset clears all failure configuration.
func (s *FailingSink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failAll = false
	s.failNext = 0
	s.err = nil
}

var (
	_ sink.Sink = (*RecordingSink)(nil)
	_ sink.Sink = (*FailingSink)(nil)
)
