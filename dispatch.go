package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/hostbound/dispatch/worker"
)

// Pool runs asynchronous listeners off the calling goroutine. Submit must
// not block beyond the cost of the handoff. worker.Pool is the default
// implementation.
type Pool interface {
	Submit(task func()) error
	Close(ctx context.Context) error
}

var _ Pool = (*worker.Pool)(nil)

const (
	emitterRunning = 1
	emitterStopped = 0
)

// Mode determines how a listener is executed during a firing.
type Mode int

const (
	// Sync runs the handler inline on the calling goroutine, in registration
	// order, each handler completing before the next starts.
	Sync Mode = iota
	// Async hands the handler to the emitter's worker pool and continues
	// immediately. Completion order is unspecified.
	Async
)

// String returns a string representation of the mode.
func (m Mode) String() string {
	switch m {
	case Sync:
		return "sync"
	case Async:
		return "async"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// Handler is a listener callback. It receives whatever positional arguments
// were passed to Call, forwarded verbatim. A non-nil return value is treated
// as a listener failure; panics are recovered and treated the same way.
type Handler func(args ...any) error

// ErrorHandler receives a listener's failure. For sync listeners it runs on
// the caller's goroutine, for async listeners on the execution goroutine.
type ErrorHandler func(err error)

// ErrorSink receives async listener failures that have no ErrorHandler.
// It is the process-wide unhandled-error channel; inject one with
// WithErrorSink to capture failures deterministically in tests.
type ErrorSink func(event string, err error)

// record is a single registered listener. Only the invocation counter and the
// once-claim flag are ever mutated after registration.
type record struct {
	id      string
	handler Handler
	mode    Mode
	once    bool
	onError ErrorHandler
	claimed int32  // once-records: set when a firing claims the record
	calls   uint64 // diagnostic invocation counter
}

// claim marks a once-record as consumed by exactly one firing.
func (r *record) claim() bool {
	return atomic.CompareAndSwapInt32(&r.claimed, 0, 1)
}

// Handle identifies an attached listener for later removal via Detach.
type Handle struct {
	event string
	rec   *record
}

// Event returns the event name the handle's listener is attached to.
func (h Handle) Event() string {
	return h.event
}

// ID returns the unique listener identifier.
func (h Handle) ID() string {
	if h.rec == nil {
		return ""
	}
	return h.rec.id
}

// Invocations returns how many times the listener has been dispatched.
func (h Handle) Invocations() uint64 {
	if h.rec == nil {
		return 0
	}
	return atomic.LoadUint64(&h.rec.calls)
}

// Emitter is an event-dispatch capability. A host type gains dispatch
// behavior by owning one through composition:
//
//	type Downloader struct {
//	    events *dispatch.Emitter
//	}
//
// The zero value is not usable; create one with New. Each emitter owns its
// listener registry exclusively; registries are never shared across hosts.
type Emitter struct {
	status    int32
	name      string
	logger    *slog.Logger
	pool      Pool
	ownsPool  bool
	errSink   ErrorSink
	recovery  bool
	tracing   bool
	metrics   bool
	tracer    trace.Tracer
	calls     metric.Int64Counter
	delivered metric.Int64Counter
	failed    metric.Int64Counter

	mu        sync.RWMutex
	listeners map[string][]*record
}

// New creates an empty emitter.
// Unless WithPool is given, the emitter creates and owns a worker pool for
// async listeners and shuts it down on Close.
func New(opts ...Option) *Emitter {
	o := newOptions(opts...)

	e := &Emitter{
		status:    emitterRunning,
		name:      o.name,
		logger:    o.logger.With("component", "dispatch>"+o.name),
		pool:      o.pool,
		errSink:   o.errSink,
		recovery:  o.recoveryEnabled,
		tracing:   o.tracingEnabled,
		metrics:   o.metricsEnabled,
		listeners: make(map[string][]*record),
	}
	if e.pool == nil {
		e.pool = worker.New(worker.WithLogger(e.logger))
		e.ownsPool = true
	}
	if e.errSink == nil {
		e.errSink = func(event string, err error) {
			e.logger.Error("unhandled async listener failure", "event", event, "error", err)
		}
	}
	e.initObservability()
	return e
}

// Name returns the emitter name.
func (e *Emitter) Name() string {
	return e.name
}

// Running returns true until Close is called.
func (e *Emitter) Running() bool {
	return atomic.LoadInt32(&e.status) == emitterRunning
}

// Close stops the emitter. If the emitter owns its worker pool, the pool is
// drained within the context deadline. Attach and Call fail afterwards.
func (e *Emitter) Close(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&e.status, emitterRunning, emitterStopped) {
		return nil
	}
	if e.ownsPool {
		return e.pool.Close(ctx)
	}
	return nil
}

// Attach registers a listener for the named event, appending it to the
// event's registration-ordered list. Attaching to an event name with no
// prior listeners simply creates the list.
func (e *Emitter) Attach(event string, h Handler, opts ...AttachOption) (Handle, error) {
	if event == "" {
		return Handle{}, ErrEmptyEvent
	}
	if h == nil {
		return Handle{}, ErrNilHandler
	}
	if !e.Running() {
		return Handle{}, ErrEmitterClosed
	}

	o := applyAttachOptions(opts...)
	rec := &record{
		id:      NewID(),
		handler: h,
		mode:    o.mode,
		once:    o.once,
		onError: o.onError,
	}

	e.mu.Lock()
	e.listeners[event] = append(e.listeners[event], rec)
	e.mu.Unlock()

	e.logger.Debug("attached listener",
		"event", event, "listener", rec.id, "mode", rec.mode.String(), "once", rec.once)
	return Handle{event: event, rec: rec}, nil
}

// Detach removes a previously attached listener by identity.
// Returns false if the listener was already removed.
func (e *Emitter) Detach(h Handle) bool {
	if h.rec == nil {
		return false
	}
	return e.remove(h.event, h.rec)
}

// Call fires the named event, delivering args verbatim to every attached
// listener. Sync listeners run inline in registration order; async listeners
// are submitted to the worker pool and Call does not wait for them.
//
// Call returns the first unhandled sync listener failure as a *HandlerError,
// in which case listeners after the failing one in this firing are skipped.
// A failure routed to a listener's ErrorHandler is swallowed and dispatch
// continues. Async failures never reach the caller. Firing an event with no
// listeners is a no-op.
func (e *Emitter) Call(event string, args ...any) error {
	if !e.Running() {
		return ErrEmitterClosed
	}

	recs := e.snapshot(event)

	ctx := context.Background()
	if e.metrics {
		e.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("event", event)))
	}
	if e.tracing {
		var span trace.Span
		ctx, span = e.tracer.Start(ctx, event+".call",
			trace.WithAttributes(
				attribute.String("event", event),
				attribute.Int("listeners", len(recs))),
			trace.WithSpanKind(trace.SpanKindProducer))
		defer span.End()
	}

	for _, rec := range recs {
		if rec.once {
			// Claim before execution so a concurrent firing can never
			// dispatch the same once-record twice.
			if !rec.claim() {
				continue
			}
			e.remove(event, rec)
		}

		if rec.mode == Async {
			e.dispatchAsync(ctx, event, rec, args)
			continue
		}
		if err := e.dispatchSync(ctx, event, rec, args); err != nil {
			return err
		}
	}
	return nil
}

// EventNames returns the names of all events with at least one listener.
func (e *Emitter) EventNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.listeners))
	for name := range e.listeners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListenerCount returns the number of listeners attached to the named event.
func (e *Emitter) ListenerCount(event string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[event])
}

// snapshot returns a point-in-time copy of the event's listener list so the
// dispatch loop is safe against concurrent attach and detach.
func (e *Emitter) snapshot(event string) []*record {
	e.mu.RLock()
	defer e.mu.RUnlock()
	recs := e.listeners[event]
	if len(recs) == 0 {
		return nil
	}
	out := make([]*record, len(recs))
	copy(out, recs)
	return out
}

// remove deletes a record from the live registry by identity.
func (e *Emitter) remove(event string, rec *record) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	recs := e.listeners[event]
	for i, r := range recs {
		if r == rec {
			e.listeners[event] = append(recs[:i], recs[i+1:]...)
			if len(e.listeners[event]) == 0 {
				delete(e.listeners, event)
			}
			return true
		}
	}
	return false
}

// dispatchSync runs the handler inline. A failure goes to the listener's
// ErrorHandler if present (dispatch continues), otherwise it is returned and
// aborts the firing.
func (e *Emitter) dispatchSync(ctx context.Context, event string, rec *record, args []any) error {
	err := e.invoke(rec, args)
	if e.metrics {
		e.countDelivery(ctx, event, Sync, err)
	}
	if err == nil {
		return nil
	}

	herr := &HandlerError{Event: event, Listener: rec.id, Err: err}
	if rec.onError != nil {
		e.callOnError(event, rec, herr)
		return nil
	}
	return herr
}

// dispatchAsync hands the handler to the worker pool without waiting.
func (e *Emitter) dispatchAsync(ctx context.Context, event string, rec *record, args []any) {
	submitErr := e.pool.Submit(func() {
		err := e.invoke(rec, args)
		if e.metrics {
			e.countDelivery(ctx, event, Async, err)
		}
		if err == nil {
			return
		}

		aerr := &AsyncError{Event: event, Listener: rec.id, Err: err}
		if rec.onError != nil {
			e.callOnError(event, rec, aerr)
			return
		}
		e.errSink(event, aerr)
	})
	if submitErr != nil {
		e.errSink(event, &AsyncError{Event: event, Listener: rec.id, Err: submitErr})
	}
}

// invoke runs the handler, converting panics to errors when recovery is
// enabled.
func (e *Emitter) invoke(rec *record, args []any) (err error) {
	atomic.AddUint64(&rec.calls, 1)
	if e.recovery {
		defer func() {
			if v := recover(); v != nil {
				err = recovered(v)
			}
		}()
	}
	return rec.handler(args...)
}

// callOnError invokes a listener's ErrorHandler. A panicking callback is
// logged, never propagated.
func (e *Emitter) callOnError(event string, rec *record, err error) {
	defer func() {
		if v := recover(); v != nil {
			e.logger.Error("listener error callback panicked",
				"event", event, "listener", rec.id, "panic", v)
		}
	}()
	rec.onError(err)
}

// ID generation, uuid with an atomic counter fallback.
var idCounter uint64

// NewID generates a new unique listener ID.
func NewID() string {
	u, err := uuid.NewRandom()
	if err == nil {
		return u.String()
	}
	return strconv.FormatUint(atomic.AddUint64(&idCounter, 1), 10)
}
