// Package dispatch provides an event-dispatch capability that any type can
// own by composition: named events, listeners attached with sync or async
// execution, and a Call that delivers positional arguments to every
// attached listener.
//
// The dispatcher is a direct-call engine, not a message broker: there is no
// queueing, no backpressure, no persistence, and no delivery ordering
// across goroutines.
//
// Basic example:
//
//	type Downloader struct {
//	    events *dispatch.Emitter
//	}
//
//	d := &Downloader{events: dispatch.New(dispatch.WithName("downloader"))}
//	defer d.events.Close(ctx)
//
//	// Sync listener: runs inline, in registration order.
//	d.events.Attach("progress", func(args ...any) error {
//	    fmt.Println("progress:", args[0])
//	    return nil
//	})
//
//	// Async once-listener: runs on the worker pool, at most once.
//	d.events.Attach("done", notifyHandler, dispatch.AsAsync(), dispatch.Once())
//
//	// Fire. Sync listeners have completed when Call returns; async
//	// listeners have been submitted.
//	d.events.Call("progress", 42)
//
// Error routing:
//
// A listener fails by returning a non-nil error or by panicking (recovered
// when WithRecovery is enabled, the default). A failure goes to the
// listener's own ErrorHandler when one was attached with WithOnError; it is
// then considered handled and dispatch continues. An unhandled sync failure
// is returned from Call as *HandlerError and aborts the rest of that
// firing. An unhandled async failure goes to the emitter's ErrorSink and is
// invisible to Call's caller.
//
// Once semantics:
//
// A listener attached with Once is removed from the registry the moment a
// firing claims it, before its handler runs. Under concurrent Calls of the
// same event, exactly one firing claims it; it is never dispatched twice.
//
// Emitter options:
//   - WithName: name used in logs, metrics and traces.
//   - WithLogger: set a custom slog logger.
//   - WithPool: inject a worker pool for async listeners (the default pool
//     is owned by the emitter and closed with it).
//   - WithErrorSink: capture unhandled async failures.
//   - WithRecovery: enable/disable panic recovery. Default is true.
//   - WithTracing: enable/disable OpenTelemetry tracing. Default is true.
//   - WithMetrics: enable/disable OpenTelemetry metrics. Default is true.
//
// Attach options:
//   - AsAsync: run the listener on the worker pool.
//   - Once: dispatch the listener to at most one firing.
//   - WithOnError: per-listener failure callback.
//
// Forwarding:
//
// Forward attaches an async listener that publishes each firing to an
// external sink (Redis Streams, NATS, Kafka; see the sink subpackages):
//
//	rs, _ := redissink.New(client)
//	d.events.Forward("done", rs,
//	    dispatch.WithForwardRateLimit(100, 10))
//
// The docs subpackage documents events for rendering as HTML or Markdown;
// the discover subpackage statically enumerates the events a host type may
// fire. Neither touches the live registry.
package dispatch
