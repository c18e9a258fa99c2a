// Package worker provides a fire-and-forget worker pool for running
// asynchronous listeners off the firing goroutine.
//
// The contract is the one async dispatch needs:
//   - Submit never blocks beyond the cost of the handoff: when the queue is
//     full the task runs on a dedicated goroutine instead of waiting.
//   - Completion order is unspecified.
//   - A panicking task is recovered and reported; it never takes down a
//     worker or the submitter.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ErrPoolClosed is returned by Submit after Close has been called.
var ErrPoolClosed = errors.New("worker pool is closed")

const (
	poolRunning = 1
	poolStopped = 0
)

// Task is a unit of asynchronous work. It is an alias so that Submit
// satisfies pool interfaces declared against plain func() values.
type Task = func()

// Pool runs tasks on a fixed set of worker goroutines with a buffered queue.
type Pool struct {
	// mu orders submissions against shutdown: Submit holds the read side
	// across its status check and enqueue, so once Close flips the status
	// under the write side, every accepted task is already in the queue.
	mu      sync.RWMutex
	status  int32
	queue   chan Task
	quit    chan struct{}
	pending sync.WaitGroup
	logger  *slog.Logger
	onPanic func(v any)

	submitted metric.Int64Counter
	overflow  metric.Int64Counter
}

// New creates a pool and starts its workers.
func New(opts ...Option) *Pool {
	o := newOptions(opts...)

	meter := otel.Meter("dispatch.worker")
	submitted, _ := meter.Int64Counter("dispatch.worker.submitted",
		metric.WithDescription("Number of tasks submitted to the pool"),
		metric.WithUnit("{task}"))
	overflow, _ := meter.Int64Counter("dispatch.worker.overflow",
		metric.WithDescription("Number of tasks run on overflow goroutines because the queue was full"),
		metric.WithUnit("{task}"))

	p := &Pool{
		status:    poolRunning,
		queue:     make(chan Task, o.queueSize),
		quit:      make(chan struct{}),
		logger:    o.logger,
		onPanic:   o.onPanic,
		submitted: submitted,
		overflow:  overflow,
	}
	for i := uint(0); i < o.workers; i++ {
		go p.worker()
	}
	return p
}

// Running returns true until Close is called.
func (p *Pool) Running() bool {
	return atomic.LoadInt32(&p.status) == poolRunning
}

// Submit schedules a task for independent execution. It queues the task if a
// slot is free and otherwise spawns a goroutine, so the caller is never
// blocked waiting for capacity or completion.
func (p *Pool) Submit(task Task) error {
	if task == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.Running() {
		return ErrPoolClosed
	}

	p.pending.Add(1)
	p.submitted.Add(context.Background(), 1)
	select {
	case p.queue <- task:
	default:
		// Queue full. Spill to a dedicated goroutine rather than block the
		// submitter.
		p.overflow.Add(context.Background(), 1,
			metric.WithAttributes(attribute.String("reason", "queue_full")))
		go p.run(task)
	}
	return nil
}

// Close stops accepting tasks and waits for queued and in-flight tasks to
// finish, up to the context deadline.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if !atomic.CompareAndSwapInt32(&p.status, poolRunning, poolStopped) {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()
	close(p.quit)

	done := make(chan struct{})
	go func() {
		p.pending.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// worker drains the queue until the pool is closed, then finishes whatever
// is still queued before exiting.
func (p *Pool) worker() {
	for {
		select {
		case <-p.quit:
			for {
				select {
				case task := <-p.queue:
					p.run(task)
				default:
					return
				}
			}
		case task := <-p.queue:
			p.run(task)
		}
	}
}

// run executes one task with panic recovery.
func (p *Pool) run(task Task) {
	defer p.pending.Done()
	defer func() {
		if v := recover(); v != nil {
			p.logger.Error("recovered task panic", "panic", v)
			if p.onPanic != nil {
				p.onPanic(v)
			}
		}
	}()
	task()
}
