package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"syreclabs.com/go/faker"
)

func init() {
	faker.Seed(time.Now().UnixNano())
}

const waitChTimeoutMS = 100

func wait(ch chan struct{}, timeout int) bool {
	select {
	case <-ch:
		return true
	case <-time.After(time.Millisecond * time.Duration(timeout)):
		return false
	}
}

func TestAttachValidation(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	if _, err := e.Attach("", func(...any) error { return nil }); !errors.Is(err, ErrEmptyEvent) {
		t.Errorf("empty event: got %v, expected ErrEmptyEvent", err)
	}
	if _, err := e.Attach("", func(...any) error { return nil }); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("empty event: got %v, expected ErrInvalidArgument via wrapping", err)
	}
	if _, err := e.Attach("evt", nil); !errors.Is(err, ErrNilHandler) {
		t.Errorf("nil handler: got %v, expected ErrNilHandler", err)
	}
}

func TestClosedEmitter(t *testing.T) {
	e := TestEmitter()
	if err := e.Close(context.Background()); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if e.Running() {
		t.Error("emitter still running after Close")
	}
	if _, err := e.Attach("evt", func(...any) error { return nil }); !errors.Is(err, ErrEmitterClosed) {
		t.Errorf("attach after close: got %v, expected ErrEmitterClosed", err)
	}
	if err := e.Call("evt"); !errors.Is(err, ErrEmitterClosed) {
		t.Errorf("call after close: got %v, expected ErrEmitterClosed", err)
	}
	// Double close is a no-op.
	if err := e.Close(context.Background()); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestCallNoListeners(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	if err := e.Call(faker.Lorem().Word(), 1, 2, 3); err != nil {
		t.Errorf("call with no listeners: got %v, expected nil", err)
	}
}

func TestSyncOrderAndArgs(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	want := []any{faker.Lorem().Word(), 42, 3.14, true}
	var order []int
	var got [][]any
	for i := 0; i < 5; i++ {
		i := i
		if _, err := e.Attach("order", func(args ...any) error {
			order = append(order, i)
			got = append(got, args)
			return nil
		}); err != nil {
			t.Fatalf("attach failed: %v", err)
		}
	}

	if err := e.Call("order", want...); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	if diff := cmp.Diff([]int{0, 1, 2, 3, 4}, order); diff != "" {
		t.Errorf("execution order mismatch (-want +got):\n%s", diff)
	}
	for i, args := range got {
		if diff := cmp.Diff(want, args); diff != "" {
			t.Errorf("listener %d args mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestUnhandledSyncFailureAborts(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	boom := errors.New("boom")
	var ran []string
	e.Attach("evt", func(...any) error {
		ran = append(ran, "first")
		return nil
	})
	e.Attach("evt", func(...any) error {
		ran = append(ran, "second")
		return boom
	})
	e.Attach("evt", func(...any) error {
		ran = append(ran, "third")
		return nil
	})

	err := e.Call("evt")
	if err == nil {
		t.Fatal("call succeeded, expected failure")
	}
	if !IsHandlerError(err) {
		t.Errorf("got %v, expected *HandlerError", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("got %v, expected wrapped cause", err)
	}
	if diff := cmp.Diff([]string{"first", "second"}, ran); diff != "" {
		t.Errorf("listeners after the failure must be skipped (-want +got):\n%s", diff)
	}

	var he *HandlerError
	if !errors.As(err, &he) {
		t.Fatal("errors.As failed for *HandlerError")
	}
	if he.Event != "evt" {
		t.Errorf("handler error event: got %q, expected %q", he.Event, "evt")
	}
}

func TestHandledSyncFailureContinues(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	boom := errors.New("boom")
	var handled error
	var ran []string
	e.Attach("evt", func(...any) error {
		ran = append(ran, "failing")
		return boom
	}, WithOnError(func(err error) {
		handled = err
	}))
	e.Attach("evt", func(...any) error {
		ran = append(ran, "after")
		return nil
	})

	if err := e.Call("evt"); err != nil {
		t.Fatalf("handled failure must not abort the firing: %v", err)
	}
	if diff := cmp.Diff([]string{"failing", "after"}, ran); diff != "" {
		t.Errorf("dispatch must continue after a handled failure (-want +got):\n%s", diff)
	}
	if handled == nil {
		t.Fatal("error callback was not invoked")
	}
	if !errors.Is(handled, boom) {
		t.Errorf("callback error: got %v, expected wrapped cause", handled)
	}
	if !IsHandlerError(handled) {
		t.Errorf("callback error: got %v, expected *HandlerError", handled)
	}
}

func TestPanicRecovery(t *testing.T) {
	e := New(WithName("test-emitter"), WithTracing(false), WithMetrics(false))
	defer e.Close(context.Background())

	e.Attach("evt", func(...any) error {
		panic("test")
	})

	err := e.Call("evt")
	if err == nil {
		t.Fatal("call succeeded, expected recovered panic")
	}
	var pe *PanicError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, expected wrapped *PanicError", err)
	}
	if pe.Value != "test" {
		t.Errorf("panic value: got %v, expected %q", pe.Value, "test")
	}
}

func TestAsync(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	l := NewTestListener(nil)
	e.Attach("evt", l.Handler(), AsAsync())

	want := []any{"payload", 7}
	if err := e.Call("evt", want...); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if !l.WaitFor(1, time.Second) {
		t.Fatal("async listener never ran")
	}
	if diff := cmp.Diff(want, l.Last().Args); diff != "" {
		t.Errorf("async args mismatch (-want +got):\n%s", diff)
	}
}

func TestAsyncFailureIsolation(t *testing.T) {
	capture := NewErrorCapture()
	e := TestEmitter(WithErrorSink(capture.Sink()))
	defer e.Close(context.Background())

	boom := errors.New("boom")
	e.Attach("evt", func(...any) error {
		return boom
	}, AsAsync())
	after := NewTestListener(nil)
	e.Attach("evt", after.Handler())

	// The async failure must not surface through Call and must not stop
	// the sync listener.
	if err := e.Call("evt"); err != nil {
		t.Fatalf("async failure leaked into Call: %v", err)
	}
	if after.Count() != 1 {
		t.Error("sync listener did not run")
	}
	if !capture.WaitFor(1, time.Second) {
		t.Fatal("error sink never received the failure")
	}
	got := capture.Errors()[0]
	if got.Event != "evt" {
		t.Errorf("sink event: got %q, expected %q", got.Event, "evt")
	}
	if !IsAsyncError(got.Err) {
		t.Errorf("sink error: got %v, expected *AsyncError", got.Err)
	}
	if !errors.Is(got.Err, boom) {
		t.Errorf("sink error: got %v, expected wrapped cause", got.Err)
	}
}

func TestAsyncFailureOnError(t *testing.T) {
	capture := NewErrorCapture()
	e := TestEmitter(WithErrorSink(capture.Sink()))
	defer e.Close(context.Background())

	ch := make(chan struct{})
	e.Attach("evt", func(...any) error {
		return errors.New("boom")
	}, AsAsync(), WithOnError(func(err error) {
		if !IsAsyncError(err) {
			t.Errorf("callback error: got %v, expected *AsyncError", err)
		}
		close(ch)
	}))

	if err := e.Call("evt"); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if !wait(ch, waitChTimeoutMS) {
		t.Fatal("error callback never ran")
	}
	// A handled async failure must not reach the emitter sink.
	time.Sleep(20 * time.Millisecond)
	if capture.Count() != 0 {
		t.Errorf("handled failure leaked to error sink: %v", capture.Errors())
	}
}

func TestOnceSequential(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	l := NewTestListener(nil)
	h, err := e.Attach("evt", l.Handler(), Once())
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	keep := NewTestListener(nil)
	e.Attach("evt", keep.Handler())

	for i := 0; i < 3; i++ {
		if err := e.Call("evt", i); err != nil {
			t.Fatalf("call %d failed: %v", i, err)
		}
	}

	if l.Count() != 1 {
		t.Errorf("once listener ran %d times, expected 1", l.Count())
	}
	if keep.Count() != 3 {
		t.Errorf("regular listener ran %d times, expected 3", keep.Count())
	}
	if h.Invocations() != 1 {
		t.Errorf("handle invocations: got %d, expected 1", h.Invocations())
	}
	if n := e.ListenerCount("evt"); n != 1 {
		t.Errorf("listener count after once consumed: got %d, expected 1", n)
	}
}

func TestOnceConcurrent(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	l := NewTestListener(nil)
	if _, err := e.Attach("evt", l.Handler(), Once()); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	const callers = 32
	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if err := e.Call("evt"); err != nil {
				t.Errorf("call failed: %v", err)
			}
		}()
	}
	start.Done()
	done.Wait()

	if l.Count() != 1 {
		t.Errorf("once listener ran %d times under concurrent firings, expected 1", l.Count())
	}
}

func TestOnceConcurrentAsync(t *testing.T) {
	// The claim happens on the firing goroutine, so a once-listener must be
	// dispatched exactly once even when its execution is handed to the pool.
	e := TestEmitter()
	defer e.Close(context.Background())

	l := NewTestListener(nil)
	if _, err := e.Attach("evt", l.Handler(), AsAsync(), Once()); err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	const callers = 64
	var start sync.WaitGroup
	var done sync.WaitGroup
	start.Add(1)
	for i := 0; i < callers; i++ {
		done.Add(1)
		go func() {
			defer done.Done()
			start.Wait()
			if err := e.Call("evt"); err != nil {
				t.Errorf("call failed: %v", err)
			}
		}()
	}
	start.Done()
	done.Wait()

	if !l.WaitFor(1, time.Second) {
		t.Fatal("once listener never ran")
	}
	// Give any extra dispatch time to surface before counting.
	time.Sleep(20 * time.Millisecond)
	if l.Count() != 1 {
		t.Errorf("once listener ran %d times under concurrent firings, expected 1", l.Count())
	}
	if n := e.ListenerCount("evt"); n != 0 {
		t.Errorf("listener count after once consumed: got %d, expected 0", n)
	}
}

func TestMixedModes(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	var mu sync.Mutex
	var syncOrder []string
	asyncRan := make(chan struct{})

	e.Attach("evt", func(...any) error {
		mu.Lock()
		syncOrder = append(syncOrder, "a")
		mu.Unlock()
		return nil
	})
	e.Attach("evt", func(...any) error {
		mu.Lock()
		syncOrder = append(syncOrder, "b")
		mu.Unlock()
		return nil
	})
	e.Attach("evt", func(...any) error {
		close(asyncRan)
		return nil
	}, AsAsync())

	if err := e.Call("evt"); err != nil {
		t.Fatalf("call failed: %v", err)
	}

	// Sync listeners have completed, in order, by the time Call returns.
	mu.Lock()
	order := append([]string(nil), syncOrder...)
	mu.Unlock()
	if diff := cmp.Diff([]string{"a", "b"}, order); diff != "" {
		t.Errorf("sync order mismatch (-want +got):\n%s", diff)
	}
	if !wait(asyncRan, waitChTimeoutMS) {
		t.Error("async listener never ran")
	}
}

func TestDetach(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	l := NewTestListener(nil)
	h, err := e.Attach("evt", l.Handler())
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	if h.Event() != "evt" {
		t.Errorf("handle event: got %q, expected %q", h.Event(), "evt")
	}
	if h.ID() == "" {
		t.Error("handle has no listener ID")
	}

	if !e.Detach(h) {
		t.Error("detach failed for attached listener")
	}
	if e.Detach(h) {
		t.Error("second detach succeeded, expected false")
	}
	if err := e.Call("evt"); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if l.Count() != 0 {
		t.Errorf("detached listener ran %d times", l.Count())
	}
}

func TestEventNames(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	noop := func(...any) error { return nil }
	e.Attach("charlie", noop)
	e.Attach("alpha", noop)
	e.Attach("bravo", noop)
	e.Attach("alpha", noop)

	if diff := cmp.Diff([]string{"alpha", "bravo", "charlie"}, e.EventNames()); diff != "" {
		t.Errorf("event names mismatch (-want +got):\n%s", diff)
	}
	if n := e.ListenerCount("alpha"); n != 2 {
		t.Errorf("listener count: got %d, expected 2", n)
	}
	if n := e.ListenerCount("missing"); n != 0 {
		t.Errorf("listener count for unknown event: got %d, expected 0", n)
	}
}

func TestAttachDuringCall(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	late := NewTestListener(nil)
	e.Attach("evt", func(...any) error {
		// A listener attached mid-firing joins from the next firing on.
		_, err := e.Attach("evt", late.Handler())
		return err
	}, Once())

	if err := e.Call("evt"); err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	if late.Count() != 0 {
		t.Error("listener attached during a firing ran in the same firing")
	}
	if err := e.Call("evt"); err != nil {
		t.Fatalf("second call failed: %v", err)
	}
	if late.Count() != 1 {
		t.Errorf("late listener ran %d times, expected 1", late.Count())
	}
}

func TestErrorCallbackPanicContained(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	after := NewTestListener(nil)
	e.Attach("evt", func(...any) error {
		return errors.New("boom")
	}, WithOnError(func(error) {
		panic("callback panic")
	}))
	e.Attach("evt", after.Handler())

	if err := e.Call("evt"); err != nil {
		t.Fatalf("panicking error callback leaked into Call: %v", err)
	}
	if after.Count() != 1 {
		t.Error("listener after the panicking callback did not run")
	}
}

func TestConcurrentAttachCall(t *testing.T) {
	e := TestEmitter()
	defer e.Close(context.Background())

	var done sync.WaitGroup
	for i := 0; i < 8; i++ {
		i := i
		done.Add(2)
		go func() {
			defer done.Done()
			for j := 0; j < 50; j++ {
				event := fmt.Sprintf("evt-%d", i%4)
				h, err := e.Attach(event, func(...any) error { return nil })
				if err != nil {
					t.Errorf("attach failed: %v", err)
					return
				}
				e.Detach(h)
			}
		}()
		go func() {
			defer done.Done()
			for j := 0; j < 50; j++ {
				if err := e.Call(fmt.Sprintf("evt-%d", i%4), j); err != nil {
					t.Errorf("call failed: %v", err)
					return
				}
			}
		}()
	}
	done.Wait()
}

func TestNewID(t *testing.T) {
	a, b := NewID(), NewID()
	if a == "" || b == "" {
		t.Fatal("empty ID")
	}
	if a == b {
		t.Errorf("IDs collide: %s", a)
	}
}
