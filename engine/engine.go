// Package engine implements the cooperative task scheduler of spec.md §5:
// feature-set execution, I/O, and event delivery run as tasks that suspend
// only at explicit await points, with no implicit preemption. Per the
// spec's design note (§9, "Async/await → task scheduler + cancellation
// tokens"), actions are not modeled as colored async functions; instead a
// Task is submitted to a Scheduler and observed through a Future, the same
// shape as the teacher's runtime/agent/engine Future/ExecuteActivityAsync
// pair, but built directly on goroutines rather than a workflow engine
// since ARO feature sets are not durable/replayed.
package engine

import (
	"context"
	"sync"
)

// CancelToken is the logical cancellation handle every task runs under
// (spec §5: "every task runs under a logical cancelToken derived from the
// shutdown coordinator and, for HTTP handlers, from the request's
// deadline"). It wraps context.Context with a recorded reason so the
// executor's error template can say *why* a cancellation happened.
type CancelToken struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewCancelToken derives a token from parent. Cancel the returned token's
// release func when the owning scope ends to avoid leaking the derived
// context.
func NewCancelToken(parent context.Context) (CancelToken, func()) {
	ctx, cancel := context.WithCancelCause(parent)
	tok := CancelToken{ctx: ctx, cancel: cancel}
	return tok, func() { cancel(nil) }
}

// Context returns the token's context, suitable for passing to suspension
// points (system object reads/writes, URL I/O, sleep, stream pulls, event
// awaits).
func (t CancelToken) Context() context.Context { return t.ctx }

// Cancel cancels the token with reason, observable by callers that inspect
// Err() after the next suspension point.
func (t CancelToken) Cancel(reason error) {
	if t.cancel != nil {
		t.cancel(reason)
	}
}

// Done reports cancellation, to be checked at loop-iteration boundaries per
// spec §5 ("tasks observe it at suspension points and at loop iteration
// boundaries").
func (t CancelToken) Done() <-chan struct{} { return t.ctx.Done() }

// Err returns the token's cancellation cause, or nil if not cancelled.
func (t CancelToken) Err() error {
	if t.ctx.Err() == nil {
		return nil
	}
	if cause := context.Cause(t.ctx); cause != nil {
		return cause
	}
	return t.ctx.Err()
}

// Future represents a pending Task result, mirroring the teacher's
// runtime/agent/engine.Future contract (Get blocks, IsReady polls) but
// typed directly over (value, error) rather than any/reflection, since the
// scheduler never needs to decode across a durable-engine boundary.
type Future[T any] struct {
	ready  chan struct{}
	mu     sync.Mutex
	result T
	err    error
}

// Get blocks until the task completes or ctx is done, whichever comes
// first. Calling Get multiple times returns the same result.
func (f *Future[T]) Get(ctx context.Context) (T, error) {
	select {
	case <-f.ready:
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.result, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// IsReady reports whether the task has completed without blocking.
func (f *Future[T]) IsReady() bool {
	select {
	case <-f.ready:
		return true
	default:
		return false
	}
}

func (f *Future[T]) complete(result T, err error) {
	f.mu.Lock()
	f.result, f.err = result, err
	f.mu.Unlock()
	close(f.ready)
}

// Scheduler runs tasks as goroutines under a shared cancellation token,
// tracking in-flight work so a caller (typically the shutdown coordinator)
// can drain before exit. It holds no queue or worker pool of its own: "OS
// threads" per spec §5 means goroutines, not a bounded pool, since feature
// sets spend most of their time suspended on I/O rather than on CPU.
type Scheduler struct {
	root CancelToken
	wg   sync.WaitGroup
}

// NewScheduler builds a Scheduler whose tasks are all derived from root —
// typically a token tied to the shutdown coordinator's lifetime.
func NewScheduler(root CancelToken) *Scheduler {
	return &Scheduler{root: root}
}

// Spawn runs fn as an independent Task and returns a Future for its result.
// fn receives the scheduler's root-derived cancellation context; suspension
// points inside fn should select on ctx.Done() to honor cooperative
// cancellation.
func Spawn[T any](s *Scheduler, fn func(ctx context.Context) (T, error)) *Future[T] {
	fut := &Future[T]{ready: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		result, err := fn(s.root.Context())
		fut.complete(result, err)
	}()
	return fut
}

// Wait blocks until every task spawned so far has completed. Used by tests
// and by short-lived CLI runs that don't go through the shutdown
// coordinator's Drain.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// ParallelGroup runs a fixed batch of independent tasks to completion,
// joining before returning — the shape the executor's optional
// enableParallelIO mode (spec §4.3) needs for a window of statements the
// data-flow analysis has cleared to run concurrently. Results preserve
// input order regardless of completion order.
func ParallelGroup[T any](ctx context.Context, fns []func(ctx context.Context) (T, error)) ([]T, error) {
	results := make([]T, len(fns))
	errs := make([]error, len(fns))
	var wg sync.WaitGroup
	wg.Add(len(fns))
	for i, fn := range fns {
		i, fn := i, fn
		go func() {
			defer wg.Done()
			results[i], errs[i] = fn(ctx)
		}()
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
