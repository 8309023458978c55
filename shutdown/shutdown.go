// Package shutdown implements the Shutdown Coordinator of spec.md §4.10: a
// signal-driven drain sequence that stops new top-level work, waits for
// in-flight feature sets up to a grace period, and runs whichever
// Application-End feature set matches the observed outcome before the
// process exits. It is built as an engine-scoped struct rather than the
// source's process singleton (spec §9's note on ActionRegistry.shared /
// ShutdownCoordinator.shared), following the same functional-options shape
// the teacher uses for its engine and registry constructors.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/arolang/aro/telemetry"
)

// ExitCode mirrors spec §6's three-way exit contract. Analyzer errors (2)
// are the analyzer's concern and never originate here.
const (
	ExitSuccess     = 0
	ExitRuntimeErr  = 1
	ExitAnalyzerErr = 2
)

// ApplicationEndRunner runs the named Application-End feature set (either
// "Success" or "Error"), if one exists for the program. Returning
// (false, nil) means no such feature set was registered; the coordinator
// then falls back to a bare exit code.
type ApplicationEndRunner func(ctx context.Context, outcome string) (ran bool, err error)

// Coordinator is the process-wide drain sequencer. The zero value is not
// usable; construct with New.
type Coordinator struct {
	mu           sync.Mutex
	shuttingDown bool
	reason       string
	fatal        error
	done         chan struct{}

	gracePeriod time.Duration
	inflight    sync.WaitGroup
	logger      telemetry.Logger

	stopSignals func() // cancels signal.Notify, set by Listen
}

// Option configures a Coordinator at construction time.
type Option func(*Coordinator)

// WithGracePeriod overrides the default drain timeout (10s).
func WithGracePeriod(d time.Duration) Option {
	return func(c *Coordinator) { c.gracePeriod = d }
}

// WithLogger attaches a logger used for shutdown diagnostics.
func WithLogger(l telemetry.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// New constructs a Coordinator ready to track in-flight work and receive
// SignalShutdown calls.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		done:        make(chan struct{}),
		gracePeriod: 10 * time.Second,
		logger:      telemetry.NewNoopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Listen installs a signal handler for SIGINT/SIGTERM that calls
// SignalShutdown. Call the returned stop function to uninstall it (tests and
// Reset both need this so a package-level handler doesn't leak across
// cases).
func (c *Coordinator) Listen(ctx context.Context) (stop func()) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	stopped := make(chan struct{})
	go func() {
		select {
		case sig := <-sigCh:
			c.SignalShutdown(sig.String(), nil)
		case <-ctx.Done():
		case <-stopped:
		}
	}()
	c.stopSignals = func() {
		close(stopped)
		signal.Stop(sigCh)
	}
	return c.stopSignals
}

// SignalShutdown marks the coordinator as shutting down. reason is a
// free-form diagnostic string (e.g. a signal name or "manual"); fatal, when
// non-nil, is surfaced to RunApplicationEnd so it can choose the Error path
// over Success. Calling SignalShutdown more than once is a no-op after the
// first.
func (c *Coordinator) SignalShutdown(reason string, fatal error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shuttingDown {
		return
	}
	c.shuttingDown = true
	c.reason = reason
	c.fatal = fatal
	close(c.done)
	c.logger.Info(context.Background(), "shutdown signaled", "reason", reason, "fatal", fatal != nil)
}

// Reset restores the coordinator to its pre-shutdown state. Tests use this
// to reuse one Coordinator across cases; production code never needs it
// since the process exits at the end of the drain sequence.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopSignals != nil {
		c.stopSignals()
		c.stopSignals = nil
	}
	c.shuttingDown = false
	c.reason = ""
	c.fatal = nil
	c.done = make(chan struct{})
}

// ShuttingDown reports whether SignalShutdown has fired. Callers at the
// top-level request boundary (HTTP listener, task scheduler) check this
// before accepting new work (spec §4.10 step 1).
func (c *Coordinator) ShuttingDown() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.shuttingDown
}

// WaitForShutdown blocks until SignalShutdown fires or ctx is cancelled.
func (c *Coordinator) WaitForShutdown(ctx context.Context) {
	select {
	case <-c.done:
	case <-ctx.Done():
	}
}

// Track registers one unit of in-flight work, returning a done func the
// caller must invoke exactly once on completion. The drain sequence waits
// for every tracked unit before running Application-End.
func (c *Coordinator) Track() (done func()) {
	c.inflight.Add(1)
	var once sync.Once
	return func() { once.Do(c.inflight.Done) }
}

// Drain waits for all tracked in-flight work to finish, up to the
// configured grace period. It reports whether the drain completed cleanly
// (false means the grace period elapsed with work still outstanding).
func (c *Coordinator) Drain() bool {
	drained := make(chan struct{})
	go func() {
		c.inflight.Wait()
		close(drained)
	}()
	select {
	case <-drained:
		return true
	case <-time.After(c.gracePeriod):
		c.logger.Warn(context.Background(), "shutdown grace period elapsed with work outstanding")
		return false
	}
}

// Run executes the full spec §4.10 sequence: wait for shutdown, drain
// in-flight feature sets, run the matching Application-End feature set (if
// any), and return the process exit code. runner is nil-safe: if the
// program defines no Application-End feature sets, Run still returns the
// correct bare exit code.
func (c *Coordinator) Run(ctx context.Context, runner ApplicationEndRunner) int {
	c.WaitForShutdown(ctx)
	c.Drain()

	c.mu.Lock()
	fatal := c.fatal
	c.mu.Unlock()

	outcome := "Success"
	if fatal != nil {
		outcome = "Error"
	}

	if runner != nil {
		drainCtx, cancel := context.WithTimeout(context.Background(), c.gracePeriod)
		defer cancel()
		ran, err := runner(drainCtx, outcome)
		if err != nil {
			c.logger.Error(drainCtx, "application-end feature set failed", "outcome", outcome, "error", err)
			return ExitRuntimeErr
		}
		if ran && fatal == nil {
			return ExitSuccess
		}
		if ran && fatal != nil {
			return ExitRuntimeErr
		}
	}

	if fatal != nil {
		return ExitRuntimeErr
	}
	return ExitSuccess
}
