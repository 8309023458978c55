package shutdown

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalShutdownIsIdempotent(t *testing.T) {
	c := New()
	c.SignalShutdown("first", nil)
	c.SignalShutdown("second", errors.New("ignored"))

	assert.True(t, c.ShuttingDown())
	c.mu.Lock()
	reason := c.reason
	c.mu.Unlock()
	assert.Equal(t, "first", reason, "second signal must not overwrite the first")
}

func TestWaitForShutdownUnblocksOnSignal(t *testing.T) {
	c := New()
	go func() {
		time.Sleep(10 * time.Millisecond)
		c.SignalShutdown("manual", nil)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c.WaitForShutdown(ctx)
	assert.True(t, c.ShuttingDown())
}

func TestResetAllowsReuse(t *testing.T) {
	c := New()
	c.SignalShutdown("manual", nil)
	require.True(t, c.ShuttingDown())

	c.Reset()
	assert.False(t, c.ShuttingDown())

	done := make(chan struct{})
	go func() {
		c.WaitForShutdown(context.Background())
		close(done)
	}()
	c.SignalShutdown("again", nil)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("WaitForShutdown did not unblock after Reset + second signal")
	}
}

func TestDrainWaitsForTrackedWork(t *testing.T) {
	c := New(WithGracePeriod(time.Second))
	done := c.Track()

	finished := make(chan bool, 1)
	go func() { finished <- c.Drain() }()

	time.Sleep(10 * time.Millisecond)
	done()

	select {
	case ok := <-finished:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("Drain did not return after tracked work finished")
	}
}

func TestDrainTimesOutWithOutstandingWork(t *testing.T) {
	c := New(WithGracePeriod(20 * time.Millisecond))
	_ = c.Track() // never marked done

	assert.False(t, c.Drain())
}

func TestRunSuccessPathInvokesApplicationEndSuccess(t *testing.T) {
	c := New(WithGracePeriod(time.Second))
	c.SignalShutdown("manual", nil)

	var sawOutcome string
	code := c.Run(context.Background(), func(ctx context.Context, outcome string) (bool, error) {
		sawOutcome = outcome
		return true, nil
	})

	assert.Equal(t, "Success", sawOutcome)
	assert.Equal(t, ExitSuccess, code)
}

func TestRunErrorPathInvokesApplicationEndError(t *testing.T) {
	c := New(WithGracePeriod(time.Second))
	c.SignalShutdown("manual", errors.New("boom"))

	var sawOutcome string
	code := c.Run(context.Background(), func(ctx context.Context, outcome string) (bool, error) {
		sawOutcome = outcome
		return true, nil
	})

	assert.Equal(t, "Error", sawOutcome)
	assert.Equal(t, ExitRuntimeErr, code)
}

func TestRunWithNoApplicationEndFeatureSetFallsBackToFatalState(t *testing.T) {
	c := New(WithGracePeriod(time.Second))
	c.SignalShutdown("manual", nil)

	code := c.Run(context.Background(), func(ctx context.Context, outcome string) (bool, error) {
		return false, nil
	})

	assert.Equal(t, ExitSuccess, code)
}

func TestRunnerFailureIsRuntimeError(t *testing.T) {
	c := New(WithGracePeriod(time.Second))
	c.SignalShutdown("manual", nil)

	code := c.Run(context.Background(), func(ctx context.Context, outcome string) (bool, error) {
		return true, errors.New("template render failed")
	})

	assert.Equal(t, ExitRuntimeErr, code)
}
