package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFutureGetBlocksUntilComplete(t *testing.T) {
	tok, release := NewCancelToken(context.Background())
	defer release()
	sched := NewScheduler(tok)

	fut := Spawn(sched, func(ctx context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 42, nil
	})

	assert.False(t, fut.IsReady())
	v, err := fut.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
	assert.True(t, fut.IsReady())
}

func TestFutureGetReturnsCallerContextError(t *testing.T) {
	tok, release := NewCancelToken(context.Background())
	defer release()
	sched := NewScheduler(tok)

	fut := Spawn(sched, func(ctx context.Context) (int, error) {
		time.Sleep(50 * time.Millisecond)
		return 0, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	_, err := fut.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCancelTokenRecordsReason(t *testing.T) {
	tok, release := NewCancelToken(context.Background())
	defer release()

	boom := errors.New("shutdown requested")
	tok.Cancel(boom)

	<-tok.Done()
	assert.Equal(t, boom, tok.Err())
}

func TestSchedulerWaitJoinsAllTasks(t *testing.T) {
	tok, release := NewCancelToken(context.Background())
	defer release()
	sched := NewScheduler(tok)

	var n int32
	for i := 0; i < 5; i++ {
		Spawn(sched, func(ctx context.Context) (struct{}, error) {
			time.Sleep(5 * time.Millisecond)
			n++
			return struct{}{}, nil
		})
	}
	sched.Wait()
	assert.EqualValues(t, 5, n)
}

func TestParallelGroupPreservesOrder(t *testing.T) {
	fns := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { time.Sleep(15 * time.Millisecond); return 1, nil },
		func(ctx context.Context) (int, error) { return 2, nil },
		func(ctx context.Context) (int, error) { time.Sleep(5 * time.Millisecond); return 3, nil },
	}
	results, err := ParallelGroup(context.Background(), fns)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, results)
}

func TestParallelGroupSurfacesFirstError(t *testing.T) {
	boom := errors.New("fetch failed")
	fns := []func(ctx context.Context) (int, error){
		func(ctx context.Context) (int, error) { return 0, boom },
		func(ctx context.Context) (int, error) { return 1, nil },
	}
	_, err := ParallelGroup(context.Background(), fns)
	assert.ErrorIs(t, err, boom)
}
