package eventbus

import (
	"context"
	"testing"

	"github.com/arolang/aro/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeOrderPreserved(t *testing.T) {
	b := New()
	var order []string
	b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		order = append(order, "first")
		return nil
	})
	b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, b.Emit(context.Background(), ports.Event{EventType: "ping"}))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestUnsubscribeRemovesHandler(t *testing.T) {
	b := New()
	called := false
	id := b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		called = true
		return nil
	})
	b.Unsubscribe(id)

	require.NoError(t, b.Emit(context.Background(), ports.Event{EventType: "ping"}))
	assert.False(t, called)
}

func TestEmitStampsTimestamp(t *testing.T) {
	b := New()
	var got ports.Event
	b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		got = ev
		return nil
	})
	require.NoError(t, b.Emit(context.Background(), ports.Event{EventType: "ping"}))
	assert.False(t, got.Timestamp.IsZero())
}

func TestEmitStopsOnHandlerError(t *testing.T) {
	b := New()
	calledSecond := false
	b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		return assert.AnError
	})
	b.Subscribe("ping", func(ctx context.Context, ev ports.Event) error {
		calledSecond = true
		return nil
	})
	err := b.Emit(context.Background(), ports.Event{EventType: "ping"})
	require.Error(t, err)
	assert.False(t, calledSecond)
}

func TestEmitNoSubscribersIsNoop(t *testing.T) {
	b := New()
	assert.NoError(t, b.Emit(context.Background(), ports.Event{EventType: "nobody-listens"}))
}
