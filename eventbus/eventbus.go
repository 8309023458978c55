// Package eventbus implements the single-process pub/sub bus of spec.md
// §4.4: subscribe/unsubscribe/emit with subscription-order delivery, guarded
// by one mutex per the teacher's MemoryCache pattern in
// runtime/registry/cache.go (a single RWMutex protecting a map, rather than
// per-entry locks — the bus's map is small and short-lived per process).
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/telemetry"
)

type subscription struct {
	id      string
	handler ports.EventHandler
}

// Bus is a concrete ports.EventBus.
type Bus struct {
	mu   sync.RWMutex
	subs map[string][]subscription // eventType -> ordered subscriptions

	telemetry telemetry.Bundle
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithTelemetry attaches a telemetry bundle used to record emit spans and
// per-event-type counters.
func WithTelemetry(b telemetry.Bundle) Option {
	return func(bus *Bus) { bus.telemetry = b }
}

// New constructs an empty Bus.
func New(opts ...Option) *Bus {
	b := &Bus{subs: make(map[string][]subscription), telemetry: telemetry.Noop()}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Subscribe registers handler for eventType and returns a SubscriptionId
// usable with Unsubscribe. Subscription order determines delivery order for
// a given event type (spec §4.4).
func (b *Bus) Subscribe(eventType string, handler ports.EventHandler) string {
	id := uuid.NewString()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[eventType] = append(b.subs[eventType], subscription{id: id, handler: handler})
	return id
}

// Unsubscribe removes the subscription with the given id, from whichever
// event type it was registered under.
func (b *Bus) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for eventType, subs := range b.subs {
		for i, s := range subs {
			if s.id == id {
				b.subs[eventType] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}
}

// Emit delivers ev synchronously, in subscription order, to every handler
// registered for ev.EventType (spec §4.4). If ev.Timestamp is zero it is
// stamped with the current time before delivery (I5: monotonic w.r.t.
// emission order within one bus — callers that emit in sequence on one
// goroutine get monotonically increasing timestamps for free; emit itself
// serializes stamping under the bus lock so concurrent emitters do too).
func (b *Bus) Emit(ctx context.Context, ev ports.Event) error {
	ctx, span := b.telemetry.Tracer.Start(ctx, "eventbus.emit")
	defer span.End()

	b.mu.Lock()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	handlers := append([]subscription(nil), b.subs[ev.EventType]...)
	b.mu.Unlock()

	b.telemetry.Metrics.IncCounter("eventbus.emit", 1, "type", ev.EventType)

	for _, s := range handlers {
		if err := s.handler(ctx, ev); err != nil {
			b.telemetry.Logger.Error(ctx, "event handler failed", "eventType", ev.EventType, "subscriptionId", s.id, "error", err)
			return err
		}
	}
	return nil
}
