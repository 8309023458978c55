// Package stream implements the Streaming Pipeline of spec.md §4.8: cold,
// pull-based, lazy Value sequences with stateless/row-oriented transforms,
// terminal sinks, and a ring-buffered tee fan-out. The pull protocol is
// modeled as the uniform step(ctx) -> {yielded, done} state machine spec.md
// §9 recommends in place of async/await, the same "no colored functions"
// idiom the teacher favors for its own Sink/Event streaming surface
// (runtime/agent/stream/stream.go) even though that package is push-based.
package stream

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/arolang/aro/value"
)

// Producer yields the next element of a cold sequence. ok is false at
// end-of-stream; err signals a failure mid-pull.
type Producer func(ctx context.Context) (v value.Value, ok bool, err error)

// Stream is a handle over a Producer. It satisfies value.StreamHandle so it
// can be carried inside a value.Value. Streams are single-consumer by
// default (spec §5); Tee is the sanctioned multi-consumer path.
type Stream struct {
	id       string
	produce  Producer
	restart  func() Producer // recreates a fresh Producer for Reset/re-iteration
}

// ID implements value.StreamHandle.
func (s *Stream) ID() string { return s.id }

func newStream(restart func() Producer) *Stream {
	return &Stream{id: uuid.NewString(), produce: restart(), restart: restart}
}

// Next pulls the next element.
func (s *Stream) Next(ctx context.Context) (value.Value, bool, error) {
	return s.produce(ctx)
}

// Reset rewinds the stream to a fresh producer (cold restart, spec §4.8:
// "restart by re-creating").
func (s *Stream) Reset() {
	s.produce = s.restart()
}

// From constructs a Stream over an in-memory list.
func From(items []value.Value) *Stream {
	return newStream(func() Producer {
		i := 0
		return func(ctx context.Context) (value.Value, bool, error) {
			if i >= len(items) {
				return value.Null, false, nil
			}
			v := items[i]
			i++
			return v, true, nil
		}
	})
}

// Empty constructs a Stream that yields nothing.
func Empty() *Stream {
	return From(nil)
}

// Just constructs a single-element Stream.
func Just(v value.Value) *Stream {
	return From([]value.Value{v})
}

// FromBuffered wraps a supplier function as a Stream, used by sources that
// produce asynchronously (e.g. a socket connection object). Reset reuses the
// same supplier rather than restarting it.
func FromBuffered(supplier func(ctx context.Context) (value.Value, bool, error)) *Stream {
	return newStream(func() Producer { return supplier })
}

// Filter keeps only elements satisfying pred.
func (s *Stream) Filter(pred func(value.Value) bool) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		return func(ctx context.Context) (value.Value, bool, error) {
			for {
				v, ok, err := upstream(ctx)
				if err != nil || !ok {
					return v, ok, err
				}
				if pred(v) {
					return v, true, nil
				}
			}
		}
	})
}

// Map transforms each element with f.
func (s *Stream) Map(f func(value.Value) (value.Value, error)) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		return func(ctx context.Context) (value.Value, bool, error) {
			v, ok, err := upstream(ctx)
			if err != nil || !ok {
				return v, ok, err
			}
			out, err := f(v)
			if err != nil {
				return value.Null, false, err
			}
			return out, true, nil
		}
	})
}

// FlatMap expands each element into zero or more elements.
func (s *Stream) FlatMap(f func(value.Value) ([]value.Value, error)) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		var buf []value.Value
		return func(ctx context.Context) (value.Value, bool, error) {
			for {
				if len(buf) > 0 {
					v := buf[0]
					buf = buf[1:]
					return v, true, nil
				}
				v, ok, err := upstream(ctx)
				if err != nil || !ok {
					return v, ok, err
				}
				expanded, err := f(v)
				if err != nil {
					return value.Null, false, err
				}
				buf = expanded
			}
		}
	})
}

// CompactMap transforms each element, dropping those for which ok is false.
func (s *Stream) CompactMap(f func(value.Value) (value.Value, bool, error)) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		return func(ctx context.Context) (value.Value, bool, error) {
			for {
				v, ok, err := upstream(ctx)
				if err != nil || !ok {
					return v, ok, err
				}
				out, keep, err := f(v)
				if err != nil {
					return value.Null, false, err
				}
				if keep {
					return out, true, nil
				}
			}
		}
	})
}

// Take yields at most n elements.
func (s *Stream) Take(n int) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		count := 0
		return func(ctx context.Context) (value.Value, bool, error) {
			if count >= n {
				return value.Null, false, nil
			}
			v, ok, err := upstream(ctx)
			if err != nil || !ok {
				return v, ok, err
			}
			count++
			return v, true, nil
		}
	})
}

// Drop skips the first n elements.
func (s *Stream) Drop(n int) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		dropped := 0
		return func(ctx context.Context) (value.Value, bool, error) {
			for dropped < n {
				_, ok, err := upstream(ctx)
				if err != nil || !ok {
					return value.Null, ok, err
				}
				dropped++
			}
			return upstream(ctx)
		}
	})
}

// TakeWhile yields elements while pred holds, stopping at the first failure.
func (s *Stream) TakeWhile(pred func(value.Value) bool) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		done := false
		return func(ctx context.Context) (value.Value, bool, error) {
			if done {
				return value.Null, false, nil
			}
			v, ok, err := upstream(ctx)
			if err != nil || !ok {
				return v, ok, err
			}
			if !pred(v) {
				done = true
				return value.Null, false, nil
			}
			return v, true, nil
		}
	})
}

// DropWhile skips elements while pred holds, then yields everything after.
func (s *Stream) DropWhile(pred func(value.Value) bool) *Stream {
	return newStream(func() Producer {
		upstream := s.restart()
		dropping := true
		return func(ctx context.Context) (value.Value, bool, error) {
			for {
				v, ok, err := upstream(ctx)
				if err != nil || !ok {
					return v, ok, err
				}
				if dropping && pred(v) {
					continue
				}
				dropping = false
				return v, true, nil
			}
		}
	})
}

func asMap(v value.Value) (map[string]value.Value, bool) {
	switch v.Kind {
	case value.KindMap:
		return v.Map, true
	case value.KindEntity:
		return v.Entity.Fields, true
	default:
		return nil, false
	}
}

// WhereField filters a Map/Entity stream to rows whose field equals equals.
func (s *Stream) WhereField(field string, equals value.Value) *Stream {
	return s.Filter(func(v value.Value) bool {
		m, ok := asMap(v)
		if !ok {
			return false
		}
		fv, ok := m[field]
		return ok && value.Equal(fv, equals)
	})
}

// Project narrows each row to the named fields.
func (s *Stream) Project(names []string) *Stream {
	return s.Map(func(v value.Value) (value.Value, error) {
		m, ok := asMap(v)
		if !ok {
			return v, nil
		}
		out := make(map[string]value.Value, len(names))
		for _, n := range names {
			if fv, ok := m[n]; ok {
				out[n] = fv
			}
		}
		return value.Map(out), nil
	})
}

// Field projects each row to a single scalar field, optionally coercing it
// via the "as:type" transform table (Table T-1).
func (s *Stream) Field(name string, asType string) *Stream {
	return s.Map(func(v value.Value) (value.Value, error) {
		m, ok := asMap(v)
		if !ok {
			return value.Null, nil
		}
		fv := m[name]
		if asType == "" {
			return fv, nil
		}
		return value.Transform(fv, asType)
	})
}

// Collect drains the stream into a list.
func (s *Stream) Collect(ctx context.Context) ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return out, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

// Reduce folds the stream with seed and f.
func (s *Stream) Reduce(ctx context.Context, seed value.Value, f func(acc, v value.Value) (value.Value, error)) (value.Value, error) {
	acc := seed
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return acc, err
		}
		if !ok {
			return acc, nil
		}
		acc, err = f(acc, v)
		if err != nil {
			return acc, err
		}
	}
}

// Count drains the stream and reports the number of elements.
func (s *Stream) Count(ctx context.Context) (int, error) {
	n := 0
	for {
		_, ok, err := s.produce(ctx)
		if err != nil {
			return n, err
		}
		if !ok {
			return n, nil
		}
		n++
	}
}

// First returns the first element, or the first matching pred if provided.
func (s *Stream) First(ctx context.Context, pred func(value.Value) bool) (value.Value, bool, error) {
	for {
		v, ok, err := s.produce(ctx)
		if err != nil || !ok {
			return value.Null, false, err
		}
		if pred == nil || pred(v) {
			return v, true, nil
		}
	}
}

// Contains reports whether any element equals target.
func (s *Stream) Contains(ctx context.Context, target value.Value) (bool, error) {
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
		if value.Equal(v, target) {
			return true, nil
		}
	}
}

// AllSatisfy reports whether every element satisfies pred (vacuously true
// for an empty stream).
func (s *Stream) AllSatisfy(ctx context.Context, pred func(value.Value) bool) (bool, error) {
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return false, err
		}
		if !ok {
			return true, nil
		}
		if !pred(v) {
			return false, nil
		}
	}
}

// Sum adds up numeric elements (Int or Double), promoting to Double if any
// element is a Double.
func (s *Stream) Sum(ctx context.Context) (value.Value, error) {
	var intSum int64
	var dblSum float64
	sawDouble := false
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return value.Null, err
		}
		if !ok {
			break
		}
		switch v.Kind {
		case value.KindInt:
			intSum += v.Int
			dblSum += float64(v.Int)
		case value.KindDouble:
			sawDouble = true
			dblSum += v.Double
		default:
			return value.Null, &value.TypeMismatch{From: v.Kind, To: value.KindDouble, Verb: "sum"}
		}
	}
	if sawDouble {
		return value.Double(dblSum), nil
	}
	return value.Int(intSum), nil
}

// Min returns the smallest element by the natural ordering of Table T-1
// sortable types.
func (s *Stream) Min(ctx context.Context) (value.Value, bool, error) {
	return s.extremum(ctx, func(less bool) bool { return less })
}

// Max returns the largest element.
func (s *Stream) Max(ctx context.Context) (value.Value, bool, error) {
	return s.extremum(ctx, func(less bool) bool { return !less })
}

func (s *Stream) extremum(ctx context.Context, keepIfLess func(less bool) bool) (value.Value, bool, error) {
	var best value.Value
	have := false
	for {
		v, ok, err := s.produce(ctx)
		if err != nil {
			return value.Null, false, err
		}
		if !ok {
			break
		}
		if !have {
			best, have = v, true
			continue
		}
		cmp, err := compare(v, best)
		if err != nil {
			return value.Null, false, err
		}
		if keepIfLess(cmp < 0) {
			best = v
		}
	}
	return best, have, nil
}

func compare(a, b value.Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, &value.TypeMismatch{From: a.Kind, To: b.Kind, Verb: "sort"}
	}
	switch a.Kind {
	case value.KindInt:
		switch {
		case a.Int < b.Int:
			return -1, nil
		case a.Int > b.Int:
			return 1, nil
		default:
			return 0, nil
		}
	case value.KindDouble:
		switch {
		case a.Double < b.Double:
			return -1, nil
		case a.Double > b.Double:
			return 1, nil
		default:
			return 0, nil
		}
	case value.KindString:
		switch {
		case a.Str < b.Str:
			return -1, nil
		case a.Str > b.Str:
			return 1, nil
		default:
			return 0, nil
		}
	default:
		return 0, &value.TypeMismatch{From: a.Kind, To: a.Kind, Verb: "sort: unorderable"}
	}
}

// EvictedAccess reports a tee consumer requesting an index the ring buffer
// has already trimmed away (spec §4.8).
type EvictedAccess struct {
	Index    int64
	MinAlive int64
}

func (e *EvictedAccess) Error() string {
	return "stream: index evicted from ring buffer"
}

const defaultRingBufferCapacity = 4096

// ringBuffer is the shared backing store for Tee, implemented with
// absolute, capacity-masked indices plus a condition variable, per the
// index-based design spec.md §9 recommends over a callback-driven producer.
type ringBuffer struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	slots    []value.Value
	errs     []error
	done     bool
	finalErr error

	nextWrite int64   // absolute index of the next slot the producer will fill
	cursors   []int64 // one read cursor per consumer
	closed    []bool  // per-consumer cancellation

	upstream Producer
}

func newRingBuffer(upstream Producer, capacity int, numConsumers int) *ringBuffer {
	if capacity <= 0 {
		capacity = defaultRingBufferCapacity
	}
	rb := &ringBuffer{
		capacity: capacity,
		slots:    make([]value.Value, capacity),
		errs:     make([]error, capacity),
		cursors:  make([]int64, numConsumers),
		closed:   make([]bool, numConsumers),
		upstream: upstream,
	}
	rb.cond = sync.NewCond(&rb.mu)
	return rb
}

func (rb *ringBuffer) minAliveCursor() int64 {
	min := rb.nextWrite
	for i, c := range rb.cursors {
		if rb.closed[i] {
			continue
		}
		if c < min {
			min = c
		}
	}
	return min
}

// fill pulls one more element from upstream into the buffer, blocking (via
// cond) if the slowest live consumer is more than capacity behind. Only a
// successfully produced element advances nextWrite; end-of-stream and
// errors set done/finalErr without occupying a slot, so a read that lands
// exactly on the end marker sees it via the done check rather than a
// spurious zero-value element.
func (rb *ringBuffer) fill(ctx context.Context) {
	for rb.nextWrite-rb.minAliveCursor() >= int64(rb.capacity) {
		rb.cond.Wait()
	}
	v, ok, err := rb.upstream(ctx)
	if err != nil {
		rb.done = true
		rb.finalErr = err
		rb.cond.Broadcast()
		return
	}
	if !ok {
		rb.done = true
		rb.cond.Broadcast()
		return
	}
	idx := rb.nextWrite % int64(rb.capacity)
	rb.slots[idx] = v
	rb.errs[idx] = nil
	rb.nextWrite++
	rb.cond.Broadcast()
}

// read returns the element at absolute index i for consumer id, blocking
// until the producer has written it (or the stream is done).
func (rb *ringBuffer) read(ctx context.Context, consumer int, i int64) (value.Value, bool, error) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	minAlive := rb.minAliveCursor()
	if i < minAlive {
		return value.Null, false, &EvictedAccess{Index: i, MinAlive: minAlive}
	}

	for i >= rb.nextWrite {
		if rb.done {
			return value.Null, false, rb.finalErr
		}
		rb.fill(ctx)
	}

	idx := i % int64(rb.capacity)
	if rb.errs[idx] != nil {
		return value.Null, false, rb.errs[idx]
	}
	return rb.slots[idx], true, nil
}

func (rb *ringBuffer) advance(consumer int, to int64) {
	rb.mu.Lock()
	rb.cursors[consumer] = to
	rb.cond.Broadcast()
	rb.mu.Unlock()
}

func (rb *ringBuffer) cancel(consumer int) {
	rb.mu.Lock()
	rb.closed[consumer] = true
	rb.cond.Broadcast()
	rb.mu.Unlock()
}

// Tee returns n independent consumer Streams that each observe the source's
// element ordering from position 0, backed by a shared bounded RingBuffer
// (spec §4.8). capacity <= 0 uses the default (4096).
func (s *Stream) Tee(n int, capacity int) []*Stream {
	rb := newRingBuffer(s.restart(), capacity, n)
	out := make([]*Stream, n)
	for c := 0; c < n; c++ {
		consumer := c
		out[c] = newStream(func() Producer {
			var cursor int64
			return func(ctx context.Context) (value.Value, bool, error) {
				v, ok, err := rb.read(ctx, consumer, cursor)
				if err != nil || !ok {
					rb.cancel(consumer)
					return v, false, err
				}
				cursor++
				rb.advance(consumer, cursor)
				return v, true, nil
			}
		})
	}
	return out
}
