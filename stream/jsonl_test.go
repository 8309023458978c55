package stream

import (
	"context"
	"testing"

	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromJSONLLineDelimited(t *testing.T) {
	content := "# comment\n{\"a\":1}\n\n{\"a\":2}\n// also a comment\n"
	s, err := FromJSONL(context.Background(), content, JSONLConfig{})
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1), rows[0].Map["a"].Int)
	assert.Equal(t, int64(2), rows[1].Map["a"].Int)
}

func TestFromJSONLArrayMode(t *testing.T) {
	content := `[{"a":1},{"a":2}]`
	s, err := FromJSONL(context.Background(), content, JSONLConfig{})
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)
}

type recordingBus struct {
	events []ports.Event
}

func (b *recordingBus) Subscribe(string, ports.EventHandler) string { return "" }
func (b *recordingBus) Unsubscribe(string)                          {}
func (b *recordingBus) Emit(ctx context.Context, ev ports.Event) error {
	b.events = append(b.events, ev)
	return nil
}

func TestFromJSONLMalformedLineEmitsDiagnostic(t *testing.T) {
	bus := &recordingBus{}
	content := "{\"a\":1}\nnot json\n{\"a\":2}\n"
	s, err := FromJSONL(context.Background(), content, JSONLConfig{Events: bus})
	require.NoError(t, err)

	rows, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.Len(t, bus.events, 1)
	assert.Equal(t, "jsonl.parse_error", bus.events[0].EventType)
	assert.Equal(t, int64(2), bus.events[0].Payload["line"].Int)
}

func TestJSONRoundTrip(t *testing.T) {
	v := value.Map(map[string]value.Value{
		"s": value.String("hi"),
		"n": value.Int(3),
		"b": value.Bool(true),
		"l": value.List([]value.Value{value.Int(1), value.Int(2)}),
	})
	data, err := SerializeJSON(v)
	require.NoError(t, err)

	got, err := DeserializeJSON(data)
	require.NoError(t, err)
	assert.True(t, value.Equal(v, got))
}
