package stream

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
)

// JSONLConfig configures FromJSONL. Events, if non-nil, receives a
// "jsonl.parse_error" event per skipped malformed line (spec §4.8).
type JSONLConfig struct {
	Events ports.EventBus
}

func jsonToValue(raw any) value.Value {
	switch t := raw.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case float64:
		if t == float64(int64(t)) {
			return value.Int(int64(t))
		}
		return value.Double(t)
	case string:
		return value.String(t)
	case []any:
		out := make([]value.Value, len(t))
		for i, e := range t {
			out[i] = jsonToValue(e)
		}
		return value.List(out)
	case map[string]any:
		out := make(map[string]value.Value, len(t))
		for k, e := range t {
			out[k] = jsonToValue(e)
		}
		return value.Map(out)
	default:
		return value.Null
	}
}

// FromJSONL parses content per spec §4.8: one JSON document per line,
// blank lines and lines starting with "#" or "//" skipped, malformed lines
// skipped with a "jsonl.parse_error" diagnostic event. If the first
// non-whitespace character is '[', the whole content is parsed as a single
// JSON array instead (mutually exclusive with line-delimited mode).
func FromJSONL(ctx context.Context, content string, cfg JSONLConfig) (*Stream, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "[") {
		var arr []any
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, err
		}
		out := make([]value.Value, len(arr))
		for i, e := range arr {
			out[i] = jsonToValue(e)
		}
		return From(out), nil
	}

	var rows []value.Value
	for lineNo, line := range strings.Split(content, "\n") {
		trimmedLine := strings.TrimSpace(line)
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, "#") || strings.HasPrefix(trimmedLine, "//") {
			continue
		}
		var doc any
		if err := json.Unmarshal([]byte(trimmedLine), &doc); err != nil {
			if cfg.Events != nil {
				_ = cfg.Events.Emit(ctx, ports.Event{
					EventType: "jsonl.parse_error",
					Payload: map[string]value.Value{
						"line":    value.Int(int64(lineNo + 1)),
						"message": value.String(err.Error()),
					},
				})
			}
			continue
		}
		rows = append(rows, jsonToValue(doc))
	}
	return From(rows), nil
}

// SerializeJSON renders v as canonical JSON text, used by the JSON
// round-trip property of spec §8 and the JSON format serializer (§6).
func SerializeJSON(v value.Value) ([]byte, error) {
	return json.Marshal(valueToJSON(v))
}

func valueToJSON(v value.Value) any {
	switch v.Kind {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.Bool
	case value.KindInt:
		return v.Int
	case value.KindDouble:
		return v.Double
	case value.KindString:
		return v.Str
	case value.KindBytes:
		return v.Bytes
	case value.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = valueToJSON(e)
		}
		return out
	case value.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = valueToJSON(e)
		}
		return out
	case value.KindEntity:
		out := make(map[string]any, len(v.Entity.Fields))
		for k, e := range v.Entity.Fields {
			out[k] = valueToJSON(e)
		}
		return out
	case value.KindDate:
		return v.Date.When.Format("2006-01-02T15:04:05Z07:00")
	default:
		return v.String()
	}
}

// DeserializeJSON parses JSON text into a Value.
func DeserializeJSON(data []byte) (value.Value, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return value.Null, err
	}
	return jsonToValue(doc), nil
}
