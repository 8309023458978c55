package actions

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"unicode"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// ExtractAction implements the Extract/Parse/Get/.../Exists request-role verb
// family's specifier routing (spec §4.2): PascalCase schema validation,
// reserved sequence positions, numeric indexing, and nested-property access.
type ExtractAction struct{}

func (ExtractAction) Role() program.Role { return program.RoleRequest }
func (ExtractAction) Verbs() []string {
	return []string{"extract", "parse", "get", "retrieve", "fetch", "load", "find", "receive", "call", "read", "list", "stat", "exists"}
}
func (ExtractAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepVia, program.PrepFor, program.PrepWith}
}
func (ExtractAction) BindsResult() bool { return true }

func isPascalCase(s string) bool {
	if s == "" {
		return false
	}
	r := []rune(s)
	return unicode.IsUpper(r[0])
}

func (a ExtractAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if !actx.ObjectExists {
		return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable,
			map[string]any{"object": actx.Statement.Object.Base}, "undefined variable %q", actx.Statement.Object.Base)
	}

	spec := actx.Statement.Result.Specifier(0)
	switch {
	case spec == "":
		return actx.Object, nil
	case isPascalCase(spec):
		return extractWithSchema(actx, spec)
	case isReservedSequencePosition(spec):
		return extractSequencePosition(actx.Object, spec)
	case isNumeric(spec):
		return extractIndex(actx.Object, spec)
	default:
		return extractProperty(actx.Object, spec)
	}
}

func isReservedSequencePosition(spec string) bool {
	switch strings.ToLower(spec) {
	case "first", "last", "previous", "next":
		return true
	default:
		return false
	}
}

func isNumeric(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func extractSequencePosition(v value.Value, spec string) (value.Value, error) {
	var list []value.Value
	switch v.Kind {
	case value.KindList:
		list = v.List
	case value.KindStream:
		stream, ok := v.Stream.(streamCollector)
		if !ok {
			return value.Null, aroerr.New(aroerr.KindTypeMismatch, "extract %s: stream handle does not support collection", spec)
		}
		collected, err := stream.Collect(context.Background())
		if err != nil {
			return value.Null, aroerr.Wrap(err, "collecting stream for extract")
		}
		list = collected
	default:
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "extract %s: object is not a list or stream", spec)
	}
	if len(list) == 0 {
		return value.Null, nil
	}
	switch strings.ToLower(spec) {
	case "first", "previous":
		return list[0], nil
	case "last", "next":
		return list[len(list)-1], nil
	default:
		return value.Null, nil
	}
}

// streamCollector is the narrow surface the extract action needs from a
// value.StreamHandle to drain a sequence position; *stream.Stream satisfies
// it without extract importing the stream package's full transform API.
type streamCollector interface {
	Collect(ctx context.Context) ([]value.Value, error)
}

func extractIndex(v value.Value, spec string) (value.Value, error) {
	idx, err := strconv.Atoi(spec)
	if err != nil {
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "extract: invalid index %q", spec)
	}
	if v.Kind != value.KindList {
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "extract index: object is not a list")
	}
	if idx < 0 || idx >= len(v.List) {
		return value.Null, aroerr.Withf(aroerr.KindTypeMismatch, map[string]any{"index": idx, "length": len(v.List)},
			"extract index %d out of bounds (length %d)", idx, len(v.List))
	}
	return v.List[idx], nil
}

func extractProperty(v value.Value, path string) (value.Value, error) {
	cur := v
	for _, part := range strings.Split(path, ".") {
		var fields map[string]value.Value
		switch cur.Kind {
		case value.KindMap:
			fields = cur.Map
		case value.KindEntity:
			fields = cur.Entity.Fields
		default:
			return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"path": path},
				"extract: cannot navigate %q into %s", part, cur.Kind)
		}
		next, ok := fields[part]
		if !ok {
			return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"path": path},
				"extract: property %q not present", part)
		}
		cur = next
	}
	return cur, nil
}

func extractWithSchema(actx *registry.ActionContext, schemaName string) (value.Value, error) {
	if actx.Deps.Schemas == nil {
		return value.Null, aroerr.Withf(aroerr.KindSchemaValidationError, map[string]any{"schema": schemaName, "subkind": "schema-not-found"},
			"extract %s: no schema registry attached", schemaName)
	}
	raw, ok := actx.Deps.Schemas.Lookup(schemaName)
	if !ok {
		return value.Null, aroerr.Withf(aroerr.KindSchemaValidationError, map[string]any{"schema": schemaName, "subkind": "schema-not-found"},
			"extract %s: schema not found", schemaName)
	}

	var schemaDoc any
	if err := json.Unmarshal(raw, &schemaDoc); err != nil {
		return value.Null, aroerr.Wrap(err, "unmarshal schema document")
	}

	payload := valueToJSONLike(actx.Object)
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return value.Null, aroerr.Wrap(err, "marshal extracted value for schema validation")
	}
	var payloadDoc any
	if err := json.Unmarshal(payloadBytes, &payloadDoc); err != nil {
		return value.Null, aroerr.Wrap(err, "unmarshal extracted value for schema validation")
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName+".json", schemaDoc); err != nil {
		return value.Null, aroerr.Withf(aroerr.KindSchemaValidationError, map[string]any{"schema": schemaName}, "add schema resource: %v", err)
	}
	compiled, err := compiler.Compile(schemaName + ".json")
	if err != nil {
		return value.Null, aroerr.Withf(aroerr.KindSchemaValidationError, map[string]any{"schema": schemaName}, "compile schema: %v", err)
	}
	if err := compiled.Validate(payloadDoc); err != nil {
		return value.Null, aroerr.Withf(aroerr.KindSchemaValidationError,
			map[string]any{"schema": schemaName, "subkind": "type-mismatch"}, "schema %q validation failed: %v", schemaName, err)
	}
	return actx.Object, nil
}

func valueToJSONLike(v value.Value) any {
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
		return string(v.Bytes)
	case value.KindList:
		out := make([]any, len(v.List))
		for i, e := range v.List {
			out[i] = valueToJSONLike(e)
		}
		return out
	case value.KindMap:
		out := make(map[string]any, len(v.Map))
		for k, e := range v.Map {
			out[k] = valueToJSONLike(e)
		}
		return out
	case value.KindEntity:
		out := make(map[string]any, len(v.Entity.Fields))
		for k, e := range v.Entity.Fields {
			out[k] = valueToJSONLike(e)
		}
		return out
	default:
		return v.String()
	}
}
