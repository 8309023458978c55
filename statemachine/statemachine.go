// Package statemachine implements the Accept verb's transition algorithm and
// the StateGuard matching rules of spec.md §4.6. It is deliberately small:
// the transition parse/apply/emit sequence and the guard AND/OR predicate,
// grounded on the same declarative-matching idiom the teacher uses for its
// business-activity handler headers (runtime/agent/hooks).
package statemachine

import (
	"context"
	"strings"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
)

// Transition is a parsed "FROM_to_TO" specifier.
type Transition struct {
	From string
	To   string
}

const transitionInfix = "_to_"

// ParseTransition splits spec on the single occurrence of "_to_" (spec §4.6
// step 1). Returns InvalidTransitionFormat unless exactly one occurrence
// splits it into two non-empty sides.
func ParseTransition(spec string) (Transition, error) {
	idx := strings.Index(spec, transitionInfix)
	if idx < 0 {
		return Transition{}, aroerr.New(aroerr.KindRuntimeError, "invalid transition format %q: missing %q infix", spec, transitionInfix)
	}
	if strings.Index(spec[idx+len(transitionInfix):], transitionInfix) >= 0 {
		return Transition{}, aroerr.New(aroerr.KindRuntimeError, "invalid transition format %q: multiple %q infixes", spec, transitionInfix)
	}
	from, to := spec[:idx], spec[idx+len(transitionInfix):]
	if from == "" || to == "" {
		return Transition{}, aroerr.New(aroerr.KindRuntimeError, "invalid transition format %q: empty side", spec)
	}
	return Transition{From: from, To: to}, nil
}

// Apply runs the Accept algorithm (spec §4.6 steps 2-5): validates entity's
// current state at field, clones the entity with field set to t.To, and
// returns the updated entity plus the state.transition event to emit. The
// caller is responsible for re-binding the returned entity and emitting the
// event through its own event bus handle.
func Apply(entity value.Value, field string, t Transition) (value.Value, ports.Event, error) {
	if field == "" {
		field = "status"
	}
	if entity.Kind != value.KindEntity && entity.Kind != value.KindMap {
		return value.Null, ports.Event{}, aroerr.New(aroerr.KindTypeMismatch, "Accept requires an entity or map object, got %s", entity.Kind)
	}

	fields := entityFields(entity)
	current, ok := fields[field]
	if !ok || current.Kind != value.KindString || current.Str != t.From {
		actual := "<missing>"
		if ok {
			actual = current.String()
		}
		return value.Null, ports.Event{}, aroerr.Withf(aroerr.KindStateTransitionRejected,
			map[string]any{
				"expectedFrom": t.From, "expectedTo": t.To, "actualState": actual,
				"fieldName": field,
			}, "state transition %s_to_%s rejected: field %q is %q, not %q", t.From, t.To, field, actual, t.From)
	}

	cloned := entity.Clone()
	clonedFields := entityFields(cloned)
	clonedFields[field] = value.String(t.To)
	cloned = rewrap(cloned, clonedFields)

	var entityID string
	if id, ok := clonedFields["id"]; ok && id.Kind == value.KindString {
		entityID = id.Str
	}

	ev := ports.Event{
		EventType: "state.transition",
		Payload: map[string]value.Value{
			"fieldName": value.String(field),
			"fromState": value.String(t.From),
			"toState":   value.String(t.To),
			"entityId":  value.String(entityID),
			"entity":    cloned,
		},
	}
	return cloned, ev, nil
}

func entityFields(v value.Value) map[string]value.Value {
	if v.Kind == value.KindEntity {
		return v.Entity.Fields
	}
	return v.Map
}

func rewrap(v value.Value, fields map[string]value.Value) value.Value {
	if v.Kind == value.KindEntity {
		return value.FromEntity(value.Entity{Fields: fields})
	}
	return value.Map(fields)
}

// Guard is a single "fieldPath:v1,v2,..." clause: OR across its values.
type Guard struct {
	FieldPath string
	Values    []string
}

// GuardSet is the AND-across-guards predicate parsed from a handler header
// suffix "<guard1;guard2;...>" (spec §4.6).
type GuardSet []Guard

// ParseGuards parses the unparsed raw guard string. A transition-style
// specifier with no ":" (e.g. "draft_to_placed") is not a guard set and
// yields an empty GuardSet, per spec §4.6.
func ParseGuards(raw string) GuardSet {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	var guards GuardSet
	for _, clause := range strings.Split(raw, ";") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		field, valuesRaw, ok := strings.Cut(clause, ":")
		if !ok {
			continue
		}
		var values []string
		for _, v := range strings.Split(valuesRaw, ",") {
			v = strings.TrimSpace(v)
			if v != "" {
				values = append(values, v)
			}
		}
		if field != "" && len(values) > 0 {
			guards = append(guards, Guard{FieldPath: strings.TrimSpace(field), Values: values})
		}
	}
	return guards
}

// AllMatch evaluates the GuardSet against payload (AND over guards, OR
// within each guard's values), case-insensitive string comparison over
// dotted field paths. An empty set always matches.
func (gs GuardSet) AllMatch(payload map[string]value.Value) bool {
	for _, g := range gs {
		fv, ok := lookupPath(payload, g.FieldPath)
		if !ok {
			return false
		}
		s := strings.ToLower(stringify(fv))
		matched := false
		for _, v := range g.Values {
			if strings.ToLower(v) == s {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func lookupPath(m map[string]value.Value, path string) (value.Value, bool) {
	parts := strings.Split(path, ".")
	cur := m
	for i, p := range parts {
		v, ok := cur[p]
		if !ok {
			return value.Null, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		switch v.Kind {
		case value.KindMap:
			cur = v.Map
		case value.KindEntity:
			cur = v.Entity.Fields
		default:
			return value.Null, false
		}
	}
	return value.Null, false
}

func stringify(v value.Value) string {
	if v.Kind == value.KindString {
		return v.Str
	}
	return v.String()
}

// HandlerPattern is a parsed "TypeName Handler<guards>" business-activity
// header (spec §4.4, §4.6).
type HandlerPattern struct {
	EventType string
	Guards    GuardSet
}

// ParseHandlerPattern recognizes the "TypeName Handler<guard1;guard2;...>"
// suffix of a business-activity string; ok is false if activity does not
// end in "Handler" (optionally followed by a "<...>" guard suffix).
func ParseHandlerPattern(activity string) (HandlerPattern, bool) {
	raw := strings.TrimSpace(activity)
	guardRaw := ""
	if idx := strings.IndexByte(raw, '<'); idx >= 0 && strings.HasSuffix(raw, ">") {
		guardRaw = raw[idx+1 : len(raw)-1]
		raw = strings.TrimSpace(raw[:idx])
	}
	const suffix = "Handler"
	if !strings.HasSuffix(raw, suffix) {
		return HandlerPattern{}, false
	}
	eventType := strings.TrimSpace(strings.TrimSuffix(raw, suffix))
	if eventType == "" {
		return HandlerPattern{}, false
	}
	return HandlerPattern{EventType: eventType, Guards: ParseGuards(guardRaw)}, true
}

// Matches reports whether an emitted event satisfies this handler pattern:
// its type matches (case-insensitive) and its payload passes every guard.
func (p HandlerPattern) Matches(ev ports.Event) bool {
	if !strings.EqualFold(p.EventType, ev.EventType) {
		return false
	}
	return p.Guards.AllMatch(ev.Payload)
}

// EmitTransition is a convenience used by the Accept action to publish the
// event produced by Apply through an EventBus.
func EmitTransition(ctx context.Context, bus ports.EventBus, ev ports.Event) error {
	if bus == nil {
		return nil
	}
	return bus.Emit(ctx, ev)
}
