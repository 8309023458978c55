package actions

import (
	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/value"
)

// resolveResult looks up the statement's result base in the runtime context;
// response/export-role verbs write/publish this value rather than binding
// it back (spec §4.2 step 6: "response/export verbs do not" bind a result).
func resolveResult(actx *registry.ActionContext) value.Value {
	if v, ok := actx.RuntimeCtx.Resolve(actx.Statement.Result.Base); ok {
		return v
	}
	return actx.Object
}

func lookupSystemObject(actx *registry.ActionContext) (ports.SystemObject, error) {
	if actx.Deps.SystemObjs == nil {
		return nil, rtcontext.RequireServiceErr("system object registry")
	}
	factory, ok := actx.Deps.SystemObjs.Lookup(actx.Statement.Object.Base)
	if !ok {
		return nil, aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"object": actx.Statement.Object.Base},
			"no system object registered as %q", actx.Statement.Object.Base)
	}
	return factory(actx.Statement.Object.Specifiers)
}

// WriteAction implements the response-role Write verb: writes the resolved
// result value to the statement's object system object (spec §4.9).
type WriteAction struct{}

func (WriteAction) Role() program.Role { return program.RoleResponse }
func (WriteAction) Verbs() []string    { return []string{"write"} }
func (WriteAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepInto}
}
func (WriteAction) BindsResult() bool { return false }

func (a WriteAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	obj, err := lookupSystemObject(actx)
	if err != nil {
		return value.Null, err
	}
	payload := resolveResult(actx)
	if err := obj.Write(actx.Context, payload); err != nil {
		return value.Null, err
	}
	return payload, nil
}

// AppendAction implements the response-role Append verb: reads the sink's
// current content (when the capability allows it) and, when that content is
// a list, adds the resolved result as a new element and writes the list
// back. Content of any other kind, or a failed read, is not combined: the
// result alone is written, replacing it. Sinks that cannot be read
// (console, stderr) simply write, matching append-to-stream semantics.
type AppendAction struct{}

func (AppendAction) Role() program.Role { return program.RoleResponse }
func (AppendAction) Verbs() []string    { return []string{"append"} }
func (AppendAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepInto}
}
func (AppendAction) BindsResult() bool { return false }

func (a AppendAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	obj, err := lookupSystemObject(actx)
	if err != nil {
		return value.Null, err
	}
	payload := resolveResult(actx)

	if obj.Capabilities().CanRead() {
		existing, readErr := obj.Read(actx.Context, "")
		if readErr == nil && existing.Kind == value.KindList {
			combined := append(append([]value.Value{}, existing.List...), payload)
			payload = value.List(combined)
		}
	}
	if err := obj.Write(actx.Context, payload); err != nil {
		return value.Null, err
	}
	return payload, nil
}

// LogAction implements Log/Print/Output/Debug/Throw: writes the resolved
// result to the console system object, routing the throw verb to stderr
// (spec §4.9's console "error" qualifier); the other verbs go to stdout.
type LogAction struct{}

func (LogAction) Role() program.Role { return program.RoleResponse }
func (LogAction) Verbs() []string    { return []string{"log", "print", "output", "debug", "throw"} }
func (LogAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepFor, program.PrepWith}
}
func (LogAction) BindsResult() bool { return false }

func (a LogAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	payload := resolveResult(actx)
	if actx.Deps.Telemetry.Logger != nil {
		actx.Deps.Telemetry.Logger.Info(actx.Context, payload.String(),
			"featureSet", actx.RuntimeCtx.FeatureSetName(), "activity", actx.RuntimeCtx.BusinessActivity())
	}
	if actx.Deps.SystemObjs == nil {
		return payload, nil
	}
	factory, ok := actx.Deps.SystemObjs.Lookup("console")
	if !ok {
		return payload, nil
	}
	qualifier := []string{}
	if actx.Statement.Verb == "throw" {
		qualifier = []string{"error"}
	}
	obj, err := factory(qualifier)
	if err != nil {
		return value.Null, err
	}
	if err := obj.Write(actx.Context, payload); err != nil {
		return value.Null, err
	}
	return payload, nil
}

// ReturnAction implements Return/Respond: populates the context's response
// with {status, reason?, data} and halts the feature set (spec §4.3 step 4).
// The executor checks RuntimeCtx.GetResponse after each statement to decide
// whether to stop.
type ReturnAction struct{}

func (ReturnAction) Role() program.Role { return program.RoleResponse }
func (ReturnAction) Verbs() []string    { return []string{"return", "respond"} }
func (ReturnAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepWith, program.PrepFor, program.PrepTo}
}
func (ReturnAction) BindsResult() bool { return false }

func (a ReturnAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	status := actx.Statement.Result.Specifier(0)
	if status == "" {
		status = "OK"
	}
	data := toFieldMap(resolveResult(actx))
	actx.RuntimeCtx.SetResponse(rtcontext.Response{Status: status, Data: data})
	return value.Null, nil
}

// PublishAction implements the export-role Publish verb: hands the resolved
// result to the global symbol store tagged with this feature set and
// activity (spec §4.5).
type PublishAction struct{}

func (PublishAction) Role() program.Role { return program.RoleExport }
func (PublishAction) Verbs() []string    { return []string{"publish"} }
func (PublishAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepFor, program.PrepInto}
}
func (PublishAction) BindsResult() bool { return false }

func (a PublishAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if actx.Deps.Globals == nil {
		return value.Null, rtcontext.RequireServiceErr("global symbol store")
	}
	payload := resolveResult(actx)
	name := actx.Statement.Result.Base
	actx.Deps.Globals.Publish(name, payload, actx.RuntimeCtx.FeatureSetName(), actx.RuntimeCtx.BusinessActivity())
	return value.Null, nil
}

// BroadcastAction implements the response-role Broadcast verb: emits an
// event through the event bus (spec §4.4). The result base names the event
// type; the resolved object supplies the payload map.
type BroadcastAction struct{}

func (BroadcastAction) Role() program.Role { return program.RoleResponse }
func (BroadcastAction) Verbs() []string    { return []string{"broadcast"} }
func (BroadcastAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepWith, program.PrepFor, program.PrepTo}
}
func (BroadcastAction) BindsResult() bool { return false }

func (a BroadcastAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if actx.Deps.Events == nil {
		return value.Null, rtcontext.RequireServiceErr("event bus")
	}
	eventType := actx.Statement.Result.FullName()
	payload := toFieldMap(resolveResult(actx))
	ev := ports.Event{EventType: eventType, Payload: payload}
	if err := actx.Deps.Events.Emit(actx.Context, ev); err != nil {
		return value.Null, err
	}
	return value.Null, nil
}

// IncludeAction implements Include/Embed/Insert: pulls a framework-wide or
// same-activity symbol from the global store into the current scope (the
// consuming counterpart of Publish, spec §4.5).
type IncludeAction struct{}

func (IncludeAction) Role() program.Role { return program.RoleOwn }
func (IncludeAction) Verbs() []string    { return []string{"include", "embed", "insert"} }
func (IncludeAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepInto, program.PrepWith}
}
func (IncludeAction) BindsResult() bool { return true }

func (a IncludeAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if actx.Deps.Globals == nil {
		return value.Null, rtcontext.RequireServiceErr("global symbol store")
	}
	name := actx.Statement.Object.Base
	v, ok := actx.Deps.Globals.Resolve(name, actx.RuntimeCtx.BusinessActivity())
	if !ok {
		return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"name": name},
			"include: symbol %q not resolvable in activity %q", name, actx.RuntimeCtx.BusinessActivity())
	}
	return v, nil
}
