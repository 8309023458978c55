// Package registry implements the Action Registry and dispatch algorithm of
// spec.md §4.2: a verb table plus the preposition/role validation and
// object-routing steps shared by every action. The registry itself is an
// engine-scoped struct configured with functional options — the same shape
// as the teacher's runtime/registry.Manager (WithCache/WithLogger/...) —
// rather than a process-wide singleton, so tests can build isolated
// registries (spec.md §9 design note on singletons).
package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/telemetry"
	"github.com/arolang/aro/value"
)

// ActionContext is the argument passed to Action.Execute. Object holds the
// already-routed object value (resolved from a variable, a system object, or
// a repository per the dispatch algorithm's step 4); ObjectExists is false
// when resolution found nothing (some actions, like Validate's "required"
// rule, care about that distinction).
type ActionContext struct {
	Context      context.Context
	RuntimeCtx   *rtcontext.Context
	Statement    program.StatementDescriptor
	Object       value.Value
	ObjectExists bool

	Deps Deps
}

// Deps bundles the stateful subsystems actions may need. Not every action
// uses every field; Deps is a dependency-injection seam, not a God object —
// actions type-assert/ignore what they don't need.
type Deps struct {
	Repositories ports.RepositoryStore
	Globals      ports.GlobalStore
	Events       ports.EventBus
	SystemObjs   ports.SystemObjectRegistry
	Schemas      ports.SchemaRegistry
	Telemetry    telemetry.Bundle
}

// Action implements one verb family's behavior (spec §4.2).
type Action interface {
	// Role is the action's contract role (request/own/response/export).
	Role() program.Role
	// Verbs lists every lowercase alias this action answers to, canonical
	// verb first.
	Verbs() []string
	// ValidPrepositions lists the prepositions the dispatch algorithm will
	// accept for this action.
	ValidPrepositions() []program.Preposition
	// BindsResult reports whether a successful Execute's value should be
	// bound under the statement's result name (most request/own verbs do;
	// response/export verbs do not, per spec §4.2 step 6).
	BindsResult() bool
	// Execute runs the action and returns its result value or a typed
	// error from the aroerr taxonomy.
	Execute(actx *ActionContext) (value.Value, error)
}

// Registry is the engine-scoped verb table.
type Registry struct {
	mu      sync.RWMutex
	actions map[string]Action // keyed by lowercase verb alias
}

// Option configures a Registry at construction time.
type Option func(*Registry)

// New constructs an empty Registry. Callers typically follow with
// RegisterDefaults (actions package) to install the built-in verb table.
func New(opts ...Option) *Registry {
	r := &Registry{actions: make(map[string]Action)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs action under every verb alias it advertises, lowercased.
// The action registry is read-mostly (spec §5): Register should only be
// called during start-up, before any Dispatch call.
func (r *Registry) Register(a Action) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(a.Verbs()) == 0 {
		return fmt.Errorf("registry: action has no verbs")
	}
	for _, v := range a.Verbs() {
		key := strings.ToLower(v)
		r.actions[key] = a
	}
	return nil
}

// Lookup returns the action registered for verb (case-insensitive), or
// false if none is registered.
func (r *Registry) Lookup(verb string) (Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.actions[strings.ToLower(verb)]
	return a, ok
}

// ValidatePreposition checks S.object.preposition against the action's
// accepted set, returning InvalidPreposition with {received, expected} on
// mismatch (spec §4.2 step 2).
func ValidatePreposition(a Action, stmt program.StatementDescriptor) error {
	want := a.ValidPrepositions()
	for _, p := range want {
		if p == stmt.Object.Preposition {
			return nil
		}
	}
	expected := make([]string, len(want))
	for i, p := range want {
		expected[i] = string(p)
	}
	return aroerr.Withf(aroerr.KindInvalidPreposition,
		map[string]any{"received": string(stmt.Object.Preposition), "expected": expected},
		"verb %q does not accept preposition %q (expected one of %s)",
		stmt.Verb, stmt.Object.Preposition, strings.Join(expected, ", "))
}

// Dispatch runs steps 1-3 of the spec §4.2 algorithm (verb lookup,
// preposition validation, and an optional role contract check) and, if they
// pass, calls Execute. Object routing (step 4: system object / repository /
// variable resolution) is performed by the caller (the executor) before
// Dispatch is invoked, since it needs access to the full Deps bundle and the
// statement's already-resolved object value.
func (r *Registry) Dispatch(actx *ActionContext) (value.Value, error) {
	stmt := actx.Statement
	action, ok := r.Lookup(stmt.Verb)
	if !ok {
		return value.Null, aroerr.Withf(aroerr.KindUnknownAction,
			map[string]any{"verb": stmt.Verb}, "unknown action %q", stmt.Verb)
	}
	if err := ValidatePreposition(action, stmt); err != nil {
		return value.Null, err
	}
	if stmt.Role != "" && stmt.Role != action.Role() {
		return value.Null, aroerr.Withf(aroerr.KindUnknownAction,
			map[string]any{"verb": stmt.Verb, "declaredRole": stmt.Role, "actionRole": action.Role()},
			"verb %q has role %q but statement declares role %q", stmt.Verb, action.Role(), stmt.Role)
	}
	return action.Execute(actx)
}

// BindsResult reports whether the verb's result should be bound into the
// context, looking the verb up first. Returns false for unknown verbs (the
// executor will have already failed dispatch by then).
func (r *Registry) BindsResult(verb string) bool {
	a, ok := r.Lookup(verb)
	return ok && a.BindsResult()
}
