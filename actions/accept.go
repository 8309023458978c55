package actions

import (
	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/statemachine"
	"github.com/arolang/aro/value"
)

// AcceptAction implements the Accept verb's state-transition algorithm
// (spec §4.6) by delegating to statemachine.ParseTransition/Apply, then
// re-binding the entity and emitting the state.transition event itself.
type AcceptAction struct{}

func (AcceptAction) Role() program.Role { return program.RoleOwn }
func (AcceptAction) Verbs() []string    { return []string{"accept"} }
func (AcceptAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepOn}
}
func (AcceptAction) BindsResult() bool { return true }

func (a AcceptAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	spec := actx.Statement.Result.Specifier(0)
	if spec == "" {
		spec = actx.Statement.Result.FullName()
	}
	transition, err := statemachine.ParseTransition(spec)
	if err != nil {
		return value.Null, err
	}

	field := actx.Statement.Object.Specifier(0)
	if field == "" {
		field = "status"
	}

	entityName := actx.Statement.Object.Base
	entity, ok := actx.RuntimeCtx.Resolve(entityName)
	if !ok {
		return value.Null, aroerr.Withf(aroerr.KindUndefinedVariable, map[string]any{"name": entityName},
			"undefined variable %q", entityName)
	}

	updated, ev, err := statemachine.Apply(entity, field, transition)
	if err != nil {
		return value.Null, err
	}

	actx.RuntimeCtx.Unbind(entityName)
	if bindErr := actx.RuntimeCtx.Bind(entityName, updated); bindErr != nil {
		return value.Null, bindErr
	}

	ev.Payload["objectName"] = value.String(entityName)
	if err := statemachine.EmitTransition(actx.Context, actx.Deps.Events, ev); err != nil {
		return value.Null, err
	}
	return updated, nil
}
