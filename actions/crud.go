package actions

import (
	"github.com/google/uuid"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// objectIsRepository reports whether the statement's object names a
// repository collection (spec §4.2 step 4, §4.7), so CRUD actions know
// whether to persist through registry.Deps.Repositories in addition to
// returning a value to bind.
func objectIsRepository(actx *registry.ActionContext) bool {
	return actx.Deps.Repositories != nil && actx.Deps.Repositories.IsRepositoryName(actx.Statement.Object.Base)
}

// CreateAction implements Create/Build/Construct (spec §4.2): a PascalCase
// result specifier generates a v4 id and wraps the value as an Entity; when
// the object names a repository, the entity is also persisted there.
type CreateAction struct{}

func (CreateAction) Role() program.Role { return program.RoleOwn }
func (CreateAction) Verbs() []string    { return []string{"create", "build", "construct"} }
func (CreateAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepTo, program.PrepInto, program.PrepWith}
}
func (CreateAction) BindsResult() bool { return true }

func (a CreateAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	out := actx.Object
	if isPascalCase(actx.Statement.Result.Specifier(0)) {
		fields := toFieldMap(out)
		if _, hasID := fields["id"]; !hasID {
			fields = cloneFields(fields)
			fields["id"] = value.String(uuid.NewString())
		}
		out = value.FromEntity(value.Entity{Fields: fields})
	}

	if objectIsRepository(actx) {
		if _, err := actx.Deps.Repositories.Store(actx.Context, actx.Statement.Object.Base, actx.RuntimeCtx.BusinessActivity(), out); err != nil {
			return value.Null, aroerr.Wrap(err, "create: persisting to repository")
		}
	}
	return out, nil
}

func toFieldMap(v value.Value) map[string]value.Value {
	switch v.Kind {
	case value.KindEntity:
		return v.Entity.Fields
	case value.KindMap:
		return v.Map
	default:
		return map[string]value.Value{"value": v}
	}
}

func cloneFields(m map[string]value.Value) map[string]value.Value {
	out := make(map[string]value.Value, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// UpdateAction implements Update/Modify/Change/Set: the result specifier
// names the field to overwrite in a map/entity (spec §4.2).
type UpdateAction struct{}

func (UpdateAction) Role() program.Role { return program.RoleOwn }
func (UpdateAction) Verbs() []string    { return []string{"update", "modify", "change", "set"} }
func (UpdateAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepWith, program.PrepTo, program.PrepInto, program.PrepFor}
}
func (UpdateAction) BindsResult() bool { return true }

func (a UpdateAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	field := actx.Statement.Result.Specifier(0)
	if field == "" {
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "update requires a field specifier")
	}
	newValue, ok := actx.RuntimeCtx.Resolve(actx.Statement.Result.Base)
	if !ok {
		newValue = actx.Object
	}

	fields := cloneFields(toFieldMap(actx.Object))
	fields[field] = newValue
	out := rewrapLike(actx.Object, fields)

	if objectIsRepository(actx) {
		if _, err := actx.Deps.Repositories.Store(actx.Context, actx.Statement.Object.Base, actx.RuntimeCtx.BusinessActivity(), out); err != nil {
			return value.Null, aroerr.Wrap(err, "update: persisting to repository")
		}
	}
	return out, nil
}

func rewrapLike(v value.Value, fields map[string]value.Value) value.Value {
	if v.Kind == value.KindEntity {
		return value.FromEntity(value.Entity{Fields: fields})
	}
	return value.Map(fields)
}

// DeleteAction implements Delete/Remove/Destroy/Clear.
type DeleteAction struct{}

func (DeleteAction) Role() program.Role { return program.RoleOwn }
func (DeleteAction) Verbs() []string    { return []string{"delete", "remove", "destroy", "clear"} }
func (DeleteAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepWith, program.PrepFor}
}
func (DeleteAction) BindsResult() bool { return true }

func (a DeleteAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if !objectIsRepository(actx) {
		return value.Null, nil
	}
	repo := actx.Statement.Object.Base
	activity := actx.RuntimeCtx.BusinessActivity()
	whereField := actx.Statement.Object.Specifier(0)
	var equals value.Value
	hasFilter := whereField != ""
	if hasFilter {
		if v, ok := actx.RuntimeCtx.Resolve(whereField); ok {
			equals = v
		}
	}
	removed, err := actx.Deps.Repositories.Delete(actx.Context, repo, activity, whereField, equals, hasFilter)
	if err != nil {
		return value.Null, aroerr.Wrap(err, "delete")
	}
	return value.List(removed), nil
}

// MergeAction implements Merge/Combine/Join/Concat: shallow-merges the
// operand named by the result's first specifier (or by the result base when
// there is no specifier) into the object (or concatenates two lists).
type MergeAction struct{}

func (MergeAction) Role() program.Role { return program.RoleOwn }
func (MergeAction) Verbs() []string    { return []string{"merge", "combine", "join", "concat"} }
func (MergeAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepWith, program.PrepFor, program.PrepInto}
}
func (MergeAction) BindsResult() bool { return true }

func (a MergeAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	operandName := actx.Statement.Result.Specifier(0)
	if operandName == "" {
		operandName = actx.Statement.Result.Base
	}
	var operand value.Value
	if operandName != "" {
		operand, _ = actx.RuntimeCtx.Resolve(operandName)
	}

	if actx.Object.Kind == value.KindList && operand.Kind == value.KindList {
		out := make([]value.Value, 0, len(actx.Object.List)+len(operand.List))
		out = append(out, actx.Object.List...)
		out = append(out, operand.List...)
		return value.List(out), nil
	}

	merged := cloneFields(toFieldMap(actx.Object))
	for k, v := range toFieldMap(operand) {
		merged[k] = v
	}
	return rewrapLike(actx.Object, merged), nil
}

// Retrieve's repository read is performed by the executor's object-routing
// step before Dispatch is invoked (registry.Dispatch doc comment): by the
// time ExtractAction.Execute (which "retrieve" is an alias of, spec §4.2)
// runs, actx.Object already holds the filtered record list.
