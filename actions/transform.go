package actions

import (
	"strings"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// TransformAction implements the Transform verb: a thin wrapper over
// value.Transform's Table T-1 type-coercion dispatch (spec §4.2).
type TransformAction struct{}

func (TransformAction) Role() program.Role { return program.RoleOwn }
func (TransformAction) Verbs() []string    { return []string{"transform"} }
func (TransformAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepTo, program.PrepFrom}
}
func (TransformAction) BindsResult() bool { return true }

func (a TransformAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	target := actx.Statement.Result.Specifier(0)
	if target == "" {
		target = actx.Statement.Result.Base
	}
	return value.Transform(actx.Object, strings.ToLower(target))
}
