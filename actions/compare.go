package actions

import (
	"strings"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// CompareAction implements the Compare/Match verb family: the result's first
// specifier selects the operation ("equals"/"greaterthan"/"lessthan"/
// "contains") and its second names the operand the object is compared
// against, binding a Bool.
type CompareAction struct{}

func (CompareAction) Role() program.Role { return program.RoleOwn }
func (CompareAction) Verbs() []string    { return []string{"compare", "match"} }
func (CompareAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepAgainst, program.PrepWith, program.PrepFor}
}
func (CompareAction) BindsResult() bool { return true }

func (a CompareAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	op := strings.ToLower(actx.Statement.Result.Specifier(0))
	operandName := actx.Statement.Result.Specifier(1)
	var operand value.Value
	if operandName != "" {
		if v, ok := actx.RuntimeCtx.Resolve(operandName); ok {
			operand = v
		}
	}

	switch op {
	case "", "equals", "equal":
		return value.Bool(value.Equal(actx.Object, operand)), nil
	case "contains":
		if actx.Object.Kind != value.KindList {
			return value.Null, aroerr.New(aroerr.KindTypeMismatch, "compare contains: object is not a list")
		}
		for _, e := range actx.Object.List {
			if value.Equal(e, operand) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil
	case "greaterthan", "greater":
		cmp, err := compareOrdered(actx.Object, operand)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(cmp > 0), nil
	case "lessthan", "less":
		cmp, err := compareOrdered(actx.Object, operand)
		if err != nil {
			return value.Null, err
		}
		return value.Bool(cmp < 0), nil
	default:
		return value.Null, aroerr.Withf(aroerr.KindTypeMismatch, map[string]any{"operation": op}, "compare: unknown operation %q", op)
	}
}

func compareOrdered(a, b value.Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, aroerr.New(aroerr.KindTypeMismatch, "compare: mismatched kinds %s vs %s", a.Kind, b.Kind)
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
		return strings.Compare(a.Str, b.Str), nil
	default:
		return 0, aroerr.New(aroerr.KindTypeMismatch, "compare: unorderable kind %s", a.Kind)
	}
}
