package actions

import (
	"sort"
	"strings"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/value"
)

// SortAction implements the Sort verb (spec §4.2): ascending/descending,
// stable, with a total ordering for Int/Double/String and an error for
// heterogeneous lists.
type SortAction struct{}

func (SortAction) Role() program.Role { return program.RoleOwn }
func (SortAction) Verbs() []string    { return []string{"sort"} }
func (SortAction) ValidPrepositions() []program.Preposition {
	return []program.Preposition{program.PrepFrom, program.PrepWith}
}
func (SortAction) BindsResult() bool { return true }

func (a SortAction) Execute(actx *registry.ActionContext) (value.Value, error) {
	if actx.Object.Kind != value.KindList {
		return value.Null, aroerr.New(aroerr.KindTypeMismatch, "sort: object is not a list")
	}
	direction := strings.ToLower(actx.Statement.Result.Specifier(0))
	descending := direction == "descending" || direction == "desc"

	out := make([]value.Value, len(actx.Object.List))
	copy(out, actx.Object.List)

	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		if sortErr != nil {
			return false
		}
		cmp, err := sortCompare(out[i], out[j])
		if err != nil {
			sortErr = err
			return false
		}
		if descending {
			return cmp > 0
		}
		return cmp < 0
	})
	if sortErr != nil {
		return value.Null, sortErr
	}
	return value.List(out), nil
}

func sortCompare(a, b value.Value) (int, error) {
	if a.Kind != b.Kind {
		return 0, aroerr.Withf(aroerr.KindTypeMismatch, map[string]any{"left": a.Kind.String(), "right": b.Kind.String()},
			"sort: heterogeneous list (%s vs %s)", a.Kind, b.Kind)
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
		return 0, aroerr.New(aroerr.KindTypeMismatch, "sort: unorderable kind %s", a.Kind)
	}
}
