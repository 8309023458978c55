package actions

import (
	"testing"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompareEquals(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compare",
		Result: program.ResultDescriptor{Base: "r", Specifiers: []string{"equals", "expected"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepAgainst, Base: "actual"},
	}
	actx := newActionContext(value.String("x"), true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("expected", value.String("x")))

	v, err := (CompareAction{}).Execute(actx)
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestCompareContains(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compare",
		Result: program.ResultDescriptor{Base: "r", Specifiers: []string{"contains", "needle"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepAgainst, Base: "haystack"},
	}
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	actx := newActionContext(list, true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("needle", value.Int(2)))

	v, err := (CompareAction{}).Execute(actx)
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestCompareGreaterThan(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compare",
		Result: program.ResultDescriptor{Base: "r", Specifiers: []string{"greaterthan", "threshold"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepAgainst, Base: "value"},
	}
	actx := newActionContext(value.Int(10), true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("threshold", value.Int(5)))

	v, err := (CompareAction{}).Execute(actx)
	require.NoError(t, err)
	assert.True(t, v.Bool)
}

func TestCompareLessThanFalse(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compare",
		Result: program.ResultDescriptor{Base: "r", Specifiers: []string{"lessthan", "threshold"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepAgainst, Base: "value"},
	}
	actx := newActionContext(value.Int(10), true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("threshold", value.Int(5)))

	v, err := (CompareAction{}).Execute(actx)
	require.NoError(t, err)
	assert.False(t, v.Bool)
}

func TestCompareMismatchedKindsErrors(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compare",
		Result: program.ResultDescriptor{Base: "r", Specifiers: []string{"greaterthan", "threshold"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepAgainst, Base: "value"},
	}
	actx := newActionContext(value.Int(10), true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("threshold", value.String("five")))

	_, err := (CompareAction{}).Execute(actx)
	assert.Error(t, err)
}
