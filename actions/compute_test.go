package actions

import (
	"context"
	"testing"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/registry"
	"github.com/arolang/aro/rtcontext"
	"github.com/arolang/aro/telemetry"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActionContext(obj value.Value, exists bool, stmt program.StatementDescriptor) *registry.ActionContext {
	rc := rtcontext.New(rtcontext.Options{FeatureSetName: "Test", BusinessActivity: "Test Activity"})
	return &registry.ActionContext{
		Context:      context.Background(),
		RuntimeCtx:   rc,
		Statement:    stmt,
		Object:       obj,
		ObjectExists: exists,
		Deps:         registry.Deps{Telemetry: telemetry.Noop()},
	}
}

func TestComputeLength(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compute",
		Result: program.ResultDescriptor{Base: "len", Specifiers: []string{"length"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "text"},
	}
	actx := newActionContext(value.String("Hello World"), true, stmt)

	v, err := (ComputeAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, int64(11), v.Int)
}

func TestComputeLegacyMode(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compute",
		Result: program.ResultDescriptor{Base: "uppercase"},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "text"},
	}
	actx := newActionContext(value.String("hi"), true, stmt)

	v, err := (ComputeAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "HI", v.Str)
}

func TestComputeHashIsDeterministic(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compute",
		Result: program.ResultDescriptor{Base: "h", Specifiers: []string{"hash"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "text"},
	}
	actx1 := newActionContext(value.String("same"), true, stmt)
	actx2 := newActionContext(value.String("same"), true, stmt)

	v1, err := (ComputeAction{}).Execute(actx1)
	require.NoError(t, err)
	v2, err := (ComputeAction{}).Execute(actx2)
	require.NoError(t, err)
	assert.Equal(t, v1.Str, v2.Str)
	assert.Len(t, v1.Str, 64)
}

func TestComputeCountOnList(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "compute",
		Result: program.ResultDescriptor{Base: "n", Specifiers: []string{"count"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "items"},
	}
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})
	actx := newActionContext(list, true, stmt)

	v, err := (ComputeAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int)
}
