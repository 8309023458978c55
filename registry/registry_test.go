package registry

import (
	"testing"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/program"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAction struct {
	role   program.Role
	verbs  []string
	preps  []program.Preposition
	binds  bool
	result value.Value
	err    error
}

func (f *fakeAction) Role() program.Role                          { return f.role }
func (f *fakeAction) Verbs() []string                              { return f.verbs }
func (f *fakeAction) ValidPrepositions() []program.Preposition     { return f.preps }
func (f *fakeAction) BindsResult() bool                            { return f.binds }
func (f *fakeAction) Execute(actx *ActionContext) (value.Value, error) {
	if f.err != nil {
		return value.Null, f.err
	}
	return f.result, nil
}

func TestRegisterAndLookupCaseInsensitive(t *testing.T) {
	r := New()
	a := &fakeAction{role: program.RoleOwn, verbs: []string{"Compute"}, preps: []program.Preposition{program.PrepFrom}}
	require.NoError(t, r.Register(a))

	got, ok := r.Lookup("compute")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = r.Lookup("missing")
	assert.False(t, ok)
}

func TestDispatchUnknownVerb(t *testing.T) {
	r := New()
	actx := &ActionContext{Statement: program.StatementDescriptor{Verb: "frobnicate"}}
	_, err := r.Dispatch(actx)
	require.Error(t, err)
	assert.True(t, aroerr.Is(err, aroerr.KindUnknownAction))
}

func TestDispatchInvalidPreposition(t *testing.T) {
	r := New()
	a := &fakeAction{role: program.RoleOwn, verbs: []string{"compute"}, preps: []program.Preposition{program.PrepFrom}}
	require.NoError(t, r.Register(a))

	actx := &ActionContext{Statement: program.StatementDescriptor{
		Verb:   "compute",
		Object: program.ObjectDescriptor{Preposition: program.PrepTo},
	}}
	_, err := r.Dispatch(actx)
	require.Error(t, err)
	assert.True(t, aroerr.Is(err, aroerr.KindInvalidPreposition))
}

func TestDispatchSuccess(t *testing.T) {
	r := New()
	a := &fakeAction{
		role: program.RoleOwn, verbs: []string{"compute"},
		preps: []program.Preposition{program.PrepFrom}, binds: true,
		result: value.Int(7),
	}
	require.NoError(t, r.Register(a))

	actx := &ActionContext{Statement: program.StatementDescriptor{
		Verb:   "compute",
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom},
	}}
	v, err := r.Dispatch(actx)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Int)
	assert.True(t, r.BindsResult("compute"))
}

func TestDispatchRoleMismatch(t *testing.T) {
	r := New()
	a := &fakeAction{role: program.RoleOwn, verbs: []string{"compute"}, preps: []program.Preposition{program.PrepFrom}}
	require.NoError(t, r.Register(a))

	actx := &ActionContext{Statement: program.StatementDescriptor{
		Verb:   "compute",
		Role:   program.RoleResponse,
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom},
	}}
	_, err := r.Dispatch(actx)
	require.Error(t, err)
}
