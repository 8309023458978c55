package actions

import (
	"testing"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/repository"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateGeneratesIDForPascalCaseSpecifier(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "create",
		Result: program.ResultDescriptor{Base: "user", Specifiers: []string{"User"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "input"},
	}
	obj := value.Map(map[string]value.Value{"name": value.String("Ada")})
	actx := newActionContext(obj, true, stmt)

	v, err := (CreateAction{}).Execute(actx)
	require.NoError(t, err)
	require.Equal(t, value.KindEntity, v.Kind)
	assert.NotEmpty(t, v.Entity.Fields["id"].Str)
	assert.Equal(t, "Ada", v.Entity.Fields["name"].Str)
}

func TestCreatePersistsToRepository(t *testing.T) {
	repo := repository.New()
	stmt := program.StatementDescriptor{
		Verb:   "create",
		Result: program.ResultDescriptor{Base: "user", Specifiers: []string{"User"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepInto, Base: "user-repository"},
	}
	obj := value.Map(map[string]value.Value{"name": value.String("Grace")})
	actx := newActionContext(obj, true, stmt)
	actx.Deps.Repositories = repo

	_, err := (CreateAction{}).Execute(actx)
	require.NoError(t, err)

	found, err := repo.Retrieve(actx.Context, "user-repository", "Test Activity", "", value.Null, false)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Grace", found[0].Entity.Fields["name"].Str)
}

func TestUpdateOverwritesField(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "update",
		Result: program.ResultDescriptor{Base: "newName", Specifiers: []string{"name"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepWith, Base: "user"},
	}
	obj := value.Map(map[string]value.Value{"name": value.String("Ada")})
	actx := newActionContext(obj, true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("newName", value.String("Lin")))

	v, err := (UpdateAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "Lin", v.Map["name"].Str)
}

func TestUpdateRequiresFieldSpecifier(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "update",
		Result: program.ResultDescriptor{Base: "newName"},
		Object: program.ObjectDescriptor{Preposition: program.PrepWith, Base: "user"},
	}
	actx := newActionContext(value.Map(map[string]value.Value{}), true, stmt)

	_, err := (UpdateAction{}).Execute(actx)
	assert.Error(t, err)
}

func TestDeleteWithFilterRemovesMatching(t *testing.T) {
	repo := repository.New()
	ctx := newActionContext(value.Null, false, program.StatementDescriptor{}).Context
	_, err := repo.Store(ctx, "user-repository", "Test Activity", value.FromEntity(value.Entity{
		Fields: map[string]value.Value{"id": value.String("1"), "status": value.String("active")},
	}))
	require.NoError(t, err)
	_, err = repo.Store(ctx, "user-repository", "Test Activity", value.FromEntity(value.Entity{
		Fields: map[string]value.Value{"id": value.String("2"), "status": value.String("inactive")},
	}))
	require.NoError(t, err)

	stmt := program.StatementDescriptor{
		Verb:   "delete",
		Result: program.ResultDescriptor{Base: "removed"},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "user-repository", Specifiers: []string{"status"}},
	}
	actx := newActionContext(value.Null, false, stmt)
	actx.Deps.Repositories = repo
	require.NoError(t, actx.RuntimeCtx.Bind("status", value.String("inactive")))

	v, err := (DeleteAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Len(t, v.List, 1)
	assert.Equal(t, "2", v.List[0].Entity.Fields["id"].Str)
}

func TestDeleteNonRepositoryIsNoop(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "delete",
		Result: program.ResultDescriptor{Base: "removed"},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "items"},
	}
	actx := newActionContext(value.Null, false, stmt)

	v, err := (DeleteAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, v.Kind)
}

func TestMergeConcatenatesLists(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "merge",
		Result: program.ResultDescriptor{Base: "other"},
		Object: program.ObjectDescriptor{Preposition: program.PrepWith, Base: "items"},
	}
	obj := value.List([]value.Value{value.Int(1), value.Int(2)})
	actx := newActionContext(obj, true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("other", value.List([]value.Value{value.Int(3)})))

	v, err := (MergeAction{}).Execute(actx)
	require.NoError(t, err)
	require.Len(t, v.List, 3)
	assert.Equal(t, int64(3), v.List[2].Int)
}

func TestMergeShallowMergesMaps(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "merge",
		Result: program.ResultDescriptor{Base: "patch"},
		Object: program.ObjectDescriptor{Preposition: program.PrepWith, Base: "user"},
	}
	obj := value.Map(map[string]value.Value{"name": value.String("Ada"), "age": value.Int(30)})
	actx := newActionContext(obj, true, stmt)
	require.NoError(t, actx.RuntimeCtx.Bind("patch", value.Map(map[string]value.Value{"age": value.Int(31)})))

	v, err := (MergeAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.Map["name"].Str)
	assert.Equal(t, int64(31), v.Map["age"].Int)
}
