package actions

import (
	"testing"

	"github.com/arolang/aro/program"
	"github.com/arolang/aro/ports"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPlainPassThrough(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x"},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "y"},
	}
	actx := newActionContext(value.Int(5), true, stmt)

	v, err := (ExtractAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), v.Int)
}

func TestExtractNestedProperty(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"profile.name"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "user"},
	}
	obj := value.Map(map[string]value.Value{
		"profile": value.Map(map[string]value.Value{"name": value.String("Ada")}),
	})
	actx := newActionContext(obj, true, stmt)

	v, err := (ExtractAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.Str)
}

func TestExtractFirstLastOnList(t *testing.T) {
	list := value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3)})

	stmtFirst := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"first"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "items"},
	}
	v, err := (ExtractAction{}).Execute(newActionContext(list, true, stmtFirst))
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Int)

	stmtLast := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"last"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "items"},
	}
	v, err = (ExtractAction{}).Execute(newActionContext(list, true, stmtLast))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v.Int)
}

func TestExtractNumericIndex(t *testing.T) {
	list := value.List([]value.Value{value.String("a"), value.String("b"), value.String("c")})
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"1"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "items"},
	}
	v, err := (ExtractAction{}).Execute(newActionContext(list, true, stmt))
	require.NoError(t, err)
	assert.Equal(t, "b", v.Str)
}

func TestExtractUndefinedObjectErrors(t *testing.T) {
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x"},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "missing"},
	}
	_, err := (ExtractAction{}).Execute(newActionContext(value.Null, false, stmt))
	assert.Error(t, err)
}

type fakeSchemaRegistry struct {
	schemas map[string][]byte
}

func (f *fakeSchemaRegistry) Lookup(name string) ([]byte, bool) {
	s, ok := f.schemas[name]
	return s, ok
}

func TestExtractSchemaValidationPasses(t *testing.T) {
	schema := []byte(`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"UserProfile"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "payload"},
	}
	obj := value.Map(map[string]value.Value{"name": value.String("Ada")})
	actx := newActionContext(obj, true, stmt)
	actx.Deps.Schemas = &fakeSchemaRegistry{schemas: map[string][]byte{"UserProfile": schema}}

	v, err := (ExtractAction{}).Execute(actx)
	require.NoError(t, err)
	assert.Equal(t, "Ada", v.Map["name"].Str)
}

func TestExtractSchemaValidationFails(t *testing.T) {
	schema := []byte(`{"type":"object","required":["name"],"properties":{"name":{"type":"string"}}}`)
	stmt := program.StatementDescriptor{
		Verb:   "extract",
		Result: program.ResultDescriptor{Base: "x", Specifiers: []string{"UserProfile"}},
		Object: program.ObjectDescriptor{Preposition: program.PrepFrom, Base: "payload"},
	}
	obj := value.Map(map[string]value.Value{"age": value.Int(10)})
	actx := newActionContext(obj, true, stmt)
	actx.Deps.Schemas = &fakeSchemaRegistry{schemas: map[string][]byte{"UserProfile": schema}}

	_, err := (ExtractAction{}).Execute(actx)
	require.Error(t, err)
}

var _ ports.SchemaRegistry = (*fakeSchemaRegistry)(nil)
