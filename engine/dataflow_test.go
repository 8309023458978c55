package engine

import (
	"testing"

	"github.com/arolang/aro/program"
	"github.com/stretchr/testify/assert"
)

func stmt(verb, resultBase, objectBase string) program.StatementDescriptor {
	return program.StatementDescriptor{
		Verb:   verb,
		Result: program.ResultDescriptor{Base: resultBase},
		Object: program.ObjectDescriptor{Base: objectBase},
	}
}

func TestFootprintOfCapturesReadsAndWrites(t *testing.T) {
	fp := FootprintOf(stmt("compute", "len", "text"))
	assert.True(t, fp.Reads["text"])
	assert.True(t, fp.Writes["len"])
}

func TestIndependentStatementsDoNotIntersect(t *testing.T) {
	a := FootprintOf(stmt("compute", "len", "text"))
	b := FootprintOf(stmt("compute", "count", "items"))
	assert.True(t, a.Independent(b))
}

func TestDependentStatementsShareWriteAndRead(t *testing.T) {
	a := FootprintOf(stmt("compute", "len", "text"))
	b := FootprintOf(stmt("compute", "upper", "len"))
	assert.False(t, a.Independent(b), "b reads what a writes")
}

func TestWindowGroupsIndependentAdjacentStatements(t *testing.T) {
	stmts := []program.StatementDescriptor{
		stmt("compute", "len", "text"),
		stmt("compute", "count", "items"),
		stmt("compute", "upper", "len"),
	}
	windows := Window(stmts)
	require := assert.New(t)
	require.Len(windows, 2)
	require.Len(windows[0], 2)
	require.Len(windows[1], 1)
}

func TestWindowIsolatesObservableVerbs(t *testing.T) {
	stmts := []program.StatementDescriptor{
		stmt("compute", "len", "text"),
		stmt("log", "", "len"),
		stmt("compute", "count", "items"),
	}
	windows := Window(stmts)
	require := assert.New(t)
	require.Len(windows, 3)
	require.Equal("log", windows[1][0].Verb)
}
