package rtcontext

import (
	"testing"

	"github.com/arolang/aro/aroerr"
	"github.com/arolang/aro/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindIsWriteOnce(t *testing.T) {
	c := New(Options{FeatureSetName: "fs"})
	require.NoError(t, c.Bind("x", value.Int(1)))

	err := c.Bind("x", value.Int(2))
	require.Error(t, err)
	assert.True(t, aroerr.Is(err, aroerr.KindImmutableRebind))

	c.Unbind("x")
	assert.NoError(t, c.Bind("x", value.Int(3)))
	v, ok := c.Resolve("x")
	require.True(t, ok)
	assert.True(t, value.Equal(v, value.Int(3)))
}

func TestFrameworkVariablesAreRebindable(t *testing.T) {
	c := New(Options{FeatureSetName: "fs"})
	require.NoError(t, c.Bind("_loopIndex", value.Int(0)))
	require.NoError(t, c.Bind("_loopIndex", value.Int(1)))
	v, _ := c.Resolve("_loopIndex")
	assert.True(t, value.Equal(v, value.Int(1)))
}

func TestChildNeverMutatesParent(t *testing.T) {
	parent := New(Options{FeatureSetName: "fs"})
	require.NoError(t, parent.Bind("shared", value.String("parent-value")))

	child := parent.CreateChild("fs-child")
	require.NoError(t, child.Bind("shared", value.String("child-value")))

	v, ok := parent.Resolve("shared")
	require.True(t, ok)
	assert.Equal(t, "parent-value", v.Str)

	cv, ok := child.Resolve("shared")
	require.True(t, ok)
	assert.Equal(t, "child-value", cv.Str)
}

func TestChildResolvesParentBindings(t *testing.T) {
	parent := New(Options{FeatureSetName: "fs"})
	require.NoError(t, parent.Bind("inherited", value.Int(42)))

	child := parent.CreateChild("fs-child")
	v, ok := child.Resolve("inherited")
	require.True(t, ok)
	assert.Equal(t, int64(42), v.Int)
}

func TestLoopVariableRebindAcrossIterations(t *testing.T) {
	parent := New(Options{FeatureSetName: "fs"})
	for i := 0; i < 3; i++ {
		child := parent.CreateChild("fs-iter")
		require.NoError(t, child.Bind("item", value.Int(int64(i))))
	}
}

func TestUndefinedVariable(t *testing.T) {
	c := New(Options{FeatureSetName: "fs"})
	_, err := c.MustResolve("missing")
	require.Error(t, err)
	assert.True(t, aroerr.Is(err, aroerr.KindUndefinedVariable))
}

type stubService struct{ name string }

func TestServiceLookupByType(t *testing.T) {
	c := New(Options{FeatureSetName: "fs"})
	Register[*stubService](c, &stubService{name: "svc"})

	child := c.CreateChild("fs-child")
	svc, ok := Service[*stubService](child)
	require.True(t, ok)
	assert.Equal(t, "svc", svc.name)
}

func TestResponseDefaultOK(t *testing.T) {
	r := DefaultOK()
	assert.Equal(t, "OK", r.Status)
	assert.NotNil(t, r.Data)
}
