package cliparams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLongFlagWithSpaceValue(t *testing.T) {
	s := New()
	s.Parse([]string{"--name", "widget"})
	v, ok := s.Get("name")
	require.True(t, ok)
	assert.Equal(t, "widget", v.Str)
}

func TestParseLongFlagWithEquals(t *testing.T) {
	s := New()
	s.Parse([]string{"--count=3"})
	v, ok := s.Get("count")
	require.True(t, ok)
	assert.Equal(t, int64(3), v.Int)
}

func TestParseBareFlagIsTrue(t *testing.T) {
	s := New()
	s.Parse([]string{"--verbose"})
	v, ok := s.Get("verbose")
	require.True(t, ok)
	assert.True(t, v.Bool)
}

func TestParseShortFlagSplitting(t *testing.T) {
	s := New()
	s.Parse([]string{"-abc"})
	for _, f := range []string{"a", "b", "c"} {
		v, ok := s.Get(f)
		require.True(t, ok)
		assert.True(t, v.Bool)
	}
}

func TestParseCoercionOrder(t *testing.T) {
	s := New()
	s.Parse([]string{"--n=42", "--f=3.5", "--b=true", "--s=hello"})
	n, _ := s.Get("n")
	f, _ := s.Get("f")
	b, _ := s.Get("b")
	str, _ := s.Get("s")
	assert.Equal(t, int64(42), n.Int)
	assert.Equal(t, 3.5, f.Double)
	assert.Equal(t, true, b.Bool)
	assert.Equal(t, "hello", str.Str)
}

func TestParseSkipsPositionalArgs(t *testing.T) {
	s := New()
	s.Parse([]string{"positional", "--flag"})
	_, ok := s.Get("positional")
	assert.False(t, ok)
	v, ok := s.Get("flag")
	require.True(t, ok)
	assert.True(t, v.Bool)
}
