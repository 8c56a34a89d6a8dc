package alias

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeReadable(t *testing.T) {
	require.Equal(t, "project__acme_demo", Make("project", "acme", "demo"))
	require.Equal(t, "artifactType__model", Make("artifactType", "model"))
	require.Equal(t, "artifact__v3", Make("artifact", "v3"))
}

func TestMakeDeterministicAndLegal(t *testing.T) {
	inputs := [][]string{
		{"acme", "demo"},
		{"my-team", "proj.1"},
		{"名前", ""},
		{"a b", "c{d}", "query { x }"},
		{"", ""},
		{"0day"},
	}
	for _, parts := range inputs {
		a := Make("project", parts...)
		b := Make("project", parts...)
		require.Equal(t, a, b)
		require.Truef(t, Valid(a), "alias %q for %q is not a legal name", a, parts)
	}
}

func TestMakeDistinct(t *testing.T) {
	pairs := [][2][]string{
		{{"a_b", "c"}, {"a", "b_c"}},
		{{"a-b"}, {"a.b"}},
		{{"a", "b", "hx"}, {"a_b"}},
		{{""}, {"_"}},
		{{"ab", ""}, {"a", "b"}},
		{{"v1"}, {"v2"}},
	}
	for _, p := range pairs {
		require.NotEqualf(t, Make("artifact", p[0]...), Make("artifact", p[1]...), "%q vs %q", p[0], p[1])
	}
}

func TestMakePrefixEdgeCases(t *testing.T) {
	require.True(t, Valid(Make("", "x")))
	require.True(t, Valid(Make("9lives", "x")))
	require.NotEqual(t, Make("run", "x"), Make("project", "x"))
}

func TestValid(t *testing.T) {
	require.True(t, Valid("_a1"))
	require.False(t, Valid("1a"))
	require.False(t, Valid(""))
	require.False(t, Valid("a-b"))
}
