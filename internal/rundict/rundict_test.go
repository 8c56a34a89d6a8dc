package rundict

import (
	"testing"

	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
	"github.com/stretchr/testify/require"
)

func TestParseEmptyForms(t *testing.T) {
	for _, tc := range []struct {
		text    string
		present bool
	}{
		{"", false},
		{"", true},
		{"   ", true},
		{"null", true},
		{`{"ignored": 1}`, false},
	} {
		v, err := Parse(tc.text, tc.present)
		require.NoError(t, err)
		require.Equal(t, value.Object, v.Kind())
		require.Equal(t, 0, v.Len())
	}
}

func TestParseMalformedIsEmpty(t *testing.T) {
	v, err := Parse(`{"acc": `, true)
	require.ErrorIs(t, err, value.ErrMalformed)
	require.Equal(t, value.Object, v.Kind())
	require.Equal(t, 0, v.Len())
}

func TestTypeOfFileRefs(t *testing.T) {
	v := value.MustParse(`{
		"loss": 0.25,
		"samples": {"_type": "table-file", "path": "media/tables/samples_3_abc.table.json", "sha256": "ff", "ncols": 2},
		"hist": {"_type": "histogram", "bins": [0, 1]}
	}`)
	got := TypeOf(v)
	want := types.Dict(map[string]types.Type{
		"loss":    types.Float(),
		"samples": types.File("table.json"),
		"hist": types.Dict(map[string]types.Type{
			"_type": types.String(),
			"bins":  types.List(types.Int()),
		}),
	})
	require.Equal(t, want.String(), got.String())

	norm := Normalize(v)
	samples, _ := norm.Get("samples")
	require.Equal(t, []string{"_type", "path", "sha256"}, samples.Keys())
	require.Equal(t, 0.25, mustGet(t, norm, "loss").Float())
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	v := value.MustParse(`{"f": {"_type": "image-file", "path": "a.png", "width": 3}}`)
	before := v.String()
	_ = Normalize(v)
	require.Equal(t, before, v.String())
}

func mustGet(t *testing.T, v value.Value, path ...string) value.Value {
	t.Helper()
	got, ok := v.Get(path...)
	require.True(t, ok, "missing %v", path)
	return got
}
