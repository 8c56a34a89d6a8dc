package reqid

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestContextRoundTrip(t *testing.T) {
	ctx, id := NewContext(context.Background())
	got, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, id, got)

	_, ok = FromContext(context.Background())
	require.False(t, ok)
}

func TestEnsureKeepsExistingID(t *testing.T) {
	ctx, id := NewContext(context.Background())
	same, got := Ensure(ctx)
	require.Equal(t, id, got)
	require.Equal(t, ctx, same)

	fresh, _ := Ensure(context.Background())
	_, ok := FromContext(fresh)
	require.True(t, ok)
}

func TestNewContextRecordsAncestors(t *testing.T) {
	outer, a := NewContext(context.Background())
	require.Empty(t, Ancestors(outer))

	mid, b := NewContext(outer)
	inner, c := NewContext(mid)
	got, _ := FromContext(inner)
	require.Equal(t, c, got)
	require.Equal(t, []uint64{b, a}, Ancestors(inner))
	require.Equal(t, []uint64{a}, Ancestors(mid))
}
