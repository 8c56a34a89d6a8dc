package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockTransportReplaysInOrder(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockTransportWithErrors([]string{`{"a": 1}`, `{}`, `{"c": 3}`}, []error{nil, boom})
	ctx := context.Background()

	v, err := m.Execute(ctx, Request{Query: "q1"})
	require.NoError(t, err)
	a, _ := v.Get("a")
	require.Equal(t, int64(1), a.Int())

	_, err = m.Execute(ctx, Request{Query: "q2"})
	require.Same(t, boom, err)

	v, err = m.Execute(ctx, Request{Query: "q3"})
	require.NoError(t, err)
	_, ok := v.Get("c")
	require.True(t, ok)

	_, err = m.Execute(ctx, Request{Query: "q4"})
	require.Error(t, err)

	calls := m.Calls()
	require.Len(t, calls, 4)
	require.Equal(t, "q3", calls[2].Query)
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Status: 200, Errors: []GraphQLError{{Message: "no such field"}, {Message: "denied"}}}
	require.Equal(t, "transport: service error (status 200): no such field; denied", e.Error())
	require.Equal(t, "transport: service returned status 502", (&Error{Status: 502}).Error())
}
