// Package reqid tags a context with an evaluation ID so that paired start and
// finish events can be correlated.
package reqid

import (
	"context"
	"math/rand/v2"
)

type (
	key          struct{}
	ancestorsKey struct{}
)

// NewContext returns a copy of parent carrying a fresh ID. An ID already in
// parent becomes the nearest ancestor of the new one.
func NewContext(parent context.Context) (context.Context, uint64) {
	id := rand.Uint64()
	if prev, ok := FromContext(parent); ok {
		anc := append([]uint64{prev}, Ancestors(parent)...)
		parent = context.WithValue(parent, ancestorsKey{}, anc)
	}
	return context.WithValue(parent, key{}, id), id
}

// Ancestors returns the IDs replaced by NewContext, nearest first.
func Ancestors(ctx context.Context) []uint64 {
	anc, _ := ctx.Value(ancestorsKey{}).([]uint64)
	return anc
}

// FromContext extracts the ID stored in ctx.
func FromContext(ctx context.Context) (uint64, bool) {
	id, ok := ctx.Value(key{}).(uint64)
	return id, ok
}

// Ensure returns ctx unchanged when it already carries an ID and a tagged copy
// otherwise. Nested evaluations keep the ID of their parent.
func Ensure(ctx context.Context) (context.Context, uint64) {
	if id, ok := FromContext(ctx); ok {
		return ctx, id
	}
	return NewContext(ctx)
}
