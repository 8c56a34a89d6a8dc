package engine

import (
	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/types"
)

// run evaluates one target. Each target gets its own memo; the result it
// reads from is shared and never written.
type run struct {
	c    *compiler.Context
	memo map[*compiler.OutputNode]any
}

func (r *run) eval(n compiler.Node) (any, error) {
	switch n := n.(type) {
	case *compiler.ConstNode:
		return n.Val, nil
	case *compiler.OutputNode:
		if v, ok := r.memo[n]; ok {
			return v, nil
		}
		vals := make([]any, len(n.Inputs))
		for i, in := range n.Inputs {
			v, err := r.eval(in)
			if err != nil {
				return nil, err
			}
			vals[i] = v
		}
		var (
			v   any
			err error
		)
		if n.Op.IsRoot() {
			v, err = n.Op.Plugin.RootResolver(r.c, r.c.Result(), compiler.NewInputs(n.Op, vals...))
		} else {
			v, err = r.apply(n.Op, vals)
		}
		if err != nil {
			return nil, err
		}
		r.memo[n] = v
		return v, nil
	}
	return nil, nil
}

// apply resolves op. A nil first input yields nil, and a list first input is
// mapped over unless the op takes a list.
func (r *run) apply(op *compiler.Op, vals []any) (any, error) {
	if len(vals) == 0 {
		return op.Resolve(r.c, compiler.NewInputs(op))
	}
	switch first := vals[0].(type) {
	case nil:
		return nil, nil
	case []any:
		if op.Params[0].Type.Kind == types.KindList {
			break
		}
		out := make([]any, len(first))
		for i, el := range first {
			mv := append([]any{el}, vals[1:]...)
			v, err := r.apply(op, mv)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return op.Resolve(r.c, compiler.NewInputs(op, vals...))
}
