// Package ops declares the operators of the artifact service: roots that seed
// a document, property getters, edges, connections and the handful of ops
// whose values are computed from several fields.
package ops

import (
	"fmt"
	"time"

	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/domain"
	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/rundict"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

// Default returns a registry holding every op of this package.
func Default() *compiler.Registry {
	r := compiler.NewRegistry()
	r.MustRegister(rootOps()...)
	r.MustRegister(artifactVersionOps()...)
	r.MustRegister(historyOps()...)
	r.MustRegister(fileOps()...)
	r.MustRegister(navigationOps()...)
	return r
}

// entityParam is the conventional first param of an op over kind.
func entityParam(k *domain.Kind) compiler.Param {
	return compiler.Param{Name: k.Name, Type: k.Type()}
}

func record(op string, in compiler.Inputs) (domain.Record, error) {
	rec, ok := in.First().(domain.Record)
	if !ok {
		return nil, fmt.Errorf("ops: %s: expected an entity, got %T", op, in.First())
	}
	return rec, nil
}

func version(op string, in compiler.Inputs) (domain.ArtifactVersion, error) {
	av, ok := in.First().(domain.ArtifactVersion)
	if !ok {
		return domain.ArtifactVersion{}, fmt.Errorf("ops: %s: expected an artifactVersion, got %T", op, in.First())
	}
	return av, nil
}

func static(sel string) compiler.FragmentFunc {
	return func(*compiler.Context, compiler.Inputs, string) string { return sel }
}

// nest wraps the required fields of k and inner in a field selection.
func nest(head string, k *domain.Kind, inner string) string {
	return head + " {\n" + k.RequiredFragment + "\n" + inner + "\n}"
}

type convertFunc func(value.Value) any

func plain(v value.Value) any { return v.Interface() }

func timestamp(v value.Value) any {
	s := v.Str()
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return s
}

// propOp reads a scalar field of an entity.
func propOp(name string, k *domain.Kind, field string, out types.Type, convert convertFunc) *compiler.Op {
	if convert == nil {
		convert = plain
	}
	return &compiler.Op{
		Name:   name,
		Params: []compiler.Param{entityParam(k)},
		Output: types.Optional(out),
		Plugin: &compiler.Plugin{Fragment: static(field)},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			rec, err := record(name, in)
			if err != nil {
				return nil, err
			}
			v, ok := rec.GQL().Get(field)
			if !ok || v.IsNull() {
				return nil, nil
			}
			return convert(v), nil
		},
	}
}

// edgeOp follows a direct edge to another entity, or to a list of them.
func edgeOp(name string, from *domain.Kind, field string, to *domain.Kind, many bool) *compiler.Op {
	out := types.Optional(to.Type())
	if many {
		out = types.List(to.Type())
	}
	return &compiler.Op{
		Name:   name,
		Params: []compiler.Param{entityParam(from)},
		Output: out,
		Plugin: &compiler.Plugin{Fragment: func(c *compiler.Context, in compiler.Inputs, inner string) string {
			return nest(field, to, inner)
		}},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			rec, err := record(name, in)
			if err != nil {
				return nil, err
			}
			v, _ := rec.GQL().Get(field)
			if !many {
				return wrap(to, v), nil
			}
			items := v.Items()
			list := make([]any, 0, len(items))
			for _, it := range items {
				list = append(list, wrap(to, it))
			}
			return list, nil
		},
	}
}

// connectionOp reads the first page of a connection.
func connectionOp(name string, from *domain.Kind, field string, to *domain.Kind) *compiler.Op {
	return &compiler.Op{
		Name:   name,
		Params: []compiler.Param{entityParam(from)},
		Output: types.List(to.Type()),
		Plugin: &compiler.Plugin{Fragment: func(c *compiler.Context, in compiler.Inputs, inner string) string {
			return field + " {\nedges {\n" + nest("node", to, inner) + "\n}\n}"
		}},
		Resolve: func(c *compiler.Context, in compiler.Inputs) (any, error) {
			rec, err := record(name, in)
			if err != nil {
				return nil, err
			}
			edges, _ := rec.GQL().Get(field, "edges")
			items := edges.Items()
			list := make([]any, 0, len(items))
			for _, e := range items {
				node, _ := e.Get("node")
				list = append(list, wrap(to, node))
			}
			return list, nil
		},
	}
}

// wrap keeps a missing entity an untyped nil.
func wrap(k *domain.Kind, v value.Value) any {
	if rec := k.FromResult(v); rec != nil {
		return rec
	}
	return nil
}

// parseDict decodes a JSON text field, reporting malformed text.
func parseDict(c *compiler.Context, op, field, text string, present bool) value.Value {
	v, err := rundict.Parse(text, present)
	if err != nil {
		eventbus.Publish(c.Context(), events.MalformedPayload{Op: op, Field: field, Err: err})
	}
	return v
}
