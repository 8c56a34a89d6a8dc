// Package compiler composes the GraphQL fragments of an operator graph into a
// single document.
//
// Operators are declared as Ops. An Op that reads from the remote service
// carries a Plugin whose fragment function knows only its own field
// requirement; the text contributed by its consumers arrives as inner.
// Compile links every such operator to the operator producing its entity
// input and nests the fragments so that the whole graph is fetched in one
// request.
package compiler

import (
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
)

// Param is one declared input of an Op. The first param of a GraphQL op is
// the entity it reads from.
type Param struct {
	Name string
	Type types.Type
}

// FragmentFunc returns the selection text of an op. in holds the constant
// inputs; the entity input of a non-root op is nil during compilation. inner
// is the composed text of the op's consumers and must be embedded once.
type FragmentFunc func(c *Context, in Inputs, inner string) string

// ResolveFunc computes the output of an op from its evaluated inputs.
type ResolveFunc func(c *Context, in Inputs) (any, error)

// RootResolver maps the raw result of a compiled document back into the
// entity a root op selected, or nil when the service returned nothing.
type RootResolver func(c *Context, result value.Value, in Inputs) (any, error)

// Plugin marks an op as reading from the remote service.
type Plugin struct {
	Fragment FragmentFunc
	// IsRoot marks ops that seed a document from constant arguments. Roots
	// are not executable on their own.
	IsRoot       bool
	RootResolver RootResolver
}

// Op is a registered operator.
type Op struct {
	Name   string
	Params []Param
	Output types.Type
	Plugin *Plugin
	// Refine, when set, computes the precise output type from fetched data.
	// It takes the same params and returns a types.Type.
	Refine  *Op
	Resolve ResolveFunc
}

// IsGQL reports whether o contributes a fragment.
func (o *Op) IsGQL() bool { return o.Plugin != nil && o.Plugin.Fragment != nil }

// IsRoot reports whether o is a root op.
func (o *Op) IsRoot() bool { return o.Plugin != nil && o.Plugin.IsRoot }

// RootOp declares a root op. Its Resolve always fails: roots only produce
// values through a compiled document.
func RootOp(name string, params []Param, output types.Type, fragment FragmentFunc, resolve RootResolver) *Op {
	op := &Op{
		Name:   name,
		Params: params,
		Output: output,
		Plugin: &Plugin{Fragment: fragment, IsRoot: true, RootResolver: resolve},
	}
	op.Resolve = func(*Context, Inputs) (any, error) {
		return nil, &CompileError{Op: name, Err: ErrCompileMisuse}
	}
	return op
}
