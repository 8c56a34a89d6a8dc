package compiler

import (
	"context"

	"github.com/hanpama/artgraph/internal/localart"
	"github.com/hanpama/artgraph/internal/value"
)

// Mode tells ops whether the graph is being compiled or executed.
type Mode int

const (
	ModeCompile Mode = iota
	ModeExecute
)

func (m Mode) String() string {
	if m == ModeCompile {
		return "compile"
	}
	return "execute"
}

// SubEvaluator runs an independent operator graph to completion.
type SubEvaluator interface {
	Evaluate(ctx context.Context, targets ...Node) ([]any, error)
}

// Context is passed to every fragment, resolve and refine call. It replaces
// any ambient graph-building state: everything an op may consult is here.
type Context struct {
	ctx    context.Context
	mode   Mode
	result value.Value
	local  localart.Resolver
	sub    SubEvaluator
}

// NewContext returns a compile-mode context.
func NewContext(ctx context.Context) *Context {
	return &Context{ctx: ctx, mode: ModeCompile}
}

// Execute returns a copy of c in execute mode over result.
func (c *Context) Execute(result value.Value) *Context {
	cp := *c
	cp.mode = ModeExecute
	cp.result = result
	return &cp
}

// WithLocal returns a copy of c that opens local artifacts with r.
func (c *Context) WithLocal(r localart.Resolver) *Context {
	cp := *c
	cp.local = r
	return &cp
}

// WithSub returns a copy of c that dispatches nested graphs to s.
func (c *Context) WithSub(s SubEvaluator) *Context {
	cp := *c
	cp.sub = s
	return &cp
}

func (c *Context) Context() context.Context { return c.ctx }
func (c *Context) Mode() Mode               { return c.mode }

// Result is the raw result of the compiled document being executed.
func (c *Context) Result() value.Value { return c.result }

// Local is the artifact resolver, or nil.
func (c *Context) Local() localart.Resolver { return c.local }

// EvaluateNested compiles, fetches and resolves n as a separate query and
// blocks until it completes.
func (c *Context) EvaluateNested(n Node) (any, error) {
	if c.sub == nil {
		return nil, ErrNoSubEvaluator
	}
	out, err := c.sub.Evaluate(c.ctx, n)
	if err != nil {
		return nil, err
	}
	return out[0], nil
}
