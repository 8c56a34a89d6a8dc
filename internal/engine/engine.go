// Package engine evaluates operator graphs: it compiles the targets into one
// document, sends it, and resolves every target over the shared result.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hanpama/artgraph/internal/compiler"
	"github.com/hanpama/artgraph/internal/eventbus"
	"github.com/hanpama/artgraph/internal/events"
	"github.com/hanpama/artgraph/internal/localart"
	"github.com/hanpama/artgraph/internal/reqid"
	"github.com/hanpama/artgraph/internal/schema"
	"github.com/hanpama/artgraph/internal/transport"
	"github.com/hanpama/artgraph/internal/types"
	"github.com/hanpama/artgraph/internal/value"
	"golang.org/x/sync/errgroup"
)

// Engine is safe for concurrent use.
type Engine struct {
	reg    *compiler.Registry
	tp     transport.Transport
	schema *schema.Schema
	local  localart.Resolver
}

// Option configures an Engine.
type Option func(*Engine)

// WithSchemaValidation checks every compiled document against s before it is
// sent.
func WithSchemaValidation(s *schema.Schema) Option { return func(e *Engine) { e.schema = s } }

// WithLocal sets the resolver file ops open artifacts with.
func WithLocal(r localart.Resolver) Option { return func(e *Engine) { e.local = r } }

func New(reg *compiler.Registry, tp transport.Transport, opts ...Option) *Engine {
	e := &Engine{reg: reg, tp: tp}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Registry returns the ops the engine was built with.
func (e *Engine) Registry() *compiler.Registry { return e.reg }

func (e *Engine) context(ctx context.Context) *compiler.Context {
	return compiler.NewContext(ctx).WithLocal(e.local).WithSub(nested{e})
}

// Compile compiles targets without sending anything.
func (e *Engine) Compile(ctx context.Context, targets ...compiler.Node) (*compiler.Plan, error) {
	return e.compile(e.context(ctx), targets)
}

func (e *Engine) compile(c *compiler.Context, targets []compiler.Node) (*compiler.Plan, error) {
	start := time.Now()
	plan, err := compiler.Compile(c, targets...)
	if err == nil && !plan.Empty() && e.schema != nil {
		if verr := e.schema.Validate(plan.Document); verr != nil {
			err = &compiler.CompileError{Err: verr}
		}
	}
	fin := events.CompileFinish{Targets: len(targets), Err: err, Duration: time.Since(start)}
	if plan != nil {
		fin.Fragments = plan.Fragments
		fin.Query = plan.Document
	}
	eventbus.Publish(c.Context(), fin)
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Evaluate resolves targets with exactly one request to the service, or none
// when no target reads from it. Results are in target order; a nil result
// means the entity was not found. Transport errors are returned unchanged.
func (e *Engine) Evaluate(ctx context.Context, targets ...compiler.Node) ([]any, error) {
	ctx, _ = reqid.Ensure(ctx)
	return e.evaluate(ctx, false, targets)
}

func (e *Engine) evaluate(ctx context.Context, isNested bool, targets []compiler.Node) ([]any, error) {
	c := e.context(ctx)
	plan, err := e.compile(c, targets)
	if err != nil {
		return nil, err
	}

	result := value.NullValue()
	if !plan.Empty() {
		start := time.Now()
		eventbus.Publish(ctx, events.QueryStart{Query: plan.Document, OperationName: compiler.OperationName, Nested: isNested})
		result, err = e.tp.Execute(ctx, transport.Request{Query: plan.Document, OperationName: compiler.OperationName})
		eventbus.Publish(ctx, events.QueryFinish{
			Query:         plan.Document,
			OperationName: compiler.OperationName,
			Nested:        isNested,
			Err:           err,
			Duration:      time.Since(start),
		})
		if err != nil {
			return nil, err
		}
	}

	ec := c.Execute(result)
	out := make([]any, len(targets))
	var g errgroup.Group
	for i, t := range targets {
		g.Go(func() error {
			r := &run{c: ec, memo: map[*compiler.OutputNode]any{}}
			v, err := r.eval(t)
			out[i] = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Refine returns the precise output type of n. Ops with a refiner are
// evaluated through it; other nodes report their declared type.
func (e *Engine) Refine(ctx context.Context, n compiler.Node) (t types.Type, err error) {
	on, ok := n.(*compiler.OutputNode)
	if !ok || on.Op.Refine == nil {
		return n.Type(), nil
	}
	ctx, _ = reqid.Ensure(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.RefineStart{Op: on.Op.Name})
	defer func() {
		eventbus.Publish(ctx, events.RefineFinish{Op: on.Op.Name, Type: t.String(), Err: err, Duration: time.Since(start)})
	}()

	out, err := e.evaluate(ctx, false, []compiler.Node{&compiler.OutputNode{Op: on.Op.Refine, Inputs: on.Inputs}})
	if err != nil {
		return types.Type{}, err
	}
	return asType(out[0])
}

func asType(v any) (types.Type, error) {
	switch t := v.(type) {
	case nil:
		return types.None(), nil
	case types.Type:
		return t, nil
	case []any:
		members := make([]types.Type, len(t))
		for i, el := range t {
			mt, err := asType(el)
			if err != nil {
				return types.Type{}, err
			}
			members[i] = mt
		}
		return types.List(types.Union(members...)), nil
	}
	return types.Type{}, fmt.Errorf("engine: refiner returned %T, not a type", v)
}

// Call invokes one op directly on already-evaluated inputs without compiling
// a document. Root ops fail with compiler.ErrCompileMisuse.
func (e *Engine) Call(ctx context.Context, name string, args ...any) (any, error) {
	op, ok := e.reg.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", compiler.ErrUnknownOp, name)
	}
	if len(args) != len(op.Params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", compiler.ErrArity, name, len(op.Params), len(args))
	}
	c := e.context(ctx).Execute(value.NullValue())
	if op.IsRoot() {
		return op.Resolve(c, compiler.NewInputs(op, args...))
	}
	return (&run{c: c}).apply(op, args)
}

type nested struct{ e *Engine }

// Evaluate runs targets as an independent query with a fresh request id.
func (n nested) Evaluate(ctx context.Context, targets ...compiler.Node) ([]any, error) {
	ctx, _ = reqid.NewContext(ctx)
	return n.e.evaluate(ctx, true, targets)
}
