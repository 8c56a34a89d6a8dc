package compiler

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownOp is returned by Registry lookups that find nothing.
var ErrUnknownOp = errors.New("compiler: unknown op")

// Registry holds ops by name.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]*Op
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry { return &Registry{ops: map[string]*Op{}} }

// Register adds op and its refiner.
func (r *Registry) Register(op *Op) error {
	if err := check(op); err != nil {
		return err
	}
	if op.Refine != nil {
		if err := check(op.Refine); err != nil {
			return err
		}
		if len(op.Refine.Params) != len(op.Params) {
			return fmt.Errorf("compiler: refiner %s of %s: %w", op.Refine.Name, op.Name, ErrArity)
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.ops[op.Name]; dup {
		return fmt.Errorf("compiler: op %s registered twice", op.Name)
	}
	if op.Refine != nil {
		if _, dup := r.ops[op.Refine.Name]; dup {
			return fmt.Errorf("compiler: op %s registered twice", op.Refine.Name)
		}
	}
	r.ops[op.Name] = op
	if op.Refine != nil {
		r.ops[op.Refine.Name] = op.Refine
	}
	return nil
}

// MustRegister is Register that panics on error.
func (r *Registry) MustRegister(ops ...*Op) {
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			panic(err)
		}
	}
}

func check(op *Op) error {
	switch {
	case op.Name == "":
		return errors.New("compiler: op without a name")
	case op.Resolve == nil:
		return fmt.Errorf("compiler: op %s has no resolver", op.Name)
	case op.IsRoot() && op.Plugin.RootResolver == nil:
		return fmt.Errorf("compiler: root op %s has no root resolver", op.Name)
	case op.Plugin != nil && op.Plugin.Fragment == nil:
		return fmt.Errorf("compiler: op %s has a plugin without a fragment", op.Name)
	case op.IsGQL() && len(op.Params) == 0:
		return fmt.Errorf("compiler: graphql op %s takes no inputs", op.Name)
	}
	return nil
}

// Lookup finds an op by name.
func (r *Registry) Lookup(name string) (*Op, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

// Ops returns every registered op sorted by name.
func (r *Registry) Ops() []*Op {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Op, 0, len(r.ops))
	for _, op := range r.ops {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply looks up name and applies it to inputs.
func (r *Registry) Apply(name string, inputs ...Node) (*OutputNode, error) {
	op, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOp, name)
	}
	if len(inputs) != len(op.Params) {
		return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrArity, name, len(op.Params), len(inputs))
	}
	return Apply(op, inputs...), nil
}
