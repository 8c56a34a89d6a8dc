package compiler

import (
	"errors"
	"fmt"
)

var (
	// ErrCompileMisuse is returned when a root op is invoked outside of a
	// compiled document.
	ErrCompileMisuse = errors.New("compiler: root op is not executable outside a compiled query")
	// ErrNonConstArgument is returned when a non-entity input of a GraphQL op
	// is not a constant and so cannot be rendered into the document.
	ErrNonConstArgument = errors.New("compiler: argument must be a constant")
	// ErrUnsupportedConst is returned when a constant argument has a Go type
	// that has no GraphQL literal form.
	ErrUnsupportedConst = errors.New("compiler: constant has no GraphQL literal form")
	// ErrArity is returned when a node is built with the wrong number of
	// inputs.
	ErrArity = errors.New("compiler: wrong number of inputs")
	// ErrNoSubEvaluator is returned by EvaluateNested on a context that
	// cannot dispatch queries.
	ErrNoSubEvaluator = errors.New("compiler: nested evaluation unavailable")
)

// CompileError names the op a compile-time failure belongs to.
type CompileError struct {
	Op  string
	Err error
}

func (e *CompileError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%v (op %q)", e.Err, e.Op)
}

func (e *CompileError) Unwrap() error { return e.Err }
