package compiler

import (
	"fmt"

	"github.com/hanpama/artgraph/internal/types"
)

// Node is a vertex of an operator graph.
type Node interface {
	Type() types.Type
	node()
}

// OutputNode is the application of an op to its inputs.
type OutputNode struct {
	Op     *Op
	Inputs []Node
}

// ConstNode is a literal input, including entities fetched earlier.
type ConstNode struct {
	Typ types.Type
	Val any
}

func (n *OutputNode) Type() types.Type { return n.Op.Output }
func (n *ConstNode) Type() types.Type  { return n.Typ }

func (*OutputNode) node() {}
func (*ConstNode) node()  {}

// Apply builds an OutputNode. It panics when the number of inputs does not
// match the op's params.
func Apply(op *Op, inputs ...Node) *OutputNode {
	if len(inputs) != len(op.Params) {
		panic(fmt.Errorf("%w: %s takes %d, got %d", ErrArity, op.Name, len(op.Params), len(inputs)))
	}
	return &OutputNode{Op: op, Inputs: inputs}
}

// Const builds a ConstNode.
func Const(t types.Type, v any) *ConstNode { return &ConstNode{Typ: t, Val: v} }

// Str is shorthand for a string constant.
func Str(s string) *ConstNode { return Const(types.String(), s) }

// Int is shorthand for an int constant.
func Int(n int64) *ConstNode { return Const(types.Int(), n) }
