package compiler

import (
	"fmt"
	"strings"

	"github.com/hanpama/artgraph/internal/language"
)

// OperationName is the name of every compiled operation.
const OperationName = "CompiledQuery"

// Plan is a compiled document.
type Plan struct {
	// Document is the formatted query, empty when nothing needs fetching.
	Document string
	AST      *language.QueryDocument
	// Roots is the number of distinct root selections.
	Roots int
	// Fragments is the number of distinct fragments composed.
	Fragments int
}

// Empty reports whether the plan needs no request.
func (p *Plan) Empty() bool { return p.Roots == 0 }

// unit is one distinct selection of the document. Applications of the same op
// to the same constants under the same parent share a unit.
type unit struct {
	key      string
	op       *Op
	in       Inputs
	children []*unit
	childKey map[string]bool
}

func (u *unit) add(child *unit) {
	if u.childKey[child.key] {
		return
	}
	u.childKey[child.key] = true
	u.children = append(u.children, child)
}

type builder struct {
	c       *Context
	units   map[string]*unit
	roots   []*unit
	visited map[*OutputNode]*unit
}

// Compile composes the fragments of every GraphQL op reachable from targets.
//
// Each op is nested under the op producing its first input. Chains whose
// first input is a constant or the output of an op without a fragment are
// left out: they run against data already in hand. The result is
// deterministic for a given graph and target order.
func Compile(c *Context, targets ...Node) (*Plan, error) {
	b := &builder{c: c, units: map[string]*unit{}, visited: map[*OutputNode]*unit{}}
	for _, t := range targets {
		if _, err := b.visit(t); err != nil {
			return nil, err
		}
	}
	plan := &Plan{Roots: len(b.roots), Fragments: len(b.units)}
	if len(b.roots) == 0 {
		return plan, nil
	}

	var sb strings.Builder
	sb.WriteString("query ")
	sb.WriteString(OperationName)
	sb.WriteString(" {\n")
	for _, r := range b.roots {
		sb.WriteString(b.render(r))
		sb.WriteByte('\n')
	}
	sb.WriteString("}")

	doc, err := language.ParseQuery(sb.String())
	if err != nil {
		return nil, &CompileError{Err: fmt.Errorf("compiler: composed document does not parse: %w", err)}
	}
	plan.AST = doc
	plan.Document = language.Format(doc)
	return plan, nil
}

func (b *builder) visit(n Node) (*unit, error) {
	on, ok := n.(*OutputNode)
	if !ok {
		return nil, nil
	}
	if u, seen := b.visited[on]; seen {
		return u, nil
	}
	var parent *unit
	for i, in := range on.Inputs {
		u, err := b.visit(in)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			parent = u
		}
	}
	b.visited[on] = nil

	op := on.Op
	if !op.IsGQL() || (!op.IsRoot() && parent == nil) {
		return nil, nil
	}

	first := 1
	if op.IsRoot() {
		first = 0
	}
	vals := make([]any, len(on.Inputs))
	var key strings.Builder
	key.WriteString(op.Name)
	key.WriteByte('(')
	if parent != nil {
		key.WriteString(parent.key)
	}
	for i := first; i < len(on.Inputs); i++ {
		cn, ok := on.Inputs[i].(*ConstNode)
		if !ok {
			return nil, &CompileError{Op: op.Name, Err: fmt.Errorf("%w: %s", ErrNonConstArgument, op.Params[i].Name)}
		}
		vals[i] = cn.Val
		v, err := NewInputs(op, vals...).Value(op.Params[i].Name)
		if err != nil {
			return nil, &CompileError{Op: op.Name, Err: err}
		}
		key.WriteByte(',')
		key.WriteString(language.Literal(v))
	}
	key.WriteByte(')')

	u, ok := b.units[key.String()]
	if !ok {
		u = &unit{key: key.String(), op: op, in: NewInputs(op, vals...), childKey: map[string]bool{}}
		b.units[u.key] = u
		if parent == nil {
			b.roots = append(b.roots, u)
		}
	}
	if parent != nil {
		parent.add(u)
	}
	b.visited[on] = u
	return u, nil
}

func (b *builder) render(u *unit) string {
	parts := make([]string, 0, len(u.children))
	seen := map[string]bool{}
	for _, ch := range u.children {
		s := strings.TrimSpace(b.render(ch))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		parts = append(parts, s)
	}
	return u.op.Plugin.Fragment(b.c, u.in, strings.Join(parts, "\n"))
}
