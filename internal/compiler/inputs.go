package compiler

import (
	"fmt"

	"github.com/hanpama/artgraph/internal/language"
	"github.com/hanpama/artgraph/internal/value"
)

// Inputs are the values bound to an op's params.
type Inputs struct {
	params []Param
	vals   []any
}

// NewInputs binds vals to the params of op in order.
func NewInputs(op *Op, vals ...any) Inputs {
	return Inputs{params: op.Params, vals: vals}
}

func (in Inputs) index(name string) int {
	for i, p := range in.params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Len is the number of bound values.
func (in Inputs) Len() int { return len(in.vals) }

// First returns the first input, the entity of a GraphQL op.
func (in Inputs) First() any {
	if len(in.vals) == 0 {
		return nil
	}
	return in.vals[0]
}

// Raw returns the input named name, or nil.
func (in Inputs) Raw(name string) any {
	i := in.index(name)
	if i < 0 || i >= len(in.vals) {
		return nil
	}
	return in.vals[i]
}

// Value returns the input converted to a value.Value.
func (in Inputs) Value(name string) (value.Value, error) {
	v, err := value.FromAny(in.Raw(name))
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedConst, name, err)
	}
	return v, nil
}

// Str returns a string input, or "" when the input is not a string.
func (in Inputs) Str(name string) string {
	switch t := in.Raw(name).(type) {
	case string:
		return t
	case value.Value:
		return t.Str()
	}
	return ""
}

// Int returns an integral input, or 0.
func (in Inputs) Int(name string) int64 {
	switch t := in.Raw(name).(type) {
	case int:
		return int64(t)
	case int64:
		return t
	case float64:
		return int64(t)
	case value.Value:
		return t.Int()
	}
	return 0
}

// Literal renders the input as a GraphQL value literal. Compile rejects
// constants Value cannot convert, so fragments never see them; should one
// slip through it renders as null.
func (in Inputs) Literal(name string) string {
	v, err := in.Value(name)
	if err != nil {
		return "null"
	}
	return language.Literal(v)
}

// With returns a copy of in with the first input replaced.
func (in Inputs) With(first any) Inputs {
	vals := make([]any, len(in.vals))
	copy(vals, in.vals)
	if len(vals) > 0 {
		vals[0] = first
	}
	return Inputs{params: in.params, vals: vals}
}
