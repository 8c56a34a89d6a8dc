package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/artgraph/internal/value"
)

// ErrMissingLineage reports an artifact version whose lineage fields were not
// fetched. The required fragment always selects them, so this is a bug in
// whatever produced the slice.
var ErrMissingLineage = errors.New("domain: missing lineage field")

// Record is an entity wrapped around its result slice.
type Record interface {
	Kind() *Kind
	GQL() value.Value
}

// Entity is the generic Record.
type Entity struct {
	kind *Kind
	gql  value.Value
}

var _ Record = Entity{}

func (e Entity) Kind() *Kind      { return e.kind }
func (e Entity) GQL() value.Value { return e.gql }

// Get reads a nested field of the slice.
func (e Entity) Get(path ...string) (value.Value, bool) { return e.gql.Get(path...) }

// Str reads a nested string field.
func (e Entity) Str(path ...string) (string, bool) {
	v, ok := e.gql.Get(path...)
	if !ok || v.Kind() != value.String {
		return "", false
	}
	return v.Str(), true
}

// Int reads a nested integral field.
func (e Entity) Int(path ...string) (int64, bool) {
	v, ok := e.gql.Get(path...)
	if !ok || v.Kind() != value.Number {
		return 0, false
	}
	return v.Int(), true
}

func (e Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind string      `json:"kind"`
		Data value.Value `json:"data"`
	}{e.kind.Name, e.gql})
}

func (e Entity) String() string { return e.kind.Name + e.gql.String() }

func (e Entity) mustStr(path ...string) (string, error) {
	s, ok := e.Str(path...)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s", ErrMissingLineage, e.kind.Name, strings.Join(path, "."))
	}
	return s, nil
}

func (e Entity) mustInt(path ...string) (int64, error) {
	n, ok := e.Int(path...)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrMissingLineage, e.kind.Name, strings.Join(path, "."))
	}
	return n, nil
}
