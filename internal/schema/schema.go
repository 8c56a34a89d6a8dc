// Package schema holds the schema of the remote artifact service, used to
// check compiled documents before they are sent.
package schema

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

//go:embed artifacts.graphql
var artifactsSDL string

// Schema is a loaded service schema.
type Schema struct {
	ast *ast.Schema
}

var (
	defaultOnce   sync.Once
	defaultSchema *Schema
	defaultErr    error
)

// Load returns the built-in artifact service schema.
func Load() (*Schema, error) {
	defaultOnce.Do(func() {
		defaultSchema, defaultErr = BuildFromSDL("artifacts.graphql", artifactsSDL)
	})
	return defaultSchema, defaultErr
}

// BuildFromSDL loads a schema from SDL source.
func BuildFromSDL(name, sdl string) (*Schema, error) {
	s, err := gqlparser.LoadSchema(&ast.Source{Name: name, Input: sdl})
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	return &Schema{ast: s}, nil
}

// Validate parses document and runs the standard validation rules against s.
func (s *Schema) Validate(document string) error {
	_, errs := gqlparser.LoadQuery(s.ast, document)
	if len(errs) > 0 {
		return fmt.Errorf("schema: invalid document: %w", errs)
	}
	return nil
}

// HasField reports whether typeName declares field.
func (s *Schema) HasField(typeName, field string) bool {
	def := s.ast.Types[typeName]
	if def == nil {
		return false
	}
	return def.Fields.ForName(field) != nil
}
