// Package transport defines how compiled documents reach the remote service.
package transport

import (
	"context"
	"fmt"
	"strings"

	"github.com/hanpama/artgraph/internal/value"
)

// Request is one GraphQL request.
type Request struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName,omitempty"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// Transport sends a document and returns the data member of the response.
// Aliases the service could not resolve come back as null inside the data;
// that is not an error. Implementations MUST be safe for concurrent use.
//
// Provided implementations:
// - internal/httptp.Transport: GraphQL over HTTP
// - MockTransport: seeded responses for tests
type Transport interface {
	Execute(ctx context.Context, req Request) (value.Value, error)
}

// GraphQLError is one entry of a response's errors member.
type GraphQLError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// Error is a service-level failure: a response that carried errors and no
// data, or a non-success HTTP status.
type Error struct {
	Status int
	Errors []GraphQLError
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ge := range e.Errors {
		msgs[i] = ge.Message
	}
	if len(msgs) == 0 {
		return fmt.Sprintf("transport: service returned status %d", e.Status)
	}
	return fmt.Sprintf("transport: service error (status %d): %s", e.Status, strings.Join(msgs, "; "))
}
