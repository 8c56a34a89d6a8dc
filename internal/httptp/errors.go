package httptp

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints.
	ErrNoEndpoints = errors.New("httptp: no endpoints available")
	// ErrClosed is returned by Execute after Close.
	ErrClosed = errors.New("httptp: closed")
	// ErrBadResponse indicates a body that is not a GraphQL response.
	ErrBadResponse = errors.New("httptp: malformed response")
)
