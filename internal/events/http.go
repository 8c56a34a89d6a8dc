package events

import "time"

// HTTPClientStart is emitted before a GraphQL request is posted.
type HTTPClientStart struct {
	Method string
	URL    string
}

// HTTPClientFinish is emitted after the response body is read.
type HTTPClientFinish struct {
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}
