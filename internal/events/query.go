package events

import "time"

// QueryStart is emitted before a compiled query is sent to the transport.
type QueryStart struct {
	Query         string
	OperationName string
	Nested        bool
}

// QueryFinish is emitted after the transport returns.
type QueryFinish struct {
	Query         string
	OperationName string
	Nested        bool
	Err           error
	Duration      time.Duration
}

// MalformedPayload is emitted when a JSON-encoded field of a result could not
// be parsed and was replaced by an empty object.
type MalformedPayload struct {
	Op    string
	Field string
	Err   error
}

// PartialErrors is emitted when a response carries errors next to non-null
// data. Paths[i] is the dotted result path of Messages[i], empty when the
// service gave none.
type PartialErrors struct {
	URL      string
	Messages []string
	Paths    []string
}
