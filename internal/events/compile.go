// Package events declares the typed events published on the eventbus.
package events

import "time"

// CompileFinish is emitted after a batch of targets is compiled to a query.
type CompileFinish struct {
	Targets   int
	Fragments int
	Query     string
	Err       error
	Duration  time.Duration
}

// RefineStart is emitted before a refinement graph is evaluated.
type RefineStart struct {
	Op string
}

// RefineFinish is emitted after refinement completes.
type RefineFinish struct {
	Op       string
	Type     string
	Err      error
	Duration time.Duration
}
