package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/artgraph/internal/value"
)

// MockTransport implements Transport and returns pre-seeded responses in
// order, while recording requests for inspection.
type MockTransport struct {
	mu        sync.Mutex
	responses []value.Value
	errs      []error
	idx       int
	calls     []Request
}

// NewMockTransport creates a MockTransport that answers successive Execute
// calls with the given JSON documents.
func NewMockTransport(responses ...string) *MockTransport {
	m := &MockTransport{}
	for _, r := range responses {
		m.responses = append(m.responses, value.MustParse(r))
	}
	return m
}

// NewMockTransportWithErrors seeds per-call errors alongside responses. For
// call i, a non-nil errs[i] is returned instead of responses[i].
func NewMockTransportWithErrors(responses []string, errs []error) *MockTransport {
	m := NewMockTransport(responses...)
	m.errs = append([]error(nil), errs...)
	return m
}

// Execute records req and returns the next queued response.
func (m *MockTransport) Execute(ctx context.Context, req Request) (value.Value, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, req)

	if m.idx >= len(m.responses) && m.idx >= len(m.errs) {
		return value.Value{}, fmt.Errorf("mock transport: no more responses")
	}
	i := m.idx
	m.idx++
	if i < len(m.errs) && m.errs[i] != nil {
		return value.Value{}, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return value.NullValue(), nil
}

// Calls returns a snapshot of recorded requests.
func (m *MockTransport) Calls() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.calls))
	copy(out, m.calls)
	return out
}
