package httptp

import (
	"context"
	"sync"
)

// EndpointProvider lists the GraphQL endpoint URLs requests may be sent to.
// Implementations should be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context) ([]string, error)
}

// StaticEndpoints is a fixed list of endpoints.
type StaticEndpoints struct {
	mu   sync.RWMutex
	urls []string
}

func NewStaticEndpoints(urls ...string) *StaticEndpoints {
	cp := make([]string, 0, len(urls))
	for _, u := range urls {
		if u != "" {
			cp = append(cp, u)
		}
	}
	return &StaticEndpoints{urls: cp}
}

// Set replaces the endpoint list.
func (s *StaticEndpoints) Set(urls ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.urls = append(s.urls[:0:0], urls...)
}

func (s *StaticEndpoints) Endpoints(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.urls) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out, nil
}
