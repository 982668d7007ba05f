package ors

import (
	"context"
	"sync"

	"route-analyzer/internal/domain"
	"route-analyzer/internal/ports"
)

// MockStep is one scripted outcome for a pair. Err takes precedence
// over Result when set.
type MockStep struct {
	Result ports.RouteResult
	Err    *ports.RouteError
}

// MockRouteProvider replays scripted outcomes per unordered pair, in
// order, and counts calls. The last step is repeated once the script
// runs out. Pairs with no script return a no-route error.
type MockRouteProvider struct {
	mu    sync.Mutex
	steps map[string][]MockStep
	calls map[string]int
}

func NewMockRouteProvider() *MockRouteProvider {
	return &MockRouteProvider{
		steps: make(map[string][]MockStep),
		calls: make(map[string]int),
	}
}

// Script sets the outcome sequence for the unordered pair (a, b).
func (p *MockRouteProvider) Script(a, b domain.Coordinates, steps ...MockStep) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps[domain.PairKey(a, b)] = steps
}

// Calls reports how many times the pair was requested.
func (p *MockRouteProvider) Calls(a, b domain.Coordinates) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[domain.PairKey(a, b)]
}

// TotalCalls reports the number of Directions calls across all pairs.
func (p *MockRouteProvider) TotalCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	total := 0
	for _, n := range p.calls {
		total += n
	}
	return total
}

func (p *MockRouteProvider) Directions(
	_ context.Context,
	from, to domain.Coordinates,
) (ports.RouteResult, error) {
	key := domain.PairKey(from, to)

	p.mu.Lock()
	n := p.calls[key]
	p.calls[key] = n + 1
	script := p.steps[key]
	p.mu.Unlock()

	if len(script) == 0 {
		return ports.RouteResult{}, &ports.RouteError{
			Kind:    ports.RouteErrNoRoute,
			Message: "no scripted route for pair",
		}
	}

	if n >= len(script) {
		n = len(script) - 1
	}
	step := script[n]
	if step.Err != nil {
		return ports.RouteResult{}, step.Err
	}
	return step.Result, nil
}

var _ ports.RouteProvider = (*MockRouteProvider)(nil)
