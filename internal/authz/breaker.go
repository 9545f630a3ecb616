package authz

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker/v2"
)

// breakerState mirrors gobreaker's states under a package-local name so
// callers of this package never import gobreaker directly (spec.md §4.9).
type breakerState int

const (
	stateClosed breakerState = breakerState(gobreaker.StateClosed)
	stateOpen   breakerState = breakerState(gobreaker.StateOpen)
	stateHalf   breakerState = breakerState(gobreaker.StateHalfOpen)
)

// ErrCircuitOpen is returned in place of a policy-engine call while the
// breaker is open (spec.md §4.9: "open circuit falls back to legacy RBAC").
var ErrCircuitOpen = errors.New("authz: policy engine circuit is open")

type circuitBreaker struct {
	gb *gobreaker.CircuitBreaker[*Decision]
}

func newCircuitBreaker(maxFailures int, cooldown time.Duration, halfOpenProbes int) *circuitBreaker {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	if halfOpenProbes <= 0 {
		halfOpenProbes = 1
	}

	settings := gobreaker.Settings{
		MaxRequests: uint32(halfOpenProbes),
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(maxFailures)
		},
	}

	return &circuitBreaker{gb: gobreaker.NewCircuitBreaker[*Decision](settings)}
}

func (c *circuitBreaker) execute(_ context.Context, fn func() (*Decision, error)) (*Decision, error) {
	decision, err := c.gb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, ErrCircuitOpen
		}
		return nil, err
	}
	return decision, nil
}

func (c *circuitBreaker) state() breakerState {
	return breakerState(c.gb.State())
}
