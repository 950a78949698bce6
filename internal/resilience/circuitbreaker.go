package resilience

// Circuit breaker on github.com/sony/gobreaker, one breaker per endpoint.
//
// State transitions:
//
//	[Closed] ---(failure ratio reached)---> [Open]
//	[Open] ---(timeout expires)---> [Half-Open]
//	[Half-Open] ---(success)---> [Closed]
//	[Half-Open] ---(failure)---> [Open]

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sony/gobreaker"
)

// CircuitBreakerConfig defines the breaker behavior.
//
// MaxRequests is the number of probe requests allowed in half-open state.
// Interval is the cyclic period for clearing counts while closed.
// Timeout is how long to stay open before probing again.
// FailureRatio trips the breaker once MinRequests have been observed.
type CircuitBreakerConfig struct {
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	FailureRatio float64
	MinRequests  uint32
}

func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  3,
	}
}

// errRecordedFailure feeds delivery outcomes into gobreaker's counters.
var errRecordedFailure = errors.New("recorded delivery failure")

// MemoryCircuitBreaker maintains one gobreaker per endpoint.
// Each endpoint fails independently; a dead destination never blocks
// deliveries to healthy ones.
type MemoryCircuitBreaker struct {
	config   CircuitBreakerConfig
	breakers map[string]*gobreaker.CircuitBreaker
	mu       sync.RWMutex
}

func NewMemoryCircuitBreaker(config CircuitBreakerConfig) *MemoryCircuitBreaker {
	return &MemoryCircuitBreaker{
		config:   config,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (m *MemoryCircuitBreaker) breaker(endpointID string) *gobreaker.CircuitBreaker {
	m.mu.RLock()
	cb, exists := m.breakers[endpointID]
	m.mu.RUnlock()

	if exists {
		return cb
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if cb, exists = m.breakers[endpointID]; exists {
		return cb
	}

	cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        endpointID,
		MaxRequests: m.config.MaxRequests,
		Interval:    m.config.Interval,
		Timeout:     m.config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < m.config.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= m.config.FailureRatio
		},
	})
	m.breakers[endpointID] = cb
	return cb
}

// Allow implements CircuitBreaker.
func (m *MemoryCircuitBreaker) Allow(_ context.Context, endpointID string) (bool, error) {
	return m.breaker(endpointID).State() != gobreaker.StateOpen, nil
}

// RecordSuccess implements CircuitBreaker.
func (m *MemoryCircuitBreaker) RecordSuccess(_ context.Context, endpointID string) error {
	_, err := m.breaker(endpointID).Execute(func() (any, error) { return nil, nil })
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}

// RecordFailure implements CircuitBreaker.
func (m *MemoryCircuitBreaker) RecordFailure(_ context.Context, endpointID string) error {
	_, err := m.breaker(endpointID).Execute(func() (any, error) { return nil, errRecordedFailure })
	if errors.Is(err, errRecordedFailure) ||
		errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil
	}
	return err
}

// State exposes the breaker state for an endpoint (for metrics and tests).
func (m *MemoryCircuitBreaker) State(endpointID string) gobreaker.State {
	return m.breaker(endpointID).State()
}
