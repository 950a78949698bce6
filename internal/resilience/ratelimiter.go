package resilience

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// RateLimiterConfig defines the rate limiting parameters applied to each
// endpoint independently, so one slow destination cannot starve others.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

func DefaultRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		RequestsPerSecond: 10,
		BurstSize:         5,
	}
}

// MemoryRateLimiter maintains per-endpoint token bucket limiters
// (golang.org/x/time/rate). Limiters are created lazily with
// double-checked locking.
type MemoryRateLimiter struct {
	config   RateLimiterConfig
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

func NewMemoryRateLimiter(config RateLimiterConfig) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		config:   config,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (m *MemoryRateLimiter) limiter(endpointID string) *rate.Limiter {
	m.mu.RLock()
	limiter, exists := m.limiters[endpointID]
	m.mu.RUnlock()

	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if limiter, exists = m.limiters[endpointID]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rate.Limit(m.config.RequestsPerSecond), m.config.BurstSize)
	m.limiters[endpointID] = limiter
	return limiter
}

// Allow implements RateLimiter.
func (m *MemoryRateLimiter) Allow(_ context.Context, endpointID string) (bool, error) {
	return m.limiter(endpointID).Allow(), nil
}

// Remove deletes the limiter for an endpoint, freeing memory.
// Should be called when a subscription is deleted.
func (m *MemoryRateLimiter) Remove(endpointID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.limiters, endpointID)
}
