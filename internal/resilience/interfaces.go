// Package resilience provides rate limiting and circuit breaker
// implementations for protecting webhook endpoints from overload and
// cascading failures.
package resilience

import "context"

// RateLimiter limits outbound request rate per endpoint.
// Implementations may be in-memory or Redis-backed; the Redis variant
// makes the limit hold across several sweeper/server instances.
type RateLimiter interface {
	// Allow reports whether a request to the endpoint may proceed now.
	Allow(ctx context.Context, endpointID string) (bool, error)
}

// CircuitBreaker stops requests to endpoints that keep failing.
type CircuitBreaker interface {
	// Allow reports whether a request should pass through the breaker.
	Allow(ctx context.Context, endpointID string) (bool, error)
	// RecordSuccess records a successful request.
	RecordSuccess(ctx context.Context, endpointID string) error
	// RecordFailure records a failed request.
	RecordFailure(ctx context.Context, endpointID string) error
}
