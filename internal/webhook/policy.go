// Package webhook implements tenant-scoped webhook fan-out: signed HTTP
// delivery with a per-row audit trail and a separately scheduled retry sweep.
package webhook

import (
	"math"
	"time"
)

// Policy controls retry scheduling for failed deliveries.
//
// Base is the backoff unit; the delay after attempt n is Base * 2^n,
// capped at MaxInterval. MaxAttempts bounds the whole chain.
type Policy struct {
	Base        time.Duration
	MaxInterval time.Duration
	MaxAttempts int
}

// DefaultPolicy matches the delivery contract: exponential backoff in
// minutes with base 2, three attempts total, capped at 24 hours.
func DefaultPolicy() Policy {
	return Policy{
		Base:        time.Minute,
		MaxInterval: 24 * time.Hour,
		MaxAttempts: 3,
	}
}

// Delay returns the backoff after the given attempt number (1-based).
func (p Policy) Delay(attempt int) time.Duration {
	delay := time.Duration(float64(p.Base) * math.Pow(2, float64(attempt)))
	if delay > p.MaxInterval || delay <= 0 {
		delay = p.MaxInterval
	}
	return delay
}

// NextRetryAt returns when a delivery that just failed its attempt-th
// attempt should be retried.
func (p Policy) NextRetryAt(now time.Time, attempt int) time.Time {
	return now.Add(p.Delay(attempt))
}
