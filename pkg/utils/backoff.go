package utils

import (
	"math"
	"time"
)

// BackoffStrategy decides how long to wait before retrying a failed invocation
type BackoffStrategy interface {
	// NextDelay returns the delay for the given attempt number (0-indexed)
	NextDelay(attempt int) time.Duration
}

// ConstantBackoff waits the same delay before every retry
type ConstantBackoff struct {
	Delay time.Duration
}

// NextDelay returns the constant delay
func (cb *ConstantBackoff) NextDelay(attempt int) time.Duration {
	return cb.Delay
}

// ExponentialBackoff doubles the delay per attempt up to MaxDelay
type ExponentialBackoff struct {
	BaseDelay  time.Duration
	Multiplier float64
	MaxDelay   time.Duration
}

// NextDelay returns the exponentially increasing delay
func (eb *ExponentialBackoff) NextDelay(attempt int) time.Duration {
	multiplier := eb.Multiplier
	if multiplier <= 0 {
		multiplier = 2.0
	}
	delay := float64(eb.BaseDelay) * math.Pow(multiplier, float64(attempt))
	if eb.MaxDelay > 0 && delay > float64(eb.MaxDelay) {
		delay = float64(eb.MaxDelay)
	}
	return time.Duration(delay)
}

// BackoffFromConfig creates a backoff strategy from config parameters.
// Unknown kinds fall back to exponential.
func BackoffFromConfig(kind string, base, max time.Duration) BackoffStrategy {
	if max == 0 {
		max = 5 * time.Minute
	}

	switch kind {
	case "constant":
		return &ConstantBackoff{Delay: base}
	default:
		return &ExponentialBackoff{BaseDelay: base, Multiplier: 2.0, MaxDelay: max}
	}
}
