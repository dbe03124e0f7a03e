package utils

import (
	"testing"
	"time"
)

func TestConstantBackoff(t *testing.T) {
	backoff := &ConstantBackoff{Delay: 100 * time.Millisecond}

	for i := 0; i < 5; i++ {
		if got := backoff.NextDelay(i); got != 100*time.Millisecond {
			t.Errorf("Attempt %d: expected 100ms, got %v", i, got)
		}
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{BaseDelay: 100 * time.Millisecond, Multiplier: 2, MaxDelay: time.Second}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{2, 400 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{4, time.Second}, // capped at max
	}

	for _, tt := range tests {
		if got := backoff.NextDelay(tt.attempt); got != tt.expected {
			t.Errorf("Attempt %d: expected %v, got %v", tt.attempt, tt.expected, got)
		}
	}
}

func TestBackoffFromConfig(t *testing.T) {
	tests := []struct {
		name    string
		kind    string
		attempt int
		want    time.Duration
	}{
		{"constant", "constant", 3, time.Second},
		{"exponential", "exponential", 2, 4 * time.Second},
		{"unknown defaults to exponential", "fibonacci", 1, 2 * time.Second},
		{"exponential capped by default max", "exponential", 20, 5 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backoff := BackoffFromConfig(tt.kind, time.Second, 0)
			if got := backoff.NextDelay(tt.attempt); got != tt.want {
				t.Errorf("NextDelay(%d) = %v, want %v", tt.attempt, got, tt.want)
			}
		})
	}
}
