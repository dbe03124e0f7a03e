package utils

import (
	"math/rand"
	"sync"
	"time"
)

// RandSource is a mutex-guarded random number generator
type RandSource struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandSource creates a new random source with the given seed.
// A zero seed draws from the clock.
func NewRandSource(seed int64) *RandSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandSource{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// Intn returns a random int in [0, n)
func (r *RandSource) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rng.Intn(n)
}

// IntRange returns a random int in [min, max). It panics if max <= min.
func (r *RandSource) IntRange(min, max int) int {
	if max <= min {
		panic("utils: IntRange requires max > min")
	}
	return min + r.Intn(max-min)
}

// Global default random source
var defaultRand = NewRandSource(0)

// Default returns the process-wide random source
func Default() *RandSource {
	return defaultRand
}
