// Package seed generates the reproducibility seeds handed to the optimizer.
package seed

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

// ErrInvalidSeed is returned for seeds that are not non-negative decimal integers
var ErrInvalidSeed = errors.New("invalid seed")

// Seed parts are drawn from these half-open ranges and concatenated, so every
// generated seed is 6+6+7 = 19 digits long and starts with '1'.
var parts = [3][2]int{
	{100000, 200000},
	{100000, 999999},
	{1000000, 9999999},
}

// Generator draws seeds from a random source
type Generator struct {
	rand *utils.RandSource
}

// NewGenerator returns a generator backed by src. A nil src uses the
// process-wide default source.
func NewGenerator(src *utils.RandSource) *Generator {
	if src == nil {
		src = utils.Default()
	}
	return &Generator{rand: src}
}

// Generate returns one fresh seed
func (g *Generator) Generate() models.Seed {
	s := ""
	for _, r := range parts {
		s += strconv.Itoa(g.rand.IntRange(r[0], r[1]))
	}
	return models.Seed(s)
}

// GenerateN returns n distinct seeds
func (g *Generator) GenerateN(n int) []models.Seed {
	seen := make(map[models.Seed]bool, n)
	out := make([]models.Seed, 0, n)
	for len(out) < n {
		s := g.Generate()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// Generate draws a seed from the default source
func Generate() models.Seed {
	return NewGenerator(nil).Generate()
}

// Validate checks that s can be passed to the optimizer's --seed flag
func Validate(s string) (models.Seed, error) {
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidSeed)
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("%w: %q is not a decimal integer", ErrInvalidSeed, s)
		}
	}
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return "", fmt.Errorf("%w: %q does not fit in 64 bits", ErrInvalidSeed, s)
	}
	return models.Seed(s), nil
}
