package seed

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anetsop/rosterlab/pkg/models"
	"github.com/anetsop/rosterlab/pkg/utils"
)

func TestGenerateShape(t *testing.T) {
	g := NewGenerator(utils.NewRandSource(42))
	for i := 0; i < 500; i++ {
		s := g.Generate().String()
		require.Len(t, s, 19, "seed %s", s)
		assert.True(t, strings.HasPrefix(s, "1"), "seed %s", s)

		_, err := Validate(s)
		assert.NoError(t, err)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := NewGenerator(utils.NewRandSource(7)).GenerateN(5)
	b := NewGenerator(utils.NewRandSource(7)).GenerateN(5)
	assert.Equal(t, a, b)
}

func TestGenerateNDistinct(t *testing.T) {
	seeds := NewGenerator(utils.NewRandSource(3)).GenerateN(200)
	require.Len(t, seeds, 200)

	seen := make(map[models.Seed]bool)
	for _, s := range seeds {
		assert.False(t, seen[s], "duplicate seed %s", s)
		seen[s] = true
	}
}

func TestGenerateDefaultSource(t *testing.T) {
	assert.Len(t, Generate().String(), 19)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"123", false},
		{"0", false},
		{"1234567890123456789", false},
		{"", true},
		{"-5", true},
		{"12a", true},
		{" 12", true},
		{"99999999999999999999", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			s, err := Validate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidSeed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, models.Seed(tt.in), s)
		})
	}
}
