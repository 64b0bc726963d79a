package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ptr(f float64) *float64 { return &f }

func TestPlaceBetween(t *testing.T) {
	tests := []struct {
		name string
		lo   *float64
		hi   *float64
		want float64
	}{
		{"empty ordering", nil, nil, 1.0},
		{"midpoint", ptr(1.0), ptr(3.0), 2.0},
		{"after tail", ptr(3.0), nil, 4.0},
		{"before head", nil, ptr(1.0), 0.0},
		{"tight midpoint", ptr(1.0), ptr(1.5), 1.25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, placeBetween(tt.lo, tt.hi, 0.5))
		})
	}
}

func TestPlaceBetween_RandomFractionStaysInBounds(t *testing.T) {
	lo, hi := 1.0, 3.0
	for range 100 {
		f := randomFraction()
		got := placeBetween(&lo, &hi, f)
		assert.Greater(t, got, lo)
		assert.Less(t, got, hi)
	}
}

func TestGapExhausted(t *testing.T) {
	assert.False(t, gapExhausted(nil, nil))
	assert.False(t, gapExhausted(ptr(1.0), nil))
	assert.False(t, gapExhausted(ptr(1.0), ptr(2.0)))
	assert.True(t, gapExhausted(ptr(1.0), ptr(1.0+1e-9)))
}
