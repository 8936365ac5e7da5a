package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearScale_Map(t *testing.T) {
	s := newLinearScale(0, 10, 100, 0)
	assert.InDelta(t, 100, s.Map(0), 1e-9)
	assert.InDelta(t, 50, s.Map(5), 1e-9)
	assert.InDelta(t, 0, s.Map(10), 1e-9)

	degenerate := newLinearScale(5, 5, 0, 200)
	assert.InDelta(t, 100, degenerate.Map(5), 1e-9)
	assert.InDelta(t, 100, degenerate.Map(42), 1e-9)
}

func TestLinearTicks(t *testing.T) {
	tests := []struct {
		name        string
		start, stop float64
		want        []float64
	}{
		{"unit range", 0, 10, []float64{0, 2, 4, 6, 8, 10}},
		{"fractional step", 99, 101, []float64{99, 99.5, 100, 100.5, 101}},
		{"offset range", 99, 111, []float64{100, 102, 104, 106, 108, 110}},
		{"single value", 7, 7, []float64{7}},
		{"reversed", 10, 0, []float64{10, 8, 6, 4, 2, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := linearTicks(tt.start, tt.stop, 6)
			require.Len(t, got, len(tt.want))
			for i := range tt.want {
				assert.InDelta(t, tt.want[i], got[i], 1e-9)
			}
		})
	}
}

func TestLinearTicks_InvalidCount(t *testing.T) {
	assert.Nil(t, linearTicks(0, 10, 0))
	assert.Nil(t, linearTicks(math.NaN(), 10, 6))
}

func TestNiceDomain(t *testing.T) {
	tests := []struct {
		name         string
		start, stop  float64
		wantLo, wantHi float64
	}{
		{"rounds outward", 0.5, 9.7, 0, 10},
		{"already nice", 0, 100, 0, 100},
		{"padded flat series", 99, 101, 99, 101},
		{"padded trend", 99.5, 110.5, 99, 111},
		{"large values", 41234, 68950, 40000, 70000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := niceDomain(tt.start, tt.stop, 10)
			assert.InDelta(t, tt.wantLo, lo, 1e-9)
			assert.InDelta(t, tt.wantHi, hi, 1e-9)
			assert.LessOrEqual(t, lo, tt.start)
			assert.GreaterOrEqual(t, hi, tt.stop)
		})
	}
}

func TestPaddedExtent(t *testing.T) {
	tests := []struct {
		name     string
		lo, hi   float64
		minWidth float64
	}{
		{"flat at zero", 0, 0, 2},
		{"flat small", 5, 5, 2},
		{"flat large", 1e6, 1e6, 2e4},
		{"flat negative", -500, -500, 10},
		{"trend", 100, 110, 11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := paddedExtent(tt.lo, tt.hi)
			assert.GreaterOrEqual(t, hi-lo, tt.minWidth-1e-9)
			assert.Less(t, lo, tt.lo)
			assert.Greater(t, hi, tt.hi)
		})
	}
}
