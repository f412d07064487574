package notes

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestName(t *testing.T) {
	tests := []struct {
		freq float64
		want string
	}{
		{440, "A4"},
		{880, "A5"},
		{220, "A3"},
		{261.63, "C4"},
		{246.94, "B3"},
		{82.41, "E2"},  // low E string
		{329.63, "E4"}, // high E string
		{466.16, "A#4"},
		{27.5, "A0"},
		{4186.01, "C8"},
		{16.35, "C0"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, Name(tt.freq))
		})
	}
}

func TestNameInvalid(t *testing.T) {
	for _, f := range []float64{0, -440, math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.Equal(t, "", Name(f))
		_, err := FromFrequency(f)
		assert.ErrorIs(t, err, ErrInvalidFrequency)
	}
}

func TestNearbyFrequenciesShareNote(t *testing.T) {
	for _, cents := range []float64{-20, -5, 0, 5, 20, 49} {
		f := 440 * math.Pow(2, cents/1200)
		assert.Equal(t, "A4", Name(f), "cents=%v", cents)
	}
}

func TestTieRoundsUp(t *testing.T) {
	// exactly halfway between A4 and A#4
	upper := 440 * math.Pow(2, 0.5/12)
	assert.Equal(t, "A#4", Name(upper))

	// exactly halfway between G#4 and A4
	lower := 440 * math.Pow(2, -0.5/12)
	assert.Equal(t, "A4", Name(lower))

	// halfway between B3 and C4 crosses the octave boundary upward
	bc := 440 * math.Pow(2, -9.5/12)
	assert.Equal(t, "C4", Name(bc))

	// below the reference ties still go up, G#3|A3 -> A3
	low := 440 * math.Pow(2, -12.5/12)
	assert.Equal(t, "A3", Name(low))
}

func TestFromFrequencyFields(t *testing.T) {
	n, err := FromFrequency(261.63)
	require.NoError(t, err)
	assert.Equal(t, "C", n.Name)
	assert.Equal(t, 4, n.Octave)
	assert.Equal(t, -9, n.Offset)
	assert.InDelta(t, 0, n.Cents, 1)
	assert.InDelta(t, 261.6256, n.Frequency(), 0.001)
}

func TestIdempotentOnNoteFrequency(t *testing.T) {
	for offset := -48; offset <= 48; offset++ {
		f := 440 * math.Pow(2, float64(offset)/12)
		n, err := FromFrequency(f)
		require.NoError(t, err)
		assert.Equal(t, offset, n.Offset)
		again, err := FromFrequency(n.Frequency())
		require.NoError(t, err)
		assert.Equal(t, n, again)
	}
}

func TestMonotonic(t *testing.T) {
	prev := math.MinInt
	for f := 30.0; f < 5000; f *= 1.01 {
		n, err := FromFrequency(f)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n.Offset, prev)
		prev = n.Offset
	}
}
