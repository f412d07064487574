package pitch

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sine(freq float64, sampleRate, n int, amp float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return out
}

// guitarLike adds decaying harmonics on top of the fundamental.
func guitarLike(freq float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		t := float64(i) / float64(sampleRate)
		for h := 1; h <= 5; h++ {
			out[i] += (0.6 / float64(h)) * math.Sin(2*math.Pi*freq*float64(h)*t)
		}
	}
	return out
}

func TestEstimateSine(t *testing.T) {
	const sr = 44100
	d := NewDetector(DefaultConfig())

	for _, f := range []float64{82.41, 110, 196, 440, 659.25, 1318.5} {
		got := d.Estimate(sine(f, sr, 4096, 0.5), sr)
		assert.InDelta(t, f, got, f*0.01, "freq %v", f)
	}
}

func TestEstimateHarmonicSignal(t *testing.T) {
	const sr = 44100
	d := NewDetector(DefaultConfig())

	for _, f := range []float64{110, 146.83, 246.94} {
		got := d.Estimate(guitarLike(f, sr, 4096), sr)
		assert.InDelta(t, f, got, f*0.02, "freq %v", f)
	}
}

func TestEstimateZeroCrossing(t *testing.T) {
	const sr = 22050
	d := NewDetector(Config{Method: ZeroCrossing})

	got := d.Estimate(sine(220, sr, 4096, 0.8), sr)
	assert.InDelta(t, 220, got, 1)
}

func TestEstimateUnvoiced(t *testing.T) {
	const sr = 44100
	d := NewDetector(DefaultConfig())

	t.Run("silence", func(t *testing.T) {
		assert.Zero(t, d.Estimate(make([]float64, 4096), sr))
	})

	t.Run("below the silence gate", func(t *testing.T) {
		assert.Zero(t, d.Estimate(sine(440, sr, 4096, 0.001), sr))
	})

	t.Run("white noise", func(t *testing.T) {
		rng := rand.New(rand.NewSource(7))
		noise := make([]float64, 4096)
		for i := range noise {
			noise[i] = rng.Float64()*2 - 1
		}
		assert.Zero(t, d.Estimate(noise, sr))
	})

	t.Run("too short", func(t *testing.T) {
		assert.Zero(t, d.Estimate([]float64{0.1, -0.1}, sr))
	})
}

func TestChunkSize(t *testing.T) {
	assert.Equal(t, 5513, ChunkSize(44100, 120, 4))
	assert.Equal(t, 11025, ChunkSize(44100, 60, 4))
	assert.Equal(t, 2756, ChunkSize(22050, 120, 4))
}

func TestFrequencies(t *testing.T) {
	const sr = 22050
	d := NewDetector(DefaultConfig())
	chunk := ChunkSize(sr, DefaultTempo, DefaultQuantization)

	// two voiced windows, one silent window, then a partial window
	signal := append(sine(440, sr, 2*chunk, 0.5), make([]float64, chunk+chunk/2)...)

	samples, err := d.Frequencies(signal, sr, DefaultTempo, DefaultQuantization)
	require.NoError(t, err)
	require.Len(t, samples, 3)

	assert.InDelta(t, 440, samples[0].Frequency, 5)
	assert.Equal(t, "A4", samples[0].Note)
	assert.InDelta(t, float64(chunk)/sr, samples[1].Time, 1e-9)
	assert.Zero(t, samples[2].Frequency)
	assert.Empty(t, samples[2].Note)
}

func TestFrequenciesInvalid(t *testing.T) {
	d := NewDetector(DefaultConfig())

	_, err := d.Frequencies([]float64{0}, 0, 120, 4)
	assert.Error(t, err)
	_, err = d.Frequencies([]float64{0}, 44100, 0, 4)
	assert.Error(t, err)

	samples, err := d.Frequencies(make([]float64, 10), 44100, 120, 4)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestAutocorrelateMatchesDirect(t *testing.T) {
	frame := []float64{1, 2, 3, -1, 0.5}
	got := Autocorrelate(frame)
	for lag := range frame {
		var want float64
		for i := 0; i+lag < len(frame); i++ {
			want += frame[i] * frame[i+lag]
		}
		assert.InDelta(t, want, got[lag], 1e-9, "lag %d", lag)
	}
}

func TestChannel(t *testing.T) {
	stereo := []float64{1, -1, 2, -2, 3, -3, 4}

	left, err := Channel(stereo, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3}, left)

	right, err := Channel(stereo, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{-1, -2, -3}, right)

	mono, err := Channel(stereo, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, stereo, mono)

	_, err = Channel(stereo, 0, 0)
	assert.Error(t, err)
	_, err = Channel(stereo, 2, 2)
	assert.Error(t, err)
}
