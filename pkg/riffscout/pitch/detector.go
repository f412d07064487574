package pitch

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/notes"
)

type Method string

const (
	Autocorrelation Method = "autocorrelation"
	ZeroCrossing    Method = "zero-crossing"
)

const (
	DefaultTempo        = 120
	DefaultQuantization = 4
)

type Config struct {
	Method       Method
	MinFrequency float64 // lowest pitch searched, Hz
	MaxFrequency float64 // highest pitch searched, Hz
	SilenceRMS   float64 // frames quieter than this are unvoiced
	Clarity      float64 // minimum normalized autocorrelation peak
}

func DefaultConfig() Config {
	return Config{
		Method:       Autocorrelation,
		MinFrequency: 50,
		MaxFrequency: 2000,
		SilenceRMS:   0.01,
		Clarity:      0.5,
	}
}

type Detector struct {
	cfg Config
}

// NewDetector returns a detector, filling unset fields from DefaultConfig.
func NewDetector(cfg Config) *Detector {
	def := DefaultConfig()
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.MinFrequency <= 0 {
		cfg.MinFrequency = def.MinFrequency
	}
	if cfg.MaxFrequency <= cfg.MinFrequency {
		cfg.MaxFrequency = def.MaxFrequency
	}
	if cfg.SilenceRMS <= 0 {
		cfg.SilenceRMS = def.SilenceRMS
	}
	if cfg.Clarity <= 0 {
		cfg.Clarity = def.Clarity
	}
	return &Detector{cfg: cfg}
}

// ChunkSize is the number of samples in one analysis window: one note of
// the given quantization (4 = quarter notes) at tempo beats per minute.
func ChunkSize(sampleRate, tempo, quantization int) int {
	return int(math.Round(float64(sampleRate) * 60 / float64(quantization*tempo)))
}

// Frequencies splits samples into consecutive windows of ChunkSize and
// estimates one fundamental per window. A trailing partial window is
// dropped.
func (d *Detector) Frequencies(samples []float64, sampleRate, tempo, quantization int) ([]models.PitchSample, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if tempo <= 0 || quantization <= 0 {
		return nil, fmt.Errorf("tempo and quantization must be positive (got %d, %d)", tempo, quantization)
	}

	chunk := ChunkSize(sampleRate, tempo, quantization)
	if chunk < 2 {
		return nil, errors.New("analysis window shorter than two samples")
	}

	out := make([]models.PitchSample, 0, len(samples)/chunk)
	for start := 0; start+chunk <= len(samples); start += chunk {
		f := d.Estimate(samples[start:start+chunk], sampleRate)
		out = append(out, models.PitchSample{
			Time:      float64(start) / float64(sampleRate),
			Frequency: f,
			Note:      notes.Name(f),
		})
	}
	return out, nil
}

// Channel extracts channel ch from interleaved samples. A trailing
// incomplete frame is ignored.
func Channel(interleaved []float64, channels, ch int) ([]float64, error) {
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}
	if ch < 0 || ch >= channels {
		return nil, fmt.Errorf("channel %d out of range for %d channels", ch, channels)
	}
	if channels == 1 {
		return interleaved, nil
	}
	frames := len(interleaved) / channels
	out := make([]float64, frames)
	for i := range out {
		out[i] = interleaved[i*channels+ch]
	}
	return out, nil
}

// Estimate returns the fundamental frequency of frame in Hz, or 0 when the
// frame is silent or has no clear periodicity.
func (d *Detector) Estimate(frame []float64, sampleRate int) float64 {
	if len(frame) < 4 || sampleRate <= 0 {
		return 0
	}

	centered := removeMean(frame)
	if rms(centered) < d.cfg.SilenceRMS {
		return 0
	}

	var f float64
	switch d.cfg.Method {
	case ZeroCrossing:
		f = zeroCrossingPitch(centered, sampleRate)
	default:
		f = d.autocorrelationPitch(centered, sampleRate)
	}

	if f < d.cfg.MinFrequency || f > d.cfg.MaxFrequency {
		return 0
	}
	return f
}

func (d *Detector) autocorrelationPitch(frame []float64, sampleRate int) float64 {
	r := Autocorrelate(frame)
	if r[0] <= 0 {
		return 0
	}

	n := len(r)
	minLag := int(math.Floor(float64(sampleRate) / d.cfg.MaxFrequency))
	maxLag := int(math.Ceil(float64(sampleRate) / d.cfg.MinFrequency))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag > n-2 {
		maxLag = n - 2
	}
	if minLag >= maxLag {
		return 0
	}

	// skip the lobe around lag 0
	start := 1
	for start < maxLag && r[start] > 0 {
		start++
	}
	if start >= maxLag {
		return 0
	}
	if start < minLag {
		start = minLag
	}

	peak := start
	for lag := start; lag <= maxLag; lag++ {
		if r[lag] > r[peak] {
			peak = lag
		}
	}
	if r[peak]/r[0] < d.cfg.Clarity {
		return 0
	}

	// earliest local maximum close to the best one avoids picking a
	// multiple of the true period
	threshold := 0.9 * r[peak]
	for lag := start + 1; lag < peak; lag++ {
		if r[lag] >= threshold && r[lag] >= r[lag-1] && r[lag] >= r[lag+1] {
			peak = lag
			break
		}
	}

	return float64(sampleRate) / parabolicPeak(r, peak)
}

// Autocorrelate returns the linear (non-circular) autocorrelation of frame
// for lags 0..len(frame)-1, computed through the FFT.
func Autocorrelate(frame []float64) []float64 {
	n := len(frame)
	size := nextPow2(2 * n)
	padded := make([]float64, size)
	copy(padded, frame)

	spectrum := fft.FFTReal(padded)
	for i, c := range spectrum {
		m := cmplx.Abs(c)
		spectrum[i] = complex(m*m, 0)
	}
	inv := fft.IFFT(spectrum)

	out := make([]float64, n)
	for i := range out {
		out[i] = real(inv[i])
	}
	return out
}

// parabolicPeak refines an integer peak position using its neighbours.
func parabolicPeak(r []float64, i int) float64 {
	if i <= 0 || i >= len(r)-1 {
		return float64(i)
	}
	a, b, c := r[i-1], r[i], r[i+1]
	denom := a - 2*b + c
	if denom == 0 {
		return float64(i)
	}
	return float64(i) + 0.5*(a-c)/denom
}

// zeroCrossingPitch measures the mean spacing of upward zero crossings.
func zeroCrossingPitch(frame []float64, sampleRate int) float64 {
	first, last := -1.0, -1.0
	count := 0
	for i := 1; i < len(frame); i++ {
		if frame[i-1] < 0 && frame[i] >= 0 {
			// linear interpolation of the crossing point
			t := float64(i-1) + frame[i-1]/(frame[i-1]-frame[i])
			if first < 0 {
				first = t
			}
			last = t
			count++
		}
	}
	if count < 2 || last <= first {
		return 0
	}
	return float64(count-1) * float64(sampleRate) / (last - first)
}

func removeMean(frame []float64) []float64 {
	var sum float64
	for _, v := range frame {
		sum += v
	}
	mean := sum / float64(len(frame))
	out := make([]float64, len(frame))
	for i, v := range frame {
		out[i] = v - mean
	}
	return out
}

func rms(frame []float64) float64 {
	var sum float64
	for _, v := range frame {
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(frame)))
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
