package audio

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

var ErrNotWAV = errors.New("not a valid WAV file")

// PCM is decoded audio normalized to [-1, 1]. Data is interleaved.
type PCM struct {
	SampleRate  int
	NumChannels int
	BitDepth    int
	Data        []float64
}

// Frames is the number of samples per channel.
func (p *PCM) Frames() int {
	if p.NumChannels == 0 {
		return 0
	}
	return len(p.Data) / p.NumChannels
}

// Channel returns a copy of one deinterleaved channel.
func (p *PCM) Channel(ch int) []float64 {
	if ch < 0 || ch >= p.NumChannels {
		return nil
	}
	out := make([]float64, 0, p.Frames())
	for i := ch; i < len(p.Data); i += p.NumChannels {
		out = append(out, p.Data[i])
	}
	return out
}

func (p *PCM) DurationSeconds() float64 {
	if p.SampleRate == 0 {
		return 0
	}
	return float64(p.Frames()) / float64(p.SampleRate)
}

// IsWAV sniffs the RIFF/WAVE magic bytes.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// DecodeWAV decodes an in-memory WAV file.
func DecodeWAV(data []byte) (*PCM, error) {
	if !IsWAV(data) {
		return nil, ErrNotWAV
	}

	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, ErrNotWAV
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("reading PCM data: %w", err)
	}

	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: %d channels, %d bit", ErrNotWAV, channels, bitDepth)
	}

	samples := make([]float64, len(buf.Data))
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		for i, v := range buf.Data {
			samples[i] = (float64(v) - 128) / 128
		}
	} else {
		maxVal := float64(int64(1) << (uint(bitDepth) - 1))
		for i, v := range buf.Data {
			samples[i] = float64(v) / maxVal
		}
	}

	return &PCM{
		SampleRate:  int(decoder.SampleRate),
		NumChannels: channels,
		BitDepth:    bitDepth,
		Data:        samples,
	}, nil
}

// WriteWAV encodes interleaved samples in [-1, 1] as 16-bit PCM.
func WriteWAV(path string, samples []float64, sampleRate, numChannels int) error {
	if numChannels <= 0 {
		numChannels = 1
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChannels, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           make([]int, len(samples)),
		SourceBitDepth: 16,
	}
	for i, s := range samples {
		s = math.Max(-1, math.Min(1, s))
		buf.Data[i] = int(math.Round(s * 32767))
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	return enc.Close()
}
