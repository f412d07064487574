package audio

import (
	"errors"
	"image"
	"image/draw"

	"github.com/eligwz/spectrogram"
)

type SpectrogramOptions struct {
	Width  int
	Height int // also the number of frequency bins
	Log10  bool
}

// RenderSpectrogram draws samples onto a black canvas and writes a PNG.
func RenderSpectrogram(samples []float64, sampleRate int, outputPath string, opts SpectrogramOptions) error {
	if len(samples) == 0 {
		return errors.New("no samples to render")
	}
	if sampleRate <= 0 {
		return errors.New("sample rate must be positive")
	}
	if opts.Width <= 0 {
		opts.Width = 2048
	}
	if opts.Height <= 0 {
		opts.Height = 512
	}

	img := spectrogram.NewImage128(image.Rect(0, 0, opts.Width, opts.Height))
	black := spectrogram.ParseColor("000000")
	draw.Draw(img, img.Bounds(), image.NewUniform(black), image.Point{}, draw.Src)

	// Hamming window, FFT, magnitude
	spectrogram.Drawfft(
		img,
		samples,
		uint32(sampleRate),
		uint32(opts.Height),
		false,
		false,
		true,
		opts.Log10,
	)

	return spectrogram.SavePng(img, outputPath)
}
