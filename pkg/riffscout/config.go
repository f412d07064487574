package riffscout

import (
	"time"

	"github.com/himanishpuri/RiffScout/pkg/riffscout/analysis"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/completion"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/pitch"
)

type Config struct {
	DBPath        string
	TempDir       string
	MediaDir      string
	PublicBaseURL string

	SampleRate   int
	Tempo        int
	Quantization int
	Pitch        pitch.Config

	Completion completion.Config
	Analysis   analysis.Config
	Download   audio.FetchConfig

	YouTubeTimeout   time.Duration
	AutoInstallYTDLP bool

	Logger     Logger
	Store      Store
	Completer  Completer
	Analyzer   Analyzer
	Fetcher    Fetcher
	Transcoder Transcoder
	Downloader Downloader
}

type Option func(*Config)

func WithDBPath(path string) Option {
	return func(c *Config) {
		c.DBPath = path
	}
}

func WithTempDir(dir string) Option {
	return func(c *Config) {
		c.TempDir = dir
	}
}

// WithMediaDir sets where extracted mp3 files are written.
func WithMediaDir(dir string) Option {
	return func(c *Config) {
		c.MediaDir = dir
	}
}

// WithPublicBaseURL sets the prefix of mp3 URLs stored on ingested videos.
func WithPublicBaseURL(url string) Option {
	return func(c *Config) {
		c.PublicBaseURL = url
	}
}

func WithSampleRate(rate int) Option {
	return func(c *Config) {
		c.SampleRate = rate
	}
}

func WithTempo(bpm int) Option {
	return func(c *Config) {
		c.Tempo = bpm
	}
}

func WithQuantization(q int) Option {
	return func(c *Config) {
		c.Quantization = q
	}
}

func WithPitchConfig(cfg pitch.Config) Option {
	return func(c *Config) {
		c.Pitch = cfg
	}
}

func WithCompletionConfig(cfg completion.Config) Option {
	return func(c *Config) {
		c.Completion = cfg
	}
}

func WithAnalysisConfig(cfg analysis.Config) Option {
	return func(c *Config) {
		c.Analysis = cfg
	}
}

// WithDownloadLimit bounds audio downloads by time and size ("100 MB").
func WithDownloadLimit(timeout time.Duration, maxSize string) Option {
	return func(c *Config) {
		c.Download.Timeout = timeout
		c.Download.MaxSize = maxSize
	}
}

func WithYouTubeTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.YouTubeTimeout = timeout
	}
}

func WithAutoInstallYTDLP(enabled bool) Option {
	return func(c *Config) {
		c.AutoInstallYTDLP = enabled
	}
}

func WithLogger(log Logger) Option {
	return func(c *Config) {
		c.Logger = log
	}
}

func WithStore(store Store) Option {
	return func(c *Config) {
		c.Store = store
	}
}

func WithCompleter(completer Completer) Option {
	return func(c *Config) {
		c.Completer = completer
	}
}

func WithAnalyzer(analyzer Analyzer) Option {
	return func(c *Config) {
		c.Analyzer = analyzer
	}
}

func WithFetcher(fetcher Fetcher) Option {
	return func(c *Config) {
		c.Fetcher = fetcher
	}
}

func WithTranscoder(transcoder Transcoder) Option {
	return func(c *Config) {
		c.Transcoder = transcoder
	}
}

func WithDownloader(downloader Downloader) Option {
	return func(c *Config) {
		c.Downloader = downloader
	}
}

func defaultConfig() *Config {
	return &Config{
		DBPath:        "riffscout.sqlite3",
		TempDir:       "/tmp",
		MediaDir:      "media",
		PublicBaseURL: "http://localhost:8080",
		SampleRate:    44100,
		Tempo:         pitch.DefaultTempo,
		Quantization:  pitch.DefaultQuantization,
		Pitch:         pitch.DefaultConfig(),
		Completion:    completion.DefaultConfig(),
		Analysis: analysis.Config{
			URL:       analysis.DefaultURL,
			FieldName: analysis.DefaultFieldName,
			Timeout:   analysis.DefaultTimeout,
		},
		Download: audio.FetchConfig{
			Timeout: audio.DefaultFetchTimeout,
			MaxSize: audio.DefaultMaxSize,
		},
		YouTubeTimeout: 5 * time.Minute,
	}
}
