// Package config loads binary settings from flags, riffscout.yaml and
// RIFFSCOUT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/riffscout"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/analysis"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/completion"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/pitch"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/secrets"
)

const (
	EnvPrefix  = "RIFFSCOUT"
	ConfigName = "riffscout"
)

type Settings struct {
	Server     ServerSettings     `mapstructure:"server"`
	Log        LogSettings        `mapstructure:"log"`
	DB         DBSettings         `mapstructure:"db"`
	Temp       TempSettings       `mapstructure:"temp"`
	Media      MediaSettings      `mapstructure:"media"`
	Completion CompletionSettings `mapstructure:"completion"`
	Analysis   AnalysisSettings   `mapstructure:"analysis"`
	Download   DownloadSettings   `mapstructure:"download"`
	Audio      AudioSettings      `mapstructure:"audio"`
	YouTube    YouTubeSettings    `mapstructure:"youtube"`
}

type ServerSettings struct {
	Port    int      `mapstructure:"port"`
	Origins []string `mapstructure:"origins"`
}

type LogSettings struct {
	Level string `mapstructure:"level"`
}

type DBSettings struct {
	Path string `mapstructure:"path"`
}

type TempSettings struct {
	Dir string `mapstructure:"dir"`
}

type MediaSettings struct {
	Dir     string `mapstructure:"dir"`
	BaseURL string `mapstructure:"base_url"`
}

type CompletionSettings struct {
	URL         string        `mapstructure:"url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RPS         float64       `mapstructure:"rps"`
	KeyFile     string        `mapstructure:"key_file"`
}

type AnalysisSettings struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type DownloadSettings struct {
	Timeout time.Duration `mapstructure:"timeout"`
	MaxSize string        `mapstructure:"max_size"`
}

type AudioSettings struct {
	SampleRate   int     `mapstructure:"sample_rate"`
	Tempo        int     `mapstructure:"tempo"`
	Quantization int     `mapstructure:"quantization"`
	PitchMethod  string  `mapstructure:"pitch_method"`
	MinFrequency float64 `mapstructure:"min_frequency"`
	MaxFrequency float64 `mapstructure:"max_frequency"`
}

type YouTubeSettings struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	AutoInstall bool          `mapstructure:"auto_install"`
}

// SetDefaults registers every key so that AutomaticEnv can see it.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "riffscout.sqlite3")
	v.SetDefault("temp.dir", "/tmp")
	v.SetDefault("media.dir", "media")
	v.SetDefault("media.base_url", "http://localhost:8080")
	v.SetDefault("completion.url", completion.DefaultURL)
	v.SetDefault("completion.model", completion.DefaultModel)
	v.SetDefault("completion.temperature", completion.DefaultTemperature)
	v.SetDefault("completion.max_tokens", completion.DefaultMaxTokens)
	v.SetDefault("completion.timeout", completion.DefaultTimeout)
	v.SetDefault("completion.rps", 0.0)
	v.SetDefault("completion.key_file", "")
	v.SetDefault("analysis.url", analysis.DefaultURL)
	v.SetDefault("analysis.timeout", analysis.DefaultTimeout)
	v.SetDefault("download.timeout", audio.DefaultFetchTimeout)
	v.SetDefault("download.max_size", audio.DefaultMaxSize)
	v.SetDefault("audio.sample_rate", 44100)
	v.SetDefault("audio.tempo", pitch.DefaultTempo)
	v.SetDefault("audio.quantization", pitch.DefaultQuantization)
	pd := pitch.DefaultConfig()
	v.SetDefault("audio.pitch_method", string(pd.Method))
	v.SetDefault("audio.min_frequency", pd.MinFrequency)
	v.SetDefault("audio.max_frequency", pd.MaxFrequency)
	v.SetDefault("youtube.timeout", 5*time.Minute)
	v.SetDefault("youtube.auto_install", false)
}

// Load reads settings. Precedence is flags, then RIFFSCOUT_* variables, then
// the config file, then defaults. An empty path searches for riffscout.yaml
// in the working directory and /etc/riffscout; a missing file is not an
// error there. flags may be nil.
func Load(v *viper.Viper, path string, flags *pflag.FlagSet) (*Settings, error) {
	SetDefaults(v)
	if err := bindFlags(v, flags); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/riffscout")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	s.Server.Origins = splitOrigins(s.Server.Origins)
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// flagAliases maps short flag names onto their keys.
var flagAliases = map[string]string{
	"port":     "server.port",
	"origins":  "server.origins",
	"db":       "db.path",
	"temp":     "temp.dir",
	"rate":     "audio.sample_rate",
	"base-url": "media.base_url",
	"key-file": "completion.key_file",
}

// bindFlags binds each flag naming a known key, reading dashes as dots
// (--media-dir binds media.dir).
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}
	known := make(map[string]bool)
	for _, k := range v.AllKeys() {
		known[k] = true
	}
	var errs []error
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagAliases[f.Name]
		if !ok {
			key = strings.ReplaceAll(f.Name, "-", ".")
		}
		if !known[key] {
			return
		}
		if err := v.BindPFlag(key, f); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}

func (s *Settings) Validate() error {
	if s.Server.Port <= 0 || s.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", s.Server.Port)
	}
	if s.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive")
	}
	if s.Audio.Tempo <= 0 || s.Audio.Quantization <= 0 {
		return fmt.Errorf("audio.tempo and audio.quantization must be positive")
	}
	switch pitch.Method(s.Audio.PitchMethod) {
	case pitch.Autocorrelation, pitch.ZeroCrossing:
	default:
		return fmt.Errorf("audio.pitch_method must be %q or %q", pitch.Autocorrelation, pitch.ZeroCrossing)
	}
	if s.Audio.MinFrequency <= 0 || s.Audio.MaxFrequency <= s.Audio.MinFrequency {
		return fmt.Errorf("audio.min_frequency must be positive and below audio.max_frequency")
	}
	if s.Completion.RPS < 0 {
		return fmt.Errorf("completion.rps must not be negative")
	}
	return nil
}

// KeySource is the completion credential: the key file when configured,
// then $PERPLEXITY_API_KEY.
func (s *Settings) KeySource() secrets.Source {
	env := secrets.Env(completion.DefaultKeyEnv)
	if s.Completion.KeyFile == "" {
		return env
	}
	return secrets.Chain(secrets.File(s.Completion.KeyFile), env)
}

// ServiceOptions maps settings onto service options.
func (s *Settings) ServiceOptions() []riffscout.Option {
	return []riffscout.Option{
		riffscout.WithDBPath(s.DB.Path),
		riffscout.WithTempDir(s.Temp.Dir),
		riffscout.WithMediaDir(s.Media.Dir),
		riffscout.WithPublicBaseURL(s.Media.BaseURL),
		riffscout.WithSampleRate(s.Audio.SampleRate),
		riffscout.WithTempo(s.Audio.Tempo),
		riffscout.WithQuantization(s.Audio.Quantization),
		riffscout.WithPitchConfig(pitch.Config{
			Method:       pitch.Method(s.Audio.PitchMethod),
			MinFrequency: s.Audio.MinFrequency,
			MaxFrequency: s.Audio.MaxFrequency,
		}),
		riffscout.WithCompletionConfig(completion.Config{
			URL:               s.Completion.URL,
			Model:             s.Completion.Model,
			Temperature:       s.Completion.Temperature,
			MaxTokens:         s.Completion.MaxTokens,
			Timeout:           s.Completion.Timeout,
			RequestsPerSecond: s.Completion.RPS,
			Key:               s.KeySource(),
		}),
		riffscout.WithAnalysisConfig(analysis.Config{
			URL:     s.Analysis.URL,
			Timeout: s.Analysis.Timeout,
		}),
		riffscout.WithDownloadLimit(s.Download.Timeout, s.Download.MaxSize),
		riffscout.WithYouTubeTimeout(s.YouTube.Timeout),
		riffscout.WithAutoInstallYTDLP(s.YouTube.AutoInstall),
	}
}

// ApplyLogLevel sets the default logger's level from log.level.
func (s *Settings) ApplyLogLevel() {
	logger.SetLevel(logger.ParseLevel(s.Log.Level))
}

// splitOrigins accepts both a list and a single comma-separated entry.
func splitOrigins(in []string) []string {
	var out []string
	for _, o := range in {
		for _, part := range strings.Split(o, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
