package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/RiffScout/pkg/riffscout"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/analysis"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/completion"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/pitch"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	s, err := Load(viper.New(), "", nil)
	require.NoError(t, err)

	assert.Equal(t, 8080, s.Server.Port)
	assert.Equal(t, []string{"*"}, s.Server.Origins)
	assert.Equal(t, "riffscout.sqlite3", s.DB.Path)
	assert.Equal(t, completion.DefaultURL, s.Completion.URL)
	assert.Equal(t, completion.DefaultTemperature, s.Completion.Temperature)
	assert.Equal(t, completion.DefaultTimeout, s.Completion.Timeout)
	assert.Equal(t, "100 MB", s.Download.MaxSize)
	assert.Equal(t, 120, s.Audio.Tempo)
	assert.Equal(t, 4, s.Audio.Quantization)
}

func TestLoadFileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	yaml := `
server:
  port: 9000
  origins: ["https://a.example", "https://b.example"]
db:
  path: /data/videos.sqlite3
completion:
  timeout: 15s
  rps: 2
audio:
  tempo: 90
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "riffscout.yaml"), []byte(yaml), 0o644))

	t.Setenv("RIFFSCOUT_AUDIO_TEMPO", "100")
	t.Setenv("RIFFSCOUT_MEDIA_BASE_URL", "https://cdn.example.com")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 8080, "")
	fs.String("db", "", "")
	require.NoError(t, fs.Parse([]string{"--port", "7000"}))

	s, err := Load(viper.New(), "", fs)
	require.NoError(t, err)

	assert.Equal(t, 7000, s.Server.Port, "flag beats file")
	assert.Equal(t, "/data/videos.sqlite3", s.DB.Path, "unset flag keeps file value")
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.Server.Origins)
	assert.Equal(t, 15*time.Second, s.Completion.Timeout)
	assert.Equal(t, 2.0, s.Completion.RPS)
	assert.Equal(t, 100, s.Audio.Tempo, "env beats file")
	assert.Equal(t, "https://cdn.example.com", s.Media.BaseURL)
}

func TestLoadOriginsFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RIFFSCOUT_SERVER_ORIGINS", "https://a.example, https://b.example")

	s, err := Load(viper.New(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, s.Server.Origins)
}

func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("RIFFSCOUT_AUDIO_QUANTIZATION", "0")

	_, err := Load(viper.New(), "", nil)
	assert.Error(t, err)
}

func TestKeySource(t *testing.T) {
	t.Setenv(completion.DefaultKeyEnv, "from-env")

	s := &Settings{}
	v, err := s.KeySource().Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", v)

	keyFile := filepath.Join(t.TempDir(), "key")
	require.NoError(t, os.WriteFile(keyFile, []byte("from-file\n"), 0o600))
	s.Completion.KeyFile = keyFile
	v, err = s.KeySource().Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-file", v)

	s.Completion.KeyFile = filepath.Join(t.TempDir(), "missing")
	v, err = s.KeySource().Secret(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from-env", v, "falls back to the environment")
}

func TestServiceOptions(t *testing.T) {
	chdir(t, t.TempDir())
	s, err := Load(viper.New(), "", nil)
	require.NoError(t, err)
	s.Completion.RPS = 3

	var cfg riffscout.Config
	for _, opt := range s.ServiceOptions() {
		opt(&cfg)
	}
	assert.Equal(t, s.DB.Path, cfg.DBPath)
	assert.Equal(t, s.Media.BaseURL, cfg.PublicBaseURL)
	assert.Equal(t, 44100, cfg.SampleRate)
	assert.Equal(t, 3.0, cfg.Completion.RequestsPerSecond)
	assert.NotNil(t, cfg.Completion.Key)
	assert.Equal(t, analysis.DefaultURL, cfg.Analysis.URL)
	assert.Equal(t, "100 MB", cfg.Download.MaxSize)
	assert.Equal(t, pitch.Autocorrelation, cfg.Pitch.Method)
	assert.Equal(t, 50.0, cfg.Pitch.MinFrequency)
	assert.Equal(t, 2000.0, cfg.Pitch.MaxFrequency)
}

func TestPitchSettings(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("RIFFSCOUT_AUDIO_PITCH_METHOD", "zero-crossing")
	t.Setenv("RIFFSCOUT_AUDIO_MAX_FREQUENCY", "1200")
	s, err := Load(viper.New(), "", nil)
	require.NoError(t, err)

	var cfg riffscout.Config
	for _, opt := range s.ServiceOptions() {
		opt(&cfg)
	}
	assert.Equal(t, pitch.ZeroCrossing, cfg.Pitch.Method)
	assert.Equal(t, 1200.0, cfg.Pitch.MaxFrequency)

	t.Setenv("RIFFSCOUT_AUDIO_PITCH_METHOD", "yin")
	_, err = Load(viper.New(), "", nil)
	assert.Error(t, err)
}
