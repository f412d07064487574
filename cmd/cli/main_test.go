package main

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/completion"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := execute(&out, &out, args...)
	return out.String(), err
}

func execute(stdout, stderr *bytes.Buffer, args ...string) error {
	root := newRootCmd()
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetArgs(args)
	return root.Execute()
}

func TestNoteCommand(t *testing.T) {
	out, err := run(t, "note", "440", "261.63", "329.63")
	require.NoError(t, err)
	assert.Contains(t, out, "A4")
	assert.Contains(t, out, "C4")
	assert.Contains(t, out, "E4")

	_, err = run(t, "note", "abc")
	assert.Error(t, err)
	_, err = run(t, "note", "0")
	assert.Error(t, err)
}

func TestNoteCommandJSON(t *testing.T) {
	out, err := run(t, "--json", "note", "110")
	require.NoError(t, err)

	var got []struct {
		Frequency float64 `json:"frequency"`
		Note      string  `json:"note"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "A2", got[0].Note)
}

func TestVideosCommands(t *testing.T) {
	dir := t.TempDir()
	common := []string{"--db", filepath.Join(dir, "cli.sqlite3"), "--media-dir", filepath.Join(dir, "media"), "--json"}
	with := func(args ...string) []string {
		return append(append([]string{}, common...), args...)
	}

	out, err := run(t, with("videos", "add", "--id", "v1", "--title", "Blackbird", "--artist", "The Beatles", "--mp3-url", "https://cdn.example.com/v1.mp3")...)
	require.NoError(t, err)
	var created models.Video
	require.NoError(t, json.Unmarshal([]byte(out), &created))
	assert.Equal(t, "v1", created.ID)
	assert.Equal(t, "Blackbird", created.Title)

	_, err = run(t, with("videos", "add", "--artist", "nobody")...)
	assert.Error(t, err, "title is required")

	out, err = run(t, with("videos", "list")...)
	require.NoError(t, err)
	var list []models.Video
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 1)

	out, err = run(t, with("lookup", "v1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "https://cdn.example.com/v1.mp3")

	_, err = run(t, with("videos", "get", "v1")...)
	require.NoError(t, err)

	_, err = run(t, with("videos", "delete", "v1")...)
	require.NoError(t, err)

	_, err = run(t, with("videos", "get", "v1")...)
	assert.Error(t, err)
}

func TestGatherJSONKeepsProgressOffStdout(t *testing.T) {
	const content = `{"tabs": [{"difficulty": "beginner", "rating": "4.7/5", "title": "Blackbird Tab", "type": "tab", "url": "https://tabs.example.com/blackbird"}],
"guitarproUrl": "",
"tutorials": [{"channelName": "Lessons", "title": "Blackbird Lesson", "url": "https://www.youtube.com/watch?v=abc123", "viewCount": "1M views"}]}`
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"role": "assistant", "content": content}}},
		})
	}))
	defer upstream.Close()
	t.Setenv("RIFFSCOUT_COMPLETION_URL", upstream.URL)
	t.Setenv(completion.DefaultKeyEnv, "cli-test-key")

	dir := t.TempDir()
	common := []string{"--db", filepath.Join(dir, "cli.sqlite3"), "--media-dir", filepath.Join(dir, "media")}
	_, err := run(t, append(common, "videos", "add", "--id", "v1", "--title", "Blackbird")...)
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	err = execute(&stdout, &stderr, append(common, "--json", "gather", "--video", "v1", "--title", "Blackbird", "--artist", "The Beatles")...)
	require.NoError(t, err)

	var got struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &got), "stdout: %s", stdout.String())
	assert.True(t, got.Success)
	assert.Contains(t, stderr.String(), "Blackbird by The Beatles")
}

func TestGatherRequiresArguments(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, "--db", filepath.Join(dir, "cli.sqlite3"), "gather", "--title", "Blackbird")
	assert.Error(t, err)
}

func TestSpectrogramCommand(t *testing.T) {
	dir := t.TempDir()
	wavPath := filepath.Join(dir, "tone.wav")
	pngPath := filepath.Join(dir, "tone.png")

	const rate = 8000
	samples := make([]float64, 2*rate)
	for i := range samples {
		samples[i] = 0.5 * math.Sin(2*math.Pi*440*float64(i)/rate)
	}
	require.NoError(t, audio.WriteWAV(wavPath, samples, rate, 1))

	out, err := run(t, "spectrogram", wavPath, "-o", pngPath, "--width", "32", "--height", "32")
	require.NoError(t, err)
	assert.Contains(t, out, pngPath)

	info, err := os.Stat(pngPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
