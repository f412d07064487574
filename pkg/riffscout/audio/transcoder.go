package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/utils"
)

const defaultTranscodeTimeout = 2 * time.Minute

// Transcoder wraps the ffmpeg binary. It is initialized lazily, once, and
// then reused; concurrent first calls share a single initialization.
type Transcoder struct {
	binary  string
	tempDir string

	lookPath func(string) (string, error)
	probe    func(ctx context.Context, path string) error

	group singleflight.Group
	mu    sync.RWMutex
	path  string // resolved binary, set once initialized

	log *logger.Logger
}

func NewTranscoder(binary, tempDir string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &Transcoder{
		binary:   binary,
		tempDir:  tempDir,
		lookPath: exec.LookPath,
		probe:    probeVersion,
		log:      logger.GetLogger().Named("ffmpeg"),
	}
}

var (
	shared     *Transcoder
	sharedOnce sync.Once
)

// SharedTranscoder returns the process-wide transcoder.
func SharedTranscoder() *Transcoder {
	sharedOnce.Do(func() {
		shared = NewTranscoder("ffmpeg", os.TempDir())
	})
	return shared
}

func (t *Transcoder) resolved() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.path
}

// Init prepares the transcoder. It reports true only to the caller that
// actually performed the initialization; later calls return false.
// A failed initialization is not remembered and may be retried.
//
// The shared probe is detached from the caller's cancellation, so a caller
// giving up early does not fail the others waiting on it.
func (t *Transcoder) Init(ctx context.Context) (bool, error) {
	if t.resolved() != "" {
		return false, nil
	}

	performed := false
	probeCtx := context.WithoutCancel(ctx)
	ch := t.group.DoChan("init", func() (any, error) {
		if t.resolved() != "" {
			return nil, nil
		}
		path, err := t.lookPath(t.binary)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", apperr.ErrToolNotInstalled, t.binary, err)
		}
		if err := t.probe(probeCtx, path); err != nil {
			return nil, err
		}
		t.mu.Lock()
		t.path = path
		t.mu.Unlock()
		performed = true
		t.log.Infof("Transcoder ready (%s)", path)
		return nil, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return false, res.Err
		}
		return performed, nil
	case <-ctx.Done():
		return false, contextError(ctx, "ffmpeg init")
	}
}

func probeVersion(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if out, err := exec.CommandContext(ctx, path, "-version").CombinedOutput(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("%w: ffmpeg -version", apperr.ErrTimeout)
		}
		return &apperr.ProcessError{Tool: "ffmpeg", Stage: "probe", ExitCode: exitCode(err), Stderr: apperr.Truncate(string(out), 500), Cause: err}
	}
	return nil
}

// ExtractAudio returns the audio track of an mp4 video encoded as mp3.
func (t *Transcoder) ExtractAudio(ctx context.Context, video []byte) ([]byte, error) {
	return t.transcode(ctx, "extract", "input.mp4", video, "output.mp3",
		"-i", "input.mp4", "-vn", "-acodec", "libmp3lame", "-q:a", "2", "output.mp3")
}

// ToWAV converts any audio ffmpeg understands into mono 16-bit PCM WAV.
func (t *Transcoder) ToWAV(ctx context.Context, input []byte, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return t.transcode(ctx, "to-wav", "input", input, "output.wav",
		"-i", "input", "-ac", "1", "-ar", strconv.Itoa(sampleRate), "-c:a", "pcm_s16le", "output.wav")
}

// transcode runs ffmpeg inside a private workspace holding inName and
// returns the contents of outName. The workspace is always removed.
func (t *Transcoder) transcode(ctx context.Context, stage, inName string, input []byte, outName string, args ...string) ([]byte, error) {
	if _, err := t.Init(ctx); err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultTranscodeTimeout)
		defer cancel()
	}

	workDir := filepath.Join(t.tempDir, "riffscout-"+utils.NewID())
	if err := utils.MakeDir(workDir); err != nil {
		return nil, fmt.Errorf("creating transcode workspace: %w", err)
	}
	defer os.RemoveAll(workDir)

	if err := os.WriteFile(filepath.Join(workDir, inName), input, 0o600); err != nil {
		return nil, fmt.Errorf("writing %s: %w", inName, err)
	}

	full := append([]string{"-hide_banner", "-loglevel", "error", "-y"}, args...)
	cmd := exec.CommandContext(ctx, t.resolved(), full...)
	cmd.Dir = workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	started := time.Now()
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, contextError(ctx, "ffmpeg "+stage)
		}
		return nil, &apperr.ProcessError{
			Tool:     "ffmpeg",
			Stage:    stage,
			ExitCode: exitCode(err),
			Stderr:   apperr.Truncate(stderr.String(), 500),
			Cause:    err,
		}
	}

	out, err := os.ReadFile(filepath.Join(workDir, outName))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", outName, err)
	}
	t.log.Debugf("ffmpeg %s: %d -> %d bytes in %s", stage, len(input), len(out), time.Since(started).Round(time.Millisecond))
	return out, nil
}

// contextError reports a finished ctx as ErrTimeout when its deadline
// passed and as the plain cancellation otherwise.
func contextError(ctx context.Context, op string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", apperr.ErrTimeout, op, ctx.Err())
	}
	return fmt.Errorf("%s: %w", op, ctx.Err())
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
