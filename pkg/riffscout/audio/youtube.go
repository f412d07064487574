package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/utils"
)

const defaultDownloadTimeout = 5 * time.Minute

// YTMetadata is the subset of yt-dlp's JSON dump we keep.
type YTMetadata struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Artist   string  `json:"artist"`
	Track    string  `json:"track"`
	Uploader string  `json:"uploader"`
	Channel  string  `json:"channel"`
	Duration float64 `json:"duration"`
}

// PickArtist returns the best available artist name, or "" if none.
func (m YTMetadata) PickArtist() string {
	for _, v := range []string{m.Artist, m.Channel, m.Uploader} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// PickTitle prefers the track name over the video title.
func (m YTMetadata) PickTitle() string {
	if s := strings.TrimSpace(m.Track); s != "" {
		return s
	}
	return strings.TrimSpace(m.Title)
}

// YouTubeDownloader fetches videos with yt-dlp.
type YouTubeDownloader struct {
	outputDir   string
	timeout     time.Duration
	autoInstall bool

	installOnce sync.Once
	installErr  error

	log *logger.Logger
}

func NewYouTubeDownloader(outputDir string, timeout time.Duration, autoInstall bool) *YouTubeDownloader {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &YouTubeDownloader{
		outputDir:   outputDir,
		timeout:     timeout,
		autoInstall: autoInstall,
		log:         logger.GetLogger().Named("yt-dlp"),
	}
}

func (d *YouTubeDownloader) ensureInstalled(ctx context.Context) error {
	if !d.autoInstall {
		return nil
	}
	d.installOnce.Do(func() {
		if _, err := ytdlp.Install(ctx, nil); err != nil {
			d.installErr = fmt.Errorf("%w: yt-dlp: %v", apperr.ErrToolNotInstalled, err)
		}
	})
	return d.installErr
}

// Download saves the video as mp4 under the output directory and returns
// its path together with yt-dlp's metadata.
func (d *YouTubeDownloader) Download(ctx context.Context, youtubeURL string) (string, *YTMetadata, error) {
	id, err := utils.ExtractYouTubeID(youtubeURL)
	if err != nil {
		return "", nil, err
	}
	if err := d.ensureInstalled(ctx); err != nil {
		return "", nil, err
	}
	if err := utils.MakeDir(d.outputDir); err != nil {
		return "", nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	canonical := "https://www.youtube.com/watch?v=" + id

	metaRes, err := ytdlp.New().
		DumpSingleJSON().
		NoPlaylist().
		NoWarnings().
		Run(ctx, canonical)
	if err != nil {
		return "", nil, d.wrapError(ctx, "metadata", metaRes, err)
	}

	var meta YTMetadata
	if err := json.Unmarshal([]byte(metaRes.Stdout), &meta); err != nil {
		return "", nil, fmt.Errorf("%w: yt-dlp JSON: %v", apperr.ErrMalformedPayload, err)
	}
	if strings.TrimSpace(meta.ID) == "" {
		meta.ID = id
	}

	output := filepath.Join(d.outputDir, meta.ID+".%(ext)s")
	dlRes, err := ytdlp.New().
		Format("mp4/bestvideo[ext=mp4]+bestaudio[ext=m4a]/best").
		MergeOutputFormat("mp4").
		NoPlaylist().
		NoWarnings().
		Output(output).
		Run(ctx, canonical)
	if err != nil {
		return "", nil, d.wrapError(ctx, "download", dlRes, err)
	}

	path := filepath.Join(d.outputDir, meta.ID+".mp4")
	if _, err := os.Stat(path); err != nil {
		return "", nil, fmt.Errorf("downloaded file not found at %s: %w", path, err)
	}

	d.log.Infof("Downloaded %q (%s)", meta.Title, meta.ID)
	return path, &meta, nil
}

func (d *YouTubeDownloader) wrapError(ctx context.Context, stage string, res *ytdlp.Result, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: yt-dlp %s exceeded %s", apperr.ErrTimeout, stage, d.timeout)
	}
	pe := &apperr.ProcessError{Tool: "yt-dlp", Stage: stage, ExitCode: -1, Cause: err}
	if res != nil {
		pe.ExitCode = res.ExitCode
		pe.Stderr = apperr.Truncate(res.Stderr, 500)
	}
	return pe
}
