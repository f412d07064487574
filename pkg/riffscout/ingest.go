package riffscout

import (
	"context"
	"os"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/utils"
)

// IngestYouTube downloads a YouTube video, extracts its audio into the
// media directory and creates a video document pointing at it.
func (s *riffService) IngestYouTube(ctx context.Context, req IngestRequest) (*models.Video, error) {
	if _, err := utils.ExtractYouTubeID(req.URL); err != nil {
		return nil, apperr.InvalidArgument("A valid YouTube URL is required")
	}

	s.log.Infof("Ingesting %s", req.URL)

	videoPath, meta, err := s.downloader.Download(ctx, req.URL)
	if err != nil {
		s.log.Errorf("Downloading %s failed: %v", req.URL, err)
		return nil, apperr.Surface(err, "YouTube download failed")
	}
	defer os.Remove(videoPath)
	if meta == nil {
		meta = &audio.YTMetadata{}
	}

	videoBytes, err := os.ReadFile(videoPath)
	if err != nil {
		return nil, apperr.Internal("YouTube download failed", err)
	}

	mp3, err := s.transcoder.ExtractAudio(ctx, videoBytes)
	if err != nil {
		s.log.Errorf("Extracting audio from %s failed: %v", req.URL, err)
		return nil, apperr.Surface(err, "Audio extraction failed")
	}

	id := utils.NewID()
	mp3Path := s.mediaPath(id)
	if err := utils.WriteFileAtomic(mp3Path, mp3); err != nil {
		s.log.Errorf("Writing %s failed: %v", mp3Path, err)
		return nil, apperr.Internal("Failed to store audio", err)
	}

	durationMs := int(meta.Duration*1000 + 0.5)
	if probed, err := audio.Probe(ctx, mp3Path); err == nil && probed.DurationSec > 0 {
		durationMs = probed.DurationMs()
	} else if err != nil {
		s.log.Debugf("ffprobe %s: %v", mp3Path, err)
	}

	video := models.Video{
		ID:         id,
		Title:      firstNonEmpty(req.Title, meta.PickTitle(), meta.ID),
		Artist:     firstNonEmpty(req.Artist, meta.PickArtist()),
		YouTubeID:  meta.ID,
		MP3URL:     s.mediaURL(id),
		DurationMs: durationMs,
	}
	if _, err := s.store.CreateVideo(ctx, &video); err != nil {
		os.Remove(mp3Path)
		s.log.Errorf("Creating video for %s failed: %v", req.URL, err)
		return nil, apperr.Surface(err, "Failed to create video document")
	}

	s.log.Infof("Ingested %q as %s (%.1fs)", video.Title, id, float64(durationMs)/1000)
	return s.GetVideo(ctx, id)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
