package riffscout

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/analysis"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/completion"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/pitch"
)

// riffService is the default implementation of the Service interface.
type riffService struct {
	store      Store
	completer  Completer
	analyzer   Analyzer
	fetcher    Fetcher
	transcoder Transcoder
	downloader Downloader
	detector   *pitch.Detector
	log        Logger
	config     *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger().Named("riffscout")
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Tempo <= 0 {
		cfg.Tempo = pitch.DefaultTempo
	}
	if cfg.Quantization <= 0 {
		cfg.Quantization = pitch.DefaultQuantization
	}

	svc := &riffService{
		store:      cfg.Store,
		completer:  cfg.Completer,
		analyzer:   cfg.Analyzer,
		fetcher:    cfg.Fetcher,
		transcoder: cfg.Transcoder,
		downloader: cfg.Downloader,
		detector:   pitch.NewDetector(cfg.Pitch),
		log:        cfg.Logger,
		config:     cfg,
	}

	if svc.store == nil {
		store, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage: %w", err)
		}
		svc.store = store
	}
	if svc.completer == nil {
		svc.completer = completion.New(cfg.Completion)
	}
	if svc.analyzer == nil {
		svc.analyzer = analysis.New(cfg.Analysis)
	}
	if svc.fetcher == nil {
		fetcher, err := audio.NewFetcher(cfg.Download)
		if err != nil {
			svc.store.Close()
			return nil, err
		}
		svc.fetcher = fetcher
	}
	if svc.transcoder == nil {
		svc.transcoder = audio.SharedTranscoder()
	}
	if svc.downloader == nil {
		svc.downloader = audio.NewYouTubeDownloader(filepath.Join(cfg.TempDir, "riffscout-downloads"), cfg.YouTubeTimeout, cfg.AutoInstallYTDLP)
	}

	return svc, nil
}

func (s *riffService) Close() error {
	return s.store.Close()
}

// CreateVideo registers a video document. ID may be empty.
func (s *riffService) CreateVideo(ctx context.Context, video models.Video) (*models.Video, error) {
	video.Title = strings.TrimSpace(video.Title)
	if video.Title == "" {
		return nil, apperr.InvalidArgument("Title is required")
	}
	video.Artist = strings.TrimSpace(video.Artist)
	video.MP3URL = strings.TrimSpace(video.MP3URL)

	id, err := s.store.CreateVideo(ctx, &video)
	if errors.Is(err, apperr.ErrDocumentExists) {
		return nil, apperr.InvalidArgument(fmt.Sprintf("Video document %s already exists", video.ID))
	}
	if err != nil {
		s.log.Errorf("Creating video %q failed: %v", video.Title, err)
		return nil, apperr.Surface(err, "Failed to create video document")
	}
	s.log.Infof("Created video %s (%s)", id, video.Title)
	return s.GetVideo(ctx, id)
}

func (s *riffService) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperr.InvalidArgument("Document ID is required")
	}
	v, err := s.store.GetVideo(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrDocumentNotFound) {
			return nil, apperr.NotFound("Video document not found", err)
		}
		s.log.Errorf("Reading video %s failed: %v", id, err)
		return nil, apperr.Surface(err, "Failed to read video document")
	}
	return v, nil
}

func (s *riffService) ListVideos(ctx context.Context, limit, offset int) ([]models.Video, error) {
	videos, err := s.store.ListVideos(ctx, limit, offset)
	if err != nil {
		s.log.Errorf("Listing videos failed: %v", err)
		return nil, apperr.Surface(err, "Failed to list video documents")
	}
	return videos, nil
}

// DeleteVideo removes the document and any mp3 extracted for it.
func (s *riffService) DeleteVideo(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return apperr.InvalidArgument("Document ID is required")
	}
	if err := s.store.DeleteVideo(ctx, id); err != nil {
		if errors.Is(err, apperr.ErrDocumentNotFound) {
			return apperr.NotFound("Video document not found", err)
		}
		s.log.Errorf("Deleting video %s failed: %v", id, err)
		return apperr.Surface(err, "Failed to delete video document")
	}

	mp3Path := s.mediaPath(id)
	if err := os.Remove(mp3Path); err != nil && !os.IsNotExist(err) {
		s.log.Warnf("Could not remove %s: %v", mp3Path, err)
	}
	s.log.Infof("Deleted video %s", id)
	return nil
}

func (s *riffService) CountVideos(ctx context.Context) (int64, error) {
	n, err := s.store.Count(ctx)
	if err != nil {
		return 0, apperr.Surface(err, "Failed to count video documents")
	}
	return n, nil
}

func (s *riffService) mediaPath(id string) string {
	return filepath.Join(s.config.MediaDir, filepath.Base(id)+".mp3")
}

func (s *riffService) mediaURL(id string) string {
	return strings.TrimRight(s.config.PublicBaseURL, "/") + "/media/" + id + ".mp3"
}
