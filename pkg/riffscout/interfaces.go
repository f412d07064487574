package riffscout

import (
	"context"

	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/analysis"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/audio"
)

type Service interface {
	GatherResources(ctx context.Context, req models.ResourceRequest) (*GatherResult, error)
	LookupAudio(ctx context.Context, req AnalyzeRequest) (*LookupResult, error)
	AnalyzeAudio(ctx context.Context, req AnalyzeRequest) (*RemoteAnalysis, error)
	AnalyzeAudioLocal(ctx context.Context, req AnalyzeRequest) (*LocalAnalysis, error)
	IngestYouTube(ctx context.Context, req IngestRequest) (*models.Video, error)
	CreateVideo(ctx context.Context, video models.Video) (*models.Video, error)
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, limit, offset int) ([]models.Video, error)
	DeleteVideo(ctx context.Context, id string) error
	CountVideos(ctx context.Context) (int64, error)
	Close() error
}

// Store persists video documents.
type Store interface {
	CreateVideo(ctx context.Context, video *models.Video) (string, error)
	GetVideo(ctx context.Context, id string) (*models.Video, error)
	ListVideos(ctx context.Context, limit, offset int) ([]models.Video, error)
	ApplyResources(ctx context.Context, id string, update models.ResourceUpdate) error
	DeleteVideo(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Completer turns a search phrase into a resource bundle.
type Completer interface {
	FindResources(ctx context.Context, searchPhrase string) (*models.ResourceBundle, error)
}

// Analyzer sends audio to the remote analysis server.
type Analyzer interface {
	Analyze(ctx context.Context, filename string, audio []byte) (*analysis.Response, error)
}

type Fetcher interface {
	Fetch(ctx context.Context, url string) (*audio.Download, error)
}

type Transcoder interface {
	ExtractAudio(ctx context.Context, video []byte) ([]byte, error)
	ToWAV(ctx context.Context, input []byte, sampleRate int) ([]byte, error)
}

type Downloader interface {
	Download(ctx context.Context, youtubeURL string) (string, *audio.YTMetadata, error)
}

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	Debugf(format string, args ...any)
}
