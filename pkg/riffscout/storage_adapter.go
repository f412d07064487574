package riffscout

import (
	"context"
	"time"

	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Store interface.
type storageAdapter struct {
	db  *storage.DBClient
	now func() time.Time
}

// NewSQLiteStore opens (or creates) the SQLite video store at dbPath.
func NewSQLiteStore(dbPath string) (Store, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *storageAdapter) CreateVideo(ctx context.Context, v *models.Video) (string, error) {
	row := toRow(v)
	id, err := s.db.WithContext(ctx).CreateVideo(row)
	if err != nil {
		return "", err
	}
	v.ID = id
	v.CreatedAt = row.CreatedAt
	return id, nil
}

func (s *storageAdapter) GetVideo(ctx context.Context, id string) (*models.Video, error) {
	row, err := s.db.WithContext(ctx).GetVideo(id)
	if err != nil {
		return nil, err
	}
	v := fromRow(row)
	return &v, nil
}

func (s *storageAdapter) ListVideos(ctx context.Context, limit, offset int) ([]models.Video, error) {
	rows, err := s.db.WithContext(ctx).ListVideos(limit, offset)
	if err != nil {
		return nil, err
	}
	videos := make([]models.Video, len(rows))
	for i := range rows {
		videos[i] = fromRow(&rows[i])
	}
	return videos, nil
}

// ApplyResources stamps the write with the store's clock.
func (s *storageAdapter) ApplyResources(ctx context.Context, id string, update models.ResourceUpdate) error {
	return s.db.WithContext(ctx).ApplyResources(id, update, s.now())
}

func (s *storageAdapter) DeleteVideo(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).DeleteVideo(id)
}

func (s *storageAdapter) Count(ctx context.Context) (int64, error) {
	return s.db.WithContext(ctx).CountVideos()
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}

func toRow(v *models.Video) *storage.Video {
	return &storage.Video{
		ID:           v.ID,
		Title:        v.Title,
		Artist:       v.Artist,
		YouTubeID:    v.YouTubeID,
		MP3URL:       v.MP3URL,
		DurationMs:   v.DurationMs,
		Tabs:         v.Tabs,
		Tutorials:    v.Tutorials,
		GuitarproURL: v.GuitarproURL,
	}
}

func fromRow(r *storage.Video) models.Video {
	tabs := r.Tabs
	if tabs == nil {
		tabs = []models.Tab{}
	}
	tutorials := r.Tutorials
	if tutorials == nil {
		tutorials = []models.StoredTutorial{}
	}
	return models.Video{
		ID:           r.ID,
		Title:        r.Title,
		Artist:       r.Artist,
		YouTubeID:    r.YouTubeID,
		MP3URL:       r.MP3URL,
		DurationMs:   r.DurationMs,
		Tabs:         tabs,
		Tutorials:    tutorials,
		GuitarproURL: r.GuitarproURL,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}
