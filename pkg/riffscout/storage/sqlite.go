//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/utils"
)

const errDBClientNil = "db client is nil"

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

// Video is the row backing a document of the videos collection.
type Video struct {
	ID           string `gorm:"primaryKey;type:varchar(64)"`
	Title        string `gorm:"index:idx_video_meta,priority:1"`
	Artist       string `gorm:"index:idx_video_meta,priority:2"`
	YouTubeID    string `gorm:"index:idx_youtube_id"`
	MP3URL       string `gorm:"column:mp3_url"`
	DurationMs   int
	Tabs         []models.Tab            `gorm:"serializer:json"`
	Tutorials    []models.StoredTutorial `gorm:"serializer:json"`
	GuitarproURL *string
	CreatedAt    time.Time
	UpdatedAt    *time.Time `gorm:"autoUpdateTime:false"`
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := utils.MakeDir(dir); err != nil {
			return nil, fmt.Errorf("creating db dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&Video{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

// WithContext returns a client whose queries are bound to ctx.
func (c *DBClient) WithContext(ctx context.Context) *DBClient {
	if c == nil || c.DB == nil {
		return c
	}
	return &DBClient{DB: c.DB.WithContext(ctx), db: c.db}
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// CreateVideo inserts a new video. An empty ID is replaced by a fresh UUID.
func (c *DBClient) CreateVideo(v *Video) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}
	if strings.TrimSpace(v.ID) == "" {
		v.ID = utils.NewID()
	}
	if v.Tabs == nil {
		v.Tabs = []models.Tab{}
	}
	if v.Tutorials == nil {
		v.Tutorials = []models.StoredTutorial{}
	}

	if err := c.DB.Create(v).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return "", fmt.Errorf("video %s: %w", v.ID, apperr.ErrDocumentExists)
		}
		return "", fmt.Errorf("creating video: %w", err)
	}
	return v.ID, nil
}

// GetVideo returns the video or an error wrapping apperr.ErrDocumentNotFound.
func (c *DBClient) GetVideo(id string) (*Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var v Video
	if err := c.DB.Where("id = ?", id).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("video %s: %w", id, apperr.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("querying video: %w", err)
	}
	return &v, nil
}

// ListVideos returns videos newest first. A non-positive limit means no limit.
func (c *DBClient) ListVideos(limit, offset int) ([]Video, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	q := c.DB.Order("created_at DESC").Order("id")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	var videos []Video
	if err := q.Find(&videos).Error; err != nil {
		return nil, fmt.Errorf("listing videos: %w", err)
	}
	return videos, nil
}

func (c *DBClient) CountVideos() (int64, error) {
	if c == nil || c.DB == nil {
		return 0, errors.New(errDBClientNil)
	}
	var n int64
	if err := c.DB.Model(&Video{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// ApplyResources overwrites the tabs, tutorials, guitarproUrl and updatedAt
// columns of one video and leaves every other column untouched.
func (c *DBClient) ApplyResources(id string, update models.ResourceUpdate, at time.Time) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	tabs := update.Tabs
	if tabs == nil {
		tabs = []models.Tab{}
	}
	tutorials := update.Tutorials
	if tutorials == nil {
		tutorials = []models.StoredTutorial{}
	}

	res := c.DB.Model(&Video{ID: id}).
		Select("tabs", "tutorials", "guitarpro_url", "updated_at").
		Updates(&Video{
			Tabs:         tabs,
			Tutorials:    tutorials,
			GuitarproURL: update.GuitarproURL,
			UpdatedAt:    &at,
		})
	if res.Error != nil {
		return fmt.Errorf("updating video resources: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("video %s: %w", id, apperr.ErrDocumentNotFound)
	}
	return nil
}

func (c *DBClient) DeleteVideo(id string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Where("id = ?", id).Delete(&Video{})
	if res.Error != nil {
		return fmt.Errorf("deleting video: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("video %s: %w", id, apperr.ErrDocumentNotFound)
	}
	return nil
}
