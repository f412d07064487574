package main

import (
	"fmt"
	"strings"

	"github.com/himanishpuri/RiffScout/pkg/models"
)

// Pagination limits for GET /api/videos
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// maxBodyBytes bounds JSON request bodies
const maxBodyBytes = 1 << 20

// CreateVideoRequest is the request body for POST /api/videos
type CreateVideoRequest struct {
	// ID is optional; a UUID is assigned when empty
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	YouTubeID  string `json:"youtubeId,omitempty"`
	MP3URL     string `json:"mp3url,omitempty"`
	DurationMs int    `json:"durationMs,omitempty"`
}

// Validate checks if the request is valid
func (r *CreateVideoRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if r.DurationMs < 0 {
		return fmt.Errorf("durationMs cannot be negative")
	}
	if len(r.ID) > 64 {
		return fmt.Errorf("id is longer than 64 characters")
	}
	return nil
}

func (r *CreateVideoRequest) toVideo() models.Video {
	return models.Video{
		ID:         strings.TrimSpace(r.ID),
		Title:      r.Title,
		Artist:     r.Artist,
		YouTubeID:  r.YouTubeID,
		MP3URL:     r.MP3URL,
		DurationMs: r.DurationMs,
	}
}

// ListVideosResponse is the response for GET /api/videos
type ListVideosResponse struct {
	Videos []models.Video `json:"videos"`
	Count  int            `json:"count"`
	Total  int64          `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// DeleteVideoResponse is the response for DELETE /api/videos/{id}
type DeleteVideoResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

// NoteResponse is the response for GET /api/notes
type NoteResponse struct {
	Frequency float64 `json:"frequency"`
	Note      string  `json:"note"`
	Octave    int     `json:"octave"`
	Cents     float64 `json:"cents"`
}

// MetricsResponse provides server health and database metrics
type MetricsResponse struct {
	Status       string `json:"status"`
	DatabasePath string `json:"database_path"`
	VideoCount   int64  `json:"video_count"`
	SampleRate   int    `json:"sample_rate"`
}

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}
