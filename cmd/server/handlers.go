package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/notes"
)

// Per-handler deadlines. Each covers every upstream call the handler makes.
const (
	shortTimeout   = 30 * time.Second
	gatherTimeout  = 90 * time.Second
	analyzeTimeout = 5 * time.Minute
	ingestTimeout  = 10 * time.Minute
)

// Server encapsulates the HTTP server and its dependencies
type Server struct {
	service riffscout.Service
	config  *ServerConfig
	metrics *metrics
	log     riffscout.Logger
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	DBPath         string
	MediaDir       string
	SampleRate     int
	AllowedOrigins []string
}

// NewServer creates a new server instance
func NewServer(service riffscout.Service, config *ServerConfig) *Server {
	return &Server{
		service: service,
		config:  config,
		metrics: newMetrics(),
		log:     logger.GetLogger().Named("http"),
	}
}

// respondJSON writes a JSON response
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Errorf("Failed to encode JSON response: %v", err)
	}
}

// respondError writes err as {error: kind, message, code}. Causes are only
// logged, never sent.
func (s *Server) respondError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := apperr.HTTPStatus(kind)

	message := "Internal error"
	var e *apperr.Error
	if errors.As(err, &e) && e.Message != "" {
		message = e.Message
	}

	s.respondJSON(w, status, ErrorResponse{
		Error:   string(kind),
		Message: message,
		Code:    status,
	})
}

// decodeJSON reads a bounded JSON body into dst.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.log.Warnf("Failed to decode request: %v", err)
		s.respondError(w, apperr.InvalidArgument("Invalid request body"))
		return false
	}
	return true
}

// handleRoot handles GET /
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]any{
		"service": "RiffScout API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"health":        "GET /health",
			"metrics":       "GET /api/health/metrics",
			"prometheus":    "GET /metrics",
			"gather":        "POST /api/resources/gather",
			"lookup":        "POST /api/audio/lookup",
			"analyze":       "POST /api/audio/analyze",
			"analyzeLocal":  "POST /api/audio/analyze/local",
			"note":          "GET /api/notes?frequency={hz}",
			"videos":        "GET /api/videos",
			"createVideo":   "POST /api/videos",
			"ingestYouTube": "POST /api/videos/youtube",
			"getVideo":      "GET /api/videos/{id}",
			"deleteVideo":   "DELETE /api/videos/{id}",
			"media":         "GET /media/{id}.mp3",
		},
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// handleMetrics handles GET /api/health/metrics
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	count, err := s.service.CountVideos(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, MetricsResponse{
		Status:       "healthy",
		DatabasePath: s.config.DBPath,
		VideoCount:   count,
		SampleRate:   s.config.SampleRate,
	})
}

// handleGather handles POST /api/resources/gather
func (s *Server) handleGather(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), gatherTimeout)
	defer cancel()

	var req models.ResourceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.GatherResources(ctx, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleLookup handles POST /api/audio/lookup
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	var req riffscout.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.LookupAudio(ctx, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleAnalyze handles POST /api/audio/analyze
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	var req riffscout.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.AnalyzeAudio(ctx, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleAnalyzeLocal handles POST /api/audio/analyze/local
func (s *Server) handleAnalyzeLocal(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	var req riffscout.AnalyzeRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	result, err := s.service.AnalyzeAudioLocal(ctx, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

// handleNote handles GET /api/notes?frequency=440
func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimSpace(r.URL.Query().Get("frequency"))
	if raw == "" {
		s.respondError(w, apperr.InvalidArgument("frequency is required"))
		return
	}
	freq, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.respondError(w, apperr.InvalidArgument("frequency must be a number"))
		return
	}

	note, err := notes.FromFrequency(freq)
	if err != nil {
		s.respondError(w, apperr.InvalidArgument("frequency must be a positive finite number"))
		return
	}

	s.respondJSON(w, http.StatusOK, NoteResponse{
		Frequency: freq,
		Note:      note.String(),
		Octave:    note.Octave,
		Cents:     note.Cents,
	})
}

// handleListVideos handles GET /api/videos?limit=&offset=
func (s *Server) handleListVideos(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	limit, err := queryInt(r, "limit", DefaultPageSize)
	if err != nil || limit < 1 {
		s.respondError(w, apperr.InvalidArgument("limit must be a positive integer"))
		return
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.respondError(w, apperr.InvalidArgument("offset must be a non-negative integer"))
		return
	}

	videos, err := s.service.ListVideos(ctx, limit, offset)
	if err != nil {
		s.respondError(w, err)
		return
	}
	total, err := s.service.CountVideos(ctx)
	if err != nil {
		s.respondError(w, err)
		return
	}
	if videos == nil {
		videos = []models.Video{}
	}

	s.respondJSON(w, http.StatusOK, ListVideosResponse{
		Videos: videos,
		Count:  len(videos),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// handleCreateVideo handles POST /api/videos
func (s *Server) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	var req CreateVideoRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, apperr.InvalidArgument(err.Error()))
		return
	}

	video, err := s.service.CreateVideo(ctx, req.toVideo())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, video)
}

// handleIngestYouTube handles POST /api/videos/youtube
func (s *Server) handleIngestYouTube(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), ingestTimeout)
	defer cancel()

	var req riffscout.IngestRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	video, err := s.service.IngestYouTube(ctx, req)
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, video)
}

// handleGetVideo handles GET /api/videos/{id}
func (s *Server) handleGetVideo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	video, err := s.service.GetVideo(ctx, chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, video)
}

// handleDeleteVideo handles DELETE /api/videos/{id}
func (s *Server) handleDeleteVideo(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), shortTimeout)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := s.service.DeleteVideo(ctx, id); err != nil {
		s.respondError(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, DeleteVideoResponse{
		Message: "Video deleted successfully",
		ID:      id,
	})
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
