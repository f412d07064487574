package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/himanishpuri/RiffScout/pkg/riffscout"
)

// setupRoutes registers all HTTP routes and middleware
func (s *Server) setupRoutes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(corsMiddleware(s.config.AllowedOrigins))
	r.Use(s.metrics.middleware)

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.handler())

	if s.config.MediaDir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(s.config.MediaDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health/metrics", s.handleMetrics)

		r.Post("/resources/gather", s.handleGather)

		r.Post("/audio/lookup", s.handleLookup)
		r.Post("/audio/analyze", s.handleAnalyze)
		r.Post("/audio/analyze/local", s.handleAnalyzeLocal)

		r.Get("/notes", s.handleNote)

		r.Route("/videos", func(r chi.Router) {
			r.Get("/", s.handleListVideos)
			r.Post("/", s.handleCreateVideo)
			r.Post("/youtube", s.handleIngestYouTube)
			r.Get("/{id}", s.handleGetVideo)
			r.Delete("/{id}", s.handleDeleteVideo)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "not-found", Message: "No such endpoint", Code: http.StatusNotFound})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.respondJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "method-not-allowed", Message: r.Method + " is not supported here", Code: http.StatusMethodNotAllowed})
	})

	return r
}

// corsMiddleware adds CORS headers to responses
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 0 || (len(allowedOrigins) == 1 && allowedOrigins[0] == "*")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				allowed = true
			} else if origin != "" {
				for _, o := range allowedOrigins {
					if o == origin {
						w.Header().Set("Access-Control-Allow-Origin", origin)
						w.Header().Add("Vary", "Origin")
						w.Header().Set("Access-Control-Allow-Credentials", "true")
						allowed = true
						break
					}
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, X-Request-Id")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs every request with its status and latency
func loggingMiddleware(log riffscout.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			reqID := middleware.GetReqID(r.Context())
			line := fmt.Sprintf("[%s] %s %s from %s -> %d (%s)", reqID, r.Method, r.URL.Path, getClientIP(r), wrapped.statusCode, time.Since(start).Round(time.Millisecond))
			switch {
			case wrapped.statusCode >= 500:
				log.Errorf("%s", line)
			case wrapped.statusCode >= 400:
				log.Warnf("%s", line)
			default:
				log.Infof("%s", line)
			}
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

// getClientIP extracts the client IP from the request. RealIP has already
// rewritten RemoteAddr from the proxy headers when they were present.
func getClientIP(r *http.Request) string {
	ip := r.RemoteAddr
	if strings.HasPrefix(ip, "[") {
		if end := strings.Index(ip, "]"); end != -1 {
			return ip[1:end]
		}
	}
	if strings.Count(ip, ":") == 1 {
		ip = ip[:strings.LastIndex(ip, ":")]
	}
	return ip
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.setupRoutes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	s.log.Infof("RiffScout server starting on %s", addr)
	s.log.Infof("   Database: %s", s.config.DBPath)
	s.log.Infof("   Media: %s", s.config.MediaDir)
	s.log.Infof("   CORS Origins: %v", s.config.AllowedOrigins)
	s.log.Infof("Endpoints:")
	s.log.Infof("   POST   /api/resources/gather      - Gather tabs and tutorials")
	s.log.Infof("   POST   /api/audio/lookup          - Resolve a video's mp3 URL")
	s.log.Infof("   POST   /api/audio/analyze         - Remote frequency analysis")
	s.log.Infof("   POST   /api/audio/analyze/local   - Local pitch detection")
	s.log.Infof("   GET    /api/notes?frequency=      - Note name for a frequency")
	s.log.Infof("   GET    /api/videos                - List videos")
	s.log.Infof("   POST   /api/videos                - Create video")
	s.log.Infof("   POST   /api/videos/youtube        - Ingest a YouTube video")
	s.log.Infof("   GET    /api/videos/{id}           - Get video")
	s.log.Infof("   DELETE /api/videos/{id}           - Delete video")
	s.log.Infof("   GET    /metrics                   - Prometheus metrics")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Infof("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	s.log.Infof("Server stopped")
	return nil
}
