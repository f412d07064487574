// Package analysis is the client of the remote audio analysis server.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
)

const (
	DefaultURL       = "http://localhost:5000/analyze"
	DefaultFieldName = "audio"
	DefaultTimeout   = 2 * time.Minute

	maxResponseBytes = 16 << 20
)

type Config struct {
	URL        string
	FieldName  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Sample is one raw entry of the server's results array.
type Sample struct {
	Frequency float64
	Fields    map[string]json.RawMessage // every key except frequency
}

// Response is the decoded server reply. Extra holds every top-level key
// other than results, unmodified.
type Response struct {
	Results []Sample
	Extra   map[string]json.RawMessage
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

func New(cfg Config) *Client {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.FieldName == "" {
		cfg.FieldName = DefaultFieldName
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{cfg: cfg, http: httpClient, log: logger.GetLogger().Named("analysis")}
}

// Analyze uploads audio as a multipart form and decodes the reply.
func (c *Client) Analyze(ctx context.Context, filename string, audio []byte) (*Response, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile(c.cfg.FieldName, filename)
	if err != nil {
		return nil, fmt.Errorf("create multipart file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("copy audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create analysis request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	c.log.Infof("Uploading %s (%d bytes) to %s", filename, len(audio), c.cfg.URL)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, c.wrapTransport(ctx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.UpstreamError{
			Service:    "analysis server",
			StatusCode: resp.StatusCode,
			Body:       apperr.Truncate(strings.TrimSpace(string(raw)), 300),
		}
	}

	return decodeResponse(raw)
}

func (c *Client) wrapTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || apperr.IsTimeout(err) {
		return fmt.Errorf("%w: analysis request exceeded %s: %v", apperr.ErrTimeout, c.cfg.Timeout, err)
	}
	return fmt.Errorf("analysis request failed: %w", err)
}

func decodeResponse(raw []byte) (*Response, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("%w: analysis response is not a JSON object: %v", apperr.ErrMalformedPayload, err)
	}

	resultsRaw, ok := top["results"]
	if !ok {
		return nil, fmt.Errorf("%w: analysis response has no results", apperr.ErrMalformedPayload)
	}
	delete(top, "results")
	if trimmed := bytes.TrimSpace(resultsRaw); len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("%w: results is not an array", apperr.ErrMalformedPayload)
	}

	var entries []map[string]json.RawMessage
	if err := json.Unmarshal(resultsRaw, &entries); err != nil {
		return nil, fmt.Errorf("%w: results is not an array of objects: %v", apperr.ErrMalformedPayload, err)
	}

	out := &Response{Results: make([]Sample, 0, len(entries)), Extra: top}
	for i, entry := range entries {
		var freq float64
		if v, ok := entry["frequency"]; ok && string(v) != "null" {
			if err := json.Unmarshal(v, &freq); err != nil {
				return nil, fmt.Errorf("%w: results[%d].frequency: %v", apperr.ErrMalformedPayload, i, err)
			}
		}
		delete(entry, "frequency")
		out.Results = append(out.Results, Sample{Frequency: freq, Fields: entry})
	}
	return out, nil
}
