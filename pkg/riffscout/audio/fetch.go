package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
)

const (
	DefaultFetchTimeout = 2 * time.Minute
	DefaultMaxSize      = "100 MB"
)

type FetchConfig struct {
	Timeout    time.Duration
	MaxSize    string // human readable, e.g. "100 MB"
	HTTPClient *http.Client
}

// Download is an audio file fetched from a remote URL.
type Download struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Fetcher downloads audio files over HTTP(S) with a deadline and a size cap.
type Fetcher struct {
	client   *http.Client
	timeout  time.Duration
	maxBytes uint64
	log      *logger.Logger
}

func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultFetchTimeout
	}
	if cfg.MaxSize == "" {
		cfg.MaxSize = DefaultMaxSize
	}
	maxBytes, err := humanize.ParseBytes(cfg.MaxSize)
	if err != nil {
		return nil, fmt.Errorf("invalid max download size %q: %w", cfg.MaxSize, err)
	}
	if maxBytes == 0 {
		return nil, fmt.Errorf("max download size must be positive")
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	return &Fetcher{
		client:   client,
		timeout:  cfg.Timeout,
		maxBytes: maxBytes,
		log:      logger.GetLogger().Named("fetch"),
	}, nil
}

// Fetch downloads rawURL into memory.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Download, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, fmt.Errorf("invalid audio url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported audio url scheme %q", u.Scheme)
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create download request: %w", err)
	}

	started := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &apperr.UpstreamError{Service: "audio host", StatusCode: resp.StatusCode}
	}
	if resp.ContentLength > 0 && uint64(resp.ContentLength) > f.maxBytes {
		return nil, fmt.Errorf("%w: %s announced, limit %s", apperr.ErrPayloadTooLarge,
			humanize.Bytes(uint64(resp.ContentLength)), humanize.Bytes(f.maxBytes))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.maxBytes)+1))
	if err != nil {
		return nil, f.wrapTransport(ctx, err)
	}
	if uint64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("%w: limit %s", apperr.ErrPayloadTooLarge, humanize.Bytes(f.maxBytes))
	}

	f.log.Infof("Downloaded %s from %s in %s", humanize.Bytes(uint64(len(data))), u.Host, time.Since(started).Round(time.Millisecond))

	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		name = "audio"
	}
	return &Download{Data: data, Filename: name, ContentType: resp.Header.Get("Content-Type")}, nil
}

func (f *Fetcher) wrapTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || apperr.IsTimeout(err) {
		return fmt.Errorf("%w: download exceeded %s: %v", apperr.ErrTimeout, f.timeout, err)
	}
	return fmt.Errorf("download failed: %w", err)
}
