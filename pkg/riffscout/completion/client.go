package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/himanishpuri/RiffScout/pkg/apperr"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/models"
	"github.com/himanishpuri/RiffScout/pkg/riffscout/secrets"
)

const (
	DefaultURL         = "https://api.perplexity.ai/chat/completions"
	DefaultModel       = "llama-3.1-sonar-huge-128k-online"
	DefaultTemperature = 0.2
	DefaultMaxTokens   = 1000
	DefaultTimeout     = 60 * time.Second
	DefaultKeyEnv      = "PERPLEXITY_API_KEY"

	maxResponseBytes = 4 << 20
)

type Config struct {
	URL         string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration

	// RequestsPerSecond caps outbound calls. Zero means unlimited.
	RequestsPerSecond float64
	Burst             int

	Key        secrets.Source
	HTTPClient *http.Client
}

func DefaultConfig() Config {
	return Config{
		URL:         DefaultURL,
		Model:       DefaultModel,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
		Timeout:     DefaultTimeout,
		Key:         secrets.Env(DefaultKeyEnv),
	}
}

// Client talks to an OpenAI-compatible chat completions endpoint.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

func New(cfg Config) *Client {
	def := DefaultConfig()
	if cfg.URL == "" {
		cfg.URL = def.URL
	}
	if cfg.Model == "" {
		cfg.Model = def.Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = def.MaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.Key == nil {
		cfg.Key = def.Key
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		log:     logger.GetLogger().Named("completion"),
	}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// FindResources asks the completion API for learning resources matching
// searchPhrase and decodes the structured answer.
func (c *Client) FindResources(ctx context.Context, searchPhrase string) (*models.ResourceBundle, error) {
	content, err := c.Complete(ctx, BuildMessages(searchPhrase))
	if err != nil {
		return nil, err
	}
	return ParseBundle(content)
}

// Complete sends messages and returns the text of the first choice.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	// key is read per call so a rotated secret is picked up without restart
	apiKey, err := c.cfg.Key.Secret(ctx)
	if err != nil {
		return "", fmt.Errorf("completion api key: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return "", c.wrapTransport(ctx, err)
	}

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("encode completion payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.Debugf("POST %s model=%s messages=%d", c.cfg.URL, c.cfg.Model, len(messages))
	started := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		return "", c.wrapTransport(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", c.wrapTransport(ctx, err)
	}
	c.log.Debugf("completion responded %d in %s (%d bytes)", resp.StatusCode, time.Since(started).Round(time.Millisecond), len(body))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", decodeAPIError(resp.StatusCode, body)
	}

	return decodeEnvelope(body)
}

func (c *Client) wrapTransport(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || apperr.IsTimeout(err) {
		return fmt.Errorf("%w: completion request exceeded %s: %v", apperr.ErrTimeout, c.cfg.Timeout, err)
	}
	return fmt.Errorf("completion request failed: %w", err)
}

func decodeAPIError(status int, body []byte) error {
	var apiErr struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	detail := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		detail = apiErr.Error.Message
		if apiErr.Error.Type != "" {
			detail = apiErr.Error.Type + ": " + detail
		}
	}
	return &apperr.UpstreamError{Service: "completion api", StatusCode: status, Body: apperr.Truncate(detail, 300)}
}

// decodeEnvelope is the first decoding stage: it extracts the text of the
// first choice from the transport envelope.
func decodeEnvelope(body []byte) (string, error) {
	var envelope chatResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return "", fmt.Errorf("%w: envelope is not JSON: %v", apperr.ErrMalformedPayload, err)
	}
	if len(envelope.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", apperr.ErrMalformedPayload)
	}
	content := strings.TrimSpace(envelope.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("%w: first choice has no content", apperr.ErrMalformedPayload)
	}
	return content, nil
}
