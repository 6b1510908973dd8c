package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/brizzai/auto-api/internal/logger"
	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ClientConfig holds what every provider needs to reach its service.
type ClientConfig struct {
	Name       string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	RateLimit  float64
	Burst      int
	MaxRetries int
	// InitialBackoff is the first retry delay; zero uses the library default.
	InitialBackoff time.Duration
}

// baseClient sends JSON requests with a per-call timeout, a client-side rate
// limit and exponential backoff on 429 and 5xx answers.
type baseClient struct {
	name           string
	baseURL        string
	apiKey         string
	timeout        time.Duration
	maxRetries     int
	initialBackoff time.Duration
	http           *http.Client
	limiter        *rate.Limiter
	log            *zap.Logger
}

func newBaseClient(cfg ClientConfig) *baseClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	retries := cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return &baseClient{
		name:           cfg.Name,
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		timeout:        timeout,
		maxRetries:     retries,
		initialBackoff: cfg.InitialBackoff,
		http:           &http.Client{},
		limiter:        limiter,
		log:            logger.Named("llm").With(zap.String("provider", cfg.Name)),
	}
}

func (c *baseClient) Name() string { return c.name }

// postJSON sends body to path and decodes the answer into out.
func (c *baseClient) postJSON(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	if c.initialBackoff > 0 {
		b.InitialInterval = c.initialBackoff
	}

	start := time.Now()
	data, err := backoff.Retry(ctx, func() ([]byte, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, backoff.Permanent(err)
		}
		data, err := c.send(ctx, path, payload)
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Retryable() {
			c.log.Debug("Retrying LLM call", zap.String("path", path), zap.Int("status", apiErr.StatusCode))
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return data, nil
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries+1)),
	)
	if err != nil {
		if isDeadline(ctx, err) {
			return fmt.Errorf("%w after %s: %v", ErrTimeout, time.Since(start).Round(time.Millisecond), err)
		}
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", c.name, err)
	}
	return nil
}

func (c *baseClient) send(ctx context.Context, path string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to read response: %w", c.name, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &APIError{Provider: c.name, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}
	return data, nil
}

func isDeadline(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
