// Package client provides the throttled HTTP core used for all
// Frontegg API calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gaetanof/frontegg-bulk-user-actions/internal/config"
	"github.com/gaetanof/frontegg-bulk-user-actions/internal/metrics"
)

// Retry reasons recorded in metrics.
const (
	retryReasonRateLimited = "rate_limited"
	retryReasonNetwork     = "network"
)

// Response is the outcome of one API call after retries ran their
// course. JSON is non-nil only for 2xx answers; Raw always carries the
// body text. StatusCode 0 means the request never produced an HTTP
// response.
type Response struct {
	JSON       map[string]interface{}
	StatusCode int
	Raw        string
}

// Client issues throttled HTTP requests with bounded retry. Every
// attempt is preceded by the configured rate limit delay; 429 answers
// and network failures back off exponentially (2^n times the delay)
// for up to MaxRetries extra attempts.
type Client struct {
	httpClient *http.Client
	cfg        config.HTTPConfig
	logger     *zap.Logger
	metrics    *metrics.Metrics
	sleep      func(time.Duration)
}

// New creates a throttled API client.
func New(cfg config.HTTPConfig, m *metrics.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cfg:        cfg,
		logger:     logger,
		metrics:    m,
		sleep:      time.Sleep,
	}
}

// Call performs one API call with throttling and retries. The returned
// error is non-nil only for malformed requests (unsupported method,
// unencodable payload, bad URL); every provider-side outcome, exhausted
// retries included, is reported through the Response.
func (c *Client) Call(ctx context.Context, method, url string, payload interface{}, headers map[string]string) (*Response, error) {
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, fmt.Errorf("unsupported method %s", method)
	}

	var body []byte
	if payload != nil {
		var err error
		if body, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	req.Header.Set("content-type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	var last *Response
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			backoff := time.Duration(1<<uint(attempt-1)) * c.cfg.RateLimitDelay
			c.sleep(backoff)
		}

		// Fixed delay ahead of every attempt keeps the overall call
		// volume under the provider's rate limit.
		c.sleep(c.cfg.RateLimitDelay)

		resp, doErr := c.doOnce(req, body)
		if doErr != nil {
			last = &Response{StatusCode: 0, Raw: doErr.Error()}
			if attempt < c.cfg.MaxRetries {
				c.logger.Warn("request failed, retrying",
					zap.String("method", method),
					zap.String("url", url),
					zap.Int("attempt", attempt+1),
					zap.Error(doErr),
				)
				c.metrics.RecordRetry(retryReasonNetwork)
				continue
			}
			c.logger.Error("request failed",
				zap.String("method", method),
				zap.String("url", url),
				zap.Error(doErr),
			)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.cfg.MaxRetries {
			wait := time.Duration(1<<uint(attempt)) * c.cfg.RateLimitDelay
			c.logger.Warn("rate limited, retrying",
				zap.String("method", method),
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Duration("wait", wait),
			)
			c.metrics.RecordRetry(retryReasonRateLimited)
			last = resp
			continue
		}

		return resp, nil
	}

	return last, nil
}

// doOnce performs a single HTTP exchange and shapes the response.
func (c *Client) doOnce(req *http.Request, body []byte) (*Response, error) {
	attempt := req.Clone(req.Context())
	if body != nil {
		attempt.Body = io.NopCloser(bytes.NewReader(body))
		attempt.ContentLength = int64(len(body))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(attempt)
	duration := time.Since(start)
	if err != nil {
		c.metrics.RecordAPIRequest(req.Method, 0, duration)
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.metrics.RecordAPIRequest(req.Method, 0, duration)
		return nil, err
	}
	c.metrics.RecordAPIRequest(req.Method, resp.StatusCode, duration)

	return shapeResponse(resp.StatusCode, raw), nil
}

// shapeResponse decodes successful bodies into a JSON object. A 2xx
// body that is not a JSON object yields an empty map, never an error;
// the raw text stays available either way.
func shapeResponse(status int, raw []byte) *Response {
	resp := &Response{StatusCode: status, Raw: string(raw)}
	switch status {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent:
		decoded := map[string]interface{}{}
		if err := json.Unmarshal(raw, &decoded); err != nil {
			decoded = map[string]interface{}{}
		}
		resp.JSON = decoded
	}
	return resp
}
