package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/feral-file/mrkt-indexer/internal/logger"
)

// HTTPClient defines an interface for HTTP client operations to enable mocking
//
//go:generate mockgen -source=http.go -destination=../mocks/http.go -package=mocks -mock_names=HTTPClient=MockHTTPClient
type HTTPClient interface {
	// Get performs a GET request and unmarshals the response into result
	Get(ctx context.Context, url string, result interface{}) error

	// GetWithHeaders performs a GET request with extra headers and unmarshals the response into result
	GetWithHeaders(ctx context.Context, url string, headers map[string]string, result interface{}) error

	// GetBytes performs a GET request and returns the raw response body
	GetBytes(ctx context.Context, url string) ([]byte, error)

	// Post performs a POST request and returns the response body
	Post(ctx context.Context, url string, contentType string, body []byte) ([]byte, error)
}

// StatusError is returned when the server answers with a non-200 status
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status code %d: %s", e.StatusCode, e.Body)
}

// RetryConfig bounds the exponential backoff used for retryable responses
type RetryConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// DefaultRetryConfig is used by NewHTTPClient
var DefaultRetryConfig = RetryConfig{
	InitialInterval: 2 * time.Second,
	MaxInterval:     30 * time.Second,
	MaxElapsedTime:  1 * time.Minute,
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
	retry  RetryConfig
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return NewHTTPClientWithRetry(timeout, DefaultRetryConfig)
}

// NewHTTPClientWithRetry creates a new real HTTP client with a custom retry policy
func NewHTTPClientWithRetry(timeout time.Duration, retry RetryConfig) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		retry: retry,
	}
}

// retryable reports whether a status code is worth another attempt
func retryable(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}

// doRequestWithRetry executes an HTTP request with exponential backoff retry for rate limiting and gateway errors
func (c *RealHTTPClient) doRequestWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) ([]byte, error) {
	var respBody []byte

	operation := func() error {
		req, err := newRequest()
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		resp, err := c.client.Do(req)
		if err != nil {
			// Network errors are retryable
			return fmt.Errorf("failed to perform request: %w", err)
		}
		defer func() {
			if err := resp.Body.Close(); err != nil {
				logger.Warn("failed to close response body", zap.Error(err), zap.String("url", req.URL.String()))
			}
		}()

		if retryable(resp.StatusCode) {
			logger.Warn("retryable status, retrying with backoff",
				zap.String("url", req.URL.String()),
				zap.Int("status", resp.StatusCode))
			body, _ := io.ReadAll(resp.Body)
			return &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
		}

		// Other non-OK status codes are permanent errors
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(body)})
		}

		respBody, err = io.ReadAll(resp.Body)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to read response body: %w", err))
		}

		return nil
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retry.InitialInterval
	b.MaxInterval = c.retry.MaxInterval
	b.MaxElapsedTime = c.retry.MaxElapsedTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return nil, fmt.Errorf("request failed after retries: %w", err)
	}

	return respBody, nil
}

// Get performs a GET request and unmarshals the response into result
func (c *RealHTTPClient) Get(ctx context.Context, url string, result interface{}) error {
	return c.GetWithHeaders(ctx, url, nil, result)
}

// GetWithHeaders performs a GET request with extra headers and unmarshals the response into result
func (c *RealHTTPClient) GetWithHeaders(ctx context.Context, url string, headers map[string]string, result interface{}) error {
	respBody, err := c.doRequestWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for key, value := range headers {
			req.Header.Set(key, value)
		}
		return req, nil
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// GetBytes performs a GET request and returns the raw response body
func (c *RealHTTPClient) GetBytes(ctx context.Context, url string) ([]byte, error) {
	return c.doRequestWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	})
}

// Post performs a POST request and returns the response body
func (c *RealHTTPClient) Post(ctx context.Context, url string, contentType string, body []byte) ([]byte, error) {
	return c.doRequestWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		return req, nil
	})
}
