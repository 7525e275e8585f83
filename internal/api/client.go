package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/casaview/casa/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	userAgent      = "Casa/1.0"
)

// Client is the REST gateway for the casa content API. It owns request
// signing and error classification; caching lives in internal/resource.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new content API client
func NewClient(baseURL, token string, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// doRequest performs an authenticated HTTP request and classifies failures
// into domain.TransportError.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) ([]byte, error) {
	reqURL := c.baseURL + path
	if query != nil {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("User-Agent", userAgent)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.logger.Debug("api request", "method", method, "url", reqURL)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyRequestError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Kind: domain.TransportNetwork, Err: err}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, domain.ErrAuthFailed
	}

	if resp.StatusCode >= 400 {
		c.logger.Error("api request error", "status", resp.StatusCode, "url", reqURL)
		kind := domain.TransportServer
		if resp.StatusCode == http.StatusNotFound {
			kind = domain.TransportNotFound
		}
		return nil, &domain.TransportError{
			Kind:   kind,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
		}
	}

	return respBody, nil
}

// classifyRequestError maps transport-level failures onto the error
// taxonomy: timeouts stay distinguishable from plain connection errors.
func classifyRequestError(err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return &domain.TransportError{Kind: domain.TransportTimeout, Err: err}
	}
	return &domain.TransportError{Kind: domain.TransportNetwork, Err: err}
}

func decode[T any](c *Client, body []byte) (T, error) {
	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return out, fmt.Errorf("failed to parse response: %w", err)
	}
	return out, nil
}
