package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
)

const (
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
	defaultMaxDelay   = 2 * time.Second
	maxErrorBody      = 512
)

// HTTPError is a non-2xx response from a model API.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Message)
}

// NetworkError wraps transport failures.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "network error: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }

// retryable reports whether a failed request may succeed when repeated.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.StatusCode == http.StatusTooManyRequests || httpErr.StatusCode >= 500
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

type connector struct {
	baseURL string
	client  *http.Client
	headers map[string]string
	retries uint
}

func newConnector(baseURL string, timeout time.Duration, retries uint, headers map[string]string) *connector {
	if retries == 0 {
		retries = defaultRetries
	}
	return &connector{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		headers: headers,
		retries: retries,
	}
}

// post sends a JSON request once.
func (c *connector) post(ctx context.Context, endpoint string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return &NetworkError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return &HTTPError{StatusCode: resp.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// postWithRetry repeats transient failures with exponential backoff.
func (c *connector) postWithRetry(ctx context.Context, endpoint string, reqBody, respBody any) error {
	return retry.Do(
		func() error {
			return c.post(ctx, endpoint, reqBody, respBody)
		},
		retry.Context(ctx),
		retry.Attempts(c.retries),
		retry.Delay(defaultRetryDelay),
		retry.MaxDelay(defaultMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(retryable),
		retry.LastErrorOnly(true),
	)
}
