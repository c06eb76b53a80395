package sdk

import (
	"context"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// doRequestWithRetry performs an HTTP request with exponential backoff retry logic.
// It retries on network errors and 5xx server errors. newRequest is called
// once per attempt so request bodies are never reused.
func (c *Client) doRequestWithRetry(ctx context.Context, newRequest func() (*http.Request, error)) (*http.Response, error) {
	var resp *http.Response
	var err error

	for attempt := 0; attempt <= c.RetryAttempts; attempt++ {
		var req *http.Request
		req, err = newRequest()
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		resp, err = c.HTTPClient.Do(req)

		// 2xx, 3xx and 4xx are final
		if err == nil && resp.StatusCode < 500 {
			return resp, nil
		}

		if attempt == c.RetryAttempts {
			break
		}

		drainAndCloseBody(resp)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.calculateBackoff(attempt)):
		}
	}

	if err != nil {
		return nil, fmt.Errorf("request failed after %d attempts: %w", c.RetryAttempts+1, err)
	}

	// Server error after all retries; the caller decodes the body
	return resp, nil
}

// calculateBackoff calculates the backoff duration for a retry attempt.
// It uses exponential backoff with full jitter.
func (c *Client) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.RetryWaitMin) * math.Pow(2, float64(attempt))
	if backoff > float64(c.RetryWaitMax) {
		backoff = float64(c.RetryWaitMax)
	}

	return time.Duration(rand.Float64() * backoff)
}

// drainAndCloseBody reads and closes the response body to ensure connection reuse.
func drainAndCloseBody(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
}
