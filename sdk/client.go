// Package sdk is a Go client for the Converge admin API.
//
// It lists and describes the generated route table, triggers reloads and
// probes instance health, failing over between instances in order.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"converge.io/converge/models"
)

// Client is the SDK client for the Converge admin API.
type Client struct {
	// BaseURLs is the list of server URLs, tried in order.
	BaseURLs []string

	// AdminToken authenticates admin requests.
	AdminToken string

	// HTTPClient is the HTTP client used for requests.
	HTTPClient *http.Client

	// RetryAttempts is the number of times to retry failed requests.
	RetryAttempts int

	// RetryWaitMin is the minimum wait time between retries.
	RetryWaitMin time.Duration

	// RetryWaitMax is the maximum wait time between retries.
	RetryWaitMax time.Duration

	// activeURL is the last instance that answered (protected by mutex).
	activeURL string

	mu sync.RWMutex
}

// NewClient creates a new SDK client with the given configuration.
func NewClient(config ClientConfig) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Client{
		BaseURLs:      config.BaseURLs,
		AdminToken:    config.AdminToken,
		HTTPClient:    config.HTTPClient,
		RetryAttempts: config.RetryAttempts,
		RetryWaitMin:  config.RetryWaitMin,
		RetryWaitMax:  config.RetryWaitMax,
	}, nil
}

// getActiveURL returns the cached instance URL, or empty string if none answered yet.
func (c *Client) getActiveURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.activeURL
}

func (c *Client) setActiveURL(baseURL string) {
	c.mu.Lock()
	c.activeURL = baseURL
	c.mu.Unlock()
}

// buildURLList returns the instances to try, the last one that answered first.
func (c *Client) buildURLList() []string {
	active := c.getActiveURL()
	if active == "" {
		return c.BaseURLs
	}

	urls := []string{active}
	for _, u := range c.BaseURLs {
		if u != active {
			urls = append(urls, u)
		}
	}
	return urls
}

// doRequest performs an HTTP request with automatic failover.
// Instances are skipped only when they cannot be reached; any HTTP response
// is returned to the caller.
func (c *Client) doRequest(ctx context.Context, method, path string, body []byte, authType AuthType) (*http.Response, error) {
	urls := c.buildURLList()
	if len(urls) == 0 {
		return nil, ErrNoBaseURLs
	}

	var lastErr error
	for _, baseURL := range urls {
		fullURL := baseURL + path

		newRequest := func() (*http.Request, error) {
			var reader io.Reader
			if body != nil {
				reader = bytes.NewReader(body)
			}
			req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
			if err != nil {
				return nil, err
			}
			if err := c.addAuthHeaders(req, authType); err != nil {
				return nil, err
			}
			if body != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			req.Header.Set("Accept", "application/json")
			return req, nil
		}

		resp, err := c.doRequestWithRetry(ctx, newRequest)
		if err != nil {
			if errors.Is(err, ErrMissingAuth) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			if baseURL == c.getActiveURL() {
				c.setActiveURL("")
			}
			continue
		}

		c.setActiveURL(baseURL)
		return resp, nil
	}

	return nil, fmt.Errorf("%w: %v", ErrAllInstancesFailed, lastErr)
}

// parseErrorResponse decodes the server's error envelope into an APIError.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	defer drainAndCloseBody(resp)

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var envelope models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		apiErr.Code = envelope.Error
		apiErr.Message = envelope.Message
		apiErr.RequestID = envelope.RequestID
	}

	return apiErr
}

// doJSONRequest performs a request with an optional JSON body and decodes a
// 2xx JSON response into respBody.
func (c *Client) doJSONRequest(ctx context.Context, method, path string, reqBody, respBody interface{}, authType AuthType) error {
	var body []byte
	if reqBody != nil {
		data, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		body = data
	}

	resp, err := c.doRequest(ctx, method, path, body, authType)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.parseErrorResponse(resp)
	}

	defer drainAndCloseBody(resp)
	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("failed to parse JSON response: %w", err)
		}
	}
	return nil
}

// ListRoutes returns the live route table in match order.
//
// Parameters:
//   - ctx: Request context for cancellation and timeouts
//   - filter: Optional module and domain filter
//
// Returns:
//   - The routes and their count
//   - ErrUnauthorized if the admin token is rejected, ErrUnavailable if the
//     server has not loaded a table yet, or network errors
func (c *Client) ListRoutes(ctx context.Context, filter RouteFilter) (*models.RouteListResponse, error) {
	query := url.Values{}
	if filter.Module != "" {
		query.Set("module", filter.Module)
	}
	if filter.Domain != "" {
		query.Set("domain", filter.Domain)
	}

	path := "/api/v1/routes"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var list models.RouteListResponse
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &list, AuthTypeAdmin); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return &list, nil
}

// GetRoute describes the route with the given name. When params is non-empty
// the server also builds the route's URL from them.
//
// Returns ErrNotFound for unknown names and ErrBadRequest when params do not
// satisfy the route.
func (c *Client) GetRoute(ctx context.Context, name string, params map[string]string) (*RouteInfo, error) {
	path := "/api/v1/routes/" + url.PathEscape(name)
	if len(params) > 0 {
		query := url.Values{}
		for k, v := range params {
			query.Set(k, v)
		}
		path += "?" + query.Encode()
	}

	var info RouteInfo
	if err := c.doJSONRequest(ctx, http.MethodGet, path, nil, &info, AuthTypeAdmin); err != nil {
		return nil, fmt.Errorf("failed to get route %s: %w", name, err)
	}
	return &info, nil
}

// RouteURL builds the path of a named route from its parameters.
func (c *Client) RouteURL(ctx context.Context, name string, params map[string]string) (string, error) {
	info, err := c.GetRoute(ctx, name, params)
	if err != nil {
		return "", err
	}
	if info.URL == "" {
		// Routes without parameters are their own URL
		return info.URI, nil
	}
	return info.URL, nil
}

// Reload asks the server to re-read its registry and regenerate the route
// table. A refused reload leaves the server's current table in place.
//
// Returns ErrInvalidRegistry when the registry fails validation.
func (c *Client) Reload(ctx context.Context) (*models.ReloadResponse, error) {
	var resp models.ReloadResponse
	if err := c.doJSONRequest(ctx, http.MethodPost, "/api/v1/routes/reload", nil, &resp, AuthTypeAdmin); err != nil {
		return nil, fmt.Errorf("failed to reload routes: %w", err)
	}
	return &resp, nil
}

// Health probes the readiness endpoint of every configured instance.
// Unlike the admin calls it neither fails over nor retries.
func (c *Client) Health(ctx context.Context) []InstanceHealth {
	results := make([]InstanceHealth, 0, len(c.BaseURLs))
	for _, baseURL := range c.BaseURLs {
		results = append(results, c.checkInstance(ctx, baseURL))
	}
	return results
}

func (c *Client) checkInstance(ctx context.Context, baseURL string) InstanceHealth {
	health := InstanceHealth{BaseURL: baseURL}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health/ready", nil)
	if err != nil {
		health.Err = err
		return health
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		health.Err = err
		return health
	}

	if resp.StatusCode != http.StatusOK {
		health.Err = c.parseErrorResponse(resp)
		return health
	}
	defer drainAndCloseBody(resp)

	var body healthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		health.Err = fmt.Errorf("failed to parse JSON response: %w", err)
		return health
	}

	health.Ready = true
	health.InstanceID = body.Data.InstanceID
	return health
}
