// Package apiclient talks to the registry JSON API on behalf of the web front end.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"company_registry/internal/cache"
	"company_registry/internal/metrics"
)

const (
	apiPrefix       = "api/v1/"
	requestIDHeader = "X-Request-ID"
	defaultTimeout  = 15 * time.Second
	companyCacheTTL = 5 * time.Minute
)

// Defaults configure every client built from them. The bootstrap builds one
// value from configuration and keeps it for the lifetime of the process.
type Defaults struct {
	// BaseURL is the address of the API server, e.g. http://localhost:5000/
	BaseURL string
	// WithCredentials keeps cookies set by the API and sends them back on
	// every request, including cross-origin ones.
	WithCredentials bool
}

// Validate checks that BaseURL is an absolute http(s) URL
func (d Defaults) Validate() error {
	_, err := d.baseURL()
	return err
}

func (d Defaults) baseURL() (*url.URL, error) {
	u, err := url.Parse(d.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API base URL %q: %w", d.BaseURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid API base URL %q: must be an absolute http(s) URL", d.BaseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u, nil
}

// APIError is a non-2xx answer from the API
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
}

// IsNotFound reports whether err is a 404 from the API
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Option customizes a Client
type Option func(*Client)

// WithCache caches company reads in Redis. A nil cache disables caching.
func WithCache(c *cache.RedisCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithLogger sets the logger used for failed requests
func WithLogger(logger *zap.SugaredLogger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// WithTimeout overrides the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) { cl.http.Timeout = d }
}

// Client is a typed client of the registry API. It is safe for concurrent use.
type Client struct {
	defaults Defaults
	base     *url.URL
	http     *http.Client
	cache    *cache.RedisCache
	logger   *zap.SugaredLogger
}

// New builds a client from the process defaults
func New(d Defaults, opts ...Option) (*Client, error) {
	base, err := d.baseURL()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{Timeout: defaultTimeout}
	if d.WithCredentials {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("create cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	c := &Client{
		defaults: d,
		base:     base,
		http:     httpClient,
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Defaults returns the defaults the client was built from
func (c *Client) Defaults() Defaults {
	return c.defaults
}

func (c *Client) endpoint(path string, query url.Values) *url.URL {
	u := c.base.ResolveReference(&url.URL{Path: apiPrefix + strings.TrimPrefix(path, "/")})
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

// do sends a JSON request and decodes a JSON answer into out
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query).String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	metrics.APIClientDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.APIClientRequests.WithLabelValues(method, "error").Inc()
		c.logger.Errorw("api request failed", "method", method, "path", path, "error", err)
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	metrics.APIClientRequests.WithLabelValues(method, statusClass(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	var body struct {
		Detail string `json:"detail"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		apiErr.Detail = body.Detail
	} else {
		apiErr.Detail = http.StatusText(resp.StatusCode)
	}
	return apiErr
}

func statusClass(code int) string {
	return strconv.Itoa(code/100) + "xx"
}

func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
