// Package remote implements the driven store ports against a hosted
// PostgREST-style data store.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

// Compile-time interface satisfaction checks.
var (
	_ driven.ReviewStore  = (*ReviewRepo)(nil)
	_ driven.CollegeStore = (*CollegeRepo)(nil)
	_ driven.ProfileStore = (*ProfileRepo)(nil)
	_ driven.SavedStore   = (*SavedRepo)(nil)
)

// Client talks to the hosted data store's REST surface. The per-table repos
// share one Client and its cache.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates a Client whose transport revalidates cached GET
// responses with ETags.
func NewClient(baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	httpClient := &http.Client{
		Transport: httpcache.NewMemoryCacheTransport(),
		Timeout:   30 * time.Second,
	}
	return NewClientWithHTTPClient(httpClient, baseURL, apiKey, logger)
}

// NewClientWithHTTPClient creates a Client with a custom http.Client.
// This constructor is intended for testing with a mocked transport.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("parsing base URL %q: scheme and host required", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(u.String(), "/"),
		apiKey:  apiKey,
		logger:  logger,
	}, nil
}

// apiError is the error body returned by the data store.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
}

// Postgres SQLSTATE codes surfaced in error bodies.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// do sends a request to /rest/v1/<path> and decodes the JSON response into out
// when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, prefer string, out any) error {
	_, data, err := c.send(ctx, method, path, query, body, prefer)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// count returns the number of rows in path matching query. The store reports
// the total in the Content-Range header, so no rows are transferred.
func (c *Client) count(ctx context.Context, path string, query url.Values) (int, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}
	q.Set("select", "id")
	q.Set("limit", "0")

	header, _, err := c.send(ctx, http.MethodGet, path, q, nil, "count=exact")
	if err != nil {
		return 0, err
	}
	return parseContentRangeTotal(header.Get("Content-Range"))
}

// parseContentRangeTotal reads the total from a "0-24/3573" or "*/0" header.
func parseContentRangeTotal(v string) (int, error) {
	i := strings.LastIndexByte(v, '/')
	if i < 0 {
		return 0, fmt.Errorf("parse content range %q: missing total", v)
	}
	total, err := strconv.Atoi(v[i+1:])
	if err != nil {
		return 0, fmt.Errorf("parse content range %q: %w", v, err)
	}
	return total, nil
}

// send performs the request and returns the response headers and body of a
// 2xx response.
func (c *Client) send(ctx context.Context, method, path string, query url.Values, body any, prefer string) (http.Header, []byte, error) {
	endpoint := c.baseURL + "/rest/v1/" + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal %s body: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, nil, fmt.Errorf("create request %s %s: %w", method, path, err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Read to EOF so the caching transport can store the body.
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	c.logger.Debug("data store request",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"from_cache", resp.Header.Get(httpcache.XFromCache) == "1",
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, c.statusError(method, path, resp.StatusCode, data)
	}
	return resp.Header, data, nil
}

func (c *Client) statusError(method, path string, status int, data []byte) error {
	var apiErr apiError
	_ = json.Unmarshal(data, &apiErr)

	switch {
	case status == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, driven.ErrNotFound)
	case apiErr.Code == codeUniqueViolation, status == http.StatusConflict && apiErr.Code != codeForeignKeyViolation:
		return fmt.Errorf("%s %s: %w", method, path, driven.ErrAlreadyExists)
	case apiErr.Code == codeForeignKeyViolation:
		return fmt.Errorf("%s %s: %s: %w", method, path, apiErr.Message, driven.ErrNotFound)
	}

	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("%s %s: status %d: %s", method, path, status, msg)
}

// eq builds a PostgREST equality filter value.
func eq(v string) string {
	return "eq." + v
}
