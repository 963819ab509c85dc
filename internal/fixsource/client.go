package fixsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/five82/stylefix/internal/fixes"
)

// Source is what the injector needs from the fix-generation backend. It is
// implemented by *Client and faked in tests.
type Source interface {
	FetchFixes(ctx context.Context) ([]fixes.Fix, error)
}

// Reporter writes engine-side status changes back to the backend.
type Reporter interface {
	MarkApplied(ctx context.Context, id string) error
	MarkRolledBack(ctx context.Context, id string) error
}

// Ensure Client implements both interfaces at compile time.
var (
	_ Source   = (*Client)(nil)
	_ Reporter = (*Client)(nil)
)

// Client talks to the fix-generation HTTP API.
type Client struct {
	baseURL       *url.URL
	http          *http.Client
	userAgent     string
	applicationID string
	limit         int
}

const (
	defaultAPIURL    = "http://localhost:8003"
	defaultUserAgent = "stylefix/0.1"
	defaultLimit     = 50
	requestTimeout   = 5 * time.Second
	maxErrorBody     = 512
)

// Options configure a Client.
type Options struct {
	APIURL        string
	ApplicationID string
	Limit         int
	HTTPClient    *http.Client
}

// NewClient builds a Client for the backend at opts.APIURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.APIURL)
	if err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	return &Client{
		baseURL:       base,
		http:          httpClient,
		userAgent:     defaultUserAgent,
		applicationID: strings.TrimSpace(opts.ApplicationID),
		limit:         limit,
	}, nil
}

// FetchFixes retrieves up to limit fixes for the configured application.
// Every call is a full re-fetch; there is no pagination or conditional GET.
func (c *Client) FetchFixes(ctx context.Context) ([]fixes.Fix, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if c.applicationID != "" {
		values.Set("application_id", c.applicationID)
	}
	values.Set("limit", strconv.Itoa(c.limit))
	reqURL := c.endpoint(values, "api", "fixes", "generate")

	var payload []fixes.Fix
	if err := c.doURL(ctx, http.MethodGet, reqURL, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// MarkApplied records on the backend that the engine applied id.
func (c *Client) MarkApplied(ctx context.Context, id string) error {
	return c.postStatus(ctx, id, "apply")
}

// MarkRolledBack records on the backend that the engine rolled back id.
func (c *Client) MarkRolledBack(ctx context.Context, id string) error {
	return c.postStatus(ctx, id, "rollback")
}

func (c *Client) postStatus(ctx context.Context, id, action string) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("fix id required")
	}
	reqURL := c.endpoint(nil, "api", "fixes", url.PathEscape(id), action)
	return c.doURL(ctx, http.MethodPost, reqURL, nil)
}

// endpoint joins escaped path segments onto the base URL, keeping any base
// path prefix.
func (c *Client) endpoint(query url.Values, segments ...string) *url.URL {
	u := c.baseURL.JoinPath(segments...)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u
}

func (c *Client) doURL(ctx context.Context, method string, reqURL *url.URL, dest any) error {
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if detail := strings.TrimSpace(string(body)); detail != "" {
			return fmt.Errorf("api %s returned status %d: %s", reqURL.Path, resp.StatusCode, detail)
		}
		return fmt.Errorf("api %s returned status %d", reqURL.Path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", apiURL, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
