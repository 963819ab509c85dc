package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/five82/stylefix/internal/fixes"
)

const clientTimeout = 5 * time.Second

// ErrNotApplied is returned by Client.Rollback when the fix is not in force.
var ErrNotApplied = errors.New("fix not applied")

// Client talks to a running bridge server.
type Client struct {
	baseURL *url.URL
	http    *http.Client
}

// NewClient builds a client for addr, which may omit the scheme.
func NewClient(addr string, httpClient *http.Client) (*Client, error) {
	trimmed := strings.TrimSpace(addr)
	if trimmed == "" {
		trimmed = DefaultAddr
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse bridge address %q: %w", addr, err)
	}
	u.Path = "/"
	if httpClient == nil {
		httpClient = &http.Client{Timeout: clientTimeout}
	}
	return &Client{baseURL: u, http: httpClient}, nil
}

// Start asks the bridge to begin polling. It reports whether a new loop was
// started.
func (c *Client) Start(ctx context.Context) (bool, error) {
	var resp struct {
		Started bool `json:"started"`
	}
	err := c.do(ctx, http.MethodPost, []string{"bridge", "start"}, nil, &resp)
	return resp.Started, err
}

// Stop halts polling.
func (c *Client) Stop(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, []string{"bridge", "stop"}, nil, nil)
}

// Status fetches the engine status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	var st Status
	err := c.do(ctx, http.MethodGet, []string{"bridge", "status"}, nil, &st)
	return st, err
}

// Applied lists the fixes in force.
func (c *Client) Applied(ctx context.Context) ([]fixes.Fix, error) {
	var out []fixes.Fix
	err := c.do(ctx, http.MethodGet, []string{"bridge", "fixes"}, nil, &out)
	return out, err
}

// Apply submits fix for manual application.
func (c *Client) Apply(ctx context.Context, fix fixes.Fix) (ApplyResult, error) {
	var res ApplyResult
	err := c.do(ctx, http.MethodPost, []string{"bridge", "fixes"}, fix, &res)
	return res, err
}

// Rollback reverts id. A fix that is not applied yields ErrNotApplied.
func (c *Client) Rollback(ctx context.Context, id string) error {
	err := c.do(ctx, http.MethodDelete, []string{"bridge", "fixes", url.PathEscape(id)}, nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotApplied, id)
	}
	return err
}

// Clear reverts every applied fix.
func (c *Client) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, []string{"bridge", "fixes"}, nil, nil)
}

type statusError struct {
	path   string
	code   int
	detail string
}

func (e *statusError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("bridge %s returned status %d: %s", e.path, e.code, e.detail)
	}
	return fmt.Sprintf("bridge %s returned status %d", e.path, e.code)
}

func (c *Client) do(ctx context.Context, method string, segments []string, body, dest any) error {
	reqURL := c.baseURL.JoinPath(segments...)

	var rdr io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		detail := strings.TrimSpace(string(raw))
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			detail = e.Error
		}
		return &statusError{path: reqURL.Path, code: resp.StatusCode, detail: detail}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
