// Package apiclient talks to the cause-list API service over HTTP.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuongbtq/ecourts-causelist/internal/causelist"
)

// DefaultTimeout bounds a single request.
const DefaultTimeout = 30 * time.Second

// hierarchyPaths maps each level to its endpoint. Parent selections are
// appended as percent-encoded path segments.
var hierarchyPaths = map[causelist.Level]string{
	causelist.LevelState:        "/api/states",
	causelist.LevelDistrict:     "/api/districts",
	causelist.LevelCourtComplex: "/api/court-complexes",
	causelist.LevelCourt:        "/api/courts",
}

// Client implements causelist.API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

var _ causelist.API = (*Client)(nil)

// New creates a Client for the service at baseURL.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     logger,
	}
}

// envelope is the {success, data|error} wrapper used by hierarchy and job
// start responses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

type namedItem struct {
	Name string `json:"name"`
}

// HierarchyPath builds the endpoint path for level with parents encoded.
func HierarchyPath(level causelist.Level, parents []string) (string, error) {
	base, ok := hierarchyPaths[level]
	if !ok {
		return "", fmt.Errorf("unknown hierarchy level %d", level)
	}
	if want := int(level); len(parents) != want {
		return "", fmt.Errorf("%s lookup needs %d parent values, got %d", level, want, len(parents))
	}

	var b strings.Builder
	b.WriteString(base)
	for _, p := range parents {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(p))
	}
	return b.String(), nil
}

// Hierarchy implements causelist.API.
func (c *Client) Hierarchy(ctx context.Context, level causelist.Level, parents []string) ([]string, error) {
	path, err := HierarchyPath(level, parents)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var env envelope
	if err := c.doEnvelope(req, &env); err != nil {
		return nil, err
	}

	var items []namedItem
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s list: %w", level, err)
		}
	}

	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return names, nil
}

// StartJob implements causelist.API.
func (c *Client) StartJob(ctx context.Context, job causelist.JobRequest) error {
	body, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/download-causelist", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var env envelope
	return c.doEnvelope(req, &env)
}

// Status implements causelist.API.
func (c *Client) Status(ctx context.Context) (*causelist.JobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	body, code, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if code < 200 || code >= 300 {
		return nil, fmt.Errorf("status request failed (status %d): %s", code, truncate(body))
	}

	var status causelist.JobStatus
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to unmarshal status: %w", err)
	}
	return &status, nil
}

// Download streams the file at ref into w. ref may be absolute or relative to
// the service base URL, as returned in a job result.
func (c *Client) Download(ctx context.Context, ref string, w io.Writer) (int64, error) {
	target, err := c.resolve(ref)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return 0, &causelist.APIError{Message: apiErr.Error}
		}
		return 0, fmt.Errorf("download failed (status %d)", resp.StatusCode)
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("failed to write download: %w", err)
	}
	return n, nil
}

func (c *Client) resolve(ref string) (string, error) {
	base, err := url.Parse(c.baseURL + "/")
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid download url: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

// doEnvelope decodes an envelope and converts success=false into an
// *causelist.APIError. Error status codes carrying an envelope are treated
// the same way.
func (c *Client) doEnvelope(req *http.Request, env *envelope) error {
	body, code, err := c.do(req)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, env); err != nil {
		if code < 200 || code >= 300 {
			return fmt.Errorf("request failed (status %d): %s", code, truncate(body))
		}
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if !env.Success {
		return &causelist.APIError{Message: env.Error}
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, int, error) {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("API request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return nil, 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug("API request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)
	return body, resp.StatusCode, nil
}

func truncate(b []byte) string {
	const limit = 200
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
