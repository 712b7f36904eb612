package clickup

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

	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.clickup.com/api/v2"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 8 << 20
)

type Config struct {
	BaseURL  string
	APIToken string
	TeamID   string
	// Timeout bounds every single HTTP call, not a whole traversal.
	Timeout time.Duration
	// RateLimit is requests per second; zero disables throttling.
	RateLimit  float64
	Burst      int
	HTTPClient *http.Client
}

// Client talks to the ClickUp REST API. It keeps no state between calls.
type Client struct {
	baseURL    string
	token      string
	teamID     string
	timeout    time.Duration
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a client. Missing credentials are reported per call, not here.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		baseURL:    baseURL,
		token:      cfg.APIToken,
		teamID:     cfg.TeamID,
		timeout:    timeout,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// TeamID returns the configured workspace id.
func (c *Client) TeamID() string { return c.teamID }

func (c *Client) requireToken() error {
	if c.token == "" {
		return &ConfigError{Missing: "CLICKUP_API_TOKEN"}
	}
	return nil
}

func (c *Client) requireTeam() error {
	if err := c.requireToken(); err != nil {
		return err
	}
	if c.teamID == "" {
		return &ConfigError{Missing: "CLICKUP_TEAM_ID"}
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := ctx.Err(); err != nil {
		return aborted(err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return aborted(ctx.Err())
		}
		return fmt.Errorf("clickup rate limiter: %w", err)
	}

	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, method, reqURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", c.token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return aborted(ctx.Err())
		}
		return fmt.Errorf("clickup %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() != nil {
			return aborted(ctx.Err())
		}
		return fmt.Errorf("failed to read response: %w", err)
	}

	slog.Debug("clickup call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, path, data)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s response: %w", path, err)
	}
	return nil
}
