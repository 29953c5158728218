package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"reelharvest/internal/services"
)

const (
	defaultBaseURL     = "https://api.apify.com"
	defaultHTTPTimeout = 120 * time.Second
	maxErrorSnippet    = 256
)

// Config describes how to reach the Apify API.
type Config struct {
	Token             string
	BaseURL           string
	TimeoutSeconds    int
	RequestsPerMinute int
	Burst             int
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client (useful for tests).
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithLimiter overrides the request limiter.
func WithLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		if limiter != nil {
			c.limiter = limiter
		}
	}
}

// Client runs Apify actors and returns their dataset items.
type Client struct {
	cfg        Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient constructs an Apify client. RequestsPerMinute <= 0 disables
// throttling.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	cfg.Token = strings.TrimSpace(cfg.Token)
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    newLimiter(cfg.RequestsPerMinute, cfg.Burst),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func newLimiter(perMinute, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), burst)
}

// RunActor starts actor with input, waits for it to finish and returns the
// dataset items in arrival order. Numbers decode as json.Number.
func (c *Client) RunActor(ctx context.Context, actor string, input any) ([]any, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, services.Wrap(services.ErrConfiguration, "remote", "apify", "actor id is empty", nil)
	}
	if c.cfg.Token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "remote", "apify", "token is empty (set APIFY_TOKEN)", nil)
	}
	endpoint, err := c.endpoint(actor)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "remote", "apify", "build url", err)
	}
	encoded, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("apify: encode input: %w", err)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("apify: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "apify "+actor, "http error", redact(err, c.cfg.Token))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorSnippet))
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "apify "+actor,
			fmt.Sprintf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var items []any
	if err := decoder.Decode(&items); err != nil {
		return nil, services.Wrap(services.ErrTransientFetch, "remote", "apify "+actor, "decode dataset items", err)
	}
	return items, nil
}

func (c *Client) endpoint(actor string) (string, error) {
	base, err := url.JoinPath(c.cfg.BaseURL, "v2", "acts", actor, "run-sync-get-dataset-items")
	if err != nil {
		return "", err
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	query := parsed.Query()
	query.Set("token", c.cfg.Token)
	parsed.RawQuery = query.Encode()
	return parsed.String(), nil
}

// redact keeps the API token out of error messages, since url.Error embeds
// the full request URL.
func redact(err error, token string) error {
	if err == nil || token == "" || !strings.Contains(err.Error(), token) {
		return err
	}
	return redactedError{msg: strings.ReplaceAll(err.Error(), token, "***"), err: err}
}

type redactedError struct {
	msg string
	err error
}

func (e redactedError) Error() string { return e.msg }
func (e redactedError) Unwrap() error { return e.err }
