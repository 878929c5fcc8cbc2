package mailtm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	DefaultBaseURL = "https://api.mail.tm"

	// DefaultFallbackDomain is returned by ListDomains when the provider's
	// domain listing is unavailable.
	DefaultFallbackDomain = "1secmail.com"
)

// Client talks to a mail.tm compatible provider. It holds no mutable state:
// every call builds its own request, so a single instance can be shared
// across concurrent requests.
type Client struct {
	baseURL        string
	fallbackDomain string
	httpClient     *http.Client
	sanitizeHTML   func(string) string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.httpClient = h
	}
}

func WithFallbackDomain(d string) Option {
	return func(c *Client) {
		c.fallbackDomain = d
	}
}

// WithHTMLSanitizer installs a filter applied to normalized HTML bodies
// before they leave the adapter.
func WithHTMLSanitizer(fn func(string) string) Option {
	return func(c *Client) {
		c.sanitizeHTML = fn
	}
}

func New(opts ...Option) *Client {
	c := &Client{
		baseURL:        DefaultBaseURL,
		fallbackDomain: DefaultFallbackDomain,
		httpClient:     &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do issues a single provider request. 200/201 decode into out, 404 maps to
// ErrNotFound, any other status to *APIError carrying the raw body, and
// transport failures to *NetworkError. No retries: every call is attempted
// exactly once.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{URL: c.baseURL + path, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		if out == nil {
			io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	case http.StatusNotFound:
		return ErrNotFound
	default:
		raw, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
	}
}
