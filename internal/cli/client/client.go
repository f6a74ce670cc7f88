package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/gameofbones/gameofbones/internal/cli/auth"
)

const defaultTimeout = 30 * time.Second

// TokenReader is the read-only view of durable storage the client needs to
// attach the bearer token.
type TokenReader interface {
	Get(key string) (string, error)
}

// Client represents an HTTP client for the Game of Bones API
type Client struct {
	rest   *resty.Client
	tokens TokenReader
	logger zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (tests, custom transports)
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		baseURL := c.rest.BaseURL
		c.rest = resty.NewWithClient(httpClient).SetBaseURL(baseURL)
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithTimeout overrides the default per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.rest.SetTimeout(d)
	}
}

// New creates a new API client. baseURL already includes the API prefix,
// e.g. http://localhost:8080/api.
func New(baseURL string, tokens TokenReader, opts ...Option) *Client {
	c := &Client{
		rest:   resty.New().SetBaseURL(baseURL).SetTimeout(defaultTimeout),
		tokens: tokens,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rest.SetHeader("Accept", "application/json")
	return c
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.rest.BaseURL
}

// envelope is the response wrapper every endpoint uses.
type envelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// APIError is returned for transport failures and non-2xx responses.
// Status is zero when the request never got a response.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	switch {
	case e.Status == 0 && e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	case e.Message != "":
		return fmt.Sprintf("request failed (status %d): %s", e.Status, e.Message)
	default:
		return fmt.Sprintf("request failed (status %d)", e.Status)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// bearer returns the stored token, or "" when there is none.
func (c *Client) bearer() string {
	if c.tokens == nil {
		return ""
	}
	token, err := c.tokens.Get(auth.TokenKey)
	if err != nil {
		if !errors.Is(err, auth.ErrNotFound) {
			c.logger.Warn().Err(err).Msg("Failed to read token from storage")
		}
		return ""
	}
	return token
}

// do performs a request authenticated with the stored token.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.send(ctx, method, path, c.bearer(), body, out)
}

// send performs a request and decodes the envelope's data into out.
func (c *Client) send(ctx context.Context, method, path, token string, body, out any) error {
	req := c.rest.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	c.logger.Debug().Str("method", method).Str("path", path).Msg("HTTP request")

	resp, err := req.Execute(method, path)
	if err != nil {
		return &APIError{Err: fmt.Errorf("failed to send request: %w", err)}
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("HTTP response")

	var env envelope
	raw := resp.Body()
	decodeErr := error(nil)
	if len(raw) > 0 {
		decodeErr = json.Unmarshal(raw, &env)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return &APIError{Status: resp.StatusCode(), Message: msg}
	}

	if decodeErr != nil {
		return fmt.Errorf("failed to decode response: %w", decodeErr)
	}

	if env.Success != nil && !*env.Success {
		return &APIError{Status: resp.StatusCode(), Message: env.Message}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}

	return nil
}
