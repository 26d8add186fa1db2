package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrInvalidCredentials is returned when login is answered without a token.
	ErrInvalidCredentials = errors.New("backend: invalid credentials")
	// ErrTokenRejected is returned when the validation endpoint refuses a token.
	ErrTokenRejected = errors.New("backend: token rejected")
	// ErrTransport wraps network-level failures.
	ErrTransport = errors.New("backend: transport failure")
)

const (
	defaultLoginPath    = "/auth/login"
	defaultValidatePath = "/auth/validate"
	defaultLogoutPath   = "/auth/logout"
	defaultTimeout      = 10 * time.Second

	// RequestIDHeader carries a per-request correlation id.
	RequestIDHeader = "X-Request-ID"

	maxResponseBytes = 1 << 20
)

// Config configures a Client. Zero paths fall back to the defaults above.
type Config struct {
	BaseURL      string
	LoginPath    string
	ValidatePath string
	LogoutPath   string
	Timeout      time.Duration
	UserAgent    string
}

// Client talks to the remote auth endpoint. Safe for concurrent use.
type Client struct {
	cfg  Config
	http *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// New builds a Client. BaseURL is required.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		return nil, errors.New("backend: base URL required")
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = defaultLoginPath
	}
	if cfg.ValidatePath == "" {
		cfg.ValidatePath = defaultValidatePath
	}
	if cfg.LogoutPath == "" {
		cfg.LogoutPath = defaultLogoutPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token       string `json:"token"`
	AccessToken string `json:"access_token"`
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	resp, err := c.do(ctx, http.MethodPost, c.cfg.LoginPath, "", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrInvalidCredentials, resp.StatusCode)
	}

	var out loginResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: malformed body", ErrInvalidCredentials)
	}
	token := out.Token
	if token == "" {
		token = out.AccessToken
	}
	if token == "" {
		return "", fmt.Errorf("%w: no token in response", ErrInvalidCredentials)
	}
	return token, nil
}

// Validate reports whether token is still accepted by the backend.
func (c *Client) Validate(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodGet, c.cfg.ValidatePath, token, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: status %d", ErrTokenRejected, resp.StatusCode)
	}
	return nil
}

// Logout notifies the backend that token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	resp, err := c.do(ctx, http.MethodPost, c.cfg.LogoutPath, token, nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("backend: logout status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if c.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", c.cfg.UserAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return resp, nil
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	_ = resp.Body.Close()
}
