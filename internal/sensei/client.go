// Package sensei talks to the Sensei chatbot testing API. The Client wraps
// net/http with token injection, session expiry handling and uniform error
// classification; one file per backend resource builds on it.
package sensei

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sensei/dashboard/internal/session"
)

// API is the full client surface. The dashboard server and the CLI depend on
// this interface so tests can swap in the mock client.
type API interface {
	Login(ctx context.Context, username, password string) (*User, error)
	Register(ctx context.Context, username, email, password string) (*User, error)
	Logout()

	GetProjects(ctx context.Context) ([]Project, error)
	GetProject(ctx context.Context, id int) (*Project, error)
	CreateProject(ctx context.Context, p Project) (*Project, error)
	UpdateProject(ctx context.Context, p Project) (*Project, error)
	DeleteProject(ctx context.Context, id int) error

	GetTestCases(ctx context.Context, opts ListOptions) ([]TestCase, error)
	GetTestCase(ctx context.Context, id int) (*TestCase, error)
	ExecuteTestCase(ctx context.Context, id int) (*TestCase, error)
	StopTestCase(ctx context.Context, id int) error
	DeleteTestCase(ctx context.Context, id int) error

	GetConnectors(ctx context.Context, projectID int) ([]Connector, error)
	GetConnector(ctx context.Context, id int) (*Connector, error)
	CreateConnector(ctx context.Context, c Connector) (*Connector, error)
	UpdateConnector(ctx context.Context, c Connector) (*Connector, error)
	DeleteConnector(ctx context.Context, id int) error
	GetConnectorTechnologies(ctx context.Context) ([]Technology, error)
	ValidateConnector(ctx context.Context, id int) (*ValidationResult, error)

	GetReport(ctx context.Context, testCaseID int) (*Report, error)
	GetGlobalReport(ctx context.Context, projectID int) (*GlobalReport, error)
	GetTestErrors(ctx context.Context, testCaseID int) ([]TestError, error)
	DownloadGraph(ctx context.Context, testCaseID int, format string) ([]byte, error)

	GetAPIKeys(ctx context.Context) ([]APIKey, error)
	CreateAPIKey(ctx context.Context, name string) (*APIKey, error)
	DeleteAPIKey(ctx context.Context, id int) error

	UploadProfile(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// Client is the real API implementation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   session.Store
	onExpired  func()
	log        zerolog.Logger
}

var _ API = (*Client)(nil)

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithSessionExpiredHook installs a callback fired when a request fails with
// an expired token. The dashboard uses it to send the user back to login.
func WithSessionExpiredHook(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// NewClient creates a client against baseURL using the given session store.
func NewClient(baseURL string, sessions session.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		sessions: sessions,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do dispatches a single request. contentType may be empty to leave the
// Content-Type header unset (multipart bodies carry their own boundary type).
// Caller headers override the defaults. The caller owns the response body.
func (c *Client) do(ctx context.Context, method, url string, body io.Reader, contentType string, headers http.Header) (*http.Response, error) {
	token, hasToken := c.sessions.Token()

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if hasToken && token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}
	for key, values := range headers {
		req.Header[key] = values
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, networkError(err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		// Token, user and project selection are stale either way.
		c.sessions.ClearSession()
		if hasToken && token != "" {
			c.log.Warn().Str("url", url).Msg("session expired, clearing local session")
			if c.onExpired != nil {
				c.onExpired()
			}
			return nil, &APIError{Kind: KindUnauthorized, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw)), err: ErrSessionExpired}
		}
		return nil, httpError(resp.StatusCode, raw)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, httpError(resp.StatusCode, raw)
	}

	return resp, nil
}

// httpError keeps a parseable JSON body verbatim so callers can inspect
// backend validation fields; anything else degrades to a generic status error.
func httpError(status int, raw []byte) *APIError {
	body := strings.TrimSpace(string(raw))
	if body != "" && json.Valid(raw) {
		return &APIError{Kind: KindHTTP, Status: status, Body: body}
	}
	return &APIError{Kind: KindHTTP, Status: status}
}

// getJSON performs a GET and decodes the JSON body into out.
func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, url, nil, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return decodeError(err)
	}
	return nil
}

// sendJSON marshals in (when non-nil) and decodes the response into out (when
// non-nil). A 204 or an empty body resolves as a void success without any
// JSON parsing.
func (c *Client) sendJSON(ctx context.Context, method, url string, in, out any) error {
	var body io.Reader
	if in != nil {
		encoded, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = strings.NewReader(string(encoded))
	}

	resp, err := c.do(ctx, method, url, body, "application/json", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return decodeError(err)
	}
	return nil
}

// getBytes performs a GET and returns the raw response body (binary endpoints).
func (c *Client) getBytes(ctx context.Context, url string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, url, nil, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, networkError(err)
	}
	return data, nil
}
