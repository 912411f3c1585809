// Package backend is a typed client for the staff moderation REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultCookieName is the session cookie set by the backend login flow.
	DefaultCookieName = "connect.sid"

	defaultTimeout = 10 * time.Second
	maxBodySize    = 2 * 1024 * 1024
)

// Options configures a Client.
type Options struct {
	BaseURL string

	// SessionCookie is sent on every request that does not carry its own
	// cookies via WithCookies.
	SessionCookie string
	CookieName    string

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to the moderation backend.
type Client struct {
	baseURL    string
	cookieName string
	session    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates opts and returns a ready client.
func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		return nil, &RequestError{Op: "create backend client", Err: errors.New("backend url is empty")}
	}
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, &RequestError{Op: "parse backend url", Err: err}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, &RequestError{Op: "validate backend url", Err: fmt.Errorf("invalid backend url: %s", base)}
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}
	name := opts.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		cookieName: name,
		session:    strings.TrimSpace(opts.SessionCookie),
		httpClient: hc,
		logger:     logger,
	}, nil
}

// BaseURL returns the backend root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// CookieName returns the name of the session cookie.
func (c *Client) CookieName() string { return c.cookieName }

// LoginURL is where a browser is sent to start the Discord login flow.
func (c *Client) LoginURL() string { return c.baseURL + "/api/login" }

// LogoutURL ends the backend session.
func (c *Client) LogoutURL() string { return c.baseURL + "/api/logout" }

type cookiesKey struct{}

// WithCookies attaches request cookies to ctx. The client forwards them
// instead of its static session cookie.
func WithCookies(ctx context.Context, cookies []*http.Cookie) context.Context {
	return context.WithValue(ctx, cookiesKey{}, cookies)
}

func cookiesFromContext(ctx context.Context) []*http.Cookie {
	cookies, _ := ctx.Value(cookiesKey{}).([]*http.Cookie)
	return cookies
}

// response is a raw backend reply.
type response struct {
	status int
	body   []byte
}

// do sends one request. Only transport and read failures are errors; the
// caller interprets the status.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body any) (*response, error) {
	full := c.baseURL + path
	if len(query) > 0 {
		full += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Op: op, Err: fmt.Errorf("marshal request body: %w", err)}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, full, reader)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookies := cookiesFromContext(ctx); len(cookies) > 0 {
		for _, ck := range cookies {
			req.AddCookie(ck)
		}
	} else if c.session != "" {
		req.AddCookie(&http.Cookie{Name: c.cookieName, Value: c.session})
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &RequestError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug("backend request",
		"op", op,
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

// getJSON performs a GET and decodes a 2xx body into out.
func (c *Client) getJSON(ctx context.Context, op, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, op, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	if resp.status == http.StatusUnauthorized || resp.status == http.StatusForbidden {
		return &RequestError{Op: op, StatusCode: resp.status, Err: ErrUnauthenticated}
	}
	if resp.status < 200 || resp.status >= 300 {
		return &RequestError{Op: op, StatusCode: resp.status, Err: errors.New(statusMessage(resp))}
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return &RequestError{Op: op, StatusCode: resp.status, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// mutate sends a ban mutation. 200 and 201 are success; anything else is a
// MutationError carrying the backend's message when it sent one.
func (c *Client) mutate(ctx context.Context, op, method, path string, body any) error {
	resp, err := c.do(ctx, op, method, path, nil, body)
	if err != nil {
		return err
	}
	if resp.status == http.StatusOK || resp.status == http.StatusCreated {
		return nil
	}

	var msg struct {
		Message string `json:"message"`
	}
	if jsonErr := json.Unmarshal(resp.body, &msg); jsonErr != nil || strings.TrimSpace(msg.Message) == "" {
		msg.Message = FallbackMessage
	}
	c.logger.Warn("backend rejected mutation", "op", op, "status", resp.status, "message", msg.Message)
	return &MutationError{Status: resp.status, Message: msg.Message}
}

func statusMessage(resp *response) string {
	msg := strings.TrimSpace(string(resp.body))
	if msg == "" || len(msg) > 200 {
		return http.StatusText(resp.status)
	}
	return msg
}

// segment escapes a user-supplied path segment.
func segment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}
