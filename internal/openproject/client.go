// Package openproject is a conservative OpenProject API v3 client.
//
// It speaks HAL+JSON against /api/v3, plus the legacy JSON wiki endpoints
// that API v3 still lacks. Responses are decoded into the thin types in
// types.go; non-2xx responses surface as typed errors so callers can route
// auth failures, workflow rejections and endpoint gaps differently.
package openproject

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
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	apiPrefix      = "/api/v3"
	defaultTimeout = 30 * time.Second
	userAgent      = "opline/0.1.0"

	// maxPageSize is the server-side cap on collection page sizes.
	maxPageSize = 200

	// maxErrorBody bounds how much of an error payload is read back.
	maxErrorBody = 64 << 10
)

// Auth modes accepted by New.
const (
	AuthToken = "token"
	AuthBasic = "basic"
)

// Config carries everything needed to construct a Client.
type Config struct {
	// BaseURL is the OpenProject root, with or without a trailing /api/v3.
	BaseURL  string
	AuthMode string
	Token    string
	Username string
	Password string

	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger

	// DebugJSON, when set, receives every response payload pretty-printed.
	DebugJSON io.Writer
}

// Client talks to one OpenProject instance.
type Client struct {
	baseURL    string
	authMode   string
	token      string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
	debugJSON  io.Writer
}

// New validates cfg and returns a ready client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	base = strings.TrimSuffix(base, apiPrefix)
	if base == "" {
		return nil, errors.New("openproject base URL is required")
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if mode == "" {
		mode = AuthToken
	}
	switch mode {
	case AuthToken:
		if strings.TrimSpace(cfg.Token) == "" {
			return nil, errors.New("an API token is required for token authentication")
		}
	case AuthBasic:
		if cfg.Username == "" || cfg.Password == "" {
			return nil, errors.New("a username and password are required for basic auth mode")
		}
	default:
		return nil, fmt.Errorf("unsupported auth mode %q: use %q or %q", cfg.AuthMode, AuthToken, AuthBasic)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Client{
		baseURL:    base,
		authMode:   mode,
		token:      strings.TrimSpace(cfg.Token),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
		logger:     logger,
		debugJSON:  cfg.DebugJSON,
	}, nil
}

// BaseURL returns the normalized server root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one API v3 request. expect lists acceptable status codes and
// defaults to 200. A nil out discards the body.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, payload, out any, expect ...int) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.baseURL + apiPrefix + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/hal+json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.send(req, method, path, out, authHint, expect...)
}

// legacy sends one request to the pre-v3 JSON endpoints that still back
// the wiki. Paths are relative to the server root, not /api/v3.
func (c *Client) legacy(ctx context.Context, method, path string, payload, out any, expect ...int) error {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	endpoint := c.baseURL + path

	var buf bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&buf).Encode(payload); err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-Id", uuid.New().String())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	return c.send(req, method, path, out, legacyAuthHint, expect...)
}

const (
	authHint = "authentication failed: check OPENPROJECT_BASE_URL, OPENPROJECT_API_TOKEN, " +
		"and token permissions"
	legacyAuthHint = "legacy wiki endpoint rejected authentication: use OPENPROJECT_AUTH_MODE=basic " +
		"with OPENPROJECT_USERNAME/OPENPROJECT_PASSWORD, or verify legacy wiki API access for your token"
)

func (c *Client) authorize(req *http.Request) {
	switch c.authMode {
	case AuthBasic:
		req.SetBasicAuth(c.username, c.password)
	default:
		// OpenProject token auth convention: username "apikey", password token.
		req.SetBasicAuth("apikey", c.token)
	}
}

func (c *Client) send(req *http.Request, method, path string, out any, hint string, expect ...int) error {
	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call openproject: %w", err)
	}
	defer res.Body.Close()

	c.logger.Debug("openproject request",
		"method", method,
		"path", path,
		"status", res.StatusCode,
		"duration", time.Since(start).Round(time.Millisecond),
		"request_id", req.Header.Get("X-Request-Id"),
	)

	expected := expect
	if len(expected) == 0 {
		expected = []int{http.StatusOK}
	}
	if !slices.Contains(expected, res.StatusCode) {
		body, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
			return &AuthError{StatusCode: res.StatusCode, Message: hint}
		}
		return &APIError{
			StatusCode: res.StatusCode,
			Method:     method,
			Path:       path,
			Message:    extractErrorMessage(body),
		}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	c.dumpJSON(method, path, res.StatusCode, body)
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) dumpJSON(method, path string, status int, body []byte) {
	if c.debugJSON == nil || len(bytes.TrimSpace(body)) == 0 {
		return
	}
	fmt.Fprintf(c.debugJSON, "%s %s -> %d\n", method, path, status)
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		c.debugJSON.Write(body)
	} else {
		c.debugJSON.Write(pretty.Bytes())
	}
	io.WriteString(c.debugJSON, "\n")
}

// page is the HAL collection envelope. Elements stay raw so collect can
// decode them into the caller's type.
type page struct {
	Total    int `json:"total"`
	Count    int `json:"count"`
	PageSize int `json:"pageSize"`
	Offset   int `json:"offset"`
	Embedded struct {
		Elements []json.RawMessage `json:"elements"`
	} `json:"_embedded"`
	Links Links `json:"_links"`
}

// collect walks a HAL collection with offset pagination until limit
// elements are gathered or the server stops handing out nextByOffset.
// Offsets are 1-based and advance by the reported element count.
func collect[T any](ctx context.Context, c *Client, path string, params url.Values, limit int) ([]T, error) {
	if limit <= 0 {
		return nil, nil
	}
	pageSize := min(limit, maxPageSize)

	var out []T
	offset := 1
	for len(out) < limit {
		remaining := limit - len(out)
		reqParams := url.Values{}
		for k, v := range params {
			reqParams[k] = v
		}
		reqParams.Set("offset", strconv.Itoa(offset))
		reqParams.Set("pageSize", strconv.Itoa(min(pageSize, remaining)))

		var pg page
		if err := c.do(ctx, http.MethodGet, path, reqParams, nil, &pg); err != nil {
			return nil, err
		}
		if len(pg.Embedded.Elements) == 0 {
			break
		}

		for _, raw := range pg.Embedded.Elements {
			if len(out) == limit {
				break
			}
			var item T
			if err := json.Unmarshal(raw, &item); err != nil {
				return nil, fmt.Errorf("decode %s element: %w", path, err)
			}
			out = append(out, item)
		}

		if !pg.Links.Has("nextByOffset") {
			break
		}
		count := pg.Count
		if count <= 0 {
			count = len(pg.Embedded.Elements)
		}
		offset += count
	}
	return out, nil
}

// extractErrorMessage pulls a readable message out of an OpenProject error
// payload, preferring the top-level message, then joined embedded errors,
// then the raw body.
func extractErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return "no error body returned"
	}

	var payload struct {
		Message  string `json:"message"`
		Embedded struct {
			Errors []struct {
				Message string `json:"message"`
			} `json:"errors"`
		} `json:"_embedded"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return string(trimmed)
	}

	if msg := strings.TrimSpace(payload.Message); msg != "" {
		return msg
	}
	var msgs []string
	for _, e := range payload.Embedded.Errors {
		if m := strings.TrimSpace(e.Message); m != "" {
			msgs = append(msgs, m)
		}
	}
	if len(msgs) > 0 {
		return strings.Join(msgs, "; ")
	}
	return "unexpected error format returned by server"
}

// toAPIPath normalizes an absolute href or /api/v3 path from a _links
// object into a path do can take.
func toAPIPath(href string) string {
	v := strings.TrimSpace(href)
	if v == "" {
		return "/"
	}
	if strings.Contains(v, "://") {
		if u, err := url.Parse(v); err == nil {
			v = u.Path
		}
	}
	if strings.HasPrefix(v, apiPrefix) {
		v = strings.TrimPrefix(v, apiPrefix)
	}
	if !strings.HasPrefix(v, "/") {
		v = "/" + v
	}
	return v
}
