package aidb

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

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TokenSource supplies the bearer token for outbound requests. An empty
// token means "no session" and no Authorization header is attached.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a plain function to TokenSource.
type TokenFunc func() string

// Token implements TokenSource.
func (f TokenFunc) Token() string { return f() }

// Client talks to the Personal AI Database REST API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
	tokens    TokenSource
	debug     bool

	Contacts *ContactsAPI
	Events   *EventsAPI
	Audio    *AudioAPI
	Query    *QueryAPI
	Auth     *AuthAPI
}

const (
	// DefaultBaseURL matches the backend's default bind and API prefix.
	DefaultBaseURL   = "http://127.0.0.1:8000/api/v1"
	defaultUserAgent = "padb/0.1"
	defaultTimeout   = 30 * time.Second
	maxErrorBody     = 64 << 10
)

// NewClient builds a Client rooted at baseURL. The base URL keeps its path
// (e.g. /api/v1); every resource path is joined beneath it.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	base, err := parseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	c := &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.debug {
		c.http.Transport = &debugTransport{base: c.http.Transport}
	}
	// Installed last so the debug dump shows the Authorization header.
	c.http.Transport = &bearerTransport{base: c.http.Transport, tokens: c.tokens}

	c.Contacts = &ContactsAPI{c: c}
	c.Events = &EventsAPI{c: c}
	c.Audio = &AudioAPI{c: c}
	c.Query = &QueryAPI{c: c}
	c.Auth = &AuthAPI{c: c}
	return c, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// request describes one outbound call.
type request struct {
	op     string // human label used in errors, e.g. "get contact"
	method string
	route  string // path template used for metrics, e.g. /contacts/{id}
	path   string
	query  url.Values

	body        any       // JSON encoded when non-nil
	raw         io.Reader // pre-encoded body (multipart uploads)
	contentType string

	// Identify the entity for NotFoundError.
	resource string
	id       int64

	// bearer overrides the TokenSource for this call only.
	bearer string
}

func (c *Client) do(ctx context.Context, r request, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if err := ctx.Err(); err != nil {
		return &NetworkError{Op: r.op, Err: err}
	}

	reqURL := c.baseURL.JoinPath(r.path)
	if len(r.query) > 0 {
		reqURL.RawQuery = r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.raw != nil:
		body = r.raw
	case r.body != nil:
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", r.op, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, reqURL.String(), body)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", r.op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+r.bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		observeRequest(r.method, r.route, 0, elapsed)
		log.Debug().Str("component", "aidb").Str("request_id", requestID).
			Str("method", r.method).Str("path", reqURL.Path).Err(err).Msg("request failed")
		return &NetworkError{Op: r.op, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	observeRequest(r.method, r.route, resp.StatusCode, elapsed)
	log.Debug().Str("component", "aidb").Str("request_id", requestID).
		Str("method", r.method).Str("path", reqURL.Path).
		Int("status", resp.StatusCode).Dur("duration", elapsed).Msg("request complete")

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &HTTPStatusError{Op: r.op, Status: resp.StatusCode, Body: string(raw)}
		if resp.StatusCode == http.StatusNotFound {
			return &NotFoundError{Resource: r.resource, ID: r.id, Status: statusErr}
		}
		return statusErr
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return &DecodeError{Op: r.op, Err: fmt.Errorf("empty body")}
		}
		return &DecodeError{Op: r.op, Err: err}
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api url %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api url %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
