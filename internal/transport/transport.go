// Package transport issues single JSON requests against the remote registry.
package transport

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
	"github.com/rs/zerolog"
)

// Sender performs one request and returns the raw response.
// A non-2xx status is returned as data; only network level problems are errors.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// Ensure HTTP implements Sender at compile time.
var _ Sender = (*HTTP)(nil)

// Request describes a single call.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	Body    any
	Timeout time.Duration // bounds dial, write and read; zero uses the sender default
}

// Response is the status and undecoded body of a completed exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// OK reports whether the status is 2xx.
func (r Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Error is a transport failure: DNS, connect, timeout, or a broken read.
type Error struct {
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", strings.ToLower(e.Method), e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a deadline.
func (e *Error) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// IsFailure reports whether err is (or wraps) a transport failure.
func IsFailure(err error) bool {
	var te *Error
	return errors.As(err, &te)
}

const (
	// DefaultUserAgent is a mobile Safari string; the registry rejects unfamiliar agents.
	DefaultUserAgent = "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"
	defaultTimeout   = 15 * time.Second
	maxBodyBytes     = 8 << 20
)

// HTTP is the net/http backed Sender.
type HTTP struct {
	client    *http.Client
	userAgent string
	timeout   time.Duration
	maxBody   int64
	logger    zerolog.Logger
}

// Option configures an HTTP sender.
type Option func(*HTTP)

// WithUserAgent overrides the client identification header.
func WithUserAgent(ua string) Option {
	return func(h *HTTP) {
		if ua = strings.TrimSpace(ua); ua != "" {
			h.userAgent = ua
		}
	}
}

// WithTimeout sets the timeout used when a request does not carry one.
func WithTimeout(d time.Duration) Option {
	return func(h *HTTP) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// WithLogger attaches a logger for per-request debug events.
func WithLogger(logger zerolog.Logger) Option {
	return func(h *HTTP) { h.logger = logger }
}

// WithHTTPClient swaps the underlying client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// New builds an HTTP sender.
func New(opts ...Option) *HTTP {
	h := &HTTP{
		client:    &http.Client{},
		userAgent: DefaultUserAgent,
		timeout:   defaultTimeout,
		maxBody:   maxBodyBytes,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Send issues req and reads the whole response body.
func (h *HTTP) Send(ctx context.Context, req Request) (Response, error) {
	if h == nil {
		return Response{}, fmt.Errorf("transport is nil")
	}
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}
	target, err := url.Parse(req.URL)
	if err != nil || target.Scheme == "" || target.Host == "" {
		return Response{}, fmt.Errorf("url %q is not absolute", req.URL)
	}

	var body io.Reader
	if req.Body != nil {
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return Response{}, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = h.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return Response{}, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json; charset=UTF-8")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", h.userAgent)
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	reqID := uuid.NewString()
	start := time.Now()
	resp, err := h.client.Do(httpReq)
	if err != nil {
		h.logger.Debug().Str("request_id", reqID).Str("method", method).Str("url", target.String()).
			Dur("elapsed", time.Since(start)).Err(err).Msg("request failed")
		return Response{}, &Error{Method: method, URL: target.String(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return Response{}, &Error{Method: method, URL: target.String(), Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(data)) > h.maxBody {
		h.logger.Debug().Str("request_id", reqID).Str("method", method).Str("url", target.String()).
			Int("status", resp.StatusCode).Int64("limit", h.maxBody).Msg("response too large")
		return Response{}, &Error{Method: method, URL: target.String(), Err: fmt.Errorf("response exceeds %d bytes", h.maxBody)}
	}

	h.logger.Debug().Str("request_id", reqID).Str("method", method).Str("url", target.String()).
		Int("status", resp.StatusCode).Int("bytes", len(data)).Dur("elapsed", time.Since(start)).Msg("request done")

	return Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
