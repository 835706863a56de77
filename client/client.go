// Package client is the single outbound HTTP point of the fleet dashboard.
//
// Every request carries the session's access token. When the API answers
// 401 the client asks the session for a new token and re-issues the request
// once. A failed refresh terminates the session, which announces it to
// subscribers, and the request fails with ErrUnauthorized. A 401 on the
// re-issued request is returned as ErrUnauthorized without a second refresh
// and leaves the session as it is.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	clienterrors "github.com/Paaskehare/SevenShift/client/internal/errors"
	"github.com/Paaskehare/SevenShift/client/session"
)

// DefaultHTTPTimeout bounds a single request when no other timeout is set.
const DefaultHTTPTimeout = 30 * time.Second

// HeaderRequestID correlates a request with backend logs.
const HeaderRequestID = "X-Request-ID"

type Client struct {
	baseURL   string
	http      *http.Client
	session   *session.Session
	userAgent string
}

// New constructs a Client for the API rooted at baseURL
// (e.g. "https://fleet.example.com/api"). sess may be nil for anonymous use;
// without a session a 401 is returned as ErrUnauthorized immediately.
func New(baseURL string, sess *session.Session, opts ...Option) *Client {
	if baseURL == "" {
		panic("baseURL cannot be empty")
	}

	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		session:   sess,
		http:      &http.Client{Timeout: DefaultHTTPTimeout},
		userAgent: "fleetctl",
	}

	// Auto-enable debug via env variable without changing code.
	if debugLoggingRequested() {
		opts = append(opts, WithDebugLogging(true))
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			panic(err)
		}
	}

	c.wrapTransportWithHeaders()
	return c
}

// BaseURL returns the API root the client was constructed with.
func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the session the client authenticates with, possibly nil.
func (c *Client) Session() *session.Session { return c.session }

// wrapTransportWithHeaders installs the outermost transport, which stamps
// the headers every request carries.
func (c *Client) wrapTransportWithHeaders() {
	baseTransport := c.http.Transport
	if baseTransport == nil {
		baseTransport = http.DefaultTransport
	}
	c.http.Transport = &headerTransport{
		base:      baseTransport,
		userAgent: c.userAgent,
	}
}

type headerTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Accept", "application/json")
	if t.userAgent != "" {
		cloned.Header.Set("User-Agent", t.userAgent)
	}
	if cloned.Header.Get(HeaderRequestID) == "" {
		cloned.Header.Set(HeaderRequestID, uuid.NewString())
	}
	return t.base.RoundTrip(cloned)
}

// Do sends req and returns the raw 2xx response. Any other outcome is
// returned as an error classified into ErrUnauthorized, ErrNotFound,
// ErrValidation, ErrNetwork, ErrServer or a plain *APIError.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, clienterrors.NewNetworkError(req.op(), err)
	}
	return c.do(ctx, attempt{req: req})
}

// Request is Do followed by decoding the JSON body into out. out may be nil,
// and an empty body (204) leaves it untouched.
func (c *Client) Request(ctx context.Context, method, path string, params url.Values, body, out any) error {
	req := Request{Method: method, Path: path, Params: params, Body: body}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", req.op(), err)
	}
	return nil
}

// do runs one attempt. The retry counter travels with the attempt; an
// attempt that is already a retry never triggers another refresh.
func (c *Client) do(ctx context.Context, at attempt) (*Response, error) {
	op := at.req.op()
	token := c.accessToken()

	resp, err := c.send(ctx, at.req, token)
	if err != nil {
		requestsTotal.WithLabelValues(at.req.Method, "error").Inc()
		return nil, err
	}
	requestsTotal.WithLabelValues(at.req.Method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	if clienterrors.IsAuthFailure(resp.StatusCode) && at.retries == 0 && c.session != nil {
		if _, rerr := c.session.Refresh(ctx, token); rerr != nil {
			if errors.Is(rerr, context.Canceled) || errors.Is(rerr, context.DeadlineExceeded) {
				authRetriesTotal.WithLabelValues("canceled").Inc()
				return nil, clienterrors.NewNetworkError(op, rerr)
			}
			authRetriesTotal.WithLabelValues("refresh_failed").Inc()
			ce := clienterrors.ClassifyHTTPError(op, resp.StatusCode, resp.Body)
			ce.Underlying = rerr
			return nil, ce
		}
		authRetriesTotal.WithLabelValues("retried").Inc()
		log.Debug().Str("op", op).Msg("retrying request with refreshed token")
		return c.do(ctx, at.retry())
	}

	return nil, clienterrors.ClassifyHTTPError(op, resp.StatusCode, resp.Body)
}

func (c *Client) accessToken() string {
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken()
}

// send performs one HTTP exchange with token as bearer credential and reads
// the whole body. Only transport failures are returned as errors.
func (c *Client) send(ctx context.Context, req Request, token string) (*Response, error) {
	op := req.op()

	var body io.Reader
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("%s: encode body: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, c.url(req), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, clienterrors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, clienterrors.NewNetworkError(op, err)
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func (c *Client) url(req Request) string {
	path := req.Path
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(req.Params) > 0 {
		u += "?" + req.Params.Encode()
	}
	return u
}
