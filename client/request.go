package client

import (
	"net/http"
	"net/url"
)

// Request describes one API call. It is never modified once issued; a retry
// re-sends the same Request.
type Request struct {
	Method string
	// Path is relative to the API root and keeps its trailing slash,
	// e.g. "/vehicles/42/".
	Path   string
	Params url.Values
	// Body is encoded as JSON when non-nil.
	Body any
}

func (r Request) op() string {
	return r.Method + " " + r.Path
}

// Response is a successful (2xx) API response with its body fully read.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

type attempt struct {
	req     Request
	retries int
}

func (a attempt) retry() attempt {
	return attempt{req: a.req, retries: a.retries + 1}
}
