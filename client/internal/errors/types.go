// Package errors classifies failures of the fleet API client into the small
// taxonomy callers branch on: unauthorized, not found, validation, network
// and server errors.
package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind determines how a failure is surfaced to the caller.
type Kind int

const (
	// Unauthorized means the credentials were rejected and could not be
	// recovered by a refresh.
	Unauthorized Kind = iota
	// NotFound is a 404 on a detail endpoint.
	NotFound
	// Validation is a 400 carrying field-level details.
	Validation
	// Network means no response was received (dial, TLS, timeout, cancel).
	Network
	// Server is any 5xx response.
	Server
	// Unexpected covers the remaining non-2xx statuses (405, 409, 429, ...).
	Unexpected
)

// String returns a human-readable representation of the kind.
func (k Kind) String() string {
	switch k {
	case Unauthorized:
		return "Unauthorized"
	case NotFound:
		return "NotFound"
	case Validation:
		return "ValidationError"
	case Network:
		return "NetworkError"
	case Server:
		return "ServerError"
	case Unexpected:
		return "Unexpected"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// Sentinels matched by errors.Is against any *ClassifiedError of that kind.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrNetwork      = errors.New("network error")
	ErrServer       = errors.New("server error")
)

// ClassifiedError wraps a failed API call with its kind and diagnostics.
type ClassifiedError struct {
	Kind       Kind
	Op         string // e.g. "GET /api/vehicles/"
	StatusCode int    // 0 for network errors
	Body       string // raw response body, truncated
	// Fields holds field-level validation messages. The keys "detail" and
	// "non_field_errors" carry messages that are not tied to one field.
	Fields     map[string][]string
	Underlying error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode > 0 {
		fmt.Fprintf(&b, " (HTTP %d)", e.StatusCode)
	}
	if msg := e.Detail(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Underlying != nil {
		b.WriteString(": ")
		b.WriteString(e.Underlying.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// Is lets errors.Is match the kind sentinels.
func (e *ClassifiedError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Kind == Unauthorized
	case ErrNotFound:
		return e.Kind == NotFound
	case ErrValidation:
		return e.Kind == Validation
	case ErrNetwork:
		return e.Kind == Network
	case ErrServer:
		return e.Kind == Server
	}
	return false
}

// Transient reports whether re-triggering the same request may succeed.
func (e *ClassifiedError) Transient() bool {
	return e.Kind == Network || e.Kind == Server
}

// Detail flattens Fields into one line, sorted by field name.
func (e *ClassifiedError) Detail() string {
	if len(e.Fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		msg := strings.Join(e.Fields[k], " ")
		if k == "detail" || k == "non_field_errors" {
			parts = append(parts, msg)
			continue
		}
		parts = append(parts, k+": "+msg)
	}
	return strings.Join(parts, "; ")
}

// KindOf returns the kind of err and whether err is classified at all.
func KindOf(err error) (Kind, bool) {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Kind, true
	}
	return 0, false
}
