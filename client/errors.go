package client

import (
	"errors"

	clienterrors "github.com/Paaskehare/SevenShift/client/internal/errors"
)

// Re-export the error taxonomy so callers compare against a single symbol.
var (
	ErrUnauthorized = clienterrors.ErrUnauthorized
	ErrNotFound     = clienterrors.ErrNotFound
	ErrValidation   = clienterrors.ErrValidation
	ErrNetwork      = clienterrors.ErrNetwork
	ErrServer       = clienterrors.ErrServer
)

// APIError is the concrete type of every classified failure. Use errors.As to
// reach the status code, operation and field details.
type APIError = clienterrors.ClassifiedError

// ErrorKind names the category of an APIError.
type ErrorKind = clienterrors.Kind

const (
	KindUnauthorized = clienterrors.Unauthorized
	KindNotFound     = clienterrors.NotFound
	KindValidation   = clienterrors.Validation
	KindNetwork      = clienterrors.Network
	KindServer       = clienterrors.Server
	KindUnexpected   = clienterrors.Unexpected
)

// FieldErrors returns the field-level messages of a validation failure, or
// nil when err carries none.
func FieldErrors(err error) map[string][]string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Fields
	}
	return nil
}

// StatusCode returns the HTTP status of a classified failure, 0 otherwise.
func StatusCode(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}

// Message renders err for display: the backend's detail when there is one,
// a generic line per kind otherwise.
func Message(err error) string {
	var ae *APIError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	if d := ae.Detail(); d != "" {
		return d
	}
	switch ae.Kind {
	case KindUnauthorized:
		return "not authorized, please log in again"
	case KindNotFound:
		return "not found"
	case KindNetwork:
		return "could not reach the server"
	case KindServer:
		return "the server failed to process the request"
	}
	return ae.Error()
}
