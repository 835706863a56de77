package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// maxBodyInError bounds how much of a response body is kept for debugging.
const maxBodyInError = 2048

// ClassifyHTTPError maps a non-2xx response to a ClassifiedError.
// 401 and 403 are both treated as authorization failures; 400 bodies are
// decoded as DRF-style field errors.
func ClassifyHTTPError(op string, statusCode int, body []byte) *ClassifiedError {
	ce := &ClassifiedError{
		Kind:       getHTTPErrorKind(statusCode),
		Op:         op,
		StatusCode: statusCode,
		Body:       truncate(body),
		Underlying: fmt.Errorf("%s failed: HTTP %d", op, statusCode),
	}
	ce.Fields = parseFields(body)
	return ce
}

// getHTTPErrorKind maps HTTP status codes to error kinds.
func getHTTPErrorKind(statusCode int) Kind {
	switch {
	case statusCode == http.StatusUnauthorized, statusCode == http.StatusForbidden:
		return Unauthorized
	case statusCode == http.StatusNotFound:
		return NotFound
	case statusCode == http.StatusBadRequest:
		return Validation
	case statusCode >= 500 && statusCode < 600:
		return Server
	default:
		return Unexpected
	}
}

// NewNetworkError creates a classified error for failures where no response
// was received at all.
func NewNetworkError(op string, err error) *ClassifiedError {
	return &ClassifiedError{
		Kind:       Network,
		Op:         op,
		Underlying: fmt.Errorf("%s network error: %w", op, err),
	}
}

// IsAuthFailure reports whether a status code should trigger the refresh flow.
func IsAuthFailure(statusCode int) bool {
	return statusCode == http.StatusUnauthorized
}

// parseFields understands the three body shapes the backend produces:
// {"detail": "..."}, {"field": ["msg", ...]} and a bare ["msg", ...].
func parseFields(body []byte) map[string][]string {
	if len(body) == 0 {
		return nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		var list []string
		if err := json.Unmarshal(body, &list); err == nil && len(list) > 0 {
			return map[string][]string{"non_field_errors": list}
		}
		return nil
	}
	fields := make(map[string][]string, len(obj))
	for k, raw := range obj {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			fields[k] = []string{s}
			continue
		}
		var list []string
		if err := json.Unmarshal(raw, &list); err == nil {
			fields[k] = list
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}

func truncate(body []byte) string {
	if len(body) > maxBodyInError {
		return string(body[:maxBodyInError])
	}
	return string(body)
}
