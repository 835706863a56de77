package fakeapi

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Error bodies follow the REST backend's conventions: {"detail": "..."} for
// general failures, {"field": ["msg", ...]} for validation failures.

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeDetail writes {"detail": message}.
func writeDetail(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"detail": message})
}

// writeFieldErrors writes a 400 with field-level messages.
func writeFieldErrors(w http.ResponseWriter, fields fieldErrors) {
	writeJSON(w, http.StatusBadRequest, fields)
}

func writeNotFound(w http.ResponseWriter) {
	writeDetail(w, http.StatusNotFound, "Not found.")
}

// fieldErrors accumulates validation messages per field.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) required(field string) {
	f.add(field, "This field is required.")
}

func merge(dst, src fieldErrors) {
	for k, msgs := range src {
		dst[k] = append(dst[k], msgs...)
	}
}
