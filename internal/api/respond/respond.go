// Package respond holds the JSON response helpers shared by all request
// handlers.
package respond

import (
	"encoding/json"
	"net/http"

	"aquacare/internal/common/errors"
)

// JSON writes v as a JSON response body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body. The invoker always receives a structured
// response, never a bare status.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"error": msg})
}

// MapError translates application errors to HTTP responses.
func MapError(w http.ResponseWriter, err error) {
	Error(w, errors.HTTPStatus(err), err.Error())
}
