package helpers

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse is the error body for all failing endpoints.
// swagger:model ErrorResponse
type ErrorResponse struct {
	Error string `json:"error"`
}

// FallbackResponse is the body of POST /token/decrypt when decryption fails.
// The endpoint always resolves: callers get a structured body with
// fallback=true instead of a hard failure.
// swagger:model FallbackResponse
type FallbackResponse struct {
	Error     string `json:"error"`
	Fallback  bool   `json:"fallback"`
	Timestamp int64  `json:"timestamp"`
}

// WriteJSON sets Content-Type to application/json, writes statusCode, and
// encodes v as the response body.
func WriteJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an ErrorResponse with the given status code and message.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteFallback writes a FallbackResponse with HTTP 200 and the current time
// in unix milliseconds.
func WriteFallback(w http.ResponseWriter, message string) {
	WriteJSON(w, http.StatusOK, FallbackResponse{
		Error:     message,
		Fallback:  true,
		Timestamp: time.Now().UnixMilli(),
	})
}
