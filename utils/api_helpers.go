package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details,omitempty"`
}

// RespondJSON sends a JSON response with the given status code and payload.
func RespondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// headers are already sent, nothing left to tell the client
		slog.Error("encoding JSON response", "error", err)
	}
}

// RespondError sends a JSON error response and logs the message to the
// request's log builder, or through slog when there is none.
func RespondError(w http.ResponseWriter, logger *strings.Builder, message string, status int) {
	RespondErrorDetails(w, logger, message, nil, status)
}

// RespondErrorDetails is RespondError with per-field reasons
func RespondErrorDetails(w http.ResponseWriter, logger *strings.Builder, message string, details map[string]string, status int) {
	if logger != nil {
		AddToLogMessage(logger, fmt.Sprintf("%d %s", status, message))
	} else {
		slog.Warn("request failed", "status", status, "error", message)
	}
	RespondJSON(w, status, ErrorBody{Error: message, Details: details})
}

// LatencyMiddleware logs the duration of each request
func LatencyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		duration := time.Since(start)
		fmt.Printf("[LATENCY] %s %s - %v\n", r.Method, r.URL.Path, duration)
	})
}
