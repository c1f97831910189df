package httpapi

import (
	"encoding/json"
	"net/http"

	"bloomed/internal/chat"
	"bloomed/pkg/types"
)

// statusFor maps a generation failure to a response status.
func statusFor(err error) int {
	switch {
	case chat.IsConfiguration(err):
		return http.StatusServiceUnavailable
	case chat.IsGeneration(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// outcomeFor labels a generation result for metrics.
func outcomeFor(err error) string {
	switch {
	case err == nil:
		return "ok"
	case chat.IsConfiguration(err):
		return "configuration_error"
	case chat.IsGeneration(err):
		return "generation_error"
	default:
		return "error"
	}
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
