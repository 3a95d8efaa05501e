package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/gateway"
)

// errorBody is the shape of every failed response.
type errorBody struct {
	Success   bool     `json:"success"`
	Error     string   `json:"error"`
	Message   string   `json:"message,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	ResetTime string   `json:"resetTime,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps gateway errors onto HTTP. upstreamCategory names the
// failed operation for 502 responses.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error, upstreamCategory string) {
	var (
		ve *gateway.ValidationError
		rl *gateway.RateLimitedError
		ue *gateway.UpstreamError
	)

	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorBody{
			Error:  "Validation failed",
			Errors: ve.Messages,
		})

	case errors.As(err, &rl):
		w.Header().Set("Retry-After", strconv.Itoa(rl.RetryAfterSeconds()))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(rl.Remaining))
		writeJSON(w, http.StatusTooManyRequests, errorBody{
			Error:     "Rate limit exceeded",
			Message:   "Too many requests. Please try again later.",
			ResetTime: rl.ResetAt.UTC().Format(time.RFC3339),
		})

	case errors.Is(err, gateway.ErrInvalidJSON):
		badRequest(w, "Invalid JSON", "Request body must be valid JSON")

	case errors.Is(err, gateway.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{
			Error:   "Appeal not found",
			Message: "No appeal found with the provided number",
		})

	case errors.As(err, &ue):
		s.logEvent(r, "warn", "upstream_failure", err)
		msg := "The agency service is unavailable. Please try again later."
		if s.deps.DevDiagnostics {
			msg = ue.Error()
		}
		writeJSON(w, http.StatusBadGateway, errorBody{
			Error:     upstreamCategory,
			Message:   msg,
			Timestamp: s.now().UTC().Format(time.RFC3339),
		})

	default:
		s.internalError(w, r, err)
	}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	s.logEvent(r, "error", "internal_error", err)
	msg := "An unexpected error occurred"
	if s.deps.DevDiagnostics {
		msg = err.Error()
	}
	writeJSON(w, http.StatusInternalServerError, errorBody{
		Error:     "Internal server error",
		Message:   msg,
		Timestamp: s.now().UTC().Format(time.RFC3339),
	})
}

func badRequest(w http.ResponseWriter, category, message string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: category, Message: message})
}

func (s *Server) logEvent(r *http.Request, level, msg string, err error) {
	logJSON(s.logger, map[string]any{
		"ts":         s.now().UTC().Format(time.RFC3339Nano),
		"level":      level,
		"msg":        msg,
		"request_id": RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
		"error":      err.Error(),
	})
}
