package ai

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNoBody is returned when a 2xx response carries nothing to stream.
	ErrNoBody = errors.New("response has no body to stream")

	// ErrUnreachable wraps connection failures to the inference server.
	ErrUnreachable = errors.New("could not reach server")

	// ErrMissingFields marks a JSON line that is not a stream record.
	ErrMissingFields = errors.New("record has neither response nor done")

	// ErrCancelled is returned by blocking helpers when the request was
	// cancelled. Handles report cancellation through OnCancelled instead.
	ErrCancelled = errors.New("request cancelled")
)

// StatusError is returned when the server answers with a non-2xx status.
// It is reported before any streaming starts.
type StatusError struct {
	StatusCode int
	Status     string
	// Message is the server's "error" field, when the body was JSON.
	Message string
	Model   string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusNotFound && e.Model != "" {
		return fmt.Sprintf("model %q not found, run: ollama pull %s", e.Model, e.Model)
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Message != "" {
		return fmt.Sprintf("server returned %s: %s", status, e.Message)
	}
	return "server returned " + status
}

// ParseError describes one line that could not be turned into a Record.
// It never fails a stream.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse record %q: %v", truncate(e.Line, 120), e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ServerError is an {"error": "..."} record sent mid-stream. Like a
// malformed line it is reported and skipped.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return "server error: " + e.Message
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
