package fetchdogs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is matched by any StatusError carrying 401.
	ErrUnauthorized = errors.New("fetch dogs API: unauthorized")
	// ErrCircuitOpen is returned without calling the API while the breaker is open.
	ErrCircuitOpen = errors.New("fetch dogs API: circuit open")
	// ErrRateLimited is returned when the client gave up waiting for a rate limiter token.
	ErrRateLimited = errors.New("fetch dogs API: rate limited")
	// ErrInvalidCursor rejects page cursors that are not relative URLs.
	ErrInvalidCursor = errors.New("fetch dogs API: invalid page cursor")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if msg == "" {
		msg = e.Status
	}
	return fmt.Sprintf("fetch dogs API %s: %d %s", e.Op, e.StatusCode, msg)
}

// Is lets callers use errors.Is(err, ErrUnauthorized).
func (e *StatusError) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// Temporary reports whether the failure is on the server side and worth counting against the
// circuit breaker.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}
