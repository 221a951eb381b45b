// Package errors renders RFC 7807 Problem Details for the adoption API.
package errors

import (
	"fmt"
	"maps"
	"net/http"
)

// ProblemDetail is an RFC 7807 problem body.
// See: https://www.rfc-editor.org/rfc/rfc7807
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
	// Extensions carries problem-specific members such as "fields", "redirect" or "notice".
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (p ProblemDetail) Error() string {
	if p.Detail != "" {
		return fmt.Sprintf("%s: %s", p.Title, p.Detail)
	}
	return p.Title
}

// WithDetail returns a copy with the given detail message.
func (p ProblemDetail) WithDetail(detail string) ProblemDetail {
	p.Detail = detail
	return p
}

// WithExtension returns a copy with one more extension member. The receiver's map is never
// written to, so templates stay untouched.
func (p ProblemDetail) WithExtension(key string, value any) ProblemDetail {
	ext := make(map[string]any, len(p.Extensions)+1)
	maps.Copy(ext, p.Extensions)
	ext[key] = value
	p.Extensions = ext
	return p
}

// Redirect returns the "redirect" extension, if any.
func (p ProblemDetail) Redirect() (string, bool) {
	location, ok := p.Extensions["redirect"].(string)
	return location, ok
}

const (
	TypeValidation   = "/problems/validation-error"
	TypeNotFound     = "/problems/not-found"
	TypeBadRequest   = "/problems/bad-request"
	TypeInternal     = "/problems/internal-error"
	TypeUnauthorized = "/problems/unauthorized"
	TypeBadGateway   = "/problems/bad-gateway"
	TypeUnavailable  = "/problems/service-unavailable"
)

var (
	ErrValidation = ProblemDetail{
		Type:   TypeValidation,
		Title:  "Validation Error",
		Status: http.StatusBadRequest,
	}

	ErrNotFound = ProblemDetail{
		Type:   TypeNotFound,
		Title:  "Resource Not Found",
		Status: http.StatusNotFound,
	}

	ErrBadRequest = ProblemDetail{
		Type:   TypeBadRequest,
		Title:  "Bad Request",
		Status: http.StatusBadRequest,
	}

	ErrInternal = ProblemDetail{
		Type:   TypeInternal,
		Title:  "Internal Server Error",
		Status: http.StatusInternalServerError,
	}

	// ErrUnauthorized covers both a rejected login and a session the catalog no longer accepts.
	ErrUnauthorized = ProblemDetail{
		Type:   TypeUnauthorized,
		Title:  "Unauthorized",
		Status: http.StatusUnauthorized,
	}

	// ErrBadGateway means the catalog failed or answered with something unusable.
	ErrBadGateway = ProblemDetail{
		Type:   TypeBadGateway,
		Title:  "Bad Gateway",
		Status: http.StatusBadGateway,
	}

	// ErrServiceUnavailable means calls to the catalog are failing fast.
	ErrServiceUnavailable = ProblemDetail{
		Type:   TypeUnavailable,
		Title:  "Service Unavailable",
		Status: http.StatusServiceUnavailable,
	}
)

// NewValidationProblem lists one message per offending field.
func NewValidationProblem(fieldErrors map[string]string) ProblemDetail {
	return ErrValidation.WithExtension("fields", fieldErrors)
}

// NewRedirectProblem is a 401 telling the client which route to go to.
func NewRedirectProblem(detail, location string) ProblemDetail {
	return ErrUnauthorized.WithDetail(detail).WithExtension("redirect", location)
}

// NewRouteNotFoundProblem answers a path the API does not serve.
func NewRouteNotFoundProblem(method, path string) ProblemDetail {
	return ErrNotFound.
		WithDetail(fmt.Sprintf("no route for %s %s", method, path)).
		WithExtension("path", path)
}
