package errors

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
)

// ContentTypeProblemJSON is the media type of every problem response.
const ContentTypeProblemJSON = "application/problem+json"

// ErrorMapper turns an application error into a problem. ok is false for errors it does not know.
type ErrorMapper func(err error) (problem ProblemDetail, ok bool)

// Responder writes problem responses. Errors go through the mappers in order, then fall back
// to any ProblemDetail in the chain, then to a 500.
type Responder struct {
	baseURI string
	mappers []ErrorMapper
}

type ResponderOption func(*Responder)

// WithBaseURI makes relative problem types absolute.
func WithBaseURI(uri string) ResponderOption {
	return func(r *Responder) {
		r.baseURI = strings.TrimRight(uri, "/")
	}
}

// WithMapper appends mapper to the chain.
func WithMapper(mapper ErrorMapper) ResponderOption {
	return func(r *Responder) {
		if mapper != nil {
			r.mappers = append(r.mappers, mapper)
		}
	}
}

func NewResponder(opts ...ResponderOption) *Responder {
	r := &Responder{}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// ProblemFor resolves err without writing anything.
func (r *Responder) ProblemFor(err error) ProblemDetail {
	for _, mapper := range r.mappers {
		if problem, ok := mapper(err); ok {
			return problem
		}
	}
	var problem ProblemDetail
	if errors.As(err, &problem) {
		return problem
	}
	return ErrInternal.WithDetail(err.Error())
}

// Respond writes problem and aborts the handler chain.
func (r *Responder) Respond(c *gin.Context, problem ProblemDetail) {
	if r.baseURI != "" && strings.HasPrefix(problem.Type, "/") {
		problem.Type = r.baseURI + problem.Type
	}
	if problem.Instance == "" {
		problem.Instance = c.Request.URL.Path
	}
	c.Header("Content-Type", ContentTypeProblemJSON)
	c.AbortWithStatusJSON(problem.Status, problem)
}

// RespondError writes the problem ProblemFor resolves.
func (r *Responder) RespondError(c *gin.Context, err error) {
	r.Respond(c, r.ProblemFor(err))
}
