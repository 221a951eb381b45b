package adoptionserver

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/application"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	apierrors "github.com/Apurer/go-gin-dog-adoption/internal/shared/errors"
)

// loginRoute is where a signed-out client is sent.
const loginRoute = string(domain.RouteLogin)

// problems resolves handler errors. The catalog mapper is last and claims everything left, so
// an unexpected failure reads as a bad gateway rather than an internal error.
var problems = apierrors.NewResponder(
	apierrors.WithMapper(validationProblem),
	apierrors.WithMapper(loginProblem),
	apierrors.WithMapper(catalogProblem),
)

func respondProblem(c *gin.Context, problem apierrors.ProblemDetail) {
	problems.Respond(c, problem)
}

// respondBindError answers a request body or parameter that failed to bind.
func respondBindError(c *gin.Context, err error) {
	if problem, ok := validationProblem(err); ok {
		respondProblem(c, problem)
		return
	}
	respondProblem(c, apierrors.ErrBadRequest.WithDetail(err.Error()))
}

// respondInvalid answers a domain validation failure.
func respondInvalid(c *gin.Context, err error) {
	problems.RespondError(c, err)
}

func validationProblem(err error) (apierrors.ProblemDetail, bool) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describeFieldError(fe)
		}
		return apierrors.NewValidationProblem(fields), true
	}
	fields := invalidFields(err)
	if len(fields) == 0 && !errors.Is(err, application.ErrInvalidInput) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.NewValidationProblem(fields).WithDetail(err.Error()), true
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

func invalidFields(err error) map[string]string {
	fields := map[string]string{}
	for field, sentinel := range map[string]error{
		"name":      domain.ErrEmptyName,
		"email":     domain.ErrInvalidEmail,
		"sort":      domain.ErrInvalidSort,
		"ageMax":    domain.ErrAgeRange,
		"size":      domain.ErrInvalidPageSize,
		"direction": domain.ErrInvalidDirection,
		"selection": application.ErrEmptySelection,
		"age":       domain.ErrNegativeAge,
	} {
		if errors.Is(err, sentinel) {
			fields[field] = sentinel.Error()
		}
	}
	return fields
}

func loginProblem(err error) (apierrors.ProblemDetail, bool) {
	if !errors.Is(err, application.ErrLoginRejected) {
		return apierrors.ProblemDetail{}, false
	}
	return apierrors.ErrUnauthorized.WithDetail(err.Error()), true
}

func catalogProblem(err error) (apierrors.ProblemDetail, bool) {
	if errors.Is(err, ports.ErrUnavailable) {
		return apierrors.ErrServiceUnavailable.WithDetail(err.Error()), true
	}
	return apierrors.ErrBadGateway.WithDetail(err.Error()), true
}

// respondSignedOut clears the cookie and sends the client back to login.
func (s *Sessions) respondSignedOut(c *gin.Context, err error) {
	s.clearCookie(c)
	respondProblem(c, apierrors.NewRedirectProblem(err.Error(), loginRoute))
}

// respondUpstreamError answers a catalog failure. notice is the message the view would show.
func respondUpstreamError(c *gin.Context, err error, notice string) {
	problem := problems.ProblemFor(err)
	if notice != "" {
		problem = problem.WithExtension("notice", notice)
	}
	respondProblem(c, problem)
}

// respondIntentError answers a failed intent of ws. Superseded responses still get the
// current view.
func (s *Sessions) respondIntentError(c *gin.Context, ws *application.Workspace, state domain.State, err error) {
	switch {
	case errors.Is(err, application.ErrSuperseded):
		respondView(c, ws, ws.Controller.State())
	case errors.Is(err, application.ErrSessionExpired):
		s.respondSignedOut(c, err)
	default:
		respondUpstreamError(c, err, state.Notice)
	}
}
