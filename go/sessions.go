package adoptionserver

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/application"
)

// DefaultCookieName carries the workspace id.
const DefaultCookieName = "dog_session"

const workspaceKey = "adoption.workspace"

// Sessions binds browser cookies to workspaces.
type Sessions struct {
	workspaces *application.Workspaces
	cookieName string
	secure     bool
	maxAge     time.Duration
	logger     *slog.Logger
}

type SessionsOption func(*Sessions)

func WithCookieName(name string) SessionsOption {
	return func(s *Sessions) {
		if name != "" {
			s.cookieName = name
		}
	}
}

// WithSecureCookie marks the cookie Secure; enable it behind TLS.
func WithSecureCookie(secure bool) SessionsOption {
	return func(s *Sessions) {
		s.secure = secure
	}
}

// WithCookieMaxAge should match the workspace TTL.
func WithCookieMaxAge(maxAge time.Duration) SessionsOption {
	return func(s *Sessions) {
		if maxAge > 0 {
			s.maxAge = maxAge
		}
	}
}

func WithLogger(logger *slog.Logger) SessionsOption {
	return func(s *Sessions) {
		s.logger = logger
	}
}

// NewSessions wires the cookie layer to the workspace manager.
func NewSessions(workspaces *application.Workspaces, opts ...SessionsOption) *Sessions {
	s := &Sessions{
		workspaces: workspaces,
		cookieName: DefaultCookieName,
		maxAge:     application.DefaultSessionTTL,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return s
}

// Require resolves the workspace from the cookie and saves its snapshot once the handler is
// done. Requests without a live workspace are answered 401 with a redirect to login.
func (s *Sessions) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(s.cookieName)
		if err != nil || id == "" {
			s.respondSignedOut(c, application.ErrWorkspaceNotFound)
			return
		}
		ws, err := s.workspaces.Get(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, application.ErrWorkspaceNotFound) {
				s.respondSignedOut(c, err)
			} else {
				respondUpstreamError(c, err, "")
			}
			return
		}
		c.Set(workspaceKey, ws)
		c.Next()
		s.settle(c.Request.Context(), ws)
	}
}

// settle persists the workspace or, after an authorization failure, ends it. It must not be
// cut short by a client that already hung up.
func (s *Sessions) settle(ctx context.Context, ws *application.Workspace) {
	ctx = context.WithoutCancel(ctx)
	if ws.Controller.Invalidated() {
		if err := s.workspaces.End(ctx, ws.ID); err != nil {
			s.logger.WarnContext(ctx, "failed to end expired workspace", slog.String("session.id", ws.ID), slog.String("error", err.Error()))
		}
		return
	}
	if err := s.workspaces.Persist(ctx, ws); err != nil {
		s.logger.WarnContext(ctx, "failed to save workspace", slog.String("session.id", ws.ID), slog.String("error", err.Error()))
	}
}

func (s *Sessions) setCookie(c *gin.Context, id string) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, id, int(s.maxAge.Seconds()), "/", "", s.secure, true)
}

func (s *Sessions) clearCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.cookieName, "", -1, "/", "", s.secure, true)
}

func workspaceFrom(c *gin.Context) *application.Workspace {
	value, ok := c.Get(workspaceKey)
	if !ok {
		return nil
	}
	ws, _ := value.(*application.Workspace)
	return ws
}
