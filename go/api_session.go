package adoptionserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	viewmapper "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/http/mapper"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/application"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

// SessionAPI logs browsers in and out of the catalog service.
type SessionAPI struct {
	sessions *Sessions
}

// NewSessionAPI wires dependencies.
func NewSessionAPI(sessions *Sessions) SessionAPI {
	return SessionAPI{sessions: sessions}
}

// Post /api/session
// Log in with name and email
func (api *SessionAPI) Login(c *gin.Context) {
	var payload LoginRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	ctx := c.Request.Context()
	if previous, err := c.Cookie(api.sessions.cookieName); err == nil && previous != "" {
		if err := api.sessions.workspaces.End(ctx, previous); err != nil {
			api.sessions.logger.WarnContext(ctx, "failed to drop previous workspace", slog.String("error", err.Error()))
		}
	}
	ws, err := api.sessions.workspaces.Login(ctx, payload.Name, payload.Email)
	if err != nil {
		problems.RespondError(c, err)
		return
	}
	api.sessions.setCookie(c, ws.ID)
	respondView(c, ws, ws.Controller.State())
}

// Delete /api/session
// Log out and end the workspace
func (api *SessionAPI) Logout(c *gin.Context) {
	id, err := c.Cookie(api.sessions.cookieName)
	if err == nil && id != "" {
		err = api.sessions.workspaces.Logout(c.Request.Context(), id)
		if err != nil && !errors.Is(err, application.ErrWorkspaceNotFound) {
			respondUpstreamError(c, err, "")
			return
		}
	}
	api.sessions.clearCookie(c)
	c.JSON(http.StatusOK, viewmapper.LoggedOut())
}

func respondView(c *gin.Context, ws *application.Workspace, state domain.State) {
	c.JSON(http.StatusOK, viewmapper.FromState(state, &ws.Profile))
}
