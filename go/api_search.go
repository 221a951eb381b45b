package adoptionserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	viewmapper "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/http/mapper"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

// SearchAPI exposes the search page intents of the current workspace.
type SearchAPI struct {
	sessions *Sessions
}

// NewSearchAPI wires dependencies.
func NewSearchAPI(sessions *Sessions) SearchAPI {
	return SearchAPI{sessions: sessions}
}

// Get /api/breeds
// List breed names
func (api *SearchAPI) ListBreeds(c *gin.Context) {
	ws := workspaceFrom(c)
	breeds, err := ws.Controller.Breeds(c.Request.Context())
	if err != nil {
		api.sessions.respondIntentError(c, ws, ws.Controller.State(), err)
		return
	}
	if breeds == nil {
		breeds = []string{}
	}
	c.JSON(http.StatusOK, BreedsResponse{Breeds: breeds})
}

// Get /api/state
// Current view of the search page
func (api *SearchAPI) GetState(c *gin.Context) {
	ws := workspaceFrom(c)
	respondView(c, ws, ws.Controller.State())
}

// Put /api/filters
// Replace the working filters; applied on the next search
func (api *SearchAPI) SetFilters(c *gin.Context) {
	var payload FiltersRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	criteria, err := viewmapper.ToCriteria(viewmapper.Filters{
		Breeds: payload.Breeds,
		AgeMin: payload.AgeMin,
		AgeMax: payload.AgeMax,
		Sort:   payload.Sort,
		Size:   payload.Size,
	})
	if err == nil {
		err = criteria.Validate()
	}
	if err != nil {
		respondInvalid(c, err)
		return
	}
	ws := workspaceFrom(c)
	respondView(c, ws, ws.Controller.SetFilters(criteria))
}

// Post /api/search
// Run the search with the working filters
func (api *SearchAPI) Search(c *gin.Context) {
	ws := workspaceFrom(c)
	state, err := ws.Controller.Search(c.Request.Context())
	if err != nil {
		api.sessions.respondIntentError(c, ws, state, err)
		return
	}
	respondView(c, ws, state)
}

// Post /api/pages/:direction
// Follow the next or prev cursor of the displayed page
func (api *SearchAPI) NavigatePage(c *gin.Context) {
	direction, err := domain.ParseDirection(c.Param("direction"))
	if err != nil {
		respondInvalid(c, err)
		return
	}
	ws := workspaceFrom(c)
	state, err := ws.Controller.NavigatePage(c.Request.Context(), direction)
	if err != nil {
		api.sessions.respondIntentError(c, ws, state, err)
		return
	}
	respondView(c, ws, state)
}

// Put /api/selection/:dogId
// Mark or unmark a dog as favorite
func (api *SearchAPI) ToggleSelection(c *gin.Context) {
	id := strings.TrimSpace(c.Param("dogId"))
	if id == "" {
		respondBindError(c, errors.New("dogId is required"))
		return
	}
	var payload SelectionRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	ws := workspaceFrom(c)
	respondView(c, ws, ws.Controller.ToggleSelection(id, *payload.Selected))
}

// Delete /api/selection
// Clear all favorites
func (api *SearchAPI) ClearSelection(c *gin.Context) {
	ws := workspaceFrom(c)
	respondView(c, ws, ws.Controller.ClearSelection())
}

// Post /api/match
// Ask the catalog to pick one dog out of the favorites
func (api *SearchAPI) RequestMatch(c *gin.Context) {
	ws := workspaceFrom(c)
	state, err := ws.Controller.MatchSelection(c.Request.Context())
	if err != nil {
		api.sessions.respondIntentError(c, ws, state, err)
		return
	}
	respondView(c, ws, state)
}

// Delete /api/match
// Leave the match view and start a new search
func (api *SearchAPI) ClearMatch(c *gin.Context) {
	ws := workspaceFrom(c)
	respondView(c, ws, ws.Controller.ClearMatch())
}
