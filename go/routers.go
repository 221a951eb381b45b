/*
 * Dog adoption search API
 *
 * Backend for the dog adoption search page. It holds one catalog session per browser and
 * exposes the search, selection and match intents as JSON endpoints.
 *
 * API version: 1.0.0
 */

package adoptionserver

import (
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apierrors "github.com/Apurer/go-gin-dog-adoption/internal/shared/errors"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
	// Authenticated routes run behind the workspace cookie check.
	Authenticated bool
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	return NewRouterWithGinEngine(router, handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	registerJSONFieldNames()
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		handlers := []gin.HandlerFunc{route.HandlerFunc}
		if route.Authenticated && handleFunctions.Sessions != nil {
			handlers = append([]gin.HandlerFunc{handleFunctions.Sessions.Require()}, handlers...)
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, handlers...)
		case http.MethodPost:
			router.POST(route.Pattern, handlers...)
		case http.MethodPut:
			router.PUT(route.Pattern, handlers...)
		case http.MethodPatch:
			router.PATCH(route.Pattern, handlers...)
		case http.MethodDelete:
			router.DELETE(route.Pattern, handlers...)
		}
	}
	router.NoRoute(NoRouteHandleFunc)
	return router
}

// DefaultHandleFunc is the default handler for not yet implemented routes.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// NoRouteHandleFunc answers unknown paths with a problem body.
func NoRouteHandleFunc(c *gin.Context) {
	respondProblem(c, apierrors.NewRouteNotFoundProblem(c.Request.Method, c.Request.URL.Path))
}

// ApiHandleFunctions groups the handlers and the workspace middleware.
type ApiHandleFunctions struct {
	Sessions *Sessions
	// Routes for the SessionAPI part of the API
	SessionAPI SessionAPI
	// Routes for the SearchAPI part of the API
	SearchAPI SearchAPI
}

// NewApiHandleFunctions wires every API section to the same workspace manager.
func NewApiHandleFunctions(sessions *Sessions) ApiHandleFunctions {
	return ApiHandleFunctions{
		Sessions:   sessions,
		SessionAPI: NewSessionAPI(sessions),
		SearchAPI:  NewSearchAPI(sessions),
	}
}

func getRoutes(handleFunctions ApiHandleFunctions) []Route {
	return []Route{
		{
			Name:        "Healthz",
			Method:      http.MethodGet,
			Pattern:     "/healthz",
			HandlerFunc: Healthz,
		},
		{
			Name:        "Login",
			Method:      http.MethodPost,
			Pattern:     "/api/session",
			HandlerFunc: handleFunctions.SessionAPI.Login,
		},
		{
			Name:        "Logout",
			Method:      http.MethodDelete,
			Pattern:     "/api/session",
			HandlerFunc: handleFunctions.SessionAPI.Logout,
		},
		{
			Name:          "ListBreeds",
			Method:        http.MethodGet,
			Pattern:       "/api/breeds",
			HandlerFunc:   handleFunctions.SearchAPI.ListBreeds,
			Authenticated: true,
		},
		{
			Name:          "GetState",
			Method:        http.MethodGet,
			Pattern:       "/api/state",
			HandlerFunc:   handleFunctions.SearchAPI.GetState,
			Authenticated: true,
		},
		{
			Name:          "SetFilters",
			Method:        http.MethodPut,
			Pattern:       "/api/filters",
			HandlerFunc:   handleFunctions.SearchAPI.SetFilters,
			Authenticated: true,
		},
		{
			Name:          "Search",
			Method:        http.MethodPost,
			Pattern:       "/api/search",
			HandlerFunc:   handleFunctions.SearchAPI.Search,
			Authenticated: true,
		},
		{
			Name:          "NavigatePage",
			Method:        http.MethodPost,
			Pattern:       "/api/pages/:direction",
			HandlerFunc:   handleFunctions.SearchAPI.NavigatePage,
			Authenticated: true,
		},
		{
			Name:          "ToggleSelection",
			Method:        http.MethodPut,
			Pattern:       "/api/selection/:dogId",
			HandlerFunc:   handleFunctions.SearchAPI.ToggleSelection,
			Authenticated: true,
		},
		{
			Name:          "ClearSelection",
			Method:        http.MethodDelete,
			Pattern:       "/api/selection",
			HandlerFunc:   handleFunctions.SearchAPI.ClearSelection,
			Authenticated: true,
		},
		{
			Name:          "RequestMatch",
			Method:        http.MethodPost,
			Pattern:       "/api/match",
			HandlerFunc:   handleFunctions.SearchAPI.RequestMatch,
			Authenticated: true,
		},
		{
			Name:          "ClearMatch",
			Method:        http.MethodDelete,
			Pattern:       "/api/match",
			HandlerFunc:   handleFunctions.SearchAPI.ClearMatch,
			Authenticated: true,
		},
	}
}

// Get /healthz
// Liveness probe
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

var fieldNamesOnce sync.Once

// registerJSONFieldNames makes validation errors report json field names.
func registerJSONFieldNames() {
	fieldNamesOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
	})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
