//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/stretchr/testify/require"

	adoptionserver "github.com/Apurer/go-gin-dog-adoption/go"
	adoptionmemory "github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/adapters/memory"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/application"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
	pacttest "github.com/Apurer/go-gin-dog-adoption/test/pact"
)

func TestDogAdoptionProviderPact(t *testing.T) {
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogAcceptsLogins: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
		pacttest.StateWorkspaceExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			if setup {
				app.seedWorkspace(t)
			}
			return nil, nil
		},
		pacttest.StateWorkspaceMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.reset(t)
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.reset(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	workspaces *application.Workspaces
	server     *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	workspaces := application.NewWorkspaces(
		func(credential domain.SessionCredential) (ports.RemoteSession, error) {
			return &stubRemote{credential: credential}, nil
		},
		application.WithWorkspaceStore(adoptionmemory.NewWorkspaceStore()),
		application.WithIDGenerator(func() string { return pacttest.ExistingSessionID }),
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router = adoptionserver.NewRouterWithGinEngine(router, adoptionserver.NewApiHandleFunctions(adoptionserver.NewSessions(workspaces)))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{workspaces: workspaces, server: server}
}

func (a *contractProviderApp) reset(t testing.TB) {
	t.Helper()
	require.NoError(t, a.workspaces.End(context.Background(), pacttest.ExistingSessionID))
}

func (a *contractProviderApp) seedWorkspace(t testing.TB) {
	t.Helper()
	_, err := a.workspaces.Login(context.Background(), pacttest.ExampleUserName, pacttest.ExampleUserEmail)
	require.NoError(t, err)
}

// stubRemote stands in for the Fetch dogs service with a single poodle.
type stubRemote struct {
	credential domain.SessionCredential
}

func (r *stubRemote) Login(context.Context, domain.Credentials) error {
	r.credential = domain.SessionCredential{Cookies: []domain.SessionCookie{{Name: pacttest.CatalogCookieName, Value: pacttest.CatalogToken}}}
	return nil
}

func (r *stubRemote) Logout(context.Context) error         { return nil }
func (r *stubRemote) Catalog() ports.CatalogGateway        { return stubCatalog{} }
func (r *stubRemote) Credential() domain.SessionCredential { return r.credential }

type stubCatalog struct{}

func (stubCatalog) ListBreeds(context.Context) ([]string, error) {
	return []string{pacttest.ExampleBreed}, nil
}

func (stubCatalog) Search(context.Context, domain.Criteria, domain.Cursor) (domain.ResultPage, error) {
	return domain.ResultPage{IDs: []string{pacttest.ExampleDogID}, Total: 1}, nil
}

func (stubCatalog) Hydrate(_ context.Context, ids []string) ([]domain.Dog, error) {
	dog := pacttest.ExampleDogPayload()
	out := make([]domain.Dog, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Dog{
			ID:      id,
			Img:     dog["img"].(string),
			Name:    dog["name"].(string),
			Age:     dog["age"].(int),
			ZipCode: dog["zip_code"].(string),
			Breed:   dog["breed"].(string),
		})
	}
	return out, nil
}

func (stubCatalog) Match(_ context.Context, ids []string) (string, error) {
	return ids[0], nil
}
