//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// The web contract: the search page consuming this API.
const (
	ProviderName = "dog-adoption-api"
	ConsumerName = "dog-search-web"
)

// The catalog contract: this API consuming the Fetch dogs service.
const (
	CatalogProviderName = "fetch-dogs-api"
	CatalogConsumerName = ProviderName
)

const (
	StateCatalogAcceptsLogins = "the catalog accepts logins"
	StateWorkspaceExists      = "a logged-in workspace exists"
	StateWorkspaceMissing     = "no workspace for the session cookie"

	StateCatalogSession  = "a valid catalog session"
	StateCatalogPoodles  = "poodles are listed in the catalog"
	StateCatalogRejected = "the catalog session expired"
)

const (
	SessionCookieName  = "dog_session"
	ExistingSessionID  = "pact-session"
	MissingSessionID   = "ghost-session"
	CatalogCookieName  = "fetch-access-token"
	CatalogToken       = "pact-token"
	ExpiredToken       = "expired-token"
	ExampleDogID       = "VXGFTIcBOvEgQ5OCx40W"
	ExampleBreed       = "Poodle"
	ExampleUserName    = "Pact User"
	ExampleUserEmail   = "pact.user@example.com"
	exampleDogImageURL = "https://frontend-take-home.fetch.com/dog-images/n02088094-Poodle/n02088094_1003.jpg"
)

// ExampleDogPayload is a catalog dog record.
func ExampleDogPayload() map[string]any {
	return map[string]any{
		"id":       ExampleDogID,
		"img":      exampleDogImageURL,
		"name":     "Emory",
		"age":      2,
		"zip_code": "48333",
		"breed":    ExampleBreed,
	}
}

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the pact file path for the web consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// CatalogPactFile returns the pact file path for this API as catalog consumer.
func CatalogPactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), CatalogConsumerName+"-"+CatalogProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
