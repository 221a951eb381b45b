//go:build pact
// +build pact

package consumer_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	pactlog "github.com/pact-foundation/pact-go/v2/log"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/stretchr/testify/require"

	pacttest "github.com/Apurer/go-gin-dog-adoption/test/pact"
)

type viewPayload struct {
	Route         string           `json:"route"`
	Dogs          []map[string]any `json:"dogs"`
	SearchVisible bool             `json:"searchVisible"`
}

type problemDetail struct {
	Type       string         `json:"type"`
	Title      string         `json:"title"`
	Status     int            `json:"status"`
	Detail     string         `json:"detail"`
	Extensions map[string]any `json:"extensions"`
}

type apiError struct {
	status   int
	title    string
	redirect string
}

func (e apiError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.title, e.status)
}

func TestDogSearchWebContract(t *testing.T) {
	pactlog.SetLogLevel("INFO")

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.ConsumerName,
		Provider: pacttest.ProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	jsonContentType := matchers.Regex("application/json; charset=utf-8", `application\/json(?:;\s?charset=utf-8)?`)
	sessionCookie := matchers.S(pacttest.SessionCookieName + "=" + pacttest.ExistingSessionID)
	dog := pacttest.ExampleDogPayload()

	pact.AddInteraction().
		Given(pacttest.StateCatalogAcceptsLogins).
		UponReceiving("a login from the search page").
		WithRequest(http.MethodPost, "/api/session", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(matchers.Map{
				"name":  matchers.Like(pacttest.ExampleUserName),
				"email": matchers.Like(pacttest.ExampleUserEmail),
			})
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.Header("Set-Cookie", matchers.Term(pacttest.SessionCookieName+"="+pacttest.ExistingSessionID+"; Path=/; Max-Age=86400; HttpOnly; SameSite=Lax", `^dog_session=[^;]+;.*HttpOnly.*`))
			b.JSONBody(matchers.Map{
				"route":         matchers.S("/home"),
				"searchVisible": matchers.Like(true),
				"user": matchers.Map{
					"name":  matchers.Like(pacttest.ExampleUserName),
					"email": matchers.Like(pacttest.ExampleUserEmail),
				},
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateWorkspaceExists).
		UponReceiving("a search with the working filters").
		WithRequest(http.MethodPost, "/api/search", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Cookie", sessionCookie)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", jsonContentType)
			b.JSONBody(matchers.Map{
				"route":         matchers.S("/home"),
				"searchVisible": matchers.Like(true),
				"dogs": matchers.EachLike(matchers.Map{
					"id":       matchers.Like(dog["id"]),
					"name":     matchers.Like(dog["name"]),
					"breed":    matchers.Like(dog["breed"]),
					"ageLabel": matchers.Like("2"),
					"zipCode":  matchers.Like(dog["zip_code"]),
					"selected": matchers.Like(false),
				}, 1),
			})
		})

	pact.AddInteraction().
		Given(pacttest.StateWorkspaceMissing).
		UponReceiving("a state request with an unknown session cookie").
		WithRequest(http.MethodGet, "/api/state", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Cookie", matchers.S(pacttest.SessionCookieName+"="+pacttest.MissingSessionID))
		}).
		WillRespondWith(http.StatusUnauthorized, func(b *pactconsumer.V2ResponseBuilder) {
			b.Header("Content-Type", matchers.S("application/problem+json"))
			b.JSONBody(matchers.Map{
				"type":       matchers.S("/problems/unauthorized"),
				"status":     matchers.Like(http.StatusUnauthorized),
				"extensions": matchers.Map{"redirect": matchers.S("/")},
			})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		client := &webClient{baseURL: mockBaseURL(config), httpClient: &http.Client{Timeout: 10 * time.Second}}

		view, cookie, err := client.Login(ctx, pacttest.ExampleUserName, pacttest.ExampleUserEmail)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}
		if view.Route != "/home" || cookie == nil {
			return fmt.Errorf("expected home route and a session cookie, got %+v", view)
		}

		view, err = client.Do(ctx, http.MethodPost, "/api/search", pacttest.ExistingSessionID)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		if len(view.Dogs) == 0 {
			return fmt.Errorf("expected dogs in the search view")
		}

		_, err = client.Do(ctx, http.MethodGet, "/api/state", pacttest.MissingSessionID)
		apiErr, ok := err.(apiError)
		if !ok || apiErr.status != http.StatusUnauthorized || apiErr.redirect != "/" {
			return fmt.Errorf("expected 401 with redirect to login, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

type webClient struct {
	baseURL    string
	httpClient *http.Client
}

func (c *webClient) Login(ctx context.Context, name, email string) (*viewPayload, *http.Cookie, error) {
	body, err := json.Marshal(map[string]string{"name": name, "email": email})
	if err != nil {
		return nil, nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/session", bytes.NewReader(body))
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()
	view, err := decodeView(res)
	if err != nil {
		return nil, nil, err
	}
	for _, cookie := range res.Cookies() {
		if cookie.Name == pacttest.SessionCookieName {
			return view, cookie, nil
		}
	}
	return view, nil, nil
}

func (c *webClient) Do(ctx context.Context, method, path, sessionID string) (*viewPayload, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.AddCookie(&http.Cookie{Name: pacttest.SessionCookieName, Value: sessionID})
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return decodeView(res)
}

func decodeView(res *http.Response) (*viewPayload, error) {
	if res.StatusCode >= http.StatusBadRequest {
		var problem problemDetail
		_ = json.NewDecoder(res.Body).Decode(&problem)
		redirect, _ := problem.Extensions["redirect"].(string)
		return nil, apiError{status: res.StatusCode, title: problem.Title, redirect: redirect}
	}
	var view viewPayload
	if err := json.NewDecoder(res.Body).Decode(&view); err != nil {
		return nil, err
	}
	return &view, nil
}
