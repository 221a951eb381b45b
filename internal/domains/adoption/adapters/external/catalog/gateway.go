package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/Apurer/go-gin-dog-adoption/internal/clients/http/fetchdogs"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

// Session is one cookie-authenticated connection to the Fetch dogs API.
type Session struct {
	client  *fetchdogs.Client
	jar     http.CookieJar
	base    *url.URL
	catalog ports.CatalogGateway
}

// Login implements ports.SessionGateway.
func (s *Session) Login(ctx context.Context, creds domain.Credentials) error {
	return mapError(s.client.Login(ctx, ToLoginRequest(creds)))
}

// Logout implements ports.SessionGateway.
func (s *Session) Logout(ctx context.Context) error {
	return mapError(s.client.Logout(ctx))
}

// Catalog returns the gateway bound to this session, decorated as configured on the Dialer.
func (s *Session) Catalog() ports.CatalogGateway {
	return s.catalog
}

// Credential exports the cookies the jar holds for the API host.
func (s *Session) Credential() domain.SessionCredential {
	cookies := s.jar.Cookies(s.base)
	if len(cookies) == 0 {
		return domain.SessionCredential{}
	}
	out := make([]domain.SessionCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, domain.SessionCookie{Name: c.Name, Value: c.Value})
	}
	return domain.SessionCredential{Cookies: out}
}

// Gateway implements ports.CatalogGateway on top of the HTTP client.
type Gateway struct {
	client *fetchdogs.Client
}

// NewGateway wires a fetchdogs client into the catalog port.
func NewGateway(client *fetchdogs.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) ListBreeds(ctx context.Context) ([]string, error) {
	breeds, err := g.client.Breeds(ctx)
	if err != nil {
		return nil, mapError(err)
	}
	return breeds, nil
}

// Search runs a first-page search, or replays cursor untouched when it is set.
func (g *Gateway) Search(ctx context.Context, criteria domain.Criteria, cursor domain.Cursor) (domain.ResultPage, error) {
	var (
		resp *fetchdogs.SearchResponse
		err  error
	)
	if cursor != "" {
		resp, err = g.client.SearchPage(ctx, string(cursor))
	} else {
		resp, err = g.client.Search(ctx, ToSearchParams(criteria))
	}
	if err != nil {
		return domain.ResultPage{}, mapError(err)
	}
	return ToResultPage(resp), nil
}

func (g *Gateway) Hydrate(ctx context.Context, ids []string) ([]domain.Dog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	dogs, err := g.client.Dogs(ctx, ids)
	if err != nil {
		return nil, mapError(err)
	}
	return ToDogs(dogs), nil
}

func (g *Gateway) Match(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", ports.ErrEmptyMatchRequest
	}
	id, err := g.client.Match(ctx, ids)
	if err != nil {
		return "", mapError(err)
	}
	return id, nil
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fetchdogs.ErrUnauthorized):
		return fmt.Errorf("%w: %w", ports.ErrUnauthorized, err)
	case errors.Is(err, fetchdogs.ErrCircuitOpen), errors.Is(err, fetchdogs.ErrRateLimited):
		return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
	default:
		return err
	}
}

// Dialer opens Sessions that share one transport, breaker and rate limiter.
type Dialer struct {
	base       *url.URL
	transport  http.RoundTripper
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
	decorators []func(ports.CatalogGateway) ports.CatalogGateway
}

type DialerOption func(*Dialer)

func WithTransport(rt http.RoundTripper) DialerOption {
	return func(d *Dialer) {
		d.transport = rt
	}
}

func WithTimeout(timeout time.Duration) DialerOption {
	return func(d *Dialer) {
		if timeout > 0 {
			d.timeout = timeout
		}
	}
}

func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) DialerOption {
	return func(d *Dialer) {
		d.breaker = cb
	}
}

func WithRateLimiter(limiter *rate.Limiter) DialerOption {
	return func(d *Dialer) {
		d.limiter = limiter
	}
}

// WithCatalogDecorator wraps every session's gateway, innermost first.
func WithCatalogDecorator(decorate func(ports.CatalogGateway) ports.CatalogGateway) DialerOption {
	return func(d *Dialer) {
		if decorate != nil {
			d.decorators = append(d.decorators, decorate)
		}
	}
}

// NewDialer validates baseURL once; Dial is then cheap.
func NewDialer(baseURL string, opts ...DialerOption) (*Dialer, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	base, err := url.Parse(baseURL + "/")
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog base URL %q", baseURL)
	}
	d := &Dialer{base: base, timeout: 10 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d, nil
}

// Dial opens a session whose cookie jar is seeded with credential.
func (d *Dialer) Dial(credential domain.SessionCredential) (ports.RemoteSession, error) {
	session, err := d.DialSession(credential)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DialSession is Dial returning the concrete type.
func (d *Dialer) DialSession(credential domain.SessionCredential) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	if len(credential.Cookies) > 0 {
		cookies := make([]*http.Cookie, 0, len(credential.Cookies))
		for _, c := range credential.Cookies {
			cookies = append(cookies, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
		}
		jar.SetCookies(d.base, cookies)
	}
	client, err := fetchdogs.NewClient(d.base.String(),
		fetchdogs.WithHTTPClient(&http.Client{Jar: jar, Transport: d.transport, Timeout: d.timeout}),
		fetchdogs.WithCircuitBreaker(d.breaker),
		fetchdogs.WithRateLimiter(d.limiter),
	)
	if err != nil {
		return nil, err
	}
	var catalog ports.CatalogGateway = NewGateway(client)
	for _, decorate := range d.decorators {
		catalog = decorate(catalog)
	}
	return &Session{client: client, jar: jar, base: d.base, catalog: catalog}, nil
}

var (
	_ ports.CatalogGateway = (*Gateway)(nil)
	_ ports.RemoteSession  = (*Session)(nil)
)
