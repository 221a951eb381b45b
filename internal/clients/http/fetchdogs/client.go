package fetchdogs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oapi-codegen/runtime"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// MaxHydrateBatch is the largest id list POST /dogs accepts in one call.
const MaxHydrateBatch = 100

const maxErrorBody = 4 << 10

// Client calls the Fetch dogs API. Session cookies live in the http.Client jar, so one Client
// per remote session; breaker and limiter are meant to be shared between them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	limiter    *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets the underlying http.Client, usually one with a cookie jar.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithCircuitBreaker routes every call through cb.
func WithCircuitBreaker(cb *gobreaker.CircuitBreaker) Option {
	return func(c *Client) {
		c.breaker = cb
	}
}

// WithRateLimiter waits on limiter before each call.
func WithRateLimiter(limiter *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = limiter
	}
}

// NewClient instantiates the client with sane defaults.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("fetch dogs base URL is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("parse fetch dogs base URL: %w", err)
	}
	c := &Client{baseURL: baseURL}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return c, nil
}

// NewCircuitBreaker builds a breaker that opens after consecutive server-side failures.
// Client errors, including 401, never trip it.
func NewCircuitBreaker(name string, timeout time.Duration, onStateChange func(name string, from, to gobreaker.State)) *gobreaker.CircuitBreaker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful:  isSuccessful,
		OnStateChange: onStateChange,
	})
}

func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return !statusErr.Temporary()
	}
	return false
}

// Login posts the credentials; the API answers with the access cookie.
func (c *Client) Login(ctx context.Context, req LoginRequest) error {
	return c.do(ctx, "login", http.MethodPost, c.baseURL+"/auth/login", req, nil)
}

// Logout invalidates the access cookie.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, "logout", http.MethodPost, c.baseURL+"/auth/logout", nil, nil)
}

// Breeds lists every breed name.
func (c *Client) Breeds(ctx context.Context) ([]string, error) {
	var breeds []string
	if err := c.do(ctx, "breeds", http.MethodGet, c.baseURL+"/dogs/breeds", nil, &breeds); err != nil {
		return nil, err
	}
	return breeds, nil
}

// Search runs GET /dogs/search with params in OpenAPI form style.
func (c *Client) Search(ctx context.Context, params SearchParams) (*SearchResponse, error) {
	query, err := encodeSearchParams(params)
	if err != nil {
		return nil, err
	}
	target := c.baseURL + "/dogs/search"
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}
	var out SearchResponse
	if err := c.do(ctx, "search", http.MethodGet, target, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchPage replays a next or prev cursor from a previous SearchResponse exactly as received.
func (c *Client) SearchPage(ctx context.Context, cursor string) (*SearchResponse, error) {
	if !strings.HasPrefix(cursor, "/") || strings.HasPrefix(cursor, "//") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCursor, cursor)
	}
	var out SearchResponse
	if err := c.do(ctx, "search page", http.MethodGet, c.baseURL+cursor, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dogs fetches records for ids, splitting into batches of MaxHydrateBatch. Order follows the
// API's responses, which is not guaranteed to match ids.
func (c *Client) Dogs(ctx context.Context, ids []string) ([]Dog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	out := make([]Dog, 0, len(ids))
	for start := 0; start < len(ids); start += MaxHydrateBatch {
		end := min(start+MaxHydrateBatch, len(ids))
		var batch []Dog
		if err := c.do(ctx, "dogs", http.MethodPost, c.baseURL+"/dogs", ids[start:end], &batch); err != nil {
			return nil, err
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Match asks the API to pick one of ids.
func (c *Client) Match(ctx context.Context, ids []string) (string, error) {
	if len(ids) == 0 {
		return "", errors.New("match requires at least one id")
	}
	var out MatchResponse
	if err := c.do(ctx, "match", http.MethodPost, c.baseURL+"/dogs/match", ids, &out); err != nil {
		return "", err
	}
	if strings.TrimSpace(out.Match) == "" {
		return "", errors.New("fetch dogs API match: empty match id")
	}
	return out.Match, nil
}

func encodeSearchParams(params SearchParams) (url.Values, error) {
	values := url.Values{}
	add := func(name string, value any) error {
		frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		parsed, err := url.ParseQuery(frag)
		if err != nil {
			return fmt.Errorf("encode %s: %w", name, err)
		}
		for k, vs := range parsed {
			for _, v := range vs {
				values.Add(k, v)
			}
		}
		return nil
	}
	if len(params.Breeds) > 0 {
		if err := add("breeds", params.Breeds); err != nil {
			return nil, err
		}
	}
	if params.AgeMin != nil {
		if err := add("ageMin", *params.AgeMin); err != nil {
			return nil, err
		}
	}
	if params.AgeMax != nil {
		if err := add("ageMax", *params.AgeMax); err != nil {
			return nil, err
		}
	}
	if params.Size != nil {
		if err := add("size", *params.Size); err != nil {
			return nil, err
		}
	}
	if params.Sort != nil {
		if err := add("sort", *params.Sort); err != nil {
			return nil, err
		}
	}
	return values, nil
}

func (c *Client) do(ctx context.Context, op, method, target string, body, out any) error {
	if c == nil || c.httpClient == nil {
		return errors.New("fetch dogs client not configured")
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrRateLimited, op, err)
		}
	}
	call := func() (any, error) {
		return nil, c.roundTrip(ctx, op, method, target, body, out)
	}
	if c.breaker == nil {
		_, err := call()
		return err
	}
	_, err := c.breaker.Execute(call)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %w", ErrCircuitOpen, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, target string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call fetch dogs API %s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Op: op, StatusCode: resp.StatusCode, Status: resp.Status, Body: string(raw)}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", op, err)
	}
	return nil
}
