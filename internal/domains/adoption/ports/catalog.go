package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

var (
	// ErrUnauthorized signals the catalog service rejected the session credential.
	ErrUnauthorized = errors.New("catalog session is not authorized")
	// ErrEmptyMatchRequest is returned instead of calling the match endpoint with no ids.
	ErrEmptyMatchRequest = errors.New("match requires at least one dog id")
	// ErrUnavailable signals the catalog service is failing fast (circuit open or throttled).
	ErrUnavailable = errors.New("catalog service unavailable")
)

// CatalogGateway is the outbound port to the remote dog catalog.
type CatalogGateway interface {
	ListBreeds(ctx context.Context) ([]string, error)
	// Search runs a filtered search. A non-empty cursor takes precedence over criteria and is
	// passed through untouched.
	Search(ctx context.Context, criteria domain.Criteria, cursor domain.Cursor) (domain.ResultPage, error)
	// Hydrate fetches records by id. Response order is not guaranteed.
	Hydrate(ctx context.Context, ids []string) ([]domain.Dog, error)
	// Match returns the id the catalog service picked from ids.
	Match(ctx context.Context, ids []string) (string, error)
}
