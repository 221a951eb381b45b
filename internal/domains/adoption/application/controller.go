package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

// Controller owns the search state of one session and reconciles catalog responses into it.
//
// Overlapping Search and NavigatePage calls follow last-issued-wins: each call takes the next
// sequence number before going to the network, and its response is applied only if no newer
// call was issued meanwhile. Stale responses are dropped and reported as ErrSuperseded.
// Match requests use their own sequence with the same rule.
type Controller struct {
	catalog ports.CatalogGateway
	logger  *slog.Logger

	mu          sync.Mutex
	state       domain.State
	resultsSeq  uint64
	matchSeq    uint64
	invalidated bool
}

type ControllerOption func(*Controller)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithState starts the controller from a restored state instead of the defaults.
func WithState(state domain.State) ControllerOption {
	return func(c *Controller) {
		c.state = state.Clone()
	}
}

// NewController wires a controller to the catalog gateway of one remote session.
func NewController(catalog ports.CatalogGateway, opts ...ControllerOption) *Controller {
	c := &Controller{
		catalog: catalog,
		state:   domain.NewState(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Invalidated reports whether an authorization failure ended this session.
func (c *Controller) Invalidated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.invalidated
}

// Breeds lists the breed names for the picker.
func (c *Controller) Breeds(ctx context.Context) ([]string, error) {
	breeds, err := c.catalog.ListBreeds(ctx)
	if err != nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		_, err = c.failLocked(ctx, "list breeds", err)
		return nil, err
	}
	return breeds, nil
}

// SetFilters replaces the working criteria. Nothing is fetched until Search.
func (c *Controller) SetFilters(criteria domain.Criteria) domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.WithFilters(criteria)
	return c.state.Clone()
}

// Search commits the working criteria, including a pending page size, and replaces the
// displayed page with the first page of results.
func (c *Controller) Search(ctx context.Context) (domain.State, error) {
	c.mu.Lock()
	criteria := c.state.Working.Normalize()
	seq := c.nextResultsSeqLocked()
	c.mu.Unlock()

	page, dogs, err := c.fetchPage(ctx, criteria, "")
	return c.settleResults(ctx, seq, "search", err, func(s domain.State) domain.State {
		return s.WithResults(criteria, page, dogs)
	})
}

// NavigatePage follows the next or previous cursor of the displayed page. Without a cursor in
// that direction it is a no-op.
func (c *Controller) NavigatePage(ctx context.Context, direction domain.Direction) (domain.State, error) {
	c.mu.Lock()
	cursor, ok := c.state.Page.Cursor.For(direction)
	if !ok {
		state := c.state.Clone()
		c.mu.Unlock()
		return state, nil
	}
	criteria := c.state.Committed.Clone()
	seq := c.nextResultsSeqLocked()
	c.mu.Unlock()

	page, dogs, err := c.fetchPage(ctx, criteria, cursor)
	return c.settleResults(ctx, seq, "navigate page", err, func(s domain.State) domain.State {
		return s.WithResults(criteria, page, dogs)
	})
}

// ToggleSelection marks or unmarks a dog as favorite.
func (c *Controller) ToggleSelection(id string, selected bool) domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.ToggleSelection(id, selected)
	return c.state.Clone()
}

// ClearSelection empties the favorites.
func (c *Controller) ClearSelection() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = c.state.ClearSelection()
	return c.state.Clone()
}

// RequestMatch asks the catalog to pick one dog out of selection and stores it as the match.
// An empty selection fails before any network call. The selection itself is never modified.
func (c *Controller) RequestMatch(ctx context.Context, selection []string) (domain.State, error) {
	ids := domain.NewSelectionSet(selection...).IDs()
	c.mu.Lock()
	if len(ids) == 0 {
		defer c.mu.Unlock()
		c.state = c.state.WithNotice(noticeFor(ErrEmptySelection))
		return c.state.Clone(), mapError(ErrEmptySelection)
	}
	c.matchSeq++
	seq := c.matchSeq
	c.mu.Unlock()

	match, err := c.fetchMatch(ctx, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.matchSeq {
		return c.staleLocked(ctx, "request match", err)
	}
	if err != nil {
		return c.failLocked(ctx, "request match", err)
	}
	c.state = c.state.WithMatch(match)
	c.logger.DebugContext(ctx, "match stored", slog.String("dog.id", match.ID), slog.Int("selection.size", len(ids)))
	return c.state.Clone(), nil
}

// MatchSelection requests a match for the current selection.
func (c *Controller) MatchSelection(ctx context.Context) (domain.State, error) {
	return c.RequestMatch(ctx, c.State().Selection.IDs())
}

// ClearMatch leaves the match view. It resets the whole search through ResetSearch.
func (c *Controller) ClearMatch() domain.State {
	return c.ResetSearch()
}

// ResetSearch drops the match, the displayed results and the selection. Responses still in
// flight are discarded when they arrive.
func (c *Controller) ResetSearch() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resultsSeq++
	c.matchSeq++
	c.state = c.state.ResetSearch()
	return c.state.Clone()
}

// Invalidate applies the logout transition.
func (c *Controller) Invalidate() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidateLocked()
	return c.state.Clone()
}

func (c *Controller) nextResultsSeqLocked() uint64 {
	c.resultsSeq++
	return c.resultsSeq
}

func (c *Controller) fetchPage(ctx context.Context, criteria domain.Criteria, cursor domain.Cursor) (domain.ResultPage, []domain.Dog, error) {
	page, err := c.catalog.Search(ctx, criteria, cursor)
	if err != nil {
		return domain.ResultPage{}, nil, err
	}
	dogs, err := c.hydrate(ctx, page.IDs)
	if err != nil {
		return domain.ResultPage{}, nil, err
	}
	return page, dogs, nil
}

func (c *Controller) hydrate(ctx context.Context, ids []string) ([]domain.Dog, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := c.catalog.Hydrate(ctx, ids)
	if err != nil {
		return nil, err
	}
	dogs, missing := domain.OrderByIDs(ids, records)
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %s", ErrIncompleteHydration, strings.Join(missing, ", "))
	}
	return dogs, nil
}

func (c *Controller) fetchMatch(ctx context.Context, ids []string) (domain.Dog, error) {
	id, err := c.catalog.Match(ctx, ids)
	if err != nil {
		return domain.Dog{}, err
	}
	dogs, err := c.hydrate(ctx, []string{id})
	if err != nil {
		return domain.Dog{}, err
	}
	return dogs[0], nil
}

func (c *Controller) settleResults(ctx context.Context, seq uint64, op string, err error, apply func(domain.State) domain.State) (domain.State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.resultsSeq {
		c.logger.DebugContext(ctx, "discarding stale response", slog.String("op", op), slog.Uint64("seq", seq), slog.Uint64("latest", c.resultsSeq))
		return c.staleLocked(ctx, op, err)
	}
	if err != nil {
		return c.failLocked(ctx, op, err)
	}
	c.state = apply(c.state)
	c.logger.DebugContext(ctx, "results applied", slog.String("op", op), slog.Int("count", len(c.state.Dogs)))
	return c.state.Clone(), nil
}

// staleLocked answers a response a newer intent has overtaken. Its payload is dropped, but a
// rejected session still logs out: the catalog no longer accepts the cookie either way.
func (c *Controller) staleLocked(ctx context.Context, op string, err error) (domain.State, error) {
	if err != nil && errors.Is(mapError(err), ErrSessionExpired) {
		return c.failLocked(ctx, op, err)
	}
	return c.state.Clone(), ErrSuperseded
}

// failLocked records a failed intent. Prior results stay; authorization failures log the
// session out.
func (c *Controller) failLocked(ctx context.Context, op string, err error) (domain.State, error) {
	mapped := mapError(err)
	if errors.Is(mapped, ErrSessionExpired) {
		c.invalidateLocked()
	}
	c.state = c.state.WithNotice(noticeFor(mapped))
	c.logger.WarnContext(ctx, "catalog intent failed", slog.String("op", op), slog.String("error", err.Error()))
	return c.state.Clone(), mapped
}

func (c *Controller) invalidateLocked() {
	c.invalidated = true
	c.resultsSeq++
	c.matchSeq++
	c.state = c.state.LoggedOut()
}
