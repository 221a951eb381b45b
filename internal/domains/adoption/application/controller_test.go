package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

const (
	timeout = time.Second
	tick    = 5 * time.Millisecond
)

type searchCall struct {
	criteria domain.Criteria
	cursor   domain.Cursor
}

type fakeCatalog struct {
	mu sync.Mutex

	breeds   []string
	pages    map[string]domain.ResultPage
	dogs     map[string]domain.Dog
	matchID  string
	err      error
	matchErr error

	// gate, when set, blocks Search for the given breed or cursor until the channel is closed.
	gate map[string]chan struct{}
	// matchGate, when set, blocks Match until the channel is closed.
	matchGate chan struct{}

	searches []searchCall
	hydrated [][]string
	matches  [][]string
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		pages: map[string]domain.ResultPage{},
		dogs:  map[string]domain.Dog{},
		gate:  map[string]chan struct{}{},
	}
}

func pageKey(criteria domain.Criteria, cursor domain.Cursor) string {
	if cursor != "" {
		return string(cursor)
	}
	if len(criteria.Breeds) == 0 {
		return "*"
	}
	return criteria.Breeds[0]
}

func (f *fakeCatalog) ListBreeds(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]string{}, f.breeds...), nil
}

func (f *fakeCatalog) Search(_ context.Context, criteria domain.Criteria, cursor domain.Cursor) (domain.ResultPage, error) {
	key := pageKey(criteria, cursor)
	f.mu.Lock()
	f.searches = append(f.searches, searchCall{criteria: criteria.Clone(), cursor: cursor})
	gate := f.gate[key]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.ResultPage{}, f.err
	}
	page, ok := f.pages[key]
	if !ok {
		return domain.ResultPage{}, nil
	}
	return page.Clone(), nil
}

func (f *fakeCatalog) Hydrate(_ context.Context, ids []string) ([]domain.Dog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hydrated = append(f.hydrated, append([]string{}, ids...))
	if f.err != nil {
		return nil, f.err
	}
	// reversed to prove the controller re-keys by id
	var out []domain.Dog
	for i := len(ids) - 1; i >= 0; i-- {
		if dog, ok := f.dogs[ids[i]]; ok {
			out = append(out, dog)
		}
	}
	return out, nil
}

func (f *fakeCatalog) Match(_ context.Context, ids []string) (string, error) {
	f.mu.Lock()
	f.matches = append(f.matches, append([]string{}, ids...))
	gate := f.matchGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matchErr != nil {
		return "", f.matchErr
	}
	return f.matchID, nil
}

func (f *fakeCatalog) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
	f.matchErr = err
}

func (f *fakeCatalog) matchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.matches)
}

func (f *fakeCatalog) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searches)
}

func intPtr(v int) *int { return &v }

func seedPoodles(f *fakeCatalog) {
	f.pages["Poodle"] = domain.ResultPage{
		IDs:    []string{"d1", "d2"},
		Total:  2,
		Cursor: domain.PageCursor{Next: "/dogs/search?from=10"},
	}
	f.dogs["d1"] = domain.Dog{ID: "d1", Name: "Fifi", Breed: "Poodle", Age: 1}
	f.dogs["d2"] = domain.Dog{ID: "d2", Name: "Coco", Breed: "Poodle", Age: 4}
}

func TestSearch_PoodleScenario(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	ctrl := NewController(catalog)

	ctrl.SetFilters(domain.Criteria{
		Breeds:   []string{"Poodle"},
		MinAge:   intPtr(1),
		MaxAge:   intPtr(5),
		Sort:     domain.SortKey{Field: domain.SortFieldAge, Direction: domain.SortAsc},
		PageSize: 10,
	})
	state, err := ctrl.Search(context.Background())
	require.NoError(t, err)

	require.Len(t, state.Dogs, 2)
	require.Equal(t, "d1", state.Dogs[0].ID)
	require.Equal(t, "d2", state.Dogs[1].ID)
	require.False(t, state.CanNavigate(domain.Backward))
	require.True(t, state.CanNavigate(domain.Forward))
	require.Equal(t, domain.Cursor("/dogs/search?from=10"), state.Page.Cursor.Next)

	require.Len(t, catalog.searches, 1)
	sent := catalog.searches[0]
	require.Equal(t, "age:asc", sent.criteria.Sort.String())
	require.Equal(t, 1, *sent.criteria.MinAge)
	require.Equal(t, 5, *sent.criteria.MaxAge)
	require.Equal(t, [][]string{{"d1", "d2"}}, catalog.hydrated)
}

func TestSetFilters_HasNoSideEffectUntilSearch(t *testing.T) {
	catalog := newFakeCatalog()
	ctrl := NewController(catalog)

	state := ctrl.SetFilters(domain.Criteria{Breeds: []string{"  Pug "}, MinAge: intPtr(9), MaxAge: intPtr(2)})

	require.Equal(t, 0, catalog.searchCount())
	require.Equal(t, []string{"Pug"}, state.Working.Breeds)
	require.Equal(t, 9, *state.Working.MinAge, "bounds are kept as given")
	require.Equal(t, 2, *state.Working.MaxAge)
	require.Nil(t, state.Committed.Breeds)
}

func TestSearch_PageSizeAppliesOnNextSearchOnly(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	ctrl := NewController(catalog)

	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}, PageSize: 10})
	_, err := ctrl.Search(context.Background())
	require.NoError(t, err)

	state := ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}, PageSize: 25})
	require.Equal(t, 10, state.Committed.PageSize)
	require.Equal(t, 25, state.Working.PageSize)
	require.Len(t, state.Dogs, 2)

	state, err = ctrl.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, 25, state.Committed.PageSize)
	require.Equal(t, 25, catalog.searches[1].criteria.PageSize)
}

func TestSearch_FailureKeepsPriorResults(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	before, err := ctrl.Search(context.Background())
	require.NoError(t, err)

	catalog.err = errors.New("connection reset")
	after, err := ctrl.Search(context.Background())
	require.Error(t, err)
	require.Equal(t, before.Dogs, after.Dogs)
	require.Equal(t, before.Page.Cursor, after.Page.Cursor)
	require.NotEmpty(t, after.Notice)

	catalog.err = nil
	recovered, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	require.Empty(t, recovered.Notice)
}

func TestSearch_IncompleteHydrationFails(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.pages["Pug"] = domain.ResultPage{IDs: []string{"p1", "p2"}}
	catalog.dogs["p1"] = domain.Dog{ID: "p1"}
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Pug"}})

	state, err := ctrl.Search(context.Background())
	require.ErrorIs(t, err, ErrIncompleteHydration)
	require.Empty(t, state.Dogs)
}

func TestSearch_EmptyResultIsNotAnError(t *testing.T) {
	catalog := newFakeCatalog()
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Nothing"}})

	state, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	require.Empty(t, state.Dogs)
	require.Empty(t, catalog.hydrated, "no hydrate call for an empty page")
}

func TestNavigatePage_NoopWithoutCursor(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	before, err := ctrl.Search(context.Background())
	require.NoError(t, err)

	after, err := ctrl.NavigatePage(context.Background(), domain.Backward)
	require.NoError(t, err)
	require.Equal(t, before, after)
	require.Equal(t, 1, catalog.searchCount())

	fresh := NewController(catalog)
	_, err = fresh.NavigatePage(context.Background(), domain.Forward)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.searchCount())
}

func TestNavigatePage_ReplaysCursorVerbatim(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	catalog.pages["/dogs/search?from=10"] = domain.ResultPage{
		IDs:    []string{"d3"},
		Cursor: domain.PageCursor{Prev: "/dogs/search?from=0"},
	}
	catalog.dogs["d3"] = domain.Dog{ID: "d3", Breed: "Poodle", Age: 7}
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	_, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	ctrl.ToggleSelection("d1", true)

	state, err := ctrl.NavigatePage(context.Background(), domain.Forward)
	require.NoError(t, err)
	require.Equal(t, domain.Cursor("/dogs/search?from=10"), catalog.searches[1].cursor)
	require.Equal(t, []domain.Dog{{ID: "d3", Breed: "Poodle", Age: 7}}, state.Dogs)
	require.False(t, state.CanNavigate(domain.Forward))
	require.True(t, state.CanNavigate(domain.Backward))
	require.True(t, state.Selection.Contains("d1"), "selection survives navigation")
}

func TestSearch_LatestIssuedWinsRegardlessOfArrivalOrder(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.pages["Akita"] = domain.ResultPage{IDs: []string{"a1"}, Cursor: domain.PageCursor{Next: "akita-next"}}
	catalog.pages["Boxer"] = domain.ResultPage{IDs: []string{"b1"}, Cursor: domain.PageCursor{Prev: "boxer-prev"}}
	catalog.dogs["a1"] = domain.Dog{ID: "a1", Breed: "Akita"}
	catalog.dogs["b1"] = domain.Dog{ID: "b1", Breed: "Boxer"}
	releaseFirst := make(chan struct{})
	catalog.gate["Akita"] = releaseFirst
	ctrl := NewController(catalog)

	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Akita"}})
	firstDone := make(chan error, 1)
	go func() {
		_, err := ctrl.Search(context.Background())
		firstDone <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 1 }, timeout, tick)

	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Boxer"}})
	second, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b1", second.Dogs[0].ID)

	close(releaseFirst)
	require.ErrorIs(t, <-firstDone, ErrSuperseded)

	final := ctrl.State()
	require.Len(t, final.Dogs, 1)
	require.Equal(t, "b1", final.Dogs[0].ID)
	require.Equal(t, domain.PageCursor{Prev: "boxer-prev"}, final.Page.Cursor)
	require.Equal(t, []string{"Boxer"}, final.Committed.Breeds)
}

func TestSearch_StaleResponseDiscardedWhenItArrivesFirst(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.pages["Akita"] = domain.ResultPage{IDs: []string{"a1"}}
	catalog.pages["Boxer"] = domain.ResultPage{IDs: []string{"b1"}}
	catalog.dogs["a1"] = domain.Dog{ID: "a1"}
	catalog.dogs["b1"] = domain.Dog{ID: "b1"}
	releaseFirst := make(chan struct{})
	releaseSecond := make(chan struct{})
	catalog.gate["Akita"] = releaseFirst
	catalog.gate["Boxer"] = releaseSecond
	ctrl := NewController(catalog)

	results := make(chan error, 2)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Akita"}})
	go func() {
		_, err := ctrl.Search(context.Background())
		results <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 1 }, timeout, tick)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Boxer"}})
	go func() {
		_, err := ctrl.Search(context.Background())
		results <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 2 }, timeout, tick)

	close(releaseFirst)
	require.ErrorIs(t, <-results, ErrSuperseded)
	require.Empty(t, ctrl.State().Dogs, "stale page never shown")

	close(releaseSecond)
	require.NoError(t, <-results)
	require.Equal(t, "b1", ctrl.State().Dogs[0].ID)
}

func TestRequestMatch_EmptySelectionNeverCallsCatalog(t *testing.T) {
	catalog := newFakeCatalog()
	ctrl := NewController(catalog)

	state, err := ctrl.RequestMatch(context.Background(), nil)
	require.ErrorIs(t, err, ErrEmptySelection)
	require.ErrorIs(t, err, ErrInvalidInput)
	require.Empty(t, catalog.matches)
	require.Nil(t, state.Match)
	require.NotEmpty(t, state.Notice)

	_, err = ctrl.RequestMatch(context.Background(), []string{" ", ""})
	require.ErrorIs(t, err, ErrEmptySelection)
	require.Empty(t, catalog.matches)
}

func TestRequestMatch_StoresMatchAndKeepsSelection(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	catalog.matchID = "d1"
	ctrl := NewController(catalog)

	ctrl.ToggleSelection("d1", true)
	ctrl.ToggleSelection("d2", true)
	state, err := ctrl.RequestMatch(context.Background(), []string{"d1", "d2"})
	require.NoError(t, err)

	require.Equal(t, [][]string{{"d1", "d2"}}, catalog.matches)
	require.Equal(t, [][]string{{"d1"}}, catalog.hydrated)
	require.NotNil(t, state.Match)
	require.Equal(t, catalog.dogs["d1"], *state.Match)
	require.Equal(t, []string{"d1", "d2"}, state.Selection.IDs())
	require.False(t, state.SearchVisible())
}

func TestRequestMatch_FailureKeepsSelectionForRetry(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.matchErr = errors.New("boom")
	ctrl := NewController(catalog)
	ctrl.ToggleSelection("d1", true)

	state, err := ctrl.MatchSelection(context.Background())
	require.Error(t, err)
	require.Nil(t, state.Match)
	require.True(t, state.Selection.Contains("d1"))
	require.NotEmpty(t, state.Notice)
}

func TestClearMatch_ResetsResultsAndSelection(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	catalog.matchID = "d2"
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	_, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	ctrl.ToggleSelection("d2", true)
	_, err = ctrl.MatchSelection(context.Background())
	require.NoError(t, err)

	state := ctrl.ClearMatch()
	require.Nil(t, state.Match)
	require.Empty(t, state.Dogs)
	require.Equal(t, 0, state.Selection.Len())
	require.False(t, state.CanNavigate(domain.Forward))
	require.Equal(t, []string{"Poodle"}, state.Working.Breeds)
}

func TestUnauthorizedResponseLogsOut(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	_, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	ctrl.ToggleSelection("d1", true)

	catalog.err = fmt.Errorf("search: %w", ports.ErrUnauthorized)
	state, err := ctrl.NavigatePage(context.Background(), domain.Forward)
	require.ErrorIs(t, err, ErrSessionExpired)
	require.Equal(t, domain.RouteLogin, state.Route)
	require.Empty(t, state.Dogs)
	require.Equal(t, 0, state.Selection.Len())
	require.True(t, ctrl.Invalidated())
}

func TestBreeds(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.breeds = []string{"Affenpinscher", "Akita"}
	ctrl := NewController(catalog)

	breeds, err := ctrl.Breeds(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Affenpinscher", "Akita"}, breeds)

	catalog.err = ports.ErrUnauthorized
	_, err = ctrl.Breeds(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestSearch_OvertakesNavigationInFlight(t *testing.T) {
	catalog := newFakeCatalog()
	seedPoodles(catalog)
	catalog.pages["/dogs/search?from=10"] = domain.ResultPage{IDs: []string{"d3"}, Cursor: domain.PageCursor{Prev: "/dogs/search?from=0"}}
	catalog.dogs["d3"] = domain.Dog{ID: "d3", Breed: "Poodle"}
	catalog.pages["Boxer"] = domain.ResultPage{IDs: []string{"b1"}}
	catalog.dogs["b1"] = domain.Dog{ID: "b1", Breed: "Boxer"}
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Poodle"}})
	_, err := ctrl.Search(context.Background())
	require.NoError(t, err)

	releaseNext := make(chan struct{})
	catalog.mu.Lock()
	catalog.gate["/dogs/search?from=10"] = releaseNext
	catalog.mu.Unlock()
	navigated := make(chan error, 1)
	go func() {
		_, err := ctrl.NavigatePage(context.Background(), domain.Forward)
		navigated <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 2 }, timeout, tick)

	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Boxer"}})
	state, err := ctrl.Search(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b1", state.Dogs[0].ID)

	close(releaseNext)
	require.ErrorIs(t, <-navigated, ErrSuperseded)

	final := ctrl.State()
	require.Equal(t, []domain.Dog{{ID: "b1", Breed: "Boxer"}}, final.Dogs)
	require.Equal(t, []string{"Boxer"}, final.Committed.Breeds)
	require.False(t, final.CanNavigate(domain.Backward))
}

func TestUnauthorizedStaleSearchStillLogsOut(t *testing.T) {
	catalog := newFakeCatalog()
	release := make(chan struct{})
	catalog.gate["Akita"] = release
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Akita"}})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Search(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 1 }, timeout, tick)

	ctrl.ClearMatch()
	catalog.setErr(fmt.Errorf("search: %w", ports.ErrUnauthorized))
	close(release)

	require.ErrorIs(t, <-done, ErrSessionExpired)
	require.True(t, ctrl.Invalidated())
	require.Equal(t, domain.RouteLogin, ctrl.State().Route)
}

func TestUnauthorizedStaleMatchStillLogsOut(t *testing.T) {
	catalog := newFakeCatalog()
	release := make(chan struct{})
	catalog.matchGate = release
	ctrl := NewController(catalog)
	ctrl.ToggleSelection("d1", true)

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.MatchSelection(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return catalog.matchCount() == 1 }, timeout, tick)

	ctrl.ClearMatch()
	catalog.setErr(fmt.Errorf("match: %w", ports.ErrUnauthorized))
	close(release)

	require.ErrorIs(t, <-done, ErrSessionExpired)
	require.True(t, ctrl.Invalidated())
	require.Equal(t, domain.RouteLogin, ctrl.State().Route)
}

func TestStaleFailureIsStillSuperseded(t *testing.T) {
	catalog := newFakeCatalog()
	release := make(chan struct{})
	catalog.gate["Akita"] = release
	ctrl := NewController(catalog)
	ctrl.SetFilters(domain.Criteria{Breeds: []string{"Akita"}})

	done := make(chan error, 1)
	go func() {
		_, err := ctrl.Search(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return catalog.searchCount() == 1 }, timeout, tick)

	ctrl.ClearMatch()
	catalog.setErr(errors.New("connection reset"))
	close(release)

	require.ErrorIs(t, <-done, ErrSuperseded)
	require.False(t, ctrl.Invalidated())
	require.Empty(t, ctrl.State().Notice)
}
