package domain

// Route names the page the browser should be showing.
type Route string

const (
	RouteLogin Route = "/"
	RouteHome  Route = "/home"
)

// State is everything one browser session sees on the search page. All transitions are pure:
// they return a new State and never modify the receiver's slices.
type State struct {
	// Working holds the criteria being edited, including a pending page size. It only takes
	// effect on the next search.
	Working Criteria
	// Committed holds the criteria that produced the displayed page.
	Committed Criteria
	Page      ResultPage
	Dogs      []Dog
	Selection SelectionSet
	Match     *Dog
	// Notice is a transient, user-visible message about the last failed intent.
	Notice string
	Route  Route
}

// NewState returns the state of a freshly logged-in session.
func NewState() State {
	return State{
		Working:   DefaultCriteria(),
		Committed: DefaultCriteria(),
		Route:     RouteHome,
	}
}

// Clone deep-copies the state.
func (s State) Clone() State {
	out := s
	out.Working = s.Working.Clone()
	out.Committed = s.Committed.Clone()
	out.Page = s.Page.Clone()
	if s.Dogs != nil {
		out.Dogs = append([]Dog{}, s.Dogs...)
	}
	if s.Match != nil {
		match := *s.Match
		out.Match = &match
	}
	return out
}

// WithFilters replaces the working criteria. Nothing displayed changes.
func (s State) WithFilters(criteria Criteria) State {
	out := s.Clone()
	out.Working = criteria.Normalize()
	return out
}

// WithResults swaps in a new page, its hydrated entries and its cursors in one step, and
// records the criteria that produced them.
func (s State) WithResults(committed Criteria, page ResultPage, dogs []Dog) State {
	out := s.Clone()
	out.Committed = committed.Clone()
	out.Page = page.Clone()
	out.Dogs = append([]Dog{}, dogs...)
	out.Notice = ""
	return out
}

// ToggleSelection adds or removes a dog from the favorites.
func (s State) ToggleSelection(id string, selected bool) State {
	out := s.Clone()
	out.Selection = s.Selection.Toggle(id, selected)
	return out
}

// ClearSelection empties the favorites.
func (s State) ClearSelection() State {
	out := s.Clone()
	out.Selection = s.Selection.Clear()
	return out
}

// WithMatch stores the match. The selection is left as it is.
func (s State) WithMatch(dog Dog) State {
	out := s.Clone()
	out.Match = &dog
	out.Notice = ""
	return out
}

// ResetSearch is the "search again" transition: it drops the match, the displayed results with
// their cursors and the selection. Working and committed criteria survive.
func (s State) ResetSearch() State {
	out := s.Clone()
	out.Match = nil
	out.Dogs = nil
	out.Page = ResultPage{}
	out.Selection = SelectionSet{}
	out.Notice = ""
	return out
}

// LoggedOut discards everything session-bound and routes back to the login view.
func (s State) LoggedOut() State {
	out := s.ResetSearch()
	out.Route = RouteLogin
	return out
}

// WithNotice records a transient error for the user.
func (s State) WithNotice(msg string) State {
	out := s.Clone()
	out.Notice = msg
	return out
}

// SearchVisible reports whether the filters and results should be shown; a present match
// hides them.
func (s State) SearchVisible() bool {
	return s.Match == nil
}

// CanNavigate reports whether the page has a cursor for direction.
func (s State) CanNavigate(direction Direction) bool {
	_, ok := s.Page.Cursor.For(direction)
	return ok
}
