package mapper

import (
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

// Dog is one result card.
type Dog struct {
	ID       string `json:"id"`
	Img      string `json:"img"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	AgeLabel string `json:"ageLabel"`
	ZipCode  string `json:"zipCode"`
	Breed    string `json:"breed"`
	Selected bool   `json:"selected"`
}

// Filters mirrors the search form.
type Filters struct {
	Breeds []string `json:"breeds"`
	AgeMin *int     `json:"ageMin,omitempty"`
	AgeMax *int     `json:"ageMax,omitempty"`
	Sort   string   `json:"sort"`
	Size   int      `json:"size"`
}

type SortOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// View is everything the search page renders.
type View struct {
	Route           string       `json:"route"`
	User            *Profile     `json:"user,omitempty"`
	Filters         Filters      `json:"filters"`
	PendingPageSize int          `json:"pendingPageSize"`
	PageSize        int          `json:"pageSize"`
	Dogs            []Dog        `json:"dogs"`
	Total           int          `json:"total"`
	CanPrev         bool         `json:"canPrev"`
	CanNext         bool         `json:"canNext"`
	Selection       []string     `json:"selection"`
	Match           *Dog         `json:"match,omitempty"`
	SearchVisible   bool         `json:"searchVisible"`
	Notice          string       `json:"notice,omitempty"`
	SortOptions     []SortOption `json:"sortOptions"`
}

// FromState renders a view. profile may be nil after logout.
func FromState(state domain.State, profile *domain.Credentials) View {
	view := View{
		Route:           string(state.Route),
		Filters:         FromCriteria(state.Working),
		PendingPageSize: state.Working.PageSize,
		PageSize:        state.Committed.PageSize,
		Dogs:            make([]Dog, 0, len(state.Dogs)),
		Total:           state.Page.Total,
		CanPrev:         state.CanNavigate(domain.Backward),
		CanNext:         state.CanNavigate(domain.Forward),
		Selection:       state.Selection.IDs(),
		SearchVisible:   state.SearchVisible(),
		Notice:          state.Notice,
		SortOptions:     SortOptions(),
	}
	if view.Selection == nil {
		view.Selection = []string{}
	}
	if profile != nil {
		view.User = &Profile{Name: profile.Name, Email: profile.Email}
	}
	for _, d := range state.Dogs {
		view.Dogs = append(view.Dogs, FromDog(d, state.Selection.Contains(d.ID)))
	}
	if state.Match != nil {
		m := FromDog(*state.Match, state.Selection.Contains(state.Match.ID))
		view.Match = &m
	}
	return view
}

// LoggedOut is the view returned after logout.
func LoggedOut() View {
	return FromState(domain.NewState().LoggedOut(), nil)
}

func FromDog(d domain.Dog, selected bool) Dog {
	return Dog{
		ID:       d.ID,
		Img:      d.Img,
		Name:     d.Name,
		Age:      d.Age,
		AgeLabel: d.AgeLabel(),
		ZipCode:  d.ZipCode,
		Breed:    d.Breed,
		Selected: selected,
	}
}

func FromCriteria(c domain.Criteria) Filters {
	breeds := append([]string{}, c.Breeds...)
	return Filters{
		Breeds: breeds,
		AgeMin: c.MinAge,
		AgeMax: c.MaxAge,
		Sort:   c.Sort.String(),
		Size:   c.PageSize,
	}
}

// ToCriteria parses the form. The sort key must already be valid.
func ToCriteria(f Filters) (domain.Criteria, error) {
	c := domain.Criteria{
		Breeds:   append([]string(nil), f.Breeds...),
		MinAge:   f.AgeMin,
		MaxAge:   f.AgeMax,
		PageSize: f.Size,
	}
	if f.Sort != "" {
		key, err := domain.ParseSortKey(f.Sort)
		if err != nil {
			return domain.Criteria{}, err
		}
		c.Sort = key
	}
	return c, nil
}

func SortOptions() []SortOption {
	opts := domain.SortOptions()
	out := make([]SortOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, SortOption{Value: o.Key.String(), Label: o.Label})
	}
	return out
}
