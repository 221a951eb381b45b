package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SortField enumerates the fields the catalog service can order by.
type SortField string

const (
	SortFieldBreed SortField = "breed"
	SortFieldAge   SortField = "age"
)

// SortDirection represents ordering direction for a sort field.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// DefaultPageSize is the number of results requested when nothing else was chosen.
const DefaultPageSize = 10

// DefaultSort orders results by breed name, A to Z.
var DefaultSort = SortKey{Field: SortFieldBreed, Direction: SortAsc}

var (
	ErrInvalidSort     = errors.New("sort must be one of breed:asc, breed:desc, age:asc, age:desc")
	ErrNegativeAge     = errors.New("age bounds must be greater or equal to zero")
	ErrAgeRange        = errors.New("minimum age must not exceed maximum age")
	ErrInvalidPageSize = errors.New("page size must be greater than zero")
)

// SortKey is the single compound ordering sent verbatim to the catalog service.
type SortKey struct {
	Field     SortField
	Direction SortDirection
}

// String renders the wire form "<field>:<direction>".
func (k SortKey) String() string {
	return string(k.Field) + ":" + string(k.Direction)
}

// IsZero reports whether no sort was chosen.
func (k SortKey) IsZero() bool {
	return k.Field == "" && k.Direction == ""
}

// ParseSortKey parses the wire form. Surrounding whitespace and letter case are ignored.
func ParseSortKey(raw string) (SortKey, error) {
	field, direction, ok := strings.Cut(strings.ToLower(strings.TrimSpace(raw)), ":")
	if !ok {
		return SortKey{}, fmt.Errorf("%w: %q", ErrInvalidSort, raw)
	}
	key := SortKey{Field: SortField(field), Direction: SortDirection(direction)}
	if !key.valid() {
		return SortKey{}, fmt.Errorf("%w: %q", ErrInvalidSort, raw)
	}
	return key, nil
}

func (k SortKey) valid() bool {
	switch k.Field {
	case SortFieldBreed, SortFieldAge:
	default:
		return false
	}
	return k.Direction == SortAsc || k.Direction == SortDesc
}

// SortOption pairs a sort key with its human label for the sort picker.
type SortOption struct {
	Key   SortKey
	Label string
}

// SortOptions lists the orderings offered to users, default first.
func SortOptions() []SortOption {
	return []SortOption{
		{Key: SortKey{Field: SortFieldBreed, Direction: SortAsc}, Label: "Breed A-Z"},
		{Key: SortKey{Field: SortFieldBreed, Direction: SortDesc}, Label: "Breed Z-A"},
		{Key: SortKey{Field: SortFieldAge, Direction: SortAsc}, Label: "Age Low-High"},
		{Key: SortKey{Field: SortFieldAge, Direction: SortDesc}, Label: "Age High-Low"},
	}
}

// Criteria are the filter settings that drive every search call.
type Criteria struct {
	// Breeds restricts results to the listed breed names; empty means unfiltered.
	Breeds   []string
	MinAge   *int
	MaxAge   *int
	Sort     SortKey
	PageSize int
}

// DefaultCriteria returns the criteria a fresh workspace starts with.
func DefaultCriteria() Criteria {
	return Criteria{Sort: DefaultSort, PageSize: DefaultPageSize}
}

// Normalize trims breed names, drops empty or repeated ones and fills in the default sort and
// page size when unset. Age bounds are kept exactly as given.
func (c Criteria) Normalize() Criteria {
	out := c.Clone()
	out.Breeds = nil
	seen := make(map[string]struct{}, len(c.Breeds))
	for _, breed := range c.Breeds {
		breed = strings.TrimSpace(breed)
		if breed == "" {
			continue
		}
		if _, ok := seen[breed]; ok {
			continue
		}
		seen[breed] = struct{}{}
		out.Breeds = append(out.Breeds, breed)
	}
	if out.Sort.IsZero() {
		out.Sort = DefaultSort
	}
	if out.PageSize == 0 {
		out.PageSize = DefaultPageSize
	}
	return out
}

// Validate checks the invariants enforced where user input enters the system.
func (c Criteria) Validate() error {
	if c.MinAge != nil && *c.MinAge < 0 {
		return ErrNegativeAge
	}
	if c.MaxAge != nil && *c.MaxAge < 0 {
		return ErrNegativeAge
	}
	if c.MinAge != nil && c.MaxAge != nil && *c.MinAge > *c.MaxAge {
		return ErrAgeRange
	}
	if c.PageSize < 0 {
		return ErrInvalidPageSize
	}
	if !c.Sort.IsZero() && !c.Sort.valid() {
		return ErrInvalidSort
	}
	return nil
}

// Clone returns a deep copy so callers never share the breed slice or age pointers.
func (c Criteria) Clone() Criteria {
	out := Criteria{Sort: c.Sort, PageSize: c.PageSize}
	if c.Breeds != nil {
		out.Breeds = append([]string{}, c.Breeds...)
	}
	out.MinAge = cloneInt(c.MinAge)
	out.MaxAge = cloneInt(c.MaxAge)
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	copy := *v
	return &copy
}
