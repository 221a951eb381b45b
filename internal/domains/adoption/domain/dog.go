package domain

import "strconv"

// Dog is one adoptable animal as returned by the catalog service. Records are never mutated
// after hydration; identity is the ID.
type Dog struct {
	ID      string
	Img     string
	Name    string
	Age     int
	ZipCode string
	Breed   string
}

// IsPuppy reports whether the age sentinel for juveniles is set.
func (d Dog) IsPuppy() bool {
	return d.Age == 0
}

// AgeLabel renders the age the way the catalog cards display it.
func (d Dog) AgeLabel() string {
	if d.IsPuppy() {
		return "Puppy"
	}
	return strconv.Itoa(d.Age)
}

// OrderByIDs re-keys hydrated records by id and returns them in the order of ids.
// Duplicated records collapse to one. The second return value lists ids that had no record.
func OrderByIDs(ids []string, dogs []Dog) ([]Dog, []string) {
	byID := make(map[string]Dog, len(dogs))
	for _, dog := range dogs {
		if _, seen := byID[dog.ID]; !seen {
			byID[dog.ID] = dog
		}
	}
	ordered := make([]Dog, 0, len(ids))
	var missing []string
	for _, id := range ids {
		dog, ok := byID[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		ordered = append(ordered, dog)
	}
	return ordered, missing
}
