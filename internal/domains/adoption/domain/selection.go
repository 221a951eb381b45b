package domain

import "strings"

// SelectionSet is the set of dog ids a user marked as favorites. It is independent of the
// displayed page, so an id stays selected across navigation. Values are immutable: every
// mutation returns a new set.
type SelectionSet struct {
	ids []string
}

// NewSelectionSet builds a set from ids, keeping first-seen order.
func NewSelectionSet(ids ...string) SelectionSet {
	var s SelectionSet
	for _, id := range ids {
		s = s.Toggle(id, true)
	}
	return s
}

// Toggle inserts or removes id. Repeating the same call yields the same set.
func (s SelectionSet) Toggle(id string, selected bool) SelectionSet {
	id = strings.TrimSpace(id)
	if id == "" {
		return s
	}
	if selected {
		if s.Contains(id) {
			return s
		}
		next := make([]string, len(s.ids), len(s.ids)+1)
		copy(next, s.ids)
		return SelectionSet{ids: append(next, id)}
	}
	if !s.Contains(id) {
		return s
	}
	next := make([]string, 0, len(s.ids)-1)
	for _, existing := range s.ids {
		if existing != id {
			next = append(next, existing)
		}
	}
	return SelectionSet{ids: next}
}

// Contains is the membership test used when rendering cards.
func (s SelectionSet) Contains(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// Clear returns the empty set.
func (s SelectionSet) Clear() SelectionSet {
	return SelectionSet{}
}

// IDs returns the selected ids in insertion order.
func (s SelectionSet) IDs() []string {
	return append([]string{}, s.ids...)
}

func (s SelectionSet) Len() int {
	return len(s.ids)
}
