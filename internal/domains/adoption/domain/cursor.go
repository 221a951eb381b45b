package domain

import (
	"errors"
	"strings"
)

// Cursor is a server-issued pagination token. It is stored and replayed exactly as received.
type Cursor string

// Direction selects which cursor of a page to follow.
type Direction string

const (
	Forward  Direction = "next"
	Backward Direction = "prev"
)

var ErrInvalidDirection = errors.New("direction must be next or prev")

// ParseDirection accepts next/forward and prev/previous/backward.
func ParseDirection(raw string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "next", "forward":
		return Forward, nil
	case "prev", "previous", "backward":
		return Backward, nil
	default:
		return "", ErrInvalidDirection
	}
}

// PageCursor is the cursor pair attached to a result page. Either side may be absent.
type PageCursor struct {
	Next Cursor
	Prev Cursor
}

// For returns the cursor for the given direction and whether it is present.
func (p PageCursor) For(direction Direction) (Cursor, bool) {
	var c Cursor
	switch direction {
	case Forward:
		c = p.Next
	case Backward:
		c = p.Prev
	}
	return c, c != ""
}

// ResultPage is one page of search results: ordered ids plus their cursor pair.
type ResultPage struct {
	IDs    []string
	Total  int
	Cursor PageCursor
}

// Clone copies the id slice.
func (p ResultPage) Clone() ResultPage {
	out := p
	if p.IDs != nil {
		out.IDs = append([]string{}, p.IDs...)
	}
	return out
}
