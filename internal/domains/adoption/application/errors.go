package application

import (
	"errors"
	"fmt"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/ports"
)

var (
	// ErrInvalidInput signals the request violated a domain invariant.
	ErrInvalidInput = errors.New("invalid search input")
	// ErrEmptySelection is returned by a match request without any selected dog.
	ErrEmptySelection = errors.New("select at least one dog to find a match")
	// ErrSessionExpired means the catalog session is gone and the user must log in again.
	ErrSessionExpired = errors.New("session expired")
	// ErrSuperseded marks a response discarded because a newer request was issued after it.
	ErrSuperseded = errors.New("superseded by a newer request")
	// ErrIncompleteHydration means the catalog did not return a record for every requested id.
	ErrIncompleteHydration = errors.New("catalog returned incomplete dog records")
	// ErrLoginRejected means the catalog service refused the login form.
	ErrLoginRejected = errors.New("login rejected by the catalog service")
	// ErrWorkspaceNotFound is returned for unknown session ids.
	ErrWorkspaceNotFound = errors.New("workspace not found")
)

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrEmptyName) ||
		errors.Is(err, domain.ErrInvalidEmail) ||
		errors.Is(err, domain.ErrInvalidSort) ||
		errors.Is(err, domain.ErrNegativeAge) ||
		errors.Is(err, domain.ErrAgeRange) ||
		errors.Is(err, domain.ErrInvalidPageSize) ||
		errors.Is(err, domain.ErrInvalidDirection) ||
		errors.Is(err, ErrEmptySelection) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if errors.Is(err, ports.ErrUnauthorized) {
		return fmt.Errorf("%w: %w", ErrSessionExpired, err)
	}
	return err
}

// noticeFor renders the inline message shown next to the results after a failed intent.
func noticeFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptySelection):
		return ErrEmptySelection.Error()
	case errors.Is(err, ports.ErrUnavailable):
		return "The dog catalog is temporarily unavailable. Please try again shortly."
	case errors.Is(err, ErrSessionExpired):
		return "Your session has expired. Please log in again."
	default:
		return "Something went wrong talking to the dog catalog. Please try again."
	}
}
