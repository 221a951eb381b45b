package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	ErrEmptyName    = errors.New("name is required")
	ErrInvalidEmail = errors.New("please enter a valid email")
)

var emailPattern = regexp.MustCompile(`^[\w-]+(\.[\w-]+)*@([\w-]+\.)+[a-zA-Z]{2,7}$`)

// Credentials identify the person logging in to the catalog service.
type Credentials struct {
	Name  string
	Email string
}

// NewCredentials trims and validates the login form.
func NewCredentials(name, email string) (Credentials, error) {
	c := Credentials{Name: strings.TrimSpace(name), Email: strings.TrimSpace(email)}
	if err := c.Validate(); err != nil {
		return Credentials{}, err
	}
	return c, nil
}

// Validate reports every failing field at once.
func (c Credentials) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Name) == "" {
		errs = append(errs, ErrEmptyName)
	}
	if email := strings.TrimSpace(c.Email); email == "" || !emailPattern.MatchString(email) {
		errs = append(errs, ErrInvalidEmail)
	}
	return errors.Join(errs...)
}

// SessionCookie is one cookie the catalog service set on the remote session.
type SessionCookie struct {
	Name  string
	Value string
}

// SessionCredential is the remote session as far as this service holds it: the cookie jar
// contents for the catalog host.
type SessionCredential struct {
	Cookies []SessionCookie
}

// Snapshot is a workspace frozen for storage so another process can resume it.
type Snapshot struct {
	SessionID  string
	Profile    Credentials
	Credential SessionCredential
	State      State
	ExpiresAt  time.Time
}

// Expired reports whether the snapshot outlived its session.
func (s Snapshot) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
