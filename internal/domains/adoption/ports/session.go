package ports

import (
	"context"

	"github.com/Apurer/go-gin-dog-adoption/internal/domains/adoption/domain"
)

// SessionGateway establishes and tears down the cookie-based catalog session.
type SessionGateway interface {
	Login(ctx context.Context, credentials domain.Credentials) error
	Logout(ctx context.Context) error
}

// RemoteSession is one credentialed connection to the catalog service. All gateway calls made
// through it share the same cookie jar.
type RemoteSession interface {
	SessionGateway
	Catalog() CatalogGateway
	// Credential exports the cookies currently held for the catalog host.
	Credential() domain.SessionCredential
}

// RemoteSessionDialer opens a remote session, seeding its cookie jar with credential.
type RemoteSessionDialer func(credential domain.SessionCredential) (RemoteSession, error)
