// Package remote is the adapter for the hosted backend this application
// delegates to: authentication (sessions, sign-in, sign-out, password
// recovery) and the row store holding client records. All persistence and
// business-rule enforcement live on the other side of this boundary.
package remote

import (
	"context"
	"errors"
	"time"

	"rippedcity/internal/domain/client"
)

// TableClients is the row-store table holding client records.
const TableClients = "clients"

// Session represents an authenticated identity.
type Session struct {
	UserID       string
	Email        string
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Expired reports whether the access token is past (or within a minute of)
// its expiry.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt.Add(-time.Minute))
}

// Subscription is a handle on a session-change registration.
type Subscription interface {
	Unsubscribe()
}

// Package errors
var (
	ErrNotConfigured = errors.New("backend services not configured")
)

// AuthError carries the backend's authentication error message verbatim,
// for inline display on the sign-in form.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// Service is the Remote Data Service contract consumed by this application.
type Service interface {
	// Configured reports whether the backend is reachable by construction
	// (service URL and access key both present).
	Configured() bool

	SignInWithPassword(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (Session, error)
	RecoverPassword(ctx context.Context, email string) error

	// ListClients returns all client records ordered by creation timestamp
	// descending.
	ListClients(ctx context.Context, s Session) ([]client.Client, error)
	// FindClientByEmail returns at most one record; absence yields
	// (nil, nil), not an error.
	FindClientByEmail(ctx context.Context, s Session, email string) (*client.Client, error)
	// InsertClient creates a record from a payload lacking id and creation
	// timestamp and returns the backend-assigned full record.
	InsertClient(ctx context.Context, s Session, c client.Client) (client.Client, error)
	// UpdateClient applies a partial record keyed by id and returns the
	// resulting full record.
	UpdateClient(ctx context.Context, s Session, id string, partial client.Client) (client.Client, error)
}
