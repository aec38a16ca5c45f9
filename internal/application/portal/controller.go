// Package portal holds the session-and-record controller: the single
// source of truth for who is logged in and what they can see. It is
// independent of any rendering mechanism so the routing logic can be
// tested headlessly.
package portal

import (
	"context"
	"sync"

	"rippedcity/internal/domain/client"
	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// Role classifies an authenticated session.
type Role string

// Roles. There is no "unauthenticated" role: a missing session routes to
// the landing page before role matters.
const (
	RoleNone   Role = ""
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// View identifies which of the top-level views to render.
type View int

// Views, in selection-priority order.
const (
	ViewConfigError View = iota
	ViewLoading
	ViewLanding
	ViewDashboard
	ViewClientPortal
	ViewPortalLoading
)

// String returns the view name for logging.
func (v View) String() string {
	switch v {
	case ViewConfigError:
		return "config_error"
	case ViewLoading:
		return "loading"
	case ViewLanding:
		return "landing"
	case ViewDashboard:
		return "dashboard"
	case ViewClientPortal:
		return "client_portal"
	case ViewPortalLoading:
		return "portal_loading"
	}
	return "unknown"
}

// AuthGateway is the slice of the remote auth state the controller needs.
type AuthGateway interface {
	CurrentSession(ctx context.Context) (*remote.Session, error)
	OnSessionChange(fn func(*remote.Session)) remote.Subscription
	SignOut(ctx context.Context) error
}

// ClientDirectory is the slice of the remote row store the controller needs.
type ClientDirectory interface {
	ListClients(ctx context.Context, s remote.Session) ([]client.Client, error)
	FindClientByEmail(ctx context.Context, s remote.Session, email string) (*client.Client, error)
	InsertClient(ctx context.Context, s remote.Session, c client.Client) (client.Client, error)
	UpdateClient(ctx context.Context, s remote.Session, id string, partial client.Client) (client.Client, error)
}

// Deps holds dependencies for a Controller.
type Deps struct {
	Auth       AuthGateway
	Directory  ClientDirectory
	CoachEmail string
	Configured bool
}

// Controller owns the session state, the derived role, and the in-memory
// client list for one browser session. All mutation flows through its
// methods; the session field itself changes only via session-change
// notifications and the initial fetch, latest received wins.
type Controller struct {
	deps Deps

	mu       sync.Mutex
	session  *remote.Session
	role     Role
	clients  []client.Client
	resolved bool // initial session fetch has completed
	sub      remote.Subscription

	ready chan struct{} // closed when the initial fetch resolves
}

// New creates a controller. Call Start to begin the initial session fetch
// and register the session-change subscription.
func New(deps Deps) *Controller {
	return &Controller{deps: deps, ready: make(chan struct{})}
}

// Start registers the persistent session-change subscription and kicks off
// the initial session fetch. Until the fetch resolves the controller
// reports the loading view.
// POST: Subscription is held until Close
func (c *Controller) Start(ctx context.Context) {
	c.mu.Lock()
	c.sub = c.deps.Auth.OnSessionChange(func(s *remote.Session) {
		// Notifications carry no request context.
		c.applySession(context.Background(), s)
	})
	c.mu.Unlock()

	go func() {
		s, err := c.deps.Auth.CurrentSession(ctx)
		if err != nil {
			logger.Get().Error().Err(err).Msg("initial_session_fetch_failed")
			s = nil
		}
		c.applySession(ctx, s)
		c.mu.Lock()
		c.resolved = true
		c.mu.Unlock()
		close(c.ready)
	}()
}

// Ready is closed once the initial session fetch has resolved. Session
// change notifications may still arrive before or after; the latest
// received session wins either way.
func (c *Controller) Ready() <-chan struct{} {
	return c.ready
}

// Close releases the session-change subscription. In-flight requests are
// not aborted; their results are ignored once the subscription is gone.
func (c *Controller) Close() {
	c.mu.Lock()
	sub := c.sub
	c.sub = nil
	c.mu.Unlock()
	if sub != nil {
		sub.Unsubscribe()
	}
}

// applySession stores the latest-received session, re-derives the role and
// re-evaluates the record fetch policy.
func (c *Controller) applySession(ctx context.Context, s *remote.Session) {
	c.mu.Lock()
	c.session = s
	c.role = c.deriveRole(s)
	role := c.role
	c.mu.Unlock()

	c.refresh(ctx, role, s)
}

// deriveRole is an exact, case-sensitive match against the configured
// coach identity; any other authenticated email is a client.
func (c *Controller) deriveRole(s *remote.Session) Role {
	if s == nil {
		return RoleNone
	}
	if s.Email == c.deps.CoachEmail {
		return RoleCoach
	}
	return RoleClient
}

// refresh applies the record fetch policy for the given role.
//
// Data-fetch errors are logged, never surfaced: the view degrades to an
// empty list or the portal-loading fallback instead of an error page.
func (c *Controller) refresh(ctx context.Context, role Role, s *remote.Session) {
	switch role {
	case RoleCoach:
		records, err := c.deps.Directory.ListClients(ctx, *s)
		if err != nil {
			logger.Get().Error().Err(err).Msg("client_list_fetch_failed")
			records = nil
		}
		c.mu.Lock()
		c.clients = records
		c.mu.Unlock()
	case RoleClient:
		record, err := c.deps.Directory.FindClientByEmail(ctx, *s, s.Email)
		if err != nil {
			logger.Get().Error().Err(err).Msg("client_record_fetch_failed")
			record = nil
		}
		c.mu.Lock()
		if record != nil {
			c.clients = []client.Client{*record}
		} else {
			c.clients = nil
		}
		c.mu.Unlock()
	default:
		c.mu.Lock()
		c.clients = nil
		c.mu.Unlock()
	}
}

// AddClient inserts a new record (no id, no creation timestamp) and, on
// success, prepends the backend-assigned full record to the in-memory
// list.
// POST: On failure the list is unchanged and the error is returned for a
// user-visible alert
func (c *Controller) AddClient(ctx context.Context, draft client.Client) (client.Client, error) {
	sess := c.freshSession(ctx)
	created, err := c.deps.Directory.InsertClient(ctx, sess, draft)
	if err != nil {
		logger.Get().Error().Err(err).Str("email", draft.Email).Msg("add_client_failed")
		return client.Client{}, err
	}
	c.mu.Lock()
	c.clients = append([]client.Client{created}, c.clients...)
	c.mu.Unlock()
	return created, nil
}

// UpdateClient strips the immutable fields from the given full record,
// sends the remainder as a partial update keyed by id, and replaces the
// matching record in place on success.
// POST: On failure the list is unchanged; the error is returned but
// historically update failures are not surfaced to the user
func (c *Controller) UpdateClient(ctx context.Context, full client.Client) error {
	if full.ID == "" {
		return client.ErrMissingID
	}
	sess := c.freshSession(ctx)
	updated, err := c.deps.Directory.UpdateClient(ctx, sess, full.ID, full.Mutable())
	if err != nil {
		logger.Get().Error().Err(err).Str("id", full.ID).Msg("update_client_failed")
		return err
	}
	c.mu.Lock()
	for i := range c.clients {
		if c.clients[i].ID == updated.ID {
			c.clients[i] = updated
			break
		}
	}
	c.mu.Unlock()
	return nil
}

// Logout requests sign-out from the remote service. Local session state is
// not cleared here; the session-change notification propagates it.
func (c *Controller) Logout(ctx context.Context) error {
	return c.deps.Auth.SignOut(ctx)
}

// View selects the top-level view in strict priority order, first match
// wins.
func (c *Controller) View() View {
	if !c.deps.Configured {
		return ViewConfigError
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case !c.resolved:
		return ViewLoading
	case c.session == nil:
		return ViewLanding
	case c.role == RoleCoach:
		return ViewDashboard
	case c.loggedInClientLocked() != nil:
		return ViewClientPortal
	default:
		return ViewPortalLoading
	}
}

// LoggedInClient returns the record matching the authenticated client's
// email, or nil when no such record has been fetched yet.
func (c *Controller) LoggedInClient() *client.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loggedInClientLocked()
}

func (c *Controller) loggedInClientLocked() *client.Client {
	if c.session == nil || c.role != RoleClient {
		return nil
	}
	for i := range c.clients {
		if c.clients[i].Email == c.session.Email {
			rec := c.clients[i]
			return &rec
		}
	}
	return nil
}

// Clients returns a copy of the in-memory record list.
func (c *Controller) Clients() []client.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]client.Client, len(c.clients))
	copy(out, c.clients)
	return out
}

// Session returns the current session, or nil when signed out.
func (c *Controller) Session() *remote.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	s := *c.session
	return &s
}

// Role returns the derived role.
func (c *Controller) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

// sessionValue returns the current session by value, or the zero session
// (anonymous) when signed out.
func (c *Controller) sessionValue() remote.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return remote.Session{}
	}
	return *c.session
}

// freshSession consults the auth gateway before a remote call so an
// expired access token is refreshed first. A refresh fires the usual
// session-change notification, which keeps the local copy current.
func (c *Controller) freshSession(ctx context.Context) remote.Session {
	s, err := c.deps.Auth.CurrentSession(ctx)
	if err != nil {
		logger.Get().Warn().Err(err).Msg("session_recheck_failed")
		return c.sessionValue()
	}
	if s == nil {
		return remote.Session{}
	}
	return *s
}
