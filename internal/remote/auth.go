package remote

import (
	"context"
	"sync"
	"time"

	"rippedcity/pkg/logger"
)

// Auth tracks the authenticated session for one browser connection and
// fans out change notifications (sign-in, sign-out, token refresh) to
// subscribers. It is the server-side analogue of the backend SDK's auth
// state object.
type Auth struct {
	svc Service
	now func() time.Time

	mu      sync.Mutex
	session *Session
	nextID  int
	subs    map[int]func(*Session)
}

// NewAuth creates an auth state bound to the given service.
func NewAuth(svc Service) *Auth {
	return &Auth{svc: svc, now: time.Now, subs: make(map[int]func(*Session))}
}

// Restore seeds the state with a previously persisted session without
// firing notifications. Used when a returning browser presents its cookie.
func (a *Auth) Restore(s Session) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = &s
}

// CurrentSession returns the active session, refreshing it first when the
// access token has expired. A successful refresh fires the change
// notification. Returns nil when signed out.
func (a *Auth) CurrentSession(ctx context.Context) (*Session, error) {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()

	if sess == nil {
		return nil, nil
	}
	if !sess.Expired(a.now()) {
		return sess, nil
	}

	fresh, err := a.svc.RefreshSession(ctx, sess.RefreshToken)
	if err != nil {
		// A dead refresh token means the session is gone.
		logger.Get().Info().Err(err).Msg("session_refresh_failed")
		a.setSession(nil)
		return nil, nil
	}
	a.setSession(&fresh)
	return &fresh, nil
}

// OnSessionChange registers a persistent subscription covering sign-in,
// sign-out and token refresh. Release it with Unsubscribe when the owner is
// torn down.
func (a *Auth) OnSessionChange(fn func(*Session)) Subscription {
	a.mu.Lock()
	defer a.mu.Unlock()
	id := a.nextID
	a.nextID++
	a.subs[id] = fn
	return &subscription{auth: a, id: id}
}

// SignInWithPassword delegates to the service and, on success, stores the
// session and notifies subscribers.
func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	sess, err := a.svc.SignInWithPassword(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	a.setSession(&sess)
	return sess, nil
}

// SignOut requests sign-out from the service. Local state is cleared via
// the resulting notification, not directly by callers.
func (a *Auth) SignOut(ctx context.Context) error {
	a.mu.Lock()
	sess := a.session
	a.mu.Unlock()

	token := ""
	if sess != nil {
		token = sess.AccessToken
	}
	if err := a.svc.SignOut(ctx, token); err != nil {
		logger.Get().Warn().Err(err).Msg("remote_signout_failed")
	}
	// The backend treats the session as revoked even when the call errors;
	// propagate the signed-out state regardless.
	a.setSession(nil)
	return nil
}

// setSession stores the latest session (last-write-wins) and notifies
// subscribers outside the lock.
func (a *Auth) setSession(s *Session) {
	a.mu.Lock()
	a.session = s
	fns := make([]func(*Session), 0, len(a.subs))
	for _, fn := range a.subs {
		fns = append(fns, fn)
	}
	a.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

type subscription struct {
	auth *Auth
	id   int
	once sync.Once
}

// Unsubscribe releases the registration. Safe to call more than once.
func (s *subscription) Unsubscribe() {
	s.once.Do(func() {
		s.auth.mu.Lock()
		delete(s.auth.subs, s.id)
		s.auth.mu.Unlock()
	})
}
