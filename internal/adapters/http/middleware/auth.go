package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"
)

// contextKey is an unexported type for context keys in this package.
type contextKey string

const visitorContextKey contextKey = "visitor"

// Session identifies one browser session. Authentication state lives
// elsewhere; the token is the key into the per-visitor registries.
type Session struct {
	Token     string
	CreatedAt time.Time
}

// SessionStore is an in-memory browser-session store.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]Session),
	}
}

// Create stores a new session and returns the token.
// POST: Session is stored, token is returned
func (ss *SessionStore) Create() (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.sessions[token] = Session{
		Token:     token,
		CreatedAt: time.Now(),
	}
	return token, nil
}

// Get retrieves a session by token.
// POST: Returns session if valid and not expired
func (ss *SessionStore) Get(token string) (Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	session, ok := ss.sessions[token]
	if !ok {
		return Session{}, false
	}
	// Sessions expire after 24 hours
	if time.Since(session.CreatedAt) > 24*time.Hour {
		delete(ss.sessions, token)
		return Session{}, false
	}
	return session, true
}

// Delete removes a session by token.
func (ss *SessionStore) Delete(token string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	delete(ss.sessions, token)
}

const sessionCookieName = "rippedcity_session"

// SecureCookies controls the Secure flag on issued cookies. Set true in
// production behind TLS.
var SecureCookies = false

// Visitor returns middleware that guarantees every request carries a
// browser-session token. Unknown or expired cookies are replaced.
func Visitor(sessions *SessionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(sessionCookieName)
			if err == nil && cookie.Value != "" {
				if session, ok := sessions.Get(cookie.Value); ok {
					next.ServeHTTP(w, r.WithContext(ContextWithToken(r.Context(), session.Token)))
					return
				}
			}
			token, err := sessions.Create()
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}
			SetSessionCookie(w, token)
			next.ServeHTTP(w, r.WithContext(ContextWithToken(r.Context(), token)))
		})
	}
}

// TokenFromContext extracts the browser-session token from the request context.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(visitorContextKey).(string)
	return token, ok
}

// ContextWithToken returns a context carrying the given token.
// Intended for use in tests.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, visitorContextKey, token)
}

// SetSessionCookie sets the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   86400, // 24 hours
	})
}

// ClearSessionCookie removes the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   SecureCookies,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func generateToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
