package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"rippedcity/internal/domain/client"
	"rippedcity/pkg/logger"
)

// Supabase talks to a Supabase backend: GoTrue for authentication and
// PostgREST for the clients row store.
type Supabase struct {
	baseURL string
	anonKey string
	http    *http.Client
}

// NewSupabase creates the adapter. Pass empty values to represent an
// unconfigured backend; every call then fails with ErrNotConfigured.
func NewSupabase(baseURL, anonKey string) *Supabase {
	return &Supabase{
		baseURL: baseURL,
		anonKey: anonKey,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// Configured reports whether both the service URL and access key are set.
func (s *Supabase) Configured() bool {
	return s.baseURL != "" && s.anonKey != ""
}

// tokenResponse is the GoTrue token grant response.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// authErrorBody covers the error shapes GoTrue returns across versions.
type authErrorBody struct {
	Message          string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (b authErrorBody) text() string {
	switch {
	case b.Message != "":
		return b.Message
	case b.ErrorDescription != "":
		return b.ErrorDescription
	case b.Error != "":
		return b.Error
	}
	return "authentication failed"
}

// SignInWithPassword performs the password grant.
// POST: Returns a Session on success; an *AuthError carrying the backend's
// message verbatim on rejection
func (s *Supabase) SignInWithPassword(ctx context.Context, email, password string) (Session, error) {
	if !s.Configured() {
		return Session{}, ErrNotConfigured
	}
	body := map[string]string{"email": email, "password": password}
	resp, err := s.post(ctx, "/auth/v1/token?grant_type=password", "", body)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, authErrorFrom(resp)
	}
	return sessionFromTokenResponse(resp.Body)
}

// RefreshSession exchanges a refresh token for a fresh session.
func (s *Supabase) RefreshSession(ctx context.Context, refreshToken string) (Session, error) {
	if !s.Configured() {
		return Session{}, ErrNotConfigured
	}
	body := map[string]string{"refresh_token": refreshToken}
	resp, err := s.post(ctx, "/auth/v1/token?grant_type=refresh_token", "", body)
	if err != nil {
		return Session{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Session{}, authErrorFrom(resp)
	}
	return sessionFromTokenResponse(resp.Body)
}

// SignOut revokes the session server-side. Local state is not touched here;
// callers rely on the session-change notification to propagate.
func (s *Supabase) SignOut(ctx context.Context, accessToken string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	resp, err := s.post(ctx, "/auth/v1/logout", accessToken, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return authErrorFrom(resp)
	}
	return nil
}

// RecoverPassword requests a password-reset email.
func (s *Supabase) RecoverPassword(ctx context.Context, email string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	resp, err := s.post(ctx, "/auth/v1/recover", "", map[string]string{"email": email})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return authErrorFrom(resp)
	}
	return nil
}

// ListClients fetches all client records ordered by creation timestamp
// descending.
func (s *Supabase) ListClients(ctx context.Context, sess Session) ([]client.Client, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	path := "/rest/v1/" + TableClients + "?select=*&order=created_at.desc"
	resp, err := s.do(ctx, http.MethodGet, path, sess.AccessToken, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restErrorFrom(resp)
	}
	var records []client.Client
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode clients: %w", err)
	}
	return records, nil
}

// FindClientByEmail fetches at most one record matching the given email.
// POST: Absence of a match returns (nil, nil)
func (s *Supabase) FindClientByEmail(ctx context.Context, sess Session, email string) (*client.Client, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	path := "/rest/v1/" + TableClients + "?select=*&email=eq." + url.QueryEscape(email) + "&limit=1"
	resp, err := s.do(ctx, http.MethodGet, path, sess.AccessToken, nil, "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, restErrorFrom(resp)
	}
	var records []client.Client
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode client: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// InsertClient creates a record and returns the backend-assigned row.
// PRE: c carries no ID and no creation timestamp
func (s *Supabase) InsertClient(ctx context.Context, sess Session, c client.Client) (client.Client, error) {
	if !s.Configured() {
		return client.Client{}, ErrNotConfigured
	}
	// PostgREST insert expects an array.
	resp, err := s.do(ctx, http.MethodPost, "/rest/v1/"+TableClients, sess.AccessToken,
		[]client.Client{c}, "return=representation")
	if err != nil {
		return client.Client{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return client.Client{}, restErrorFrom(resp)
	}
	return singleFrom(resp.Body)
}

// UpdateClient applies a partial record keyed by id.
// PRE: partial carries no ID and no creation timestamp
func (s *Supabase) UpdateClient(ctx context.Context, sess Session, id string, partial client.Client) (client.Client, error) {
	if !s.Configured() {
		return client.Client{}, ErrNotConfigured
	}
	path := "/rest/v1/" + TableClients + "?id=eq." + url.QueryEscape(id)
	resp, err := s.do(ctx, http.MethodPatch, path, sess.AccessToken, partial, "return=representation")
	if err != nil {
		return client.Client{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return client.Client{}, restErrorFrom(resp)
	}
	return singleFrom(resp.Body)
}

// post issues an auth-endpoint request.
func (s *Supabase) post(ctx context.Context, path, accessToken string, body any) (*http.Response, error) {
	return s.do(ctx, http.MethodPost, path, accessToken, body, "")
}

// do issues a request with the apikey and bearer headers set. An empty
// accessToken falls back to the anon key, which is how unauthenticated
// intake submissions reach the row store.
func (s *Supabase) do(ctx context.Context, method, path, accessToken string, body any, prefer string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, rdr)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.anonKey)
	bearer := accessToken
	if bearer == "" {
		bearer = s.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		logger.Get().Warn().Err(err).Str("path", path).Msg("remote_request_failed")
		return nil, fmt.Errorf("remote request: %w", err)
	}
	return resp, nil
}

func sessionFromTokenResponse(r io.Reader) (Session, error) {
	var tok tokenResponse
	if err := json.NewDecoder(r).Decode(&tok); err != nil {
		return Session{}, fmt.Errorf("decode token response: %w", err)
	}
	sess := Session{
		UserID:       tok.User.ID,
		Email:        tok.User.Email,
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
	}
	if tok.ExpiresIn > 0 {
		sess.ExpiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	// Some responses omit the user object; the access token claims carry
	// the same identity.
	if sess.UserID == "" || sess.Email == "" {
		if fromClaims, err := SessionFromAccessToken(tok.AccessToken, tok.RefreshToken); err == nil {
			if sess.UserID == "" {
				sess.UserID = fromClaims.UserID
			}
			if sess.Email == "" {
				sess.Email = fromClaims.Email
			}
			if sess.ExpiresAt.IsZero() {
				sess.ExpiresAt = fromClaims.ExpiresAt
			}
		}
	}
	return sess, nil
}

// SessionFromAccessToken recovers the session identity from the access
// token's JWT claims. The token is not verified locally; the backend is the
// verifier and rejects forged tokens on every call.
func SessionFromAccessToken(accessToken, refreshToken string) (Session, error) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(accessToken, claims); err != nil {
		return Session{}, fmt.Errorf("parse access token: %w", err)
	}
	sess := Session{AccessToken: accessToken, RefreshToken: refreshToken}
	if sub, err := claims.GetSubject(); err == nil {
		sess.UserID = sub
	}
	if email, ok := claims["email"].(string); ok {
		sess.Email = email
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		sess.ExpiresAt = exp.Time
	}
	return sess, nil
}

func authErrorFrom(resp *http.Response) error {
	var body authErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	return &AuthError{Status: resp.StatusCode, Message: body.text()}
}

// restErrorBody is the PostgREST error shape.
type restErrorBody struct {
	Message string `json:"message"`
	Details string `json:"details"`
	Code    string `json:"code"`
}

func restErrorFrom(resp *http.Response) error {
	var body restErrorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	_ = json.Unmarshal(raw, &body)
	if body.Message == "" {
		body.Message = fmt.Sprintf("remote store error (status %d)", resp.StatusCode)
	}
	return &AuthError{Status: resp.StatusCode, Message: body.Message}
}

func singleFrom(r io.Reader) (client.Client, error) {
	var records []client.Client
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return client.Client{}, fmt.Errorf("decode record: %w", err)
	}
	if len(records) == 0 {
		return client.Client{}, fmt.Errorf("remote store returned no record")
	}
	return records[0], nil
}
