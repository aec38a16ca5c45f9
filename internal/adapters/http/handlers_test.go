package web

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	emailPkg "rippedcity/internal/adapters/email"
	"rippedcity/internal/adapters/http/middleware"
	"rippedcity/internal/application/portal"
	"rippedcity/internal/config"
	"rippedcity/internal/domain/client"
	"rippedcity/internal/remote"
)

const testCoach = "rippedcityinc@mail.com"

// fakeService is an in-memory remote.Service for handler tests.
type fakeService struct {
	signInErr error
	insertErr error
	records   []client.Client
	nextID    int
}

func (f *fakeService) Configured() bool { return true }

func (f *fakeService) SignInWithPassword(ctx context.Context, email, password string) (remote.Session, error) {
	if f.signInErr != nil {
		return remote.Session{}, f.signInErr
	}
	return remote.Session{
		UserID: "u-1", Email: email,
		AccessToken: "at-1", RefreshToken: "rt-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeService) SignOut(ctx context.Context, accessToken string) error { return nil }

func (f *fakeService) RefreshSession(ctx context.Context, refreshToken string) (remote.Session, error) {
	return remote.Session{}, &remote.AuthError{Status: 400, Message: "Invalid Refresh Token"}
}

func (f *fakeService) RecoverPassword(ctx context.Context, email string) error { return nil }

func (f *fakeService) ListClients(ctx context.Context, s remote.Session) ([]client.Client, error) {
	return append([]client.Client{}, f.records...), nil
}

func (f *fakeService) FindClientByEmail(ctx context.Context, s remote.Session, email string) (*client.Client, error) {
	for _, r := range f.records {
		if r.Email == email {
			rec := r
			return &rec, nil
		}
	}
	return nil, nil
}

func (f *fakeService) InsertClient(ctx context.Context, s remote.Session, c client.Client) (client.Client, error) {
	if f.insertErr != nil {
		return client.Client{}, f.insertErr
	}
	f.nextID++
	c.ID = "row-" + strings.Repeat("x", f.nextID)
	c.CreatedAt = time.Now()
	f.records = append([]client.Client{c}, f.records...)
	return c, nil
}

func (f *fakeService) UpdateClient(ctx context.Context, s remote.Session, id string, partial client.Client) (client.Client, error) {
	for i, r := range f.records {
		if r.ID == id {
			partial.ID = r.ID
			partial.CreatedAt = r.CreatedAt
			f.records[i] = partial
			return partial, nil
		}
	}
	return client.Client{}, &remote.AuthError{Status: 404, Message: "row not found"}
}

func newTestDemo(t *testing.T) *remote.Demo {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "demo.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	d, err := remote.NewDemo(db, testCoach)
	if err != nil {
		t.Fatalf("NewDemo: %v", err)
	}
	return d
}

// setupWeb initializes the package globals the way NewMux does, pointed at
// the in-package templates directory.
func setupWeb(t *testing.T, service remote.Service, mutate func(*config.Config)) {
	t.Helper()
	cfg := &config.Config{
		Addr:        ":0",
		Env:         "test",
		CoachEmail:  testCoach,
		TemplateDir: "templates",
		EmailFrom:   "Ripped City Inc <noreply@rippedcityinc.com>",
	}
	if service != nil {
		cfg.SupabaseURL = "https://example.supabase.co"
		cfg.SupabaseAnonKey = "anon-key"
	}
	if mutate != nil {
		mutate(cfg)
	}
	deps = &Deps{Cfg: cfg, Service: service, Sender: emailPkg.NewNoopSender()}
	sessions = middleware.NewSessionStore()
	hub = portal.NewHub()
	visitors = newVisitorRegistry()
}

func doRequest(t *testing.T, handler http.HandlerFunc, method, target, token string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(middleware.ContextWithToken(req.Context(), token))
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func signIn(t *testing.T, token, email string) {
	t.Helper()
	rec := doRequest(t, handleLogin, "POST", "/login", token, url.Values{
		"email":    {email},
		"password": {"pw"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("sign-in status = %d, body: %s", rec.Code, rec.Body.String())
	}
}

func TestHomeUnconfiguredShowsConfigError(t *testing.T) {
	setupWeb(t, nil, nil)
	rec := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Backend Not Configured") {
		t.Error("expected the configuration error page")
	}
}

func TestHomeAnonymousShowsLanding(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	rec := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Client Login") {
		t.Error("landing page missing login section")
	}
	if !strings.Contains(body, "The Gut Health Blueprint") {
		t.Error("landing page missing lead magnet")
	}
	if !strings.Contains(body, "suffer in the gym") {
		t.Error("landing page missing rendered story markdown")
	}
}

func TestLoginCoachLandsOnDashboard(t *testing.T) {
	svc := &fakeService{records: []client.Client{
		{ID: "1", Name: "Jane", Email: "jane@x.com", CreatedAt: time.Now()},
	}}
	setupWeb(t, svc, nil)

	signIn(t, "tok-1", testCoach)

	rec := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Coach Dashboard") {
		t.Fatalf("expected dashboard, got: %.200s", body)
	}
	if !strings.Contains(body, "jane@x.com") {
		t.Error("dashboard missing the client list")
	}
}

func TestLoginClientLandsOnOwnPortal(t *testing.T) {
	svc := &fakeService{records: []client.Client{
		{ID: "1", Name: "Jane", Email: "jane@x.com", Goal: "Recomp", CreatedAt: time.Now()},
	}}
	setupWeb(t, svc, nil)

	signIn(t, "tok-1", "jane@x.com")

	rec := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "Client Portal") || !strings.Contains(body, "Welcome back, Jane") {
		t.Fatalf("expected client portal, got: %.200s", body)
	}
}

func TestLoginClientWithoutRecordSeesPortalLoading(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	signIn(t, "tok-1", "new@x.com")

	rec := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if !strings.Contains(rec.Body.String(), "Loading your portal") {
		t.Error("expected the portal-loading fallback")
	}
}

func TestLoginFailureShowsBackendMessageVerbatim(t *testing.T) {
	svc := &fakeService{signInErr: &remote.AuthError{Status: 400, Message: "Invalid login credentials"}}
	setupWeb(t, svc, nil)

	rec := doRequest(t, handleLogin, "POST", "/login", "tok-1", url.Values{
		"email": {"jane@x.com"}, "password": {"bad"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid login credentials") {
		t.Error("backend error message must render verbatim")
	}
	if hub.Get("tok-1") != nil {
		t.Error("failed login must not bind a controller")
	}
}

func TestLogoutReturnsToLanding(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	signIn(t, "tok-1", testCoach)

	rec := doRequest(t, handleLogout, "POST", "/logout", "tok-1", url.Values{})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if hub.Get("tok-1") != nil {
		t.Error("logout must release the controller")
	}

	rec = doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if !strings.Contains(rec.Body.String(), "Client Login") {
		t.Error("expected the landing page after logout")
	}
}

func TestForgotPasswordConfirms(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	rec := doRequest(t, handleForgotPassword, "POST", "/forgot", "tok-1", url.Values{
		"email": {"jane@x.com"},
	})
	if !strings.Contains(rec.Body.String(), "reset link is on its way") {
		t.Error("expected the reset confirmation")
	}
}

func TestLeadMagnetShowsGuideSentModal(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	rec := doRequest(t, handleLeadMagnet, "POST", "/lead-magnet", "tok-1", url.Values{
		"email": {"visitor@example.com"},
	})
	if !strings.Contains(rec.Body.String(), "Guide Sent!") {
		t.Error("expected the guide-sent confirmation")
	}
}

func TestLeadMagnetRejectsInvalidAddress(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)
	rec := doRequest(t, handleLeadMagnet, "POST", "/lead-magnet", "tok-1", url.Values{
		"email": {"not-an-email"},
	})
	body := rec.Body.String()
	if strings.Contains(body, "Guide Sent!") {
		t.Error("invalid address must not confirm")
	}
	if !strings.Contains(body, "valid email address") {
		t.Error("expected a validation message")
	}
}

func TestApplyWizardFullFlow(t *testing.T) {
	svc := &fakeService{}
	setupWeb(t, svc, nil)
	token := "tok-apply"

	// Step 1 without required fields is rejected.
	rec := doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"next"}})
	if !strings.Contains(rec.Body.String(), "complete the required fields") {
		t.Fatal("empty step 1 must not advance")
	}

	rec = doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "name": {"Jane Doe"}, "email": {"jane@x.com"},
	})
	if !strings.Contains(rec.Body.String(), "Step 2 of 5") {
		t.Fatalf("expected step 2, got: %.200s", rec.Body.String())
	}

	rec = doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "age": {"29"}, "weight": {"64kg"}, "height": {"170cm"},
	})
	if !strings.Contains(rec.Body.String(), "Step 3 of 5") {
		t.Fatal("expected step 3")
	}

	// Back is always allowed and lossless.
	rec = doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"back"}})
	if !strings.Contains(rec.Body.String(), `value="64kg"`) {
		t.Fatal("going back must preserve earlier answers")
	}
	doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"next"}})

	rec = doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "goal": {"Compete in figure"},
	})
	if !strings.Contains(rec.Body.String(), "Step 4 of 5") {
		t.Fatal("expected step 4")
	}

	doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "current_pharma": {"Test 250mg/wk"},
	})

	rec = doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"submit"}})
	if !strings.Contains(rec.Body.String(), "Application Received") {
		t.Fatalf("expected confirmation, got: %.200s", rec.Body.String())
	}

	if len(svc.records) != 1 {
		t.Fatalf("expected one stored prospect, got %d", len(svc.records))
	}
	stored := svc.records[0]
	if stored.Status != client.StatusProspect || stored.PaymentStatus != client.PaymentUnpaid {
		t.Errorf("prospect defaults wrong: %q/%q", stored.Status, stored.PaymentStatus)
	}
	if stored.Profile.Status != client.EnhancementEnhanced {
		t.Errorf("pharma text must classify as enhanced, got %q", stored.Profile.Status)
	}

	// Wizard resets for the next applicant.
	rec = doRequest(t, handleApply, "GET", "/apply", token, nil)
	if !strings.Contains(rec.Body.String(), "Step 1 of 5") {
		t.Error("wizard must reset after a successful submission")
	}
}

func TestApplySubmitFailureShowsGenericMessage(t *testing.T) {
	svc := &fakeService{insertErr: &remote.AuthError{Status: 403, Message: "row-level security violation"}}
	setupWeb(t, svc, nil)
	token := "tok-apply"

	doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "name": {"Jane"}, "email": {"jane@x.com"},
	})
	doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "age": {"29"}, "weight": {"64"}, "height": {"170"},
	})
	doRequest(t, handleApply, "POST", "/apply", token, url.Values{
		"action": {"next"}, "goal": {"Recomp"},
	})
	doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"next"}})

	rec := doRequest(t, handleApply, "POST", "/apply", token, url.Values{"action": {"submit"}})
	body := rec.Body.String()
	if !strings.Contains(body, "Submission failed. Please email us directly.") {
		t.Error("expected the generic failure message")
	}
	if strings.Contains(body, "row-level security") {
		t.Error("backend detail must not leak to the applicant")
	}
	// Draft preserved for retry.
	if !strings.Contains(body, `value="jane@x.com"`) && !strings.Contains(body, "Step 5 of 5") {
		t.Error("draft must survive a failed submission")
	}
}

func TestAddClientRequiresCoach(t *testing.T) {
	setupWeb(t, &fakeService{}, nil)

	rec := doRequest(t, handleAddClient, "POST", "/clients", "tok-anon", url.Values{
		"name": {"X"}, "email": {"x@x.com"},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("anonymous add status = %d, want 403", rec.Code)
	}

	signIn(t, "tok-client", "jane@x.com")
	rec = doRequest(t, handleAddClient, "POST", "/clients", "tok-client", url.Values{
		"name": {"X"}, "email": {"x@x.com"},
	})
	if rec.Code != http.StatusForbidden {
		t.Errorf("client-role add status = %d, want 403", rec.Code)
	}
}

func TestAddClientFailureShowsAlert(t *testing.T) {
	svc := &fakeService{}
	setupWeb(t, svc, nil)
	signIn(t, "tok-1", testCoach)

	svc.insertErr = &remote.AuthError{Status: 403, Message: "row-level security violation"}
	rec := doRequest(t, handleAddClient, "POST", "/clients", "tok-1", url.Values{
		"name": {"New Lead"}, "email": {"lead@x.com"},
	})
	if !strings.Contains(rec.Body.String(), "Error: row-level security violation") {
		t.Error("insert failure must surface as a visible alert")
	}
}

func TestAddClientSuccessRedirects(t *testing.T) {
	svc := &fakeService{}
	setupWeb(t, svc, nil)
	signIn(t, "tok-1", testCoach)

	rec := doRequest(t, handleAddClient, "POST", "/clients", "tok-1", url.Values{
		"name": {"New Lead"}, "email": {"lead@x.com"}, "goal": {"Cut"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	home := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if !strings.Contains(home.Body.String(), "lead@x.com") {
		t.Error("new client missing from the dashboard")
	}
}

func TestUpdateClientFailureIsSilent(t *testing.T) {
	svc := &fakeService{records: []client.Client{
		{ID: "1", Name: "Jane", Email: "jane@x.com", Status: client.StatusActive, PaymentStatus: client.PaymentPaid, CreatedAt: time.Now()},
	}}
	setupWeb(t, svc, nil)
	signIn(t, "tok-1", testCoach)

	// The row vanishes remotely after the list was fetched; the update
	// fails but the user still gets a plain redirect, never an error page.
	svc.records = nil
	rec := doRequest(t, handleUpdateClient, "POST", "/clients/update", "tok-1", url.Values{
		"id": {"1"}, "status": {client.StatusOnHold},
	})
	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want redirect", rec.Code)
	}
}

func TestClientCannotUpdateOtherRecords(t *testing.T) {
	svc := &fakeService{records: []client.Client{
		{ID: "1", Name: "Jane", Email: "jane@x.com", CreatedAt: time.Now()},
		{ID: "2", Name: "Other", Email: "other@x.com", CreatedAt: time.Now()},
	}}
	setupWeb(t, svc, nil)
	signIn(t, "tok-1", "jane@x.com")

	rec := doRequest(t, handleUpdateClient, "POST", "/clients/update", "tok-1", url.Values{
		"id": {"2"}, "status": {client.StatusCompleted},
	})
	if rec.Code != http.StatusForbidden && rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want forbidden", rec.Code)
	}
}

func TestCheckInAppendsToOwnRecord(t *testing.T) {
	svc := &fakeService{records: []client.Client{
		{ID: "1", Name: "Jane", Email: "jane@x.com", Status: client.StatusActive, PaymentStatus: client.PaymentPaid, CreatedAt: time.Now()},
	}}
	setupWeb(t, svc, nil)
	signIn(t, "tok-1", "jane@x.com")

	rec := doRequest(t, handleCheckIn, "POST", "/portal/checkin", "tok-1", url.Values{
		"weight": {"63kg"}, "notes": {"Strong week"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(svc.records[0].CheckIns) != 1 || svc.records[0].CheckIns[0].Weight != "63kg" {
		t.Errorf("check-in not stored: %+v", svc.records[0].CheckIns)
	}

	home := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if !strings.Contains(home.Body.String(), "Strong week") {
		t.Error("check-in missing from the portal history")
	}
}

func TestLogoTapGestureEntersDemoAfterFiveTaps(t *testing.T) {
	setupWeb(t, nil, func(cfg *config.Config) { cfg.DemoMode = true })
	demo := newTestDemo(t)
	deps.Demo = demo
	token := "tok-demo"

	for i := 0; i < 4; i++ {
		rec := doRequest(t, handleLogoTap, "POST", "/logo-tap", token, url.Values{})
		if rec.Code != http.StatusSeeOther {
			t.Fatalf("tap %d status = %d", i+1, rec.Code)
		}
		if hub.Get(token) != nil {
			t.Fatalf("tap %d must not enter the demo yet", i+1)
		}
	}
	doRequest(t, handleLogoTap, "POST", "/logo-tap", token, url.Values{})
	c := hub.Get(token)
	if c == nil {
		t.Fatal("fifth tap must bind the demo controller")
	}
	if c.Role() != portal.RoleCoach {
		t.Errorf("demo entry role = %q, want coach", c.Role())
	}
}

func TestDemoBypassEmailEntersDemo(t *testing.T) {
	setupWeb(t, nil, func(cfg *config.Config) { cfg.DemoMode = true })
	deps.Demo = newTestDemo(t)

	rec := doRequest(t, handleLogin, "POST", "/login", "tok-1", url.Values{
		"email": {"TBone0189@gmail.com"}, "password": {"anything"},
	})
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	c := hub.Get("tok-1")
	if c == nil || c.Role() != portal.RoleCoach {
		t.Fatal("bypass email must land on the demo dashboard")
	}

	home := doRequest(t, handleHome, "GET", "/", "tok-1", nil)
	if !strings.Contains(home.Body.String(), "Coach Dashboard") {
		t.Error("expected the demo dashboard")
	}
}
