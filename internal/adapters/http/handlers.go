package web

import (
	"bytes"
	"context"
	"html/template"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"rippedcity/internal/adapters/http/middleware"
	"rippedcity/internal/application/orchestrators"
	"rippedcity/internal/application/portal"
	"rippedcity/internal/domain/client"
	"rippedcity/internal/domain/content"
	"rippedcity/internal/domain/intake"
	"rippedcity/internal/remote"
	"rippedcity/pkg/logger"
)

// timeNow is a variable for testability.
var timeNow = time.Now

// mdRenderer is a goldmark instance configured for safe HTML output.
// Raw HTML in markdown input is escaped (WithUnsafe is NOT set), preventing XSS.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// controllerReadyTimeout bounds how long a request waits for the initial
// session fetch before falling back to the loading view.
const controllerReadyTimeout = 5 * time.Second

func registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", handleHome)
	mux.HandleFunc("/login", handleLogin)
	mux.HandleFunc("/logout", handleLogout)
	mux.HandleFunc("/forgot", handleForgotPassword)
	mux.HandleFunc("/lead-magnet", handleLeadMagnet)
	mux.HandleFunc("/logo-tap", handleLogoTap)
	mux.HandleFunc("/apply", handleApply)
	mux.HandleFunc("/clients", handleAddClient)
	mux.HandleFunc("/clients/update", handleUpdateClient)
	mux.HandleFunc("/portal/checkin", handleCheckIn)
}

func renderTemplate(w http.ResponseWriter, r *http.Request, templateName string, data any) {
	funcMap := template.FuncMap{
		"csrfToken": func() string { return csrf.Token(r) },
		"renderMarkdown": func(md string) template.HTML {
			var buf bytes.Buffer
			if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
				return template.HTML(template.HTMLEscapeString(md))
			}
			return template.HTML(buf.String())
		},
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
	}

	layoutPath := filepath.Join(deps.Cfg.TemplateDir, "layout.html")
	pagePath := filepath.Join(deps.Cfg.TemplateDir, templateName)
	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFiles(layoutPath, pagePath)
	if err != nil {
		http.Error(w, "Template error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tpl.Execute(w, data); err != nil {
		http.Error(w, "Render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
}

// landingData is the template payload for the landing page and its
// post-action states (login error, reset sent, guide sent).
type landingData struct {
	Content      content.SiteContent
	Methodology  []content.MethodologyStep
	Services     []content.ServiceBullet
	Story        string
	Testimonials []content.Testimonial
	LeadTitle    string

	LoginError string
	LeadError  string
	ResetSent  bool
	GuideSent  bool
}

func newLandingData() landingData {
	return landingData{
		Content:      content.Default(),
		Methodology:  content.Methodology(),
		Services:     content.Services(),
		Story:        content.Story,
		Testimonials: content.Testimonials(),
		LeadTitle:    content.LeadMagnetTitle,
	}
}

// controllerFor returns the portal controller bound to this browser
// session, or nil for anonymous visitors.
func controllerFor(r *http.Request) *portal.Controller {
	token, ok := middleware.TokenFromContext(r.Context())
	if !ok {
		return nil
	}
	return hub.Get(token)
}

// handleHome renders the top-level view for the browser session.
func handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	c := controllerFor(r)
	if c == nil {
		// Anonymous visitor. Without a backend there is nothing to sign
		// into, unless the demo store can stand in.
		if !configured() && !demoAvailable() {
			renderTemplate(w, r, "config_error.html", nil)
			return
		}
		renderTemplate(w, r, "landing.html", newLandingData())
		return
	}

	renderView(w, r, c)
}

func renderView(w http.ResponseWriter, r *http.Request, c *portal.Controller) {
	switch c.View() {
	case portal.ViewConfigError:
		renderTemplate(w, r, "config_error.html", nil)
	case portal.ViewLoading:
		renderTemplate(w, r, "loading.html", nil)
	case portal.ViewLanding:
		renderTemplate(w, r, "landing.html", newLandingData())
	case portal.ViewDashboard:
		renderTemplate(w, r, "dashboard.html", dashboardData{
			Clients: c.Clients(),
			Email:   sessionEmail(c),
		})
	case portal.ViewClientPortal:
		renderTemplate(w, r, "portal.html", portalData{Client: *c.LoggedInClient()})
	default:
		renderTemplate(w, r, "portal_loading.html", nil)
	}
}

type dashboardData struct {
	Clients []client.Client
	Email   string
	Alert   string
}

type portalData struct {
	Client client.Client
	Alert  string
}

func sessionEmail(c *portal.Controller) string {
	if s := c.Session(); s != nil {
		return s.Email
	}
	return ""
}

// handleLogin signs a visitor in and binds a controller to their browser
// session.
func handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	token, _ := middleware.TokenFromContext(r.Context())

	var auth *remote.Auth
	if configured() {
		auth = remote.NewAuth(deps.Service)
	}

	res, err := orchestrators.ExecuteLogin(r.Context(), orchestrators.LoginInput{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}, orchestrators.LoginDeps{
		Auth:       auth,
		Configured: configured(),
		DemoMode:   deps.Cfg.DemoMode,
	})
	if err != nil {
		data := newLandingData()
		data.LoginError = err.Error()
		renderTemplate(w, r, "landing.html", data)
		return
	}

	if res.Demo {
		enterDemo(w, r, token)
		return
	}

	attachController(token, auth, deps.Service)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// enterDemo binds a controller backed by the local demo store. The demo
// session impersonates the coach identity.
func enterDemo(w http.ResponseWriter, r *http.Request, token string) {
	if !demoAvailable() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	auth := remote.NewAuth(deps.Demo)
	auth.Restore(deps.Demo.Session())
	attachController(token, auth, deps.Demo)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// attachController creates, starts and registers a controller for the
// browser session, waiting briefly for the initial fetch so the redirect
// lands on a resolved view.
func attachController(token string, auth *remote.Auth, directory portal.ClientDirectory) {
	c := portal.New(portal.Deps{
		Auth:       auth,
		Directory:  directory,
		CoachEmail: deps.Cfg.CoachEmail,
		Configured: true,
	})
	c.Start(context.Background())
	hub.Put(token, c)

	select {
	case <-c.Ready():
	case <-time.After(controllerReadyTimeout):
		logger.Get().Warn().Msg("controller_ready_timeout")
	}
}

// handleLogout requests remote sign-out and releases the controller.
func handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	token, _ := middleware.TokenFromContext(r.Context())
	if c := hub.Get(token); c != nil {
		if err := c.Logout(r.Context()); err != nil {
			logger.Get().Error().Err(err).Msg("logout_failed")
		}
		hub.Remove(token)
	}
	visitors.drop(token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleForgotPassword asks the backend to send a reset link.
func handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	data := newLandingData()
	err := orchestrators.ExecuteRecoverPassword(r.Context(), orchestrators.RecoverPasswordInput{
		Email: r.FormValue("email"),
	}, orchestrators.RecoverPasswordDeps{
		Service:    deps.Service,
		Configured: configured(),
	})
	if err != nil {
		data.LoginError = err.Error()
	} else {
		data.ResetSent = true
	}
	renderTemplate(w, r, "landing.html", data)
}

// handleLeadMagnet emails the free guide. The confirmation renders whether
// or not delivery succeeded; only an invalid address is an error.
func handleLeadMagnet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	data := newLandingData()
	_, err := orchestrators.ExecuteSendGuide(r.Context(), orchestrators.SendGuideInput{
		Email: r.FormValue("email"),
	}, orchestrators.SendGuideDeps{
		Sender: deps.Sender,
		From:   deps.Cfg.EmailFrom,
	})
	if err != nil {
		data.LeadError = "Please enter a valid email address."
		renderTemplate(w, r, "landing.html", data)
		return
	}
	data.GuideSent = true
	renderTemplate(w, r, "landing.html", data)
}

// handleLogoTap advances the hidden logo gesture. Five rapid taps enter
// the demo dashboard; the counter state lives server-side per visitor.
func handleLogoTap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	token, _ := middleware.TokenFromContext(r.Context())
	fired := visitors.get(token).gesture.Tap()
	if fired && demoAvailable() && hub.Get(token) == nil {
		enterDemo(w, r, token)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// applyData is the template payload for the intake wizard.
type applyData struct {
	Step      intake.Step
	LastStep  intake.Step
	Title     string
	Draft     intake.Draft
	Error     string
	Submitted bool
}

func newApplyData(wiz *intake.Wizard) applyData {
	return applyData{
		Step:     wiz.Step(),
		LastStep: intake.StepLast,
		Title:    intake.StepTitle(wiz.Step()),
		Draft:    wiz.Draft(),
	}
}

// draftFromForm lifts the submitted form fields into a draft fragment.
// Empty fields are ignored by Merge, so partial step submissions never
// clobber earlier answers.
func draftFromForm(r *http.Request) intake.Draft {
	return intake.Draft{
		Name:      r.FormValue("name"),
		Email:     r.FormValue("email"),
		Phone:     r.FormValue("phone"),
		Instagram: r.FormValue("instagram"),

		Age:       r.FormValue("age"),
		BloodType: r.FormValue("blood_type"),
		Weight:    r.FormValue("weight"),
		Height:    r.FormValue("height"),

		Experience: r.FormValue("experience"),
		Goal:       r.FormValue("goal"),
		Struggle:   r.FormValue("struggle"),

		CurrentSupplements: r.FormValue("current_supplements"),
		CurrentPharma:      r.FormValue("current_pharma"),

		HealthConditions: r.FormValue("health_conditions"),
		Injuries:         r.FormValue("injuries"),
		Commitment:       r.FormValue("commitment"),
	}
}

// handleApply renders and advances the five-step intake wizard.
func handleApply(w http.ResponseWriter, r *http.Request) {
	token, _ := middleware.TokenFromContext(r.Context())
	wiz := visitors.get(token).wizard

	if r.Method == http.MethodGet {
		renderTemplate(w, r, "apply.html", newApplyData(wiz))
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	wiz.Merge(draftFromForm(r))

	switch r.FormValue("action") {
	case "back":
		if err := wiz.Back(); err != nil && err != intake.ErrAlreadyAtStart {
			logger.Get().Error().Err(err).Msg("wizard_back_failed")
		}
		renderTemplate(w, r, "apply.html", newApplyData(wiz))

	case "submit":
		handleApplySubmit(w, r, wiz)

	default: // next
		data := newApplyData(wiz)
		if err := wiz.Next(); err != nil {
			data.Error = "Please complete the required fields before continuing."
			renderTemplate(w, r, "apply.html", data)
			return
		}
		renderTemplate(w, r, "apply.html", newApplyData(wiz))
	}
}

func handleApplySubmit(w http.ResponseWriter, r *http.Request, wiz *intake.Wizard) {
	directory := orchestrators.DirectoryForIntake(deps.Service)
	storeReady := configured()
	if !storeReady && demoAvailable() {
		directory = deps.Demo
		storeReady = true
	}

	_, err := orchestrators.ExecuteSubmitIntake(r.Context(), orchestrators.SubmitIntakeInput{
		Wizard: wiz,
	}, orchestrators.SubmitIntakeDeps{
		Directory:  directory,
		Configured: storeReady,
	})
	if err != nil {
		data := newApplyData(wiz)
		data.Error = "Submission failed. Please email us directly."
		renderTemplate(w, r, "apply.html", data)
		return
	}

	data := newApplyData(wiz)
	data.Submitted = true
	renderTemplate(w, r, "apply.html", data)
	wiz.Reset()
}

// handleAddClient adds a client from the coach dashboard. A failed insert
// surfaces as a visible alert on the dashboard.
func handleAddClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	c := controllerFor(r)
	if c == nil || c.Role() != portal.RoleCoach {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	draft := client.Client{
		Name:          r.FormValue("name"),
		Email:         r.FormValue("email"),
		Goal:          r.FormValue("goal"),
		Status:        client.StatusProspect,
		PaymentStatus: client.PaymentUnpaid,
	}
	if s := r.FormValue("status"); s != "" {
		draft.Status = s
	}
	if err := draft.Validate(); err != nil {
		renderTemplate(w, r, "dashboard.html", dashboardData{
			Clients: c.Clients(), Email: sessionEmail(c), Alert: "Error: " + err.Error(),
		})
		return
	}

	if _, err := c.AddClient(r.Context(), draft); err != nil {
		renderTemplate(w, r, "dashboard.html", dashboardData{
			Clients: c.Clients(), Email: sessionEmail(c), Alert: "Error: " + err.Error(),
		})
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleUpdateClient updates a record. The coach may edit any record; a
// client only their own. A failed update is logged, never surfaced.
func handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	c := controllerFor(r)
	if c == nil || c.Role() == portal.RoleNone {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	id := r.FormValue("id")
	record, ok := findRecord(c, id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	if c.Role() == portal.RoleClient {
		if lc := c.LoggedInClient(); lc == nil || lc.ID != id {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
	}

	applyEdits(&record, r)

	if err := c.UpdateClient(r.Context(), record); err != nil {
		logger.Get().Error().Err(err).Str("id", id).Msg("client_update_rejected")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// handleCheckIn appends a progress check-in to the signed-in client's own
// record.
func handleCheckIn(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	c := controllerFor(r)
	if c == nil || c.Role() != portal.RoleClient {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	record := c.LoggedInClient()
	if record == nil {
		http.NotFound(w, r)
		return
	}

	full := *record
	full.CheckIns = append(full.CheckIns, client.CheckIn{
		Date:   timeNow().Format("2006-01-02"),
		Weight: r.FormValue("weight"),
		Notes:  r.FormValue("notes"),
	})

	if err := c.UpdateClient(r.Context(), full); err != nil {
		logger.Get().Error().Err(err).Str("id", full.ID).Msg("checkin_update_rejected")
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func findRecord(c *portal.Controller, id string) (client.Client, bool) {
	for _, rec := range c.Clients() {
		if rec.ID == id {
			return rec, true
		}
	}
	return client.Client{}, false
}

// applyEdits overwrites only the fields present in the submitted form.
func applyEdits(rec *client.Client, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		return
	}
	set := func(dst *string, field string) {
		if r.PostForm.Has(field) {
			*dst = r.PostForm.Get(field)
		}
	}
	set(&rec.Name, "name")
	set(&rec.Email, "email")
	set(&rec.Goal, "goal")
	set(&rec.Status, "status")
	set(&rec.PaymentStatus, "payment_status")
	set(&rec.Profile.Weight, "weight")
	set(&rec.Profile.ActivityLevel, "activity_level")
	set(&rec.HolisticHealth.SleepQuality, "sleep_quality")
	set(&rec.HolisticHealth.StressLevel, "stress_level")
	set(&rec.HolisticHealth.EnergyLevel, "energy_level")
}
