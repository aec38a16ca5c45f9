// Package intake models the five-step client-intake wizard as an explicit
// finite-state machine, independent of any rendering layer.
package intake

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"

	"rippedcity/internal/domain/client"
)

// Step identifies one of the five ordered wizard steps.
type Step int

// Wizard steps, in order.
const (
	StepIdentity   Step = iota + 1 // name, email, phone, instagram
	StepBiometrics                 // age, blood type, weight, height
	StepHistory                    // experience, goal, struggle
	StepProtocols                  // supplements and pharmacological protocols
	StepHealth                     // health conditions, injuries, commitment
)

// StepFirst and StepLast bound the linear progression.
const (
	StepFirst = StepIdentity
	StepLast  = StepHealth
)

// Outcome is the wizard's terminal state after a submit attempt.
type Outcome string

// Terminal states. OutcomeNone means the wizard is still collecting.
const (
	OutcomeNone      Outcome = ""
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
)

// Domain errors
var (
	ErrStepIncomplete = errors.New("required fields for this step are missing")
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrNotAtFinalStep = errors.New("submission is only allowed from the final step")
	ErrAlreadyAtStart = errors.New("already at the first step")
)

// Draft holds not-yet-submitted prospect data. It exists only for the
// duration of the wizard interaction and is discarded on success.
type Draft struct {
	Name      string
	Email     string
	Phone     string
	Instagram string

	Age       string
	BloodType string
	Weight    string
	Height    string

	Experience string
	Goal       string
	Struggle   string

	CurrentSupplements string
	CurrentPharma      string

	HealthConditions string
	Injuries         string
	Commitment       string
}

// Per-step guard structs. Forward transitions are blocked until the step's
// required fields are present.
type identityGuard struct {
	Name  string `validate:"required"`
	Email string `validate:"required,email"`
}

type biometricsGuard struct {
	Age    string `validate:"required"`
	Weight string `validate:"required"`
}

type historyGuard struct {
	Goal string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Wizard is the linear intake state machine. The zero value is not usable;
// construct with New. Safe for concurrent use: one wizard is shared by
// every request a visitor makes.
type Wizard struct {
	mu         sync.Mutex
	step       Step
	draft      Draft
	outcome    Outcome
	submitting bool
}

// New returns a wizard positioned at the first step with an empty draft.
func New() *Wizard {
	return &Wizard{step: StepFirst}
}

// Step returns the current step.
func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Draft returns a copy of the entered data.
func (w *Wizard) Draft() Draft {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.draft
}

// Outcome returns the terminal state, or OutcomeNone while collecting.
func (w *Wizard) Outcome() Outcome {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outcome
}

// Submitting reports whether a submission is in flight. The submit control
// is disabled while true.
func (w *Wizard) Submitting() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.submitting
}

// Merge folds the given values into the draft. Empty handling is the
// caller's concern: posted form values overwrite existing ones field by
// field, so moving backward and forward never loses entered data.
func (w *Wizard) Merge(d Draft) {
	w.mu.Lock()
	defer w.mu.Unlock()
	merge(&w.draft.Name, d.Name)
	merge(&w.draft.Email, d.Email)
	merge(&w.draft.Phone, d.Phone)
	merge(&w.draft.Instagram, d.Instagram)
	merge(&w.draft.Age, d.Age)
	merge(&w.draft.BloodType, d.BloodType)
	merge(&w.draft.Weight, d.Weight)
	merge(&w.draft.Height, d.Height)
	merge(&w.draft.Experience, d.Experience)
	merge(&w.draft.Goal, d.Goal)
	merge(&w.draft.Struggle, d.Struggle)
	merge(&w.draft.CurrentSupplements, d.CurrentSupplements)
	merge(&w.draft.CurrentPharma, d.CurrentPharma)
	merge(&w.draft.HealthConditions, d.HealthConditions)
	merge(&w.draft.Injuries, d.Injuries)
	merge(&w.draft.Commitment, d.Commitment)
}

func merge(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// Next advances to the following step.
// PRE: The current step's required fields are present
// POST: Step is incremented, or an error is returned and state is unchanged
func (w *Wizard) Next() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.guard(w.step); err != nil {
		return err
	}
	if w.step < StepLast {
		w.step++
	}
	return nil
}

// Back moves to the previous step. Backward transitions are always
// permitted and lose no entered data.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.step <= StepFirst {
		return ErrAlreadyAtStart
	}
	w.step--
	return nil
}

// guard validates the required fields for a single step.
func (w *Wizard) guard(s Step) error {
	var err error
	switch s {
	case StepIdentity:
		err = validate.Struct(identityGuard{Name: w.draft.Name, Email: w.draft.Email})
	case StepBiometrics:
		err = validate.Struct(biometricsGuard{Age: w.draft.Age, Weight: w.draft.Weight})
	case StepHistory:
		err = validate.Struct(historyGuard{Goal: w.draft.Goal})
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStepIncomplete, err)
	}
	return nil
}

// BeginSubmit marks a submission as in flight.
// PRE: Wizard is at the final step and every guarded step is satisfied
// POST: Submitting() is true until FinishSubmit is called
func (w *Wizard) BeginSubmit() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.submitting {
		return ErrSubmitInFlight
	}
	if w.step != StepLast {
		return ErrNotAtFinalStep
	}
	for s := StepFirst; s < StepLast; s++ {
		if err := w.guard(s); err != nil {
			return err
		}
	}
	w.submitting = true
	return nil
}

// FinishSubmit records the result of the remote insert. On success the
// wizard resets to step 1 with a clean draft; on failure the entered data
// is preserved for retry.
func (w *Wizard) FinishSubmit(ok bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.submitting = false
	if ok {
		w.outcome = OutcomeSubmitted
		return
	}
	w.outcome = OutcomeFailed
}

// Reset returns the wizard to step 1. The draft is discarded only after a
// successful submission.
func (w *Wizard) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.outcome == OutcomeSubmitted {
		w.draft = Draft{}
	}
	w.step = StepFirst
	w.outcome = OutcomeNone
	w.submitting = false
}

// Payload assembles the client-creation record: a prospect with unpaid
// status, enhancement derived from the pharma answer, and every collection
// initialized empty.
// PRE: Guarded steps are satisfied
// POST: Returned record carries no ID and no creation timestamp
func (w *Wizard) Payload() client.Client {
	w.mu.Lock()
	d := w.draft
	w.mu.Unlock()
	return client.Client{
		Name:          d.Name,
		Email:         d.Email,
		Goal:          d.Goal,
		Status:        client.StatusProspect,
		PaymentStatus: client.PaymentUnpaid,
		Profile: client.Profile{
			Age:                     d.Age,
			Gender:                  "male",
			Weight:                  d.Weight,
			Height:                  d.Height,
			Experience:              d.Experience,
			ActivityLevel:           "moderately_active",
			Status:                  client.DeriveEnhancement(d.CurrentPharma),
			BloodType:               d.BloodType,
			NotificationPreferences: client.DefaultNotificationPreferences(),
		},
		IntakeData: client.IntakeData{
			Injuries:           d.Injuries,
			Meds:               d.HealthConditions,
			HealthConditions:   d.HealthConditions,
			Phone:              d.Phone,
			CurrentSupplements: d.CurrentSupplements,
			CurrentPharma:      d.CurrentPharma,
		},
		CheckIns:            []client.CheckIn{},
		GeneratedPlans:      client.GeneratedPlans{MealPlans: []client.Plan{}, WorkoutPlans: []client.Plan{}},
		Payments:            []client.Payment{},
		Communication:       client.Communication{Messages: []client.Message{}},
		BloodworkHistory:    []client.BloodworkEntry{},
		ClientTestimonials:  []client.Testimonial{},
		BloodDonationStatus: client.BloodDonationStatus{Status: "Unknown"},
		HolisticHealth:      client.HolisticHealth{},
		CardioLogs:          []client.CardioLog{},
		PosingLogs:          []client.PosingLog{},
	}
}

// StepTitle returns the display heading for a step.
func StepTitle(s Step) string {
	switch s {
	case StepIdentity:
		return "The Basics"
	case StepBiometrics:
		return "Biological Metrics"
	case StepHistory:
		return "Performance History"
	case StepProtocols:
		return "Protocol Audit"
	case StepHealth:
		return "Health & Confirmation"
	}
	return ""
}
