// Package client defines the coaching client/prospect record and its
// nested profile, intake and history structures. Field names mirror the
// columns and JSON shapes of the remote `clients` table.
package client

import (
	"errors"
	"strings"
	"time"
)

// Max length constants for user-editable fields.
const (
	MaxNameLength = 100
)

// Business rule constants
const (
	StatusProspect  = "prospect"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"

	PaymentUnpaid  = "unpaid"
	PaymentPaid    = "paid"
	PaymentOverdue = "overdue"

	ExperienceBeginner     = "beginner"
	ExperienceIntermediate = "intermediate"
	ExperienceAdvanced     = "advanced"

	EnhancementNatural  = "natural"
	EnhancementEnhanced = "enhanced"
)

// Domain errors
var (
	ErrMissingID = errors.New("client has no id")
)

// NotificationPreferences controls which channels a client is contacted on.
type NotificationPreferences struct {
	Email bool `json:"email"`
	SMS   bool `json:"sms"`
	InApp bool `json:"inApp"`
}

// Profile holds the client's biological and training profile. Numeric-looking
// fields stay strings: they arrive from free-form intake inputs and are
// stored verbatim.
type Profile struct {
	Age                     string                  `json:"age"`
	Gender                  string                  `json:"gender"`
	Weight                  string                  `json:"weight"`
	Height                  string                  `json:"height"`
	Experience              string                  `json:"experience"`
	ActivityLevel           string                  `json:"activityLevel"`
	Status                  string                  `json:"status"`
	BloodType               string                  `json:"bloodType"`
	NotificationPreferences NotificationPreferences `json:"notificationPreferences"`
}

// IntakeData holds the free-text answers collected by the intake wizard.
type IntakeData struct {
	Injuries           string `json:"injuries"`
	Meds               string `json:"meds"`
	Diet               string `json:"diet"`
	WorkSchedule       string `json:"workSchedule"`
	HealthConditions   string `json:"healthConditions"`
	Allergies          string `json:"allergies"`
	Phone              string `json:"phone"`
	CurrentSupplements string `json:"currentSupplements"`
	CurrentPharma      string `json:"currentPharma"`
}

// CheckIn is a periodic progress report from the client.
type CheckIn struct {
	Date   string `json:"date"`
	Weight string `json:"weight"`
	Notes  string `json:"notes"`
}

// GeneratedPlans groups the coach-issued meal and workout plans.
type GeneratedPlans struct {
	MealPlans    []Plan `json:"mealPlans"`
	WorkoutPlans []Plan `json:"workoutPlans"`
}

// Plan is a single issued plan document.
type Plan struct {
	Title   string `json:"title"`
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Payment is a single payment record.
type Payment struct {
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Method string `json:"method"`
}

// Communication holds the message history between coach and client.
type Communication struct {
	Messages []Message `json:"messages"`
}

// Message is a single coach/client message.
type Message struct {
	From string `json:"from"`
	Date string `json:"date"`
	Body string `json:"body"`
}

// BloodworkEntry is one uploaded lab panel.
type BloodworkEntry struct {
	Date    string `json:"date"`
	Summary string `json:"summary"`
}

// Testimonial is a client-submitted testimonial.
type Testimonial struct {
	Date  string `json:"date"`
	Quote string `json:"quote"`
}

// BloodDonationStatus tracks whether the client donates blood, relevant for
// enhanced athletes managing hematocrit.
type BloodDonationStatus struct {
	Status      string `json:"status"`
	LastChecked string `json:"lastChecked"`
	Notes       string `json:"notes"`
}

// HolisticHealth is the lifestyle and recovery log.
type HolisticHealth struct {
	SleepQuality string `json:"sleepQuality"`
	StressLevel  string `json:"stressLevel"`
	EnergyLevel  string `json:"energyLevel"`
	HerbalLog    string `json:"herbalLog"`
}

// CardioLog is one cardio session entry.
type CardioLog struct {
	Date     string `json:"date"`
	Type     string `json:"type"`
	Duration string `json:"duration"`
}

// PosingLog is one posing practice entry.
type PosingLog struct {
	Date  string `json:"date"`
	Notes string `json:"notes"`
}

// Client is a coaching client or prospect. ID and CreatedAt are assigned by
// the remote backend and are immutable once set; every other field is
// mutable through coach or client edits.
type Client struct {
	ID        string    `json:"id,omitzero"`
	CreatedAt time.Time `json:"created_at,omitzero"`

	Name          string `json:"name"`
	Email         string `json:"email"`
	Goal          string `json:"goal"`
	Status        string `json:"status"`
	PaymentStatus string `json:"paymentStatus"`

	Profile    Profile    `json:"profile"`
	IntakeData IntakeData `json:"intakeData"`

	CheckIns            []CheckIn           `json:"checkins"`
	GeneratedPlans      GeneratedPlans      `json:"generatedPlans"`
	Payments            []Payment           `json:"payments"`
	Communication       Communication       `json:"communication"`
	BloodworkHistory    []BloodworkEntry    `json:"bloodworkHistory"`
	ClientTestimonials  []Testimonial       `json:"clientTestimonials"`
	BloodDonationStatus BloodDonationStatus `json:"bloodDonationStatus"`
	HolisticHealth      HolisticHealth      `json:"holisticHealth"`
	CardioLogs          []CardioLog         `json:"cardioLogs"`
	PosingLogs          []PosingLog         `json:"posingLogs"`
}

// Validate checks if the Client has valid data.
// PRE: Client struct is initialized
// POST: Returns error if validation fails, nil otherwise
// INVARIANT: Email must contain '@', Name must not be empty
func (c *Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("client name cannot be empty")
	}
	if len(c.Name) > MaxNameLength {
		return errors.New("client name cannot exceed 100 characters")
	}
	if !strings.Contains(c.Email, "@") {
		return errors.New("client email must be valid")
	}
	switch c.Status {
	case StatusProspect, StatusActive, StatusOnHold, StatusCompleted:
	default:
		return errors.New("status must be 'prospect', 'active', 'on_hold', or 'completed'")
	}
	switch c.PaymentStatus {
	case PaymentUnpaid, PaymentPaid, PaymentOverdue:
	default:
		return errors.New("payment status must be 'unpaid', 'paid', or 'overdue'")
	}
	return nil
}

// IsProspect returns true if the client is a lead who has submitted intake
// but not yet been onboarded.
// INVARIANT: Status field is not mutated
func (c *Client) IsProspect() bool {
	return c.Status == StatusProspect
}

// Mutable returns a copy with the backend-assigned immutable fields cleared,
// suitable for a partial update keyed by ID.
// PRE: Client has an ID
// POST: Returned copy has zero ID and CreatedAt; receiver is unchanged
func (c Client) Mutable() Client {
	c.ID = ""
	c.CreatedAt = time.Time{}
	return c
}

// DeriveEnhancement classifies a client as enhanced when any pharmacological
// protocol text was entered, natural otherwise.
func DeriveEnhancement(pharma string) string {
	if strings.TrimSpace(pharma) != "" {
		return EnhancementEnhanced
	}
	return EnhancementNatural
}

// DefaultNotificationPreferences are applied to new prospects.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{Email: true, SMS: false, InApp: true}
}
