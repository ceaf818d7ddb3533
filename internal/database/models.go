package database

import (
	"encoding/json"
	"time"
)

// Profile holds the durable nutrition-relevant attributes collected during
// onboarding, keyed by the sender's phone number. Free-text answers are
// stored verbatim; no semantic validation is applied.
type Profile struct {
	Phone              string
	Trimester          string
	DietaryPreference  string
	Allergies          []string
	CulturalPreference string
	Conditions         []string
	UsagePreference    string
	CreatedAt          time.Time
	LastActive         time.Time
}

// Onboarded reports whether the profile completed the onboarding flow.
// The usage preference is the last field collected, so it doubles as the
// completion marker.
func (p *Profile) Onboarded() bool {
	return p.UsagePreference != ""
}

// Reset clears every collected attribute, keeping the phone number and the
// creation timestamp. Used by the "start over" flow; the row is never deleted.
func (p *Profile) Reset() {
	p.Trimester = ""
	p.DietaryPreference = ""
	p.Allergies = nil
	p.CulturalPreference = ""
	p.Conditions = nil
	p.UsagePreference = ""
}

// Session is the per-sender conversation cursor, stored 1:1 with the Profile.
// The dialogue state is persisted as its string label; the dialogue package
// owns the closed enum.
type Session struct {
	State        string
	SelectedDay  string
	SelectedSlot string
	PriorState   string
	ActivePlanID string
}

// ClearSelection drops the day/meal cursor. Must be called whenever a new
// plan is generated or the session is reset.
func (s *Session) ClearSelection() {
	s.SelectedDay = ""
	s.SelectedSlot = ""
}

// MealPlanRecord is one generated weekly plan. Plans are immutable once
// written; a regeneration inserts a new record with a higher week number.
type MealPlanRecord struct {
	PlanID     string
	Phone      string
	WeekNumber int
	PlanData   json.RawMessage
	CreatedAt  time.Time
}
