// Package planner builds prompts for the generative service, parses its
// responses into validated weekly meal plans, and answers free-form
// nutrition questions.
package planner

import (
	"strings"
	"time"
)

// Days lists the seven plan days in fixed order.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

// Slots lists the five meal slots of a day in fixed order.
var Slots = []string{"Breakfast", "Snack 1", "Lunch", "Snack 2", "Dinner"}

// slotAliases maps normalized user/AI spellings to canonical slot names.
var slotAliases = map[string]string{
	"breakfast":       "Breakfast",
	"snack 1":         "Snack 1",
	"snack1":          "Snack 1",
	"morning snack":   "Snack 1",
	"lunch":           "Lunch",
	"snack 2":         "Snack 2",
	"snack2":          "Snack 2",
	"afternoon snack": "Snack 2",
	"dinner":          "Dinner",
}

// CanonicalDay resolves a user-typed day name (full name or three-letter
// abbreviation, any case) to its canonical form. Returns "" when no day
// matches.
func CanonicalDay(s string) string {
	norm := strings.ToLower(strings.TrimSpace(s))
	for _, d := range Days {
		if norm == strings.ToLower(d) || norm == strings.ToLower(d[:3]) {
			return d
		}
	}
	return ""
}

// CanonicalSlot resolves a user-typed meal slot name to its canonical form,
// or "" when no slot matches.
func CanonicalSlot(s string) string {
	return slotAliases[strings.ToLower(strings.TrimSpace(s))]
}

// Meal is one slot of one day. After placeholder filling every text field is
// non-empty, so formatting never operates on absent data.
type Meal struct {
	Slot        string   `json:"slot"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Benefits    string   `json:"benefits"`
	Recipe      string   `json:"recipe"`
	Citations   []string `json:"citations"`
	Tip         string   `json:"tip"`
}

// Day holds the five meals of one plan day in slot order.
type Day struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

// Meal returns the day's meal for the canonical slot name, or nil.
func (d *Day) Meal(slot string) *Meal {
	for i := range d.Meals {
		if d.Meals[i].Slot == slot {
			return &d.Meals[i]
		}
	}
	return nil
}

// MealPlan is one generated weekly plan: exactly 7 days of exactly 5 slots,
// immutable once generated.
type MealPlan struct {
	ID         string    `json:"id"`
	WeekNumber int       `json:"week_number"`
	Days       []Day     `json:"days"`
	CreatedAt  time.Time `json:"created_at"`
}

// Day returns the plan's entry for the canonical day name, or nil.
func (p *MealPlan) Day(name string) *Day {
	for i := range p.Days {
		if p.Days[i].Day == name {
			return &p.Days[i]
		}
	}
	return nil
}

// Placeholder texts used when the generative service omits a field or a
// whole slot. User-visible; the system never leaves a slot undefined.
const (
	PlaceholderName        = "Meal information unavailable"
	PlaceholderDescription = "No description provided."
	PlaceholderBenefits    = "Nutritional details not provided."
	PlaceholderRecipe      = "Recipe not provided. Ask me for ideas!"
)

// fillMeal replaces absent fields with placeholders.
func fillMeal(m *Meal, slot string) {
	m.Slot = slot
	if strings.TrimSpace(m.Name) == "" {
		m.Name = PlaceholderName
	}
	if strings.TrimSpace(m.Description) == "" {
		m.Description = PlaceholderDescription
	}
	if strings.TrimSpace(m.Benefits) == "" {
		m.Benefits = PlaceholderBenefits
	}
	if strings.TrimSpace(m.Recipe) == "" {
		m.Recipe = PlaceholderRecipe
	}
	if m.Citations == nil {
		m.Citations = []string{}
	}
}
