// Package format renders domain objects into message chunks that obey the
// transport's per-message character budget, applying a fixed truncation
// priority when a single logical message is too long.
package format

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"mamamind/internal/planner"
)

// DefaultLimit is the WhatsApp per-message ceiling used when no budget is
// configured. It is a property of the transport and must stay configurable.
const DefaultLimit = 1600

const (
	ellipsis     = " …"
	recipeTrim   = 200
	sectionTrim  = 120
	moreCitation = "; …"
)

// SharePrompt closes every meal detail rendering.
const SharePrompt = "Would you like this meal as a shareable PDF? Reply YES or NO."

var slotEmojis = map[string]string{
	"Breakfast": "🥣",
	"Lunch":     "🍛",
	"Snack 1":   "🍎",
	"Snack 2":   "🍵",
	"Dinner":    "🍲",
}

// Formatter renders messages within a character budget.
type Formatter struct {
	limit int
}

// New returns a Formatter with the given budget; zero or negative selects
// DefaultLimit.
func New(limit int) Formatter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return Formatter{limit: limit}
}

// Limit reports the configured budget.
func (f Formatter) Limit() int { return f.limit }

// WeekOverview renders the 7-day summary. Fits the budget by construction.
func (f Formatter) WeekOverview(plan *planner.MealPlan) string {
	days := make([]string, 0, len(plan.Days))
	for _, d := range plan.Days {
		days = append(days, d.Day)
	}
	return fmt.Sprintf("Here's your Week %d Meal Plan 🍽️ (type a day to view details):\n\n🗓️ %s",
		plan.WeekNumber, strings.Join(days, " | "))
}

// DaySummary renders one day's five meals as short fixed-format lines plus
// the day's leading tip. Fits the budget by construction.
func (f Formatter) DaySummary(day *planner.Day) string {
	parts := []string{fmt.Sprintf("🗓️ %s", day.Day)}

	for _, m := range day.Meals {
		emoji := slotEmojis[m.Slot]
		if emoji == "" {
			emoji = "🍽️"
		}
		parts = append(parts, fmt.Sprintf("%s %s: %s", emoji, m.Slot, m.Name))
	}

	tip := "Remember to stay hydrated throughout the day."
	if len(day.Meals) > 0 && day.Meals[0].Tip != "" {
		tip = day.Meals[0].Tip
	}
	parts = append(parts, fmt.Sprintf("🧠 Tip: %s", tip))
	parts = append(parts, "Type a meal (e.g. Breakfast, Snack 1, Lunch) to see the full recipe.")

	return strings.Join(parts, "\n\n")
}

// MealDetail renders one meal's full detail, applying the truncation ladder
// until the message fits, and splitting into ordered chunks as a last
// resort. The meal name and tip are never truncated.
func (f Formatter) MealDetail(dayName string, meal *planner.Meal) []string {
	m := *meal

	msg := f.renderMeal(dayName, &m)
	if f.fits(msg) {
		return []string{msg}
	}

	// Ladder step 1: keep only the first citation.
	if len(m.Citations) > 1 {
		m.Citations = []string{m.Citations[0] + moreCitation}
		msg = f.renderMeal(dayName, &m)
		if f.fits(msg) {
			return []string{msg}
		}
	}

	// Ladder step 2: trim the recipe to a fixed prefix.
	if utf8.RuneCountInString(m.Recipe) > recipeTrim {
		m.Recipe = trim(m.Recipe, recipeTrim)
		msg = f.renderMeal(dayName, &m)
		if f.fits(msg) {
			return []string{msg}
		}
	}

	// Ladder step 3: trim description and benefits.
	if utf8.RuneCountInString(m.Description) > sectionTrim || utf8.RuneCountInString(m.Benefits) > sectionTrim {
		m.Description = trim(m.Description, sectionTrim)
		m.Benefits = trim(m.Benefits, sectionTrim)
		msg = f.renderMeal(dayName, &m)
		if f.fits(msg) {
			return []string{msg}
		}
	}

	// Everything trimmable is trimmed; split into consecutive chunks.
	return f.Chunks(msg)
}

func (f Formatter) renderMeal(dayName string, m *planner.Meal) string {
	emoji := slotEmojis[m.Slot]
	if emoji == "" {
		emoji = "🍽️"
	}

	parts := []string{
		fmt.Sprintf("%s %s — %s: %s", emoji, dayName, m.Slot, m.Name),
		m.Description,
		fmt.Sprintf("💪 Benefits: %s", m.Benefits),
		fmt.Sprintf("👩‍🍳 Recipe: %s", m.Recipe),
	}
	if len(m.Citations) > 0 {
		parts = append(parts, fmt.Sprintf("📚 Sources: %s", strings.Join(m.Citations, "; ")))
	}
	parts = append(parts, fmt.Sprintf("🧠 Tip: %s", m.Tip))
	parts = append(parts, SharePrompt)

	return strings.Join(parts, "\n\n")
}

// Chunks splits a message into budget-sized pieces, preferring newline then
// space boundaries. Chunks must be delivered in order.
func (f Formatter) Chunks(msg string) []string {
	if f.fits(msg) {
		return []string{msg}
	}

	var chunks []string
	runes := []rune(msg)
	for len(runes) > 0 {
		if len(runes) <= f.limit {
			chunks = append(chunks, strings.TrimSpace(string(runes)))
			break
		}
		cut := f.limit
		for i := f.limit - 1; i > f.limit/2; i-- {
			if runes[i] == '\n' {
				cut = i
				break
			}
		}
		if cut == f.limit {
			for i := f.limit - 1; i > f.limit/2; i-- {
				if runes[i] == ' ' {
					cut = i
					break
				}
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	return chunks
}

func (f Formatter) fits(msg string) bool {
	return utf8.RuneCountInString(msg) <= f.limit
}

func trim(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return strings.TrimSpace(string(runes[:n])) + ellipsis
}
