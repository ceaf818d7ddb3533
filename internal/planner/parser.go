package planner

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ParseKind tags how much structure could be recovered from the service
// response. The fallback path is a first-class variant, not an exception.
type ParseKind int

const (
	// Unparseable means no day or meal could be recovered; the plan will
	// consist entirely of placeholder meals.
	Unparseable ParseKind = iota

	// StructuredPlan means the response decoded as the requested JSON.
	StructuredPlan

	// HeuristicPlan means the response was prose but line-label extraction
	// recovered at least a partial plan.
	HeuristicPlan
)

func (k ParseKind) String() string {
	switch k {
	case StructuredPlan:
		return "structured"
	case HeuristicPlan:
		return "heuristic"
	default:
		return "unparseable"
	}
}

// ParseOutcome carries exactly the data that could be recovered. Days and
// meals are canonicalized but not yet placeholder-filled.
type ParseOutcome struct {
	Kind ParseKind
	Days []Day
}

var (
	fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	braceRe = regexp.MustCompile(`(?s)\{.*\}`)
	// mealLabelRe matches "Breakfast: Fonio Pancakes" style lines, with
	// optional list markers or emphasis around the label.
	mealLabelRe = regexp.MustCompile(`(?i)^[-*\d.\s]*\**(breakfast|snack\s*1|snack\s*2|morning snack|afternoon snack|lunch|dinner)\**\s*[:\-–]\s*(.*)$`)
	recipeRe    = regexp.MustCompile(`(?i)^[-*\s]*\**recipe\**\s*[:\-–]\s*(.*)$`)
	benefitsRe  = regexp.MustCompile(`(?i)^[-*\s]*\**benefits?\**\s*[:\-–]\s*(.*)$`)
	citationRe  = regexp.MustCompile(`(?i)^[-*\s]*\**(?:sources?|citations?)\**\s*[:\-–]\s*(.*)$`)
)

// ParsePlanResponse turns the raw service response into a tagged outcome.
// Strict JSON first, then heuristic extraction from prose; it never fails
// outright.
func ParsePlanResponse(raw string) ParseOutcome {
	if days, ok := parseJSON(raw); ok {
		return ParseOutcome{Kind: StructuredPlan, Days: days}
	}
	if days := parseProse(raw); len(days) > 0 {
		return ParseOutcome{Kind: HeuristicPlan, Days: days}
	}
	return ParseOutcome{Kind: Unparseable}
}

/* =================================================================================
								STRICT JSON PATH
=================================================================================*/

// rawDay accepts both shapes seen in the wild: meals as the requested array
// of objects with a "slot" field, and meals as a map keyed by slot name.
type rawDay struct {
	Day   string
	Meals []Meal
}

func (d *rawDay) UnmarshalJSON(data []byte) error {
	var arrayForm struct {
		Day   string `json:"day"`
		Meals []Meal `json:"meals"`
	}
	if err := json.Unmarshal(data, &arrayForm); err == nil && len(arrayForm.Meals) > 0 {
		d.Day = arrayForm.Day
		d.Meals = arrayForm.Meals
		return nil
	}

	var mapForm struct {
		Day   string          `json:"day"`
		Meals map[string]Meal `json:"meals"`
	}
	if err := json.Unmarshal(data, &mapForm); err != nil {
		// Array form with an empty meal list is still valid.
		if arrayErr := json.Unmarshal(data, &arrayForm); arrayErr == nil {
			d.Day = arrayForm.Day
			d.Meals = arrayForm.Meals
			return nil
		}
		return err
	}
	d.Day = mapForm.Day
	for slot, m := range mapForm.Meals {
		m.Slot = slot
		d.Meals = append(d.Meals, m)
	}
	return nil
}

func parseJSON(raw string) ([]Day, bool) {
	candidates := []string{raw}
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		candidates = append([]string{m[1]}, candidates...)
	}
	if m := braceRe.FindString(raw); m != "" {
		candidates = append(candidates, m)
	}

	for _, c := range candidates {
		var decoded struct {
			Days []rawDay `json:"days"`
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(c)), &decoded); err != nil {
			continue
		}
		days := canonicalize(decoded.Days)
		if len(days) > 0 {
			return days, true
		}
	}
	return nil, false
}

func canonicalize(raw []rawDay) []Day {
	var days []Day
	for _, rd := range raw {
		name := CanonicalDay(rd.Day)
		if name == "" {
			continue
		}
		day := Day{Day: name}
		for _, m := range rd.Meals {
			if slot := CanonicalSlot(m.Slot); slot != "" {
				m.Slot = slot
				day.Meals = append(day.Meals, m)
			}
		}
		if len(day.Meals) > 0 {
			days = append(days, day)
		}
	}
	return days
}

/* =================================================================================
							HEURISTIC PROSE PATH
=================================================================================*/

// parseProse recovers a best-effort structure from free prose by recognizing
// line-leading labels: day headers, "Breakfast: ..." meal lines, and
// recipe/benefits/source markers. Unlabeled lines extend the current meal's
// description.
func parseProse(raw string) []Day {
	var (
		days    []Day
		current *Day
		meal    *Meal
	)

	flushDay := func() {
		if current != nil && len(current.Meals) > 0 {
			days = append(days, *current)
		}
		current = nil
		meal = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if name := dayHeader(line); name != "" {
			flushDay()
			current = &Day{Day: name}
			continue
		}
		if current == nil {
			continue
		}

		if m := mealLabelRe.FindStringSubmatch(line); m != nil {
			slot := CanonicalSlot(normalizeSlotLabel(m[1]))
			if slot == "" {
				continue
			}
			current.Meals = append(current.Meals, Meal{Slot: slot, Name: strings.TrimSpace(m[2])})
			meal = &current.Meals[len(current.Meals)-1]
			continue
		}
		if meal == nil {
			continue
		}

		switch {
		case recipeRe.MatchString(line):
			meal.Recipe = strings.TrimSpace(recipeRe.FindStringSubmatch(line)[1])
		case benefitsRe.MatchString(line):
			meal.Benefits = strings.TrimSpace(benefitsRe.FindStringSubmatch(line)[1])
		case citationRe.MatchString(line):
			if src := strings.TrimSpace(citationRe.FindStringSubmatch(line)[1]); src != "" {
				meal.Citations = append(meal.Citations, src)
			}
		default:
			if meal.Description == "" {
				meal.Description = line
			} else {
				meal.Description += " " + line
			}
		}
	}
	flushDay()

	return days
}

// dayHeader returns the canonical day name when the line mentions one.
func dayHeader(line string) string {
	lower := strings.ToLower(line)
	for _, d := range Days {
		if strings.Contains(lower, strings.ToLower(d)) {
			return d
		}
	}
	return ""
}

func normalizeSlotLabel(label string) string {
	return strings.Join(strings.Fields(strings.ToLower(label)), " ")
}
