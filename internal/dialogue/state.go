// Package dialogue implements the session-scoped conversation state machine:
// it classifies inbound text, executes the transition for the current state,
// invokes the planner for side effects, and renders replies.
package dialogue

import (
	"strings"

	"mamamind/internal/planner"
)

// State is the closed set of dialogue states. Illegal states are
// unrepresentable; unknown persisted labels parse to StateNew.
type State int

const (
	StateNew State = iota
	StateAwaitingTrimester
	StateAwaitingDiet
	StateAwaitingAllergies
	StateAwaitingCulture
	StateAwaitingConditions
	StateAwaitingUsagePref
	StateOnboardedIdle
	StateAwaitingDaySelection
	StateAwaitingMealSelection
	StateAwaitingShareConfirm
	StateAwaitingRestartConfirm
)

var stateNames = map[State]string{
	StateNew:                    "NEW",
	StateAwaitingTrimester:      "AWAITING_TRIMESTER",
	StateAwaitingDiet:           "AWAITING_DIET",
	StateAwaitingAllergies:      "AWAITING_ALLERGIES",
	StateAwaitingCulture:        "AWAITING_CULTURE",
	StateAwaitingConditions:     "AWAITING_CONDITIONS",
	StateAwaitingUsagePref:      "AWAITING_USAGE_PREF",
	StateOnboardedIdle:          "ONBOARDED_IDLE",
	StateAwaitingDaySelection:   "AWAITING_DAY_SELECTION",
	StateAwaitingMealSelection:  "AWAITING_MEAL_SELECTION",
	StateAwaitingShareConfirm:   "AWAITING_SHARE_CONFIRM",
	StateAwaitingRestartConfirm: "AWAITING_RESTART_CONFIRM",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "NEW"
}

// ParseState resolves a persisted label back to its State. Unknown labels
// (including the empty string for brand-new rows) map to StateNew.
func ParseState(label string) State {
	for s, name := range stateNames {
		if name == label {
			return s
		}
	}
	return StateNew
}

// InputClass is the classification of one normalized inbound message.
type InputClass int

const (
	// ClassFreeText is anything that matched no keyword: an onboarding
	// answer inside the onboarding flow, a nutrition question elsewhere.
	ClassFreeText InputClass = iota
	ClassGreeting
	ClassEnd
	ClassStartOver
	ClassUpdatePrefs
	ClassGeneratePlan
	ClassYes
	ClassNo
	ClassDay
	ClassSlot
)

// Input is one classified inbound message.
type Input struct {
	Raw  string
	Norm string

	Class InputClass

	// Day and Slot carry the canonical names when Class is ClassDay or
	// ClassSlot.
	Day  string
	Slot string
}

// Classify normalizes (lower-case, trim) and classifies the raw message.
// Day and slot names are contextual: the engine only honors them in their
// selection states, everywhere else they fall through as free text.
func Classify(raw string) Input {
	norm := strings.ToLower(strings.TrimSpace(raw))
	in := Input{Raw: raw, Norm: norm}

	switch norm {
	case "hi", "hello", "start":
		in.Class = ClassGreeting
		return in
	case "end":
		in.Class = ClassEnd
		return in
	case "start over":
		in.Class = ClassStartOver
		return in
	case "update preferences":
		in.Class = ClassUpdatePrefs
		return in
	case "generate meal plan":
		in.Class = ClassGeneratePlan
		return in
	case "yes", "y":
		in.Class = ClassYes
		return in
	case "no", "n":
		in.Class = ClassNo
		return in
	}

	if day := planner.CanonicalDay(norm); day != "" {
		in.Class = ClassDay
		in.Day = day
		return in
	}
	if slot := planner.CanonicalSlot(norm); slot != "" {
		in.Class = ClassSlot
		in.Slot = slot
		return in
	}

	in.Class = ClassFreeText
	return in
}

// global reports whether the class short-circuits the state dispatch.
// Contextual keywords (yes/no/day/slot) never do.
func (c InputClass) global() bool {
	switch c {
	case ClassGreeting, ClassEnd, ClassStartOver, ClassUpdatePrefs, ClassGeneratePlan:
		return true
	}
	return false
}
