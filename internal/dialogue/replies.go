package dialogue

import (
	"fmt"
	"strings"

	"mamamind/internal/database"
)

// Option lists shown during onboarding. The reply is stored verbatim either
// way; the numbers are guidance, not validation.
var (
	dietaryOptions = []string{"Vegetarian", "Vegan", "Gluten-free", "Dairy-free", "No restrictions", "Other"}

	conditionOptions = []string{"Anemia or low iron", "Gestational diabetes", "Hypertension", "Morning sickness", "None", "Other"}

	usageOptions = []string{"Weekly meal plans", "On-demand nutrition Q&A"}
)

func numbered(options []string) string {
	lines := make([]string, len(options))
	for i, o := range options {
		lines[i] = fmt.Sprintf("%d. %s", i+1, o)
	}
	return strings.Join(lines, "\n")
}

func onboardingGreeting() string {
	return "👋 Hi! I'm MamáMind, your AI-powered pregnancy nutrition coach. " +
		"Let's create your personalized nutrition journey! 🍎🤰\n\n" +
		"Which trimester are you in?\n1. First\n2. Second\n3. Third"
}

func askTrimester() string {
	return "Which trimester are you in?\n1. First\n2. Second\n3. Third"
}

func askDiet() string {
	return fmt.Sprintf("Thanks! Do you have any dietary restrictions or preferences?\n\n%s", numbered(dietaryOptions))
}

func askAllergies(diet string) string {
	return fmt.Sprintf("Got it – %s!\n\nAny food allergies or intolerances I should know about? Please list them, or type NONE.", diet)
}

func askCulture(allergies []string) string {
	confirmation := "no allergies"
	if len(allergies) > 0 {
		confirmation = "avoiding " + strings.Join(allergies, ", ")
	}
	return fmt.Sprintf("Noted – %s.\n\nWhich cuisine or cultural food traditions do you typically follow? This helps me suggest meals you'll enjoy.", confirmation)
}

func askConditions(culture string) string {
	return fmt.Sprintf("Wonderful! %s cuisine has many excellent options perfect for pregnancy.\n\n"+
		"Have you been diagnosed with any pregnancy-related conditions? Select all that apply:\n\n%s",
		culture, numbered(conditionOptions))
}

func askUsagePref(conditions []string) string {
	confirmation := "No specific conditions noted."
	if len(conditions) > 0 {
		confirmation = fmt.Sprintf("I'll focus on options to support %s.", strings.Join(conditions, ", "))
	}
	return fmt.Sprintf("Thanks – %s\n\nHow would you like to use MamáMind?\n\n%s", confirmation, numbered(usageOptions))
}

func profileSummary(p *database.Profile) string {
	allergies := "No allergies"
	if len(p.Allergies) > 0 {
		allergies = strings.Join(p.Allergies, ", ")
	}
	conditions := "No specific conditions"
	if len(p.Conditions) > 0 {
		conditions = strings.Join(p.Conditions, ", ")
	}

	summary := fmt.Sprintf("✅ Trimester: %s\n✅ %s\n✅ %s\n✅ %s cuisine preference\n✅ %s",
		p.Trimester, p.DietaryPreference, allergies, p.CulturalPreference, conditions)

	nudge := "You can ask me nutrition questions anytime. Just type your question!"
	if strings.Contains(strings.ToLower(p.UsagePreference), "week") || strings.TrimSpace(p.UsagePreference) == "1" {
		nudge = "Type 'Generate meal plan' anytime to get your weekly plan."
	}

	return fmt.Sprintf("Perfect! Your profile is set up. Based on your information:\n\n%s\n\n%s", summary, nudge)
}

func welcomeBack() string {
	return "👋 Welcome back to MamáMind! Type 'Generate meal plan' for a fresh weekly plan, " +
		"ask me any nutrition question, or type 'Update preferences' to change your profile."
}

func closingAck() string {
	return "Thank you for using MamáMind! Your preferences have been saved. Type 'Start' anytime to chat again."
}

func restartConfirm() string {
	return "⚠️ This will erase your profile and preferences. Are you sure you want to start over? Reply YES or NO."
}

func restartDone() string {
	return "Your profile has been cleared. Say 'Hi' whenever you're ready to start fresh!"
}

func restartKept() string {
	return "No problem – I've kept everything as it was."
}

func confirmYesNo() string {
	return "Please reply YES or NO."
}

func shareAccepted() string {
	return "Your meal plan PDF is on its way! 📄 PDF sharing via WhatsApp is coming soon; " +
		"until then we'll send it by email if we have one on file.\n\nType another day to keep exploring your plan."
}

func shareDeclined() string {
	return "No problem! Type another day to keep exploring your plan."
}

func noPlanYet() string {
	return "I don't have a meal plan generated for you yet. Type 'Generate meal plan' to create one."
}

func tryAgainLater() string {
	return "I'm having trouble reaching my nutrition service right now. Please try again in a moment."
}

func answerUnavailable() string {
	return "I'm sorry, I couldn't generate an answer at this time. Please try again later."
}

func genericApology() string {
	return "Sorry, something went wrong on our side. Please try again later."
}
