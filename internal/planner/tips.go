package planner

import (
	"fmt"
	"strings"

	"mamamind/internal/database"
)

// nutrientTip is one evidence-tagged entry of the tip table.
type nutrientTip struct {
	Nutrient string
	Benefit  string
	Source   string
}

func (t nutrientTip) String() string {
	return fmt.Sprintf("%s%s %s - %s",
		strings.ToUpper(t.Nutrient[:1]), t.Nutrient[1:], t.Benefit, t.Source)
}

// ingredientTips maps ingredient keywords detected in a meal's text to a
// nutrient tip. Read-only; safe for unsynchronized concurrent reads.
var ingredientTips = []struct {
	Keyword string
	Tip     nutrientTip
}{
	{"millet", nutrientTip{"iron", "is essential for preventing anemia", "ACOG guidelines"}},
	{"spinach", nutrientTip{"folate", "supports fetal development", "March of Dimes"}},
	{"salmon", nutrientTip{"omega-3 fatty acids", "promote brain development", "APA"}},
	{"mackerel", nutrientTip{"omega-3 fatty acids", "promote brain development", "APA"}},
	{"tilapia", nutrientTip{"protein", "supports tissue growth", "Mayo Clinic"}},
	{"fish", nutrientTip{"omega-3 fatty acids", "promote brain development", "APA"}},
	{"chicken", nutrientTip{"protein", "supports muscle development", "ACOG"}},
	{"turkey", nutrientTip{"iron", "prevents anemia", "ACOG"}},
	{"beef", nutrientTip{"iron", "prevents anemia", "ACOG"}},
	{"egg", nutrientTip{"choline", "supports brain development", "NIH"}},
	{"avocado", nutrientTip{"folate", "prevents birth defects", "CDC"}},
	{"plantain", nutrientTip{"potassium", "regulates blood pressure", "AHA"}},
	{"sweet potato", nutrientTip{"beta-carotene", "supports vision development", "NIH"}},
	{"bean", nutrientTip{"fiber", "aids digestion", "ACOG"}},
	{"lentil", nutrientTip{"iron", "is essential for preventing anemia", "ACOG guidelines"}},
	{"quinoa", nutrientTip{"protein", "provides complete amino acids", "Harvard Health"}},
	{"brown rice", nutrientTip{"complex carbs", "provide sustained energy", "Mayo Clinic"}},
	{"fonio", nutrientTip{"iron", "is essential for preventing anemia", "ACOG guidelines"}},
	{"coconut", nutrientTip{"healthy fats", "support nutrient absorption", "NIH"}},
	{"peanut", nutrientTip{"protein", "supports growth", "ACOG"}},
	{"cashew", nutrientTip{"magnesium", "supports bone health", "NIH"}},
	{"yogurt", nutrientTip{"calcium", "supports bone development", "ACOG"}},
}

// genericTip is the default when no ingredient or condition matches.
const genericTip = "Remember to stay hydrated throughout the day for optimal nutrient absorption and regularity."

// TipFor selects a tip for one meal: ingredient keyword match first, then
// the profile's condition, then trimester, then the generic fallback.
func TipFor(profile *database.Profile, meal *Meal) string {
	haystack := strings.ToLower(meal.Name + " " + meal.Description + " " + meal.Recipe)

	for _, entry := range ingredientTips {
		if strings.Contains(haystack, entry.Keyword) {
			return entry.Tip.String()
		}
	}

	for _, cond := range profile.Conditions {
		c := strings.ToLower(cond)
		switch {
		case strings.Contains(c, "diabetes"):
			return nutrientTip{"fiber", "helps regulate blood sugar", "ADA"}.String()
		case strings.Contains(c, "anemia"), strings.Contains(c, "iron"):
			return nutrientTip{"iron", "prevents pregnancy anemia", "ACOG"}.String()
		case strings.Contains(c, "hypertension"):
			return nutrientTip{"potassium", "regulates blood pressure", "AHA"}.String()
		}
	}

	if strings.Contains(strings.ToLower(profile.Trimester), "third") || strings.TrimSpace(profile.Trimester) == "3" {
		return nutrientTip{"calcium", "supports final bone development", "ACOG"}.String()
	}

	return genericTip
}
