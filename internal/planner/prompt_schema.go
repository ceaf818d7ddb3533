package planner

/* =================================================================================
							RESPONSE SCHEMA DEFINITION
	This is the structure that tells the model how to format its JSON response
=================================================================================*/

// Schema describes the JSON structure requested from the generative service.
type Schema struct {
	// Type defines the data type (e.g., "object", "array", "string").
	Type string `json:"type"`

	// Description explains the field's purpose to the AI.
	Description string `json:"description,omitempty"`

	// Properties maps field names to their child schemas (used when Type is "object").
	Properties map[string]*Schema `json:"properties,omitempty"`

	// Items defines the schema for elements within an array.
	Items *Schema `json:"items,omitempty"`

	// Required lists the field names the AI MUST include in the response.
	Required []string `json:"required,omitempty"`

	// Enum lists valid values for fields with restricted options.
	Enum []string `json:"enum,omitempty"`
}

/* =================================================================================
						PROMPT ENGINEERING & GUARDRAILS
=================================================================================*/

/*
PlanSystemPrompt defines the persona and guardrails for plan generation.
The provider does not enforce the JSON instruction; the content parser
handles deviations.
*/
const PlanSystemPrompt = `You are an expert prenatal nutritionist creating culturally-aware meal plans for pregnant women.

RESPONSE FORMAT:
- Return ONLY the JSON structure defined in the schema
- Do NOT add markdown, explanations, or preamble
- Every day must contain exactly these five slots: Breakfast, Snack 1, Lunch, Snack 2, Dinner
- Keep descriptions to one or two sentences
- Cite reputable medical or nutrition sources (ACOG, WHO, NIH, Mayo Clinic) for each meal's benefits`

// QASystemPrompt guards the free-form question path.
const QASystemPrompt = `You are a pregnancy nutrition expert. Answer concisely, accurately and reassuringly.
Stay strictly within pregnancy, nutrition and maternal health topics.
If the question is unrelated, politely decline and steer back to nutrition.`

/*
PlanPromptTemplate is the formatted string used to build the weekly plan
request. It injects the full user profile at runtime.
*/
const PlanPromptTemplate = `Generate a detailed 7-day meal plan (Monday through Sunday) for a pregnant woman with the following profile:
- Trimester: %s
- Dietary Preferences: %s
- Allergies/Intolerances: %s
- Cultural Food Preferences: %s
- Pregnancy Conditions: %s

For each day include exactly five meals: Breakfast, Snack 1, Lunch, Snack 2, Dinner.

For each meal:
- Include the name of the dish
- A brief description or key ingredients
- Note any nutritional benefits relevant to pregnancy
- Provide a short recipe
- Cite at least one reputable source
- Tailor to the specified dietary needs and cultural preferences

Format the response as a JSON object matching the requested schema.`

/*
QAPromptTemplate builds the prompt for a single nutrition question,
embedding the relevant profile context.
*/
const QAPromptTemplate = `I need a pregnancy nutrition expert answer for a pregnant woman with the following profile:
- Trimester: %s
- Dietary Preferences: %s
- Allergies/Intolerances: %s
- Pregnancy Conditions: %s

Question: %s

Please provide a concise, evidence-based answer that addresses her specific situation.
Include a reputable medical source if available. Keep your answer under 150 words and
make it both accurate and reassuring.`

/*
PlanSchema describes the exact JSON structure the AI must output for a
weekly plan request.
*/
var PlanSchema = &Schema{
	Type: "object",
	Properties: map[string]*Schema{
		"days": {
			Type:        "array",
			Description: "Exactly 7 entries, Monday through Sunday in order.",
			Items: &Schema{
				Type: "object",
				Properties: map[string]*Schema{
					"day": {
						Type: "string",
						Enum: Days,
					},
					"meals": {
						Type:        "array",
						Description: "Exactly 5 entries, one per slot, in slot order.",
						Items: &Schema{
							Type: "object",
							Properties: map[string]*Schema{
								"slot": {
									Type: "string",
									Enum: Slots,
								},
								"name": {
									Type:        "string",
									Description: "Name of the dish",
								},
								"description": {
									Type:        "string",
									Description: "Brief description or key ingredients",
								},
								"benefits": {
									Type:        "string",
									Description: "Nutritional benefits relevant to pregnancy",
								},
								"recipe": {
									Type:        "string",
									Description: "Short preparation instructions",
								},
								"citations": {
									Type:        "array",
									Description: "Reputable sources backing the benefits",
									Items:       &Schema{Type: "string"},
								},
							},
							Required: []string{"slot", "name", "description"},
						},
					},
				},
				Required: []string{"day", "meals"},
			},
		},
	},
	Required: []string{"days"},
}
