package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"mamamind/internal/database"
	"mamamind/internal/sonar"
)

// ErrMalformedContent marks a response the parser could not recover any
// structure from. Plan generation resolves it locally with placeholders and
// never surfaces it to the user; it is reported only through logs.
var ErrMalformedContent = errors.New("service content could not be parsed")

// Completer is the slice of the sonar client the planner needs. Tests
// substitute a fake.
type Completer interface {
	Complete(ctx context.Context, log *zerolog.Logger, req sonar.Request) (string, error)
}

// Planner orchestrates plan generation and Q&A against the generative
// service. Both operations are synchronous single attempts at this layer;
// retries live inside the client.
type Planner struct {
	ai Completer
}

func New(ai Completer) *Planner {
	return &Planner{ai: ai}
}

// GenerateWeeklyPlan builds the profile prompt, requests the structured
// plan, and normalizes whatever comes back into a full 7x5 plan with a tip
// attached to every meal. The returned plan always has 35 filled slots.
//
// A sonar.ErrServiceUnavailable passes through so the caller can tell the
// user to retry; malformed content degrades to placeholders instead.
func (p *Planner) GenerateWeeklyPlan(ctx context.Context, log *zerolog.Logger, profile *database.Profile, weekNumber int) (*MealPlan, error) {
	prompt := fmt.Sprintf(PlanPromptTemplate,
		orUnspecified(profile.Trimester),
		orUnspecified(profile.DietaryPreference),
		orUnspecified(strings.Join(profile.Allergies, ", ")),
		orUnspecified(profile.CulturalPreference),
		orUnspecified(strings.Join(profile.Conditions, ", ")),
	)

	raw, err := p.ai.Complete(ctx, log, sonar.Request{
		System: PlanSystemPrompt,
		Prompt: prompt,
		Format: sonar.FormatJSON,
		Schema: PlanSchema,
	})
	if err != nil {
		if errors.Is(err, sonar.ErrServiceUnavailable) {
			return nil, err
		}
		// A 200 with no content is treated like unparseable content: the
		// user still gets a plan, every slot a placeholder.
		log.Warn().Err(err).Msg("Plan response unusable, degrading to placeholders")
		raw = ""
	}

	outcome := ParsePlanResponse(raw)
	if outcome.Kind == Unparseable && raw != "" {
		log.Warn().Err(ErrMalformedContent).Msg("Plan response unparseable, filling all slots with placeholders")
	}
	log.Info().Str("parse_kind", outcome.Kind.String()).Int("week", weekNumber).Msg("Generated weekly plan")

	plan := &MealPlan{
		ID:         uuid.New().String(),
		WeekNumber: weekNumber,
		CreatedAt:  time.Now().UTC(),
	}
	for _, dayName := range Days {
		day := Day{Day: dayName}
		var parsed *Day
		for i := range outcome.Days {
			if outcome.Days[i].Day == dayName {
				parsed = &outcome.Days[i]
				break
			}
		}
		for _, slot := range Slots {
			var meal Meal
			if parsed != nil {
				if m := parsed.Meal(slot); m != nil {
					meal = *m
				}
			}
			fillMeal(&meal, slot)
			meal.Tip = TipFor(profile, &meal)
			day.Meals = append(day.Meals, meal)
		}
		plan.Days = append(plan.Days, day)
	}

	return plan, nil
}

// AnswerQuestion asks the service for a concise, cited prose answer to a
// free-form nutrition question, with the profile context embedded.
func (p *Planner) AnswerQuestion(ctx context.Context, log *zerolog.Logger, profile *database.Profile, question string) (string, error) {
	prompt := fmt.Sprintf(QAPromptTemplate,
		orUnspecified(profile.Trimester),
		orUnspecified(profile.DietaryPreference),
		orUnspecified(strings.Join(profile.Allergies, ", ")),
		orUnspecified(strings.Join(profile.Conditions, ", ")),
		question,
	)

	answer, err := p.ai.Complete(ctx, log, sonar.Request{
		System: QASystemPrompt,
		Prompt: prompt,
		Format: sonar.FormatProse,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(answer), nil
}

func orUnspecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not specified"
	}
	return s
}
