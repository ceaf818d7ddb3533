package dialogue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"mamamind/internal/database"
	"mamamind/internal/format"
	"mamamind/internal/planner"
	"mamamind/internal/sonar"
	"mamamind/internal/utility"
)

const planCacheSize = 256

// Store is the persistence surface the engine needs. *database.Queries
// satisfies it.
type Store interface {
	LoadUserState(ctx context.Context, phone string) (*database.Profile, *database.Session, error)
	SaveUserState(ctx context.Context, p *database.Profile, s *database.Session) error
	NextWeekNumber(ctx context.Context, phone string) (int, error)
	SaveMealPlan(ctx context.Context, rec *database.MealPlanRecord) error
	GetMealPlan(ctx context.Context, planID string) (*database.MealPlanRecord, error)
	LogConversation(ctx context.Context, phone, message, response string) error
}

// Generator produces meal plans and Q&A answers. *planner.Planner satisfies it.
type Generator interface {
	GenerateWeeklyPlan(ctx context.Context, log *zerolog.Logger, profile *database.Profile, weekNumber int) (*planner.MealPlan, error)
	AnswerQuestion(ctx context.Context, log *zerolog.Logger, profile *database.Profile, question string) (string, error)
}

// Engine drives one conversation turn at a time. Turns for the same sender
// are serialized with a per-sender lock; different senders proceed
// concurrently.
type Engine struct {
	store Store
	gen   Generator
	fmtr  format.Formatter
	locks utility.KeyedMutex
	plans *lru.Cache[string, *planner.MealPlan]
}

func NewEngine(store Store, gen Generator, fmtr format.Formatter) *Engine {
	cache, err := lru.New[string, *planner.MealPlan](planCacheSize)
	if err != nil {
		panic(fmt.Sprintf("plan cache: %v", err))
	}
	return &Engine{
		store: store,
		gen:   gen,
		fmtr:  fmtr,
		plans: cache,
	}
}

// turn carries the mutable state of a single inbound message while the
// transition logic decides what to reply and where to go next.
type turn struct {
	profile *database.Profile
	session *database.Session
	state   State
	input   Input
	replies []string
	next    State
	// commit is false when the turn must not persist its mutations, e.g.
	// after a transient upstream failure.
	commit bool
}

// HandleMessage processes one inbound WhatsApp message and returns the
// ordered reply chunks to send back. Every path returns at least one chunk.
func (e *Engine) HandleMessage(ctx context.Context, log *zerolog.Logger, sender, body string) []string {
	unlock := e.locks.Lock(sender)
	defer unlock()

	profile, session, err := e.store.LoadUserState(ctx, sender)
	switch {
	case errors.Is(err, database.ErrNotFound):
		profile = &database.Profile{Phone: sender}
		session = &database.Session{State: StateNew.String()}
	case err != nil:
		log.Error().Err(err).Str("sender", sender).Msg("failed to load user state")
		return []string{genericApology()}
	}

	t := &turn{
		profile: profile,
		session: session,
		state:   ParseState(session.State),
		input:   Classify(body),
		next:    ParseState(session.State),
		commit:  true,
	}

	e.transition(ctx, log, t)

	if t.commit {
		t.session.State = t.next.String()
		if err := e.store.SaveUserState(ctx, t.profile, t.session); err != nil {
			log.Error().Err(err).Str("sender", sender).Msg("failed to save user state")
			return []string{genericApology()}
		}
	}

	if err := e.store.LogConversation(ctx, sender, body, strings.Join(t.replies, "\n\n")); err != nil {
		log.Warn().Err(err).Str("sender", sender).Msg("failed to log conversation")
	}

	return t.replies
}

/*=========================== TRANSITIONS ===========================*/

func (e *Engine) transition(ctx context.Context, log *zerolog.Logger, t *turn) {
	// Global commands win over whatever the current state expects.
	if t.input.Class.global() {
		e.handleGlobal(ctx, log, t)
		return
	}

	switch t.state {
	case StateNew:
		// Any first message behaves like a greeting; a returning onboarded
		// user resumes instead of re-onboarding.
		if t.profile.Onboarded() {
			t.reply(welcomeBack())
			t.next = StateOnboardedIdle
			return
		}
		t.reply(onboardingGreeting())
		t.next = StateAwaitingTrimester
	case StateAwaitingTrimester:
		t.profile.Trimester = strings.TrimSpace(t.input.Raw)
		t.reply(askDiet())
		t.next = StateAwaitingDiet
	case StateAwaitingDiet:
		t.profile.DietaryPreference = strings.TrimSpace(t.input.Raw)
		t.reply(askAllergies(t.profile.DietaryPreference))
		t.next = StateAwaitingAllergies
	case StateAwaitingAllergies:
		if t.input.Norm == "none" {
			t.profile.Allergies = nil
		} else {
			t.profile.Allergies = utility.SplitList(t.input.Raw)
		}
		t.reply(askCulture(t.profile.Allergies))
		t.next = StateAwaitingCulture
	case StateAwaitingCulture:
		t.profile.CulturalPreference = strings.TrimSpace(t.input.Raw)
		t.reply(askConditions(t.profile.CulturalPreference))
		t.next = StateAwaitingConditions
	case StateAwaitingConditions:
		t.profile.Conditions = withoutNone(utility.SplitList(t.input.Raw))
		t.reply(askUsagePref(t.profile.Conditions))
		t.next = StateAwaitingUsagePref
	case StateAwaitingUsagePref:
		t.profile.UsagePreference = strings.TrimSpace(t.input.Raw)
		t.reply(profileSummary(t.profile))
		t.next = StateOnboardedIdle
	case StateOnboardedIdle:
		e.answerQuestion(ctx, log, t)
	case StateAwaitingDaySelection:
		e.handleDaySelection(ctx, log, t)
	case StateAwaitingMealSelection:
		e.handleMealSelection(ctx, log, t)
	case StateAwaitingShareConfirm:
		e.handleShareConfirm(t)
	case StateAwaitingRestartConfirm:
		e.handleRestartConfirm(t)
	default:
		t.reply(onboardingGreeting())
		t.next = StateAwaitingTrimester
	}
}

func (e *Engine) handleGlobal(ctx context.Context, log *zerolog.Logger, t *turn) {
	switch t.input.Class {
	case ClassGreeting:
		if t.profile.Onboarded() {
			t.reply(welcomeBack())
			t.next = StateOnboardedIdle
		} else {
			t.reply(onboardingGreeting())
			t.next = StateAwaitingTrimester
		}
	case ClassEnd:
		t.reply(closingAck())
		t.next = StateNew
	case ClassStartOver:
		t.session.PriorState = t.state.String()
		t.reply(restartConfirm())
		t.next = StateAwaitingRestartConfirm
	case ClassUpdatePrefs:
		t.reply("Let's update your preferences. " + askTrimester())
		t.next = StateAwaitingTrimester
	case ClassGeneratePlan:
		e.generatePlan(ctx, log, t)
	}
}

func (e *Engine) handleDaySelection(ctx context.Context, log *zerolog.Logger, t *turn) {
	if t.input.Class != ClassDay {
		e.answerQuestion(ctx, log, t)
		return
	}
	e.selectDay(ctx, log, t)
}

func (e *Engine) handleMealSelection(ctx context.Context, log *zerolog.Logger, t *turn) {
	switch t.input.Class {
	case ClassDay:
		// Re-selecting a day, including the current one, just re-renders it.
		e.selectDay(ctx, log, t)
	case ClassSlot:
		plan := e.activePlan(ctx, log, t)
		if plan == nil {
			t.reply(noPlanYet())
			t.next = StateOnboardedIdle
			return
		}
		day := plan.Day(t.session.SelectedDay)
		if day == nil {
			t.reply("Which day would you like to look at? " + dayMenu(plan))
			t.next = StateAwaitingDaySelection
			return
		}
		meal := day.Meal(t.input.Slot)
		if meal == nil {
			t.reply(e.fmtr.DaySummary(day))
			return
		}
		t.session.SelectedSlot = t.input.Slot
		t.replies = append(t.replies, e.fmtr.MealDetail(day.Day, meal)...)
		t.next = StateAwaitingShareConfirm
	default:
		e.answerQuestion(ctx, log, t)
	}
}

func (e *Engine) handleShareConfirm(t *turn) {
	switch t.input.Class {
	case ClassYes:
		t.session.ClearSelection()
		t.reply(shareAccepted())
		t.next = StateAwaitingDaySelection
	case ClassNo:
		t.session.ClearSelection()
		t.reply(shareDeclined())
		t.next = StateAwaitingDaySelection
	default:
		t.reply(confirmYesNo())
	}
}

func (e *Engine) handleRestartConfirm(t *turn) {
	switch t.input.Class {
	case ClassYes:
		t.profile.Reset()
		t.session.ClearSelection()
		t.session.ActivePlanID = ""
		t.session.PriorState = ""
		t.reply(restartDone())
		t.next = StateNew
	case ClassNo:
		t.next = ParseState(t.session.PriorState)
		t.session.PriorState = ""
		t.reply(restartKept())
	default:
		t.reply(confirmYesNo())
	}
}

/*=========================== PLAN FLOW ===========================*/

func (e *Engine) generatePlan(ctx context.Context, log *zerolog.Logger, t *turn) {
	week, err := e.store.NextWeekNumber(ctx, t.profile.Phone)
	if err != nil {
		log.Error().Err(err).Str("sender", t.profile.Phone).Msg("failed to compute week number")
		t.reply(genericApology())
		t.commit = false
		return
	}

	plan, err := e.gen.GenerateWeeklyPlan(ctx, log, t.profile, week)
	if err != nil {
		if !errors.Is(err, sonar.ErrServiceUnavailable) {
			log.Error().Err(err).Str("sender", t.profile.Phone).Msg("meal plan generation failed")
		}
		t.reply(tryAgainLater())
		t.commit = false
		return
	}

	data, err := json.Marshal(plan)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode meal plan")
		t.reply(genericApology())
		t.commit = false
		return
	}
	rec := &database.MealPlanRecord{
		PlanID:     plan.ID,
		Phone:      t.profile.Phone,
		WeekNumber: plan.WeekNumber,
		PlanData:   data,
	}
	if err := e.store.SaveMealPlan(ctx, rec); err != nil {
		log.Error().Err(err).Str("sender", t.profile.Phone).Msg("failed to save meal plan")
		t.reply(genericApology())
		t.commit = false
		return
	}

	e.plans.Add(plan.ID, plan)
	t.session.ActivePlanID = plan.ID
	t.session.ClearSelection()
	t.reply(e.fmtr.WeekOverview(plan))
	t.next = StateAwaitingDaySelection
}

func (e *Engine) selectDay(ctx context.Context, log *zerolog.Logger, t *turn) {
	plan := e.activePlan(ctx, log, t)
	if plan == nil {
		t.reply(noPlanYet())
		t.next = StateOnboardedIdle
		return
	}
	day := plan.Day(t.input.Day)
	if day == nil {
		t.reply("I couldn't find that day in your plan. " + dayMenu(plan))
		t.next = StateAwaitingDaySelection
		return
	}
	t.session.SelectedDay = t.input.Day
	t.session.SelectedSlot = ""
	t.reply(e.fmtr.DaySummary(day))
	t.next = StateAwaitingMealSelection
}

// activePlan resolves the session's plan reference, via the in-memory cache
// first and the database on a miss. Returns nil when no plan exists.
func (e *Engine) activePlan(ctx context.Context, log *zerolog.Logger, t *turn) *planner.MealPlan {
	id := t.session.ActivePlanID
	if id == "" {
		return nil
	}
	if plan, ok := e.plans.Get(id); ok {
		return plan
	}
	rec, err := e.store.GetMealPlan(ctx, id)
	if err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			log.Error().Err(err).Str("plan_id", id).Msg("failed to load meal plan")
		}
		return nil
	}
	var plan planner.MealPlan
	if err := json.Unmarshal(rec.PlanData, &plan); err != nil {
		log.Error().Err(err).Str("plan_id", id).Msg("stored meal plan is unreadable")
		return nil
	}
	e.plans.Add(id, &plan)
	return &plan
}

/*=========================== Q&A FLOW ===========================*/

func (e *Engine) answerQuestion(ctx context.Context, log *zerolog.Logger, t *turn) {
	answer, err := e.gen.AnswerQuestion(ctx, log, t.profile, t.input.Raw)
	switch {
	case errors.Is(err, sonar.ErrServiceUnavailable):
		t.reply(tryAgainLater())
		t.commit = false
	case err != nil:
		log.Error().Err(err).Str("sender", t.profile.Phone).Msg("question answering failed")
		t.reply(answerUnavailable())
		t.commit = false
	default:
		t.replies = append(t.replies, e.fmtr.Chunks(answer)...)
	}
}

/*=========================== HELPERS ===========================*/

func (t *turn) reply(msg string) {
	t.replies = append(t.replies, msg)
}

func dayMenu(plan *planner.MealPlan) string {
	names := make([]string, len(plan.Days))
	for i, d := range plan.Days {
		names[i] = d.Day
	}
	return "Available days: " + strings.Join(names, ", ") + "."
}

func withoutNone(items []string) []string {
	out := items[:0]
	for _, it := range items {
		if !strings.EqualFold(it, "none") {
			out = append(out, it)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
