package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("record not found")

// Queries wraps the connection pool with the application's query set.
type Queries struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Queries {
	return &Queries{pool: pool}
}

// LoadUserState fetches the profile and session for one sender in a single
// row read, so the pair is always observed consistently.
func (q *Queries) LoadUserState(ctx context.Context, phone string) (*Profile, *Session, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT phone_number, trimester, dietary_preference, allergies,
		       cultural_preference, conditions, usage_preference,
		       conversation_state, selected_day, selected_slot, prior_state,
		       active_plan_id, created_at, last_active
		FROM mama_users WHERE phone_number = $1`, phone)

	var p Profile
	var s Session
	err := row.Scan(&p.Phone, &p.Trimester, &p.DietaryPreference, &p.Allergies,
		&p.CulturalPreference, &p.Conditions, &p.UsagePreference,
		&s.State, &s.SelectedDay, &s.SelectedSlot, &s.PriorState,
		&s.ActivePlanID, &p.CreatedAt, &p.LastActive)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load user state: %w", err)
	}
	return &p, &s, nil
}

// SaveUserState upserts the profile and session as one atomic write. There is
// no partial-field persistence; either the whole turn commits or none of it.
func (q *Queries) SaveUserState(ctx context.Context, p *Profile, s *Session) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO mama_users (
			phone_number, trimester, dietary_preference, allergies,
			cultural_preference, conditions, usage_preference,
			conversation_state, selected_day, selected_slot, prior_state,
			active_plan_id, last_active
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,now())
		ON CONFLICT (phone_number) DO UPDATE SET
			trimester = EXCLUDED.trimester,
			dietary_preference = EXCLUDED.dietary_preference,
			allergies = EXCLUDED.allergies,
			cultural_preference = EXCLUDED.cultural_preference,
			conditions = EXCLUDED.conditions,
			usage_preference = EXCLUDED.usage_preference,
			conversation_state = EXCLUDED.conversation_state,
			selected_day = EXCLUDED.selected_day,
			selected_slot = EXCLUDED.selected_slot,
			prior_state = EXCLUDED.prior_state,
			active_plan_id = EXCLUDED.active_plan_id,
			last_active = now()`,
		p.Phone, p.Trimester, p.DietaryPreference, emptyIfNil(p.Allergies),
		p.CulturalPreference, emptyIfNil(p.Conditions), p.UsagePreference,
		s.State, s.SelectedDay, s.SelectedSlot, s.PriorState, s.ActivePlanID)
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	return nil
}

// NextWeekNumber returns the week number the next generated plan should
// carry: one past the highest stored for this sender.
func (q *Queries) NextWeekNumber(ctx context.Context, phone string) (int, error) {
	var week int
	err := q.pool.QueryRow(ctx,
		`SELECT COALESCE(MAX(week_number), 0) + 1 FROM meal_plans WHERE phone_number = $1`,
		phone).Scan(&week)
	if err != nil {
		return 0, fmt.Errorf("next week number: %w", err)
	}
	return week, nil
}

// SaveMealPlan stores a newly generated plan. Prior plans are retained as
// history; the session's active_plan_id decides which one is current.
func (q *Queries) SaveMealPlan(ctx context.Context, rec *MealPlanRecord) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO meal_plans (plan_id, phone_number, week_number, plan_data)
		VALUES ($1, $2, $3, $4)`,
		rec.PlanID, rec.Phone, rec.WeekNumber, rec.PlanData)
	if err != nil {
		return fmt.Errorf("save meal plan: %w", err)
	}
	return nil
}

// GetMealPlan fetches one plan by its identifier.
func (q *Queries) GetMealPlan(ctx context.Context, planID string) (*MealPlanRecord, error) {
	row := q.pool.QueryRow(ctx, `
		SELECT plan_id, phone_number, week_number, plan_data, created_at
		FROM meal_plans WHERE plan_id = $1`, planID)

	var rec MealPlanRecord
	err := row.Scan(&rec.PlanID, &rec.Phone, &rec.WeekNumber, &rec.PlanData, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get meal plan: %w", err)
	}
	return &rec, nil
}

// LogConversation appends one inbound/outbound exchange to the history.
// Failures are logged by the caller and never block the reply.
func (q *Queries) LogConversation(ctx context.Context, phone, message, response string) error {
	_, err := q.pool.Exec(ctx, `
		INSERT INTO conversations (phone_number, message, response)
		VALUES ($1, $2, $3)`, phone, message, response)
	if err != nil {
		return fmt.Errorf("log conversation: %w", err)
	}
	return nil
}

// CountUsers returns the number of known senders, for the status endpoint.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM mama_users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CountPlans returns the number of stored meal plans, for the status endpoint.
func (q *Queries) CountPlans(ctx context.Context) (int64, error) {
	var n int64
	if err := q.pool.QueryRow(ctx, `SELECT COUNT(*) FROM meal_plans`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return n, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
