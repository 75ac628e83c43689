package planner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"veckomat/internal/database"
)

// PlanEntry is one day slot of a weekly plan.
type PlanEntry struct {
	Weekday  time.Weekday `json:"weekday"`
	MealID   string       `json:"meal_id"`
	MealName string       `json:"meal_name"`
	Servings int          `json:"servings"`
}

// WeeklyPlan is the five-dinner plan of one user for one ISO week.
type WeeklyPlan struct {
	ID        int64       `json:"id"`
	UserID    string      `json:"user_id"`
	WeekStart time.Time   `json:"week_start"`
	Entries   []PlanEntry `json:"entries"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Entry returns the slot for a weekday, or nil if the day is unplanned.
func (p *WeeklyPlan) Entry(day time.Weekday) *PlanEntry {
	for i := range p.Entries {
		if p.Entries[i].Weekday == day {
			return &p.Entries[i]
		}
	}
	return nil
}

// PlanRepository is a database-backed repository for weekly plans.
type PlanRepository struct {
	db database.DBTX
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(d *sql.DB) *PlanRepository {
	return &PlanRepository{db: d}
}

// WithTx returns a repository that runs its statements inside tx.
func (r *PlanRepository) WithTx(tx *sql.Tx) *PlanRepository {
	return &PlanRepository{db: tx}
}

// GetByUserAndWeek retrieves a plan with its entries, or nil when the week is
// still unplanned.
func (r *PlanRepository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*WeeklyPlan, error) {
	var p WeeklyPlan
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, created_at, updated_at
		FROM weekly_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart).Scan(&p.ID, &p.UserID, &p.WeekStart, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No plan for this week
		}
		return nil, fmt.Errorf("failed to get weekly plan: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT weekday, meal_id, meal_name, servings
		FROM plan_entries WHERE plan_id = ? ORDER BY weekday`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e PlanEntry
		var weekday int
		if err := rows.Scan(&weekday, &e.MealID, &e.MealName, &e.Servings); err != nil {
			return nil, fmt.Errorf("failed to scan plan entry: %w", err)
		}
		e.Weekday = time.Weekday(weekday)
		p.Entries = append(p.Entries, e)
	}
	return &p, rows.Err()
}

// Insert stores a new plan and its day entries, assigning p.ID.
func (r *PlanRepository) Insert(ctx context.Context, p *WeeklyPlan) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO weekly_plans (user_id, week_start, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		p.UserID, p.WeekStart, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert weekly plan: %w", err)
	}
	p.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read plan id: %w", err)
	}

	for _, e := range p.Entries {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO plan_entries (plan_id, weekday, meal_id, meal_name, servings)
			VALUES (?, ?, ?, ?, ?)`,
			p.ID, int(e.Weekday), e.MealID, e.MealName, e.Servings); err != nil {
			return fmt.Errorf("failed to insert plan entry for %s: %w", e.Weekday, err)
		}
	}
	return nil
}

// DeleteByUserAndWeek removes a plan and (via cascade) its entries.
func (r *PlanRepository) DeleteByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) error {
	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM weekly_plans WHERE user_id = ? AND week_start = ?`,
		userID, weekStart); err != nil {
		return fmt.Errorf("failed to delete weekly plan: %w", err)
	}
	return nil
}

// UpdateEntryMeal rewrites the meal assigned to one day slot.
func (r *PlanRepository) UpdateEntryMeal(ctx context.Context, planID int64, day time.Weekday, mealID, mealName string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plan_entries SET meal_id = ?, meal_name = ?
		WHERE plan_id = ? AND weekday = ?`,
		mealID, mealName, planID, int(day))
	if err != nil {
		return fmt.Errorf("failed to update plan entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check plan entry update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no plan entry for weekday %s", day)
	}
	r.touch(ctx, planID)
	return nil
}

// SetEntryServings upserts the per-day servings override without touching the
// assigned meal.
func (r *PlanRepository) SetEntryServings(ctx context.Context, planID int64, day time.Weekday, servings int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE plan_entries SET servings = ?
		WHERE plan_id = ? AND weekday = ?`,
		servings, planID, int(day))
	if err != nil {
		return fmt.Errorf("failed to set servings: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check servings update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no plan entry for weekday %s", day)
	}
	r.touch(ctx, planID)
	return nil
}

func (r *PlanRepository) touch(ctx context.Context, planID int64) {
	// Best effort; a stale updated_at is not worth failing the operation.
	_, _ = r.db.ExecContext(ctx, `UPDATE weekly_plans SET updated_at = ? WHERE id = ?`,
		time.Now().UTC(), planID)
}
