package planner

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"veckomat/internal/database"
)

// HistoryEntry is one append-only record of a meal being assigned to a date.
type HistoryEntry struct {
	ID           int64
	UserID       string
	MealID       string
	WeekStart    time.Time
	DateAssigned time.Time
}

// HistoryRepository is the append-only usage log backing recency and
// frequency signals. Rows are only ever inserted and range-queried.
type HistoryRepository struct {
	db database.DBTX
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(d *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: d}
}

// WithTx returns a repository that runs its statements inside tx.
func (r *HistoryRepository) WithTx(tx *sql.Tx) *HistoryRepository {
	return &HistoryRepository{db: tx}
}

// Insert appends one usage record.
func (r *HistoryRepository) Insert(ctx context.Context, e HistoryEntry) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO meal_history (user_id, meal_id, week_start, date_assigned, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		e.UserID, e.MealID, e.WeekStart, e.DateAssigned, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to insert meal history: %w", err)
	}
	return nil
}

// MealIDsUsedSince returns the set of meals assigned on or after the given
// date. This drives the "recently used" exclusion.
func (r *HistoryRepository) MealIDsUsedSince(ctx context.Context, userID string, since time.Time) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT meal_id FROM meal_history
		WHERE user_id = ? AND date_assigned >= ?`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent meal history: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan meal history row: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// MealIDsByWeek returns the set of meals recorded for one weekly snapshot.
func (r *HistoryRepository) MealIDsByWeek(ctx context.Context, userID string, weekStart time.Time) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT meal_id FROM meal_history
		WHERE user_id = ? AND week_start = ?`, userID, weekStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query weekly meal history: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan meal history row: %w", err)
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

// CountByMealSince returns per-meal assignment counts since the given date,
// typically a trailing four-week window.
func (r *HistoryRepository) CountByMealSince(ctx context.Context, userID string, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT meal_id, COUNT(*) FROM meal_history
		WHERE user_id = ? AND date_assigned >= ?
		GROUP BY meal_id`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count meal history: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, fmt.Errorf("failed to scan meal history count: %w", err)
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
