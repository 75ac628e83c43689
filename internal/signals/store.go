package signals

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// EventKind is the type of per-day signal event being recorded.
type EventKind string

const (
	EventShown       EventKind = "shown"
	EventSelected    EventKind = "selected"
	EventSwappedAway EventKind = "swapped_away"
)

// Key identifies one counter row.
type Key struct {
	MealID  string
	Weekday time.Weekday
}

// Counts holds the counters of one (user, meal, weekday) row.
type Counts struct {
	Shown       int
	Selected    int
	SwappedAway int
}

// Store persists per-(user, meal, weekday) signal counters used to bias
// future swap-option ranking.
type Store struct {
	db *sql.DB
}

// NewStore initializes the Store with an existing database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record upserts one signal event. A "selected" event also counts as "shown"
// and refreshes last_shown_at; counters only ever increase.
func (s *Store) Record(ctx context.Context, kind EventKind, userID, mealID string, weekday time.Weekday) error {
	var shown, selected, swapped int
	var touchLastShown bool

	switch kind {
	case EventShown:
		shown, touchLastShown = 1, true
	case EventSelected:
		shown, selected, touchLastShown = 1, 1, true
	case EventSwappedAway:
		swapped = 1
	default:
		return fmt.Errorf("unknown signal event kind %q", kind)
	}

	var lastShown any
	if touchLastShown {
		lastShown = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meal_day_signals (user_id, meal_id, weekday, shown_count, selected_count, swapped_away_count, last_shown_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, meal_id, weekday) DO UPDATE SET
			shown_count = shown_count + excluded.shown_count,
			selected_count = selected_count + excluded.selected_count,
			swapped_away_count = swapped_away_count + excluded.swapped_away_count,
			last_shown_at = COALESCE(excluded.last_shown_at, last_shown_at)`,
		userID, mealID, int(weekday), shown, selected, swapped, lastShown)
	if err != nil {
		return fmt.Errorf("failed to record %s signal for meal %s: %w", kind, mealID, err)
	}
	return nil
}

// Load returns the counters for the given meals, keyed by (meal, weekday).
func (s *Store) Load(ctx context.Context, userID string, mealIDs []string) (map[Key]Counts, error) {
	result := make(map[Key]Counts)
	if len(mealIDs) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(mealIDs)), ",")
	args := []any{userID}
	for _, id := range mealIDs {
		args = append(args, id)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT meal_id, weekday, shown_count, selected_count, swapped_away_count
		FROM meal_day_signals
		WHERE user_id = ? AND meal_id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load day signals: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var mealID string
		var weekday int
		var c Counts
		if err := rows.Scan(&mealID, &weekday, &c.Shown, &c.Selected, &c.SwappedAway); err != nil {
			return nil, fmt.Errorf("failed to scan day signal row: %w", err)
		}
		result[Key{MealID: mealID, Weekday: time.Weekday(weekday)}] = c
	}
	return result, rows.Err()
}

// Reset deletes all signal rows for a user. This backs the explicit
// "reset learning" action and is never part of the normal planning flow.
func (s *Store) Reset(ctx context.Context, userID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meal_day_signals WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("failed to reset day signals for user %s: %w", userID, err)
	}
	return nil
}
