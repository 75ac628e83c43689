package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new shopping list repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// itemSources is the JSON shape of the sources column.
type itemSources struct {
	MealIDs   []string `json:"meal_ids,omitempty"`
	MealNames []string `json:"meal_names,omitempty"`
	Breakdown []string `json:"breakdown,omitempty"`
}

// Replace regenerates the stored list for a week: delete-all, insert-all in
// one transaction. Callers are responsible for carrying checked flags into
// the items beforehand.
func (r *Repository) Replace(ctx context.Context, userID string, weekStart time.Time, items []Item) (*List, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin shopping list transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	var listID int64
	err = tx.QueryRowContext(ctx,
		`SELECT id FROM shopping_lists WHERE user_id = ? AND week_start = ?`,
		userID, weekStart).Scan(&listID)
	switch {
	case err == sql.ErrNoRows:
		res, err := tx.ExecContext(ctx, `
			INSERT INTO shopping_lists (user_id, week_start, created_at, updated_at)
			VALUES (?, ?, ?, ?)`, userID, weekStart, now, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert shopping list: %w", err)
		}
		if listID, err = res.LastInsertId(); err != nil {
			return nil, fmt.Errorf("failed to read shopping list id: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to look up shopping list: %w", err)
	default:
		if _, err := tx.ExecContext(ctx, `DELETE FROM shopping_list_items WHERE list_id = ?`, listID); err != nil {
			return nil, fmt.Errorf("failed to clear shopping list items: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE shopping_lists SET updated_at = ? WHERE id = ?`, now, listID); err != nil {
			return nil, fmt.Errorf("failed to touch shopping list: %w", err)
		}
	}

	for i, it := range items {
		sourcesJSON, err := json.Marshal(itemSources{
			MealIDs:   it.MealIDs,
			MealNames: it.MealNames,
			Breakdown: it.Breakdown,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal item sources: %w", err)
		}

		var amount any
		if it.Amount != nil {
			amount = *it.Amount
		}
		var unit any
		if it.Unit != "" {
			unit = it.Unit
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO shopping_list_items (list_id, position, canonical_name, display_name, amount, unit, unresolved, checked, sources)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			listID, i, it.CanonicalName, it.DisplayName, amount, unit,
			boolToInt(it.Unresolved), boolToInt(it.Checked), string(sourcesJSON)); err != nil {
			return nil, fmt.Errorf("failed to insert shopping list item %q: %w", it.CanonicalName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit shopping list: %w", err)
	}

	return r.GetByUserAndWeek(ctx, userID, weekStart)
}

// GetByUserAndWeek retrieves a stored list, or nil when none exists yet.
func (r *Repository) GetByUserAndWeek(ctx context.Context, userID string, weekStart time.Time) (*List, error) {
	var l List
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, week_start, created_at, updated_at
		FROM shopping_lists WHERE user_id = ? AND week_start = ?`,
		userID, weekStart).Scan(&l.ID, &l.UserID, &l.WeekStart, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // No shopping list found
		}
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT canonical_name, display_name, amount, unit, unresolved, checked, sources
		FROM shopping_list_items WHERE list_id = ? ORDER BY position`, l.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var it Item
		var amount sql.NullFloat64
		var unit sql.NullString
		var unresolved, checked int
		var sourcesJSON string
		if err := rows.Scan(&it.CanonicalName, &it.DisplayName, &amount, &unit, &unresolved, &checked, &sourcesJSON); err != nil {
			return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
		}
		if amount.Valid {
			v := amount.Float64
			it.Amount = &v
		}
		if unit.Valid {
			it.Unit = unit.String
		}
		it.Unresolved = unresolved != 0
		it.Checked = checked != 0

		var sources itemSources
		if err := json.Unmarshal([]byte(sourcesJSON), &sources); err != nil {
			return nil, fmt.Errorf("failed to unmarshal item sources: %w", err)
		}
		it.MealIDs = sources.MealIDs
		it.MealNames = sources.MealNames
		it.Breakdown = sources.Breakdown

		l.Items = append(l.Items, it)
	}
	return &l, rows.Err()
}

// SetItemChecked flips the checked flag of one item, identified by its merge
// key within the user's week.
func (r *Repository) SetItemChecked(ctx context.Context, userID string, weekStart time.Time, canonicalName, unit string, checked bool) error {
	var unitArg any
	if unit != "" {
		unitArg = unit
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE shopping_list_items SET checked = ?
		WHERE canonical_name = ? AND unit IS ?
		  AND list_id = (SELECT id FROM shopping_lists WHERE user_id = ? AND week_start = ?)`,
		boolToInt(checked), canonicalName, unitArg, userID, weekStart)
	if err != nil {
		return fmt.Errorf("failed to set checked state: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to verify checked update: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no shopping list item %q for this week", canonicalName)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
