package meal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Repository is a database-backed repository for the meal library.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(d *sql.DB) *Repository {
	return &Repository{db: d}
}

// Save inserts or updates a meal in the database.
func (r *Repository) Save(ctx context.Context, m *Meal) error {
	rawJSON, err := json.Marshal(m.RawIngredients)
	if err != nil {
		return fmt.Errorf("failed to marshal raw ingredients: %w", err)
	}
	rowsJSON, err := json.Marshal(m.Ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredient rows: %w", err)
	}

	now := time.Now().UTC()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
	if m.DefaultServings <= 0 {
		m.DefaultServings = 4
	}
	if m.Complexity == "" {
		m.Complexity = ComplexityMedium
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO meals (id, user_id, name, complexity, thumbs_up, thumbs_down, default_servings, raw_ingredients, ingredients, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			complexity = excluded.complexity,
			thumbs_up = excluded.thumbs_up,
			thumbs_down = excluded.thumbs_down,
			default_servings = excluded.default_servings,
			raw_ingredients = excluded.raw_ingredients,
			ingredients = excluded.ingredients,
			updated_at = excluded.updated_at`,
		m.ID, m.UserID, m.Name, string(m.Complexity), m.ThumbsUp, m.ThumbsDown,
		m.DefaultServings, string(rawJSON), string(rowsJSON), m.CreatedAt, m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save meal %s: %w", m.ID, err)
	}
	return nil
}

// Get retrieves a meal by its ID.
func (r *Repository) Get(ctx context.Context, id string) (*Meal, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, complexity, thumbs_up, thumbs_down, default_servings, raw_ingredients, ingredients, created_at, updated_at
		FROM meals WHERE id = ?`, id)

	m, err := scanMeal(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Meal not found
		}
		return nil, fmt.Errorf("failed to get meal by ID: %w", err)
	}
	return m, nil
}

// ListByUser retrieves all meals of a user's library, ordered by name.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]Meal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, complexity, thumbs_up, thumbs_down, default_servings, raw_ingredients, ingredients, created_at, updated_at
		FROM meals WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals for user %s: %w", userID, err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	return meals, rows.Err()
}

// GetByIDs retrieves multiple meals by their IDs.
func (r *Repository) GetByIDs(ctx context.Context, ids []string) ([]Meal, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, user_id, name, complexity, thumbs_up, thumbs_down, default_servings, raw_ingredients, ingredients, created_at, updated_at
		FROM meals WHERE id IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get meals by IDs: %w", err)
	}
	defer rows.Close()

	var meals []Meal
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan meal row: %w", err)
		}
		meals = append(meals, *m)
	}
	return meals, rows.Err()
}

// UpdateIngredients persists drafted ingredient rows back onto a meal.
func (r *Repository) UpdateIngredients(ctx context.Context, id string, ingredients []IngredientRow) error {
	rowsJSON, err := json.Marshal(ingredients)
	if err != nil {
		return fmt.Errorf("failed to marshal ingredient rows: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE meals SET ingredients = ?, updated_at = ? WHERE id = ?`,
		string(rowsJSON), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update ingredients for meal %s: %w", id, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(s rowScanner) (*Meal, error) {
	var m Meal
	var complexity, rawJSON, rowsJSON string
	if err := s.Scan(&m.ID, &m.UserID, &m.Name, &complexity, &m.ThumbsUp, &m.ThumbsDown,
		&m.DefaultServings, &rawJSON, &rowsJSON, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Complexity = Complexity(complexity)
	if err := json.Unmarshal([]byte(rawJSON), &m.RawIngredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal raw ingredients: %w", err)
	}
	if err := json.Unmarshal([]byte(rowsJSON), &m.Ingredients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ingredient rows: %w", err)
	}
	return &m, nil
}
