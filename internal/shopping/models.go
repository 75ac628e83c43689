package shopping

import "time"

// Item is one row of a consolidated shopping list. Amount is nil and
// Unresolved true when no contributing ingredient row carried a usable
// quantity.
type Item struct {
	CanonicalName string   `json:"canonical_name"`
	DisplayName   string   `json:"display_name"`
	Amount        *float64 `json:"amount,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	Unresolved    bool     `json:"unresolved"`
	Checked       bool     `json:"checked"`
	MealIDs       []string `json:"meal_ids,omitempty"`
	MealNames     []string `json:"meal_names,omitempty"`
	Breakdown     []string `json:"breakdown,omitempty"`
}

// List is the derived, disposable shopping list of one user's week. It is
// fully regenerated from the plan; only the checked flags survive a rebuild.
type List struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	WeekStart time.Time `json:"week_start"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
