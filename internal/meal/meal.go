package meal

import "time"

// Complexity buckets meals by how much effort they take on a weeknight.
type Complexity string

const (
	ComplexitySimple  Complexity = "SIMPLE"
	ComplexityMedium  Complexity = "MEDIUM"
	ComplexityComplex Complexity = "COMPLEX"
)

// IngredientRow is one structured ingredient line of a meal. Amount and Unit
// may both be absent, which marks the quantity as unresolved downstream.
type IngredientRow struct {
	Name          string   `json:"name"`
	CanonicalName string   `json:"canonical_name,omitempty"`
	Amount        *float64 `json:"amount,omitempty"`
	Unit          string   `json:"unit,omitempty"`
	Optional      bool     `json:"optional,omitempty"`
	Confidence    float64  `json:"confidence,omitempty"`
	NeedsReview   bool     `json:"needs_review,omitempty"`
}

// Meal is one entry of a user's personal meal library.
type Meal struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id"`
	Name            string          `json:"name"`
	Complexity      Complexity      `json:"complexity"`
	ThumbsUp        int             `json:"thumbs_up"`
	ThumbsDown      int             `json:"thumbs_down"`
	DefaultServings int             `json:"default_servings"`
	RawIngredients  []string        `json:"raw_ingredients,omitempty"`
	Ingredients     []IngredientRow `json:"ingredients,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// NetVotes is the thumbs-up/down delta used as a selection weight signal.
func (m *Meal) NetVotes() int {
	return m.ThumbsUp - m.ThumbsDown
}

// HasStructuredIngredients reports whether the meal already carries rows the
// aggregator can consume, or still needs a drafting pass over its raw lines.
func (m *Meal) HasStructuredIngredients() bool {
	return len(m.Ingredients) > 0
}
