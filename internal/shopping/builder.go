package shopping

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"veckomat/internal/ingredient"
	"veckomat/internal/meal"
	"veckomat/internal/planner"
)

// IngredientDrafter turns a meal's free-text ingredient lines into structured
// rows. Implemented by the Gemini-backed drafter; nil disables drafting.
type IngredientDrafter interface {
	DraftIngredients(ctx context.Context, mealName string, rawLines []string) ([]meal.IngredientRow, error)
}

// Builder derives the consolidated shopping list for a planned week.
type Builder struct {
	meals   *meal.Repository
	plans   *planner.PlanRepository
	lists   *Repository
	drafter IngredientDrafter
}

// NewBuilder creates a new Builder. drafter may be nil, in which case meals
// without structured rows degrade to unresolved name-only entries.
func NewBuilder(meals *meal.Repository, plans *planner.PlanRepository, lists *Repository, drafter IngredientDrafter) *Builder {
	return &Builder{
		meals:   meals,
		plans:   plans,
		lists:   lists,
		drafter: drafter,
	}
}

// BuildForWeek regenerates the week's shopping list from the current plan and
// meal library. Checked flags from the previous version of the list are
// carried forward; everything else is rebuilt from scratch.
func (b *Builder) BuildForWeek(ctx context.Context, userID string, weekStart time.Time) (*List, error) {
	weekStart = planner.WeekStart(weekStart)

	plan, err := b.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, planner.ErrPlanNotFound
	}

	mealIDs := make([]string, 0, len(plan.Entries))
	seen := map[string]bool{}
	for _, e := range plan.Entries {
		if !seen[e.MealID] {
			seen[e.MealID] = true
			mealIDs = append(mealIDs, e.MealID)
		}
	}
	planMeals, err := b.meals.GetByIDs(ctx, mealIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*meal.Meal, len(planMeals))
	for i := range planMeals {
		byID[planMeals[i].ID] = &planMeals[i]
	}

	var rows []ingredient.Row
	for _, entry := range plan.Entries {
		m, ok := byID[entry.MealID]
		if !ok {
			log.Printf("Warning: plan references missing meal %s; skipping", entry.MealID)
			continue
		}
		rows = append(rows, b.mealRows(ctx, m, entry.Servings)...)
	}

	items := toItems(ingredient.Aggregate(rows))

	// Carry the checked state forward from the prior version of the list.
	previous, err := b.lists.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if previous != nil {
		checked := make(map[string]bool, len(previous.Items))
		for _, it := range previous.Items {
			if it.Checked {
				checked[it.CanonicalName+"|"+it.Unit] = true
			}
		}
		for i := range items {
			if checked[items[i].CanonicalName+"|"+items[i].Unit] {
				items[i].Checked = true
			}
		}
	}

	return b.lists.Replace(ctx, userID, weekStart, items)
}

// mealRows produces the meal's aggregation rows, scaled from its default
// servings to the day's servings and drafted first when the meal only has
// free-text lines.
func (b *Builder) mealRows(ctx context.Context, m *meal.Meal, servings int) []ingredient.Row {
	structured := m.Ingredients
	if len(structured) == 0 && len(m.RawIngredients) > 0 {
		structured = b.draftRows(ctx, m)
	}

	defaultServings := m.DefaultServings
	if defaultServings < 1 {
		defaultServings = 1
	}
	scale := float64(servings) / float64(defaultServings)

	rows := make([]ingredient.Row, 0, len(structured))
	for _, ing := range structured {
		row := ingredient.Row{
			MealID:        m.ID,
			MealName:      m.Name,
			Name:          ing.Name,
			CanonicalName: ing.CanonicalName,
			Unit:          ing.Unit,
		}
		if ing.Amount != nil {
			scaled := math.Round(*ing.Amount*scale*100) / 100
			row.Amount = &scaled
		}
		rows = append(rows, row)
	}
	return rows
}

// draftRows invokes the drafting collaborator lazily and persists its result
// back into the meal library. A drafting failure degrades to unresolved
// name-only rows rather than failing the whole list.
func (b *Builder) draftRows(ctx context.Context, m *meal.Meal) []meal.IngredientRow {
	if b.drafter != nil {
		drafted, err := b.drafter.DraftIngredients(ctx, m.Name, m.RawIngredients)
		if err == nil && len(drafted) > 0 {
			if err := b.meals.UpdateIngredients(ctx, m.ID, drafted); err != nil {
				log.Printf("Warning: failed to persist drafted ingredients for '%s': %v", m.Name, err)
			}
			return drafted
		}
		if err != nil {
			log.Printf("Warning: ingredient drafting failed for '%s': %v", m.Name, err)
		}
	}

	fallback := make([]meal.IngredientRow, 0, len(m.RawIngredients))
	for _, line := range m.RawIngredients {
		fallback = append(fallback, meal.IngredientRow{Name: line, NeedsReview: true})
	}
	return fallback
}

// SetItemChecked flips one item's checked flag on the stored list.
func (b *Builder) SetItemChecked(ctx context.Context, userID string, weekStart time.Time, canonicalName, unit string, checked bool) error {
	return b.lists.SetItemChecked(ctx, userID, planner.WeekStart(weekStart), canonicalName, unit, checked)
}

func toItems(aggregated []ingredient.Item) []Item {
	items := make([]Item, 0, len(aggregated))
	for _, a := range aggregated {
		items = append(items, Item{
			CanonicalName: a.CanonicalName,
			DisplayName:   a.DisplayName,
			Amount:        a.Amount,
			Unit:          a.Unit,
			Unresolved:    a.Unresolved,
			MealIDs:       a.MealIDs,
			MealNames:     a.MealNames,
			Breakdown:     a.Breakdown,
		})
	}
	return items
}

// FormatAmount renders an item quantity for user-facing output.
func FormatAmount(it *Item) string {
	if it.Amount == nil {
		return "okänd mängd"
	}
	return fmt.Sprintf("%g %s", *it.Amount, it.Unit)
}
