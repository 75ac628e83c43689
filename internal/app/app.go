package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"veckomat/internal/clipper"
	"veckomat/internal/config"
	"veckomat/internal/database"
	"veckomat/internal/meal"
	"veckomat/internal/planner"
	"veckomat/internal/shopping"
	"veckomat/internal/signals"
)

// ErrUnauthorized is returned when an operation arrives without user context.
var ErrUnauthorized = errors.New("no user context")

// App holds the application's dependencies and exposes the user-facing
// operations composed from them.
type App struct {
	cfg *config.Config
	db  *database.DB

	meals    *meal.Repository
	plans    *planner.PlanRepository
	signals  *signals.Store
	planSvc  *planner.Service
	shopping *shopping.Builder
	clipper  *clipper.Clipper
}

// NewApp creates and initializes a new App instance.
func NewApp(
	cfg *config.Config,
	db *database.DB,
	meals *meal.Repository,
	plans *planner.PlanRepository,
	sigStore *signals.Store,
	planSvc *planner.Service,
	shoppingBuilder *shopping.Builder,
	recipeClipper *clipper.Clipper,
) *App {
	return &App{
		cfg:      cfg,
		db:       db,
		meals:    meals,
		plans:    plans,
		signals:  sigStore,
		planSvc:  planSvc,
		shopping: shoppingBuilder,
		clipper:  recipeClipper,
	}
}

// GeneratePlan creates (or returns) the plan for the week containing ref, and
// refreshes the derived shopping list. A list-build failure after a
// successful generation is logged, never surfaced: the plan result stands.
func (a *App) GeneratePlan(ctx context.Context, userID string, ref time.Time, force bool) (*planner.GenerateResult, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	result, err := a.planSvc.Generate(ctx, userID, ref, force)
	if err != nil {
		return nil, err
	}

	if result.Created {
		if _, err := a.shopping.BuildForWeek(ctx, userID, ref); err != nil {
			log.Printf("Warning: failed to rebuild shopping list after plan generation: %v", err)
		}
	}
	return result, nil
}

// SwapDay replaces one day's meal with a drawn alternative and refreshes the
// shopping list.
func (a *App) SwapDay(ctx context.Context, userID string, ref time.Time, day time.Weekday) (*planner.WeeklyPlan, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	plan, err := a.planSvc.SwapDay(ctx, userID, ref, day)
	if err != nil {
		return nil, err
	}
	if _, err := a.shopping.BuildForWeek(ctx, userID, ref); err != nil {
		log.Printf("Warning: failed to rebuild shopping list after swap: %v", err)
	}
	return plan, nil
}

// SwapDayWithChoice writes a user-chosen meal into a day slot.
func (a *App) SwapDayWithChoice(ctx context.Context, userID string, ref time.Time, day time.Weekday, mealID string) (*planner.WeeklyPlan, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	plan, err := a.planSvc.SwapDayWithChoice(ctx, userID, ref, day, mealID)
	if err != nil {
		return nil, err
	}
	if _, err := a.shopping.BuildForWeek(ctx, userID, ref); err != nil {
		log.Printf("Warning: failed to rebuild shopping list after swap: %v", err)
	}
	return plan, nil
}

// SetDayServings adjusts one day's servings override and refreshes the list.
func (a *App) SetDayServings(ctx context.Context, userID string, ref time.Time, day time.Weekday, servings int) error {
	if userID == "" {
		return ErrUnauthorized
	}
	if err := a.planSvc.SetDayServings(ctx, userID, ref, day, servings); err != nil {
		return err
	}
	if _, err := a.shopping.BuildForWeek(ctx, userID, ref); err != nil {
		log.Printf("Warning: failed to rebuild shopping list after servings change: %v", err)
	}
	return nil
}

// CurrentPlan returns the plan for the week containing ref, or nil.
func (a *App) CurrentPlan(ctx context.Context, userID string, ref time.Time) (*planner.WeeklyPlan, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return a.plans.GetByUserAndWeek(ctx, userID, planner.WeekStart(ref))
}

// ShoppingList regenerates and returns the week's consolidated list.
func (a *App) ShoppingList(ctx context.Context, userID string, ref time.Time) (*shopping.List, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return a.shopping.BuildForWeek(ctx, userID, ref)
}

// SetItemChecked flips one shopping list item's checked flag.
func (a *App) SetItemChecked(ctx context.Context, userID string, ref time.Time, canonicalName, unit string, checked bool) error {
	if userID == "" {
		return ErrUnauthorized
	}
	return a.shopping.SetItemChecked(ctx, userID, ref, canonicalName, unit, checked)
}

// ListMeals returns the user's meal library.
func (a *App) ListMeals(ctx context.Context, userID string) ([]meal.Meal, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	return a.meals.ListByUser(ctx, userID)
}

// ImportRecipe clips a recipe URL into the user's library.
func (a *App) ImportRecipe(ctx context.Context, userID, url string) (*meal.Meal, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	if a.clipper == nil {
		return nil, fmt.Errorf("recipe import requires a configured AI key")
	}
	return a.clipper.ImportURL(ctx, userID, url)
}

// ResetSignals clears all learned day signals for a user.
func (a *App) ResetSignals(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrUnauthorized
	}
	return a.signals.Reset(ctx, userID)
}
