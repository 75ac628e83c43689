package planner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"veckomat/internal/meal"
	"veckomat/internal/signals"
)

const (
	// SlotsPerWeek is the number of planned dinners, Monday through Friday.
	SlotsPerWeek = 5

	// RecentLookbackDays is the trailing window that marks a meal as
	// "recently used" for selection purposes.
	RecentLookbackDays = 14

	// DefaultServings is the per-day servings before any override.
	DefaultServings = 4

	// MinServings and MaxServings bound the per-day override.
	MinServings = 1
	MaxServings = 12
)

var (
	// ErrLibraryTooSmall is returned when fewer than SlotsPerWeek meals
	// exist; it is user-actionable and causes no writes.
	ErrLibraryTooSmall = errors.New("meal library too small: at least 5 meals are required")

	// ErrPlanNotFound is returned by operations that require an existing
	// plan for the requested week.
	ErrPlanNotFound = errors.New("no plan exists for this week")

	// ErrNoAlternative is returned when a swap has no meal to offer.
	ErrNoAlternative = errors.New("no alternative meal available for this day")

	// ErrMealNotFound is returned when a referenced meal does not exist or
	// belongs to another user.
	ErrMealNotFound = errors.New("meal not found")
)

// GenerateResult is the outcome of a successful plan generation.
type GenerateResult struct {
	Plan    *WeeklyPlan
	Warning string
	Created bool
}

// Service orchestrates the weekly plan lifecycle: idempotent generation,
// single-day swaps, user-directed swaps, and per-day servings overrides.
type Service struct {
	db      *sql.DB
	meals   *meal.Repository
	plans   *PlanRepository
	history *HistoryRepository
	signals *signals.Store
	rng     Rand
}

// NewService creates a new Service.
func NewService(db *sql.DB, meals *meal.Repository, plans *PlanRepository, history *HistoryRepository, sigStore *signals.Store, rng Rand) *Service {
	if rng == nil {
		rng = NewRand(time.Now().UnixNano())
	}
	return &Service{
		db:      db,
		meals:   meals,
		plans:   plans,
		history: history,
		signals: sigStore,
		rng:     rng,
	}
}

// Generate creates the weekly plan for the week containing weekStart. When a
// plan already exists and force is false the existing plan is returned
// unchanged; repeated calls are free of side effects.
func (s *Service) Generate(ctx context.Context, userID string, weekStart time.Time, force bool) (*GenerateResult, error) {
	weekStart = WeekStart(weekStart)

	existing, err := s.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if existing != nil && !force {
		return &GenerateResult{Plan: existing}, nil
	}

	library, err := s.meals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(library) < SlotsPerWeek {
		return nil, ErrLibraryTooSmall
	}

	recent, err := s.history.MealIDsUsedSince(ctx, userID, weekStart.AddDate(0, 0, -RecentLookbackDays))
	if err != nil {
		return nil, err
	}
	blocked, err := s.blockedFavoriteIDs(ctx, userID, weekStart, library)
	if err != nil {
		return nil, err
	}

	selection := SelectWithConstraints(library, SlotsPerWeek, recent, blocked, s.rng)
	if len(selection.Selected) < SlotsPerWeek {
		return nil, ErrLibraryTooSmall
	}

	plan := &WeeklyPlan{UserID: userID, WeekStart: weekStart}
	for i, day := range Weekdays {
		m := selection.Selected[i]
		plan.Entries = append(plan.Entries, PlanEntry{
			Weekday:  day,
			MealID:   m.ID,
			MealName: m.Name,
			Servings: DefaultServings,
		})
	}

	// Plan, entries, and history rows land in one transaction so a
	// concurrent duplicate request either sees the finished plan or is
	// stopped by the (user_id, week_start) unique index.
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin plan transaction: %w", err)
	}
	defer tx.Rollback()

	txPlans := s.plans.WithTx(tx)
	txHistory := s.history.WithTx(tx)

	if existing != nil {
		if err := txPlans.DeleteByUserAndWeek(ctx, userID, weekStart); err != nil {
			return nil, err
		}
	}
	if err := txPlans.Insert(ctx, plan); err != nil {
		return nil, err
	}
	for _, e := range plan.Entries {
		if err := txHistory.Insert(ctx, HistoryEntry{
			UserID:       userID,
			MealID:       e.MealID,
			WeekStart:    weekStart,
			DateAssigned: DateFor(weekStart, e.Weekday),
		}); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit plan transaction: %w", err)
	}

	for _, e := range plan.Entries {
		if err := s.signals.Record(ctx, signals.EventSelected, userID, e.MealID, e.Weekday); err != nil {
			log.Printf("Warning: failed to record selected signal for meal %s: %v", e.MealID, err)
		}
	}

	return &GenerateResult{
		Plan:    plan,
		Warning: humanizeWarnings(selection.Warnings),
		Created: true,
	}, nil
}

// SwapDay replaces one day's meal with a uniformly drawn alternative that
// avoids the rest of the week and recently used meals.
func (s *Service) SwapDay(ctx context.Context, userID string, weekStart time.Time, day time.Weekday) (*WeeklyPlan, error) {
	weekStart = WeekStart(weekStart)
	if !IsPlannable(day) {
		return nil, fmt.Errorf("weekday %s has no plan slot", day)
	}

	plan, err := s.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	entry := plan.Entry(day)
	if entry == nil {
		return nil, fmt.Errorf("plan has no entry for %s", day)
	}
	outgoing := entry.MealID

	library, err := s.meals.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	avoid, err := s.history.MealIDsUsedSince(ctx, userID, weekStart.AddDate(0, 0, -RecentLookbackDays))
	if err != nil {
		return nil, err
	}
	for _, e := range plan.Entries {
		avoid[e.MealID] = true
	}

	candidates := SelectMeals(library, 1, avoid, s.rng)
	if len(candidates) == 0 || candidates[0].ID == outgoing {
		return nil, ErrNoAlternative
	}
	replacement := candidates[0]

	if err := s.applySwap(ctx, userID, plan, day, &replacement); err != nil {
		return nil, err
	}

	if err := s.signals.Record(ctx, signals.EventShown, userID, replacement.ID, day); err != nil {
		log.Printf("Warning: failed to record shown signal: %v", err)
	}
	if err := s.signals.Record(ctx, signals.EventSwappedAway, userID, outgoing, day); err != nil {
		log.Printf("Warning: failed to record swapped-away signal: %v", err)
	}

	return s.plans.GetByUserAndWeek(ctx, userID, weekStart)
}

// SwapDayWithChoice writes a user-chosen meal into a day slot, bypassing the
// selector entirely.
func (s *Service) SwapDayWithChoice(ctx context.Context, userID string, weekStart time.Time, day time.Weekday, mealID string) (*WeeklyPlan, error) {
	weekStart = WeekStart(weekStart)
	if !IsPlannable(day) {
		return nil, fmt.Errorf("weekday %s has no plan slot", day)
	}

	chosen, err := s.meals.Get(ctx, mealID)
	if err != nil {
		return nil, err
	}
	if chosen == nil || chosen.UserID != userID {
		return nil, ErrMealNotFound
	}

	plan, err := s.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, ErrPlanNotFound
	}
	entry := plan.Entry(day)
	if entry == nil {
		return nil, fmt.Errorf("plan has no entry for %s", day)
	}
	outgoing := entry.MealID

	if err := s.applySwap(ctx, userID, plan, day, chosen); err != nil {
		return nil, err
	}

	if err := s.signals.Record(ctx, signals.EventSelected, userID, chosen.ID, day); err != nil {
		log.Printf("Warning: failed to record selected signal: %v", err)
	}
	if err := s.signals.Record(ctx, signals.EventSwappedAway, userID, outgoing, day); err != nil {
		log.Printf("Warning: failed to record swapped-away signal: %v", err)
	}

	return s.plans.GetByUserAndWeek(ctx, userID, weekStart)
}

// SetDayServings upserts the per-day servings override, clamped to [1,12].
// The assigned meal is untouched.
func (s *Service) SetDayServings(ctx context.Context, userID string, weekStart time.Time, day time.Weekday, servings int) error {
	weekStart = WeekStart(weekStart)
	if !IsPlannable(day) {
		return fmt.Errorf("weekday %s has no plan slot", day)
	}
	if servings < MinServings {
		servings = MinServings
	}
	if servings > MaxServings {
		servings = MaxServings
	}

	plan, err := s.plans.GetByUserAndWeek(ctx, userID, weekStart)
	if err != nil {
		return err
	}
	if plan == nil {
		return ErrPlanNotFound
	}
	return s.plans.SetEntryServings(ctx, plan.ID, day, servings)
}

// applySwap updates the day slot and appends the usage-history row in one
// transaction.
func (s *Service) applySwap(ctx context.Context, userID string, plan *WeeklyPlan, day time.Weekday, incoming *meal.Meal) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin swap transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.plans.WithTx(tx).UpdateEntryMeal(ctx, plan.ID, day, incoming.ID, incoming.Name); err != nil {
		return err
	}
	if err := s.history.WithTx(tx).Insert(ctx, HistoryEntry{
		UserID:       userID,
		MealID:       incoming.ID,
		WeekStart:    plan.WeekStart,
		DateAssigned: DateFor(plan.WeekStart, day),
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit swap transaction: %w", err)
	}
	return nil
}

// blockedFavoriteIDs returns thumbs-up meals that appeared in both of the two
// preceding weekly snapshots — the streak-breaker rule.
func (s *Service) blockedFavoriteIDs(ctx context.Context, userID string, weekStart time.Time, library []meal.Meal) (map[string]bool, error) {
	prev1, err := s.history.MealIDsByWeek(ctx, userID, weekStart.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	prev2, err := s.history.MealIDsByWeek(ctx, userID, weekStart.AddDate(0, 0, -14))
	if err != nil {
		return nil, err
	}

	blocked := make(map[string]bool)
	for i := range library {
		m := &library[i]
		if m.NetVotes() > 0 && prev1[m.ID] && prev2[m.ID] {
			blocked[m.ID] = true
		}
	}
	return blocked, nil
}

func humanizeWarnings(tags []string) string {
	var msgs []string
	for _, tag := range tags {
		switch tag {
		case WarnIncludedRecent:
			msgs = append(msgs, "some recently eaten meals were reused")
		case WarnRelaxedFavoriteStreak:
			msgs = append(msgs, "a favorite appears for the third week in a row")
		case WarnRepeatedSmallLibrary:
			msgs = append(msgs, "meals repeat because the library is small")
		}
	}
	return strings.Join(msgs, "; ")
}
