package planner

import (
	"math/rand"

	"veckomat/internal/meal"
)

// Warning tags emitted when selection had to relax its constraints.
const (
	WarnIncludedRecent        = "included_recent_meal"
	WarnRelaxedFavoriteStreak = "relaxed_favorite_streak"
	WarnRepeatedSmallLibrary  = "repeated_meal_due_to_small_library"
)

// Rand is the randomness source the selector draws from. It is injectable so
// weighting and relaxation order can be tested with deterministic sequences.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// NewRand returns the default uniform randomness source.
func NewRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// Selection is the result of a constrained selection run. Warnings are
// advisory, never errors: the product favors always producing a plan over
// perfect variety.
type Selection struct {
	Selected []meal.Meal
	Warnings []string
}

// voteWeight derives a sampling weight from a meal's net vote delta: liked
// meals surface earlier, disliked ones later, without hard guarantees.
func voteWeight(m *meal.Meal) float64 {
	switch net := m.NetVotes(); {
	case net > 0:
		return 2
	case net < 0:
		return 0.5
	default:
		return 1
	}
}

// weightedOrder orders candidates by roulette-wheel sampling without
// replacement: draw uniformly in [0, totalWeight), walk the remaining pool
// accumulating weights, and splice out the first candidate whose cumulative
// weight meets the draw.
func weightedOrder(pool []meal.Meal, rng Rand) []meal.Meal {
	remaining := append([]meal.Meal(nil), pool...)
	ordered := make([]meal.Meal, 0, len(remaining))

	for len(remaining) > 0 {
		total := 0.0
		for i := range remaining {
			total += voteWeight(&remaining[i])
		}

		draw := rng.Float64() * total
		cumulative := 0.0
		picked := len(remaining) - 1
		for i := range remaining {
			cumulative += voteWeight(&remaining[i])
			if draw < cumulative {
				picked = i
				break
			}
		}

		ordered = append(ordered, remaining[picked])
		remaining = append(remaining[:picked], remaining[picked+1:]...)
	}
	return ordered
}

// SelectWithConstraints picks count meals from the library while avoiding
// recent repeats and blocked favorites where possible. Constraints relax in
// tiers rather than failing: strict candidates first, then recently used
// ones, then blocked favorites, and finally round-robin repetition when the
// library is smaller than the week. An empty library or non-positive count
// yields an empty selection with no warnings.
func SelectWithConstraints(library []meal.Meal, count int, recentIDs, blockedFavoriteIDs map[string]bool, rng Rand) Selection {
	if len(library) == 0 || count <= 0 {
		return Selection{}
	}

	type tier struct {
		meals   []meal.Meal
		warning string
	}

	// Ordered relaxation tiers, each a predicate-filtered slice of the
	// library. Tier order is the whole algorithm: strict → recent → favorite.
	tiers := []tier{
		{warning: ""},
		{warning: WarnIncludedRecent},
		{warning: WarnRelaxedFavoriteStreak},
	}
	for _, m := range library {
		switch {
		case blockedFavoriteIDs[m.ID]:
			tiers[2].meals = append(tiers[2].meals, m)
		case recentIDs[m.ID]:
			tiers[1].meals = append(tiers[1].meals, m)
		default:
			tiers[0].meals = append(tiers[0].meals, m)
		}
	}

	var selected []meal.Meal
	var warnings []string
	seen := make(map[string]bool)

	for _, t := range tiers {
		if len(selected) >= count {
			break
		}
		for _, m := range weightedOrder(t.meals, rng) {
			if len(selected) >= count {
				break
			}
			if seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			selected = append(selected, m)
			if t.warning != "" && !containsWarning(warnings, t.warning) {
				warnings = append(warnings, t.warning)
			}
		}
	}

	// Library smaller than the week: cycle what we have round-robin.
	if len(selected) < count {
		cycle := selected
		if len(cycle) == 0 {
			cycle = library
		}
		base := append([]meal.Meal(nil), cycle...)
		for i := 0; len(selected) < count; i++ {
			selected = append(selected, base[i%len(base)])
		}
		warnings = append(warnings, WarnRepeatedSmallLibrary)
	}

	return Selection{Selected: selected, Warnings: warnings}
}

// SelectMeals is the unweighted variant used for ad-hoc single-day swaps: a
// uniform shuffle of the non-excluded pool, falling back to the full library
// when exclusions remove everything, and cycling when count exceeds the pool.
func SelectMeals(library []meal.Meal, count int, excludeIDs map[string]bool, rng Rand) []meal.Meal {
	if len(library) == 0 || count <= 0 {
		return nil
	}

	var pool []meal.Meal
	for _, m := range library {
		if !excludeIDs[m.ID] {
			pool = append(pool, m)
		}
	}
	if len(pool) == 0 {
		pool = append([]meal.Meal(nil), library...)
	}

	shuffled := append([]meal.Meal(nil), pool...)
	for i := len(shuffled) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	selected := make([]meal.Meal, 0, count)
	for i := 0; i < count; i++ {
		selected = append(selected, shuffled[i%len(shuffled)])
	}
	return selected
}

func containsWarning(warnings []string, w string) bool {
	for _, existing := range warnings {
		if existing == w {
			return true
		}
	}
	return false
}
