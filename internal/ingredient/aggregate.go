package ingredient

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Row is one per-meal ingredient line handed to the aggregator. Amounts are
// expected to be pre-scaled to the day's servings by the caller.
type Row struct {
	MealID        string
	MealName      string
	Name          string
	CanonicalName string
	Amount        *float64
	Unit          string
}

// Item is one consolidated shopping-list entry. Amount is nil when the
// quantity could not be resolved from any contributing row.
type Item struct {
	CanonicalName string
	DisplayName   string
	Amount        *float64
	Unit          string
	Unresolved    bool
	MealIDs       []string
	MealNames     []string
	Breakdown     []string
}

// baseConversions maps convertible units onto a family base unit. Everything
// else merges only with an identical unit.
var baseConversions = map[string]struct {
	base   string
	factor float64
}{
	"g":  {"g", 1},
	"kg": {"g", 1000},
	"ml": {"ml", 1},
	"l":  {"ml", 1000},
}

type mergeKey struct {
	canonical string
	unit      string
}

// Aggregate merges per-meal ingredient rows into one consolidated list.
// Quantified rows (numeric amount plus unit) are unit-converted and summed per
// (canonicalName, unit); rows missing amount or unit attach to an existing
// bucket of the same ingredient as unresolved, or form their own unresolved
// entry. The result is ordered by display name using Swedish collation.
func Aggregate(rows []Row) []Item {
	buckets := make(map[mergeKey]*Item)
	byCanonical := make(map[string][]*Item)
	var order []*Item
	var unresolved []Row

	add := func(key mergeKey, it *Item) {
		buckets[key] = it
		byCanonical[it.CanonicalName] = append(byCanonical[it.CanonicalName], it)
		order = append(order, it)
	}

	for _, row := range rows {
		canonical := row.CanonicalName
		if canonical == "" {
			canonical = NormalizeName(row.Name)
		}
		if IsNonIngredient(canonical) || strings.TrimSpace(row.Name) == "" {
			continue
		}
		row.CanonicalName = canonical

		unit := NormalizeUnit(row.Unit)
		if row.Amount == nil || unit == "" {
			unresolved = append(unresolved, row)
			continue
		}

		amount := *row.Amount
		if conv, ok := baseConversions[unit]; ok {
			amount *= conv.factor
			unit = conv.base
		}

		key := mergeKey{canonical: canonical, unit: unit}
		it, ok := buckets[key]
		if !ok {
			it = &Item{
				CanonicalName: canonical,
				DisplayName:   strings.TrimSpace(row.Name),
				Unit:          unit,
			}
			add(key, it)
		}
		total := amount
		if it.Amount != nil {
			total += *it.Amount
		}
		it.Amount = &total
		attachSource(it, row, formatBreakdown(row.MealName, amount, unit))
	}

	// Unresolved rows ride along on an existing bucket for the same
	// ingredient when one exists; a known quantity is never overwritten by
	// "unknown".
	for _, row := range unresolved {
		if siblings, ok := byCanonical[row.CanonicalName]; ok {
			it := siblings[0]
			it.Unresolved = true
			attachSource(it, row, formatBreakdown(row.MealName, 0, ""))
			continue
		}
		it := &Item{
			CanonicalName: row.CanonicalName,
			DisplayName:   strings.TrimSpace(row.Name),
			Unresolved:    true,
		}
		add(mergeKey{canonical: row.CanonicalName}, it)
		attachSource(it, row, formatBreakdown(row.MealName, 0, ""))
	}

	items := make([]Item, 0, len(order))
	for _, it := range order {
		if it.Amount != nil {
			rounded := math.Round(*it.Amount*100) / 100
			it.Amount = &rounded
		}
		items = append(items, *it)
	}

	c := collate.New(language.Swedish)
	sort.SliceStable(items, func(i, j int) bool {
		return c.CompareString(items[i].DisplayName, items[j].DisplayName) < 0
	})
	return items
}

func attachSource(it *Item, row Row, breakdown string) {
	if !containsString(it.MealIDs, row.MealID) {
		it.MealIDs = append(it.MealIDs, row.MealID)
	}
	if !containsString(it.MealNames, row.MealName) {
		it.MealNames = append(it.MealNames, row.MealName)
	}
	if breakdown != "" && !containsString(it.Breakdown, breakdown) {
		it.Breakdown = append(it.Breakdown, breakdown)
	}
}

func formatBreakdown(mealName string, amount float64, unit string) string {
	if mealName == "" {
		return ""
	}
	if unit == "" {
		return fmt.Sprintf("%s: okänd mängd", mealName)
	}
	return fmt.Sprintf("%s: %s %s", mealName, strconv.FormatFloat(amount, 'f', -1, 64), unit)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
