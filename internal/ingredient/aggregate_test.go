package ingredient

import "testing"

func amt(v float64) *float64 { return &v }

func TestAggregateMergesCompatibleUnits(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Pyttipanna", Name: "Potatis", Amount: amt(1), Unit: "kg"},
		{MealID: "m2", MealName: "Potatismos", Name: "Potatis", Amount: amt(500), Unit: "g"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.CanonicalName != "potatis" {
		t.Errorf("expected canonical name 'potatis', got %q", it.CanonicalName)
	}
	if it.Amount == nil || *it.Amount != 1500 {
		t.Errorf("expected amount 1500, got %v", it.Amount)
	}
	if it.Unit != "g" {
		t.Errorf("expected unit 'g', got %q", it.Unit)
	}
	if it.Unresolved {
		t.Error("fully quantified item should not be unresolved")
	}
	if len(it.MealIDs) != 2 || len(it.Breakdown) != 2 {
		t.Errorf("expected 2 source meals and 2 breakdown lines, got %d and %d", len(it.MealIDs), len(it.Breakdown))
	}
}

func TestAggregateVolumeConversion(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Pannkakor", Name: "Mjölk", Amount: amt(1), Unit: "l"},
		{MealID: "m2", MealName: "Gratäng", Name: "Mjölk", Amount: amt(250), Unit: "ml"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Amount == nil || *items[0].Amount != 1250 || items[0].Unit != "ml" {
		t.Errorf("expected 1250 ml, got %v %s", items[0].Amount, items[0].Unit)
	}
}

func TestAggregateUnresolvedAttachesWithoutChangingTotal(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Grytan", Name: "Kyckling", Amount: amt(500), Unit: "g"},
		{MealID: "m2", MealName: "Wok", Name: "Chicken"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Amount == nil || *it.Amount != 500 || it.Unit != "g" {
		t.Errorf("unresolved row must not change the quantified total, got %v %s", it.Amount, it.Unit)
	}
	if !it.Unresolved {
		t.Error("item with an unresolved contributor should be flagged unresolved")
	}
	if len(it.MealIDs) != 2 {
		t.Errorf("expected both meals tracked as sources, got %v", it.MealIDs)
	}
}

func TestAggregateUnresolvedWithoutSibling(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Sallad", Name: "Fetaost"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	it := items[0]
	if it.Amount != nil || it.Unit != "" {
		t.Errorf("expected nil amount and empty unit, got %v %q", it.Amount, it.Unit)
	}
	if !it.Unresolved {
		t.Error("expected unresolved flag")
	}
}

func TestAggregateSkipsNoiseRows(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Grytan", Name: "null"},
		{MealID: "m1", MealName: "Grytan", Name: "  "},
		{MealID: "m1", MealName: "Grytan", Name: "Okänd"},
		{MealID: "m1", MealName: "Grytan", Name: "Lök", Amount: amt(1), Unit: "st"},
	})

	if len(items) != 1 {
		t.Fatalf("expected noise rows to be skipped, got %d items", len(items))
	}
	if items[0].CanonicalName != "lök" {
		t.Errorf("expected 'lök', got %q", items[0].CanonicalName)
	}
}

func TestAggregateUnknownUnitsMergeOnlyExactly(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "Soppa", Name: "Buljong", Amount: amt(1), Unit: "burk"},
		{MealID: "m2", MealName: "Risotto", Name: "Buljong", Amount: amt(2), Unit: "burk"},
		{MealID: "m3", MealName: "Gryta", Name: "Buljong", Amount: amt(1), Unit: "tärning"},
	})

	if len(items) != 2 {
		t.Fatalf("expected 2 items (one per distinct unit), got %d", len(items))
	}
	seen := map[string]float64{}
	for _, it := range items {
		seen[it.Unit] = *it.Amount
	}
	if seen["burk"] != 3 || seen["tärning"] != 1 {
		t.Errorf("unexpected merge result: %v", seen)
	}
}

func TestAggregateRoundsToTwoDecimals(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "A", Name: "Grädde", Amount: amt(0.1), Unit: "l"},
		{MealID: "m2", MealName: "B", Name: "Grädde", Amount: amt(33.333), Unit: "ml"},
	})

	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if *items[0].Amount != 133.33 {
		t.Errorf("expected 133.33, got %v", *items[0].Amount)
	}
}

func TestAggregateNoDuplicateMergeKeys(t *testing.T) {
	rows := []Row{
		{MealID: "m1", MealName: "A", Name: "Potatis", Amount: amt(1), Unit: "kg"},
		{MealID: "m2", MealName: "B", Name: "potatisar", Amount: amt(300), Unit: "g"},
		{MealID: "m3", MealName: "C", Name: "Potatis"},
		{MealID: "m4", MealName: "D", Name: "Lök", Amount: amt(2), Unit: "st"},
		{MealID: "m5", MealName: "E", Name: "Mjölk", Amount: amt(2), Unit: "dl"},
		{MealID: "m6", MealName: "F", Name: "Mjölk", Amount: amt(3), Unit: "dl"},
	}

	items := Aggregate(rows)
	seen := map[string]bool{}
	for _, it := range items {
		key := it.CanonicalName + "|" + it.Unit
		if seen[key] {
			t.Errorf("duplicate merge key %q in output", key)
		}
		seen[key] = true
	}
}

func TestAggregateSortsByDisplayNameSwedish(t *testing.T) {
	items := Aggregate([]Row{
		{MealID: "m1", MealName: "A", Name: "Örtsalt", Amount: amt(1), Unit: "tsk"},
		{MealID: "m2", MealName: "B", Name: "Ägg", Amount: amt(6), Unit: "st"},
		{MealID: "m3", MealName: "C", Name: "Zucchini", Amount: amt(1), Unit: "st"},
		{MealID: "m4", MealName: "D", Name: "Apelsin", Amount: amt(2), Unit: "st"},
	})

	var got []string
	for _, it := range items {
		got = append(got, it.DisplayName)
	}
	// Swedish alphabet orders å/ä/ö after z.
	want := []string{"Apelsin", "Zucchini", "Ägg", "Örtsalt"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
}
