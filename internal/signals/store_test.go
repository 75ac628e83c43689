package signals

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"veckomat/internal/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.NewDB(filepath.Join(t.TempDir(), "signals_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewStore(db.SQL)
}

func TestRecordAccumulates(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	events := []EventKind{EventShown, EventShown, EventSelected, EventSwappedAway}
	for _, kind := range events {
		if err := store.Record(ctx, kind, "u1", "m1", time.Tuesday); err != nil {
			t.Fatalf("Record(%s) failed: %v", kind, err)
		}
	}

	counts, err := store.Load(ctx, "u1", []string{"m1"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := counts[Key{MealID: "m1", Weekday: time.Tuesday}]

	// A selected event also counts as shown.
	if got.Shown != 3 {
		t.Errorf("Shown = %d, want 3", got.Shown)
	}
	if got.Selected != 1 {
		t.Errorf("Selected = %d, want 1", got.Selected)
	}
	if got.SwappedAway != 1 {
		t.Errorf("SwappedAway = %d, want 1", got.SwappedAway)
	}
}

func TestRecordKeysByMealAndWeekday(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, EventShown, "u1", "m1", time.Monday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, EventShown, "u1", "m1", time.Friday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, EventShown, "u1", "m2", time.Monday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	counts, err := store.Load(ctx, "u1", []string{"m1", "m2"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(counts) != 3 {
		t.Fatalf("expected 3 counter rows, got %d", len(counts))
	}
	for key, c := range counts {
		if c.Shown != 1 {
			t.Errorf("%v: Shown = %d, want 1", key, c.Shown)
		}
	}
}

func TestLoadScopedToUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, EventSelected, "u1", "m1", time.Wednesday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, EventSelected, "u2", "m1", time.Wednesday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	counts, err := store.Load(ctx, "u2", []string{"m1"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	got := counts[Key{MealID: "m1", Weekday: time.Wednesday}]
	if got.Selected != 1 || got.Shown != 1 {
		t.Errorf("u2 counts = %+v, want one selected and one shown", got)
	}
}

func TestRecordUnknownKind(t *testing.T) {
	store := newTestStore(t)

	if err := store.Record(context.Background(), EventKind("liked"), "u1", "m1", time.Monday); err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestReset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Record(ctx, EventShown, "u1", "m1", time.Monday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Record(ctx, EventShown, "u2", "m1", time.Monday); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	if err := store.Reset(ctx, "u1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	counts, err := store.Load(ctx, "u1", []string{"m1"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected no counters for u1 after reset, got %d", len(counts))
	}

	counts, err = store.Load(ctx, "u2", []string{"m1"})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(counts) != 1 {
		t.Errorf("reset must not touch other users, got %d rows for u2", len(counts))
	}
}

func TestLoadEmptyMealList(t *testing.T) {
	store := newTestStore(t)

	counts, err := store.Load(context.Background(), "u1", nil)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(counts) != 0 {
		t.Errorf("expected empty result, got %d rows", len(counts))
	}
}
