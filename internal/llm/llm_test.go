package llm

import (
	"context"
	"errors"
	"testing"
)

type mockTextGenerator struct {
	response string
	err      error
}

func (m *mockTextGenerator) GenerateContent(_ context.Context, _ string) (string, error) {
	return m.response, m.err
}

func TestDraftIngredients(t *testing.T) {
	gen := &mockTextGenerator{response: "```json\n" + `[
		{"name": "Potatis", "amount": 1, "unit": "kilo", "confidence": 0.95},
		{"name": "Grädde", "amount": 2, "unit": "dl", "confidence": 0.4},
		{"name": "null", "amount": null, "unit": "", "confidence": 0.1},
		{"name": "Salt", "amount": null, "unit": "", "confidence": 0.8}
	]` + "\n```"}

	rows, err := NewDrafter(gen).DraftIngredients(context.Background(), "Gratäng", []string{"1 kilo potatis", "2 dl grädde", "???", "salt"})
	if err != nil {
		t.Fatalf("drafting failed: %v", err)
	}

	// The "null" sentinel row is discarded.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0].CanonicalName != "potatis" || rows[0].Unit != "kg" {
		t.Errorf("expected normalized potatis row, got %+v", rows[0])
	}
	if !rows[1].NeedsReview {
		t.Error("low-confidence row should be flagged for review")
	}
	if rows[2].Amount != nil || rows[2].Unit != "" {
		t.Errorf("expected unresolved salt row, got %+v", rows[2])
	}
}

func TestDraftIngredientsEmptyInput(t *testing.T) {
	rows, err := NewDrafter(&mockTextGenerator{}).DraftIngredients(context.Background(), "Tomt", nil)
	if err != nil || rows != nil {
		t.Errorf("expected no-op for empty input, got %v, %v", rows, err)
	}
}

func TestDraftIngredientsPropagatesErrors(t *testing.T) {
	gen := &mockTextGenerator{err: errors.New("quota exceeded")}
	if _, err := NewDrafter(gen).DraftIngredients(context.Background(), "X", []string{"y"}); err == nil {
		t.Error("expected error from failing generator")
	}

	gen = &mockTextGenerator{response: "not json at all"}
	if _, err := NewDrafter(gen).DraftIngredients(context.Background(), "X", []string{"y"}); err == nil {
		t.Error("expected parse error for malformed response")
	}
}
