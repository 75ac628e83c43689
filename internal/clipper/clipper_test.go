package clipper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"veckomat/internal/database"
	"veckomat/internal/meal"
)

type mockTextGenerator struct {
	response    string
	lastPrompt  string
	shouldError bool
}

func (m *mockTextGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	m.lastPrompt = prompt
	if m.shouldError {
		return "", fmt.Errorf("mock ai error")
	}
	return m.response, nil
}

func newTestRepo(t *testing.T) *meal.Repository {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "clipper_test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return meal.NewRepository(db.SQL)
}

func TestImportURL(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`
		<html>
			<head><script>alert('bad');</script></head>
			<body>
				<h1>Köttbullar med mos</h1>
				<div class="ads">Buy stuff!</div>
				<p>500 g köttfärs, 1 kg potatis</p>
				<footer>Copyright 2024</footer>
			</body>
		</html>`))
	}))
	defer ts.Close()

	gen := &mockTextGenerator{response: `{
		"name": "Köttbullar med mos",
		"ingredients": ["500 g köttfärs", "1 kg potatis"],
		"servings": 6
	}`}
	repo := newTestRepo(t)

	m, err := NewClipper(repo, gen).ImportURL(context.Background(), "u1", ts.URL)
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if m.Name != "Köttbullar med mos" {
		t.Errorf("unexpected name %q", m.Name)
	}
	if m.DefaultServings != 6 {
		t.Errorf("expected 6 servings, got %d", m.DefaultServings)
	}
	if len(m.RawIngredients) != 2 {
		t.Errorf("expected 2 raw lines, got %d", len(m.RawIngredients))
	}

	// Noise must be stripped before the text reaches the model.
	if strings.Contains(gen.lastPrompt, "alert('bad')") || strings.Contains(gen.lastPrompt, "Buy stuff!") {
		t.Error("script/ad content leaked into the extraction prompt")
	}
	if !strings.Contains(gen.lastPrompt, "köttfärs") {
		t.Error("page text missing from the extraction prompt")
	}

	// The draft must be persisted in the library.
	stored, err := repo.Get(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("failed to reload meal: %v", err)
	}
	if stored == nil || stored.UserID != "u1" {
		t.Errorf("imported meal not stored for user, got %+v", stored)
	}
}

func TestImportURLExtractionFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html><body>nothing here</body></html>"))
	}))
	defer ts.Close()

	repo := newTestRepo(t)

	if _, err := NewClipper(repo, &mockTextGenerator{shouldError: true}).ImportURL(context.Background(), "u1", ts.URL); err == nil {
		t.Error("expected error when the model fails")
	}
	if _, err := NewClipper(repo, &mockTextGenerator{response: "{}"}).ImportURL(context.Background(), "u1", ts.URL); err == nil {
		t.Error("expected error when no recipe name is extracted")
	}
}

func TestImportURLBadStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	if _, err := NewClipper(newTestRepo(t), &mockTextGenerator{}).ImportURL(context.Background(), "u1", ts.URL); err == nil {
		t.Error("expected error for non-200 response")
	}
}
