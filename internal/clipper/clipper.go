package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"veckomat/internal/llm"
	"veckomat/internal/meal"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
)

// Clipper imports recipe web pages as meal-library drafts.
type Clipper struct {
	meals   *meal.Repository
	textGen llm.TextGenerator
}

// extractedRecipe is the data structured by the AI.
type extractedRecipe struct {
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	Servings    int      `json:"servings"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(meals *meal.Repository, textGen llm.TextGenerator) *Clipper {
	return &Clipper{meals: meals, textGen: textGen}
}

// ImportURL fetches the URL, extracts the recipe using AI, and saves it as a
// meal draft in the user's library. Ingredient lines land as raw text; the
// shopping-list path drafts them into structured rows lazily.
func (c *Clipper) ImportURL(ctx context.Context, userID, url string) (*meal.Meal, error) {
	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`
You are a recipe extraction expert. Extract the recipe details from the following page text.
Return the result strictly as a JSON object with this structure:
{
  "name": "Dish name",
  "ingredients": ["raw ingredient line 1", "raw ingredient line 2", ...],
  "servings": 4
}

"servings" is the number of portions the recipe states, or 4 when unstated.

Page text:
%s
`, content)

	response, err := c.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ai extraction failed: %w", err)
	}

	var extracted extractedRecipe
	if err := json.Unmarshal([]byte(cleanJSON(response)), &extracted); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w. Response: %s", err, response)
	}
	if strings.TrimSpace(extracted.Name) == "" {
		return nil, fmt.Errorf("no recipe found on page")
	}
	if extracted.Servings < 1 {
		extracted.Servings = 4
	}

	m := &meal.Meal{
		ID:              uuid.NewString(),
		UserID:          userID,
		Name:            strings.TrimSpace(extracted.Name),
		DefaultServings: extracted.Servings,
		RawIngredients:  extracted.Ingredients,
	}
	if err := c.meals.Save(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save imported meal: %w", err)
	}
	return m, nil
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save LLM tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	return doc.Find("body").Text(), nil
}

func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
