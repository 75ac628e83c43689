package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"veckomat/internal/ingredient"
	"veckomat/internal/meal"
)

// TextGenerator is an interface for a client that can generate text from a prompt.
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Drafter turns free-text ingredient lines into structured rows using an LLM.
type Drafter struct {
	textGen TextGenerator
}

// NewDrafter creates a new Drafter instance.
func NewDrafter(textGen TextGenerator) *Drafter {
	return &Drafter{textGen: textGen}
}

type draftedRow struct {
	Name       string   `json:"name"`
	Amount     *float64 `json:"amount"`
	Unit       string   `json:"unit"`
	Optional   bool     `json:"optional"`
	Confidence float64  `json:"confidence"`
}

// DraftIngredients asks the model to structure the raw lines of a meal.
// Rows below the confidence threshold are flagged for review rather than
// dropped; rows with an unusable name are discarded.
func (d *Drafter) DraftIngredients(ctx context.Context, mealName string, rawLines []string) ([]meal.IngredientRow, error) {
	if len(rawLines) == 0 {
		return nil, nil
	}

	prompt := fmt.Sprintf(`
You are an ingredient parsing expert for Swedish home cooking. Parse each raw
ingredient line of the dish "%s" into a structured row.
Return the result strictly as a JSON array with this structure:
[
  {"name": "potatis", "amount": 1, "unit": "kg", "optional": false, "confidence": 0.95},
  ...
]

Rules:
- "amount" is a number or null when the line has no usable quantity.
- "unit" is one of: g, kg, ml, cl, dl, l, st, msk, tsk, krm, klyfta, skiva, förp, pkt — or the literal unit from the line if none fits, or "" when absent.
- "confidence" is your 0..1 certainty for the row as a whole.
- One output row per input line, same order.

Raw lines:
%s

Do not include any other text or formatting in your response.
`, mealName, strings.Join(rawLines, "\n"))

	response, err := d.textGen.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("ingredient drafting failed: %w", err)
	}

	var drafted []draftedRow
	if err := json.Unmarshal([]byte(cleanJSON(response)), &drafted); err != nil {
		return nil, fmt.Errorf("failed to parse drafting response: %w. Response: %s", err, response)
	}

	rows := make([]meal.IngredientRow, 0, len(drafted))
	for _, row := range drafted {
		canonical := ingredient.NormalizeName(row.Name)
		if ingredient.IsNonIngredient(canonical) {
			continue
		}
		rows = append(rows, meal.IngredientRow{
			Name:          strings.TrimSpace(row.Name),
			CanonicalName: canonical,
			Amount:        row.Amount,
			Unit:          ingredient.NormalizeUnit(row.Unit),
			Optional:      row.Optional,
			Confidence:    row.Confidence,
			NeedsReview:   row.Confidence < 0.5,
		})
	}
	return rows, nil
}

// cleanJSON strips markdown code fences models sometimes wrap around JSON.
func cleanJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
