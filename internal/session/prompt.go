// internal/session/prompt.go
package session

import (
	"fmt"
	"strings"
)

// BuildPrompt asks for count meals within budget, answered with the
// labels the parser recognizes.
func BuildPrompt(budget float64, diets []string, count int) string {
	if count <= 0 {
		count = 5
	}

	constraints := "no dietary restrictions"
	if len(diets) > 0 {
		constraints = "these dietary restrictions: " + strings.Join(diets, ", ")
	}

	return fmt.Sprintf(`Suggest %d meals that fit a total budget of $%.2f and respect %s.

Describe each meal in its own block and separate blocks with one blank line.
Use exactly these lines for every meal:
Title: <meal name>
Estimated Price: $<price in dollars>
Diet Tags: <comma-separated tags>
Source URL: <recipe link, or leave empty>

Do not add any other text.`, count, budget, constraints)
}
