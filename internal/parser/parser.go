// internal/parser/parser.go

// Package parser turns a provider's free-text answer into meal candidates.
//
// The input is untrusted: blocks are separated by blank lines, each block is
// a handful of "Label: value" lines, and anything the label table does not
// recognize is skipped. Parse is total and never fails.
package parser

import (
	"math"
	"strconv"
	"strings"

	"meal-planner/internal/models"
)

// rule maps one case-insensitive label prefix onto a Meal field.
type rule struct {
	prefix string
	apply  func(m *models.Meal, value string)
}

// labels is tried in order; the first matching prefix wins.
var labels = []rule{
	{prefix: "title:", apply: func(m *models.Meal, v string) { m.Title = v }},
	{prefix: "estimated price", apply: func(m *models.Meal, v string) { m.Price = ParsePrice(v) }},
	{prefix: "diet tags:", apply: func(m *models.Meal, v string) { m.Diets = SplitList(v) }},
	{prefix: "source url:", apply: func(m *models.Meal, v string) { m.SourceURL = v }},
}

// Parse returns one candidate per block that ends up with a non-empty title,
// in order of appearance. RequestID is left zero.
func Parse(text string) []models.Meal {
	var meals []models.Meal
	for _, block := range Blocks(text) {
		if m, ok := ParseBlock(block); ok {
			meals = append(meals, m)
		}
	}
	return meals
}

// Blocks splits text into its non-empty blocks. Any line that is blank after
// trimming ends the current block.
func Blocks(text string) [][]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	var (
		blocks  [][]string
		current []string
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			if len(current) > 0 {
				blocks = append(blocks, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		blocks = append(blocks, current)
	}
	return blocks
}

// ParseBlock classifies every line of one block. ok is false when the block
// has no title.
func ParseBlock(lines []string) (meal models.Meal, ok bool) {
	for _, line := range lines {
		classify(&meal, line)
	}
	return meal, meal.Title != ""
}

func classify(m *models.Meal, line string) bool {
	line = strings.TrimSpace(line)
	lower := strings.ToLower(line)
	for _, r := range labels {
		if strings.HasPrefix(lower, r.prefix) {
			r.apply(m, valueAfterColon(line))
			return true
		}
	}
	return false
}

// valueAfterColon returns the trimmed text after the first colon, or "" if
// the line has none.
func valueAfterColon(line string) string {
	_, value, found := strings.Cut(line, ":")
	if !found {
		return ""
	}
	return strings.TrimSpace(value)
}

// ParsePrice strips dollar signs and parses a decimal. Anything that is not
// a finite, non-negative number yields 0.
func ParsePrice(value string) float64 {
	value = strings.TrimSpace(strings.ReplaceAll(value, "$", ""))
	price, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		return 0
	}
	return price
}

// SplitList splits on commas, trims each entry and drops the empty ones.
// It never returns nil so an empty list persists as [] rather than null.
func SplitList(value string) []string {
	out := []string{}
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
