// cmd/meal-planner/history_test.go
package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"meal-planner/internal/models"
)

func TestPrintHistory(t *testing.T) {
	out := &strings.Builder{}
	printHistory(out, []*models.SessionRecord{
		{
			Request:  models.Request{ID: 2, Budget: 30, Diets: []string{"vegan"}, CreatedAt: time.Now()},
			Meals:    []models.Meal{{Title: "Tofu Stir Fry", Price: 8.5}},
			Feedback: &models.Feedback{Satisfied: true, Comments: "great"},
		},
		{
			Request: models.Request{ID: 1, Budget: 10, Diets: []string{}, CreatedAt: time.Now()},
		},
	})

	got := out.String()
	assert.Contains(t, got, "#2")
	assert.Contains(t, got, "budget $30.00  diets: vegan")
	assert.Contains(t, got, "- Tofu Stir Fry ($8.50)")
	assert.Contains(t, got, `feedback: satisfied, "great"`)
	assert.Contains(t, got, "diets: none")
	assert.Contains(t, got, "(no meals)")
	assert.Contains(t, got, "feedback: none")
}

func TestPrintHistory_Empty(t *testing.T) {
	out := &strings.Builder{}
	printHistory(out, nil)
	assert.Equal(t, "No sessions recorded yet.\n", out.String())
}
