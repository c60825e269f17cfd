// internal/session/console_test.go
package session

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "meal-planner/internal/errors"
	"meal-planner/internal/models"
)

func TestParseBudget(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"25", 25, true},
		{"$12.50", 12.5, true},
		{"  $ 8 ", 8, true},
		{"0", 0, false},
		{"-4", 0, false},
		{"cheap", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"", 0, false},
		{"$", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseBudget(tt.in)
			if !tt.valid {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConsole_Satisfied(t *testing.T) {
	tests := map[string]bool{
		"yes":   true,
		"Y":     true,
		" YES ": true,
		"yeah":  false,
		"no":    false,
		"":      false,
	}

	for answer, want := range tests {
		c := NewConsole(strings.NewReader(answer+"\n"), &strings.Builder{})
		got, err := c.Satisfied()
		require.NoError(t, err)
		assert.Equal(t, want, got, "answer %q", answer)
	}
}

func TestConsole_EOFAnswers(t *testing.T) {
	c := NewConsole(strings.NewReader(""), &strings.Builder{})

	_, err := c.Budget()
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	diets, err := c.Diets()
	require.NoError(t, err)
	assert.Equal(t, []string{}, diets)

	satisfied, err := c.Satisfied()
	require.NoError(t, err)
	assert.False(t, satisfied)

	comments, err := c.Comments()
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestConsole_Report(t *testing.T) {
	out := &strings.Builder{}
	c := NewConsole(strings.NewReader(""), out)

	c.Report([]models.Meal{
		{Title: "Chicken Bowl", Price: 12.5, Diets: []string{"high-protein", "gluten-free"}, SourceURL: "http://example.com/1"},
		{Title: "Toast", Diets: []string{}},
	})

	report := out.String()
	assert.Contains(t, report, "1. Chicken Bowl")
	assert.Contains(t, report, "Price: $12.50")
	assert.Contains(t, report, "Diet tags: high-protein, gluten-free")
	assert.Contains(t, report, "Source: http://example.com/1")
	assert.Contains(t, report, "2. Toast")
	assert.Contains(t, report, "Diet tags: none")
	assert.Contains(t, report, "Source: n/a")
}

func TestBuildPrompt(t *testing.T) {
	p := BuildPrompt(20, []string{"vegan", "nut-free"}, 3)
	assert.Contains(t, p, "Suggest 3 meals")
	assert.Contains(t, p, "$20.00")
	assert.Contains(t, p, "vegan, nut-free")
	for _, label := range []string{"Title:", "Estimated Price:", "Diet Tags:", "Source URL:"} {
		assert.Contains(t, p, label)
	}

	assert.Contains(t, BuildPrompt(10, nil, 0), "Suggest 5 meals")
	assert.Contains(t, BuildPrompt(10, nil, 0), "no dietary restrictions")
}

func TestConsole_LongComment(t *testing.T) {
	long := strings.Repeat("more soup, ", 20000)
	c := NewConsole(strings.NewReader(long+"\r\n"), &strings.Builder{})

	comments, err := c.Comments()

	require.NoError(t, err)
	assert.Equal(t, strings.TrimSpace(long), comments)
	assert.Greater(t, len(comments), 64*1024)
}

func TestConsole_LastLineWithoutNewline(t *testing.T) {
	c := NewConsole(strings.NewReader("40\nno newline here"), &strings.Builder{})

	budget, err := c.Budget()
	require.NoError(t, err)
	assert.Equal(t, 40.0, budget)

	comments, err := c.Comments()
	require.NoError(t, err)
	assert.Equal(t, "no newline here", comments)
}
