// internal/session/console.go
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	apperrors "meal-planner/internal/errors"
	"meal-planner/internal/models"
	"meal-planner/internal/parser"
)

// Prompter is the interactive surface of a session.
type Prompter interface {
	Budget() (float64, error)
	Diets() ([]string, error)
	Satisfied() (bool, error)
	Comments() (string, error)
	Report(meals []models.Meal)
	Notify(msg string)
}

// Console reads answers line by line from in and writes prompts to out.
// Lines have no length limit.
type Console struct {
	in  *bufio.Reader
	out io.Writer
}

func NewConsole(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewReader(in), out: out}
}

// Budget re-prompts until the answer is a finite positive number. Only a
// closed input ends the loop with an error.
func (c *Console) Budget() (float64, error) {
	for {
		fmt.Fprint(c.out, "What is your budget for these meals? $")
		line, err := c.readLine()
		if err != nil {
			return 0, apperrors.NewInvalidInputErrorFrom(fmt.Errorf("reading budget: %w", err))
		}

		budget, err := ParseBudget(line)
		if err == nil {
			return budget, nil
		}
		var se *apperrors.StandardError
		if errors.As(err, &se) {
			fmt.Fprintf(c.out, "Invalid budget: %s. Please enter a positive number.\n", se.Details)
		}
	}
}

func (c *Console) Diets() ([]string, error) {
	fmt.Fprint(c.out, "Any dietary restrictions? (comma-separated, leave empty for none): ")
	line, err := c.readLine()
	if errors.Is(err, io.EOF) {
		return []string{}, nil
	}
	if err != nil {
		return nil, apperrors.NewInvalidInputErrorFrom(err)
	}
	return parser.SplitList(line), nil
}

// Satisfied counts only "yes" and "y", in any case.
func (c *Console) Satisfied() (bool, error) {
	fmt.Fprint(c.out, "Are you satisfied with these suggestions? (yes/no): ")
	line, err := c.readLine()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.NewInvalidInputErrorFrom(err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "yes", "y":
		return true, nil
	default:
		return false, nil
	}
}

func (c *Console) Comments() (string, error) {
	fmt.Fprint(c.out, "Any comments? ")
	line, err := c.readLine()
	if errors.Is(err, io.EOF) {
		return "", nil
	}
	if err != nil {
		return "", apperrors.NewInvalidInputErrorFrom(err)
	}
	return strings.TrimSpace(line), nil
}

func (c *Console) Report(meals []models.Meal) {
	fmt.Fprintf(c.out, "\nHere are %d meal suggestions:\n", len(meals))
	for i, m := range meals {
		fmt.Fprintf(c.out, "\n%d. %s\n", i+1, m.Title)
		fmt.Fprintf(c.out, "   Price: $%.2f\n", m.Price)
		diets := "none"
		if len(m.Diets) > 0 {
			diets = strings.Join(m.Diets, ", ")
		}
		fmt.Fprintf(c.out, "   Diet tags: %s\n", diets)
		source := m.SourceURL
		if source == "" {
			source = "n/a"
		}
		fmt.Fprintf(c.out, "   Source: %s\n", source)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) Notify(msg string) {
	fmt.Fprintln(c.out, msg)
}

// readLine returns the next line without its terminator. A final line
// without a newline is still returned; io.EOF only means nothing was left.
func (c *Console) readLine() (string, error) {
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// ParseBudget accepts an optional leading "$" and rejects anything that is
// not a finite positive number.
func ParseBudget(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.TrimPrefix(s, "$"))
	if s == "" {
		return 0, apperrors.NewInvalidInputError("budget is empty")
	}

	budget, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("%q is not a number", s))
	}
	if math.IsNaN(budget) || math.IsInf(budget, 0) || budget <= 0 {
		return 0, apperrors.NewInvalidInputError(fmt.Sprintf("%q is not a positive amount", s))
	}
	return budget, nil
}
