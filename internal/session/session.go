// internal/session/session.go

// Package session drives one planning run from input collection through
// feedback, persisting each step as it happens.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	apperrors "meal-planner/internal/errors"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/models"
	"meal-planner/internal/parser"
	"meal-planner/internal/provider"
)

type State int

const (
	CollectingInput State = iota
	RequestPersisted
	Generating
	Parsed
	MealsPersisted
	CollectingFeedback
	Complete
)

func (s State) String() string {
	switch s {
	case CollectingInput:
		return "collecting_input"
	case RequestPersisted:
		return "request_persisted"
	case Generating:
		return "generating"
	case Parsed:
		return "parsed"
	case MealsPersisted:
		return "meals_persisted"
	case CollectingFeedback:
		return "collecting_feedback"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome is how a session ended.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeEmptyResult
	OutcomeProviderFailed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeEmptyResult:
		return "empty_result"
	case OutcomeProviderFailed:
		return "provider_failed"
	default:
		return "failed"
	}
}

// ExitCode maps the outcome to the process exit status.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeCompleted, OutcomeEmptyResult:
		return 0
	default:
		return 1
	}
}

// Store is the persistence the session writes through.
type Store interface {
	CreateRequest(ctx context.Context, budget float64, diets []string) (int64, error)
	CreateMeals(ctx context.Context, requestID int64, meals []models.Meal) error
	CreateFeedback(ctx context.Context, requestID int64, satisfied bool, comments string) error
	Close() error
}

type Config struct {
	ProviderName string
	MealCount    int
}

// Result describes a finished session. Err holds the provider failure for
// OutcomeProviderFailed.
type Result struct {
	ID        string
	RequestID int64
	Meals     []models.Meal
	Satisfied bool
	Outcome   Outcome
	Err       error
}

type Session struct {
	id       string
	cfg      Config
	store    Store
	gen      provider.Generator
	prompter Prompter
	log      logger.Logger
	metrics  *metrics.Recorder
	state    State
}

func New(cfg Config, store Store, gen provider.Generator, prompter Prompter, log logger.Logger, rec *metrics.Recorder) *Session {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		cfg:      cfg,
		store:    store,
		gen:      gen,
		prompter: prompter,
		log:      log.WithFields(map[string]interface{}{"session_id": id}),
		metrics:  rec,
		state:    CollectingInput,
	}
}

func (s *Session) State() State {
	return s.state
}

// Run executes the session. The store is closed before Run returns on
// every path. A non-nil error is fatal: invalid input before anything was
// stored, or a storage failure.
func (s *Session) Run(ctx context.Context) (result *Result, err error) {
	result = &Result{ID: s.id, Outcome: OutcomeFailed}

	defer func() {
		if cerr := s.store.Close(); cerr != nil {
			s.log.WithError(cerr).Warn("Failed to close store", nil)
		}
		s.metrics.SessionFinished(result.Outcome.String())
		s.log.Info("Session finished", map[string]interface{}{
			"outcome":    result.Outcome.String(),
			"request_id": result.RequestID,
			"meals":      len(result.Meals),
		})
	}()

	budget, err := s.prompter.Budget()
	if err != nil {
		return result, err
	}
	diets, err := s.prompter.Diets()
	if err != nil {
		return result, err
	}

	requestID, err := s.store.CreateRequest(ctx, budget, diets)
	if err != nil {
		s.fail("Failed to persist request", err)
		return result, err
	}
	result.RequestID = requestID
	s.transition(RequestPersisted, map[string]interface{}{"request_id": requestID, "budget": budget})

	s.transition(Generating, nil)
	text, err := s.generate(ctx, provider.Prompt{
		Text:   BuildPrompt(budget, diets, s.cfg.MealCount),
		Budget: budget,
		Diets:  diets,
		Count:  s.cfg.MealCount,
	})
	if err != nil {
		s.prompter.Notify("Could not get meal suggestions: " + err.Error())
		s.transition(Complete, map[string]interface{}{"reason": "provider_failed"})
		result.Outcome = OutcomeProviderFailed
		result.Err = err
		return result, nil
	}

	meals := parser.Parse(text)
	s.transition(Parsed, map[string]interface{}{"candidates": len(meals)})
	if len(meals) == 0 {
		s.prompter.Notify("No meal suggestions could be found for your budget and restrictions.")
		s.transition(Complete, map[string]interface{}{"reason": "empty_result"})
		result.Outcome = OutcomeEmptyResult
		return result, nil
	}

	if err := s.store.CreateMeals(ctx, requestID, meals); err != nil {
		s.fail("Failed to persist meals", err)
		return result, err
	}
	for i := range meals {
		meals[i].RequestID = requestID
	}
	result.Meals = meals
	s.metrics.MealsPersisted(len(meals))
	s.transition(MealsPersisted, map[string]interface{}{"meals": len(meals)})

	s.prompter.Report(meals)

	s.transition(CollectingFeedback, nil)
	satisfied, err := s.prompter.Satisfied()
	if err != nil {
		return result, err
	}
	comments, err := s.prompter.Comments()
	if err != nil {
		return result, err
	}

	if err := s.store.CreateFeedback(ctx, requestID, satisfied, comments); err != nil {
		s.fail("Failed to persist feedback", err)
		return result, err
	}
	result.Satisfied = satisfied
	result.Outcome = OutcomeCompleted
	s.transition(Complete, map[string]interface{}{"satisfied": satisfied})

	return result, nil
}

func (s *Session) generate(ctx context.Context, prompt provider.Prompt) (string, error) {
	start := time.Now()
	text, err := s.gen.Generate(ctx, prompt)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		// Bindings not wrapped by provider.New still surface as provider failures.
		if apperrors.CodeOf(err) == "" {
			err = apperrors.NewProviderError(s.cfg.ProviderName, err)
		}
		status = string(apperrors.CodeOf(err))
		s.log.WithError(err).Error("Provider call failed", map[string]interface{}{
			"provider":    s.cfg.ProviderName,
			"duration_ms": elapsed.Milliseconds(),
		})
	} else {
		s.log.Info("Provider call succeeded", map[string]interface{}{
			"provider":    s.cfg.ProviderName,
			"duration_ms": elapsed.Milliseconds(),
			"bytes":       len(text),
		})
	}
	s.metrics.ObserveProvider(s.cfg.ProviderName, status, elapsed)

	return text, err
}

func (s *Session) transition(next State, fields map[string]interface{}) {
	if fields == nil {
		fields = map[string]interface{}{}
	}
	fields["from"] = s.state.String()
	fields["to"] = next.String()
	s.log.Debug("Session state changed", fields)
	s.state = next
}

func (s *Session) fail(msg string, err error) {
	s.log.WithError(err).Error(msg, map[string]interface{}{"state": s.state.String()})
	s.prompter.Notify(msg + ": " + err.Error())
}
