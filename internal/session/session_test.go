// internal/session/session_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meal-planner/internal/config"
	apperrors "meal-planner/internal/errors"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/models"
	"meal-planner/internal/provider"
	"meal-planner/internal/storage"
)

type fakeStore struct {
	calls       []string
	nextID      int64
	meals       []models.Meal
	feedback    int
	closed      int
	requestErr  error
	mealsErr    error
	feedbackErr error
}

func (f *fakeStore) CreateRequest(_ context.Context, budget float64, diets []string) (int64, error) {
	f.calls = append(f.calls, "request")
	if f.requestErr != nil {
		return 0, f.requestErr
	}
	f.nextID++
	return f.nextID, nil
}

func (f *fakeStore) CreateMeals(_ context.Context, requestID int64, meals []models.Meal) error {
	f.calls = append(f.calls, fmt.Sprintf("meals:%d", requestID))
	if f.mealsErr != nil {
		return f.mealsErr
	}
	f.meals = append(f.meals, meals...)
	return nil
}

func (f *fakeStore) CreateFeedback(_ context.Context, requestID int64, _ bool, _ string) error {
	f.calls = append(f.calls, fmt.Sprintf("feedback:%d", requestID))
	if f.feedbackErr != nil {
		return f.feedbackErr
	}
	f.feedback++
	return nil
}

func (f *fakeStore) Close() error {
	f.closed++
	return nil
}

type fakeGenerator struct {
	text   string
	err    error
	prompt provider.Prompt
}

func (g *fakeGenerator) Generate(_ context.Context, prompt provider.Prompt) (string, error) {
	g.prompt = prompt
	return g.text, g.err
}

func (g *fakeGenerator) Close() error { return nil }

const twoMeals = "Title: Chicken Bowl\nEstimated Price: $12.50\nDiet Tags: high-protein, gluten-free\nSource URL: http://example.com/1\n\n" +
	"Title: Veggie Wrap\nEstimated Price: cheap\nDiet Tags: vegan"

func newTestSession(t *testing.T, input string, store Store, gen provider.Generator) (*Session, *strings.Builder, *metrics.Recorder) {
	t.Helper()
	out := &strings.Builder{}
	rec := metrics.NewRecorder()
	s := New(Config{ProviderName: "fake", MealCount: 4}, store, gen,
		NewConsole(strings.NewReader(input), out), logger.NewTestLogger(t), rec)
	return s, out, rec
}

func TestRun_Completed(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{text: twoMeals}
	s, out, rec := newTestSession(t, "abc\n-5\n$30\nvegan, , gluten-free\nY\nloved it\n", store, gen)

	result, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Equal(t, 0, result.Outcome.ExitCode())
	assert.True(t, result.Satisfied)
	assert.Equal(t, int64(1), result.RequestID)
	assert.Equal(t, Complete, s.State())
	assert.NotEmpty(t, result.ID)

	assert.Equal(t, []string{"request", "meals:1", "feedback:1"}, store.calls)
	assert.Equal(t, 1, store.closed)
	require.Len(t, store.meals, 2)
	assert.Equal(t, 0.0, store.meals[1].Price)
	for _, m := range result.Meals {
		assert.Equal(t, int64(1), m.RequestID)
	}

	assert.Equal(t, 30.0, gen.prompt.Budget)
	assert.Equal(t, []string{"vegan", "gluten-free"}, gen.prompt.Diets)
	assert.Equal(t, 4, gen.prompt.Count)
	assert.Contains(t, gen.prompt.Text, "vegan, gluten-free")

	assert.Equal(t, 2, strings.Count(out.String(), "Invalid budget"))
	assert.Contains(t, out.String(), "Chicken Bowl")
	sessions, err := testutil.GatherAndCount(rec.Registry(), "mealplanner_sessions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, sessions)
	persisted, err := testutil.GatherAndCount(rec.Registry(), "mealplanner_meals_persisted_total")
	require.NoError(t, err)
	assert.Equal(t, 1, persisted)
}

func TestRun_ProviderFailure(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{err: apperrors.NewProviderError("fake", errors.New("connection refused"))}
	s, out, _ := newTestSession(t, "20\n\n", store, gen)

	result, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeProviderFailed, result.Outcome)
	assert.Equal(t, 1, result.Outcome.ExitCode())
	assert.True(t, errors.Is(result.Err, apperrors.ErrProvider))
	assert.Equal(t, []string{"request"}, store.calls)
	assert.Equal(t, 1, store.closed)
	assert.Contains(t, out.String(), "connection refused")
}

func TestRun_UnwrappedProviderErrorIsProviderFailure(t *testing.T) {
	store := &fakeStore{}
	s, _, _ := newTestSession(t, "20\n\n", store, &fakeGenerator{err: errors.New("boom")})

	result, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeProviderFailed, result.Outcome)
	assert.True(t, errors.Is(result.Err, apperrors.ErrProvider))
}

func TestRun_EmptyResult(t *testing.T) {
	store := &fakeStore{}
	gen := &fakeGenerator{text: "Here are some ideas!\n\nEstimated Price: $5\nDiet Tags: vegan"}
	s, out, _ := newTestSession(t, "15\nvegan\n", store, gen)

	result, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeEmptyResult, result.Outcome)
	assert.Equal(t, 0, result.Outcome.ExitCode())
	assert.Equal(t, []string{"request"}, store.calls)
	assert.Equal(t, 1, store.closed)
	assert.Contains(t, out.String(), "No meal suggestions")
}

func TestRun_StorageFailuresAreFatal(t *testing.T) {
	writeErr := apperrors.NewStorageWriteError("meals", errors.New("disk full"))

	tests := []struct {
		name  string
		store *fakeStore
		calls []string
	}{
		{"request", &fakeStore{requestErr: writeErr}, []string{"request"}},
		{"meals", &fakeStore{mealsErr: writeErr}, []string{"request", "meals:1"}},
		{"feedback", &fakeStore{feedbackErr: writeErr}, []string{"request", "meals:1", "feedback:1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := newTestSession(t, "25\n\nno\n\n", tt.store, &fakeGenerator{text: twoMeals})

			result, err := s.Run(context.Background())

			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrStorageWrite))
			assert.Equal(t, OutcomeFailed, result.Outcome)
			assert.Equal(t, 1, result.Outcome.ExitCode())
			assert.Equal(t, tt.calls, tt.store.calls)
			assert.Equal(t, 1, tt.store.closed)
		})
	}
}

func TestRun_BudgetEOFAbortsBeforePersisting(t *testing.T) {
	store := &fakeStore{}
	s, _, _ := newTestSession(t, "nope\n", store, &fakeGenerator{text: twoMeals})

	result, err := s.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Equal(t, OutcomeFailed, result.Outcome)
	assert.Empty(t, store.calls)
	assert.Equal(t, 1, store.closed)
}

func TestRun_FeedbackEOFStoresEmptyAnswers(t *testing.T) {
	store := &fakeStore{}
	s, _, _ := newTestSession(t, "25\n", store, &fakeGenerator{text: twoMeals})

	result, err := s.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.False(t, result.Satisfied)
	assert.Equal(t, 1, store.feedback)
}

func openStore(t *testing.T) (*storage.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mealplanner.db")
	store, err := storage.Open(context.Background(), config.StorageConfig{Driver: storage.DriverSQLite, Path: path})
	require.NoError(t, err)
	return store, path
}

func reopen(t *testing.T, path string) *storage.Store {
	t.Helper()
	store, err := storage.Open(context.Background(), config.StorageConfig{Driver: storage.DriverSQLite, Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRun_SQLiteEndToEnd(t *testing.T) {
	ctx := context.Background()

	t.Run("completed", func(t *testing.T) {
		store, path := openStore(t)
		s, _, _ := newTestSession(t, "40\nhigh-protein\nyes\nmore fish\n", store, &fakeGenerator{text: twoMeals})

		result, err := s.Run(ctx)
		require.NoError(t, err)
		require.Equal(t, OutcomeCompleted, result.Outcome)

		record, err := reopen(t, path).GetSession(ctx, result.RequestID)
		require.NoError(t, err)
		assert.Equal(t, []string{"high-protein"}, record.Request.Diets)
		require.Len(t, record.Meals, 2)
		assert.Equal(t, models.Meal{
			ID:        record.Meals[0].ID,
			RequestID: result.RequestID,
			Title:     "Chicken Bowl",
			Price:     12.5,
			Diets:     []string{"high-protein", "gluten-free"},
			SourceURL: "http://example.com/1",
		}, record.Meals[0])
		require.NotNil(t, record.Feedback)
		assert.True(t, record.Feedback.Satisfied)
		assert.Equal(t, "more fish", record.Feedback.Comments)
	})

	t.Run("provider failure keeps only the request", func(t *testing.T) {
		store, path := openStore(t)
		s, _, _ := newTestSession(t, "40\n\n", store, &fakeGenerator{err: errors.New("401")})

		result, err := s.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Outcome.ExitCode())

		record, err := reopen(t, path).GetSession(ctx, result.RequestID)
		require.NoError(t, err)
		assert.Empty(t, record.Meals)
		assert.Nil(t, record.Feedback)
	})

	t.Run("empty result keeps only the request", func(t *testing.T) {
		store, path := openStore(t)
		s, _, _ := newTestSession(t, "40\n\n", store, &fakeGenerator{text: "Sorry, I cannot help."})

		result, err := s.Run(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, result.Outcome.ExitCode())

		record, err := reopen(t, path).GetSession(ctx, result.RequestID)
		require.NoError(t, err)
		assert.Empty(t, record.Meals)
		assert.Nil(t, record.Feedback)
	})
}

func TestStateAndOutcomeStrings(t *testing.T) {
	assert.Equal(t, "collecting_input", CollectingInput.String())
	assert.Equal(t, "collecting_feedback", CollectingFeedback.String())
	assert.Equal(t, "unknown", State(99).String())
	assert.Equal(t, "empty_result", OutcomeEmptyResult.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}

func TestRun_LongCommentIsStored(t *testing.T) {
	ctx := context.Background()
	store, path := openStore(t)
	long := strings.Repeat("x", 100*1024)
	s, _, _ := newTestSession(t, "20\n\nyes\n"+long+"\n", store, &fakeGenerator{text: twoMeals})

	result, err := s.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCompleted, result.Outcome)

	record, err := reopen(t, path).GetSession(ctx, result.RequestID)
	require.NoError(t, err)
	require.NotNil(t, record.Feedback)
	assert.Len(t, record.Feedback.Comments, len(long))
}
