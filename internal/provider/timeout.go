// internal/provider/timeout.go
package provider

import (
	"context"
	"errors"
	"time"

	apperrors "meal-planner/internal/errors"
)

type timeoutGenerator struct {
	name    string
	next    Generator
	timeout time.Duration
}

// WithTimeout bounds every Generate call by d and maps failures onto the
// provider error kinds. A non-positive d leaves only the caller's deadline.
func WithTimeout(name string, g Generator, d time.Duration) Generator {
	return &timeoutGenerator{name: name, next: g, timeout: d}
}

func (t *timeoutGenerator) Generate(ctx context.Context, prompt Prompt) (string, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	text, err := t.next.Generate(ctx, prompt)
	if err == nil {
		return text, nil
	}

	var se *apperrors.StandardError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", apperrors.NewProviderTimeoutError(t.name, t.timeout)
	case errors.As(err, &se) && (se.Code == apperrors.ErrCodeProviderFailed || se.Code == apperrors.ErrCodeProviderTimeout):
		return "", err
	default:
		return "", apperrors.NewProviderError(t.name, err)
	}
}

func (t *timeoutGenerator) Close() error {
	return t.next.Close()
}
