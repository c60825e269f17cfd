// internal/provider/generator.go

// Package provider binds the meal suggestion step to an external text
// generation or recipe search service.
package provider

import (
	"context"
	"fmt"

	"meal-planner/internal/config"
	apperrors "meal-planner/internal/errors"
)

const (
	NameGemini      = "gemini"
	NameOpenAI      = "openai"
	NameGateway     = "gateway"
	NameSpoonacular = "spoonacular"
)

const systemPrompt = `You are a budget-conscious meal planning assistant. Answer only with meal
suggestions in the requested plain-text format. Do not use markdown.`

// Prompt is what a session asks for. Text is the rendered instruction for
// generative bindings; search bindings use Budget and Diets directly.
type Prompt struct {
	Text   string
	Budget float64
	Diets  []string
	Count  int
}

// Generator returns free text in the block format the parser reads.
type Generator interface {
	Generate(ctx context.Context, prompt Prompt) (string, error)
	Close() error
}

// New builds the binding named by cfg.Name, wrapped with the configured
// deadline.
func New(ctx context.Context, cfg config.ProviderConfig) (Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		g   Generator
		err error
	)
	switch cfg.Name {
	case NameGemini:
		g, err = NewGemini(ctx, cfg)
	case NameOpenAI:
		g = NewOpenAI(cfg)
	case NameGateway:
		g = NewGateway(cfg)
	case NameSpoonacular:
		g = NewSpoonacular(cfg)
	default:
		return nil, apperrors.NewConfigMissingError(fmt.Sprintf("provider.name: unknown provider %q", cfg.Name))
	}
	if err != nil {
		return nil, apperrors.NewProviderError(cfg.Name, err)
	}

	return WithTimeout(cfg.Name, g, cfg.TimeoutDuration()), nil
}
