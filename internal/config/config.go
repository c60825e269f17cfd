// internal/config/config.go
package config

import (
	"time"

	apperrors "meal-planner/internal/errors"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Provider ProviderConfig `mapstructure:"provider"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ProviderConfig selects and tunes the suggestion provider.
type ProviderConfig struct {
	Name        string  `mapstructure:"name"` // gemini, openai, gateway, spoonacular
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	Timeout     int     `mapstructure:"timeout"` // milliseconds
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	MealCount   int     `mapstructure:"meal_count"`
}

// TimeoutDuration returns the provider call deadline.
func (p ProviderConfig) TimeoutDuration() time.Duration {
	return GetDuration(p.Timeout)
}

// Validate checks what a provider needs before it can be constructed.
func (p ProviderConfig) Validate() error {
	if p.Name == "" {
		return apperrors.NewConfigMissingError("provider.name")
	}
	if p.APIKey == "" {
		return apperrors.NewConfigMissingError("provider.api_key")
	}
	return nil
}

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or postgres
	Path   string `mapstructure:"path"`   // sqlite database file
	DSN    string `mapstructure:"dsn"`    // postgres connection string
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// MetricsConfig points at a node_exporter textfile; empty disables export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
