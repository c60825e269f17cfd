// internal/config/loader.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "MEAL_PLANNER"

var defaults = map[string]interface{}{
	"app.name":             "meal-planner",
	"app.version":          "1.0.0",
	"provider.name":        "gemini",
	"provider.api_key":     "",
	"provider.model":       "",
	"provider.base_url":    "",
	"provider.timeout":     60000,
	"provider.max_tokens":  2000,
	"provider.temperature": 0.4,
	"provider.meal_count":  5,
	"storage.driver":       "sqlite",
	"storage.path":         "mealplanner.db",
	"storage.dsn":          "",
	"logging.level":        "warn",
	"logging.format":       "console",
	"logging.output":       "stderr",
	"metrics.textfile":     "",
}

// Load reads configuration from .env, an optional YAML file, MEAL_PLANNER_*
// environment variables and overrides (dotted keys, usually from flags), in
// increasing order of precedence. An explicit path must exist; without one,
// a missing file is not an error.
func Load(path string, overrides map[string]interface{}) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("meal-planner")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "meal-planner"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	expandEnvVars(v)
	for key, value := range overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile loads the first .env found next to the binary's working
// directory or the project root. Variables already set win.
func loadEnvFile() string {
	possiblePaths := []string{
		".env",
		"../.env",
	}
	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return path
			}
		}
	}
	return ""
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// placeholderOnly matches a value that is nothing but one ${VAR} or $VAR.
var placeholderOnly = regexp.MustCompile(`^\$(\{[A-Za-z_][A-Za-z0-9_]*\}|[A-Za-z_][A-Za-z0-9_]*)$`)

// expandEnvVars resolves ${VAR} placeholders in string values. A value made
// only of a placeholder whose variable is unset becomes empty, so the
// provider-specific fallbacks still apply. Other values that would expand to
// nothing are kept as written.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok || !strings.Contains(strVal, "$") {
			continue
		}
		expanded := os.ExpandEnv(strVal)
		switch {
		case expanded == strVal:
		case expanded != "":
			v.Set(key, expanded)
		case placeholderOnly.MatchString(strings.TrimSpace(strVal)):
			v.Set(key, "")
		}
	}
}

// overrideEmptyConfig falls back to the provider-specific variables the
// upstream SDKs document.
func overrideEmptyConfig(cfg *Config) {
	p := &cfg.Provider

	keyVars := map[string]string{
		"gemini":      "GEMINI_API_KEY",
		"openai":      "OPENAI_API_KEY",
		"gateway":     "MCP_PROXY_API_KEY",
		"spoonacular": "SPOONACULAR_API_KEY",
	}
	modelVars := map[string]string{
		"gemini":  "GEMINI_MODEL",
		"openai":  "OPENAI_MODEL",
		"gateway": "OPENROUTER_MODEL",
	}

	if p.APIKey == "" {
		if name, ok := keyVars[p.Name]; ok {
			p.APIKey = os.Getenv(name)
		}
	}
	if p.Model == "" {
		if name, ok := modelVars[p.Name]; ok {
			p.Model = os.Getenv(name)
		}
	}
	if p.BaseURL == "" && p.Name == "gateway" {
		p.BaseURL = os.Getenv("MCP_PROXY_URL")
	}
}

// applyDefaults restores defaults that an explicit zero in the file cleared.
func applyDefaults(cfg *Config) {
	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
	if cfg.Provider.Name == "" {
		cfg.Provider.Name = "gemini"
	}
	if cfg.Provider.Timeout <= 0 {
		cfg.Provider.Timeout = 60000
	}
	if cfg.Provider.MaxTokens <= 0 {
		cfg.Provider.MaxTokens = 2000
	}
	if cfg.Provider.MealCount <= 0 {
		cfg.Provider.MealCount = 5
	}

	cfg.Storage.Driver = strings.ToLower(cfg.Storage.Driver)
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "sqlite"
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = "mealplanner.db"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
}

// validateConfig validates critical configuration fields. The provider
// credential is checked where the provider is built.
func validateConfig(cfg *Config) error {
	switch cfg.Storage.Driver {
	case "sqlite":
	case "postgres":
		if cfg.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not supported", cfg.Storage.Driver)
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not supported", cfg.Logging.Level)
	}

	if cfg.Provider.Temperature < 0 || cfg.Provider.Temperature > 2 {
		return fmt.Errorf("provider.temperature must be between 0 and 2")
	}

	return nil
}
