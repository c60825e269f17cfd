// cmd/meal-planner/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/metrics"
	"meal-planner/internal/provider"
	"meal-planner/internal/session"
	"meal-planner/internal/storage"
)

var (
	configPath   = flag.String("config", "", "Path to a meal-planner.yaml config file")
	dbPath       = flag.String("db-path", "", "Database path (overrides storage.path)")
	providerName = flag.String("provider", "", "Suggestion provider: gemini, openai, gateway, spoonacular")
	history      = flag.Int("history", 0, "Print the N most recent sessions and exit")
	version      = flag.Bool("version", false, "Show version")
)

const appVersion = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("meal-planner version %s\n", appVersion)
		os.Exit(0)
	}

	os.Exit(run())
}

func run() int {
	overrides := map[string]interface{}{}
	if *dbPath != "" {
		overrides["storage.path"] = *dbPath
	}
	if *providerName != "" {
		overrides["provider.name"] = *providerName
	}

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	log, err := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *history > 0 {
		return showHistory(ctx, cfg, log, *history)
	}

	// Credentials are checked before the store is touched.
	gen, err := provider.New(ctx, cfg.Provider)
	if err != nil {
		log.WithError(err).Error("Failed to create provider", map[string]interface{}{"provider": cfg.Provider.Name})
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		return 1
	}
	defer gen.Close()

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Error("Failed to open storage", map[string]interface{}{"driver": cfg.Storage.Driver})
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		return 1
	}

	rec := metrics.NewRecorder()
	defer func() {
		if err := rec.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			log.WithError(err).Warn("Failed to write metrics textfile", map[string]interface{}{"path": cfg.Metrics.Textfile})
		}
	}()

	s := session.New(session.Config{
		ProviderName: cfg.Provider.Name,
		MealCount:    cfg.Provider.MealCount,
	}, store, gen, session.NewConsole(os.Stdin, os.Stdout), log, rec)

	result, err := s.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Session aborted: %v\n", err)
		return 1
	}
	return result.Outcome.ExitCode()
}
