// cmd/meal-planner/history.go
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"meal-planner/internal/config"
	"meal-planner/internal/logger"
	"meal-planner/internal/models"
	"meal-planner/internal/storage"
)

func showHistory(ctx context.Context, cfg *config.Config, log logger.Logger, limit int) int {
	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		log.WithError(err).Error("Failed to open storage", map[string]interface{}{"driver": cfg.Storage.Driver})
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		return 1
	}
	defer store.Close()

	records, err := store.RecentSessions(ctx, limit)
	if err != nil {
		log.WithError(err).Error("Failed to read history", nil)
		fmt.Fprintf(os.Stderr, "Storage error: %v\n", err)
		return 1
	}

	printHistory(os.Stdout, records)
	return 0
}

func printHistory(w io.Writer, records []*models.SessionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No sessions recorded yet.")
		return
	}

	for _, r := range records {
		diets := "none"
		if len(r.Request.Diets) > 0 {
			diets = strings.Join(r.Request.Diets, ", ")
		}
		fmt.Fprintf(w, "#%d  %s  budget $%.2f  diets: %s\n",
			r.Request.ID, r.Request.CreatedAt.Local().Format("2006-01-02 15:04"), r.Request.Budget, diets)

		for _, m := range r.Meals {
			fmt.Fprintf(w, "    - %s ($%.2f)\n", m.Title, m.Price)
		}
		if len(r.Meals) == 0 {
			fmt.Fprintln(w, "    (no meals)")
		}

		switch {
		case r.Feedback == nil:
			fmt.Fprintln(w, "    feedback: none")
		case r.Feedback.Comments != "":
			fmt.Fprintf(w, "    feedback: %s, %q\n", satisfaction(r.Feedback.Satisfied), r.Feedback.Comments)
		default:
			fmt.Fprintf(w, "    feedback: %s\n", satisfaction(r.Feedback.Satisfied))
		}
	}
}

func satisfaction(ok bool) string {
	if ok {
		return "satisfied"
	}
	return "not satisfied"
}
