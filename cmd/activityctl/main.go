// Package main is activityctl, a command-line client for the activity
// collection the API server persists.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/pkordes/activity-log/internal/clock"
	"github.com/pkordes/activity-log/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "activityctl:", err)
		os.Exit(1)
	}

	// Diagnostics go to stderr so list output stays clean.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	root := newRootCmd(&app{cfg: cfg, clock: clock.Real(), log: log})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
