package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/yanqian/plant-care/internal/bootstrap"
)

var rootCmd = &cobra.Command{
	Use:           "plantcare",
	Short:         "Plant care lifecycle service",
	Long:          `plantcare tracks houseplants, their watering reminders and timelines, and serves care insights over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp wires the application for a single command and releases its resources afterwards.
func withApp(fn func(app *bootstrap.App) error) error {
	app, cleanup, err := initializeApp()
	if err != nil {
		return fmt.Errorf("failed to wire application: %w", err)
	}
	defer cleanup()
	return fn(app)
}
