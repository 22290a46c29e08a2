// Package main is the learntrack command line: it serves the REST API and
// runs one-shot enrollment and progress operations against the same storage.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	version = "dev"

	flagLogLevel  string
	flagLogFormat string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "learntrack",
		Short: "Local learning tracker: enrollment, lesson progress and XP",
		Long: `learntrack mirrors courses from a remote catalog into local storage and
tracks lesson completion, module unlocking, course progress and XP for a
single local learner.

Configuration is read from the environment and an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "override LOG_LEVEL (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "override LOG_FORMAT (json, console)")

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newUserCmd(),
		newEnrollCmd(),
		newCompleteCmd(),
		newProgressCmd(),
		newStatusCmd(),
		newNotificationsCmd(),
		newEvaluateCmd(),
	)
	return root
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
