package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newRunOnceCmd(root *rootOptions) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "run-once",
		Short: "Run one reminder pass and print its summary",
		Long: `Selects the overdue tasks, places the reminder calls and prints the run
summary as JSON. Exits non-zero when the run was aborted or cancelled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfigAndLogger(root.configPath)
			if err != nil {
				return err
			}

			var ref time.Time
			if at != "" {
				ref, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at value %q: %w", at, err)
				}
			}

			app, err := newApplication(cmd.Context(), cfg, log)
			if err != nil {
				log.Error("failed to initialize application", slog.String("error", err.Error()))
				return err
			}

			return app.runOnce(cmd, ref)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "reference time in RFC3339 (default: now)")

	return cmd
}

// runOnce performs a single run against ref, or the current time when ref is
// zero, and writes the summary to the command output. The summary is printed
// even when the run ends with an error.
func (app *application) runOnce(cmd *cobra.Command, ref time.Time) error {
	defer app.cleanup(cmd.Context())

	if ref.IsZero() {
		ref = app.clock()
	}
	summary, runErr := app.dispatcher.RunOnce(cmd.Context(), ref)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}

	if runErr != nil {
		return fmt.Errorf("reminder run failed: %w", runErr)
	}
	return nil
}
