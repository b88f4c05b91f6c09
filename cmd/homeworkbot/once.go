package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"homeworkbot/internal/app"
)

func newOnceCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var since string

	cmd := &cobra.Command{
		Use:   "once",
		Short: "Run a single poll cycle and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := parseSince(since, time.Now())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			a, err := app.New(cmd.Context(), ctx.manager(), app.Options{
				DryRun: dryRun,
				Out:    out,
				Since:  cursor,
			})
			if err != nil {
				return err
			}
			defer a.Close()

			res := a.RunOnce(cmd.Context())
			if !dryRun && res.Message != "" {
				fmt.Fprintln(out, res.Message)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "cycle %s: cursor=%d took=%s delivered=%t\n",
				res.ID, res.Cursor, res.Took.Round(time.Millisecond), res.Delivered || res.Suppressed)

			switch {
			case res.DeliveryErr != nil:
				return res.DeliveryErr
			case res.Err != nil:
				return fmt.Errorf("cycle failed: %w", res.Err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the message instead of sending it to Telegram")
	cmd.Flags().StringVar(&since, "since", "", "Cursor as unix seconds or a duration before now (e.g. 72h); default now")
	return cmd
}

// parseSince accepts unix seconds or a Go duration counted back from now.
// Empty means zero, which the poller replaces with the current time.
func parseSince(raw string, now time.Time) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("--since: must not be negative")
		}
		return n, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("--since: want unix seconds or a positive duration, got %q", raw)
	}
	return now.Add(-d).Unix(), nil
}
