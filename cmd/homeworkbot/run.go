package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"homeworkbot/internal/app"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll for status changes until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, ctx)
		},
	}
}

func runBot(cmd *cobra.Command, ctx *commandContext) error {
	sigCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing credential is logged at critical level inside app.New.
	a, err := app.New(sigCtx, ctx.manager(), app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(sigCtx)
}
