package main

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"homeworkbot/internal/config"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report whether the required credentials are configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.manager().Parse()
			if err != nil {
				return err
			}
			missing := config.MissingTokens(cfg)

			out := cmd.OutOrStdout()
			for _, name := range []string{config.EnvPracticumToken, config.EnvTelegramToken, config.EnvTelegramChatID} {
				state := "set"
				if slices.Contains(missing, name) {
					state = "missing"
				}
				fmt.Fprintf(out, "%-18s %s\n", name, state)
			}
			if err := config.Validate(cfg); err != nil {
				fmt.Fprintf(out, "config: %v\n", err)
				return err
			}
			if len(missing) > 0 {
				return fmt.Errorf("missing required values: %s", strings.Join(missing, ", "))
			}
			return nil
		},
	}
}
