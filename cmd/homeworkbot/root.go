package main

import (
	"github.com/spf13/cobra"

	"homeworkbot/internal/config"
)

type commandContext struct {
	configPath string
	envFile    string
}

func (c *commandContext) manager() *config.Manager {
	return config.NewManager(c.configPath)
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "homeworkbot",
		Short:         "Homework review status notifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv(ctx.envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBot(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "homeworkbot.yaml", "Configuration file path (optional)")
	rootCmd.PersistentFlags().StringVar(&ctx.envFile, "env-file", ".env", "dotenv file loaded before the environment is read")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newCheckCommand(ctx))
	rootCmd.AddCommand(newOnceCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))

	return rootCmd
}
