package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"homeworkbot/internal/app"
	"homeworkbot/internal/storage"
)

const historyTextWidth = 60

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent deliveries from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			items, err := app.History(cmd.Context(), ctx.manager(), limit)
			if errors.Is(err, storage.ErrDisabled) {
				return fmt.Errorf("delivery journal is disabled; set storage.driver to file or sqlite")
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(items) == 0 {
				fmt.Fprintln(out, "No deliveries recorded")
				return nil
			}
			rows := make([][]string, 0, len(items))
			for _, d := range items {
				rows = append(rows, []string{
					d.At.Local().Format(time.DateTime),
					strconv.FormatInt(d.ChatID, 10),
					strconv.Itoa(d.MessageID),
					strconv.FormatInt(d.TookMS, 10),
					shortCycle(d.Cycle),
					truncate(d.Text, historyTextWidth),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Time", "Chat", "Msg", "ms", "Cycle", "Text"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	return cmd
}

func shortCycle(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
