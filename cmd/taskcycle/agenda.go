package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"taskcycle/internal/agenda"
	"taskcycle/internal/civil"
)

func newAgendaCmd(a *app) *cobra.Command {
	var (
		file, from string
		days       int
	)

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "List upcoming occurrences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, _, err := a.loadAgenda(file)
			if err != nil {
				return err
			}
			fromDate, err := parseDateOr(from, civil.Today())
			if err != nil {
				return err
			}
			return agenda.WriteUpcoming(cmd.OutOrStdout(), ag.Upcoming(fromDate, days))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "agenda file (default from config)")
	cmd.Flags().StringVar(&from, "from", "", "first day (default today)")
	cmd.Flags().IntVar(&days, "days", 7, "number of days to list")
	return cmd
}

func newCalendarCmd(a *app) *cobra.Command {
	var file, month string

	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Print a month with the days items fall due marked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, _, err := a.loadAgenda(file)
			if err != nil {
				return err
			}

			year, m := civil.Today().Year(), civil.Today().Month()
			if month != "" {
				t, err := time.Parse("2006-01", month)
				if err != nil {
					return fmt.Errorf("invalid month %q, want YYYY-MM", month)
				}
				year, m = t.Year(), t.Month()
			}
			return agenda.WriteCalendar(cmd.OutOrStdout(), year, m, ag.Shade(year, m))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "agenda file (default from config)")
	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default this month)")
	return cmd
}

func newCompleteCmd(a *app) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "complete <id>",
		Short: "Complete an item and move it to its next occurrence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ag, path, err := a.loadAgenda(file)
			if err != nil {
				return err
			}

			c, err := ag.Complete(args[0])
			if err != nil {
				return err
			}
			if err := ag.Save(path); err != nil {
				return err
			}
			slog.Debug("completed item", "item", args[0], "reopened", c.Reopened)

			out := cmd.OutOrStdout()
			if next, ok := c.Next.Get(); ok {
				fmt.Fprintf(out, "%s: next due %s\n", args[0], next.Format("2006-01-02 15:04"))
			} else {
				fmt.Fprintf(out, "%s: done\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "agenda file (default from config)")
	return cmd
}
