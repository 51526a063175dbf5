package main

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	iso8601duration "github.com/ChannelMeter/iso8601duration"
	"github.com/samber/mo"
	"github.com/spf13/cobra"

	"taskcycle/internal/civil"
	"taskcycle/internal/recurrence"
)

func newEncodeCmd(a *app) *cobra.Command {
	var (
		freq, ref, until, weekday, month string
		days                             []string
		interval, monthDay, setPos       int
		reopen                           bool
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Build a pattern and print its encoding",
		Example: `  taskcycle encode --freq weekly --interval 2 --days mon,thu
  taskcycle encode --freq monthly --set-pos 2 --weekday tue
  taskcycle encode --freq yearly --month feb --month-day -1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := recurrence.ParseFrequency(freq)
			if err != nil {
				return err
			}
			refDate, err := parseDateOr(ref, civil.Today())
			if err != nil {
				return err
			}

			opts := []recurrence.PatternOption{recurrence.Every(interval)}
			if len(days) > 0 {
				weekdays, err := parseWeekdays(days)
				if err != nil {
					return err
				}
				opts = append(opts, recurrence.OnWeekdays(weekdays...))
			}
			if month != "" {
				m, err := parseMonth(month)
				if err != nil {
					return err
				}
				opts = append(opts, recurrence.InMonth(m))
			}
			if monthDay != 0 {
				opts = append(opts, recurrence.OnDay(monthDay))
			}
			if setPos != 0 || weekday != "" {
				wd, err := parseWeekday(weekday)
				if err != nil {
					return err
				}
				opts = append(opts, recurrence.OnNthWeekday(setPos, wd))
			}
			if until != "" {
				d, err := civil.Parse(until)
				if err != nil {
					return err
				}
				opts = append(opts, recurrence.Until(d))
			}
			if reopen {
				opts = append(opts, recurrence.ReopenChecklist())
			}

			p := recurrence.NewPattern(f, refDate, opts...)
			if err := p.Validate(); err != nil {
				return err
			}
			slog.Debug("built pattern", "pattern", p.String())
			fmt.Fprintln(cmd.OutOrStdout(), recurrence.Format(p))
			return nil
		},
	}

	cmd.Flags().StringVar(&freq, "freq", "", "frequency: daily, weekly, monthly or yearly")
	cmd.Flags().StringVar(&ref, "ref", "", "date the defaults are taken from (default today)")
	cmd.Flags().IntVar(&interval, "interval", 1, "repeat every n units")
	cmd.Flags().StringSliceVar(&days, "days", nil, "weekdays of a weekly pattern, e.g. mon,thu")
	cmd.Flags().IntVar(&monthDay, "month-day", 0, "day of month, -1 for the last day")
	cmd.Flags().IntVar(&setPos, "set-pos", 0, "week of month for --weekday: 1 to 5")
	cmd.Flags().StringVar(&weekday, "weekday", "", "weekday of a monthly pattern on the nth weekday")
	cmd.Flags().StringVar(&month, "month", "", "month of a yearly pattern")
	cmd.Flags().StringVar(&until, "until", "", "last possible date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&reopen, "reopen", false, "reopen the checklist on every occurrence")
	cmd.MarkFlagRequired("freq")
	return cmd
}

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe <encoded>",
		Short: "Describe an encoded pattern in words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := recurrence.Parse(args[0])
			if err != nil {
				slog.Debug("pattern does not decode", "error", err)
				fmt.Fprintln(cmd.OutOrStdout(), recurrence.Describe(mo.None[recurrence.Pattern]()))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), recurrence.Describe(mo.Some(p)))
			return nil
		},
	}
}

// newStepCmd builds the next and prev commands
func newStepCmd(a *app, direction string) *cobra.Command {
	short := "Print the occurrence after a date"
	if direction == "prev" {
		short = "Print the occurrence before a date"
	}

	return &cobra.Command{
		Use:   direction + " <encoded> <date>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := recurrence.Parse(args[0])
			if err != nil {
				return err
			}
			ref, err := civil.Parse(args[1])
			if err != nil {
				return err
			}

			step := recurrence.NextOccurrence(p, ref)
			if direction == "prev" {
				step = recurrence.PreviousOccurrence(p, ref)
			}

			out := "none"
			if d, ok := step.Get(); ok {
				out = d.String()
			}
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}
}

func newRangeCmd(a *app) *cobra.Command {
	var (
		anchor, from, until, span string
		includeAnchor             bool
	)

	cmd := &cobra.Command{
		Use:   "range <encoded>",
		Short: "List the occurrences in a date window",
		Example: `  taskcycle range 'V=1;FREQ=MONTHLY;INTERVAL=1;BYMONTHDAY=-1' --from 2024-01-01 --span P6W
  taskcycle range 'V=1;FREQ=WEEKLY;INTERVAL=2;BYDAY=MO' --anchor 2024-01-01 --from 2024-02-01 --until 2024-03-31`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := recurrence.Parse(args[0])
			if err != nil {
				return err
			}
			fromDate, err := parseDateOr(from, civil.Today())
			if err != nil {
				return err
			}
			anchorDate, err := parseDateOr(anchor, fromDate)
			if err != nil {
				return err
			}

			upper := mo.None[civil.Date]()
			switch {
			case until != "" && span != "":
				return fmt.Errorf("--until and --span are mutually exclusive")
			case until != "":
				d, err := civil.Parse(until)
				if err != nil {
					return err
				}
				upper = mo.Some(d)
			case span != "":
				d, err := spanEnd(fromDate, span)
				if err != nil {
					return err
				}
				upper = mo.Some(d)
			}

			e := recurrence.Enumerate(p, recurrence.EnumerateOptions{
				Anchor:        anchorDate,
				From:          fromDate,
				Until:         upper,
				IncludeAnchor: includeAnchor,
				BackwardLimit: a.config.Enumeration.BackwardLimit,
				ForwardLimit:  a.config.Enumeration.ForwardLimit,
			})
			if e.Truncated {
				slog.Warn("enumeration stopped at its step limit", "dates", len(e.Dates))
			}

			out := cmd.OutOrStdout()
			for _, d := range e.Dates {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&anchor, "anchor", "", "date the pattern is counted from (default --from)")
	cmd.Flags().StringVar(&from, "from", "", "first date of the window (default today)")
	cmd.Flags().StringVar(&until, "until", "", "last date of the window")
	cmd.Flags().StringVar(&span, "span", "", "window length as an ISO 8601 duration, e.g. P6W")
	cmd.Flags().BoolVar(&includeAnchor, "include-anchor", false, "list the anchor itself when it is in the window")
	return cmd
}

// parseDateOr parses s, or returns def when s is empty
func parseDateOr(s string, def civil.Date) (civil.Date, error) {
	if s == "" {
		return def, nil
	}
	return civil.Parse(s)
}

// spanEnd returns the last day of the window of length span starting at
// from. The window is half open, so P1W from a Monday ends on Sunday. Years
// keep the day of month, clamped to the target month, so P1Y from Feb 29
// stops before Feb 28.
func spanEnd(from civil.Date, span string) (civil.Date, error) {
	d, err := iso8601duration.FromString(span)
	if err != nil {
		return 0, fmt.Errorf("invalid span %q: %w", span, err)
	}

	year, month, day := from.Date()
	year += d.Years
	end := civil.New(year, month, civil.ClampDay(year, month, day))
	end = end.AddDays(7*d.Weeks + d.Days + d.Hours/24)
	if end <= from {
		return 0, fmt.Errorf("span %q is shorter than a day", span)
	}
	return end.AddDays(-1), nil
}

var weekdayNames = map[string]time.Weekday{
	"su": time.Sunday, "sun": time.Sunday, "sunday": time.Sunday,
	"mo": time.Monday, "mon": time.Monday, "monday": time.Monday,
	"tu": time.Tuesday, "tue": time.Tuesday, "tuesday": time.Tuesday,
	"we": time.Wednesday, "wed": time.Wednesday, "wednesday": time.Wednesday,
	"th": time.Thursday, "thu": time.Thursday, "thursday": time.Thursday,
	"fr": time.Friday, "fri": time.Friday, "friday": time.Friday,
	"sa": time.Saturday, "sat": time.Saturday, "saturday": time.Saturday,
}

func parseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

func parseWeekdays(names []string) ([]time.Weekday, error) {
	days := make([]time.Weekday, 0, len(names))
	for _, name := range names {
		wd, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, wd)
	}
	return days, nil
}

// parseMonth accepts 1 to 12 or an English month name or its first three
// letters
func parseMonth(s string) (time.Month, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 1 || n > 12 {
			return 0, fmt.Errorf("month %d out of range", n)
		}
		return time.Month(n), nil
	}
	lower := strings.ToLower(strings.TrimSpace(s))
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if lower == name || (len(lower) == 3 && strings.HasPrefix(name, lower)) {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}
