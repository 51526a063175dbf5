package agenda

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"taskcycle/internal/civil"
)

// WriteCalendar prints a month grid, Sunday first, with an asterisk after
// every shaded day, followed by the items of each shaded day.
func WriteCalendar(w io.Writer, year int, month time.Month, shade map[civil.Date][]string) error {
	var b strings.Builder
	title := fmt.Sprintf("%s %d", month, year)
	fmt.Fprintf(&b, "%*s\n", (27+len(title))/2, title)
	b.WriteString(" Su  Mo  Tu  We  Th  Fr  Sa\n")

	first := civil.New(year, month, 1)
	lead := int(first.Weekday())
	b.WriteString(strings.Repeat("    ", lead))

	last := civil.LastDayOfMonth(year, month)
	for day := 1; day <= last; day++ {
		mark := " "
		if len(shade[first.AddDays(day-1)]) > 0 {
			mark = "*"
		}
		fmt.Fprintf(&b, "%3d%s", day, mark)
		if (lead+day)%7 == 0 || day == last {
			b.WriteString("\n")
		}
	}

	days := make([]civil.Date, 0, len(shade))
	for d := range shade {
		days = append(days, d)
	}
	slices.Sort(days)
	if len(days) > 0 {
		b.WriteString("\n")
	}
	for _, d := range days {
		fmt.Fprintf(&b, "%s  %s\n", d, strings.Join(shade[d], ", "))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// WriteUpcoming prints one line per entry: date, time, title and the
// recurrence in words.
func WriteUpcoming(w io.Writer, entries []Entry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			e.Date, e.Item.Due.Format("15:04"), e.Item.Title, e.Item.Describe())
	}
	return tw.Flush()
}
