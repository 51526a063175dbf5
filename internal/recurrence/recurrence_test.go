package recurrence

import (
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskcycle/internal/civil"
)

// date is a test shorthand for civil.New.
func date(year int, month time.Month, day int) civil.Date {
	return civil.New(year, month, day)
}

func mustDate(t *testing.T, s string) civil.Date {
	t.Helper()
	d, err := civil.Parse(s)
	require.NoError(t, err)
	return d
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name    string
		pattern Pattern
		want    string
	}{
		{"daily", Pattern{Rule: DailyRule{}, Interval: 1}, "Every day"},
		{"every 3 days", Pattern{Rule: DailyRule{}, Interval: 3}, "Every 3 days"},
		{
			"weekly with days",
			Pattern{Rule: WeeklyRule{Days: NewWeekdaySet(time.Thursday, time.Monday)}, Interval: 2},
			"Every 2 weeks on Mon, Thu",
		},
		{"weekly without days", Pattern{Rule: WeeklyRule{}, Interval: 1}, "Every week"},
		{
			"weekly sunday first",
			Pattern{Rule: WeeklyRule{Days: NewWeekdaySet(time.Saturday, time.Sunday)}, Interval: 1},
			"Every week on Sun, Sat",
		},
		{"month date", Pattern{Rule: MonthlyDateRule{Day: 2}, Interval: 1}, "Every month on the 2nd"},
		{"month 23rd", Pattern{Rule: MonthlyDateRule{Day: 23}, Interval: 1}, "Every month on the 23rd"},
		{"month 12th", Pattern{Rule: MonthlyDateRule{Day: 12}, Interval: 1}, "Every month on the 12th"},
		{"every 3 months 31st", Pattern{Rule: MonthlyDateRule{Day: 31}, Interval: 3}, "Every 3 months on the 31st"},
		{"month last day", Pattern{Rule: MonthlyDateRule{Day: civil.LastDay}, Interval: 1}, "Every month on the last day"},
		{
			"month nth weekday",
			Pattern{Rule: MonthlyWeekdayRule{Position: 2, Weekday: time.Tuesday}, Interval: 1},
			"Every month on the second Tuesday",
		},
		{
			"every 2 months fifth friday",
			Pattern{Rule: MonthlyWeekdayRule{Position: 5, Weekday: time.Friday}, Interval: 2},
			"Every 2 months on the fifth Friday",
		},
		{"yearly", Pattern{Rule: YearlyRule{Month: time.February, Day: 29}, Interval: 1}, "Every year on Feb 29"},
		{
			"yearly last day",
			Pattern{Rule: YearlyRule{Month: time.February, Day: civil.LastDay}, Interval: 2},
			"Every 2 years on the last day of Feb",
		},
		{
			"with until",
			Pattern{Rule: DailyRule{}, Interval: 1, Until: mo.Some(date(2024, time.March, 1))},
			"Every day until 2024-03-01",
		},
		{"zero pattern", Pattern{}, "Every day"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(mo.Some(tt.pattern)))
			assert.Equal(t, tt.want, tt.pattern.String())
		})
	}

	assert.Equal(t, "Does not repeat", Describe(mo.None[Pattern]()))
}

func TestOrdinal(t *testing.T) {
	want := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th", 11: "11th", 12: "12th",
		13: "13th", 21: "21st", 22: "22nd", 23: "23rd", 30: "30th", 31: "31st",
	}
	for n, s := range want {
		assert.Equal(t, s, ordinal(n))
	}
}

func TestParseFrequency(t *testing.T) {
	tests := map[string]Frequency{
		"DAILY": Daily, "day": Daily, "Weekly": Weekly, "w": Weekly,
		"monthly": Monthly, "MONTH": Monthly, "yearly": Yearly, "y": Yearly,
	}
	for in, want := range tests {
		got, err := ParseFrequency(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFrequency("hourly")
	assert.Error(t, err)
	assert.Equal(t, "Frequency(9)", Frequency(9).String())
}

func TestValidate(t *testing.T) {
	valid := []Pattern{
		{Rule: DailyRule{}, Interval: 1},
		{Rule: WeeklyRule{}, Interval: 4},
		{Rule: MonthlyDateRule{Day: civil.LastDay}, Interval: 1},
		{Rule: MonthlyWeekdayRule{Position: 5, Weekday: time.Saturday}, Interval: 1},
		{Rule: YearlyRule{Month: time.December, Day: 31}, Interval: 1},
		{Rule: DailyRule{}, Interval: MaxInterval, Until: mo.Some(civil.MaxDate)},
	}
	for _, p := range valid {
		assert.NoError(t, p.Validate(), "%+v", p)
	}

	invalid := []Pattern{
		{},
		{Rule: DailyRule{}, Interval: 0},
		{Rule: DailyRule{}, Interval: MaxInterval + 1},
		{Rule: DailyRule{}, Interval: 1, Until: mo.Some(civil.MaxDate.AddDays(1))},
		{Rule: WeeklyRule{Days: 0x80}, Interval: 1},
		{Rule: MonthlyDateRule{Day: 0}, Interval: 1},
		{Rule: MonthlyDateRule{Day: 32}, Interval: 1},
		{Rule: MonthlyDateRule{Day: -2}, Interval: 1},
		{Rule: MonthlyWeekdayRule{Position: 6, Weekday: time.Monday}, Interval: 1},
		{Rule: MonthlyWeekdayRule{Position: 1, Weekday: time.Weekday(7)}, Interval: 1},
		{Rule: YearlyRule{Month: 13, Day: 1}, Interval: 1},
		{Rule: YearlyRule{Month: time.March, Day: 40}, Interval: 1},
	}
	for _, p := range invalid {
		assert.ErrorIs(t, p.Validate(), ErrInvalidPattern, "%+v", p)
	}
}

func TestNormalize(t *testing.T) {
	p := Pattern{Interval: -3}.Normalize()
	assert.Equal(t, DailyRule{}, p.Rule)
	assert.Equal(t, 1, p.Interval)
	assert.Equal(t, MaxInterval, Pattern{Interval: 1 << 62}.Normalize().Interval)
	assert.Equal(t, MaxInterval, NewPattern(Daily, 0, Every(1<<62)).Interval)
	assert.Equal(t, Daily, Pattern{}.Frequency())
}

func TestWeekdaySet(t *testing.T) {
	s := NewWeekdaySet(time.Friday, time.Monday, time.Friday, time.Weekday(9))
	assert.Equal(t, 2, s.Len())
	assert.True(t, s.Has(time.Monday))
	assert.False(t, s.Has(time.Tuesday))
	assert.False(t, s.Has(time.Weekday(9)))
	assert.Equal(t, []time.Weekday{time.Monday, time.Friday}, s.Days())
	assert.True(t, WeekdaySet(0).Empty())
}

func TestNewPattern(t *testing.T) {
	ref := date(2024, time.January, 31) // Wednesday

	tests := []struct {
		name string
		freq Frequency
		opts []PatternOption
		want Pattern
	}{
		{
			name: "daily",
			freq: Daily,
			opts: []PatternOption{Every(3)},
			want: Pattern{Rule: DailyRule{}, Interval: 3},
		},
		{
			name: "weekly takes the reference weekday",
			freq: Weekly,
			want: Pattern{Rule: WeeklyRule{Days: NewWeekdaySet(time.Wednesday)}, Interval: 1},
		},
		{
			name: "weekly with explicit days",
			freq: Weekly,
			opts: []PatternOption{OnWeekdays(time.Monday, time.Thursday), Every(2)},
			want: Pattern{Rule: WeeklyRule{Days: NewWeekdaySet(time.Monday, time.Thursday)}, Interval: 2},
		},
		{
			name: "monthly takes the reference day",
			freq: Monthly,
			want: Pattern{Rule: MonthlyDateRule{Day: 31}, Interval: 1},
		},
		{
			name: "monthly last day",
			freq: Monthly,
			opts: []PatternOption{OnLastDay()},
			want: Pattern{Rule: MonthlyDateRule{Day: civil.LastDay}, Interval: 1},
		},
		{
			name: "monthly nth weekday",
			freq: Monthly,
			opts: []PatternOption{OnNthWeekday(2, time.Tuesday)},
			want: Pattern{Rule: MonthlyWeekdayRule{Position: 2, Weekday: time.Tuesday}, Interval: 1},
		},
		{
			name: "monthly nth weekday back to a date",
			freq: Monthly,
			opts: []PatternOption{OnNthWeekday(2, time.Tuesday), OnDay(15)},
			want: Pattern{Rule: MonthlyDateRule{Day: 15}, Interval: 1},
		},
		{
			name: "yearly takes month and day",
			freq: Yearly,
			want: Pattern{Rule: YearlyRule{Month: time.January, Day: 31}, Interval: 1},
		},
		{
			name: "yearly adjusted",
			freq: Yearly,
			opts: []PatternOption{InMonth(time.February), OnDay(29), ReopenChecklist()},
			want: Pattern{Rule: YearlyRule{Month: time.February, Day: 29}, Interval: 1, ReopenChecklist: true},
		},
		{
			name: "options for another frequency are ignored",
			freq: Daily,
			opts: []PatternOption{OnWeekdays(time.Monday), OnDay(3), InMonth(time.May), OnNthWeekday(1, time.Monday)},
			want: Pattern{Rule: DailyRule{}, Interval: 1},
		},
		{
			name: "until and interval floor",
			freq: Daily,
			opts: []PatternOption{Every(0), Until(date(2024, time.June, 1))},
			want: Pattern{Rule: DailyRule{}, Interval: 1, Until: mo.Some(date(2024, time.June, 1))},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewPattern(tt.freq, ref, tt.opts...)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}
