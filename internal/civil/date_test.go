package civil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndDate(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  string
	}{
		{"epoch", 1970, time.January, 1, "1970-01-01"},
		{"leap day", 2024, time.February, 29, "2024-02-29"},
		{"before epoch", 1969, time.December, 31, "1969-12-31"},
		{"normalizes overflow", 2023, time.February, 30, "2023-03-02"},
		{"normalizes month", 2024, time.Month(13), 1, "2025-01-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.year, tt.month, tt.day).String())
		})
	}

	assert.Equal(t, Date(0), New(1970, time.January, 1))
	assert.Equal(t, Date(-1), New(1969, time.December, 31))
}

func TestWeekday(t *testing.T) {
	start := New(1899, time.December, 25)
	end := New(2101, time.January, 10)
	for d := start; d <= end; d++ {
		require.Equal(t, d.Time().Weekday(), d.Weekday(), "weekday of %s", d)
	}

	assert.Equal(t, time.Thursday, New(1970, time.January, 1).Weekday())
	assert.Equal(t, time.Sunday, New(2024, time.September, 1).Weekday())
}

func TestSubAndAddDays(t *testing.T) {
	a := New(2024, time.January, 31)
	b := a.AddDays(29)
	assert.Equal(t, "2024-02-29", b.String())
	assert.Equal(t, 29, b.Sub(a))
	assert.Equal(t, -29, a.Sub(b))
	assert.True(t, a < b)
}

func TestShiftMonths(t *testing.T) {
	d := New(2024, time.November, 15)

	year, month := d.ShiftMonths(3)
	assert.Equal(t, 2025, year)
	assert.Equal(t, time.February, month)

	year, month = d.ShiftMonths(-11)
	assert.Equal(t, 2023, year)
	assert.Equal(t, time.December, month)

	year, month = d.ShiftMonths(-23)
	assert.Equal(t, 2022, year)
	assert.Equal(t, time.December, month)
}

func TestOfAndAt(t *testing.T) {
	zone := time.FixedZone("UTC+10", 10*60*60)
	due := time.Date(2024, time.March, 10, 23, 30, 15, 0, zone)

	d := Of(due)
	assert.Equal(t, "2024-03-10", d.String(), "date is taken in the timestamp's own zone")

	back := d.AddDays(7).At(due)
	assert.Equal(t, time.Date(2024, time.March, 17, 23, 30, 15, 0, zone), back)
	assert.Equal(t, zone, back.Location())
}

func TestParse(t *testing.T) {
	d, err := Parse("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, New(2024, time.February, 29), d)

	for _, bad := range []string{"", "2023-02-29", "2024/01/01", "tomorrow"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidDate, "input %q", bad)
	}
}

func TestTextRoundTrip(t *testing.T) {
	d := New(2031, time.July, 4)
	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "2031-07-04", string(text))

	var back Date
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, d, back)

	assert.Error(t, back.UnmarshalText([]byte("nope")))
}

func TestFirstOfMonth(t *testing.T) {
	assert.Equal(t, New(2024, time.February, 1), New(2024, time.February, 29).FirstOfMonth())
}

func TestRange(t *testing.T) {
	for _, d := range []Date{MinDate, MaxDate, New(2024, time.February, 29)} {
		assert.True(t, d.InRange(), d.String())
		back, err := Parse(d.String())
		require.NoError(t, err, d.String())
		assert.Equal(t, d, back)
	}

	for _, d := range []Date{MinDate.AddDays(-1), MaxDate.AddDays(1)} {
		assert.False(t, d.InRange(), d.String())
		_, err := Parse(d.String())
		assert.ErrorIs(t, err, ErrInvalidDate, d.String())
	}
}
