package civil

import (
	"testing"
	"time"
)

func TestLastDayOfMonth(t *testing.T) {
	tests := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.January, 31},
		{2024, time.February, 29},
		{2023, time.February, 28},
		{1900, time.February, 28},
		{2000, time.February, 29},
		{2024, time.April, 30},
		{2024, time.December, 31},
	}

	for _, tt := range tests {
		if got := LastDayOfMonth(tt.year, tt.month); got != tt.want {
			t.Errorf("LastDayOfMonth(%d, %s) = %d, want %d", tt.year, tt.month, got, tt.want)
		}
	}
}

func TestClampDay(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		day   int
		want  int
	}{
		{"in range", 2024, time.March, 15, 15},
		{"last day sentinel", 2024, time.April, LastDay, 30},
		{"31 in a 30 day month", 2024, time.June, 31, 30},
		{"feb 30 leap", 2024, time.February, 30, 29},
		{"feb 30 common", 2023, time.February, 30, 28},
		{"feb 29 common", 2023, time.February, 29, 28},
		{"zero", 2024, time.March, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClampDay(tt.year, tt.month, tt.day); got != tt.want {
				t.Errorf("ClampDay() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFloorDivMod(t *testing.T) {
	tests := []struct {
		a, b    int
		div, mo int
	}{
		{7, 7, 1, 0},
		{6, 7, 0, 6},
		{-1, 7, -1, 6},
		{-7, 7, -1, 0},
		{-8, 7, -2, 6},
		{-14, 7, -2, 0},
		{-3, 2, -2, 1},
	}

	for _, tt := range tests {
		if got := FloorDiv(tt.a, tt.b); got != tt.div {
			t.Errorf("FloorDiv(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.div)
		}
		if got := Mod(tt.a, tt.b); got != tt.mo {
			t.Errorf("Mod(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.mo)
		}
	}

	if got := FloorDiv64(-86401, 86400); got != -2 {
		t.Errorf("FloorDiv64(-86401, 86400) = %d, want -2", got)
	}
}
