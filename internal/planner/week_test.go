package planner

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	loc := time.Local
	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"wednesday afternoon", time.Date(2026, 8, 26, 15, 30, 0, 0, loc), time.Date(2026, 8, 24, 0, 0, 0, 0, loc)},
		{"monday itself", time.Date(2026, 8, 24, 0, 0, 0, 0, loc), time.Date(2026, 8, 24, 0, 0, 0, 0, loc)},
		{"sunday", time.Date(2026, 8, 30, 23, 59, 0, 0, loc), time.Date(2026, 8, 24, 0, 0, 0, 0, loc)},
		{"across month boundary", time.Date(2026, 9, 1, 8, 0, 0, 0, loc), time.Date(2026, 8, 31, 0, 0, 0, 0, loc)},
	}

	for _, c := range cases {
		if got := WeekStart(c.in); !got.Equal(c.want) {
			t.Errorf("%s: WeekStart(%v) = %v, want %v", c.name, c.in, got, c.want)
		}
	}
}

func TestDateFor(t *testing.T) {
	monday := time.Date(2026, 8, 24, 0, 0, 0, 0, time.Local)
	if got := DateFor(monday, time.Monday); !got.Equal(monday) {
		t.Errorf("DateFor(Monday) = %v, want %v", got, monday)
	}
	if got := DateFor(monday, time.Friday); got.Day() != 28 {
		t.Errorf("DateFor(Friday) = %v, want the 28th", got)
	}
}

func TestParseDay(t *testing.T) {
	cases := map[string]time.Weekday{
		"måndag":  time.Monday,
		"Tisdag":  time.Tuesday,
		" onsdag ": time.Wednesday,
		"friday":  time.Friday,
	}
	for in, want := range cases {
		got, err := ParseDay(in)
		if err != nil {
			t.Errorf("ParseDay(%q) returned error: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseDay(%q) = %v, want %v", in, got, want)
		}
	}

	if _, err := ParseDay("lördag"); err == nil {
		t.Error("expected error for weekend day, got nil")
	}
	if _, err := ParseDay("midsommarafton"); err == nil {
		t.Error("expected error for unknown day, got nil")
	}
}

func TestIsPlannable(t *testing.T) {
	for _, day := range Weekdays {
		if !IsPlannable(day) {
			t.Errorf("%v should be plannable", day)
		}
	}
	if IsPlannable(time.Saturday) || IsPlannable(time.Sunday) {
		t.Error("weekend days must not be plannable")
	}
}
