package planner

import (
	"fmt"
	"strings"
	"time"
)

// Weekdays are the five planned dinner slots, in plan order.
var Weekdays = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
}

var dayNames = map[string]time.Weekday{
	"måndag":    time.Monday,
	"tisdag":    time.Tuesday,
	"onsdag":    time.Wednesday,
	"torsdag":   time.Thursday,
	"fredag":    time.Friday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
}

var swedishDayNames = map[time.Weekday]string{
	time.Monday:    "Måndag",
	time.Tuesday:   "Tisdag",
	time.Wednesday: "Onsdag",
	time.Thursday:  "Torsdag",
	time.Friday:    "Fredag",
}

// WeekStart returns the Monday at 00:00 (in t's location) of t's ISO week.
func WeekStart(t time.Time) time.Time {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return day.AddDate(0, 0, -offset)
}

// DateFor returns the calendar date of a weekday within the week starting at
// weekStart (a Monday).
func DateFor(weekStart time.Time, day time.Weekday) time.Time {
	offset := (int(day) + 6) % 7
	return weekStart.AddDate(0, 0, offset)
}

// ParseDay resolves a Swedish or English weekday name to a planned slot.
func ParseDay(s string) (time.Weekday, error) {
	day, ok := dayNames[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return day, nil
}

// DayName renders a weekday for user-facing output.
func DayName(day time.Weekday) string {
	if name, ok := swedishDayNames[day]; ok {
		return name
	}
	return day.String()
}

// IsPlannable reports whether the weekday has a plan slot (Monday–Friday).
func IsPlannable(day time.Weekday) bool {
	return day >= time.Monday && day <= time.Friday
}
