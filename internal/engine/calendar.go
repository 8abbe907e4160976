package engine

import (
	"fmt"
	"strings"
	"time"
)

const dayKeyLayout = "2006-01-02"

// Calendar fixes the location days are measured in and the day weeks start on.
// The zero value uses time.Local and Sunday-first weeks.
type Calendar struct {
	Location     *time.Location
	FirstWeekday time.Weekday
}

func DefaultCalendar() Calendar {
	return Calendar{Location: time.Local, FirstWeekday: time.Monday}
}

// NewCalendar builds a calendar from a tz database name ("" for local) and a
// weekday name for the first day of the week ("" for Monday).
func NewCalendar(timezone string, weekStart string) (Calendar, error) {
	cal := DefaultCalendar()
	if tz := strings.TrimSpace(timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return Calendar{}, fmt.Errorf("load timezone %q: %w", tz, err)
		}
		cal.Location = loc
	}
	if ws := strings.TrimSpace(weekStart); ws != "" {
		d, err := ParseWeekday(ws)
		if err != nil {
			return Calendar{}, err
		}
		cal.FirstWeekday = d.Std()
	}
	return cal, nil
}

func (c Calendar) loc() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

func (c Calendar) StartOfDay(t time.Time) time.Time {
	t = t.In(c.loc())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc())
}

// StartOfWeek returns the first day of the week containing t.
func (c Calendar) StartOfWeek(t time.Time) time.Time {
	day := c.StartOfDay(t)
	offset := (int(day.Weekday()) - int(c.FirstWeekday) + 7) % 7
	return c.AddDays(day, -offset)
}

func (c Calendar) AddDays(t time.Time, n int) time.Time {
	day := c.StartOfDay(t)
	return time.Date(day.Year(), day.Month(), day.Day()+n, 0, 0, 0, 0, c.loc())
}

func (c Calendar) Weekday(t time.Time) Weekday {
	return WeekdayOf(t.In(c.loc()).Weekday())
}

func (c Calendar) DayKey(t time.Time) string {
	return t.In(c.loc()).Format(dayKeyLayout)
}

// ParseDay parses a YYYY-MM-DD string as the start of that day.
func (c Calendar) ParseDay(s string) (time.Time, error) {
	t, err := time.ParseInLocation(dayKeyLayout, strings.TrimSpace(s), c.loc())
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t, nil
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.DayKey(a) == c.DayKey(b)
}

// InWindow reports whether day falls within [from, to], compared by day.
func (c Calendar) InWindow(day, from, to time.Time) bool {
	d := c.StartOfDay(day)
	return !d.Before(c.StartOfDay(from)) && !d.After(c.StartOfDay(to))
}
