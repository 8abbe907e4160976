package engine

import (
	"context"
	"time"
)

type Streak struct {
	Current    int
	Longest    int
	LastActive *time.Time
}

// ComputeStreak derives streaks from activity day keys sorted ascending. The
// current streak stays alive until the end of the day after the last activity.
func ComputeStreak(cal Calendar, days []string, today time.Time) Streak {
	var st Streak
	var prev time.Time
	run := 0
	for _, key := range days {
		d, err := cal.ParseDay(key)
		if err != nil {
			continue
		}
		if run > 0 && cal.SameDay(cal.AddDays(prev, 1), d) {
			run++
		} else if run == 0 || !cal.SameDay(prev, d) {
			run = 1
		}
		if run > st.Longest {
			st.Longest = run
		}
		prev = d
	}
	if run == 0 {
		return st
	}
	last := prev
	st.LastActive = &last
	t := cal.StartOfDay(today)
	if cal.SameDay(last, t) || cal.SameDay(cal.AddDays(last, 1), t) {
		st.Current = run
	}
	return st
}

// RecordActivity marks the day containing at as active.
func (s *Service) RecordActivity(ctx context.Context, at time.Time) error {
	return s.activity.Record(ctx, s.cal.DayKey(at), s.now())
}

func (s *Service) Streak(ctx context.Context, now time.Time) (Streak, error) {
	days, err := s.activity.ListDays(ctx)
	if err != nil {
		return Streak{}, err
	}
	return ComputeStreak(s.cal, days, now), nil
}
