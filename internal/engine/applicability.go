package engine

import (
	"sort"
	"time"
)

// CompletionAnchor returns the day a completion toggled on `on` is stored under.
func (q Quest) CompletionAnchor(cal Calendar, on time.Time) time.Time {
	switch q.RepeatType {
	case RepeatOneTime:
		return cal.StartOfDay(q.DueDate)
	case RepeatWeekly:
		return cal.StartOfWeek(on)
	default:
		return cal.StartOfDay(on)
	}
}

func (q Quest) IsCompleted(cal Calendar, on time.Time) bool {
	if len(q.Completions) == 0 {
		return false
	}
	return q.Completions[cal.DayKey(q.CompletionAnchor(cal, on))]
}

// Applicable reports whether q shows up in the list for the day containing date.
func Applicable(cal Calendar, q Quest, date time.Time) bool {
	if q.IsFinished {
		return false
	}
	if !cal.InWindow(date, q.CreationDate, q.DueDate) {
		return false
	}
	if q.RepeatType == RepeatScheduled && !q.ScheduledDays[cal.Weekday(date)] {
		return false
	}
	return true
}

// ResolveState is done/todo for applicable quests and inactive otherwise.
func ResolveState(cal Calendar, q Quest, date time.Time) DayState {
	if !Applicable(cal, q, date) {
		return StateInactive
	}
	if q.IsCompleted(cal, date) {
		return StateDone
	}
	return StateTodo
}

// ItemsForDate lists the quests applicable on date, newest-created first.
func ItemsForDate(cal Calendar, quests []Quest, date time.Time) []DayQuestItem {
	day := cal.StartOfDay(date)
	items := make([]DayQuestItem, 0, len(quests))
	for _, q := range quests {
		if !Applicable(cal, q, day) {
			continue
		}
		state := StateTodo
		if q.IsCompleted(cal, day) {
			state = StateDone
		}
		items = append(items, DayQuestItem{ID: q.ID, Quest: q, Date: day, State: state})
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Quest.CreationDate.After(items[j].Quest.CreationDate)
	})
	return items
}

// ShouldShowFinishConfirmation reports whether completing q on `on` covers its
// last remaining occurrence, so the user should be offered to finish it.
func (q Quest) ShouldShowFinishConfirmation(cal Calendar, on time.Time) bool {
	day := cal.StartOfDay(on)
	due := cal.StartOfDay(q.DueDate)
	switch q.RepeatType {
	case RepeatOneTime:
		return true
	case RepeatDaily:
		return !day.Before(due)
	case RepeatWeekly:
		return !cal.StartOfWeek(day).Before(cal.StartOfWeek(due))
	case RepeatScheduled:
		for i := 1; i <= 7; i++ {
			d := cal.AddDays(day, i)
			if d.After(due) {
				break
			}
			if q.ScheduledDays[cal.Weekday(d)] {
				return false
			}
		}
		return true
	default:
		return false
	}
}
