package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Difficulty int

const (
	DifficultyTrivial Difficulty = 1
	DifficultyEasy    Difficulty = 2
	DifficultyMedium  Difficulty = 3
	DifficultyHard    Difficulty = 4
	DifficultyEpic    Difficulty = 5
)

func (d Difficulty) IsValid() bool {
	return d >= DifficultyTrivial && d <= DifficultyEpic
}

// RepeatType is the cadence of a quest. It also decides which day a completion
// is stored under (see CompletionAnchor).
type RepeatType string

const (
	RepeatOneTime   RepeatType = "oneTime"
	RepeatDaily     RepeatType = "daily"
	RepeatWeekly    RepeatType = "weekly"
	RepeatScheduled RepeatType = "scheduled"
)

func (r RepeatType) IsValid() bool {
	switch r {
	case RepeatOneTime, RepeatDaily, RepeatWeekly, RepeatScheduled:
		return true
	default:
		return false
	}
}

func ParseRepeatType(input string) (RepeatType, error) {
	switch strings.TrimSpace(strings.ToLower(input)) {
	case "", "onetime", "one-time", "once":
		return RepeatOneTime, nil
	case "daily":
		return RepeatDaily, nil
	case "weekly":
		return RepeatWeekly, nil
	case "scheduled":
		return RepeatScheduled, nil
	default:
		return "", fmt.Errorf("invalid repeat type: %q", input)
	}
}

// Weekday numbers days with Sunday=1 through Saturday=7.
type Weekday int

const (
	Sunday Weekday = iota + 1
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

func WeekdayOf(d time.Weekday) Weekday {
	return Weekday(int(d) + 1)
}

func (w Weekday) Std() time.Weekday {
	return time.Weekday(int(w) - 1)
}

func (w Weekday) IsValid() bool {
	return w >= Sunday && w <= Saturday
}

func (w Weekday) String() string {
	if !w.IsValid() {
		return fmt.Sprintf("Weekday(%d)", int(w))
	}
	return w.Std().String()
}

// ParseWeekday accepts an English day name or prefix ("mon", "Tuesday") or a number 1-7.
func ParseWeekday(input string) (Weekday, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if len(s) == 1 && s[0] >= '1' && s[0] <= '7' {
		return Weekday(s[0] - '0'), nil
	}
	if len(s) >= 2 {
		for d := Sunday; d <= Saturday; d++ {
			if strings.HasPrefix(strings.ToLower(d.String()), s) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid weekday: %q", input)
}

type QuestTask struct {
	ID          uuid.UUID
	Title       string
	IsCompleted bool
	Order       int
}

type Quest struct {
	ID          uuid.UUID
	Title       string
	Info        string
	IsMainQuest bool
	Difficulty  Difficulty

	CreationDate time.Time
	DueDate      time.Time

	RepeatType    RepeatType
	ScheduledDays map[Weekday]bool

	Tasks []QuestTask
	Tags  []string

	// Completions holds anchor day keys (see Calendar.DayKey).
	Completions map[string]bool

	IsFinished bool
	FinishedAt *time.Time

	Progress int
}

// SortedTasks returns the quest tasks ordered by Order.
func (q Quest) SortedTasks() []QuestTask {
	out := make([]QuestTask, len(q.Tasks))
	copy(out, q.Tasks)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// CompletedTaskCount returns how many tasks are checked off.
func (q Quest) CompletedTaskCount() int {
	n := 0
	for _, t := range q.Tasks {
		if t.IsCompleted {
			n++
		}
	}
	return n
}

func (q Quest) HasTag(tag string) bool {
	for _, t := range q.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ScheduledWeekdays returns the scheduled days in ascending order.
func (q Quest) ScheduledWeekdays() []Weekday {
	var out []Weekday
	for d := Sunday; d <= Saturday; d++ {
		if q.ScheduledDays[d] {
			out = append(out, d)
		}
	}
	return out
}

type DayState string

const (
	StateDone     DayState = "done"
	StateTodo     DayState = "todo"
	StateInactive DayState = "inactive"
)

// DayQuestItem is a quest as it appears on one calendar day.
type DayQuestItem struct {
	ID    uuid.UUID
	Quest Quest
	Date  time.Time
	State DayState
}

type MatchMode string

const (
	MatchAny MatchMode = "any"
	MatchAll MatchMode = "all"
)
