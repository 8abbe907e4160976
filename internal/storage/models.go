package storage

import "time"

type Player struct {
	Key     string
	Level   int
	XPTotal int
	Coins   int
	Gems    int
}

type Quest struct {
	ID            string
	Title         string
	Info          string
	IsMainQuest   bool
	Difficulty    int
	CreatedAt     time.Time
	DueAt         time.Time
	RepeatType    string
	ScheduledDays []int
	IsFinished    bool
	FinishedAt    *time.Time
	Progress      int
	TasksResetKey *string

	Tasks          []QuestTask
	Tags           []string
	CompletionDays []string
}

type QuestTask struct {
	ID          string
	QuestID     string
	Title       string
	IsCompleted bool
	Order       int
}

type Booster struct {
	ID         int64
	Type       string
	Multiplier float64
	FlatBonus  int
	Source     string
	SourceID   string
	SourceName string
	ExpiresAt  *time.Time
}
