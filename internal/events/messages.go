package events

import (
	"github.com/google/uuid"

	"questlog/internal/engine"
)

const (
	QuestUpdated             = "quest:updated"
	QuestDeleted             = "quest:deleted"
	QuestCreated             = "quest:created"
	QuestCompletedFromDetail = "quest:completed-from-detail"
)

// QuestChangedPayload identifies the quest an update, delete or create event is about.
type QuestChangedPayload struct {
	QuestID uuid.UUID
	Title   string
}

// QuestCompletedPayload is sent when a quest is finished from a single-quest surface.
type QuestCompletedPayload struct {
	Quest     engine.Quest
	LeveledUp bool
	NewLevel  int
}

// IsQuestEvent reports whether eventType is one of the quest change types.
func IsQuestEvent(eventType string) bool {
	switch eventType {
	case QuestUpdated, QuestDeleted, QuestCreated, QuestCompletedFromDetail:
		return true
	default:
		return false
	}
}
