package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProgressBar(t *testing.T) {
	assert.Equal(t, "[#####-----]", ProgressBar(50, 100, 10))
	assert.Equal(t, "[----------]", ProgressBar(-3, 100, 10))
	assert.Equal(t, "[##########]", ProgressBar(300, 100, 10))
	assert.Equal(t, "[---]", ProgressBar(0, 0, 1))
}

func TestQuestIcon(t *testing.T) {
	assert.Equal(t, IconMain, QuestIcon(true, "daily"))
	assert.Equal(t, IconCalendar, QuestIcon(false, "scheduled"))
	assert.Equal(t, IconQuest, QuestIcon(false, "oneTime"))
}

func TestStarsClamps(t *testing.T) {
	assert.Equal(t, 5, strings.Count(Stars(9), "★"))
	assert.Equal(t, 5, strings.Count(Stars(-1), "☆"))
}
