package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Questlog theme (CLI + TUI).

const (
	IconQuest    = "🗺️"
	IconMain     = "👑"
	IconSparkle  = "✨"
	IconPlus     = "➕"
	IconDone     = "✅"
	IconTodo     = "⬜"
	IconTrophy   = "🏆"
	IconBolt     = "⚡"
	IconInfo     = "ℹ️"
	IconWarn     = "⚠️"
	IconError    = "🧨"
	IconLoop     = "🔁"
	IconCalendar = "📅"
	IconScroll   = "📜"
	IconCoin     = "🪙"
	IconGem      = "💎"
	IconFire     = "🔥"
)

var (
	cPrimary = lipgloss.Color("63")  // blue
	cAccent  = lipgloss.Color("205") // magenta
	cGood    = lipgloss.Color("42")  // green
	cWarn    = lipgloss.Color("214") // orange
	cBad     = lipgloss.Color("196") // red
	cMuted   = lipgloss.Color("244") // gray
	cGold    = lipgloss.Color("220") // gold
)

var (
	Title = lipgloss.NewStyle().Bold(true).Foreground(cAccent)
	H2    = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Muted = lipgloss.NewStyle().Foreground(cMuted)
	Key   = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	Good  = lipgloss.NewStyle().Bold(true).Foreground(cGood)
	Warn  = lipgloss.NewStyle().Bold(true).Foreground(cWarn)
	Bad   = lipgloss.NewStyle().Bold(true).Foreground(cBad)
	Gold  = lipgloss.NewStyle().Bold(true).Foreground(cGold)
	Dim   = lipgloss.NewStyle().Foreground(cMuted)

	Panel       = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(cMuted).Padding(0, 1)
	PanelTitle  = lipgloss.NewStyle().Bold(true).Foreground(cPrimary)
	SelectedRow = lipgloss.NewStyle().Bold(true).Foreground(cGold).Background(cPrimary)
	Prompt      = lipgloss.NewStyle().BorderStyle(lipgloss.DoubleBorder()).BorderForeground(cGold).Padding(0, 1)

	BadgeLevelUp = lipgloss.NewStyle().Bold(true).Foreground(cGold).Render("LEVEL UP")
)

func Heading(icon string, title string) string {
	icon = strings.TrimSpace(icon)
	if icon != "" {
		icon += " "
	}
	return Title.Render(icon + title)
}

func LabelValue(label string, value any) string {
	return fmt.Sprintf("%s %v", Key.Render(label+":"), value)
}

// StateText renders a day state (done, todo, inactive) or a quest status.
func StateText(state string) string {
	s := strings.ToLower(strings.TrimSpace(state))
	switch s {
	case "done":
		return Good.Render("done")
	case "todo":
		return Warn.Render("todo")
	case "finished":
		return Gold.Render("finished")
	default:
		return Muted.Render(state)
	}
}

func StateIcon(done bool) string {
	if done {
		return IconDone
	}
	return IconTodo
}

// RepeatIcon picks an icon for a repeat type name.
func RepeatIcon(repeatType string) string {
	switch repeatType {
	case "daily", "weekly":
		return IconLoop
	case "scheduled":
		return IconCalendar
	default:
		return IconQuest
	}
}

func QuestIcon(isMainQuest bool, repeatType string) string {
	if isMainQuest {
		return IconMain
	}
	return RepeatIcon(repeatType)
}

// Stars renders a 1-5 difficulty.
func Stars(difficulty int) string {
	if difficulty < 0 {
		difficulty = 0
	}
	if difficulty > 5 {
		difficulty = 5
	}
	return Gold.Render(strings.Repeat("★", difficulty)) + Dim.Render(strings.Repeat("☆", 5-difficulty))
}

// RewardLine formats a reward summary such as "+30 XP  🪙 34  💎 1".
func RewardLine(xp, coins, gems int) string {
	return fmt.Sprintf("%s  %s %d  %s %d", Good.Render(fmt.Sprintf("+%d XP", xp)), IconCoin, coins, IconGem, gems)
}

// ProgressBar draws value/total as a fixed-width ASCII bar.
func ProgressBar(value int, total int, width int) string {
	if total <= 0 {
		total = 1
	}
	if width <= 3 {
		width = 3
	}
	if value < 0 {
		value = 0
	}
	if value > total {
		value = total
	}
	filled := int(float64(value) / float64(total) * float64(width))
	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}
