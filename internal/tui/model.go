package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"questlog/internal/engine"
	"questlog/internal/session"
	"questlog/internal/ui"
)

// Progress supplies the player panel.
type Progress interface {
	Player(ctx context.Context) (engine.PlayerStats, error)
	Streak(ctx context.Context, now time.Time) (engine.Streak, error)
}

type boardModel struct {
	ctx      context.Context
	sess     *session.Session
	progress Progress
	cal      engine.Calendar
	now      func() time.Time

	width  int
	height int

	state  session.State
	player *engine.PlayerStats
	streak engine.Streak

	expanded map[uuid.UUID]bool
	selected int

	lastLog string
	loading bool
	err     error
}

type loadedMsg struct {
	state  session.State
	player *engine.PlayerStats
	streak engine.Streak
	err    error
}

type mutatedMsg struct {
	action     string
	title      string
	completion *session.Completion
	err        error
}

type dbChangedMsg struct{}

func newBoardModel(ctx context.Context, sess *session.Session, progress Progress, cal engine.Calendar) boardModel {
	return boardModel{
		ctx:      ctx,
		sess:     sess,
		progress: progress,
		cal:      cal,
		now:      time.Now,
		expanded: map[uuid.UUID]bool{},
		loading:  true,
		lastLog:  "Loaded.",
	}
}

func (m boardModel) Init() tea.Cmd {
	return m.refreshCmd()
}

// refreshCmd rolls quests over to today before loading, as on app start.
func (m boardModel) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.Refresh(m.ctx, m.now()); err != nil {
			return loadedMsg{err: err}
		}
		return m.snapshot()
	}
}

func (m boardModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		if err := m.sess.Load(m.ctx); err != nil {
			return loadedMsg{err: err}
		}
		return m.snapshot()
	}
}

func (m boardModel) snapshot() loadedMsg {
	msg := loadedMsg{state: m.sess.State()}
	if m.progress == nil {
		return msg
	}
	p, err := m.progress.Player(m.ctx)
	if err != nil {
		msg.err = err
		return msg
	}
	msg.player = &p
	msg.streak, msg.err = m.progress.Streak(m.ctx, m.now())
	return msg
}

func (m boardModel) mutateCmd(action, title string, op func() error) tea.Cmd {
	return func() tea.Msg {
		err := op()
		msg := mutatedMsg{action: action, title: title, err: err}
		if c, ok := m.sess.ConsumeCompletion(); ok {
			msg.completion = &c
		}
		return msg
	}
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case loadedMsg:
		wasLoading := m.loading
		m.loading = false
		if msg.err != nil {
			m.lastLog = "Load failed: " + msg.err.Error()
			m.state = m.sess.State()
			return m, nil
		}
		m.state = msg.state
		m.player = msg.player
		m.streak = msg.streak
		m.clampSelection()
		if wasLoading {
			m.lastLog = fmt.Sprintf("Refreshed at %s.", m.now().Format("15:04:05"))
		}
		return m, nil
	case dbChangedMsg:
		return m, m.loadCmd()
	case mutatedMsg:
		m.state = m.sess.State()
		switch {
		case errors.Is(msg.err, engine.ErrQuestBusy):
			m.lastLog = fmt.Sprintf("%s: still saving, try again.", msg.title)
		case msg.err != nil:
			m.lastLog = fmt.Sprintf("%s failed: %v", msg.action, msg.err)
		case msg.completion != nil:
			c := msg.completion
			m.lastLog = fmt.Sprintf("%s Finished %s: %s", ui.IconTrophy, c.Quest.Title,
				ui.RewardLine(c.Reward.Experience, c.Reward.Coins, c.Reward.Gems))
			if c.LeveledUp {
				m.lastLog += fmt.Sprintf("  %s → level %d", ui.BadgeLevelUp, c.NewLevel)
			}
		default:
			m.lastLog = fmt.Sprintf("%s %s.", msg.action, msg.title)
		}
		return m, m.loadCmd()
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m boardModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state.ShowFinishConfirmation {
		switch msg.String() {
		case "y", "enter":
			title := ""
			if m.state.QuestToFinish != nil {
				title = m.state.QuestToFinish.Title
			}
			return m, m.mutateCmd("Finish", title, func() error { return m.sess.ConfirmFinish(m.ctx) })
		case "n", "esc":
			m.sess.DeclineFinish()
			m.state = m.sess.State()
			m.lastLog = "Kept the quest open."
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r":
		m.loading = true
		m.lastLog = "Refreshing…"
		return m, m.refreshCmd()
	case "esc":
		m.sess.DismissAlert()
		m.state = m.sess.State()
		return m, nil
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
		return m, nil
	case "down", "j":
		if m.selected < len(m.questLines())-1 {
			m.selected++
		}
		return m, nil
	case "left", "h":
		return m.shiftDate(-1), nil
	case "right", "l":
		return m.shiftDate(1), nil
	case "t":
		m.sess.SelectDate(m.now())
		m.state = m.sess.State()
		m.clampSelection()
		return m, nil
	}

	line, ok := m.selectedLine()
	if !ok {
		return m, nil
	}
	switch msg.String() {
	case "c", " ", "f", "+", "=", "-":
		if line.busy {
			m.lastLog = "Still saving " + line.questTitle + "…"
			return m, nil
		}
	}
	switch msg.String() {
	case "enter":
		if line.taskCount > 0 {
			m.expanded[line.questID] = !m.expanded[line.questID]
		}
		return m, nil
	case "c", " ":
		if line.taskID != uuid.Nil {
			return m, m.mutateCmd("Toggled task of", line.questTitle, func() error {
				return m.sess.ToggleTask(m.ctx, line.questID, line.taskID)
			})
		}
		return m, m.mutateCmd("Toggled", line.title, func() error { return m.sess.Toggle(m.ctx, line.questID) })
	case "f":
		return m, m.mutateCmd("Finish", line.questTitle, func() error { return m.sess.Finish(m.ctx, line.questID) })
	case "+", "=":
		return m, m.progressCmd(line, 10)
	case "-":
		return m, m.progressCmd(line, -10)
	}
	return m, nil
}

func (m boardModel) progressCmd(line questLine, delta int) tea.Cmd {
	return m.mutateCmd("Progress on", line.questTitle, func() error {
		return m.sess.UpdateProgress(m.ctx, line.questID, line.progress+delta)
	})
}

func (m boardModel) shiftDate(days int) boardModel {
	m.sess.SelectDate(m.cal.AddDays(m.state.SelectedDate, days))
	m.state = m.sess.State()
	m.clampSelection()
	return m
}

func (m *boardModel) clampSelection() {
	n := len(m.questLines())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

type questLine struct {
	questID    uuid.UUID
	taskID     uuid.UUID
	depth      int
	title      string
	questTitle string
	done       bool
	state      engine.DayState
	isMain     bool
	repeat     engine.RepeatType
	difficulty engine.Difficulty
	progress   int
	taskCount  int
	tasksDone  int
	expanded   bool
	busy       bool
}

func (m boardModel) questLines() []questLine {
	var out []questLine
	for _, it := range m.state.Items {
		q := it.Quest
		out = append(out, questLine{
			questID:    q.ID,
			title:      q.Title,
			questTitle: q.Title,
			done:       it.State == engine.StateDone,
			state:      it.State,
			isMain:     q.IsMainQuest,
			repeat:     q.RepeatType,
			difficulty: q.Difficulty,
			progress:   q.Progress,
			taskCount:  len(q.Tasks),
			tasksDone:  q.CompletedTaskCount(),
			expanded:   m.expanded[q.ID],
			busy:       m.sess.Busy(q.ID),
		})
		if !m.expanded[q.ID] {
			continue
		}
		for _, t := range q.SortedTasks() {
			out = append(out, questLine{
				questID:    q.ID,
				taskID:     t.ID,
				depth:      1,
				title:      t.Title,
				questTitle: q.Title,
				done:       t.IsCompleted,
				progress:   q.Progress,
				busy:       m.sess.Busy(q.ID),
			})
		}
	}
	return out
}

func (m boardModel) selectedLine() (questLine, bool) {
	lines := m.questLines()
	if m.selected < 0 || m.selected >= len(lines) {
		return questLine{}, false
	}
	return lines[m.selected], true
}

func (m boardModel) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n\nPress q to quit.\n"
	}

	header := m.renderHeader()
	sidebar := m.renderSidebar()
	main := m.renderMain()
	footer := m.renderFooter()

	leftW := 28
	if m.width > 0 {
		maxLeft := m.width / 2
		if maxLeft < leftW {
			leftW = maxLeft
		}
		if leftW < 18 {
			leftW = 18
		}
	}

	linesLeft := strings.Split(sidebar, "\n")
	linesRight := strings.Split(main, "\n")
	max := len(linesLeft)
	if len(linesRight) > max {
		max = len(linesRight)
	}

	var body strings.Builder
	for i := 0; i < max; i++ {
		l := ""
		r := ""
		if i < len(linesLeft) {
			l = linesLeft[i]
		}
		if i < len(linesRight) {
			r = linesRight[i]
		}
		body.WriteString(padRight(l, leftW))
		body.WriteString("  ")
		body.WriteString(r)
		body.WriteString("\n")
	}

	return header + "\n" + body.String() + footer
}

func (m boardModel) renderHeader() string {
	date := m.state.SelectedDate.Format("Mon 2006-01-02")
	if m.player == nil {
		return fmt.Sprintf("Questlog | %s %s", ui.IconCalendar, date)
	}
	p := m.player
	bar := ui.ProgressBar(p.XPTotal-p.LevelFloor, p.LevelCeil-p.LevelFloor, 30)
	return fmt.Sprintf("Questlog | %s %s | Level %d | XP %d %s", ui.IconCalendar, date, p.Level, p.XPTotal, bar)
}

func (m boardModel) renderSidebar() string {
	lines := []string{"Player"}
	if m.player == nil {
		lines = append(lines, "Loading…")
	} else {
		lines = append(lines,
			fmt.Sprintf("- %s %d coins", ui.IconCoin, m.player.Coins),
			fmt.Sprintf("- %s %d gems", ui.IconGem, m.player.Gems),
			fmt.Sprintf("- %s streak %d (best %d)", ui.IconFire, m.streak.Current, m.streak.Longest),
			fmt.Sprintf("- %d XP to next level", m.player.XPToNext),
		)
	}
	if len(m.state.SelectedTags) > 0 {
		lines = append(lines, "", fmt.Sprintf("Tags (%s)", m.state.MatchMode))
		for _, t := range m.state.SelectedTags {
			lines = append(lines, "- #"+t)
		}
	}
	lines = append(lines, "")
	lines = append(lines, "Keys")
	lines = append(lines, "- ↑/↓ or j/k: move")
	lines = append(lines, "- ←/→ or h/l: day")
	lines = append(lines, "- t: today")
	lines = append(lines, "- c/space: toggle")
	lines = append(lines, "- enter: tasks")
	lines = append(lines, "- f: finish")
	lines = append(lines, "- +/-: progress")
	lines = append(lines, "- r: refresh")
	lines = append(lines, "- q: quit")
	return strings.Join(lines, "\n")
}

func (m boardModel) renderMain() string {
	if m.loading {
		return "Loading…"
	}
	var out []string
	if m.state.ShowFinishConfirmation && m.state.QuestToFinish != nil {
		out = append(out, ui.Prompt.Render(fmt.Sprintf("%s That was the last one for %q. Finish the quest? (y/n)",
			ui.IconTrophy, m.state.QuestToFinish.Title)), "")
	}
	if m.state.AlertMessage != "" {
		out = append(out, ui.Bad.Render(ui.IconWarn+" "+m.state.AlertMessage)+ui.Dim.Render("  (esc)"), "")
	}

	out = append(out, "Quests")
	lines := m.questLines()
	if len(lines) == 0 {
		out = append(out, "(nothing for this day)")
		return strings.Join(out, "\n")
	}
	for i, ql := range lines {
		cursor := "  "
		if i == m.selected {
			cursor = "> "
		}
		if ql.depth > 0 {
			out = append(out, fmt.Sprintf("%s    %s %s", cursor, ui.StateIcon(ql.done), ql.title))
			continue
		}
		fold := "  "
		if ql.taskCount > 0 {
			if ql.expanded {
				fold = "▾ "
			} else {
				fold = "▸ "
			}
		}
		extra := ""
		if ql.taskCount > 0 {
			extra = fmt.Sprintf(" %d/%d", ql.tasksDone, ql.taskCount)
		}
		if ql.progress > 0 {
			extra += fmt.Sprintf(" %d%%", ql.progress)
		}
		if ql.busy {
			extra += " ⏳"
		}
		out = append(out, fmt.Sprintf("%s%s%s %s %s %s%s (%s)", cursor, fold, ui.StateIcon(ql.done),
			ui.QuestIcon(ql.isMain, string(ql.repeat)), ql.title, ui.Stars(int(ql.difficulty)), extra, ui.StateText(string(ql.state))))
	}
	return strings.Join(out, "\n")
}

func (m boardModel) renderFooter() string {
	return "\n" + m.lastLog
}

func padRight(s string, width int) string {
	if width <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) >= width {
		return string(r[:width])
	}
	return s + strings.Repeat(" ", width-len(r))
}
