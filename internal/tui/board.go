package tui

import (
	"context"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"questlog/internal/engine"
	"questlog/internal/session"
	"questlog/internal/watch"
)

// RunBoard runs the board until the user quits. When dbPath is set, changes
// made by other ql processes reload the board.
func RunBoard(ctx context.Context, sess *session.Session, progress Progress, cal engine.Calendar, dbPath string, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := newBoardModel(ctx, sess, progress, cal)
	p := tea.NewProgram(m, tea.WithOutput(out))

	if dbPath != "" {
		w := watch.NewDB(dbPath, func() { p.Send(dbChangedMsg{}) })
		go func() {
			if err := w.Run(ctx); err != nil {
				log.Printf("[Board] Watcher stopped: %v", err)
			}
		}()
	}

	_, err := p.Run()
	return err
}
