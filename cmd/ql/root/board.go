package root

import (
	"context"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"questlog/internal/scheduler"
	"questlog/internal/session"
	"questlog/internal/tui"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the TUI dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			// The board lets the user browse days; rollover must not move them.
			board := session.New("board", session.KeepSelection, a.deps)
			defer board.Close()
			if err := board.Load(ctx); err != nil {
				return err
			}

			roll := scheduler.NewRollover(a.cfg.Scheduler.RolloverSpec, a.cal.Location, board)
			if err := roll.Start(); err != nil {
				log.Printf("[Board] %v", err)
			} else {
				defer roll.Stop()
			}

			return tui.RunBoard(ctx, board, a.svc, a.cal, a.dbPath, cmd.OutOrStdout())
		},
	}

	return cmd
}
