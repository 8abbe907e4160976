package root

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/events"
	"questlog/internal/scheduler"
	"questlog/internal/ui"
	"questlog/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var verbose bool
	var debounce time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print today's quests whenever the database changes",
		Long: `Print today's quests whenever the database changes.

Changes made by other ql commands or the board show up here. The daily
rollover runs on the configured schedule while watch is running.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			out := cmd.OutOrStdout()

			logger := events.NewLoggingObserver(verbose)
			a.dispatcher.Register(logger)
			defer a.dispatcher.Unregister(logger)

			roll := scheduler.NewRollover(a.cfg.Scheduler.RolloverSpec, a.cal.Location, a.sess)
			if err := roll.Start(); err != nil {
				return err
			}
			defer roll.Stop()

			log.Printf("[Watch] %d observers registered", a.dispatcher.ObserverCount())
			printSummary(out, a, roll)
			w := watch.NewDB(a.dbPath, func() {
				// The session re-fetches synchronously on a foreign event.
				a.dispatcher.Dispatch(events.NewTypedEvent(ctx, events.QuestUpdated, "watcher", events.QuestChangedPayload{}))
				printSummary(out, a, roll)
			})
			if debounce > 0 {
				w.SetDebounce(debounce)
			}
			fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("Watching %s (next rollover %s). Ctrl-C to stop.", a.dbPath, roll.Next().Format("2006-01-02 15:04"))))
			return w.Run(ctx)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log event payloads")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before reloading (default 250ms)")

	return cmd
}

func printSummary(out io.Writer, a *app, roll *scheduler.Rollover) {
	st := a.sess.State()
	done := 0
	for _, it := range st.Items {
		if it.State == engine.StateDone {
			done++
		}
	}
	fmt.Fprintf(out, "%s %s %s %s\n",
		ui.Muted.Render(time.Now().Format("15:04:05")),
		ui.Key.Render(st.SelectedDate.Format("Mon 2006-01-02")),
		ui.ProgressBar(done, len(st.Items), 20),
		ui.Muted.Render(fmt.Sprintf("%d/%d done", done, len(st.Items))))
	if last := roll.LastRun(); !last.IsZero() {
		fmt.Fprintln(out, ui.Muted.Render("last rollover "+last.Format("2006-01-02 15:04")))
	}
}
