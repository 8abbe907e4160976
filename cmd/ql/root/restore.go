package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"questlog/internal/ui"
)

func newUndoCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:     "undo <id>",
		Aliases: []string{"restore"},
		Short:   "Remove the completion of a quest for a day",
		Long: `Remove the completion of a quest for a day (today by default).

This only clears the completion mark. Rewards are granted when a quest is
finished, so nothing is deducted, and a finished quest stays finished.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("id is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			d, err := a.day(date)
			if err != nil {
				return err
			}
			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			if !q.IsCompleted(a.cal, d) {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("%s is not done on %s", q.Title, a.cal.DayKey(d))))
				return nil
			}
			if err := a.sess.SetCompleted(ctx, q.ID, d, false); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n", ui.Warn.Render(ui.IconLoop+" Undone"), ui.Muted.Render(shortID(q.ID)), q.Title, ui.Muted.Render(a.cal.DayKey(d)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day, YYYY-MM-DD (default today)")

	return cmd
}
