package root

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/ui"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task <quest-id> <n>",
		Short: "Check or uncheck the n-th task of a quest",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("quest id and task number are required")
			}
			if n, err := strconv.Atoi(args[1]); err != nil || n < 1 {
				return errors.New("task number must be a positive integer")
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

			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			n, _ := strconv.Atoi(args[1])
			tasks := q.SortedTasks()
			if n > len(tasks) {
				return fmt.Errorf("%w: %s has %d tasks", engine.ErrTaskNotFound, q.Title, len(tasks))
			}
			t := tasks[n-1]
			if err := a.sess.ToggleTask(ctx, q.ID, t.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.StateIcon(!t.IsCompleted), t.Title, ui.Muted.Render("("+q.Title+")"))
			return nil
		},
	}

	return cmd
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress <id> <percent>",
		Short: "Set the progress of a quest (0-100)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 2 {
				return errors.New("id and percent are required")
			}
			if _, err := strconv.Atoi(strings.TrimSuffix(args[1], "%")); err != nil {
				return errors.New("percent must be an integer")
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

			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			p, _ := strconv.Atoi(strings.TrimSuffix(args[1], "%"))
			if err := a.sess.UpdateProgress(ctx, q.ID, p); err != nil {
				return err
			}
			if updated, err := a.sess.FindQuest(q.ID.String()); err == nil {
				p = updated.Progress
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %d%%\n", q.Title, ui.ProgressBar(p, 100, 20), p)
			return nil
		},
	}

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a quest with its tasks and completions",
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

			q, err := questRef(a, args)
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to delete %q without --yes", q.Title)
			}
			if err := a.sess.Delete(ctx, q.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", ui.Warn.Render(ui.IconWarn+" Deleted"), ui.Muted.Render(shortID(q.ID)), q.Title)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm deletion")

	return cmd
}
