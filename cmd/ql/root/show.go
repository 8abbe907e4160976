package root

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"questlog/internal/session"
	"questlog/internal/ui"
)

func newShowCmd() *cobra.Command {
	var last int

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one quest with its tasks and recent completions",
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

			ref, err := questRef(a, args)
			if err != nil {
				return err
			}
			d := session.NewDetail(ref.ID, a.deps)
			defer d.Close()
			if err := d.Load(ctx); err != nil {
				return err
			}
			q := d.State().Quest
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, ui.Heading(ui.QuestIcon(q.IsMainQuest, string(q.RepeatType)), q.Title))
			if q.Info != "" {
				fmt.Fprintln(out, ui.Muted.Render(q.Info))
			}
			fmt.Fprintln(out, ui.LabelValue("ID", q.ID))
			repeat := string(q.RepeatType)
			if days := q.ScheduledWeekdays(); len(days) > 0 {
				names := make([]string, len(days))
				for i, wd := range days {
					names[i] = wd.String()[:3]
				}
				repeat += " (" + strings.Join(names, ", ") + ")"
			}
			fmt.Fprintln(out, ui.LabelValue("Repeat", repeat))
			fmt.Fprintln(out, ui.LabelValue("Window", a.cal.DayKey(q.CreationDate)+" .. "+a.cal.DayKey(q.DueDate)))
			fmt.Fprintln(out, ui.LabelValue("Difficulty", ui.Stars(int(q.Difficulty))))
			status := "active"
			if q.IsFinished {
				status = "finished"
			}
			fmt.Fprintln(out, ui.LabelValue("Status", ui.StateText(status)))
			if len(q.Tags) > 0 {
				fmt.Fprintln(out, ui.LabelValue("Tags", "#"+strings.Join(q.Tags, " #")))
			}
			fmt.Fprintln(out, ui.LabelValue("Progress", fmt.Sprintf("%s %d%%", ui.ProgressBar(q.Progress, 100, 20), q.Progress)))

			if tasks := q.SortedTasks(); len(tasks) > 0 {
				fmt.Fprintln(out, "")
				fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("Tasks %d/%d", q.CompletedTaskCount(), len(tasks))))
				for i, t := range tasks {
					fmt.Fprintf(out, "%d. %s %s\n", i+1, ui.StateIcon(t.IsCompleted), t.Title)
				}
			}

			keys := make([]string, 0, len(q.Completions))
			for k, ok := range q.Completions {
				if ok {
					keys = append(keys, k)
				}
			}
			sort.Sort(sort.Reverse(sort.StringSlice(keys)))
			fmt.Fprintln(out, "")
			fmt.Fprintln(out, ui.H2.Render(fmt.Sprintf("Completions (%d)", len(keys))))
			if last > 0 && len(keys) > last {
				keys = keys[:last]
			}
			for _, k := range keys {
				fmt.Fprintf(out, "- %s\n", k)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&last, "last", "n", 10, "Completions to list (0 for all)")

	return cmd
}
