package root

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/ui"
)

func newListCmd() *cobra.Command {
	var date string
	var tags []string
	var match string
	var all bool
	var showTasks bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the quests of a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, cleanup, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			out := cmd.OutOrStdout()
			if all {
				printAllQuests(out, a)
				return nil
			}

			d, err := a.day(date)
			if err != nil {
				return err
			}
			mode, err := engine.ParseMatchMode(match)
			if err != nil {
				return err
			}
			a.sess.SelectDate(d)
			a.sess.SetTagFilter(tags, mode)

			st := a.sess.State()
			fmt.Fprintln(out, ui.Heading(ui.IconCalendar, d.Format("Monday, 2006-01-02")))
			if len(st.SelectedTags) > 0 {
				fmt.Fprintln(out, ui.Muted.Render(fmt.Sprintf("tags (%s): %s", st.MatchMode, strings.Join(st.SelectedTags, ", "))))
			}
			if len(st.Items) == 0 {
				fmt.Fprintln(out, ui.Muted.Render("No quests for this day."))
				return nil
			}
			done := 0
			for _, it := range st.Items {
				if it.State == engine.StateDone {
					done++
				}
				fmt.Fprintln(out, itemLine(it))
				if showTasks {
					for _, t := range it.Quest.SortedTasks() {
						fmt.Fprintf(out, "      %s %s\n", ui.StateIcon(t.IsCompleted), t.Title)
					}
				}
			}
			fmt.Fprintln(out, "")
			fmt.Fprintf(out, "%s %s\n", ui.ProgressBar(done, len(st.Items), 20), ui.Muted.Render(fmt.Sprintf("%d/%d done", done, len(st.Items))))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Day to show, YYYY-MM-DD (default today)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Only quests with these tags")
	cmd.Flags().StringVar(&match, "match", "any", "Tag match mode (any|all)")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "List every quest regardless of date")
	cmd.Flags().BoolVar(&showTasks, "tasks", false, "Show tasks")

	return cmd
}

func itemLine(it engine.DayQuestItem) string {
	q := it.Quest
	line := fmt.Sprintf("%s %s %s %s %s",
		ui.StateIcon(it.State == engine.StateDone),
		ui.Muted.Render(shortID(q.ID)),
		ui.QuestIcon(q.IsMainQuest, string(q.RepeatType)),
		q.Title,
		ui.Stars(int(q.Difficulty)))
	if n := len(q.Tasks); n > 0 {
		line += ui.Muted.Render(fmt.Sprintf(" %d/%d", q.CompletedTaskCount(), n))
	}
	if q.Progress > 0 {
		line += ui.Muted.Render(fmt.Sprintf(" %d%%", q.Progress))
	}
	if len(q.Tags) > 0 {
		line += " " + ui.Muted.Render("#"+strings.Join(q.Tags, " #"))
	}
	return line
}

func printAllQuests(out io.Writer, a *app) {
	quests := a.sess.State().AllQuests
	sort.SliceStable(quests, func(i, j int) bool { return quests[i].CreationDate.After(quests[j].CreationDate) })
	fmt.Fprintln(out, ui.Heading(ui.IconScroll, "All quests"))
	if len(quests) == 0 {
		fmt.Fprintln(out, ui.Muted.Render("No quests yet. Try: ql add \"Drink water\" -r daily"))
		return
	}
	for _, q := range quests {
		status := "active"
		if q.IsFinished {
			status = "finished"
		}
		fmt.Fprintf(out, "%s %s %s %s %s\n",
			ui.Muted.Render(shortID(q.ID)),
			ui.QuestIcon(q.IsMainQuest, string(q.RepeatType)),
			q.Title,
			ui.Muted.Render(fmt.Sprintf("%s %s..%s", q.RepeatType, a.cal.DayKey(q.CreationDate), a.cal.DayKey(q.DueDate))),
			ui.StateText(status))
	}
}
