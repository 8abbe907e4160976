package root

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"questlog/internal/engine"
	"questlog/internal/ui"
)

func newAddCmd() *cobra.Command {
	var info string
	var diff int
	var isMain bool
	var repeat string
	var days []string
	var due string
	var created string
	var tasks []string
	var tags []string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a quest",
		Long: `Add a quest.

A one-time quest is due today unless --due is given. Repeating quests
(daily, weekly, scheduled) default to a 30 day window. Scheduled quests
need --days, e.g. --days mon,wed,fri.`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("title is required")
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

			rt, err := engine.ParseRepeatType(repeat)
			if err != nil {
				return err
			}
			var weekdays []engine.Weekday
			for _, d := range days {
				wd, err := engine.ParseWeekday(d)
				if err != nil {
					return err
				}
				weekdays = append(weekdays, wd)
			}
			if rt == engine.RepeatScheduled && len(weekdays) == 0 {
				return errors.New("scheduled quests need --days")
			}

			in := engine.CreateQuestInput{
				Title:         args[0],
				Info:          info,
				IsMainQuest:   isMain,
				Difficulty:    engine.Difficulty(diff),
				RepeatType:    rt,
				ScheduledDays: weekdays,
				Tasks:         tasks,
				Tags:          tags,
			}
			if created != "" {
				if in.CreationDate, err = a.day(created); err != nil {
					return err
				}
			}
			if in.DueDate, err = a.day(due); err != nil {
				return err
			}
			if due == "" && rt != engine.RepeatOneTime {
				in.DueDate = a.cal.AddDays(in.DueDate, 30)
			}
			if !in.CreationDate.IsZero() && in.DueDate.Before(in.CreationDate) {
				return fmt.Errorf("due date %s is before creation date %s", a.cal.DayKey(in.DueDate), a.cal.DayKey(in.CreationDate))
			}

			q, err := a.sess.Create(ctx, in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s\n",
				ui.Good.Render(ui.IconPlus+" Added"),
				ui.Muted.Render(shortID(q.ID)),
				ui.QuestIcon(q.IsMainQuest, string(q.RepeatType)),
				q.Title)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", ui.Muted.Render(string(q.RepeatType)+" until"), a.cal.DayKey(q.DueDate))
			if len(q.Tasks) > 0 {
				fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Render(fmt.Sprintf("%d tasks", len(q.Tasks))))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&info, "info", "i", "", "Description")
	cmd.Flags().IntVarP(&diff, "diff", "d", int(engine.DifficultyMedium), "Difficulty (1-5)")
	cmd.Flags().BoolVarP(&isMain, "main", "m", false, "Main quest (bigger reward)")
	cmd.Flags().StringVarP(&repeat, "repeat", "r", "once", "Repeat (once|daily|weekly|scheduled)")
	cmd.Flags().StringSliceVar(&days, "days", nil, "Weekdays of a scheduled quest (mon,tue,...)")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD")
	cmd.Flags().StringVar(&created, "created", "", "Creation date YYYY-MM-DD (default now)")
	cmd.Flags().StringArrayVarP(&tasks, "task", "t", nil, "Add a task (repeatable)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags")

	return cmd
}
